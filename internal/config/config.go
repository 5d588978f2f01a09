package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	PolicyAIFirst       = "ai_first"
	PolicyTemplateFirst = "template_first"
)

type Config struct {
	Env            string        `mapstructure:"ENV"`
	Port           string        `mapstructure:"PORT"`
	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	RedisURL       string        `mapstructure:"REDIS_URL"`
	AdminKey       string        `mapstructure:"ADMIN_KEY"`
	CORSAllowed    string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`

	AIAPIKey          string        `mapstructure:"AI_API_KEY"`
	AIBaseURL         string        `mapstructure:"AI_BASE_URL"`
	AIModel           string        `mapstructure:"AI_MODEL"`
	AIMaxTokens       int           `mapstructure:"AI_MAX_TOKENS"`
	AITemperature     float64       `mapstructure:"AI_TEMPERATURE"`
	AIDailyTokenLimit int64         `mapstructure:"AI_DAILY_TOKEN_LIMIT"`
	AIEnableCaching   bool          `mapstructure:"AI_ENABLE_CACHING"`
	AITimeout         time.Duration `mapstructure:"AI_TIMEOUT"`

	RoutingPolicy         string        `mapstructure:"CHAT_ROUTING_POLICY"`
	IntentExactConfidence float64       `mapstructure:"INTENT_EXACT_CONFIDENCE"`
	IntentFuzzyThreshold  int           `mapstructure:"INTENT_FUZZY_THRESHOLD"`
	CacheMinConfidence    float64       `mapstructure:"CACHE_MIN_CONFIDENCE"`
	CachedAnswerTTL       time.Duration `mapstructure:"CACHED_ANSWER_TTL"`
	CachePurgeInterval    time.Duration `mapstructure:"CACHE_PURGE_INTERVAL"`
	SearchCacheTTL        time.Duration `mapstructure:"SEARCH_CACHE_TTL"`

	RateLimitRPM   int `mapstructure:"RATE_LIMIT_RPM"`
	RateLimitBurst int `mapstructure:"RATE_LIMIT_BURST"`

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	MailFrom     string `mapstructure:"MAIL_FROM"`
	SupportEmail string `mapstructure:"SUPPORT_EMAIL"`

	CompanyName     string `mapstructure:"COMPANY_NAME"`
	CompanyBusiness string `mapstructure:"COMPANY_BUSINESS"`
	CompanyAddress  string `mapstructure:"COMPANY_ADDRESS"`
	CompanyPhone    string `mapstructure:"COMPANY_PHONE"`
	CompanyEmail    string `mapstructure:"COMPANY_EMAIL"`
	CompanyHours    string `mapstructure:"COMPANY_HOURS"`
}

func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// setDefaults registers every key; AutomaticEnv only overrides keys viper
// already knows about when unmarshalling.
func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("ADMIN_KEY", "")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	v.SetDefault("AI_API_KEY", "")
	v.SetDefault("AI_BASE_URL", "https://api.deepseek.com/v1")
	v.SetDefault("AI_MODEL", "deepseek-chat")
	v.SetDefault("AI_MAX_TOKENS", 1000)
	v.SetDefault("AI_TEMPERATURE", 0.3)
	v.SetDefault("AI_DAILY_TOKEN_LIMIT", 100000)
	v.SetDefault("AI_ENABLE_CACHING", true)
	v.SetDefault("AI_TIMEOUT", "45s")

	v.SetDefault("CHAT_ROUTING_POLICY", PolicyAIFirst)
	v.SetDefault("INTENT_EXACT_CONFIDENCE", 0.9)
	v.SetDefault("INTENT_FUZZY_THRESHOLD", 75)
	v.SetDefault("CACHE_MIN_CONFIDENCE", 0.7)
	v.SetDefault("CACHED_ANSWER_TTL", "720h")
	v.SetDefault("CACHE_PURGE_INTERVAL", "1h")
	v.SetDefault("SEARCH_CACHE_TTL", "1h")

	v.SetDefault("RATE_LIMIT_RPM", 30)
	v.SetDefault("RATE_LIMIT_BURST", 10)

	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("MAIL_FROM", "noreply@westendcorporation.in")
	v.SetDefault("SUPPORT_EMAIL", "support@westendcorporation.in")

	v.SetDefault("COMPANY_NAME", "Westend Corporation")
	v.SetDefault("COMPANY_BUSINESS", "International food export from India")
	v.SetDefault("COMPANY_ADDRESS", "X-57, Phase 2, Okhla, New Delhi - 110020")
	v.SetDefault("COMPANY_PHONE", "+91 93119 33481")
	v.SetDefault("COMPANY_EMAIL", "support@westendcorporation.in")
	v.SetDefault("COMPANY_HOURS", "Monday to Saturday, 9 AM to 6 PM")
}

func (c Config) Validate() error {
	switch c.RoutingPolicy {
	case PolicyAIFirst, PolicyTemplateFirst:
	default:
		return fmt.Errorf("CHAT_ROUTING_POLICY must be %q or %q, got %q", PolicyAIFirst, PolicyTemplateFirst, c.RoutingPolicy)
	}
	if c.IntentFuzzyThreshold < 0 || c.IntentFuzzyThreshold > 100 {
		return fmt.Errorf("INTENT_FUZZY_THRESHOLD out of range: %d", c.IntentFuzzyThreshold)
	}
	if c.IntentExactConfidence <= 0 || c.IntentExactConfidence > 1 {
		return fmt.Errorf("INTENT_EXACT_CONFIDENCE out of range: %v", c.IntentExactConfidence)
	}
	if c.CacheMinConfidence < 0 || c.CacheMinConfidence > 1 {
		return fmt.Errorf("CACHE_MIN_CONFIDENCE out of range: %v", c.CacheMinConfidence)
	}
	if c.AIDailyTokenLimit <= 0 {
		return fmt.Errorf("AI_DAILY_TOKEN_LIMIT must be positive, got %d", c.AIDailyTokenLimit)
	}
	if c.RateLimitRPM <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPM and RATE_LIMIT_BURST must be positive, got %d/%d", c.RateLimitRPM, c.RateLimitBurst)
	}
	return nil
}

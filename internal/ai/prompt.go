package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/westend/backend/internal/models"
)

const HighDemandMessage = "I'm currently experiencing high demand. Please try again later or contact our support team directly."

var (
	simplePatterns  = []string{"hello", "hi", "thanks", "bye", "contact", "phone", "email", "address", "hours", "location", "price", "cost"}
	mediumPatterns  = []string{"products", "show me", "what do you have", "categories", "rice", "ghee", "spices", "dairy", "baked goods"}
	complexPatterns = []string{"recipe", "cook", "how to", "ingredients", "preparation", "tell me about", "explain", "detailed", "comprehensive"}

	staticPatterns  = []string{"contact", "phone", "email", "address", "hours", "location", "about", "company", "shipping", "payment"}
	productPatterns = []string{"products", "rice", "ghee", "spices", "dairy", "categories"}
	recipePatterns  = []string{"recipe", "cook", "how to", "ingredients", "preparation"}
)

// DynamicMaxTokens sizes the completion budget from a rough guess at how
// involved the question is.
func DynamicMaxTokens(message string) int {
	m := strings.ToLower(strings.TrimSpace(message))
	switch {
	case containsAny(m, simplePatterns):
		return 200
	case containsAny(m, mediumPatterns):
		return 500
	case containsAny(m, complexPatterns):
		return 1000
	}
	switch n := len([]rune(message)); {
	case n < 20:
		return 300
	case n < 50:
		return 600
	default:
		return 1000
	}
}

func CacheDuration(message string) time.Duration {
	m := strings.ToLower(strings.TrimSpace(message))
	switch {
	case containsAny(m, staticPatterns):
		return 24 * time.Hour
	case containsAny(m, productPatterns):
		return 12 * time.Hour
	case containsAny(m, recipePatterns):
		return 2 * time.Hour
	default:
		return 6 * time.Hour
	}
}

// FallbackResponse answers from a few keyword rules when the remote service
// cannot be used.
func FallbackResponse(message string, company models.CompanyInfo) string {
	m := strings.ToLower(message)
	switch {
	case containsAny(m, []string{"address", "location", "where"}):
		return fmt.Sprintf("You can find us at:\n\n**Address**: %s\n**Phone**: %s\n**Email**: %s\n\nWe're open %s.",
			company.Address, company.Phone, company.Email, company.Hours)
	case containsAny(m, []string{"contact", "phone", "email", "call"}):
		return fmt.Sprintf("Here's how to reach us:\n\n**Phone**: %s\n**Email**: %s\n**Address**: %s\n\n**Business Hours**: %s",
			company.Phone, company.Email, company.Address, company.Hours)
	case containsAny(m, []string{"hello", "hi", "hey"}):
		return fmt.Sprintf("Hello! Welcome to %s!\n\n"+
			"I'm here to help you with:\n"+
			"- **Products**: Rice, spices, dairy, baked goods\n"+
			"- **Contact**: Phone, email, address\n"+
			"- **Pricing**: Bulk export quotes\n"+
			"- **Orders**: How to place orders\n\n"+
			"What would you like to know?", company.Name)
	}
	return fmt.Sprintf("I'm here to help with %s's products and services! You can ask me about:\n\n"+
		"- **Products**: \"show me rice products\", \"spices\", \"ghee\"\n"+
		"- **Contact**: \"phone number\", \"address\"\n"+
		"- **Pricing**: \"how much for basmati rice\"\n"+
		"- **Orders**: \"how to place bulk order\"\n\n"+
		"What specific information are you looking for?", company.Name)
}

func (c *Client) systemPrompt(ctx context.Context) string {
	co := c.Company
	var b strings.Builder
	fmt.Fprintf(&b, "You are a helpful assistant for %s (%s).\n\n", co.Name, co.Business)
	b.WriteString("COMPANY INFO:\n")
	fmt.Fprintf(&b, "- Name: %s\n- Business: %s\n- Address: %s\n- Phone: %s\n- Email: %s\n- Hours: %s\n\n",
		co.Name, co.Business, co.Address, co.Phone, co.Email, co.Hours)

	b.WriteString("PRODUCT CATEGORIES:\n")
	if c.Catalog != nil {
		verticals, err := c.Catalog.ListVerticals(ctx)
		if err != nil {
			c.Logger.Warn().Err(err).Msg("load catalog context for prompt")
			b.WriteString("Catalog details are temporarily unavailable.\n")
		}
		for _, v := range verticals {
			desc := []rune(v.Description)
			if len(desc) > 100 {
				desc = append(desc[:100], []rune("...")...)
			}
			fmt.Fprintf(&b, "- %s: %s (%d products)\n", v.Title, string(desc), v.ProductCount)
		}
	}

	b.WriteString("\nGUIDELINES:\n")
	b.WriteString("- Use the company and catalog information above; prioritize accuracy over creativity\n")
	b.WriteString("- Be concise and helpful, and include contact details when relevant\n")
	b.WriteString("- For typos, try to understand the intent\n")
	b.WriteString("- If you don't know something, admit it politely\n")
	b.WriteString("- For product inquiries, suggest specific categories or ask for clarification\n")
	return b.String()
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

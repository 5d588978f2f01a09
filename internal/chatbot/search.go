package chatbot

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/westend/backend/internal/fuzzy"
	"github.com/westend/backend/internal/kv"
	"github.com/westend/backend/internal/metrics"
	"github.com/westend/backend/internal/models"
	"github.com/westend/backend/internal/utils"
)

const (
	DefaultSearchCacheTTL = time.Hour

	exactWordScore      = 90
	verticalMatchScore  = 85
	verticalProductsCap = 5
	descriptionLimit    = 200
)

// Searcher runs several matching strategies over the catalog and merges
// them into one ranked list.
type Searcher struct {
	Catalog   Catalog
	Cache     kv.Store
	CacheTTL  time.Duration
	Threshold int
	Logger    zerolog.Logger
}

type candidate struct {
	name   string
	score  int
	method string
}

func (s *Searcher) Search(ctx context.Context, query string, limit int) ([]models.ProductMatch, error) {
	if limit <= 0 {
		limit = 10
	}
	lowered := strings.ToLower(strings.TrimSpace(query))
	cacheKey := fmt.Sprintf("chat_products_%x_%d", utils.HashStringToUint64(lowered), limit)

	if s.Cache != nil {
		var cached []models.ProductMatch
		ok, err := kv.GetJSON(ctx, s.Cache, cacheKey, &cached)
		if err != nil {
			s.Logger.Warn().Err(err).Msg("product search cache read failed")
		}
		if ok {
			metrics.RecordCacheLookup("product_search", true)
			return cached, nil
		}
		metrics.RecordCacheLookup("product_search", false)
	}

	products, err := s.Catalog.ListSearchableProducts(ctx)
	if err != nil {
		return nil, err
	}
	byName := map[string]models.Product{}
	var names []string
	for _, p := range products {
		if _, dup := byName[p.Name]; dup {
			continue
		}
		byName[p.Name] = p
		names = append(names, p.Name)
	}
	lowerNames := make([]string, len(names))
	lowerToName := make(map[string]string, len(names))
	for i, n := range names {
		lowerNames[i] = strings.ToLower(n)
		if _, ok := lowerToName[lowerNames[i]]; !ok {
			lowerToName[lowerNames[i]] = n
		}
	}

	var all []candidate
	for _, m := range fuzzy.Extract(lowered, lowerNames, limit, fuzzy.Ratio) {
		all = append(all, candidate{name: lowerToName[m.Choice], score: m.Score, method: "full_query"})
	}

	words := strings.Fields(lowered)
	keywordLimit := limit / 2
	if keywordLimit == 0 {
		keywordLimit = 1
	}
	for _, w := range words {
		if len([]rune(w)) <= 3 {
			continue
		}
		for _, m := range fuzzy.Extract(w, lowerNames, keywordLimit, fuzzy.TokenSortRatio) {
			all = append(all, candidate{name: lowerToName[m.Choice], score: m.Score, method: "keyword_" + w})
		}
	}

	for _, w := range words {
		if len([]rune(w)) <= 2 {
			continue
		}
		for i, ln := range lowerNames {
			if strings.Contains(ln, w) {
				all = append(all, candidate{name: names[i], score: exactWordScore, method: "exact_" + w})
			}
		}
	}

	verticals, err := s.Catalog.ListVerticals(ctx)
	if err != nil {
		return nil, err
	}
	for _, v := range verticals {
		for _, vw := range strings.Fields(strings.ToLower(v.Title)) {
			if len([]rune(vw)) <= 3 || !strings.Contains(lowered, vw) {
				continue
			}
			siblings, err := s.Catalog.ListVerticalProducts(ctx, v.ID, verticalProductsCap)
			if err != nil {
				return nil, err
			}
			for _, p := range siblings {
				if _, ok := byName[p.Name]; !ok {
					byName[p.Name] = p
				}
				all = append(all, candidate{name: p.Name, score: verticalMatchScore, method: "vertical_" + strings.ToLower(v.Title)})
			}
		}
	}

	ranked := mergeCandidates(all)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	threshold := s.Threshold
	if threshold <= 0 {
		threshold = DefaultFuzzyThreshold
	}
	results := make([]models.ProductMatch, 0, len(ranked))
	for _, c := range ranked {
		if c.score < threshold {
			continue
		}
		results = append(results, toMatch(byName[c.name], c))
	}

	if s.Cache != nil {
		ttl := s.CacheTTL
		if ttl <= 0 {
			ttl = DefaultSearchCacheTTL
		}
		if err := kv.SetJSON(ctx, s.Cache, cacheKey, results, ttl); err != nil {
			s.Logger.Warn().Err(err).Msg("product search cache write failed")
		}
	}
	return results, nil
}

// mergeCandidates keeps the highest score per product name, preserving the
// position where the name was first seen, then sorts stably by score.
func mergeCandidates(all []candidate) []candidate {
	index := map[string]int{}
	var merged []candidate
	for _, c := range all {
		if i, ok := index[c.name]; ok {
			if c.score > merged[i].score {
				merged[i] = c
			}
			continue
		}
		index[c.name] = len(merged)
		merged = append(merged, c)
	}
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].score > merged[j].score })
	return merged
}

func toMatch(p models.Product, c candidate) models.ProductMatch {
	return models.ProductMatch{
		ID:          p.ID,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: truncate(p.Description, descriptionLimit),
		Image:       p.Image,
		Badge:       p.Badge,
		StockStatus: p.StockStatus,
		MOQ:         p.MOQ,
		Packaging:   p.Packaging,
		Vertical:    p.VerticalTitle,
		Score:       c.score,
		Method:      c.method,
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

package chatbot

import (
	"context"
	"sort"
	"strings"

	"github.com/westend/backend/internal/fuzzy"
	"github.com/westend/backend/internal/models"
)

const (
	DefaultExactConfidence = 0.9
	DefaultFuzzyThreshold  = 75
)

type Resolution struct {
	Intent     models.IntentDefinition
	Confidence float64
	Exact      bool
}

// Resolver classifies a message against the intent catalog: a literal
// keyword substring wins outright in priority order, otherwise the best
// fuzzy keyword score above FuzzyThreshold.
type Resolver struct {
	Intents         IntentSource
	ExactConfidence float64
	FuzzyThreshold  int
}

func (r *Resolver) Resolve(ctx context.Context, message string) (Resolution, bool, error) {
	normalized := fuzzy.Normalize(message)
	if normalized == "" {
		return Resolution{}, false, nil
	}

	intents, err := r.Intents.ActiveIntents(ctx)
	if err != nil {
		return Resolution{}, false, err
	}
	intents = byPriority(intents)

	exactConfidence := r.ExactConfidence
	if exactConfidence <= 0 {
		exactConfidence = DefaultExactConfidence
	}
	for _, in := range intents {
		for _, kw := range splitKeywords(in.Keywords) {
			if strings.Contains(normalized, kw) {
				return Resolution{Intent: in, Confidence: exactConfidence, Exact: true}, true, nil
			}
		}
	}

	threshold := r.FuzzyThreshold
	if threshold <= 0 {
		threshold = DefaultFuzzyThreshold
	}
	var (
		best      models.IntentDefinition
		bestScore int
	)
	for _, in := range intents {
		for _, kw := range splitKeywords(in.Keywords) {
			score := fuzzy.PartialRatio(kw, normalized)
			if score > threshold && score > bestScore {
				best = in
				bestScore = score
			}
		}
	}
	if bestScore == 0 {
		return Resolution{}, false, nil
	}
	return Resolution{Intent: best, Confidence: float64(bestScore) / 100}, true, nil
}

func byPriority(in []models.IntentDefinition) []models.IntentDefinition {
	out := make([]models.IntentDefinition, 0, len(in))
	for _, i := range in {
		if i.IsActive {
			out = append(out, i)
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Priority > out[b].Priority })
	return out
}

func splitKeywords(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

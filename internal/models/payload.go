package models

import (
	"encoding/json"
	"fmt"
)

type PayloadKind string

const (
	KindCache      PayloadKind = "cache"
	KindTemplate   PayloadKind = "template"
	KindCompletion PayloadKind = "completion"
	KindFallback   PayloadKind = "fallback"
)

// Payload is the side data attached to a bot message. The concrete type
// depends on which pipeline stage produced the answer.
type Payload interface {
	Kind() PayloadKind
}

type ProductMatch struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Image       string `json:"image,omitempty"`
	Badge       string `json:"badge,omitempty"`
	StockStatus string `json:"stock_status"`
	MOQ         string `json:"moq"`
	Packaging   string `json:"packaging"`
	Vertical    string `json:"vertical"`
	Score       int    `json:"match_score"`
	Method      string `json:"match_method"`
}

type CachePayload struct {
	QuestionHash string      `json:"question_hash"`
	UsageCount   int         `json:"usage_count"`
	Origin       PayloadKind `json:"origin,omitempty"`
}

type TemplatePayload struct {
	ResponseType string         `json:"type"`
	Products     []ProductMatch `json:"products,omitempty"`
}

type CompletionPayload struct {
	Model          string `json:"model"`
	Cached         bool   `json:"cached"`
	TokensUsed     int    `json:"tokens_used"`
	TokenBudget    int    `json:"dynamic_tokens"`
	ResolvedIntent string `json:"resolved_intent,omitempty"`
}

type FallbackPayload struct {
	Reason string `json:"reason"`
	Error  string `json:"error,omitempty"`
}

func (CachePayload) Kind() PayloadKind      { return KindCache }
func (TemplatePayload) Kind() PayloadKind   { return KindTemplate }
func (CompletionPayload) Kind() PayloadKind { return KindCompletion }
func (FallbackPayload) Kind() PayloadKind   { return KindFallback }

type payloadEnvelope struct {
	Kind PayloadKind     `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// EncodePayload returns the stored form {"kind": ..., "data": ...}. A nil
// payload encodes to an empty JSON object.
func EncodePayload(p Payload) ([]byte, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return json.Marshal(payloadEnvelope{Kind: p.Kind(), Data: data})
}

func DecodePayload(b []byte) (Payload, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var env payloadEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, err
	}
	if env.Kind == "" {
		return nil, nil
	}

	var p Payload
	switch env.Kind {
	case KindCache:
		var v CachePayload
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, err
		}
		p = v
	case KindTemplate:
		var v TemplatePayload
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, err
		}
		p = v
	case KindCompletion:
		var v CompletionPayload
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, err
		}
		p = v
	case KindFallback:
		var v FallbackPayload
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, err
		}
		p = v
	default:
		return nil, fmt.Errorf("unknown payload kind %q", env.Kind)
	}
	return p, nil
}

// Package pipeline implements the query answering pipeline: an LLM-backed
// classifier routes each user query to one of four strategies (direct SQL
// lookup, semantic retrieval, general knowledge, decline), and the router
// executes the chosen strategy and produces the final answer text.
package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Mode identifies the answering strategy chosen by the classifier.
type Mode string

const (
	// ModeDirect answers via a SQL lookup against the product inventory.
	ModeDirect Mode = "direct"
	// ModeSemantic answers via similarity search over product descriptions.
	ModeSemantic Mode = "semantic"
	// ModeNonRAG answers in-domain general knowledge without retrieval.
	ModeNonRAG Mode = "non_rag"
	// ModeDeclined refuses out-of-domain or unsafe queries.
	ModeDeclined Mode = "declined"
)

// Granularity describes how narrow a semantic retrieval target is.
type Granularity string

const (
	// GranularitySpecificItem targets a single named product.
	GranularitySpecificItem Granularity = "specific_item"
	// GranularityCategory targets one product category.
	GranularityCategory Granularity = "category"
	// GranularityHighLevel targets the catalog broadly.
	GranularityHighLevel Granularity = "high_level"
)

// Classification is the classifier's decision. Exactly one mode is active;
// fields belonging to other modes are zero and must not be read.
type Classification struct {
	// Mode is the chosen answering strategy.
	Mode Mode `json:"mode"`

	// SQL is the SELECT statement for ModeDirect.
	SQL string `json:"sql,omitempty"`

	// Granularity scopes the retrieval for ModeSemantic.
	Granularity Granularity `json:"granularity,omitempty"`
	// Category is an optional category constraint (ModeSemantic).
	Category string `json:"category,omitempty"`
	// ProductID is an optional product identifier constraint (ModeSemantic).
	ProductID string `json:"product_id,omitempty"`
	// Origin is an optional country-of-origin constraint (ModeSemantic).
	Origin string `json:"origin,omitempty"`
	// Color is an optional color constraint (ModeSemantic).
	Color string `json:"color,omitempty"`
	// MinPrice and MaxPrice are optional price bounds (ModeSemantic).
	MinPrice *float64 `json:"min_price,omitempty"`
	MaxPrice *float64 `json:"max_price,omitempty"`
	// EFSearch overrides the candidate pool size (ModeSemantic).
	EFSearch int `json:"ef_search,omitempty"`
	// Metric requests a distance metric (ModeSemantic).
	Metric string `json:"metric,omitempty"`
	// Precision selects "approximate" or "exact" search (ModeSemantic).
	Precision string `json:"precision,omitempty"`

	// Message is the user-facing refusal text for ModeDeclined.
	Message string `json:"message,omitempty"`
}

// declinedFallback is the Classification used whenever the classifier's
// output cannot be trusted. Failing closed to a refusal is the safety
// default: a malformed classification must never reach SQL execution or
// an unguarded LLM answer.
func declinedFallback() Classification {
	return Classification{Mode: ModeDeclined, Message: declineFallbackMessage}
}

// DecodeClassification parses raw LLM output into a Classification. The
// output is untrusted: markdown fences are stripped, the JSON object is
// located inside surrounding prose, unknown modes fall back to declined,
// and semantic classifications get their granularity and precision
// normalized to known values.
func DecodeClassification(raw string) Classification {
	payload, ok := extractJSONObject(raw)
	if !ok {
		return declinedFallback()
	}

	var c Classification
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return declinedFallback()
	}

	switch c.Mode {
	case ModeDirect, ModeSemantic, ModeNonRAG, ModeDeclined:
	default:
		return declinedFallback()
	}

	if c.Mode == ModeSemantic {
		switch c.Granularity {
		case GranularitySpecificItem, GranularityCategory, GranularityHighLevel:
		default:
			c.Granularity = GranularityHighLevel
		}
		if c.Precision != "exact" {
			c.Precision = "approximate"
		}
		if c.EFSearch < 0 {
			c.EFSearch = 0
		}
	}
	if c.Mode == ModeDeclined && strings.TrimSpace(c.Message) == "" {
		c.Message = declineFallbackMessage
	}
	return c
}

// extractJSONObject strips markdown code fences and returns the first
// top-level JSON object found in s.
func extractJSONObject(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// String renders the classification for logging.
func (c Classification) String() string {
	switch c.Mode {
	case ModeSemantic:
		return fmt.Sprintf("semantic/%s", c.Granularity)
	default:
		return string(c.Mode)
	}
}

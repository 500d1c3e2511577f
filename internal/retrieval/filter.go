package retrieval

// SearchOptions are the caller-supplied retrieval constraints. Every field is
// optional; a zero value means "no constraint on this dimension".
type SearchOptions struct {
	// Category restricts results to a catalog subcategory.
	Category string

	// Origin restricts results to a declared country of origin.
	Origin string

	// Color restricts results to a declared color variant.
	Color string

	// ProductID restricts results to a single catalog product.
	ProductID string

	// MinPrice is the inclusive lower price bound. Applied after retrieval —
	// price is stored as a raw string and is not indexed.
	MinPrice *float64

	// MaxPrice is the inclusive upper price bound. Applied after retrieval.
	MaxPrice *float64
}

// Condition is a single field-equality clause in a Filter.
type Condition struct {
	// Field is the payload field name (e.g. "category", "origin").
	Field string

	// Equals is the exact value the field must match.
	Equals string
}

// Filter is a conjunction of equality conditions: every condition must match.
// Price bounds never appear here — they are post-filtered.
type Filter struct {
	// Must holds the conditions, all of which must hold.
	Must []Condition
}

// BuildFilter translates the equality constraints in opts into a Filter.
// It returns nil — not an empty Filter — when no equality field is set:
// "no filter" and "empty filter" are distinct to some index backends, and
// only the former may be sent on an unconstrained search.
func BuildFilter(opts SearchOptions) *Filter {
	var must []Condition
	if opts.ProductID != "" {
		must = append(must, Condition{Field: "product_id", Equals: opts.ProductID})
	}
	if opts.Category != "" {
		must = append(must, Condition{Field: "category", Equals: opts.Category})
	}
	if opts.Origin != "" {
		must = append(must, Condition{Field: "origin", Equals: opts.Origin})
	}
	if opts.Color != "" {
		must = append(must, Condition{Field: "color", Equals: opts.Color})
	}
	if len(must) == 0 {
		return nil
	}
	return &Filter{Must: must}
}

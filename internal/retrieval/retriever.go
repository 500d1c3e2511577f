package retrieval

import (
	"context"
	"fmt"

	"github.com/agesalabs/agesabot-go/internal/price"
)

// Defaults for search tuning when the classifier leaves a value unset.
const (
	// DefaultTopK is the number of products delivered when the caller passes 0.
	DefaultTopK = 5

	// DefaultEFSearch is the HNSW candidate pool size for approximate search.
	DefaultEFSearch = 50

	// overFetchFactor is how many times topK to request from the index.
	// Price bounds are applied after retrieval (price is not indexed), so the
	// raw result set must leave room for records the post-filter drops.
	overFetchFactor = 2
)

// ProductRetriever implements Retriever by combining an Embedder and a
// VectorStore. It embeds the query at retrieval time, over-fetches from the
// store, applies the price post-filter, and truncates to the requested size.
type ProductRetriever struct {
	// embedder converts query text to a dense vector.
	embedder Embedder

	// store performs the filtered vector similarity search.
	store VectorStore
}

// NewRetriever constructs a ProductRetriever from the given Embedder and
// VectorStore.
func NewRetriever(embedder Embedder, store VectorStore) (*ProductRetriever, error) {
	if embedder == nil {
		return nil, fmt.Errorf("retrieval: embedder must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("retrieval: store must not be nil")
	}
	return &ProductRetriever{embedder: embedder, store: store}, nil
}

// Retrieve embeds the query and returns the top-k products satisfying opts,
// in descending score order. topK <= 0 falls back to DefaultTopK; an unset
// EFSearch falls back to DefaultEFSearch unless exact mode is requested.
func (r *ProductRetriever) Retrieve(ctx context.Context, query string, opts SearchOptions, tuning Tuning, topK int) ([]Product, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if tuning.EFSearch <= 0 && !tuning.Exact {
		tuning.EFSearch = DefaultEFSearch
	}

	embeddings, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("retrieval: embedding query failed: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("retrieval: embedder returned empty result for query")
	}

	filter := BuildFilter(opts)
	products, err := r.store.Search(ctx, embeddings[0], filter, tuning, topK*overFetchFactor)
	if err != nil {
		return nil, fmt.Errorf("retrieval: vector search failed: %w", err)
	}

	products = FilterByPrice(products, opts.MinPrice, opts.MaxPrice)

	if len(products) > topK {
		products = products[:topK]
	}
	return products, nil
}

// FilterByPrice drops products whose price falls outside the optional
// [min, max] bounds. It is a no-op when both bounds are nil; a product whose
// price string cannot be parsed fails any bound check. Relative order of
// surviving products is preserved, which keeps retrieval rank intact.
func FilterByPrice(products []Product, min, max *float64) []Product {
	if min == nil && max == nil {
		return products
	}
	kept := make([]Product, 0, len(products))
	for _, p := range products {
		if price.InRange(p.Price, min, max) {
			kept = append(kept, p)
		}
	}
	return kept
}

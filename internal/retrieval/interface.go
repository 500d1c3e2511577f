// Package retrieval implements semantic product retrieval: query embedding,
// filtered vector search against Qdrant, and the price post-filter applied
// after retrieval (price is not indexed in the vector store).
// The interfaces here keep the pipeline layer independent of any concrete
// embedding or vector-search backend.
package retrieval

import (
	"context"
)

// Product is a single catalog record returned by a vector search.
// Fields mirror the payload stored at ingestion time; absent payload fields
// are zero-valued. Records are produced fresh per retrieval call and never
// mutated afterwards.
type Product struct {
	// ID is the catalog product identifier.
	ID string

	// Name is the display name of the product.
	Name string

	// Price is the raw locale-formatted price string as scraped
	// (e.g. "299,99 TL"). Use the price package to compare numerically.
	Price string

	// Category is the catalog subcategory (e.g. "ruj", "fondöten").
	Category string

	// Description is the primary free-text product description.
	Description string

	// ExtraDescription is the secondary description block, when present.
	ExtraDescription string

	// Origin is the declared country of origin ("Menşei" in the source data).
	Origin string

	// Color is the declared color variant ("Renk" in the source data).
	Color string

	// URL is the canonical product page URL.
	URL string

	// Rating is the average review rating, 0 when absent.
	Rating float64

	// Score is the similarity score assigned during retrieval.
	// Higher is more relevant under cosine distance.
	Score float32
}

// Tuning carries the per-query search tuning values chosen by the classifier.
type Tuning struct {
	// EFSearch is the HNSW search-breadth knob (candidate pool size).
	// Applied only in approximate mode; 0 means the store default.
	EFSearch int

	// Exact requests an exhaustive scan. When set, EFSearch is ignored.
	Exact bool

	// Metric is the requested distance metric. Qdrant fixes the metric per
	// collection at creation time, so a mismatching request is logged and
	// the collection's metric wins.
	Metric string
}

// Embedder converts text into dense vector embeddings.
// Implementations must be safe to call from multiple goroutines.
type Embedder interface {
	// Embed converts a batch of texts into their corresponding embeddings.
	// The returned slice is parallel to the input slice.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorStore is the nearest-neighbour search backend.
// A nil filter means unfiltered search; implementations must not substitute
// an empty filter object, which some index backends treat differently.
// Implementations must be safe to call from multiple goroutines.
type VectorStore interface {
	// Search returns up to limit products nearest to the query embedding,
	// in descending score order.
	Search(ctx context.Context, embedding []float32, filter *Filter, tuning Tuning, limit int) ([]Product, error)

	// Upsert stores or updates a batch of products with their pre-computed
	// embeddings. embeddings[i] is the vector for products[i].
	Upsert(ctx context.Context, products []Product, embeddings [][]float32) error

	// Delete removes products by their catalog IDs.
	Delete(ctx context.Context, ids []string) error

	// Close releases any resources held by the store.
	Close() error
}

// Retriever is the high-level interface the answer pipeline uses to fetch
// grounding products for a query. It combines embedding, filtered vector
// search, and the price post-filter.
type Retriever interface {
	// Retrieve returns the top-k most relevant products for the query that
	// satisfy the given options.
	Retrieve(ctx context.Context, query string, opts SearchOptions, tuning Tuning, topK int) ([]Product, error)
}

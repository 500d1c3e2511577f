package ingestion

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/agesalabs/agesabot-go/internal/retrieval"
)

// Config holds the configuration for the ingestion pipeline.
type Config struct {
	// BatchSize is the number of products embedded and upserted per batch.
	// Defaults to 64 if zero.
	BatchSize int
}

// Pipeline orchestrates the parse → embed → upsert flow for a catalog export.
type Pipeline struct {
	// embedder converts product text into dense vector embeddings.
	embedder retrieval.Embedder

	// store persists the embedded products.
	store retrieval.VectorStore

	// cfg holds the resolved pipeline configuration.
	cfg *Config
}

// NewPipeline constructs a Pipeline from the provided dependencies and config.
func NewPipeline(embedder retrieval.Embedder, store retrieval.VectorStore, cfg *Config) (*Pipeline, error) {
	if embedder == nil {
		return nil, fmt.Errorf("ingestion: embedder must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("ingestion: store must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 64
	}

	return &Pipeline{embedder: embedder, store: store, cfg: cfg}, nil
}

// Ingest reads a CSV catalog export from r, embeds each product's descriptive
// text, and upserts the results in batches. Records that cannot be mapped to
// a product are skipped and counted; the first infrastructure error aborts.
// Progress is reported via the optional progress callback.
// Returns the number of products ingested and the number of records skipped.
func (p *Pipeline) Ingest(ctx context.Context, r io.Reader, progress func(msg string)) (int, int, error) {
	if progress == nil {
		progress = func(string) {}
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // catalog exports have ragged rows

	header, err := reader.Read()
	if err != nil {
		return 0, 0, fmt.Errorf("ingestion: read header: %w", err)
	}

	fields := make(map[int]string, len(header))
	for i, h := range header {
		if canonical := mapHeader(h); canonical != "" {
			fields[i] = canonical
		}
	}
	if len(fields) == 0 {
		return 0, 0, fmt.Errorf("ingestion: no recognizable columns in header %v", header)
	}

	var (
		batch    []retrieval.Product
		ingested int
		skipped  int
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		texts := make([]string, len(batch))
		for i, prod := range batch {
			texts[i] = buildEmbeddingText(prod)
		}
		embeddings, err := p.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("ingestion: embedding batch failed: %w", err)
		}
		if err := p.store.Upsert(ctx, batch, embeddings); err != nil {
			return fmt.Errorf("ingestion: upsert batch failed: %w", err)
		}
		ingested += len(batch)
		progress(fmt.Sprintf("ingested %d products", ingested))
		batch = batch[:0]
		return nil
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return ingested, skipped, fmt.Errorf("ingestion: read record: %w", err)
		}

		prod, err := productFromRecord(record, fields)
		if err != nil {
			skipped++
			continue
		}
		batch = append(batch, prod)

		if len(batch) >= p.cfg.BatchSize {
			if err := flush(); err != nil {
				return ingested, skipped, err
			}
		}
	}

	if err := flush(); err != nil {
		return ingested, skipped, err
	}
	return ingested, skipped, nil
}

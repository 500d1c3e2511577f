package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/agesalabs/agesabot-go/internal/embedder"
	"github.com/agesalabs/agesabot-go/internal/ingestion"
	"github.com/agesalabs/agesabot-go/internal/logging"
)

// NewIngestCmd constructs the `agesabot ingest` command, which loads a
// product catalog CSV into the Qdrant vector store.
func NewIngestCmd() *cobra.Command {
	var file string
	var batchSize int

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest a product catalog CSV into the vector store",
		Long: `Read a product catalog CSV, embed each product, and upsert the results
into the Qdrant collection used by semantic search.

Turkish column headers are recognised alongside their English equivalents
(e.g. "Ürün Adı"/name, "Fiyat"/price, "Menşei", "Renk"). Rows missing a
product ID or name are skipped and counted. Re-running the command on the
same file overwrites existing points in place.

Required environment variables:
  QDRANT_HOST          Qdrant server hostname (default: localhost)
  QDRANT_PORT          Qdrant gRPC port (default: 6334)
  QDRANT_COLLECTION    Collection name (default: agesa-products)
  EMBEDDING_PROVIDER   Embedding backend: openai, azure, ollama (default: openai)
  EMBEDDING_*          Provider-specific overrides (see README)

Examples:
  agesabot ingest --file catalog.csv
  agesabot ingest --file catalog.csv --batch-size 128`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.New()
			ctx := logging.WithLogger(cmd.Context(), log)

			if file == "" {
				return fmt.Errorf("ingest: --file is required")
			}

			emb, err := embedder.NewFromEnv()
			if err != nil {
				return fmt.Errorf("ingest: failed to initialise embedder: %w", err)
			}
			log.Info("embedder initialised", slog.String("provider", getEnvOrDefault("EMBEDDING_PROVIDER", "openai")))

			store, err := buildVectorStore(ctx, emb, log)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			defer store.Close()
			log.Info("qdrant store ready",
				slog.String("host", getEnvOrDefault("QDRANT_HOST", "localhost")),
				slog.String("collection", getEnvOrDefault("QDRANT_COLLECTION", "agesa-products")),
			)

			p, err := ingestion.NewPipeline(emb, store, &ingestion.Config{BatchSize: batchSize})
			if err != nil {
				return fmt.Errorf("ingest: failed to create pipeline: %w", err)
			}

			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("ingest: failed to open %s: %w", file, err)
			}
			defer f.Close()

			log.Info("starting ingestion", slog.String("file", file))

			ingested, skipped, err := p.Ingest(ctx, f, func(msg string) {
				log.Info(msg)
			})
			if err != nil {
				return fmt.Errorf("ingest: pipeline failed: %w", err)
			}

			log.Info("ingestion complete",
				slog.Int("ingested", ingested),
				slog.Int("skipped", skipped),
			)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to the product catalog CSV")
	cmd.Flags().IntVarP(&batchSize, "batch-size", "b", 0, "Products embedded per batch (default 64)")

	return cmd
}

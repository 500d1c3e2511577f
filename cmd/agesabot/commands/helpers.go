package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/agesalabs/agesabot-go/internal/embedder"
	"github.com/agesalabs/agesabot-go/internal/history"
	"github.com/agesalabs/agesabot-go/internal/inventory"
	"github.com/agesalabs/agesabot-go/internal/retrieval"
)

// buildVectorStore connects to Qdrant and ensures the product collection
// exists. The vector size must match what the configured embedder emits, so
// the embedder is probed first.
func buildVectorStore(ctx context.Context, emb retrieval.Embedder, log *slog.Logger) (*retrieval.QdrantStore, error) {
	dims, err := embedder.Validate(ctx, emb)
	if err != nil {
		return nil, fmt.Errorf("embedder validation failed: %w", err)
	}
	if expected := embedder.DefaultDimensions(); dims != expected {
		log.Warn("embedder dimension differs from configured default",
			slog.Int("actual", dims),
			slog.Int("configured", expected),
		)
	}

	store, err := retrieval.NewQdrantStore(ctx, &retrieval.QdrantConfig{
		Host:       getEnvOrDefault("QDRANT_HOST", "localhost"),
		Port:       getEnvInt("QDRANT_PORT", 6334),
		Collection: getEnvOrDefault("QDRANT_COLLECTION", "agesa-products"),
		VectorSize: uint64(dims), //nolint:gosec // dimensions are bounded
		Metric:     getEnvOrDefault("QDRANT_METRIC", "cosine"),
		APIKey:     os.Getenv("QDRANT_API_KEY"),
		UseTLS:     os.Getenv("QDRANT_TLS") == "true",
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Qdrant: %w", err)
	}
	return store, nil
}

// buildRetriever wires the embedder and vector store into a Retriever.
// The returned close function releases the Qdrant connection; callers must
// invoke it even on later failures.
func buildRetriever(ctx context.Context, log *slog.Logger) (retrieval.Retriever, *retrieval.QdrantStore, func(), error) {
	emb, err := embedder.NewFromEnv()
	if err != nil {
		return nil, nil, nil, err
	}

	store, err := buildVectorStore(ctx, emb, log)
	if err != nil {
		return nil, nil, nil, err
	}
	closeStore := func() { _ = store.Close() }

	ret, err := retrieval.NewRetriever(emb, store)
	if err != nil {
		closeStore()
		return nil, nil, nil, err
	}
	return ret, store, closeStore, nil
}

// openInventory connects to the Postgres product inventory when INVENTORY_DSN
// is set. A missing DSN is not an error: the direct SQL strategy degrades to
// a fixed apology, which is the documented behavior for an unwired inventory.
func openInventory(ctx context.Context, log *slog.Logger) (inventory.Store, func()) {
	dsn := os.Getenv("INVENTORY_DSN")
	if dsn == "" {
		log.Info("inventory: INVENTORY_DSN not set, direct SQL lookups disabled")
		return nil, func() {}
	}

	store, err := inventory.Open(ctx, dsn)
	if err != nil {
		log.Warn("inventory: failed to connect, direct SQL lookups disabled", slog.Any("error", err))
		return nil, func() {}
	}
	log.Info("inventory: store connected")
	return store, func() { _ = store.Close() }
}

// openHistory opens the conversation history store. AGESABOT_HISTORY_DB
// overrides the default path (~/.agesabot/history.db); the value "disabled"
// turns history off entirely. Failures are non-fatal — the assistant runs
// statelessly without a store.
func openHistory(log *slog.Logger) (history.ConversationStore, func()) {
	dbPath := os.Getenv("AGESABOT_HISTORY_DB")
	if dbPath == "disabled" {
		log.Info("history: disabled via AGESABOT_HISTORY_DB=disabled")
		return nil, func() {}
	}

	if dbPath == "" {
		var err error
		dbPath, err = history.DefaultDBPath()
		if err != nil {
			log.Warn("history: could not resolve default DB path, disabling", slog.Any("error", err))
			return nil, func() {}
		}
	}

	hs, err := history.Open(dbPath)
	if err != nil {
		log.Warn("history: failed to open store, disabling", slog.Any("error", err))
		return nil, func() {}
	}
	log.Info("history: store opened", slog.String("path", dbPath))
	return hs, func() { _ = hs.Close() }
}

// getEnvOrDefault returns the value of the named environment variable, or
// fallback if the variable is unset or empty.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt returns the integer value of the named environment variable, or
// fallback if the variable is unset, empty, or not parseable.
func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

package embedder

import (
	"context"
	"fmt"
	"time"

	"github.com/agesalabs/agesabot-go/internal/retrieval"
)

// Validate performs a pre-flight check against the embedding backend by
// embedding a short probe text. It catches misconfiguration (bad key, wrong
// endpoint, missing model) at startup instead of on the first user query.
// The returned dimension is the actual vector length the backend emits.
func Validate(ctx context.Context, e retrieval.Embedder) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	out, err := e.Embed(ctx, []string{"probe"})
	if err != nil {
		return 0, fmt.Errorf("embedder validation failed: %w", err)
	}
	if len(out) == 0 || len(out[0]) == 0 {
		return 0, fmt.Errorf("embedder validation failed: backend returned an empty vector")
	}
	return len(out[0]), nil
}

package pipeline

import (
	"context"
	"log/slog"

	"github.com/cloudwego/eino/schema"

	"github.com/agesalabs/agesabot-go/internal/logging"
)

// Classifier routes a raw user query to an answering strategy by asking the
// chat model for a structured verdict.
type Classifier struct {
	chatModel Generator
}

// NewClassifier constructs a Classifier on top of the given chat model.
func NewClassifier(chatModel Generator) *Classifier {
	return &Classifier{chatModel: chatModel}
}

// Classify returns the Classification for a query. It never returns an
// error: an unreachable model or unparseable output fails closed to a
// declined classification with a generic refusal, because a query that
// cannot be classified must not reach SQL execution or an unguarded answer.
func (c *Classifier) Classify(ctx context.Context, query string) Classification {
	log := logging.FromContext(ctx)

	msgs := []*schema.Message{
		schema.UserMessage(classifierPrompt + query),
	}

	resp, err := c.chatModel.Generate(ctx, msgs)
	if err != nil {
		log.Warn("classifier: model call failed, declining",
			slog.Any("error", err),
		)
		return declinedFallback()
	}
	if resp == nil || resp.Content == "" {
		log.Warn("classifier: empty model response, declining")
		return declinedFallback()
	}

	cls := DecodeClassification(resp.Content)
	log.Debug("classifier: verdict",
		slog.String("mode", cls.String()),
	)
	return cls
}

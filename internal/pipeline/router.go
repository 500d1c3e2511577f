package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/agesalabs/agesabot-go/internal/budget"
	"github.com/agesalabs/agesabot-go/internal/history"
	"github.com/agesalabs/agesabot-go/internal/inventory"
	"github.com/agesalabs/agesabot-go/internal/logging"
	"github.com/agesalabs/agesabot-go/internal/retrieval"
)

// Generator is the minimal chat-model surface the pipeline needs. Satisfied
// by every eino ChatModel.
type Generator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// Config holds the collaborators the Router dispatches to. ChatModel is
// required; the rest are optional and their strategies degrade to a polite
// error when unwired.
type Config struct {
	// ChatModel generates classifications and final answers.
	ChatModel Generator

	// Classifier routes queries. Built from ChatModel when nil.
	Classifier *Classifier

	// Retriever serves the semantic strategy. May be nil.
	Retriever retrieval.Retriever

	// Inventory serves the direct SQL strategy. May be nil.
	Inventory inventory.Store

	// History is the optional conversation store for multi-turn context.
	History history.ConversationStore

	// HistoryDepth is the number of prior turns (user+assistant pairs) to
	// inject per query. Defaults to 10 if zero.
	HistoryDepth int

	// MaxContextTokens is the estimated token budget for the full input.
	// History is trimmed oldest-first to fit. Defaults to
	// budget.DefaultMaxContextTokens if zero.
	MaxContextTokens int

	// TopK is the number of products retrieved per semantic query.
	// Defaults to retrieval.DefaultTopK if zero.
	TopK int

	// EFSearch is the HNSW candidate pool size used when the classifier does
	// not request one. Zero falls through to retrieval.DefaultEFSearch.
	EFSearch int
}

// Router is the top-level dispatcher: classify, execute the chosen strategy,
// recover from every collaborator failure, and always hand back displayable
// text.
type Router struct {
	chatModel        Generator
	classifier       *Classifier
	retriever        retrieval.Retriever
	inventory        inventory.Store
	history          history.ConversationStore
	historyDepth     int
	maxContextTokens int
	topK             int
	efSearch         int
}

// New constructs a Router from the provided Config.
func New(cfg *Config) (*Router, error) {
	if cfg == nil || cfg.ChatModel == nil {
		return nil, fmt.Errorf("pipeline: ChatModel must not be nil")
	}

	classifier := cfg.Classifier
	if classifier == nil {
		classifier = &Classifier{chatModel: cfg.ChatModel}
	}

	depth := cfg.HistoryDepth
	if depth <= 0 {
		depth = 10
	}
	maxCtx := cfg.MaxContextTokens
	if maxCtx <= 0 {
		maxCtx = budget.DefaultMaxContextTokens
	}
	topK := cfg.TopK
	if topK <= 0 {
		topK = retrieval.DefaultTopK
	}

	return &Router{
		chatModel:        cfg.ChatModel,
		classifier:       classifier,
		retriever:        cfg.Retriever,
		inventory:        cfg.Inventory,
		history:          cfg.History,
		historyDepth:     depth,
		maxContextTokens: maxCtx,
		topK:             topK,
		efSearch:         cfg.EFSearch,
	}, nil
}

// ProcessQuery is the single entry point. It never returns an error and
// never panics through: whatever breaks downstream, the caller gets a
// displayable string. sessionID may be empty for stateless use.
func (r *Router) ProcessQuery(ctx context.Context, query, sessionID string) string {
	cls := r.classifier.Classify(ctx, query)
	answer := r.answer(ctx, query, sessionID, cls)

	if r.history != nil && sessionID != "" {
		log := logging.FromContext(ctx)
		if err := r.history.Append(ctx, sessionID, history.RoleUser, query); err != nil {
			log.Warn("history: failed to persist user message", slog.Any("error", err))
		}
		if err := r.history.Append(ctx, sessionID, history.RoleAssistant, answer); err != nil {
			log.Warn("history: failed to persist assistant message", slog.Any("error", err))
		}
	}

	return answer
}

// answer dispatches on the classification mode. Each branch catches its own
// collaborator failures; nothing propagates past this method.
func (r *Router) answer(ctx context.Context, query, sessionID string, cls Classification) string {
	log := logging.FromContext(ctx)

	switch cls.Mode {
	case ModeDeclined:
		// No downstream calls of any kind for declined queries.
		if cls.Message != "" {
			return cls.Message
		}
		return declineFallbackMessage

	case ModeDirect:
		return r.answerDirect(ctx, query, sessionID, cls)

	case ModeSemantic:
		return r.answerSemantic(ctx, query, sessionID, cls)

	case ModeNonRAG:
		return r.generate(ctx, sessionID, fmt.Sprintf(nonRAGTemplate, query))

	default:
		log.Warn("router: unknown classification mode", slog.String("mode", string(cls.Mode)))
		return unknownModeMessage
	}
}

// answerDirect runs the classifier's SQL against the inventory and grounds
// the final answer in the verbatim rows.
func (r *Router) answerDirect(ctx context.Context, query, sessionID string, cls Classification) string {
	log := logging.FromContext(ctx)

	if strings.TrimSpace(cls.SQL) == "" {
		// Direct mode without SQL means the classifier contradicted itself.
		// No datastore or model call is made.
		return missingQueryMessage
	}
	if r.inventory == nil {
		log.Error("router: direct strategy chosen but inventory is not configured")
		return genericErrorMessage
	}

	rows, err := r.inventory.Query(ctx, cls.SQL)
	if err != nil {
		log.Warn("router: inventory query failed", slog.Any("error", err))
		return genericErrorMessage
	}
	serialized, err := inventory.SerializeRows(rows)
	if err != nil {
		log.Warn("router: serializing inventory rows failed", slog.Any("error", err))
		return genericErrorMessage
	}

	return r.generate(ctx, sessionID, fmt.Sprintf(directAnswerTemplate, serialized, query))
}

// answerSemantic retrieves similar products and grounds the final answer in
// the aggregated context.
func (r *Router) answerSemantic(ctx context.Context, query, sessionID string, cls Classification) string {
	log := logging.FromContext(ctx)

	if r.retriever == nil {
		log.Error("router: semantic strategy chosen but retriever is not configured")
		return genericErrorMessage
	}

	opts := searchOptionsFrom(cls)
	// The classifier's per-query tuning wins; the configured default covers
	// classifications that leave ef_search unset.
	efSearch := cls.EFSearch
	if efSearch <= 0 {
		efSearch = r.efSearch
	}
	tuning := retrieval.Tuning{
		EFSearch: efSearch,
		Exact:    cls.Precision == "exact",
		Metric:   cls.Metric,
	}

	products, err := r.retriever.Retrieve(ctx, query, opts, tuning, r.topK)
	if err != nil {
		log.Warn("router: retrieval failed", slog.Any("error", err))
		return genericErrorMessage
	}

	contextBlock := AggregateContext(products)
	template := semanticTemplateFor(cls.Granularity)
	return r.generate(ctx, sessionID, fmt.Sprintf(template, contextBlock, query))
}

// searchOptionsFrom scopes the retrieval filter by granularity: a specific
// item filters on its identifier, a category query filters on the category,
// and high-level queries search the whole catalog. Price bounds apply at
// every granularity because price is post-filtered, not indexed.
func searchOptionsFrom(cls Classification) retrieval.SearchOptions {
	opts := retrieval.SearchOptions{
		MinPrice: cls.MinPrice,
		MaxPrice: cls.MaxPrice,
	}
	switch cls.Granularity {
	case GranularitySpecificItem:
		opts.ProductID = cls.ProductID
		opts.Origin = cls.Origin
		opts.Color = cls.Color
	case GranularityCategory:
		opts.Category = cls.Category
		opts.Origin = cls.Origin
		opts.Color = cls.Color
	}
	return opts
}

// generate sends the prompt to the chat model with trimmed conversation
// history injected ahead of it. Model failure and empty responses both
// resolve to fixed fallback strings.
func (r *Router) generate(ctx context.Context, sessionID, prompt string) string {
	log := logging.FromContext(ctx)

	current := schema.UserMessage(prompt)
	historyMsgs := r.loadHistory(ctx, sessionID)
	historyMsgs = budget.TrimHistory([]*schema.Message{current}, historyMsgs, r.maxContextTokens)

	msgs := make([]*schema.Message, 0, len(historyMsgs)+1)
	msgs = append(msgs, historyMsgs...)
	msgs = append(msgs, current)

	resp, err := r.chatModel.Generate(ctx, msgs)
	if err != nil {
		log.Warn("router: answer generation failed", slog.Any("error", err))
		return genericErrorMessage
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return noResponseMessage
	}
	return resp.Content
}

// loadHistory converts stored turns into chat messages, oldest first.
// Load failure is non-fatal; the query proceeds stateless.
func (r *Router) loadHistory(ctx context.Context, sessionID string) []*schema.Message {
	if r.history == nil || sessionID == "" {
		return nil
	}

	prior, err := r.history.Recent(ctx, sessionID, r.historyDepth*2)
	if err != nil {
		logging.FromContext(ctx).Warn("history: failed to load prior messages", slog.Any("error", err))
		return nil
	}

	msgs := make([]*schema.Message, 0, len(prior))
	for _, m := range prior {
		switch m.Role {
		case history.RoleUser:
			msgs = append(msgs, schema.UserMessage(m.Content))
		case history.RoleAssistant:
			msgs = append(msgs, schema.AssistantMessage(m.Content, nil))
		}
	}
	return msgs
}

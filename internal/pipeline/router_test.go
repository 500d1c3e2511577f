package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/agesalabs/agesabot-go/internal/history"
	"github.com/agesalabs/agesabot-go/internal/retrieval"
)

// fakeModel returns scripted responses in order and records every prompt.
type fakeModel struct {
	responses []string
	err       error
	calls     int
	prompts   []string
}

func (f *fakeModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.calls++
	if len(input) > 0 {
		f.prompts = append(f.prompts, input[len(input)-1].Content)
	}
	if f.err != nil {
		return nil, f.err
	}
	if len(f.responses) == 0 {
		return schema.AssistantMessage("", nil), nil
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return schema.AssistantMessage(resp, nil), nil
}

// fakeRetriever records the search options and returns canned products.
type fakeRetriever struct {
	products []retrieval.Product
	err      error
	calls    int
	gotOpts  retrieval.SearchOptions
	gotTune  retrieval.Tuning
}

func (f *fakeRetriever) Retrieve(_ context.Context, _ string, opts retrieval.SearchOptions, tuning retrieval.Tuning, _ int) ([]retrieval.Product, error) {
	f.calls++
	f.gotOpts = opts
	f.gotTune = tuning
	return f.products, f.err
}

// fakeInventory records the executed SQL and returns canned rows.
type fakeInventory struct {
	rows     []map[string]any
	err      error
	calls    int
	gotQuery string
}

func (f *fakeInventory) Query(_ context.Context, query string) ([]map[string]any, error) {
	f.calls++
	f.gotQuery = query
	return f.rows, f.err
}

func (f *fakeInventory) Ping(context.Context) error { return nil }
func (f *fakeInventory) Close() error               { return nil }

// fakeHistory records appended turns.
type fakeHistory struct {
	appended []string
}

func (f *fakeHistory) Append(_ context.Context, _ string, role history.Role, content string) error {
	f.appended = append(f.appended, string(role)+":"+content)
	return nil
}

func (f *fakeHistory) Recent(context.Context, string, int) ([]history.Message, error) {
	return nil, nil
}

func (f *fakeHistory) Close() error { return nil }

func newTestRouter(t *testing.T, cfg Config) *Router {
	t.Helper()
	r, err := New(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestProcessQueryDirectLookup(t *testing.T) {
	t.Parallel()

	const sql = "SELECT name, rating FROM product_inventory ORDER BY rating DESC LIMIT 5"
	chat := &fakeModel{responses: []string{
		fmt.Sprintf(`{"mode":"direct","sql":"%s"}`, sql),
		"En yüksek puanlı rujlar şunlar.",
	}}
	inv := &fakeInventory{rows: []map[string]any{
		{"name": "Mat Ruj", "rating": 4.8},
	}}
	r := newTestRouter(t, Config{ChatModel: chat, Inventory: inv})

	got := r.ProcessQuery(context.Background(), "En yüksek puanlı 5 ruj hangisi?", "")

	if got != "En yüksek puanlı rujlar şunlar." {
		t.Errorf("answer = %q", got)
	}
	if inv.calls != 1 || inv.gotQuery != sql {
		t.Errorf("inventory query = %q (%d calls), want the classifier SQL once", inv.gotQuery, inv.calls)
	}
	// The answer prompt must carry the verbatim rows.
	final := chat.prompts[len(chat.prompts)-1]
	if !strings.Contains(final, "Mat Ruj") || !strings.Contains(final, "Based on the following data") {
		t.Errorf("answer prompt not grounded in rows:\n%s", final)
	}
}

func TestProcessQueryDirectWithoutSQL(t *testing.T) {
	t.Parallel()

	chat := &fakeModel{responses: []string{`{"mode":"direct"}`}}
	inv := &fakeInventory{}
	r := newTestRouter(t, Config{ChatModel: chat, Inventory: inv})

	got := r.ProcessQuery(context.Background(), "fiyat?", "")

	if got != missingQueryMessage {
		t.Errorf("answer = %q, want fixed apology", got)
	}
	if inv.calls != 0 {
		t.Errorf("inventory called %d times, want 0", inv.calls)
	}
	if chat.calls != 1 {
		t.Errorf("model called %d times, want 1 (classification only)", chat.calls)
	}
}

func TestProcessQuerySemanticWithPriceBound(t *testing.T) {
	t.Parallel()

	chat := &fakeModel{responses: []string{
		`{"mode":"semantic","granularity":"category","category":"yüz kremi","max_price":100}`,
		"Kuru ciltler için şu kremleri önerebilirim.",
	}}
	ret := &fakeRetriever{products: []retrieval.Product{
		{Name: "Nemlendirici Krem", Price: "99,90 TL", Category: "yüz kremi"},
	}}
	r := newTestRouter(t, Config{ChatModel: chat, Retriever: ret})

	got := r.ProcessQuery(context.Background(), "Kuru cilt için 100 TL altı yüz kremi önerir misin?", "")

	if got != "Kuru ciltler için şu kremleri önerebilirim." {
		t.Errorf("answer = %q", got)
	}
	if ret.gotOpts.Category != "yüz kremi" {
		t.Errorf("category filter = %q, want yüz kremi", ret.gotOpts.Category)
	}
	if ret.gotOpts.MaxPrice == nil || *ret.gotOpts.MaxPrice != 100 {
		t.Errorf("max price = %v, want 100", ret.gotOpts.MaxPrice)
	}
	final := chat.prompts[len(chat.prompts)-1]
	if !strings.Contains(final, "Nemlendirici Krem") || !strings.Contains(final, "this category") {
		t.Errorf("semantic prompt wrong:\n%s", final)
	}
}

func TestProcessQuerySemanticEFSearchDefault(t *testing.T) {
	t.Parallel()

	t.Run("configured default applies when classifier is silent", func(t *testing.T) {
		t.Parallel()
		chat := &fakeModel{responses: []string{
			`{"mode":"semantic","granularity":"high_level"}`,
			"Tabii.",
		}}
		ret := &fakeRetriever{}
		r := newTestRouter(t, Config{ChatModel: chat, Retriever: ret, EFSearch: 80})

		r.ProcessQuery(context.Background(), "Mağazada neler var?", "")

		if ret.gotTune.EFSearch != 80 {
			t.Errorf("ef_search = %d, want configured default 80", ret.gotTune.EFSearch)
		}
	})

	t.Run("classifier tuning wins over the default", func(t *testing.T) {
		t.Parallel()
		chat := &fakeModel{responses: []string{
			`{"mode":"semantic","granularity":"high_level","ef_search":120}`,
			"Tabii.",
		}}
		ret := &fakeRetriever{}
		r := newTestRouter(t, Config{ChatModel: chat, Retriever: ret, EFSearch: 80})

		r.ProcessQuery(context.Background(), "Mağazada neler var?", "")

		if ret.gotTune.EFSearch != 120 {
			t.Errorf("ef_search = %d, want classifier value 120", ret.gotTune.EFSearch)
		}
	})
}

func TestProcessQueryHighLevelSendsNoEqualityFilter(t *testing.T) {
	t.Parallel()

	chat := &fakeModel{responses: []string{
		`{"mode":"semantic","granularity":"high_level","category":"should-be-ignored"}`,
		"Genel olarak şunları söyleyebilirim.",
	}}
	ret := &fakeRetriever{}
	r := newTestRouter(t, Config{ChatModel: chat, Retriever: ret})

	r.ProcessQuery(context.Background(), "Mağazada neler var?", "")

	if ret.gotOpts.Category != "" || ret.gotOpts.ProductID != "" {
		t.Errorf("high_level must not carry equality filters: %+v", ret.gotOpts)
	}
}

func TestProcessQueryDeclinedMakesNoDownstreamCalls(t *testing.T) {
	t.Parallel()

	chat := &fakeModel{responses: []string{
		`{"mode":"declined","message":"Üzgünüm, bu konu uzmanlık alanım dışında."}`,
	}}
	ret := &fakeRetriever{}
	inv := &fakeInventory{}
	r := newTestRouter(t, Config{ChatModel: chat, Retriever: ret, Inventory: inv})

	got := r.ProcessQuery(context.Background(), "Bana borsa tüyosu ver.", "")

	if got != "Üzgünüm, bu konu uzmanlık alanım dışında." {
		t.Errorf("refusal not returned verbatim: %q", got)
	}
	if ret.calls != 0 || inv.calls != 0 {
		t.Errorf("collaborators called for a declined query: retriever=%d inventory=%d", ret.calls, inv.calls)
	}
	if chat.calls != 1 {
		t.Errorf("model called %d times, want 1 (classification only)", chat.calls)
	}
}

func TestProcessQueryNonRAG(t *testing.T) {
	t.Parallel()

	chat := &fakeModel{responses: []string{
		`{"mode":"non_rag"}`,
		"Cilt tipinize göre değişir.",
	}}
	ret := &fakeRetriever{}
	r := newTestRouter(t, Config{ChatModel: chat, Retriever: ret})

	got := r.ProcessQuery(context.Background(), "Güneş kremi neden önemli?", "")

	if got != "Cilt tipinize göre değişir." {
		t.Errorf("answer = %q", got)
	}
	if ret.calls != 0 {
		t.Errorf("retriever called %d times for non_rag, want 0", ret.calls)
	}
	final := chat.prompts[len(chat.prompts)-1]
	if !strings.Contains(final, "Güneş kremi neden önemli?") {
		t.Errorf("query missing from prompt:\n%s", final)
	}
}

func TestProcessQueryClassifierFailureDeclines(t *testing.T) {
	t.Parallel()

	chat := &fakeModel{err: fmt.Errorf("model unreachable")}
	r := newTestRouter(t, Config{ChatModel: chat})

	got := r.ProcessQuery(context.Background(), "merhaba", "")
	if got != declineFallbackMessage {
		t.Errorf("answer = %q, want decline fallback", got)
	}
}

func TestProcessQueryCollaboratorFailures(t *testing.T) {
	t.Parallel()

	t.Run("inventory error", func(t *testing.T) {
		t.Parallel()
		chat := &fakeModel{responses: []string{`{"mode":"direct","sql":"SELECT 1"}`}}
		inv := &fakeInventory{err: fmt.Errorf("connection refused")}
		r := newTestRouter(t, Config{ChatModel: chat, Inventory: inv})

		if got := r.ProcessQuery(context.Background(), "q", ""); got != genericErrorMessage {
			t.Errorf("answer = %q, want generic error", got)
		}
	})

	t.Run("retrieval error", func(t *testing.T) {
		t.Parallel()
		chat := &fakeModel{responses: []string{`{"mode":"semantic","granularity":"high_level"}`}}
		ret := &fakeRetriever{err: fmt.Errorf("qdrant down")}
		r := newTestRouter(t, Config{ChatModel: chat, Retriever: ret})

		if got := r.ProcessQuery(context.Background(), "q", ""); got != genericErrorMessage {
			t.Errorf("answer = %q, want generic error", got)
		}
	})

	t.Run("unwired inventory", func(t *testing.T) {
		t.Parallel()
		chat := &fakeModel{responses: []string{`{"mode":"direct","sql":"SELECT 1"}`}}
		r := newTestRouter(t, Config{ChatModel: chat})

		if got := r.ProcessQuery(context.Background(), "q", ""); got != genericErrorMessage {
			t.Errorf("answer = %q, want generic error", got)
		}
	})
}

func TestProcessQueryEmptyAnswerSubstituted(t *testing.T) {
	t.Parallel()

	chat := &fakeModel{responses: []string{`{"mode":"non_rag"}`, "   "}}
	r := newTestRouter(t, Config{ChatModel: chat})

	if got := r.ProcessQuery(context.Background(), "q", ""); got != noResponseMessage {
		t.Errorf("answer = %q, want no-response fallback", got)
	}
}

func TestAnswerUnknownMode(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, Config{ChatModel: &fakeModel{}})
	got := r.answer(context.Background(), "q", "", Classification{Mode: "weird"})
	if got != unknownModeMessage {
		t.Errorf("answer = %q, want unknown-mode fallback", got)
	}
}

func TestProcessQueryPersistsHistory(t *testing.T) {
	t.Parallel()

	chat := &fakeModel{responses: []string{`{"mode":"non_rag"}`, "Tabii ki."}}
	hist := &fakeHistory{}
	r := newTestRouter(t, Config{ChatModel: chat, History: hist})

	r.ProcessQuery(context.Background(), "Merhaba", "sess-1")

	if len(hist.appended) != 2 {
		t.Fatalf("appended %d turns, want 2", len(hist.appended))
	}
	if hist.appended[0] != "user:Merhaba" || hist.appended[1] != "assistant:Tabii ki." {
		t.Errorf("turns = %v", hist.appended)
	}
}

func TestProcessQueryStatelessWithoutSession(t *testing.T) {
	t.Parallel()

	chat := &fakeModel{responses: []string{`{"mode":"non_rag"}`, "Merhaba!"}}
	hist := &fakeHistory{}
	r := newTestRouter(t, Config{ChatModel: chat, History: hist})

	r.ProcessQuery(context.Background(), "Selam", "")

	if len(hist.appended) != 0 {
		t.Errorf("history written without a session: %v", hist.appended)
	}
}

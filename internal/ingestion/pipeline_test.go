package ingestion

import (
	"context"
	"strings"
	"testing"

	"github.com/agesalabs/agesabot-go/internal/retrieval"
)

type fakeEmbedder struct {
	batches [][]string
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.batches = append(f.batches, texts)
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1}
	}
	return out, nil
}

type fakeStore struct {
	upserted []retrieval.Product
}

func (f *fakeStore) Search(context.Context, []float32, *retrieval.Filter, retrieval.Tuning, int) ([]retrieval.Product, error) {
	return nil, nil
}

func (f *fakeStore) Upsert(_ context.Context, products []retrieval.Product, _ [][]float32) error {
	f.upserted = append(f.upserted, products...)
	return nil
}

func (f *fakeStore) Delete(context.Context, []string) error { return nil }
func (f *fakeStore) Close() error                           { return nil }

const sampleCSV = `product_id,name,price,subcategory,description,Menşei,Renk,rating,url
p-1,Nemlendirici Krem,"299,99 TL",cilt bakımı,Kuru ciltler için,Türkiye,,4.5,https://example.com/p-1
p-2,Mat Ruj,"199,90 TL",makyaj,Uzun süre kalıcı,Fransa,kırmızı,"4,2",https://example.com/p-2
,Başlıksız Ürün,"10 TL",makyaj,,,,,
`

func TestIngestMapsTurkishHeaders(t *testing.T) {
	t.Parallel()

	emb := &fakeEmbedder{}
	store := &fakeStore{}
	p, err := NewPipeline(emb, store, nil)
	if err != nil {
		t.Fatal(err)
	}

	ingested, skipped, err := p.Ingest(context.Background(), strings.NewReader(sampleCSV), nil)
	if err != nil {
		t.Fatal(err)
	}
	if ingested != 2 {
		t.Errorf("ingested = %d, want 2", ingested)
	}
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1 (record without product_id)", skipped)
	}

	if len(store.upserted) != 2 {
		t.Fatalf("upserted = %d products, want 2", len(store.upserted))
	}
	first := store.upserted[0]
	if first.ID != "p-1" || first.Category != "cilt bakımı" || first.Origin != "Türkiye" {
		t.Errorf("field mapping broken: %+v", first)
	}
	if first.Price != "299,99 TL" {
		t.Errorf("price must stay raw, got %q", first.Price)
	}
	second := store.upserted[1]
	if second.Color != "kırmızı" {
		t.Errorf("Renk column not mapped: %+v", second)
	}
	if second.Rating != 4.2 {
		t.Errorf("comma-decimal rating not parsed: %v", second.Rating)
	}
}

func TestIngestBatches(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	b.WriteString("product_id,name\n")
	for i := 0; i < 130; i++ {
		b.WriteString("p-")
		b.WriteString(strings.Repeat("x", i%3+1))
		b.WriteString(",Ürün\n")
	}

	emb := &fakeEmbedder{}
	store := &fakeStore{}
	p, _ := NewPipeline(emb, store, &Config{BatchSize: 64})

	ingested, _, err := p.Ingest(context.Background(), strings.NewReader(b.String()), nil)
	if err != nil {
		t.Fatal(err)
	}
	if ingested != 130 {
		t.Errorf("ingested = %d, want 130", ingested)
	}
	if len(emb.batches) != 3 {
		t.Errorf("batches = %d, want 3 (64+64+2)", len(emb.batches))
	}
}

func TestIngestRejectsUnknownHeader(t *testing.T) {
	t.Parallel()

	p, _ := NewPipeline(&fakeEmbedder{}, &fakeStore{}, nil)
	_, _, err := p.Ingest(context.Background(), strings.NewReader("foo,bar\n1,2\n"), nil)
	if err == nil {
		t.Error("expected error for unrecognizable header")
	}
}

func TestBuildEmbeddingText(t *testing.T) {
	t.Parallel()

	p := retrieval.Product{
		Name:        "Mat Ruj",
		Category:    "makyaj",
		Description: "Uzun süre kalıcı",
		Origin:      "Fransa",
		Color:       "kırmızı",
		Price:       "199,90 TL",
		URL:         "https://example.com/p-2",
	}
	text := buildEmbeddingText(p)

	if !strings.HasPrefix(text, "Mat Ruj") {
		t.Errorf("name must lead the embedding text: %q", text)
	}
	for _, want := range []string{"makyaj", "Uzun süre kalıcı", "Menşei: Fransa", "Renk: kırmızı"} {
		if !strings.Contains(text, want) {
			t.Errorf("embedding text missing %q", want)
		}
	}
	for _, avoid := range []string{"199,90", "https://"} {
		if strings.Contains(text, avoid) {
			t.Errorf("embedding text must not contain %q", avoid)
		}
	}
}

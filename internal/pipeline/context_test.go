package pipeline

import (
	"strings"
	"testing"

	"github.com/agesalabs/agesabot-go/internal/retrieval"
)

func TestAggregateContextEmptyReturnsSentinel(t *testing.T) {
	t.Parallel()

	got := AggregateContext(nil)
	if got != emptyContextSentinel {
		t.Errorf("AggregateContext(nil) = %q, want sentinel", got)
	}
	if got == "" {
		t.Error("empty context must never be an empty string")
	}
}

func TestAggregateContextNumbersInRankOrder(t *testing.T) {
	t.Parallel()

	products := []retrieval.Product{
		{Name: "Birinci Krem", Price: "100 TL"},
		{Name: "İkinci Krem", Price: "200 TL"},
	}
	got := AggregateContext(products)

	first := strings.Index(got, "1. Ürün: Birinci Krem")
	second := strings.Index(got, "2. Ürün: İkinci Krem")
	if first < 0 || second < 0 || second < first {
		t.Errorf("blocks out of rank order:\n%s", got)
	}
	if !strings.Contains(got, "\n\n") {
		t.Error("blocks must be separated by a blank line")
	}
}

func TestAggregateContextNameAndPriceFallbacks(t *testing.T) {
	t.Parallel()

	got := AggregateContext([]retrieval.Product{{}})
	if !strings.Contains(got, "Ürün: bilinmiyor") {
		t.Errorf("missing name fallback:\n%s", got)
	}
	if !strings.Contains(got, "Fiyat: belirtilmemiş") {
		t.Errorf("missing price fallback:\n%s", got)
	}
}

func TestAggregateContextOmitsAbsentFields(t *testing.T) {
	t.Parallel()

	got := AggregateContext([]retrieval.Product{
		{Name: "Ruj", Price: "199 TL", Color: "kırmızı"},
	})
	if !strings.Contains(got, "Renk: kırmızı") {
		t.Errorf("present field not rendered:\n%s", got)
	}
	for _, label := range []string{"Kategori:", "Açıklama:", "Menşei:", "URL:"} {
		if strings.Contains(got, label) {
			t.Errorf("absent field rendered with label %q:\n%s", label, got)
		}
	}
}

func TestAggregateContextKeepsRawPrice(t *testing.T) {
	t.Parallel()

	got := AggregateContext([]retrieval.Product{
		{Name: "Parfüm", Price: "1.990,50 TL"},
	})
	if !strings.Contains(got, "Fiyat: 1.990,50 TL") {
		t.Errorf("price must render raw, not normalized:\n%s", got)
	}
}

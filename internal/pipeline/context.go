package pipeline

import (
	"fmt"
	"strings"

	"github.com/agesalabs/agesabot-go/internal/retrieval"
)

// AggregateContext renders retrieved products into the single text block
// used as grounding context for answer generation. Blocks are numbered in
// retrieval rank order and separated by a blank line. Name and price always
// print, with explicit fallbacks when absent; every other field is omitted
// when empty. An empty input renders as a fixed sentinel, never "".
func AggregateContext(products []retrieval.Product) string {
	if len(products) == 0 {
		return emptyContextSentinel
	}

	var sb strings.Builder
	for i, p := range products {
		if i > 0 {
			sb.WriteString("\n")
		}

		name := p.Name
		if name == "" {
			name = "bilinmiyor"
		}
		price := p.Price
		if price == "" {
			price = "belirtilmemiş"
		}

		fmt.Fprintf(&sb, "%d. Ürün: %s\n", i+1, name)
		fmt.Fprintf(&sb, "   Fiyat: %s\n", price)
		if p.Category != "" {
			fmt.Fprintf(&sb, "   Kategori: %s\n", p.Category)
		}
		if p.Description != "" {
			fmt.Fprintf(&sb, "   Açıklama: %s\n", p.Description)
		}
		if p.ExtraDescription != "" {
			fmt.Fprintf(&sb, "   Ek Açıklama: %s\n", p.ExtraDescription)
		}
		if p.Origin != "" {
			fmt.Fprintf(&sb, "   Menşei: %s\n", p.Origin)
		}
		if p.Color != "" {
			fmt.Fprintf(&sb, "   Renk: %s\n", p.Color)
		}
		if p.URL != "" {
			fmt.Fprintf(&sb, "   URL: %s\n", p.URL)
		}
	}
	return sb.String()
}

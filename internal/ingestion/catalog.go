// Package ingestion implements the product catalog ingestion pipeline.
// It reads catalog exports in CSV form, maps the Turkish column headers to
// canonical payload fields, embeds each product's descriptive text, and
// upserts the results into the vector store. This pipeline is invoked by
// the `agesabot ingest` CLI command.
package ingestion

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/agesalabs/agesabot-go/internal/retrieval"
)

// headerAliases maps catalog export column headers to canonical field names.
// The export mixes English and Turkish headers; matching is case-insensitive
// after trimming.
var headerAliases = map[string]string{
	"product_id":        "product_id",
	"id":                "product_id",
	"name":              "name",
	"ürün adı":          "name",
	"url":               "url",
	"price":             "price",
	"fiyat":             "price",
	"rating":            "rating",
	"puan":              "rating",
	"subcategory":       "category",
	"kategori":          "category",
	"description":       "description",
	"açıklama":          "description",
	"extra_description": "extra_description",
	"menşei":            "origin",
	"origin":            "origin",
	"renk":              "color",
	"color":             "color",
}

// mapHeader resolves a raw CSV header to its canonical field name.
// Unknown headers map to "" and their columns are ignored.
func mapHeader(raw string) string {
	return headerAliases[strings.ToLower(strings.TrimSpace(raw))]
}

// productFromRecord builds a Product from one CSV record using the resolved
// column mapping. fields maps column index to canonical field name.
func productFromRecord(record []string, fields map[int]string) (retrieval.Product, error) {
	var p retrieval.Product
	for i, field := range fields {
		if i >= len(record) {
			continue
		}
		val := strings.TrimSpace(record[i])
		switch field {
		case "product_id":
			p.ID = val
		case "name":
			p.Name = val
		case "url":
			p.URL = val
		case "price":
			p.Price = val
		case "category":
			p.Category = val
		case "description":
			p.Description = val
		case "extra_description":
			p.ExtraDescription = val
		case "origin":
			p.Origin = val
		case "color":
			p.Color = val
		case "rating":
			if val != "" {
				r, err := strconv.ParseFloat(strings.ReplaceAll(val, ",", "."), 64)
				if err == nil {
					p.Rating = r
				}
			}
		}
	}
	if p.ID == "" {
		return p, fmt.Errorf("ingestion: record has no product_id")
	}
	if p.Name == "" {
		return p, fmt.Errorf("ingestion: record %s has no name", p.ID)
	}
	return p, nil
}

// buildEmbeddingText concatenates a product's descriptive fields into the
// text that gets embedded. Name leads so short queries match on it; price
// and URL are excluded because they carry no semantic signal.
func buildEmbeddingText(p retrieval.Product) string {
	parts := make([]string, 0, 6)
	parts = append(parts, p.Name)
	if p.Category != "" {
		parts = append(parts, p.Category)
	}
	if p.Description != "" {
		parts = append(parts, p.Description)
	}
	if p.ExtraDescription != "" {
		parts = append(parts, p.ExtraDescription)
	}
	if p.Origin != "" {
		parts = append(parts, "Menşei: "+p.Origin)
	}
	if p.Color != "" {
		parts = append(parts, "Renk: "+p.Color)
	}
	return strings.Join(parts, "\n")
}

package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/qdrant/go-client/qdrant"
)

// QdrantConfig holds connection parameters for the Qdrant vector index.
type QdrantConfig struct {
	// Host is the Qdrant server hostname (default: localhost).
	Host string

	// Port is the Qdrant gRPC port (default: 6334).
	Port int

	// Collection is the Qdrant collection holding the product catalog.
	Collection string

	// VectorSize is the dimensionality of the stored embeddings.
	VectorSize uint64

	// Metric is the collection distance metric: cosine (default), euclid, dot.
	Metric string

	// APIKey is the optional Qdrant API key for authenticated clusters.
	APIKey string

	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool
}

// QdrantStore implements VectorStore backed by a Qdrant instance.
type QdrantStore struct {
	// client is the underlying Qdrant gRPC client.
	client *qdrant.Client

	// cfg holds the resolved configuration for this store.
	cfg *QdrantConfig

	// log records tuning anomalies (e.g. metric mismatch requests).
	log *slog.Logger
}

// NewQdrantStore creates a new QdrantStore, ensuring the target collection
// exists (creating it if necessary), and returns a ready-to-use VectorStore.
func NewQdrantStore(ctx context.Context, cfg *QdrantConfig, log *slog.Logger) (*QdrantStore, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}
	if cfg.Metric == "" {
		cfg.Metric = "cosine"
	}
	if log == nil {
		log = slog.Default()
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: failed to create client: %w", err)
	}

	store := &QdrantStore{client: client, cfg: cfg, log: log}
	if err := store.ensureCollection(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// ensureCollection creates the catalog collection if it does not already exist.
func (s *QdrantStore) ensureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.cfg.Collection)
	if err != nil {
		return fmt.Errorf("qdrant: failed to check collection existence: %w", err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.cfg.Collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     s.cfg.VectorSize,
			Distance: distanceFor(s.cfg.Metric),
		}),
	})
	if err != nil {
		return fmt.Errorf("qdrant: failed to create collection %q: %w", s.cfg.Collection, err)
	}

	return nil
}

// distanceFor maps a metric name to the Qdrant distance enum.
// Unknown names fall back to cosine, the catalog default.
func distanceFor(metric string) qdrant.Distance {
	switch strings.ToLower(metric) {
	case "euclid", "euclidean", "l2":
		return qdrant.Distance_Euclid
	case "dot", "dotproduct":
		return qdrant.Distance_Dot
	default:
		return qdrant.Distance_Cosine
	}
}

// Search performs a similarity search and returns up to limit products in
// descending score order. A nil filter issues an unfiltered query — no empty
// filter object is ever sent, since Qdrant treats "no filter" and
// "empty filter" as distinct requests.
func (s *QdrantStore) Search(ctx context.Context, embedding []float32, filter *Filter, tuning Tuning, limit int) ([]Product, error) {
	lim := uint64(limit)
	query := &qdrant.QueryPoints{
		CollectionName: s.cfg.Collection,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          &lim,
		WithPayload:    qdrant.NewWithPayload(true),
	}

	if f := toQdrantFilter(filter); f != nil {
		query.Filter = f
	}
	query.Params = searchParams(tuning)

	if tuning.Metric != "" && distanceFor(tuning.Metric) != distanceFor(s.cfg.Metric) {
		// The distance metric is fixed per collection; honour the collection.
		s.log.Warn("qdrant: requested metric differs from collection metric, using collection metric",
			slog.String("requested", tuning.Metric),
			slog.String("collection_metric", s.cfg.Metric),
		)
	}

	results, err := s.client.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("qdrant: search failed: %w", err)
	}

	products := make([]Product, 0, len(results))
	for _, r := range results {
		products = append(products, productFromPayload(r.Payload, r.Score))
	}

	return products, nil
}

// toQdrantFilter translates a Filter conjunction into the Qdrant wire filter.
// A nil input stays nil.
func toQdrantFilter(f *Filter) *qdrant.Filter {
	if f == nil || len(f.Must) == 0 {
		return nil
	}
	must := make([]*qdrant.Condition, 0, len(f.Must))
	for _, c := range f.Must {
		must = append(must, qdrant.NewMatch(c.Field, c.Equals))
	}
	return &qdrant.Filter{Must: must}
}

// searchParams maps tuning values to Qdrant search parameters. In exact mode
// the HNSW knob is omitted entirely — an exhaustive scan ignores it anyway.
func searchParams(t Tuning) *qdrant.SearchParams {
	params := &qdrant.SearchParams{}
	if t.Exact {
		exact := true
		params.Exact = &exact
		return params
	}
	if t.EFSearch > 0 {
		ef := uint64(t.EFSearch)
		params.HnswEf = &ef
	}
	return params
}

// productFromPayload maps a stored Qdrant payload back into a Product.
// Missing payload fields stay zero-valued.
func productFromPayload(payload map[string]*qdrant.Value, score float32) Product {
	p := Product{Score: score}
	if payload == nil {
		return p
	}

	str := func(key string) string {
		if v, ok := payload[key]; ok {
			return v.GetStringValue()
		}
		return ""
	}

	p.ID = str("product_id")
	p.Name = str("name")
	p.Price = str("price")
	p.Category = str("category")
	p.Description = str("description")
	p.ExtraDescription = str("extra_description")
	p.Origin = str("origin")
	p.Color = str("color")
	p.URL = str("url")
	if v, ok := payload["rating"]; ok {
		p.Rating = v.GetDoubleValue()
	}
	return p
}

// Upsert stores or updates a batch of products with their embeddings.
// embeddings[i] must be the vector for products[i].
func (s *QdrantStore) Upsert(ctx context.Context, products []Product, embeddings [][]float32) error {
	if len(products) != len(embeddings) {
		return fmt.Errorf("qdrant: %d products but %d embeddings", len(products), len(embeddings))
	}

	points := make([]*qdrant.PointStruct, 0, len(products))
	for i, p := range products {
		payload := map[string]interface{}{
			"product_id": p.ID,
			"name":       p.Name,
			"price":      p.Price,
		}
		if p.Category != "" {
			payload["category"] = p.Category
		}
		if p.Description != "" {
			payload["description"] = p.Description
		}
		if p.ExtraDescription != "" {
			payload["extra_description"] = p.ExtraDescription
		}
		if p.Origin != "" {
			payload["origin"] = p.Origin
		}
		if p.Color != "" {
			payload["color"] = p.Color
		}
		if p.URL != "" {
			payload["url"] = p.URL
		}
		if p.Rating > 0 {
			payload["rating"] = p.Rating
		}

		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(PointID(p.ID)),
			Vectors: qdrant.NewVectors(embeddings[i]...),
			Payload: qdrant.NewValueMap(payload),
		})
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.cfg.Collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("qdrant: upsert failed: %w", err)
	}

	return nil
}

// Delete removes products from the collection by their catalog IDs.
func (s *QdrantStore) Delete(ctx context.Context, ids []string) error {
	pointIDs := make([]*qdrant.PointId, 0, len(ids))
	for _, id := range ids {
		pointIDs = append(pointIDs, qdrant.NewIDUUID(PointID(id)))
	}

	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.cfg.Collection,
		Points:         qdrant.NewPointsSelector(pointIDs...),
	})
	if err != nil {
		return fmt.Errorf("qdrant: delete failed: %w", err)
	}

	return nil
}

// Client exposes the underlying gRPC client for health probes.
func (s *QdrantStore) Client() *qdrant.Client { return s.client }

// Close closes the underlying Qdrant gRPC connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

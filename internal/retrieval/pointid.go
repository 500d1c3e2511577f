package retrieval

import (
	"crypto/sha256"
	"fmt"
)

// PointID derives a deterministic UUID-formatted point ID from a catalog
// product ID. Qdrant point IDs must be integers or UUIDs; catalog IDs are
// arbitrary strings, so the first 16 bytes of a SHA-256 digest are formatted
// as a UUID. The same product always maps to the same point, which makes
// re-ingestion an upsert rather than a duplicate insert.
func PointID(productID string) string {
	h := sha256.Sum256([]byte(productID))
	return fmt.Sprintf("%x-%x-%x-%x-%x", h[0:4], h[4:6], h[6:8], h[8:10], h[10:16])
}

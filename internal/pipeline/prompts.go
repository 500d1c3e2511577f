package pipeline

// User-facing fallback strings. The assistant speaks Turkish to shoppers,
// so every message a user can see is Turkish.
const (
	// declineFallbackMessage is returned for declined queries without a
	// classifier-supplied refusal.
	declineFallbackMessage = "Üzgünüm, bu konuda size yardımcı olamıyorum. Ürünlerimiz ve kozmetik hakkında sorularınızı yanıtlamaktan memnuniyet duyarım."

	// genericErrorMessage is returned when any collaborator fails mid-answer.
	genericErrorMessage = "Üzgünüm, sorunuzu işlerken bir hata oluştu. Lütfen tekrar deneyin."

	// missingQueryMessage is returned when a direct classification arrives
	// without a SQL statement.
	missingQueryMessage = "Üzgünüm, bu isteği şu anda yanıtlayamıyorum. Sorunuzu biraz daha açık yazabilir misiniz?"

	// noResponseMessage substitutes for an empty LLM response body.
	noResponseMessage = "Üzgünüm, bir yanıt oluşturulamadı. Lütfen sorunuzu tekrar deneyin."

	// unknownModeMessage is the defensive branch for an unrecognized mode.
	unknownModeMessage = "Üzgünüm, bu isteği işleyemiyorum."

	// emptyContextSentinel stands in for the context block when retrieval
	// returned nothing. A fixed sentinel keeps "no results" distinguishable
	// from "no context requested".
	emptyContextSentinel = "İlgili ürün bulunamadı."
)

// classifierPrompt instructs the LLM to route a query into exactly one of
// four modes and emit machine-parseable JSON. The inventory schema is spelled
// out so direct-mode SQL references real columns.
const classifierPrompt = `You are the query router for a Turkish cosmetics shopping assistant.
Classify the user's query into exactly ONE of four modes and respond with a
single JSON object. No markdown fences, no text outside the JSON.

The shop's product database is a single Postgres table:

  product_inventory(product_id, name, url, price, rating, subcategory,
                    description, extra_description, "Menşei", "Renk")

price is a Turkish-formatted text column (e.g. '1.990,50 TL'); rating is numeric.

Modes:

1. "direct" — the query is answerable by a structured lookup over the table
   (rankings, counts, exact price of a named product, listings per category).
   Payload: {"mode":"direct","sql":"<one SELECT statement>"}
   The SQL must be a single SELECT. Use ILIKE for name matching.

2. "semantic" — the query needs similarity search over product descriptions
   (recommendations, "something for dry skin", comparisons by feel or effect).
   Payload: {"mode":"semantic","granularity":"specific_item"|"category"|"high_level",
             "category":"<subcategory if the query names one>",
             "product_id":"<id only if the query targets one known product>",
             "min_price":<number, omit if none>,"max_price":<number, omit if none>}
   granularity: "specific_item" for one named product, "category" for one
   product category, "high_level" for broad or cross-category queries.

3. "non_rag" — in-domain general knowledge about cosmetics, skin or hair care
   that does not depend on our catalog.
   Payload: {"mode":"non_rag"}

4. "declined" — out of domain (politics, medical diagnoses, anything not
   about cosmetics or shopping here) or unsafe.
   Payload: {"mode":"declined","message":"<kind Turkish refusal>"}

User query:
`

// directAnswerTemplate frames inventory rows for final answer generation.
// Verbatim rows go in so the model cannot invent numbers.
const directAnswerTemplate = `You are a helpful assistant for a Turkish cosmetics shop. Answer in Turkish.
Based on the following data:

%s

Question: %s

Answer using only the data above. If the data is empty, say the products could not be found. Answer:`

// Semantic answer templates, one per granularity. The wording steers how
// the model treats the context; the context structure is identical.
const (
	semanticSpecificTemplate = `You are a helpful assistant for a Turkish cosmetics shop. Answer in Turkish.
Use the detailed product data below to answer the customer's question about this product.

%s

Question: %s

Answer:`

	semanticCategoryTemplate = `You are a helpful assistant for a Turkish cosmetics shop. Answer in Turkish.
The customer is asking about products in this category. Recommend from the products below and mention prices.

%s

Question: %s

Answer:`

	semanticGenericTemplate = `You are a helpful assistant for a Turkish cosmetics shop. Answer in Turkish.
Use the comprehensive product data below to answer the customer's question.

%s

Question: %s

Answer:`
)

// nonRAGTemplate answers general cosmetics questions without catalog data.
// The safety clause keeps the model away from medical territory.
const nonRAGTemplate = `You are an expert on cosmetics, skin care and hair care for a Turkish shop. Answer in Turkish.
Answer the customer's general question helpfully and concisely. Do not give
medical diagnoses or risky life-impacting advice; for health concerns,
recommend consulting a professional.

Question: %s

Answer:`

// semanticTemplateFor returns the answer template matching a granularity.
func semanticTemplateFor(g Granularity) string {
	switch g {
	case GranularitySpecificItem:
		return semanticSpecificTemplate
	case GranularityCategory:
		return semanticCategoryTemplate
	default:
		return semanticGenericTemplate
	}
}

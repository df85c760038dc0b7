// Package retrieval finds catalog entries relevant to a conversational
// query by embedding the query and running a similarity search over the
// catalog's embedding table.
//
// Failure policy, which callers depend on for safety: Search never
// returns an error. A provider outage, a store failure, and a genuinely
// empty catalog all produce the same empty result, and an empty result
// means "no relevant product found" — the caller must route to the human
// referral fallback, never synthesize an answer.
package retrieval

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/eokafor/go-pharmacy-backend/internal/embedding"
	"github.com/eokafor/go-pharmacy-backend/internal/observability"
	"github.com/eokafor/go-pharmacy-backend/internal/repo"
)

// Defaults applied when Index options are zero.
const (
	DefaultTopK      = 10
	DefaultThreshold = 0.5
)

// Query is the structured query assembled from the conversation. Only
// UserQuery is expected; the rest refine the search when present.
type Query struct {
	UserQuery   string
	ProductName string
	Symptom     string
	Notes       string
}

// Match is one retrieval hit mapped to the fields the agent consumes.
type Match struct {
	ContentID string `json:"content_id"`
	Content   string `json:"content"`
}

// Matcher is the similarity-search primitive the index runs against.
// repo.MatchEmbeddings is the production implementation.
type Matcher func(ctx context.Context, vector []float32, threshold float64, topK int) ([]repo.EmbeddingMatch, error)

// Index performs embedding-based retrieval over the catalog.
type Index struct {
	provider  embedding.Provider
	match     Matcher
	threshold float64
	topK      int
}

// NewIndex builds an Index. Zero threshold/topK fall back to defaults.
func NewIndex(provider embedding.Provider, match Matcher, threshold float64, topK int) *Index {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Index{provider: provider, match: match, threshold: threshold, topK: topK}
}

// BuildQueryText concatenates the non-empty query parts with fixed
// connective phrases into the single string that gets embedded.
func BuildQueryText(q Query) string {
	var parts []string
	if s := strings.TrimSpace(q.UserQuery); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimSpace(q.ProductName); s != "" {
		parts = append(parts, "about "+s)
	}
	if s := strings.TrimSpace(q.Symptom); s != "" {
		parts = append(parts, "related to "+s)
	}
	if s := strings.TrimSpace(q.Notes); s != "" {
		parts = append(parts, "note: "+s)
	}
	return strings.Join(parts, " ")
}

// Search embeds the query and returns matches ranked best-first, capped
// at the configured top-k and filtered by the similarity threshold. Hits
// lacking an id or content are dropped. It never returns an error; see
// the package comment for why.
func (ix *Index) Search(ctx context.Context, q Query) []Match {
	ctx, span := otel.Tracer("retrieval").Start(ctx, "Index.Search")
	defer span.End()

	text := BuildQueryText(q)
	if text == "" {
		return nil
	}

	vec, err := ix.provider.Embed(ctx, text)
	if err != nil {
		log.Warn().Err(err).Msg("retrieval: embedding failed, returning no matches")
		observability.RetrievalSearches.WithLabelValues("embed_error").Inc()
		return nil
	}

	hits, err := ix.match(ctx, vec, ix.threshold, ix.topK)
	if err != nil {
		log.Warn().Err(err).Msg("retrieval: similarity search failed, returning no matches")
		observability.RetrievalSearches.WithLabelValues("match_error").Inc()
		return nil
	}

	out := make([]Match, 0, len(hits))
	for _, h := range hits {
		if h.ParentRowID == "" || h.Content == "" {
			continue
		}
		out = append(out, Match{ContentID: h.ParentRowID, Content: h.Content})
	}

	span.SetAttributes(attribute.Int("retrieval.matches", len(out)))
	if len(out) == 0 {
		observability.RetrievalSearches.WithLabelValues("miss").Inc()
	} else {
		observability.RetrievalSearches.WithLabelValues("hit").Inc()
	}
	return out
}

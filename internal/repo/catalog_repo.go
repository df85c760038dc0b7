// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the catalog and embedding tables
// consumed by retrieval. Ingestion from the external spreadsheet source
// happens out of process; this backend only upserts (for seeding and
// tests) and matches.
package repo

import (
	"context"
	"encoding/json"
	"math"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/eokafor/go-pharmacy-backend/internal/domain"
)

// EmbeddingMatch is one similarity-search hit.
type EmbeddingMatch struct {
	ParentRowID string
	Content     string
	Similarity  float64
}

// UpsertCatalogEntry writes or replaces a catalog row and its embedding
// in one transaction, keyed by the external row id.
func UpsertCatalogEntry(ctx context.Context, db *gorm.DB, rowID, payload, content string, vector []float32) error {
	vec, err := json.Marshal(vector)
	if err != nil {
		return err
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry := domain.CatalogEntry{ID: rowID, Payload: payload}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "row_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).Create(&entry).Error; err != nil {
			return err
		}
		emb := domain.CatalogEmbedding{ParentRowID: rowID, Content: content, Vector: string(vec)}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "parent_row_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"content", "vector", "updated_at"}),
		}).Create(&emb).Error
	})
}

// GetCatalogPayload returns the opaque payload of one catalog row.
func GetCatalogPayload(ctx context.Context, db *gorm.DB, rowID string) (string, error) {
	var e domain.CatalogEntry
	if err := db.WithContext(ctx).Where("row_id = ?", rowID).First(&e).Error; err != nil {
		return "", err
	}
	return e.Payload, nil
}

// MatchEmbeddings ranks catalog embeddings by cosine similarity against
// the query vector and returns at most topK hits at or above threshold,
// best first. Ranking is computed and sorted here, so descending order
// is a guarantee of this store, not an assumption about it.
//
// Vectors of a different dimension than the query are skipped; a catalog
// rebuilt at a new width degrades to no matches rather than bad ones.
func MatchEmbeddings(ctx context.Context, db *gorm.DB, query []float32, threshold float64, topK int) ([]EmbeddingMatch, error) {
	var rows []domain.CatalogEmbedding
	if err := db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]EmbeddingMatch, 0, topK)
	for _, row := range rows {
		var vec []float32
		if err := json.Unmarshal([]byte(row.Vector), &vec); err != nil {
			continue
		}
		if len(vec) != len(query) {
			continue
		}
		sim := cosineSimilarity(query, vec)
		if sim >= threshold {
			out = append(out, EmbeddingMatch{
				ParentRowID: row.ParentRowID,
				Content:     row.Content,
				Similarity:  sim,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

// cosineSimilarity computes the cosine of the angle between two equal-
// length vectors; zero-magnitude vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

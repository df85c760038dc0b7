package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/eokafor/go-pharmacy-backend/internal/repo"
)

type fakeProvider struct {
	vec []float32
	err error
}

func (f *fakeProvider) Embed(context.Context, string) ([]float32, error) { return f.vec, f.err }
func (f *fakeProvider) Dimensions() int                                  { return len(f.vec) }

func staticMatcher(hits []repo.EmbeddingMatch, err error) Matcher {
	return func(context.Context, []float32, float64, int) ([]repo.EmbeddingMatch, error) {
		return hits, err
	}
}

func TestBuildQueryText(t *testing.T) {
	cases := []struct {
		name string
		q    Query
		want string
	}{
		{"empty", Query{}, ""},
		{"user query only", Query{UserQuery: "something for headaches"}, "something for headaches"},
		{
			"all parts",
			Query{UserQuery: "need a painkiller", ProductName: "Paracetamol", Symptom: "headache", Notes: "prefers tablets"},
			"need a painkiller about Paracetamol related to headache note: prefers tablets",
		},
		{"whitespace trimmed", Query{UserQuery: "  hi  ", ProductName: "  "}, "hi"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := BuildQueryText(tc.q); got != tc.want {
				t.Fatalf("BuildQueryText = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSearch_MapsHits(t *testing.T) {
	ix := NewIndex(&fakeProvider{vec: []float32{1, 0}}, staticMatcher([]repo.EmbeddingMatch{
		{ParentRowID: "row-1", Content: "Paracetamol 500mg", Similarity: 0.95},
		{ParentRowID: "row-2", Content: "Ibuprofen 200mg", Similarity: 0.7},
	}, nil), 0.5, 10)

	got := ix.Search(context.Background(), Query{UserQuery: "painkillers"})
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ContentID != "row-1" || got[0].Content != "Paracetamol 500mg" {
		t.Fatalf("first match = %+v", got[0])
	}
}

func TestSearch_DropsHitsMissingIDOrContent(t *testing.T) {
	ix := NewIndex(&fakeProvider{vec: []float32{1, 0}}, staticMatcher([]repo.EmbeddingMatch{
		{ParentRowID: "", Content: "orphan"},
		{ParentRowID: "row-2", Content: ""},
		{ParentRowID: "row-3", Content: "keep me"},
	}, nil), 0.5, 10)

	got := ix.Search(context.Background(), Query{UserQuery: "q"})
	if len(got) != 1 || got[0].ContentID != "row-3" {
		t.Fatalf("got %+v, want the single complete hit", got)
	}
}

// Search must degrade to "no matches" on any failure, never surface an
// error or panic: the caller's fallback is a human referral.
func TestSearch_NeverFails(t *testing.T) {
	t.Run("provider failure", func(t *testing.T) {
		ix := NewIndex(&fakeProvider{err: errors.New("provider down")}, staticMatcher(nil, nil), 0.5, 10)
		if got := ix.Search(context.Background(), Query{UserQuery: "q"}); got != nil {
			t.Fatalf("got %v, want nil", got)
		}
	})
	t.Run("store failure", func(t *testing.T) {
		ix := NewIndex(&fakeProvider{vec: []float32{1}}, staticMatcher(nil, errors.New("db gone")), 0.5, 10)
		if got := ix.Search(context.Background(), Query{UserQuery: "q"}); got != nil {
			t.Fatalf("got %v, want nil", got)
		}
	})
	t.Run("empty query", func(t *testing.T) {
		ix := NewIndex(&fakeProvider{vec: []float32{1}}, staticMatcher(nil, nil), 0.5, 10)
		if got := ix.Search(context.Background(), Query{}); got != nil {
			t.Fatalf("got %v, want nil", got)
		}
	})
}

func TestNewIndex_Defaults(t *testing.T) {
	ix := NewIndex(&fakeProvider{}, staticMatcher(nil, nil), 0, 0)
	if ix.threshold != DefaultThreshold {
		t.Fatalf("threshold = %v, want %v", ix.threshold, DefaultThreshold)
	}
	if ix.topK != DefaultTopK {
		t.Fatalf("topK = %d, want %d", ix.topK, DefaultTopK)
	}
}

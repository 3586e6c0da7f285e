package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kalambet/shopbot/internal/intent"
)

// keywordVectors embeds text as a 4-dim bag of marker words so tests can
// reason about cosine scores without a model.
func keywordVectors(_ context.Context, _ string, text string) ([]float32, error) {
	v := make([]float32, 4)
	for _, w := range strings.Fields(text) {
		switch w {
		case "laptop", "laptops":
			v[0]++
		case "order":
			v[1]++
		case "hello", "hi":
			v[2]++
		case "ultrabook":
			v[3]++
		}
	}
	return v, nil
}

var testExemplars = []intent.Exemplar{
	{Intent: intent.ProductSearch, Text: "show me laptops"},
	{Intent: intent.OrderStatus, Text: "where is my order"},
	{Intent: intent.Greeting, Text: "hello"},
}

func TestMatch_BeforeWarmup(t *testing.T) {
	m := NewExemplarMatcher(NewEmbedder(&mockEngine{embedFn: keywordVectors}, "m"), nil, testExemplars)
	if _, err := m.Match(context.Background(), "laptop"); !errors.Is(err, ErrNotWarm) {
		t.Fatalf("err = %v, want ErrNotWarm", err)
	}
}

func TestMatch_CuratedBest(t *testing.T) {
	m := NewExemplarMatcher(NewEmbedder(&mockEngine{embedFn: keywordVectors}, "m"), nil, testExemplars)
	if err := m.Warmup(context.Background()); err != nil {
		t.Fatalf("Warmup: %v", err)
	}

	got, err := m.Match(context.Background(), "any laptops for me")
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if got.Intent != intent.ProductSearch || got.Exemplar != "show me laptops" {
		t.Errorf("Match = %+v, want product_search", got)
	}
	if got.Score < 0.99 {
		t.Errorf("Score = %v, want ~1", got.Score)
	}

	got, _ = m.Match(context.Background(), "purple")
	if got.Intent != intent.Unknown || got.Score != 0 {
		t.Errorf("Match(no overlap) = %+v, want unknown/0", got)
	}
}

func TestMatch_LearnedStoreWins(t *testing.T) {
	ctx := context.Background()
	store := NewSQLiteStore(openTestDB(t))
	store.Insert(ctx, []Record{{ID: "l1", Intent: intent.ProductSearch, Text: "ultrabook", Embedding: []float32{0, 0, 0, 1}}})

	m := NewExemplarMatcher(NewEmbedder(&mockEngine{embedFn: keywordVectors}, "m"), store, testExemplars)
	if err := m.Warmup(ctx); err != nil {
		t.Fatalf("Warmup: %v", err)
	}
	got, err := m.Match(ctx, "ultrabook please")
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if got.Intent != intent.ProductSearch || got.Exemplar != "ultrabook" {
		t.Errorf("Match = %+v, want learned exemplar", got)
	}
}

func TestWarmup_EmbedOnce(t *testing.T) {
	mock := &mockEngine{embedFn: keywordVectors}
	m := NewExemplarMatcher(NewEmbedder(mock, "m"), nil, testExemplars)
	m.Warmup(context.Background())
	m.Warmup(context.Background())
	if len(mock.texts) != len(testExemplars) {
		t.Errorf("engine called %d times, want %d", len(mock.texts), len(testExemplars))
	}
}

func TestWarmup_Failure(t *testing.T) {
	mock := &mockEngine{embedFn: func(_ context.Context, _ string, _ string) ([]float32, error) {
		return nil, errors.New("down")
	}}
	m := NewExemplarMatcher(NewEmbedder(mock, "m"), nil, testExemplars)
	if err := m.Warmup(context.Background()); err == nil {
		t.Fatal("expected warmup error")
	}
	if _, err := m.Match(context.Background(), "hi"); !errors.Is(err, ErrNotWarm) {
		t.Errorf("Match after failed warmup = %v, want ErrNotWarm", err)
	}
}

func TestMatch_DegradesClassifier(t *testing.T) {
	fail := false
	mock := &mockEngine{embedFn: func(ctx context.Context, model, text string) ([]float32, error) {
		if fail {
			return nil, errors.New("engine stopped")
		}
		return keywordVectors(ctx, model, text)
	}}
	m := NewExemplarMatcher(NewEmbedder(mock, "m"), nil, testExemplars)
	c := intent.NewClassifier(intent.WithMatcher(m))
	if err := c.Warmup(context.Background()); err != nil {
		t.Fatalf("Warmup: %v", err)
	}
	if got := c.Classify(context.Background(), "hi"); got.Source != intent.SourceSemantic {
		t.Errorf("Classify(hi) = %+v, want semantic", got)
	}
	fail = true
	got := c.Classify(context.Background(), "hi")
	if got.Intent != intent.Greeting || got.Source != intent.SourceKeyword {
		t.Errorf("degraded Classify(hi) = %+v, want greeting via keyword", got)
	}
}

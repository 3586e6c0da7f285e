package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/kalambet/shopbot/internal/engine"
)

// mockEngine implements engine.Engine for testing.
type mockEngine struct {
	embedFn func(ctx context.Context, model string, text string) ([]float32, error)

	mu    sync.Mutex
	texts []string
}

func (m *mockEngine) Embed(ctx context.Context, model string, text string) ([]float32, error) {
	m.mu.Lock()
	m.texts = append(m.texts, text)
	m.mu.Unlock()
	return m.embedFn(ctx, model, text)
}
func (m *mockEngine) IsRunning(_ context.Context) bool          { return true }
func (m *mockEngine) HasModel(_ context.Context, _ string) bool { return true }
func (m *mockEngine) PullModel(_ context.Context, _ string, _ func(engine.PullProgress)) error {
	return fmt.Errorf("not implemented")
}

func makeVector(dim int) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = float32(i) * 0.001
	}
	return v
}

func TestEmbed_ReturnsDimension(t *testing.T) {
	mock := &mockEngine{
		embedFn: func(_ context.Context, _ string, _ string) ([]float32, error) {
			return makeVector(384), nil
		},
	}
	vec, err := NewEmbedder(mock, "nomic-embed-text").Embed(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 384 {
		t.Errorf("len = %d, want 384", len(vec))
	}
}

func TestEmbed_Normalizes(t *testing.T) {
	mock := &mockEngine{
		embedFn: func(_ context.Context, _ string, _ string) ([]float32, error) { return []float32{1}, nil },
	}
	if _, err := NewEmbedder(mock, "m").Embed(context.Background(), "  Show ME\tLaptops "); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if mock.texts[0] != "show me laptops" {
		t.Errorf("embedded %q, want normalized text", mock.texts[0])
	}
}

func TestEmbed_EmptyText(t *testing.T) {
	mock := &mockEngine{
		embedFn: func(_ context.Context, _ string, _ string) ([]float32, error) { return []float32{1}, nil },
	}
	_, err := NewEmbedder(mock, "m").Embed(context.Background(), "   ")
	if !errors.Is(err, ErrEmptyText) {
		t.Fatalf("err = %v, want ErrEmptyText", err)
	}
	if len(mock.texts) != 0 {
		t.Error("engine should not be called for blank input")
	}
}

func TestEmbed_EngineError(t *testing.T) {
	mock := &mockEngine{
		embedFn: func(_ context.Context, _ string, _ string) ([]float32, error) {
			return nil, errors.New("connection refused")
		},
	}
	_, err := NewEmbedder(mock, "m").Embed(context.Background(), "hello")
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("err = %v, want wrapped engine error", err)
	}
}

func TestEmbedBatch_PreservesOrder(t *testing.T) {
	mock := &mockEngine{
		embedFn: func(_ context.Context, _ string, text string) ([]float32, error) {
			return []float32{float32(len(text))}, nil
		},
	}
	texts := []string{"a", "bb", "ccc", "dddd", "eeeee", "ffffff"}
	vecs, err := NewEmbedder(mock, "m").EmbedBatch(context.Background(), texts)
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	for i, v := range vecs {
		if int(v[0]) != len(texts[i]) {
			t.Errorf("vecs[%d] = %v, want %d", i, v, len(texts[i]))
		}
	}
}

func TestEmbedBatch_EngineError(t *testing.T) {
	mock := &mockEngine{
		embedFn: func(_ context.Context, _ string, text string) ([]float32, error) {
			if text == "bad" {
				return nil, errors.New("boom")
			}
			return []float32{1}, nil
		},
	}
	if _, err := NewEmbedder(mock, "m").EmbedBatch(context.Background(), []string{"ok", "bad", "fine"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestEmbedBatch_EmptyInput(t *testing.T) {
	mock := &mockEngine{embedFn: func(_ context.Context, _ string, _ string) ([]float32, error) { return nil, nil }}
	vecs, err := NewEmbedder(mock, "m").EmbedBatch(context.Background(), nil)
	if err != nil || vecs != nil {
		t.Errorf("EmbedBatch(nil) = %v, %v; want nil, nil", vecs, err)
	}
}

package embeddings

import (
	"context"
	"sync"
	"sync/atomic"
)

// fakeModel returns vectors of length dim filled with the text length.
type fakeModel struct {
	dim    int
	embeds atomic.Int32
	closed atomic.Bool
	err    error

	mu    sync.Mutex
	texts [][]string
}

func (m *fakeModel) Embed(_ context.Context, texts []string) ([][]float32, error) {
	m.embeds.Add(1)
	m.mu.Lock()
	m.texts = append(m.texts, texts)
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, m.dim)
		for j := range vec {
			vec[j] = float32(len(text))
		}
		out[i] = vec
	}
	return out, nil
}

func (m *fakeModel) Dimension() int { return m.dim }

func (m *fakeModel) Close() error {
	m.closed.Store(true)
	return nil
}

// fakeLoader counts calls and returns model or the next queued error.
type fakeLoader struct {
	model *fakeModel
	calls atomic.Int32

	mu    sync.Mutex
	errs  []error
	specs []ModelSpec

	// gate, when set, blocks loads until closed.
	gate chan struct{}
}

func newFakeLoader(dim int) *fakeLoader {
	return &fakeLoader{model: &fakeModel{dim: dim}}
}

func (l *fakeLoader) failNext(errs ...error) {
	l.mu.Lock()
	l.errs = append(l.errs, errs...)
	l.mu.Unlock()
}

func (l *fakeLoader) load(ctx context.Context, spec ModelSpec) (Model, error) {
	l.calls.Add(1)
	if l.gate != nil {
		select {
		case <-l.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.specs = append(l.specs, spec)
	if len(l.errs) > 0 {
		err := l.errs[0]
		l.errs = l.errs[1:]
		return nil, err
	}
	return l.model, nil
}

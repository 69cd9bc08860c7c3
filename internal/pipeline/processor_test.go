package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Venkatesh01777/Personal-Finance-Assistant/constants"
	"github.com/Venkatesh01777/Personal-Finance-Assistant/internal/common"
	"github.com/Venkatesh01777/Personal-Finance-Assistant/internal/entity"
	"github.com/Venkatesh01777/Personal-Finance-Assistant/internal/normalize"
)

type fakeVision struct {
	configured bool
	res        *entity.ExtractionResult
	err        error
	calls      int
}

func (f *fakeVision) Configured() bool { return f.configured }
func (f *fakeVision) Extract(context.Context, string, string) (*entity.ExtractionResult, error) {
	f.calls++
	return f.res, f.err
}

type fakeHeuristic struct {
	res   *entity.ExtractionResult
	err   error
	calls int
}

func (f *fakeHeuristic) Extract(context.Context, []string) (*entity.ExtractionResult, error) {
	f.calls++
	return f.res, f.err
}

type fakeNormalizer struct {
	out *normalize.Output
	err error
}

func (f *fakeNormalizer) Normalize(context.Context, string, string) (*normalize.Output, error) {
	return f.out, f.err
}

// memDocs is an in-memory DocumentRepository for orchestrator tests.
type memDocs struct {
	mu   sync.Mutex
	docs map[uuid.UUID]*entity.ReceiptDocument
}

func newMemDocs() *memDocs { return &memDocs{docs: map[uuid.UUID]*entity.ReceiptDocument{}} }

func (m *memDocs) add(attempts int) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New()
	m.docs[id] = &entity.ReceiptDocument{
		ID:         id,
		SourcePath: "receipt.png",
		MimeType:   "image/png",
		FileSize:   1024,
		Status:     constants.DocStatusUploaded,
		Attempts:   attempts,
	}
	return id
}

func (m *memDocs) Create(_ context.Context, path, mime string, size int64) (*entity.ReceiptDocument, error) {
	id := m.add(0)
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.docs[id]
	d.SourcePath, d.MimeType, d.FileSize = path, mime, size
	return d, nil
}

func (m *memDocs) GetByID(_ context.Context, id uuid.UUID) (*entity.ReceiptDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *memDocs) SetStatus(_ context.Context, id uuid.UUID, st constants.DocStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[id].Status = st
	return nil
}

func (m *memDocs) SaveResult(_ context.Context, id uuid.UUID, st constants.DocStatus, res *entity.ExtractionResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[id].Status = st
	m.docs[id].Result = res
	return nil
}

func (m *memDocs) RecordFailure(_ context.Context, id uuid.UUID, msg string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.docs[id]
	d.Status = constants.DocStatusFailed
	d.Attempts++
	d.LastError = &entity.LastError{Message: msg}
	return d.Attempts, nil
}

func (m *memDocs) ResetForReprocess(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.docs[id]
	d.Status = constants.DocStatusUploaded
	d.Attempts = 0
	d.LastError = nil
	d.Result = nil
	return nil
}

func (m *memDocs) ListByStatus(_ context.Context, st constants.DocStatus) ([]*entity.ReceiptDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.ReceiptDocument
	for _, d := range m.docs {
		if d.Status == st {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memDocs) Close() error { return nil }

func pages() *normalize.Output {
	return &normalize.Output{Pages: []string{"page-1.png"}, MimeType: "image/png"}
}

func visionResult(overall float32) *entity.ExtractionResult {
	return &entity.ExtractionResult{Method: constants.MethodVision, OverallConfidence: overall}
}

func heuristicResult(overall float32) *entity.ExtractionResult {
	return &entity.ExtractionResult{Method: constants.MethodHeuristic, OverallConfidence: overall}
}

func TestProcessVisionAccepted(t *testing.T) {
	docs := newMemDocs()
	id := docs.add(0)
	v := &fakeVision{configured: true, res: visionResult(0.8)}
	h := &fakeHeuristic{res: heuristicResult(0.4)}
	p := NewProcessor(Config{}, &fakeNormalizer{out: pages()}, v, h, docs, nil)

	res, err := p.Process(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, constants.MethodVision, res.Method)
	assert.Equal(t, 0, h.calls, "heuristic must not run when vision is accepted")

	d, _ := docs.GetByID(context.Background(), id)
	assert.Equal(t, constants.DocStatusProcessed, d.Status)
	assert.Equal(t, 0, d.Attempts, "success does not consume an attempt")
	require.NotNil(t, d.Result)
	assert.Equal(t, constants.MethodVision, d.Result.Method)
}

func TestProcessVisionBelowThresholdFallsBack(t *testing.T) {
	docs := newMemDocs()
	id := docs.add(0)
	v := &fakeVision{configured: true, res: visionResult(0.3)}
	h := &fakeHeuristic{res: heuristicResult(0.6)}
	p := NewProcessor(Config{}, &fakeNormalizer{out: pages()}, v, h, docs, nil)

	res, err := p.Process(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, constants.MethodHeuristic, res.Method)
	assert.Equal(t, 1, v.calls)
	assert.Equal(t, 1, h.calls)
}

func TestProcessVisionErrorFallsBack(t *testing.T) {
	docs := newMemDocs()
	id := docs.add(0)
	v := &fakeVision{configured: true, err: errors.New("503")}
	h := &fakeHeuristic{res: heuristicResult(0.2)}
	p := NewProcessor(Config{}, &fakeNormalizer{out: pages()}, v, h, docs, nil)

	res, err := p.Process(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, constants.MethodHeuristic, res.Method)

	d, _ := docs.GetByID(context.Background(), id)
	assert.Equal(t, constants.DocStatusProcessed, d.Status,
		"a weak heuristic result is still a processed document")
}

func TestProcessUnconfiguredVisionUsesHeuristic(t *testing.T) {
	docs := newMemDocs()
	id := docs.add(0)
	v := &fakeVision{configured: false}
	h := &fakeHeuristic{res: heuristicResult(0.6)}
	p := NewProcessor(Config{}, &fakeNormalizer{out: pages()}, v, h, docs, nil)

	res, err := p.Process(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, constants.MethodHeuristic, res.Method)
	assert.Equal(t, 0, v.calls)
}

func TestProcessHeuristicOnlyMode(t *testing.T) {
	docs := newMemDocs()
	id := docs.add(0)
	v := &fakeVision{configured: true, res: visionResult(0.9)}
	h := &fakeHeuristic{res: heuristicResult(0.5)}
	p := NewProcessor(Config{Method: constants.ExtractionHeuristic},
		&fakeNormalizer{out: pages()}, v, h, docs, nil)

	res, err := p.Process(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, constants.MethodHeuristic, res.Method)
	assert.Equal(t, 0, v.calls)
}

func TestProcessVisionOnlyModeKeepsWeakResult(t *testing.T) {
	docs := newMemDocs()
	id := docs.add(0)
	v := &fakeVision{configured: true, res: visionResult(0.2)}
	h := &fakeHeuristic{res: heuristicResult(0.9)}
	p := NewProcessor(Config{Method: constants.ExtractionVision},
		&fakeNormalizer{out: pages()}, v, h, docs, nil)

	res, err := p.Process(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, constants.MethodVision, res.Method)
	assert.Equal(t, 0, h.calls)
}

func TestProcessAllTiersFail(t *testing.T) {
	docs := newMemDocs()
	id := docs.add(0)
	v := &fakeVision{configured: true, err: errors.New("503")}
	h := &fakeHeuristic{err: errors.New("tesseract missing")}
	p := NewProcessor(Config{}, &fakeNormalizer{out: pages()}, v, h, docs, nil)

	res, err := p.Process(context.Background(), id)
	require.Error(t, err)
	require.NotNil(t, res, "callers still get an attributable error result")
	assert.Equal(t, constants.MethodError, res.Method)
	assert.NotEmpty(t, res.Error)

	d, _ := docs.GetByID(context.Background(), id)
	assert.Equal(t, constants.DocStatusFailed, d.Status)
	assert.Equal(t, 1, d.Attempts)
	require.NotNil(t, d.LastError)
}

func TestProcessUnsupportedInputIsFatal(t *testing.T) {
	docs := newMemDocs()
	id := docs.add(0)
	n := &fakeNormalizer{err: common.ErrUnsupportedInput}
	p := NewProcessor(Config{}, n, &fakeVision{}, &fakeHeuristic{}, docs, nil)

	_, err := p.Process(context.Background(), id)
	require.Error(t, err)
	assert.True(t, IsFatalInput(err))

	d, _ := docs.GetByID(context.Background(), id)
	assert.Equal(t, constants.DocStatusFailed, d.Status)
	assert.Equal(t, 1, d.Attempts)
}

func TestProcessRefusesAtAttemptCap(t *testing.T) {
	docs := newMemDocs()
	id := docs.add(constants.MaxAttempts)
	h := &fakeHeuristic{res: heuristicResult(0.9)}
	p := NewProcessor(Config{}, &fakeNormalizer{out: pages()}, &fakeVision{}, h, docs, nil)

	_, err := p.Process(context.Background(), id)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrAttemptsExhausted)
	assert.Equal(t, 0, h.calls)
}

func TestReprocessResetsAndRuns(t *testing.T) {
	docs := newMemDocs()
	id := docs.add(constants.MaxAttempts)
	docs.docs[id].Status = constants.DocStatusFailed
	docs.docs[id].LastError = &entity.LastError{Message: "old"}
	h := &fakeHeuristic{res: heuristicResult(0.7)}
	p := NewProcessor(Config{}, &fakeNormalizer{out: pages()}, &fakeVision{}, h, docs, nil)

	res, err := p.Reprocess(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, constants.MethodHeuristic, res.Method)

	d, _ := docs.GetByID(context.Background(), id)
	assert.Equal(t, constants.DocStatusProcessed, d.Status)
	assert.Equal(t, 0, d.Attempts)
	assert.Nil(t, d.LastError)
}

func TestProcessUnknownDocument(t *testing.T) {
	p := NewProcessor(Config{}, &fakeNormalizer{out: pages()}, &fakeVision{}, &fakeHeuristic{}, newMemDocs(), nil)
	_, err := p.Process(context.Background(), uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestQueueProcessesAndDrains(t *testing.T) {
	docs := newMemDocs()
	h := &fakeHeuristic{res: heuristicResult(0.6)}
	p := NewProcessor(Config{}, &fakeNormalizer{out: pages()}, &fakeVision{}, h, docs, nil)
	q := NewQueue(p, nil, WithWorkers(2), WithQueueSize(8))

	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		ids = append(ids, docs.add(0))
	}
	for _, id := range ids {
		require.NoError(t, q.Enqueue(context.Background(), Job{DocID: id}))
	}
	q.Shutdown(context.Background())

	processed, _ := docs.ListByStatus(context.Background(), constants.DocStatusProcessed)
	assert.Len(t, processed, 5)
}

// ABOUTME: Tests for the HTTP front end using httptest and a fake engine
// ABOUTME: Covers routing, validation, tagged answers and request ids
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/biorag/internal/models"
	"github.com/harper/biorag/internal/rag"
)

type fakeEngine struct {
	mu       sync.Mutex
	active   int
	maxSeen  int
	answer   models.Answer
	results  []models.SearchResult
	addErr   error
	added    []models.Metadata
	saved    []string
	lastK    int
	lastUser string
}

func (f *fakeEngine) enter() func() {
	f.mu.Lock()
	f.active++
	if f.active > f.maxSeen {
		f.maxSeen = f.active
	}
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		f.active--
		f.mu.Unlock()
	}
}

func (f *fakeEngine) Answer(ctx context.Context, question string) models.Answer {
	defer f.enter()()
	return f.answer
}

func (f *fakeEngine) Search(ctx context.Context, question string, k int) ([]models.SearchResult, error) {
	defer f.enter()()
	f.lastK = k
	return f.results, nil
}

func (f *fakeEngine) Generate(ctx context.Context, system, user string) (string, error) {
	f.lastUser = user
	return "research plan", nil
}

func (f *fakeEngine) AddDocument(ctx context.Context, text string, metadata models.Metadata) (int, error) {
	if f.addErr != nil {
		return 0, f.addErr
	}
	f.added = append(f.added, metadata)
	return 2, nil
}

func (f *fakeEngine) Save(path string) error {
	f.saved = append(f.saved, path)
	return nil
}

func (f *fakeEngine) Stats() rag.Stats {
	return rag.Stats{Chunks: 4, Embeddings: 4, Sources: 2, GenerationModel: "gpt-4o-mini"}
}

func newTestServer(t *testing.T, eng *fakeEngine, snapshot string) http.Handler {
	t.Helper()
	s, err := New(Config{ListenAddr: "127.0.0.1:0", SnapshotPath: snapshot}, eng, nil)
	require.NoError(t, err)
	return s.Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{}, &fakeEngine{}, nil)
	assert.Error(t, err)
	_, err = New(Config{ListenAddr: ":0"}, nil, nil)
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, &fakeEngine{}, "")
	rec := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestRequestID_Propagated(t *testing.T) {
	h := newTestServer(t, &fakeEngine{answer: models.Success("x")}, "")
	req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(`{"question":"q"}`))
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
	assert.Equal(t, "abc-123", decodeBody(t, rec)["request_id"])
}

func TestStats(t *testing.T) {
	h := newTestServer(t, &fakeEngine{}, "")
	rec := do(t, h, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(4), body["chunks"])
	assert.Equal(t, "gpt-4o-mini", body["generation_model"])
}

func TestQuery(t *testing.T) {
	h := newTestServer(t, &fakeEngine{answer: models.Success("BRCA1 is a tumor suppressor")}, "")
	rec := do(t, h, http.MethodPost, "/api/query", `{"question":"what is BRCA1?"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "BRCA1 is a tumor suppressor", body["answer"])
	assert.NotContains(t, body, "error")
	assert.NotEmpty(t, body["request_id"])
}

func TestQuery_FailureIsTagged(t *testing.T) {
	failed := models.Failure(&models.TransientBackendError{Op: models.OpGeneration, Attempts: 3, Err: errors.New("timeout")})
	h := newTestServer(t, &fakeEngine{answer: failed}, "")
	rec := do(t, h, http.MethodPost, "/api/query", `{"question":"q"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "error", body["status"])
	assert.Contains(t, body["error"], "generation failed after 3 attempts")
	assert.NotContains(t, body, "answer")
}

func TestQuery_BadRequests(t *testing.T) {
	h := newTestServer(t, &fakeEngine{}, "")

	rec := do(t, h, http.MethodPost, "/api/query", `{"question":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No question provided", decodeBody(t, rec)["error"])

	rec = do(t, h, http.MethodPost, "/api/query", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/query", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSearch(t *testing.T) {
	eng := &fakeEngine{results: []models.SearchResult{{Index: 1, Score: 0.9, Text: "chunk"}}}
	h := newTestServer(t, eng, "")
	rec := do(t, h, http.MethodPost, "/api/search", `{"question":"q","top_k":5}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "chunk", resp.Results[0].Text)
	assert.Equal(t, 5, eng.lastK)
}

func TestResearch(t *testing.T) {
	eng := &fakeEngine{results: []models.SearchResult{{Text: "variant calling", Metadata: models.Metadata{"filename": "gatk.pdf"}}}}
	h := newTestServer(t, eng, "")

	rec := do(t, h, http.MethodPost, "/api/research", `{"topic":"variant calling","mode":"implementation"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "research plan", decodeBody(t, rec)["answer"])
	assert.Contains(t, eng.lastUser, "gatk.pdf")

	rec = do(t, h, http.MethodPost, "/api/research", `{"topic":"x","mode":"poetry"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddPaper(t *testing.T) {
	eng := &fakeEngine{}
	h := newTestServer(t, eng, "/tmp/snap.json")

	rec := do(t, h, http.MethodPost, "/api/papers", `{"title":"GATK","content":"best practices","year":"2013"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Successfully added paper: GATK", body["message"])
	assert.Equal(t, float64(2), body["chunks"])

	require.Len(t, eng.added, 1)
	assert.Equal(t, "user_upload", eng.added[0]["source"])
	assert.Equal(t, []string{"/tmp/snap.json"}, eng.saved)

	rec = do(t, h, http.MethodPost, "/api/papers", `{"title":"no content"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddPaper_FailureNotSaved(t *testing.T) {
	eng := &fakeEngine{addErr: errors.New("embedding failed")}
	h := newTestServer(t, eng, "/tmp/snap.json")

	rec := do(t, h, http.MethodPost, "/api/papers", `{"title":"t","content":"c"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, eng.saved)
}

func TestEngineAccessIsSerialized(t *testing.T) {
	eng := &fakeEngine{answer: models.Success("a")}
	h := newTestServer(t, eng, "")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			path, body := "/api/query", `{"question":"q"}`
			if i%2 == 0 {
				path = "/api/search"
			}
			do(t, h, http.MethodPost, path, body)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, eng.maxSeen)
}

func TestServe_FailureReturnedWithoutCancel(t *testing.T) {
	s, err := New(Config{ListenAddr: "127.0.0.1:0"}, &fakeEngine{}, nil)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	require.NoError(t, ln.Close())

	done := make(chan error, 1)
	go func() { done <- s.serve(context.Background(), ln) }()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "serving")
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after the listener failed")
	}
}

func TestStart_StopsOnCancel(t *testing.T) {
	s, err := New(Config{ListenAddr: "127.0.0.1:0"}, &fakeEngine{}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("start did not return after cancel")
	}
}

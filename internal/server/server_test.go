package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/blog-agent/internal/config"
	"github.com/jonathan/blog-agent/internal/db"
	"github.com/jonathan/blog-agent/internal/jobs"
)

// memStore is an in-memory Store for handler tests.
type memStore struct {
	mu        sync.Mutex
	jobs      map[uuid.UUID]*db.Job
	posts     map[uuid.UUID]*db.BlogPost // keyed by job id
	matches   []db.ChunkMatch
	createErr error
	pingErr   error
}

func newMemStore() *memStore {
	return &memStore{
		jobs:  make(map[uuid.UUID]*db.Job),
		posts: make(map[uuid.UUID]*db.BlogPost),
	}
}

func (m *memStore) CreateJob(ctx context.Context, channelName, videoTitle string, email *string) (*db.Job, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	job := &db.Job{
		ID:          uuid.New(),
		ChannelName: channelName,
		VideoTitle:  videoTitle,
		Email:       email,
		Status:      db.JobStatusQueued,
		CreatedAt:   time.Now(),
	}
	m.jobs[job.ID] = job
	return job, nil
}

func (m *memStore) GetJob(ctx context.Context, id uuid.UUID) (*db.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, nil
	}
	copied := *job
	return &copied, nil
}

func (m *memStore) ListJobs(ctx context.Context, limit int) ([]db.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []db.Job
	for _, j := range m.jobs {
		if len(list) >= limit {
			break
		}
		list = append(list, *j)
	}
	return list, nil
}

func (m *memStore) GetPostByJob(ctx context.Context, jobID uuid.UUID) (*db.BlogPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	post, ok := m.posts[jobID]
	if !ok {
		return nil, nil
	}
	return post, nil
}

func (m *memStore) SearchChunks(ctx context.Context, queryVector []float32, limit int) ([]db.ChunkMatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit > len(m.matches) {
		limit = len(m.matches)
	}
	return m.matches[:limit], nil
}

func (m *memStore) UpdateJobStatus(ctx context.Context, id uuid.UUID, status db.JobStatus, progress *int, phase *string, errMsg *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return fmt.Errorf("job %s not found", id)
	}
	job.Status = status
	if progress != nil {
		job.Progress = *progress
	}
	if phase != nil {
		job.Phase = phase
	}
	if errMsg != nil {
		job.ErrorMessage = errMsg
	}
	return nil
}

func (m *memStore) SetJobVideoID(ctx context.Context, id uuid.UUID, videoID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job, ok := m.jobs[id]; ok {
		job.VideoID = &videoID
	}
	return nil
}

func (m *memStore) Ping(ctx context.Context) error {
	return m.pingErr
}

// fakeRunner signals when the background run starts.
type fakeRunner struct {
	started chan uuid.UUID
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{started: make(chan uuid.UUID, 1)}
}

func (r *fakeRunner) Run(ctx context.Context, tracker *jobs.Tracker, job *db.Job) error {
	r.started <- job.ID
	return nil
}

type fakeEmbedder struct {
	err error
}

func (e *fakeEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type fakeSender struct {
	err  error
	sent []string
}

func (s *fakeSender) Send(ctx context.Context, to, subject, body string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, to)
	return nil
}

func newTestServer(t *testing.T, store *memStore, runner Runner, embedder QueryEmbedder, mailer Mailer, jwtCfg *config.JWTConfig) *Server {
	t.Helper()
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	return New(Config{Addr: ":0", JWT: jwtCfg}, Deps{
		Store:    store,
		Runner:   runner,
		Embedder: embedder,
		Mailer:   mailer,
	})
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestGenerateAcceptsJob(t *testing.T) {
	store := newMemStore()
	runner := newFakeRunner()
	s := newTestServer(t, store, runner, &fakeEmbedder{}, nil, nil)

	rec := doJSON(t, s.Handler(), "POST", "/generate", GenerateRequest{
		ChannelName: "TestChannel",
		VideoTitle:  "Test Video",
		Email:       "reader@example.com",
	})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var resp GenerateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, db.JobStatusQueued, resp.Status)

	select {
	case startedID := <-runner.started:
		assert.Equal(t, resp.JobID, startedID)
	case <-time.After(2 * time.Second):
		t.Fatal("runner was never started")
	}

	job, err := store.GetJob(context.Background(), resp.JobID)
	require.NoError(t, err)
	require.NotNil(t, job)
	require.NotNil(t, job.Email)
	assert.Equal(t, "reader@example.com", *job.Email)
}

func TestGenerateValidation(t *testing.T) {
	s := newTestServer(t, newMemStore(), newFakeRunner(), &fakeEmbedder{}, nil, nil)
	h := s.Handler()

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing channel", map[string]any{"video_title": "T"}},
		{"missing title", map[string]any{"channel_name": "C"}},
		{"bad email", map[string]any{"channel_name": "C", "video_title": "T", "email": "nope"}},
		{"unknown field", map[string]any{"channel_name": "C", "video_title": "T", "surprise": true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, h, "POST", "/generate", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestStatusLifecycle(t *testing.T) {
	store := newMemStore()
	s := newTestServer(t, store, newFakeRunner(), &fakeEmbedder{}, nil, nil)
	h := s.Handler()

	job, err := store.CreateJob(context.Background(), "C", "T", nil)
	require.NoError(t, err)

	t.Run("queued", func(t *testing.T) {
		rec := doJSON(t, h, "GET", "/status/"+job.ID.String(), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp StatusResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, db.JobStatusQueued, resp.Status)
		assert.Nil(t, resp.Post)
	})

	t.Run("running with phase", func(t *testing.T) {
		p := 45
		phase := "Generating blog post..."
		require.NoError(t, store.UpdateJobStatus(context.Background(), job.ID, db.JobStatusRunning, &p, &phase, nil))

		rec := doJSON(t, h, "GET", "/status/"+job.ID.String(), nil)
		var resp StatusResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 45, resp.Progress)
		assert.Equal(t, "Generating blog post...", resp.Phase)
	})

	t.Run("completed embeds post", func(t *testing.T) {
		store.mu.Lock()
		store.posts[job.ID] = &db.BlogPost{ID: uuid.New(), JobID: job.ID, Title: "T", Content: "body"}
		store.mu.Unlock()
		p := 100
		require.NoError(t, store.UpdateJobStatus(context.Background(), job.ID, db.JobStatusCompleted, &p, nil, nil))

		rec := doJSON(t, h, "GET", "/status/"+job.ID.String(), nil)
		var resp StatusResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.NotNil(t, resp.Post)
		assert.Equal(t, "body", resp.Post.Content)
	})
}

func TestStatusFailed(t *testing.T) {
	store := newMemStore()
	s := newTestServer(t, store, newFakeRunner(), &fakeEmbedder{}, nil, nil)

	job, err := store.CreateJob(context.Background(), "C", "T", nil)
	require.NoError(t, err)
	cause := "Could not find video 'T' on channel 'C'"
	require.NoError(t, store.UpdateJobStatus(context.Background(), job.ID, db.JobStatusFailed, nil, nil, &cause))

	rec := doJSON(t, s.Handler(), "GET", "/status/"+job.ID.String(), nil)
	var resp StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, db.JobStatusFailed, resp.Status)
	assert.Equal(t, cause, resp.Error)
	assert.Nil(t, resp.Post)
}

func TestStatusErrors(t *testing.T) {
	s := newTestServer(t, newMemStore(), newFakeRunner(), &fakeEmbedder{}, nil, nil)
	h := s.Handler()

	rec := doJSON(t, h, "GET", "/status/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, "GET", "/status/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestQuery(t *testing.T) {
	store := newMemStore()
	store.matches = []db.ChunkMatch{
		{PostID: uuid.New(), PostTitle: "Post A", ChunkText: "about goroutines", ChunkIndex: 0, Score: 0.93},
		{PostID: uuid.New(), PostTitle: "Post B", ChunkText: "about channels", ChunkIndex: 2, Score: 0.81},
	}
	s := newTestServer(t, store, newFakeRunner(), &fakeEmbedder{}, nil, nil)

	rec := doJSON(t, s.Handler(), "POST", "/query", QueryRequest{Query: "concurrency"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp QueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Count)
	assert.Equal(t, "Post A", resp.Results[0].PostTitle)
	assert.InDelta(t, 0.93, resp.Results[0].Score, 0.001)
}

func TestQueryValidationAndErrors(t *testing.T) {
	s := newTestServer(t, newMemStore(), newFakeRunner(), &fakeEmbedder{}, nil, nil)
	h := s.Handler()

	rec := doJSON(t, h, "POST", "/query", map[string]any{"query": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, "POST", "/query", map[string]any{"query": "x", "limit": 50})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	failing := newTestServer(t, newMemStore(), newFakeRunner(), &fakeEmbedder{err: fmt.Errorf("quota")}, nil, nil)
	rec = doJSON(t, failing.Handler(), "POST", "/query", QueryRequest{Query: "x"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestQueryEmptyIndex(t *testing.T) {
	s := newTestServer(t, newMemStore(), newFakeRunner(), &fakeEmbedder{}, nil, nil)

	rec := doJSON(t, s.Handler(), "POST", "/query", QueryRequest{Query: "anything"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp QueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Zero(t, resp.Count)
	assert.NotNil(t, resp.Results)
}

func TestSendEmail(t *testing.T) {
	sender := &fakeSender{}
	s := newTestServer(t, newMemStore(), newFakeRunner(), &fakeEmbedder{}, sender, nil)
	h := s.Handler()

	rec := doJSON(t, h, "POST", "/email/send", EmailRequest{
		To: "reader@example.com", Subject: "hi", Body: "hello",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"reader@example.com"}, sender.sent)

	rec = doJSON(t, h, "POST", "/email/send", map[string]any{"to": "bad", "subject": "s", "body": "b"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendEmailUnconfigured(t *testing.T) {
	s := newTestServer(t, newMemStore(), newFakeRunner(), &fakeEmbedder{}, nil, nil)

	rec := doJSON(t, s.Handler(), "POST", "/email/send", EmailRequest{
		To: "reader@example.com", Subject: "hi", Body: "hello",
	})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealth(t *testing.T) {
	store := newMemStore()
	s := newTestServer(t, store, newFakeRunner(), &fakeEmbedder{}, nil, nil)

	rec := doJSON(t, s.Handler(), "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	store.pingErr = fmt.Errorf("connection refused")
	rec = doJSON(t, s.Handler(), "GET", "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAuthRequiredWhenConfigured(t *testing.T) {
	jwtCfg := &config.JWTConfig{Secret: "test-secret", ExpirationHours: 1}
	s := newTestServer(t, newMemStore(), newFakeRunner(), &fakeEmbedder{}, nil, jwtCfg)
	h := s.Handler()

	rec := doJSON(t, h, "POST", "/query", QueryRequest{Query: "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Health stays open.
	rec = doJSON(t, h, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	token, err := NewJWTService(jwtCfg).GenerateToken("api-client")
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/query", bytes.NewBufferString(`{"query":"x"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, newMemStore(), newFakeRunner(), &fakeEmbedder{}, nil, nil)

	req := httptest.NewRequest("OPTIONS", "/generate", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

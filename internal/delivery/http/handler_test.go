package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/changshize/fiction-tiktok/internal/domain"
	"github.com/changshize/fiction-tiktok/internal/provider"
	provmock "github.com/changshize/fiction-tiktok/internal/provider/mock"
	mockpub "github.com/changshize/fiction-tiktok/internal/publisher/mock"
	mockrepo "github.com/changshize/fiction-tiktok/internal/repository/mock"
	"github.com/changshize/fiction-tiktok/internal/usecase"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	router  *gin.Engine
	repo    *mockrepo.JobRepository
	sources *mockrepo.SourceRepository
	cache   *mockrepo.StatusCache
	pub     *mockpub.MockPublisher
	novel   *domain.Novel
	chapter *domain.Chapter
}

type noopRemover struct{}

func (noopRemover) Remove(string) error { return nil }

func setupTestRouter() *testEnv {
	repo := mockrepo.NewJobRepository()
	sources := mockrepo.NewSourceRepository()
	cache := mockrepo.NewStatusCache()
	pub := mockpub.NewMockPublisher()
	logger := zap.NewNop()

	novel := &domain.Novel{ID: uuid.New(), Title: "The Silent Sea", Language: "en"}
	sources.SeedNovel(novel)
	chapter := &domain.Chapter{
		ID:      uuid.New(),
		NovelID: novel.ID,
		Number:  1,
		Content: "The dragon slept beneath the mountain.",
	}
	sources.SeedChapter(chapter)

	selector := provider.NewSelector(provider.Backends{
		Speech: []provider.SpeechBackend{&provmock.SpeechBackend{BackendName: "elevenlabs"}},
	})

	create := usecase.NewCreateJobUsecase(repo, sources, cache, pub, logger)
	router := NewRouter(Usecases{
		Create: create,
		Batch:  usecase.NewBatchCreateUsecase(create, sources, logger),
		Get:    usecase.NewGetJobUsecase(repo, logger),
		List:   usecase.NewListJobsUsecase(repo, logger),
		Status: usecase.NewJobStatusUsecase(repo, cache, logger),
		Reset:  usecase.NewResetJobUsecase(repo, cache, pub, logger),
		Cancel: usecase.NewCancelJobUsecase(repo, cache, logger),
		Delete: usecase.NewDeleteJobUsecase(repo, cache, noopRemover{}, logger),
		Voices: usecase.NewListVoicesUsecase(selector, logger),
	}, logger)

	return &testEnv{
		router:  router,
		repo:    repo,
		sources: sources,
		cache:   cache,
		pub:     pub,
		novel:   novel,
		chapter: chapter,
	}
}

func (e *testEnv) postJSON(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	jsonBody, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestCreateHandler_Accepted(t *testing.T) {
	env := setupTestRouter()

	w := env.postJSON(t, "/api/v1/jobs", map[string]any{
		"novel_id":   env.novel.ID,
		"capability": "illustration",
		"prompt":     "a stormy coast",
	})
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d: %s", w.Code, w.Body.String())
	}

	var resp domain.CreateJobResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.JobID == uuid.Nil {
		t.Error("expected non-empty job ID")
	}
	if resp.Status != domain.StatusPending {
		t.Errorf("expected status PENDING, got %s", resp.Status)
	}
	if len(env.pub.Published) != 1 {
		t.Errorf("expected 1 published dispatch, got %d", len(env.pub.Published))
	}
}

func TestCreateHandler_InvalidCapability(t *testing.T) {
	env := setupTestRouter()

	w := env.postJSON(t, "/api/v1/jobs", map[string]any{
		"novel_id":   env.novel.ID,
		"capability": "hologram",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCreateHandler_UnknownNovel(t *testing.T) {
	env := setupTestRouter()

	w := env.postJSON(t, "/api/v1/jobs", map[string]any{
		"novel_id":   uuid.New(),
		"capability": "audio",
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCreateHandler_MalformedBody(t *testing.T) {
	env := setupTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCreateHandler_PublishFailure(t *testing.T) {
	env := setupTestRouter()
	env.pub.PublishFn = func(ctx context.Context, dispatch *domain.JobDispatch) error {
		return errors.New("connection refused")
	}

	w := env.postJSON(t, "/api/v1/jobs", map[string]any{
		"novel_id":   env.novel.ID,
		"capability": "video",
	})
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d: %s", w.Code, w.Body.String())
	}
}

func TestBatchHandler(t *testing.T) {
	env := setupTestRouter()

	w := env.postJSON(t, "/api/v1/jobs/batch", map[string]any{
		"novel_id":     env.novel.ID,
		"capabilities": []string{"illustration", "audio"},
	})
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d: %s", w.Code, w.Body.String())
	}

	var resp domain.BatchCreateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Created != 2 {
		t.Errorf("expected 2 created (1 chapter x 2 capabilities), got %d", resp.Created)
	}
	if len(env.pub.Published) != 2 {
		t.Errorf("expected 2 published dispatches, got %d", len(env.pub.Published))
	}
}

func TestGetHandler(t *testing.T) {
	env := setupTestRouter()

	job := &domain.ContentJob{
		ID:         uuid.New(),
		NovelID:    env.novel.ID,
		Capability: domain.CapabilityIllustration,
		Status:     domain.StatusCompleted,
		Epoch:      1,
		Result:     &domain.JobResult{FilePath: "illustrations/x.png", Backend: "openai"},
	}
	env.repo.Seed(job)

	w := env.get("/api/v1/jobs/" + job.ID.String())
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var got domain.ContentJob
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to unmarshal job: %v", err)
	}
	if got.ID != job.ID {
		t.Errorf("expected job ID %s, got %s", job.ID, got.ID)
	}
	if got.Result == nil || got.Result.FilePath != "illustrations/x.png" {
		t.Errorf("expected result in response, got %+v", got.Result)
	}
}

func TestGetHandler_NotFound(t *testing.T) {
	env := setupTestRouter()

	w := env.get("/api/v1/jobs/" + uuid.NewString())
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGetHandler_InvalidUUID(t *testing.T) {
	env := setupTestRouter()

	w := env.get("/api/v1/jobs/not-a-uuid")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestListHandler_FiltersByStatus(t *testing.T) {
	env := setupTestRouter()

	env.repo.Seed(&domain.ContentJob{
		ID: uuid.New(), NovelID: env.novel.ID,
		Capability: domain.CapabilityAudio, Status: domain.StatusCompleted, Epoch: 1,
	})
	env.repo.Seed(&domain.ContentJob{
		ID: uuid.New(), NovelID: env.novel.ID,
		Capability: domain.CapabilityAudio, Status: domain.StatusPending, Epoch: 1,
	})

	w := env.get("/api/v1/jobs?status=COMPLETED")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Jobs  []*domain.ContentJob `json:"jobs"`
		Count int                  `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Count != 1 {
		t.Errorf("expected 1 job, got %d", resp.Count)
	}
	if len(resp.Jobs) == 1 && resp.Jobs[0].Status != domain.StatusCompleted {
		t.Errorf("expected COMPLETED job, got %s", resp.Jobs[0].Status)
	}
}

func TestListHandler_InvalidStatus(t *testing.T) {
	env := setupTestRouter()

	w := env.get("/api/v1/jobs?status=SLEEPING")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestListHandler_InvalidLimit(t *testing.T) {
	env := setupTestRouter()

	w := env.get("/api/v1/jobs?limit=abc")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestResetHandler(t *testing.T) {
	env := setupTestRouter()

	job := &domain.ContentJob{
		ID:          uuid.New(),
		NovelID:     env.novel.ID,
		Capability:  domain.CapabilityVideo,
		Status:      domain.StatusFailed,
		Epoch:       1,
		ErrorDetail: "video: no provider configured",
	}
	env.repo.Seed(job)

	w := env.postJSON(t, "/api/v1/jobs/"+job.ID.String()+"/reset", nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d: %s", w.Code, w.Body.String())
	}

	var resp domain.CreateJobResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Status != domain.StatusPending {
		t.Errorf("expected status PENDING, got %s", resp.Status)
	}

	if len(env.pub.Published) != 1 {
		t.Fatalf("expected 1 published dispatch, got %d", len(env.pub.Published))
	}
	if env.pub.Published[0].Epoch != 2 {
		t.Errorf("expected dispatch at epoch 2, got %d", env.pub.Published[0].Epoch)
	}
}

func TestCancelHandler(t *testing.T) {
	env := setupTestRouter()

	job := &domain.ContentJob{
		ID:         uuid.New(),
		NovelID:    env.novel.ID,
		Capability: domain.CapabilityAudio,
		Status:     domain.StatusProcessing,
		Epoch:      1,
	}
	env.repo.Seed(job)

	w := env.postJSON(t, "/api/v1/jobs/"+job.ID.String()+"/cancel", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	stored := env.repo.Get(job.ID)
	if stored.Status != domain.StatusFailed {
		t.Errorf("expected FAILED after cancel, got %s", stored.Status)
	}

	// A second cancel hits a job that is no longer PROCESSING.
	w = env.postJSON(t, "/api/v1/jobs/"+job.ID.String()+"/cancel", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("expected status 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestDeleteHandler(t *testing.T) {
	env := setupTestRouter()

	job := &domain.ContentJob{
		ID:         uuid.New(),
		NovelID:    env.novel.ID,
		Capability: domain.CapabilityIllustration,
		Status:     domain.StatusCompleted,
		Epoch:      1,
	}
	env.repo.Seed(job)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/jobs/"+job.ID.String(), nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d: %s", w.Code, w.Body.String())
	}
	if env.repo.Get(job.ID) != nil {
		t.Error("expected job removed")
	}
}

func TestStatusHandler(t *testing.T) {
	env := setupTestRouter()

	jobID := uuid.New()
	snapshot := &domain.JobStatusSnapshot{Status: domain.StatusProcessing}
	if err := env.cache.SetStatus(context.Background(), jobID, snapshot); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	w := env.get("/api/v1/jobs/" + jobID.String() + "/status")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var got domain.JobStatusSnapshot
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to unmarshal snapshot: %v", err)
	}
	if got.Status != domain.StatusProcessing {
		t.Errorf("expected PROCESSING, got %s", got.Status)
	}
}

func TestStatusHandler_NotFound(t *testing.T) {
	env := setupTestRouter()

	w := env.get("/api/v1/jobs/" + uuid.NewString() + "/status")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestVoiceHandler(t *testing.T) {
	env := setupTestRouter()

	w := env.get("/api/v1/voices")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Voices []provider.Voice `json:"voices"`
		Count  int              `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Count != 1 {
		t.Errorf("expected 1 voice, got %d", resp.Count)
	}
	if len(resp.Voices) == 1 && resp.Voices[0].Backend != "elevenlabs" {
		t.Errorf("expected elevenlabs voice, got %s", resp.Voices[0].Backend)
	}
}

func TestHealthHandler(t *testing.T) {
	logger := zap.NewNop()
	handler := NewHealthHandler(logger,
		DependencyCheck{Name: "postgres", Check: func(ctx context.Context) error { return nil }},
		DependencyCheck{Name: "redis", Check: func(ctx context.Context) error { return nil }},
	)

	router := gin.New()
	router.GET("/api/v1/health", handler.Health)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected ok, got %v", resp["status"])
	}
}

func TestHealthHandler_Degraded(t *testing.T) {
	logger := zap.NewNop()
	handler := NewHealthHandler(logger,
		DependencyCheck{Name: "postgres", Check: func(ctx context.Context) error { return nil }},
		DependencyCheck{Name: "rabbitmq", Check: func(ctx context.Context) error { return errors.New("connection refused") }},
	)

	router := gin.New()
	router.GET("/api/v1/health", handler.Health)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d: %s", w.Code, w.Body.String())
	}
}

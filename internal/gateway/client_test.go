package gateway

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"jobscout/internal/config"
	"jobscout/internal/errors"
	"jobscout/internal/types"
)

func stdAs(err error, target **errors.AppError) bool {
	return stderrors.As(err, target)
}

func jsonDecode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func makeJobs(n int) []types.Job {
	jobs := make([]types.Job, 0, n)
	for i := 0; i < n; i++ {
		jobs = append(jobs, types.Job{
			Title:   fmt.Sprintf("Role %d", i+1),
			Company: fmt.Sprintf("Company %d", i+1),
		})
	}
	return jobs
}

type staticTokens struct {
	token string
	err   error
}

func (s staticTokens) IDToken(ctx context.Context) (string, error) {
	return s.token, s.err
}

func testLogger() *errors.Logger {
	logger, _ := errors.New("error")
	return logger
}

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		Backend: config.BackendConfig{
			BaseURL:      baseURL,
			Timeout:      5 * time.Second,
			QuickTimeout: 2 * time.Second,
		},
		App: config.AppConfig{
			AnalysisJobLimit: 5,
		},
	}
}

func newTestClient(t *testing.T, handler http.Handler, opts ...Option) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(testConfig(server.URL), staticTokens{token: "test-token"}, testLogger(), opts...)
	t.Cleanup(client.Close)
	return client, server
}

type captureRecorder struct {
	mu       sync.Mutex
	backend  []string
	business map[string]int
}

func newCaptureRecorder() *captureRecorder {
	return &captureRecorder{business: make(map[string]int)}
}

func (r *captureRecorder) RecordBackendRequest(ctx context.Context, operation string, duration time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backend = append(r.backend, operation)
}

func (r *captureRecorder) RecordBusinessMetric(ctx context.Context, metricType string, success bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.business[metricType]++
}

func (r *captureRecorder) businessCount(metricType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.business[metricType]
}

func TestUnauthorizedForcesLogoutHook(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	hookFired := 0
	client, _ := newTestClient(t, handler, WithUnauthenticatedHook(func() {
		hookFired++
	}))

	_, err := client.SearchJobs(context.Background(), "golang", "Lahore", 10)
	if err == nil {
		t.Fatal("expected an error for 401 response")
	}
	if !errors.IsType(err, errors.ErrorTypeAuth) {
		t.Errorf("expected auth error, got %v", err)
	}
	if hookFired != 1 {
		t.Errorf("unauthenticated hook fired %d times, want 1", hookFired)
	}
}

func TestEmptySearchIsNotAnError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jobs": [], "total_count": 0, "query_id": "q-1"}`))
	})

	client, _ := newTestClient(t, handler)

	result, err := client.SearchJobs(context.Background(), "underwater basket weaving", "", 10)
	if err != nil {
		t.Fatalf("empty search should not error: %v", err)
	}
	if len(result.Jobs) != 0 {
		t.Errorf("expected empty job list, got %d", len(result.Jobs))
	}
	if result.QueryID != "q-1" {
		t.Errorf("query id = %q, want q-1", result.QueryID)
	}
}

func TestBackendDetailSurfacedVerbatim(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail": "Location 'Atlantis' is not supported"}`))
	})

	client, _ := newTestClient(t, handler)

	_, err := client.SearchJobs(context.Background(), "golang", "Atlantis", 10)
	if err == nil {
		t.Fatal("expected an error for 400 response")
	}

	var appErr *errors.AppError
	if !stdAs(err, &appErr) {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Type != errors.ErrorTypeBackend {
		t.Errorf("error type = %v, want backend", appErr.Type)
	}
	if appErr.Message != "Location 'Atlantis' is not supported" {
		t.Errorf("detail not surfaced verbatim: %q", appErr.Message)
	}
}

func TestServerErrorClassifiedTransient(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	client, _ := newTestClient(t, handler)

	_, err := client.Health(context.Background())
	if err == nil {
		t.Fatal("expected an error for 500 response")
	}
	if !errors.IsType(err, errors.ErrorTypeTransient) {
		t.Errorf("expected transient error, got %v", err)
	}
}

func TestUnreachableBackendClassifiedTransient(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close() // connection refused from here on

	client := NewClient(testConfig(server.URL), staticTokens{token: "test-token"}, testLogger())
	defer client.Close()

	_, err := client.Health(context.Background())
	if err == nil {
		t.Fatal("expected an error for unreachable backend")
	}
	if !errors.IsType(err, errors.ErrorTypeTransient) {
		t.Errorf("expected transient error, got %v", err)
	}
}

func TestMissingTokenFailsBeforeNetwork(t *testing.T) {
	called := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(testConfig(server.URL), staticTokens{token: ""}, testLogger())
	t.Cleanup(client.Close)

	_, err := client.SearchJobs(context.Background(), "golang", "", 10)
	if err == nil {
		t.Fatal("expected an error when no user is signed in")
	}
	if !errors.IsType(err, errors.ErrorTypeAuth) {
		t.Errorf("expected auth error, got %v", err)
	}
	if called {
		t.Error("request reached the network without a credential")
	}
}

func TestBearerTokenAttached(t *testing.T) {
	var gotAuth string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jobs": [], "total_count": 0, "query_id": ""}`))
	})

	client, _ := newTestClient(t, handler)

	if _, err := client.SearchJobs(context.Background(), "golang", "", 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("authorization header = %q, want bearer token", gotAuth)
	}
}

func TestHealthDoesNotRequireAuth(t *testing.T) {
	var gotAuth string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "healthy", "processors_initialized": true}`))
	})

	client := NewClient(testConfig(""), staticTokens{token: ""}, testLogger())
	defer client.Close()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client.baseURL = server.URL

	status, err := client.Health(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("health call sent credential %q", gotAuth)
	}
	if status.Status != "healthy" || !status.ProcessorsInitialized {
		t.Errorf("unexpected health payload: %+v", status)
	}
}

func TestAnalyzeTruncatesJobSubset(t *testing.T) {
	var gotJobs int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Jobs []map[string]any `json:"jobs"`
		}
		if err := jsonDecode(r, &payload); err != nil {
			t.Errorf("decoding analyze payload: %v", err)
		}
		gotJobs = len(payload.Jobs)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"analyses": []}`))
	})

	client, _ := newTestClient(t, handler)

	jobs := makeJobs(8)
	if _, err := client.AnalyzeSkills(context.Background(), "resume-1", jobs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotJobs != 5 {
		t.Errorf("backend received %d jobs, want 5", gotJobs)
	}
}

func TestBusinessMetricsRecorded(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/search-jobs":
			w.Write([]byte(`{"jobs": [{"title": "Go Developer"}], "total_count": 1, "query_id": "q-1"}`))
		case "/analyze-skills":
			w.Write([]byte(`{"analyses": [{"job_title": "Go Developer"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	recorder := newCaptureRecorder()
	client, _ := newTestClient(t, handler, WithMetrics(recorder))

	if _, err := client.SearchJobs(context.Background(), "golang", "", 10); err != nil {
		t.Fatalf("SearchJobs: %v", err)
	}
	if _, err := client.AnalyzeSkills(context.Background(), "resume-1", makeJobs(2)); err != nil {
		t.Fatalf("AnalyzeSkills: %v", err)
	}

	if got := recorder.businessCount("jobs_searched"); got != 1 {
		t.Errorf("jobs_searched recorded %d times, want 1", got)
	}
	if got := recorder.businessCount("jobs_analyzed"); got != 1 {
		t.Errorf("jobs_analyzed recorded %d times, want 1", got)
	}
	if got := recorder.businessCount("report_generated"); got != 0 {
		t.Errorf("report_generated recorded %d times, want 0", got)
	}
}

func TestBusinessMetricRecordedOnFailureToo(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	recorder := newCaptureRecorder()
	client, _ := newTestClient(t, handler, WithMetrics(recorder))

	if _, err := client.SearchJobs(context.Background(), "golang", "", 10); err == nil {
		t.Fatal("expected an error for 500 response")
	}
	if got := recorder.businessCount("jobs_searched"); got != 1 {
		t.Errorf("jobs_searched recorded %d times, want 1", got)
	}
}

func TestRateLimitHitRecorded(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "healthy", "processors_initialized": true}`))
	})
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := testConfig(server.URL)
	cfg.Backend.RateLimit = config.ClientRateLimitConfig{
		Enabled:        true,
		RequestsPerMin: 1,
		BurstCapacity:  1,
	}

	recorder := newCaptureRecorder()
	client := NewClient(cfg, staticTokens{token: "test-token"}, testLogger(), WithMetrics(recorder))
	t.Cleanup(client.Close)

	if _, err := client.Health(context.Background()); err != nil {
		t.Fatalf("first call should pass the limiter: %v", err)
	}

	_, err := client.Health(context.Background())
	if err == nil {
		t.Fatal("expected the second call to be rate limited")
	}
	var appErr *errors.AppError
	if !stdAs(err, &appErr) || appErr.Code != errors.ErrCodeRateLimited {
		t.Errorf("expected rate-limited error, got %v", err)
	}
	if got := recorder.businessCount("rate_limit_hit"); got != 1 {
		t.Errorf("rate_limit_hit recorded %d times, want 1", got)
	}
}

func TestOperationTimeoutBoundsSearch(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jobs": [], "total_count": 0, "query_id": ""}`))
	})
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	searchTimeout := 50 * time.Millisecond
	cfg := testConfig(server.URL)
	cfg.Backend.Search.Timeout = &searchTimeout

	client := NewClient(cfg, staticTokens{token: "test-token"}, testLogger())
	t.Cleanup(client.Close)

	_, err := client.SearchJobs(context.Background(), "golang", "", 10)
	if err == nil {
		t.Fatal("expected the search deadline to fire")
	}
	if !errors.IsType(err, errors.ErrorTypeTransient) {
		t.Errorf("expected transient timeout error, got %v", err)
	}

	// The group deadline must not leak into other operation groups.
	if _, err := client.Health(context.Background()); err != nil {
		t.Errorf("health call should not inherit the search deadline: %v", err)
	}
}

func TestSearchJobsNormalizesWireShapes(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"jobs": [
				{"title": "Go Developer", "company": "Legacy Inc", "similarity_score": "0.91"},
				{"title": "Backend Engineer", "company_name": "Acme", "similarity_score": 0.72}
			],
			"total_count": 2,
			"query_id": "q-7"
		}`))
	})

	client, _ := newTestClient(t, handler)

	result, err := client.SearchJobs(context.Background(), "golang", "", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(result.Jobs))
	}
	if result.Jobs[0].Company != "Legacy Inc" || result.Jobs[0].SimilarityScore != 0.91 {
		t.Errorf("first job not normalized: %+v", result.Jobs[0])
	}
	if result.Jobs[1].Company != "Acme" || result.Jobs[1].SimilarityScore != 0.72 {
		t.Errorf("second job not normalized: %+v", result.Jobs[1])
	}
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/ketyia/aidiary/internal/diary"
	"github.com/ketyia/aidiary/internal/pipeline"
	"github.com/ketyia/aidiary/internal/sentiment"
	"gorm.io/gorm"
)

type stubText struct {
	narrative string
	err       error
	calls     int
}

func (s *stubText) ComposeDiary(ctx context.Context, questionnaire diary.Questionnaire) (string, error) {
	s.calls++
	return s.narrative, s.err
}

type stubSentiment struct {
	score sentiment.Score
	err   error
}

func (s *stubSentiment) AnalyzeSentiment(ctx context.Context, text string) (sentiment.Score, error) {
	return s.score, s.err
}

type stubImages struct {
	url string
	err error
}

func (s *stubImages) GenerateImage(ctx context.Context, prompt string) (string, error) {
	return s.url, s.err
}

type stubNamer struct{}

func (stubNamer) Name(t time.Time) (string, error) {
	return "abcdefghij01234.png", nil
}

type stubStore struct {
	err error
}

func (s *stubStore) StoreFromURL(ctx context.Context, sourceURL, name string) error {
	return s.err
}

type testEnv struct {
	handler http.Handler
	text    *stubText
	store   *stubStore
	db      *gorm.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:server_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&diary.Questionnaire{}, &diary.Record{}, &diary.Blog{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	staging, err := diary.NewStagingStore(db)
	if err != nil {
		t.Fatalf("unexpected staging store error: %v", err)
	}
	records, err := diary.NewRepository(db)
	if err != nil {
		t.Fatalf("unexpected repository error: %v", err)
	}

	env := &testEnv{
		text:  &stubText{narrative: "今日は穏やかな一日だった。"},
		store: &stubStore{},
		db:    db,
	}

	pipelineService, err := pipeline.NewService(pipeline.ServiceConfig{
		Staging:   staging,
		Records:   records,
		Text:      env.text,
		Sentiment: &stubSentiment{score: sentiment.Score{Label: diary.SentimentPositive, Positive: 0.9, Neutral: 0.05, Negative: 0.05}},
		Images:    &stubImages{url: "https://transient.example/image"},
		Namer:     stubNamer{},
		Store:     env.store,
	})
	if err != nil {
		t.Fatalf("unexpected pipeline error: %v", err)
	}

	env.handler, err = NewHTTPHandler(Dependencies{
		Pipeline: pipelineService,
		Records:  records,
	})
	if err != nil {
		t.Fatalf("unexpected handler error: %v", err)
	}
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var request *http.Request
	if body == "" {
		request = httptest.NewRequest(method, path, http.NoBody)
	} else {
		request = httptest.NewRequest(method, path, strings.NewReader(body))
		request.Header.Set("Content-Type", "application/json")
	}
	recorder := httptest.NewRecorder()
	e.handler.ServeHTTP(recorder, request)
	return recorder
}

func TestSubmitQuestionnaireAcknowledges(t *testing.T) {
	env := newTestEnv(t)

	recorder := env.do(t, http.MethodPost, "/api", `{"gender":"0","age":"20","todaysEvent":"旅行","memorableThing":"景色","oneWord":"楽しい"}`)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected created status, got %d", recorder.Code)
	}
	var payload map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload["message"] != "Data inserted successfully" {
		t.Fatalf("unexpected acknowledgement: %v", payload)
	}
}

func TestGenerateNarrativeWithNothingStagedReturnsNotFound(t *testing.T) {
	env := newTestEnv(t)

	recorder := env.do(t, http.MethodGet, "/api/generalai", "")

	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected not found status, got %d", recorder.Code)
	}
	if env.text.calls != 0 {
		t.Fatalf("expected no synthesis call, got %d", env.text.calls)
	}
}

func TestGenerateNarrativeFailureReturnsBadGatewayWithCode(t *testing.T) {
	env := newTestEnv(t)
	env.text.err = errors.New("quota exceeded")

	if recorder := env.do(t, http.MethodPost, "/api", `{"todaysEvent":"旅行"}`); recorder.Code != http.StatusCreated {
		t.Fatalf("unexpected submit status: %d", recorder.Code)
	}

	recorder := env.do(t, http.MethodGet, "/api/generalai", "")

	if recorder.Code != http.StatusBadGateway {
		t.Fatalf("expected bad gateway status, got %d", recorder.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload["code"] != "pipeline.generate_narrative.synthesis_failed" {
		t.Fatalf("expected service error code, got %v", payload["code"])
	}
}

func TestCompleteRejectsEmptyText(t *testing.T) {
	env := newTestEnv(t)

	recorder := env.do(t, http.MethodPost, "/api/generalai/complete", `{"name":"Alice","text":"  "}`)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected bad request status, got %d", recorder.Code)
	}
}

func TestCompleteUploadFailureReturnsBadGateway(t *testing.T) {
	env := newTestEnv(t)
	env.store.err = errors.New("upload interrupted")

	recorder := env.do(t, http.MethodPost, "/api/generalai/complete", `{"name":"Alice","text":"今日は楽しかった。"}`)

	if recorder.Code != http.StatusBadGateway {
		t.Fatalf("expected bad gateway status, got %d", recorder.Code)
	}

	var count int64
	if err := env.db.Model(&diary.Record{}).Count(&count).Error; err != nil {
		t.Fatalf("unexpected count error: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no records after upload failure, got %d", count)
	}
}

func TestListRecordsRejectsNonNumericPage(t *testing.T) {
	env := newTestEnv(t)

	recorder := env.do(t, http.MethodGet, "/api/list/abc", "")

	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected not found status, got %d", recorder.Code)
	}
}

func TestListRecordsOutOfRangePageReturnsNotFound(t *testing.T) {
	env := newTestEnv(t)

	recorder := env.do(t, http.MethodGet, "/api/list/2", "")

	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected not found status, got %d", recorder.Code)
	}
}

func TestListBlogsReturnsEntries(t *testing.T) {
	env := newTestEnv(t)
	if err := env.db.Create(&diary.Blog{Name: "tech", URL: "https://example.com", ImageName: "tech.png", Description: "posts"}).Error; err != nil {
		t.Fatalf("unexpected seed error: %v", err)
	}

	recorder := env.do(t, http.MethodGet, "/blogs", "")

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected ok status, got %d", recorder.Code)
	}
	var payload struct {
		Blogs []map[string]string `json:"blogs"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(payload.Blogs) != 1 || payload.Blogs[0]["name"] != "tech" {
		t.Fatalf("unexpected blogs payload: %v", payload.Blogs)
	}
}

func TestResponsesCarryRequestID(t *testing.T) {
	env := newTestEnv(t)

	recorder := env.do(t, http.MethodGet, "/blogs", "")

	if recorder.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected a request id header")
	}
}

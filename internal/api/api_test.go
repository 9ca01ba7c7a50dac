// Meetrec - Reading Meeting Recommendation and Moderation Service
// Copyright 2026 Moimlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/moimlab/meetrec

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/moimlab/meetrec/internal/batch"
	"github.com/moimlab/meetrec/internal/config"
	"github.com/moimlab/meetrec/internal/llm"
	"github.com/moimlab/meetrec/internal/models"
	"github.com/moimlab/meetrec/internal/moderation"
	"github.com/moimlab/meetrec/internal/quiz"
	"github.com/moimlab/meetrec/internal/recommend"
)

type fakeStore struct {
	pingErr error
	rows    []models.RecommendationRow
	rowsErr error
}

func (s *fakeStore) Ping(_ context.Context) error { return s.pingErr }
func (s *fakeStore) WeeklyRecommendations(_ context.Context, _ int64, _ string) ([]models.RecommendationRow, error) {
	return s.rows, s.rowsErr
}

type fakeEngine struct {
	resp   *recommend.Response
	err    error
	status recommend.TrainingStatus
}

func (e *fakeEngine) Recommend(_ context.Context, _ recommend.Request) (*recommend.Response, error) {
	return e.resp, e.err
}
func (e *fakeEngine) Status() recommend.TrainingStatus { return e.status }

type fakeBatch struct {
	rows    int
	err     error
	running bool
}

func (b *fakeBatch) TriggerRun(_ context.Context) (int, error) { return b.rows, b.err }
func (b *fakeBatch) Running() bool                             { return b.running }
func (b *fakeBatch) LastRun() (time.Time, bool)                { return time.Time{}, false }

type fakeModerator struct {
	res moderation.Result
	err error
}

func (m *fakeModerator) Validate(_ context.Context, _ string) (moderation.Result, error) {
	return m.res, m.err
}

type fakeQuizzes struct {
	res quiz.Result
	err error
}

func (q *fakeQuizzes) Generate(_ context.Context, _ quiz.GenerateRequest) (quiz.Result, error) {
	return q.res, q.err
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Security.CORSOrigins = []string{"*"}
	return cfg
}

type testServer struct {
	store     *fakeStore
	engine    *fakeEngine
	batch     *fakeBatch
	moderator *fakeModerator
	quizzes   *fakeQuizzes
	cfg       *config.Config
}

func newTestServer() *testServer {
	return &testServer{
		store:     &fakeStore{},
		engine:    &fakeEngine{status: recommend.TrainingStatus{Trained: true}},
		batch:     &fakeBatch{rows: 8},
		moderator: &fakeModerator{res: moderation.Result{Verdict: moderation.VerdictApproved}},
		quizzes:   &fakeQuizzes{},
		cfg:       testConfig(),
	}
}

func (ts *testServer) handler() http.Handler {
	h := NewHandler(ts.store, ts.engine, ts.batch, ts.moderator, ts.quizzes, ts.cfg)
	return NewRouter(h).Setup()
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, models.APIResponse) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp models.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode envelope from %q: %v", rec.Body.String(), err)
	}
	return rec, resp
}

func TestHealth(t *testing.T) {
	ts := newTestServer()
	rec, resp := doRequest(t, ts.handler(), http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if resp.Status != "success" {
		t.Errorf("envelope status = %q", resp.Status)
	}
}

func TestHealthUnhealthyDatabase(t *testing.T) {
	ts := newTestServer()
	ts.store.pingErr = errors.New("closed")
	rec, _ := doRequest(t, ts.handler(), http.MethodGet, "/health", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestHealthReady(t *testing.T) {
	ts := newTestServer()
	rec, _ := doRequest(t, ts.handler(), http.MethodGet, "/health/ready", "")
	if rec.Code != http.StatusOK {
		t.Errorf("ready status = %d, want 200", rec.Code)
	}

	ts.store.pingErr = errors.New("closed")
	rec, resp := doRequest(t, ts.handler(), http.MethodGet, "/health/ready", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("ready status = %d, want 503", rec.Code)
	}
	if resp.Error == nil || resp.Error.Code != models.ErrCodeDatabase {
		t.Errorf("error = %+v", resp.Error)
	}
}

func TestRecommendations(t *testing.T) {
	ts := newTestServer()
	ts.engine.resp = &recommend.Response{
		UserID: 7,
		Recommendations: []recommend.ScoredMeeting{
			{Meeting: models.Meeting{ID: 10}, Score: 0.9, Rank: 1},
		},
	}
	rec, resp := doRequest(t, ts.handler(), http.MethodGet, "/api/v1/recommendations/7", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if resp.Status != "success" {
		t.Errorf("envelope = %+v", resp)
	}
}

func TestRecommendationsErrors(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		engineErr  error
		wantStatus int
		wantCode   string
	}{
		{"bad user id", "/api/v1/recommendations/abc", nil, http.StatusBadRequest, models.ErrCodeValidation},
		{"negative user id", "/api/v1/recommendations/-3", nil, http.StatusBadRequest, models.ErrCodeValidation},
		{"bad limit", "/api/v1/recommendations/7?limit=zero", nil, http.StatusBadRequest, models.ErrCodeValidation},
		{"unknown user", "/api/v1/recommendations/7", recommend.ErrUserNotFound, http.StatusNotFound, models.ErrCodeNotFound},
		{"untrained engine", "/api/v1/recommendations/7", recommend.ErrNotTrained, http.StatusServiceUnavailable, models.ErrCodeTrainingInProgress},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer()
			ts.engine.err = tt.engineErr
			rec, resp := doRequest(t, ts.handler(), http.MethodGet, tt.path, "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if resp.Error == nil || resp.Error.Code != tt.wantCode {
				t.Errorf("error = %+v, want code %s", resp.Error, tt.wantCode)
			}
		})
	}
}

func TestWeeklyRecommendations(t *testing.T) {
	ts := newTestServer()
	ts.store.rows = []models.RecommendationRow{
		{UserID: 7, MeetingID: 10, WeekStartDate: "2026-08-24", Rank: 1},
	}
	rec, resp := doRequest(t, ts.handler(), http.MethodGet, "/api/v1/recommendations/7/weekly?week_start=2026-08-24", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("data = %T", resp.Data)
	}
	if data["week_start_date"] != "2026-08-24" {
		t.Errorf("week_start_date = %v", data["week_start_date"])
	}
}

func TestWeeklyRecommendationsBadWeek(t *testing.T) {
	ts := newTestServer()
	rec, _ := doRequest(t, ts.handler(), http.MethodGet, "/api/v1/recommendations/7/weekly?week_start=next-monday", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestWeeklyRecommendationsDefaultWeekUsesBatchTimezone(t *testing.T) {
	if _, err := time.LoadLocation("Asia/Seoul"); err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	ts := newTestServer()
	ts.cfg.Batch.Timezone = "Asia/Seoul"
	h := NewHandler(ts.store, ts.engine, ts.batch, ts.moderator, ts.quizzes, ts.cfg)
	// Sunday 20:00 UTC is Monday 05:00 in Seoul.
	h.now = func() time.Time { return time.Date(2026, 8, 23, 20, 0, 0, 0, time.UTC) }

	rec, resp := doRequest(t, NewRouter(h).Setup(), http.MethodGet, "/api/v1/recommendations/7/weekly", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("data = %T", resp.Data)
	}
	if data["week_start_date"] != "2026-08-24" {
		t.Errorf("default week_start_date = %v, want 2026-08-24", data["week_start_date"])
	}
}

func TestRunBatch(t *testing.T) {
	ts := newTestServer()
	rec, resp := doRequest(t, ts.handler(), http.MethodPost, "/api/v1/batch/run", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	data := resp.Data.(map[string]interface{})
	if data["rows"].(float64) != 8 {
		t.Errorf("rows = %v", data["rows"])
	}
}

func TestRunBatchConflict(t *testing.T) {
	ts := newTestServer()
	ts.batch.err = batch.ErrRunInProgress
	rec, resp := doRequest(t, ts.handler(), http.MethodPost, "/api/v1/batch/run", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if resp.Error == nil || resp.Error.Code != models.ErrCodeBatchInProgress {
		t.Errorf("error = %+v", resp.Error)
	}
}

func TestValidateReport(t *testing.T) {
	ts := newTestServer()
	ts.moderator.res = moderation.Result{Verdict: moderation.VerdictRejected, Reason: moderation.ReasonTooShort, RuleBased: true}

	rec, resp := doRequest(t, ts.handler(), http.MethodPost, "/api/v1/reports/validate",
		`{"content": "short"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	data := resp.Data.(map[string]interface{})
	if data["verdict"] != moderation.VerdictRejected {
		t.Errorf("verdict = %v", data["verdict"])
	}
}

func TestValidateReportBadRequests(t *testing.T) {
	ts := newTestServer()
	h := ts.handler()

	tests := []struct {
		name string
		body string
	}{
		{"empty body", `{}`},
		{"not json", `this is not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := doRequest(t, h, http.MethodPost, "/api/v1/reports/validate", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestValidateReportUpstreamMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"unavailable", llm.ErrUnavailable, http.StatusServiceUnavailable, models.ErrCodeUpstreamDown},
		{"bad response", llm.ErrBadResponse, http.StatusBadGateway, models.ErrCodeUpstreamBad},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer()
			ts.moderator.err = tt.err
			rec, resp := doRequest(t, ts.handler(), http.MethodPost, "/api/v1/reports/validate",
				`{"content": "a perfectly reasonable report body"}`)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if resp.Error == nil || resp.Error.Code != tt.wantCode {
				t.Errorf("error = %+v, want %s", resp.Error, tt.wantCode)
			}
		})
	}
}

func TestGenerateQuiz(t *testing.T) {
	ts := newTestServer()
	ts.quizzes.res = quiz.Result{
		Quiz: quiz.Quiz{RoomID: 1, Question: "q", CorrectChoiceNumber: 1},
		Choices: []quiz.Choice{
			{RoomID: 1, ChoiceNumber: 1, ChoiceText: "a"},
			{RoomID: 1, ChoiceNumber: 2, ChoiceText: "b"},
			{RoomID: 1, ChoiceNumber: 3, ChoiceText: "c"},
			{RoomID: 1, ChoiceNumber: 4, ChoiceText: "d"},
		},
	}
	rec, resp := doRequest(t, ts.handler(), http.MethodPost, "/api/v1/quizzes/generate",
		`{"title": "Solaris", "author": "Stanislaw Lem"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if resp.Status != "success" {
		t.Errorf("envelope = %+v", resp)
	}
}

func TestGenerateQuizMissingFields(t *testing.T) {
	ts := newTestServer()
	rec, resp := doRequest(t, ts.handler(), http.MethodPost, "/api/v1/quizzes/generate",
		`{"title": "Solaris"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if resp.Error == nil || resp.Error.Code != models.ErrCodeValidation {
		t.Errorf("error = %+v", resp.Error)
	}
}

func TestAPIKeyGuard(t *testing.T) {
	ts := newTestServer()
	ts.cfg.Security.APIKey = "topsecret"
	h := ts.handler()

	// No key.
	rec, resp := doRequest(t, h, http.MethodGet, "/api/v1/recommendations/status", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status without key = %d, want 401", rec.Code)
	}
	if resp.Error == nil || resp.Error.Code != models.ErrCodeAuthentication {
		t.Errorf("error = %+v", resp.Error)
	}

	// Correct key.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/status", nil)
	req.Header.Set("x-api-key", "topsecret")
	okRec := httptest.NewRecorder()
	h.ServeHTTP(okRec, req)
	if okRec.Code != http.StatusOK {
		t.Errorf("status with key = %d, want 200", okRec.Code)
	}

	// Health stays open.
	healthRec, _ := doRequest(t, h, http.MethodGet, "/health", "")
	if healthRec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", healthRec.Code)
	}
}

func TestRequestIDHeaderOnResponses(t *testing.T) {
	ts := newTestServer()
	rec, _ := doRequest(t, ts.handler(), http.MethodGet, "/health", "")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing")
	}
}

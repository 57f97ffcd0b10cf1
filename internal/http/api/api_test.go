package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/aurora-planner/aurora/internal/ai"
	"github.com/aurora-planner/aurora/internal/config"
	"github.com/aurora-planner/aurora/internal/db"
	"github.com/aurora-planner/aurora/internal/identity"
	"github.com/aurora-planner/aurora/internal/planner"
	"github.com/aurora-planner/aurora/internal/ratelimit"
	"github.com/aurora-planner/aurora/internal/settings"
	"github.com/aurora-planner/aurora/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"
)

const threeDayPlan = "```json\n" + `{"timetable":{"Day 1":["Math : Study (60 min)","Math : Study (30 min)"],"Day 2":["Physics : Practice (45 min)"],"Day 3":[]},"revisionDays":["Day 3"],"restDays":[],"tips":["Sleep well"]}` + "\n```"

type stubGenerator struct {
	text string
	err  error
}

func (g *stubGenerator) GenerateText(_ context.Context, _ string) (string, error) {
	return g.text, g.err
}

type stubVerifier struct {
	profile identity.Profile
	err     error
}

func (v *stubVerifier) Configured() bool { return true }

func (v *stubVerifier) VerifyCode(_ context.Context, code string) (identity.Profile, error) {
	if code != "good-code" {
		return identity.Profile{}, identity.ErrInvalidCode
	}
	return v.profile, v.err
}

type testServer struct {
	engine *gin.Engine
	docs   *store.GormDocumentStore
}

func newTestServer(t *testing.T, gen planner.Generator, limit int) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := db.Open("file:" + filepath.Join(t.TempDir(), "api-test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	docs := store.NewGormDocumentStore(conn)

	engine := gin.New()
	RegisterRoutes(engine, Dependencies{
		DB:      conn,
		Docs:    docs,
		Planner: planner.NewService(gen, docs, "test-model"),
		Verifier: &stubVerifier{profile: identity.Profile{
			Subject: "google-sub-1",
			Email:   "ada@example.com",
			Name:    "Ada",
		}},
		Limiter: ratelimit.NewManager(ratelimit.StaticSettings(ratelimit.SettingsConfig{Limit: limit, Window: time.Minute}), nil, nil),
		JWT:     config.JWTConfig{Secret: "test-secret", Expiry: time.Hour},
	})
	return testServer{engine: engine, docs: docs}
}

func (s testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func planRequest() map[string]any {
	exam := time.Now().UTC().AddDate(0, 0, 2).Format("2006-01-02")
	return map[string]any{
		"subjectsCount": 2,
		"subjects":      "Math, Physics",
		"examDate":      exam,
		"hoursPerDay":   "3",
		"difficulties":  []int{4, 2},
		"revisionDays":  1,
		"pomodoro":      25,
		"restDays":      0,
	}
}

func errorOf(rec *httptest.ResponseRecorder) string {
	return gjson.GetBytes(rec.Body.Bytes(), "error").String()
}

func countPlans(t *testing.T, s testServer) int {
	t.Helper()
	snaps, err := s.docs.List(context.Background(), settings.StudyPlansCollection, store.Query{})
	if err != nil {
		t.Fatalf("list plans: %v", err)
	}
	return len(snaps)
}

func TestGeneratePlan_MethodNotAllowed(t *testing.T) {
	s := newTestServer(t, &stubGenerator{text: threeDayPlan}, 0)
	rec := s.do(t, http.MethodGet, "/api/generate_plan", "", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", rec.Code)
	}
	if got := errorOf(rec); got != "Method not allowed" {
		t.Fatalf("expected method error, got %q", got)
	}
}

func TestGeneratePlan_MissingAPIKey(t *testing.T) {
	s := newTestServer(t, nil, 0)
	rec := s.do(t, http.MethodPost, "/api/generate_plan", "", planRequest())
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
	if got := errorOf(rec); got != "Server configuration error" {
		t.Fatalf("expected configuration error, got %q", got)
	}
}

func TestGeneratePlan_StoresAndServesPlan(t *testing.T) {
	s := newTestServer(t, &stubGenerator{text: threeDayPlan}, 0)

	rec := s.do(t, http.MethodPost, "/api/generate_plan", "", planRequest())
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	id := gjson.GetBytes(rec.Body.Bytes(), "id").String()
	if id == "" {
		t.Fatalf("expected plan id in response")
	}

	got := s.do(t, http.MethodGet, "/api/plans/"+id, "", nil)
	if got.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", got.Code)
	}
	byDate := gjson.GetBytes(got.Body.Bytes(), "timetableByDate")
	if n := len(byDate.Map()); n != 3 {
		t.Fatalf("expected 3 dated days, got %d", n)
	}
	if model := gjson.GetBytes(got.Body.Bytes(), "meta.model").String(); model != "test-model" {
		t.Fatalf("expected meta.model=test-model, got %q", model)
	}

	view := s.do(t, http.MethodGet, "/api/plans/"+id+"/view", "", nil)
	if view.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", view.Code)
	}
	days := gjson.GetBytes(view.Body.Bytes(), "days").Array()
	if len(days) != 3 {
		t.Fatalf("expected 3 days, got %d", len(days))
	}
	first := days[0]
	if first.Get("totalMinutes").Int() != 90 || first.Get("total").String() != "1h 30m" {
		t.Fatalf("expected summed first day, got %s", first.Raw)
	}
	if len(first.Get("groups").Array()) != 1 {
		t.Fatalf("expected repeated tasks grouped, got %s", first.Get("groups").Raw)
	}
	if !days[2].Get("light").Bool() || !days[2].Get("revisionDay").Bool() {
		t.Fatalf("expected last day light and marked for revision, got %s", days[2].Raw)
	}
	if gjson.GetBytes(view.Body.Bytes(), "quote").String() == "" {
		t.Fatalf("expected a quote")
	}
}

func TestGeneratePlan_InvalidAIResponse(t *testing.T) {
	s := newTestServer(t, &stubGenerator{text: `{"tips":["no timetable"]}`}, 0)
	rec := s.do(t, http.MethodPost, "/api/generate_plan", "", planRequest())
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
	if got := errorOf(rec); got != "Invalid AI response" {
		t.Fatalf("expected invalid response error, got %q", got)
	}
	if n := countPlans(t, s); n != 0 {
		t.Fatalf("expected nothing stored, got %d plans", n)
	}
}

func TestGeneratePlan_UpstreamQuota(t *testing.T) {
	gen := &stubGenerator{err: &ai.StatusError{StatusCode: http.StatusTooManyRequests, Status: "RESOURCE_EXHAUSTED"}}
	s := newTestServer(t, gen, 0)
	rec := s.do(t, http.MethodPost, "/api/generate_plan", "", planRequest())
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", rec.Code)
	}
	if got := errorOf(rec); got != "Daily AI limit reached. Please try again later." {
		t.Fatalf("unexpected error message %q", got)
	}
}

func TestGeneratePlan_GenericFailureHidesDetails(t *testing.T) {
	gen := &stubGenerator{err: &ai.StatusError{StatusCode: http.StatusBadGateway, Message: "secret upstream detail"}}
	s := newTestServer(t, gen, 0)
	rec := s.do(t, http.MethodPost, "/api/generate_plan", "", planRequest())
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
	if got := errorOf(rec); got != "Failed to generate study plan" {
		t.Fatalf("unexpected error message %q", got)
	}
}

func TestGeneratePlan_MissingSubjects(t *testing.T) {
	s := newTestServer(t, &stubGenerator{text: threeDayPlan}, 0)
	body := planRequest()
	body["subjects"] = " , "
	rec := s.do(t, http.MethodPost, "/api/generate_plan", "", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestGeneratePlan_RateLimited(t *testing.T) {
	s := newTestServer(t, &stubGenerator{text: threeDayPlan}, 1)
	if rec := s.do(t, http.MethodPost, "/api/generate_plan", "", planRequest()); rec.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", rec.Code)
	}
	rec := s.do(t, http.MethodPost, "/api/generate_plan", "", planRequest())
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", rec.Code)
	}
	if got := errorOf(rec); got != "Too many plan requests. Please try again later." {
		t.Fatalf("unexpected error message %q", got)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
}

func TestGetPlan_NotFound(t *testing.T) {
	s := newTestServer(t, &stubGenerator{text: threeDayPlan}, 0)
	for _, path := range []string{"/api/plans/missing", "/api/plans/missing/view"} {
		rec := s.do(t, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s: expected status 404, got %d", path, rec.Code)
		}
		if got := errorOf(rec); got != "Plan not found" {
			t.Fatalf("%s: unexpected error %q", path, got)
		}
	}
}

func signIn(t *testing.T, s testServer) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/auth/google", "", map[string]string{"code": "good-code"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected sign-in 200, got %d: %s", rec.Code, rec.Body.String())
	}
	token := gjson.GetBytes(rec.Body.Bytes(), "token").String()
	if token == "" {
		t.Fatalf("expected token in sign-in response")
	}
	if name := gjson.GetBytes(rec.Body.Bytes(), "user.name").String(); name != "Ada" {
		t.Fatalf("expected user.name=Ada, got %q", name)
	}
	return token
}

func TestAuth_GoogleLoginAndMe(t *testing.T) {
	s := newTestServer(t, &stubGenerator{text: threeDayPlan}, 0)

	if rec := s.do(t, http.MethodPost, "/api/auth/google", "", map[string]string{"code": "bad"}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 for bad code, got %d", rec.Code)
	}

	token := signIn(t, s)
	again := signIn(t, s)

	first := s.do(t, http.MethodGet, "/api/me", token, nil)
	second := s.do(t, http.MethodGet, "/api/me", again, nil)
	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Fatalf("expected /api/me 200, got %d and %d", first.Code, second.Code)
	}
	firstID := gjson.GetBytes(first.Body.Bytes(), "user.id").String()
	if firstID == "" || firstID != gjson.GetBytes(second.Body.Bytes(), "user.id").String() {
		t.Fatalf("expected repeated sign-in to reuse the user row")
	}

	if rec := s.do(t, http.MethodGet, "/api/me", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 without token, got %d", rec.Code)
	}
	if rec := s.do(t, http.MethodGet, "/api/me", "not-a-jwt", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 for invalid token, got %d", rec.Code)
	}
	if rec := s.do(t, http.MethodPost, "/api/auth/logout", token, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204 on logout, got %d", rec.Code)
	}
}

func TestSavedPlans_Lifecycle(t *testing.T) {
	s := newTestServer(t, &stubGenerator{text: threeDayPlan}, 0)
	token := signIn(t, s)

	gen := s.do(t, http.MethodPost, "/api/generate_plan", token, planRequest())
	planID := gjson.GetBytes(gen.Body.Bytes(), "id").String()
	if planID == "" {
		t.Fatalf("expected generated plan id, got %s", gen.Body.String())
	}

	if rec := s.do(t, http.MethodPost, "/api/me/plans", "", map[string]string{"name": "x", "originalPlanId": planID}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 when signed out, got %d", rec.Code)
	}

	empty := s.do(t, http.MethodPost, "/api/me/plans", token, map[string]string{"name": "  ", "originalPlanId": planID})
	if empty.Code != http.StatusBadRequest || errorOf(empty) != "Plan name is required" {
		t.Fatalf("expected name required error, got %d %q", empty.Code, errorOf(empty))
	}

	unknown := s.do(t, http.MethodPost, "/api/me/plans", token, map[string]string{"name": "Finals", "originalPlanId": "nope"})
	if unknown.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 for unknown original, got %d", unknown.Code)
	}

	created := s.do(t, http.MethodPost, "/api/me/plans", token, map[string]string{"name": "Finals", "originalPlanId": planID})
	if created.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", created.Code, created.Body.String())
	}
	savedID := gjson.GetBytes(created.Body.Bytes(), "id").String()
	if gjson.GetBytes(created.Body.Bytes(), "originalPlanId").String() != planID {
		t.Fatalf("expected originalPlanId=%s, got %s", planID, created.Body.String())
	}
	if len(gjson.GetBytes(created.Body.Bytes(), "timetableByDate").Map()) != 3 {
		t.Fatalf("expected copied timetable, got %s", created.Body.String())
	}
	if tip := gjson.GetBytes(created.Body.Bytes(), "tips.0").String(); tip != "Sleep well" {
		t.Fatalf("expected copied tips, got %q", tip)
	}

	second := s.do(t, http.MethodPost, "/api/me/plans", token, map[string]string{"name": "Midterms", "originalPlanId": planID})
	if second.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", second.Code)
	}

	list := s.do(t, http.MethodGet, "/api/me/plans", token, nil)
	plans := gjson.GetBytes(list.Body.Bytes(), "plans").Array()
	if len(plans) != 2 {
		t.Fatalf("expected 2 saved plans, got %d", len(plans))
	}
	names := map[string]bool{plans[0].Get("name").String(): true, plans[1].Get("name").String(): true}
	if !names["Finals"] || !names["Midterms"] {
		t.Fatalf("unexpected saved plans: %s", list.Body.String())
	}

	search := s.do(t, http.MethodGet, "/api/me/plans?search=mid", token, nil)
	if found := gjson.GetBytes(search.Body.Bytes(), "plans").Array(); len(found) != 1 || found[0].Get("name").String() != "Midterms" {
		t.Fatalf("expected search to match Midterms, got %s", search.Body.String())
	}

	if rec := s.do(t, http.MethodDelete, "/api/me/plans/"+savedID, token, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rec.Code)
	}
	if rec := s.do(t, http.MethodDelete, "/api/me/plans/"+savedID, token, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 on second delete, got %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, nil, 0)
	rec := s.do(t, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}

package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/aurora-planner/aurora/internal/config"
	"github.com/aurora-planner/aurora/internal/db"
	"github.com/aurora-planner/aurora/internal/http/api"
	"github.com/aurora-planner/aurora/internal/identity"
	"github.com/aurora-planner/aurora/internal/planner"
	"github.com/aurora-planner/aurora/internal/store"
	"github.com/gin-gonic/gin"
)

type stubGenerator struct{ text string }

func (g stubGenerator) GenerateText(_ context.Context, _ string) (string, error) {
	return g.text, nil
}

type stubVerifier struct{}

func (stubVerifier) Configured() bool { return true }

func (stubVerifier) VerifyCode(_ context.Context, code string) (identity.Profile, error) {
	if code != "ok" {
		return identity.Profile{}, identity.ErrInvalidCode
	}
	return identity.Profile{Subject: "sub-1", Email: "lin@example.com", Name: "Lin"}, nil
}

func newAPIServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	conn, err := db.Open("file:" + filepath.Join(t.TempDir(), "client-test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	docs := store.NewGormDocumentStore(conn)
	gen := stubGenerator{text: `{"timetable":{"Day 2":["Chemistry : Practice (40 min)"],"Day 1":["Chemistry : Study (50 min)"]},"tips":["Hydrate"]}`}

	engine := gin.New()
	api.RegisterRoutes(engine, api.Dependencies{
		DB:       conn,
		Docs:     docs,
		Planner:  planner.NewService(gen, docs, "stub"),
		Verifier: stubVerifier{},
		JWT:      config.JWTConfig{Secret: "client-secret", Expiry: time.Hour},
	})
	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_GenerateAndSave(t *testing.T) {
	srv := newAPIServer(t)
	c := New(srv.URL + "/")
	ctx := context.Background()

	token, user, err := c.LoginWithGoogle(ctx, "ok")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.Name != "Lin" || user.ID == "" {
		t.Fatalf("unexpected user: %+v", user)
	}
	me, err := c.Me(ctx, token)
	if err != nil || me.ID != user.ID {
		t.Fatalf("expected me=%s, got %+v err=%v", user.ID, me, err)
	}

	id, err := c.GeneratePlan(ctx, token, planner.Request{
		SubjectsCount: 1,
		Subjects:      "Chemistry",
		ExamDate:      time.Now().UTC().AddDate(0, 0, 5).Format("2006-01-02"),
		HoursPerDay:   2,
		Pomodoro:      25,
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	plan, err := c.GetPlan(ctx, id)
	if err != nil {
		t.Fatalf("get plan: %v", err)
	}
	if plan.ID != id || len(plan.TimetableByDate) != 2 {
		t.Fatalf("unexpected plan: id=%s days=%d", plan.ID, len(plan.TimetableByDate))
	}
	if len(plan.Plan.Timetable) != 2 || plan.Plan.Timetable[0].Label != "Day 2" {
		t.Fatalf("expected model order to survive, got %+v", plan.Plan.Timetable)
	}

	saved, err := c.SavePlan(ctx, token, "Chem final", id)
	if err != nil {
		t.Fatalf("save plan: %v", err)
	}
	if saved.ID == "" || saved.OriginalPlanID != id {
		t.Fatalf("unexpected saved plan: %+v", saved)
	}

	list, err := c.ListPlans(ctx, token, "chem")
	if err != nil {
		t.Fatalf("list plans: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Chem final" {
		t.Fatalf("unexpected saved list: %+v", list)
	}

	if errDelete := c.DeletePlan(ctx, token, saved.ID); errDelete != nil {
		t.Fatalf("delete plan: %v", errDelete)
	}
	if errAgain := c.DeletePlan(ctx, token, saved.ID); !errors.Is(errAgain, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", errAgain)
	}
	if errLogout := c.Logout(ctx, token); errLogout != nil {
		t.Fatalf("logout: %v", errLogout)
	}
}

func TestClient_ErrorMapping(t *testing.T) {
	srv := newAPIServer(t)
	c := New(srv.URL)
	ctx := context.Background()

	if _, err := c.GetPlan(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := c.Me(ctx, "bogus"); !errors.Is(err, identity.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	_, err := c.SavePlan(ctx, "", "x", "y")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 APIError, got %v", err)
	}
	if _, _, errLogin := c.LoginWithGoogle(ctx, "nope"); !errors.Is(errLogin, identity.ErrUnauthorized) {
		t.Fatalf("expected rejected code to be unauthorized, got %v", errLogin)
	}
}

func TestClient_GenerateSurfacesServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"Daily AI limit reached. Please try again later."}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).GeneratePlan(context.Background(), "", planner.Request{Subjects: "A", ExamDate: "2030-01-01"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusTooManyRequests || apiErr.Message != "Daily AI limit reached. Please try again later." {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
}

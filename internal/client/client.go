package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aurora-planner/aurora/internal/identity"
	"github.com/aurora-planner/aurora/internal/models"
	"github.com/aurora-planner/aurora/internal/planner"
	"github.com/tidwall/gjson"
)

// DefaultBaseURL is the API address used when none is configured.
const DefaultBaseURL = "http://localhost:8080"

// ErrNotFound is returned when the server reports a missing plan.
var ErrNotFound = errors.New("client: not found")

// APIError is a non-2xx API response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("api: %s (status %d)", e.Message, e.StatusCode)
}

// Unwrap maps status codes onto sentinel errors.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return identity.ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return nil
	}
}

// Client calls the Aurora HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New constructs a Client for baseURL.
func New(baseURL string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

// GeneratePlan requests a new study plan and returns its ID.
func (c *Client) GeneratePlan(ctx context.Context, token string, req planner.Request) (string, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/generate_plan", token, req)
	if err != nil {
		return "", err
	}
	id := gjson.GetBytes(body, "id").String()
	if id == "" {
		return "", fmt.Errorf("client: generate: response has no id")
	}
	return id, nil
}

// GetPlan loads a stored study plan.
func (c *Client) GetPlan(ctx context.Context, id string) (models.StudyPlan, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/plans/"+url.PathEscape(id), "", nil)
	if err != nil {
		return models.StudyPlan{}, err
	}
	var plan models.StudyPlan
	if errDecode := json.Unmarshal(body, &plan); errDecode != nil {
		return models.StudyPlan{}, fmt.Errorf("client: decode plan: %w", errDecode)
	}
	if plan.ID == "" {
		plan.ID = id
	}
	return plan, nil
}

// SavePlan copies a plan into the signed-in user's saved plans.
func (c *Client) SavePlan(ctx context.Context, token, name, originalPlanID string) (models.SavedPlan, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/me/plans", token, map[string]string{
		"name":           name,
		"originalPlanId": originalPlanID,
	})
	if err != nil {
		return models.SavedPlan{}, err
	}
	var saved models.SavedPlan
	if errDecode := json.Unmarshal(body, &saved); errDecode != nil {
		return models.SavedPlan{}, fmt.Errorf("client: decode saved plan: %w", errDecode)
	}
	return saved, nil
}

// ListPlans returns the signed-in user's saved plans, newest first.
func (c *Client) ListPlans(ctx context.Context, token, search string) ([]models.SavedPlan, error) {
	path := "/api/me/plans"
	if search = strings.TrimSpace(search); search != "" {
		path += "?" + url.Values{"search": {search}}.Encode()
	}
	body, err := c.do(ctx, http.MethodGet, path, token, nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Plans []models.SavedPlan `json:"plans"`
	}
	if errDecode := json.Unmarshal(body, &out); errDecode != nil {
		return nil, fmt.Errorf("client: decode saved plans: %w", errDecode)
	}
	return out.Plans, nil
}

// DeletePlan removes one of the signed-in user's saved plans.
func (c *Client) DeletePlan(ctx context.Context, token, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/me/plans/"+url.PathEscape(id), token, nil)
	return err
}

// LoginWithGoogle exchanges an authorization code for a session token.
func (c *Client) LoginWithGoogle(ctx context.Context, code string) (string, identity.User, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/auth/google", "", map[string]string{"code": code})
	if err != nil {
		return "", identity.User{}, err
	}
	token := gjson.GetBytes(body, "token").String()
	if token == "" {
		return "", identity.User{}, fmt.Errorf("client: login: response has no token")
	}
	return token, userOf(gjson.GetBytes(body, "user")), nil
}

// Me returns the user a token belongs to.
func (c *Client) Me(ctx context.Context, token string) (identity.User, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/me", token, nil)
	if err != nil {
		return identity.User{}, err
	}
	return userOf(gjson.GetBytes(body, "user")), nil
}

// Logout tells the server the session ended.
func (c *Client) Logout(ctx context.Context, token string) error {
	_, err := c.do(ctx, http.MethodPost, "/api/auth/logout", token, nil)
	return err
}

func userOf(v gjson.Result) identity.User {
	return identity.User{
		ID:    v.Get("id").String(),
		Name:  v.Get("name").String(),
		Email: v.Get("email").String(),
	}
}

func (c *Client) do(ctx context.Context, method, path, token string, payload any) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		data, errMarshal := json.Marshal(payload)
		if errMarshal != nil {
			return nil, fmt.Errorf("client: marshal: %w", errMarshal)
		}
		reader = bytes.NewReader(data)
	}
	req, errReq := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if errReq != nil {
		return nil, fmt.Errorf("client: build request: %w", errReq)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, errDo := c.httpClient.Do(req)
	if errDo != nil {
		return nil, fmt.Errorf("client: %s %s: %w", method, path, errDo)
	}
	defer func() { _ = resp.Body.Close() }()

	body, errRead := io.ReadAll(resp.Body)
	if errRead != nil {
		return nil, fmt.Errorf("client: read response: %w", errRead)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    gjson.GetBytes(body, "error").String(),
		}
	}
	return body, nil
}

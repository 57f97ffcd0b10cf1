package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

var (
	tokenURL    = "https://oauth2.googleapis.com/token"
	userinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

var (
	// ErrInvalidCode reports an authorization code Google rejected.
	ErrInvalidCode = errors.New("identity: invalid or expired code")
	// ErrUnverifiedEmail reports a Google account without a verified email.
	ErrUnverifiedEmail = errors.New("identity: email not verified")
	// ErrProviderUnavailable reports a Google outage or malformed response.
	ErrProviderUnavailable = errors.New("identity: google unavailable")
)

// Profile is the identity returned by Google.
type Profile struct {
	Subject   string
	Email     string
	Name      string
	AvatarURL string
}

// GoogleVerifier exchanges OAuth authorization codes for Google profiles.
type GoogleVerifier struct {
	clientID     string
	clientSecret string
	redirectURI  string
	httpClient   *http.Client
	retryDelay   time.Duration
}

// NewGoogleVerifier constructs a GoogleVerifier.
func NewGoogleVerifier(clientID, clientSecret, redirectURI string) *GoogleVerifier {
	return &GoogleVerifier{
		clientID:     strings.TrimSpace(clientID),
		clientSecret: strings.TrimSpace(clientSecret),
		redirectURI:  strings.TrimSpace(redirectURI),
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		retryDelay:   500 * time.Millisecond,
	}
}

// Configured reports whether a client ID and secret are set.
func (v *GoogleVerifier) Configured() bool {
	return v != nil && v.clientID != "" && v.clientSecret != ""
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	IDToken     string `json:"id_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type userinfoResponse struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// VerifyCode exchanges code for an access token and loads the user profile.
func (v *GoogleVerifier) VerifyCode(ctx context.Context, code string) (Profile, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Profile{}, ErrInvalidCode
	}
	accessToken, err := v.exchangeCode(ctx, code)
	if err != nil {
		return Profile{}, err
	}
	info, err := v.fetchUserinfo(ctx, accessToken)
	if err != nil {
		return Profile{}, err
	}
	if !info.VerifiedEmail {
		return Profile{}, ErrUnverifiedEmail
	}
	log.WithField("email", info.Email).Debug("identity: google sign-in verified")
	return Profile{
		Subject:   info.ID,
		Email:     info.Email,
		Name:      info.Name,
		AvatarURL: info.Picture,
	}, nil
}

func (v *GoogleVerifier) exchangeCode(ctx context.Context, code string) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("client_id", v.clientID)
	form.Set("client_secret", v.clientSecret)
	form.Set("redirect_uri", v.redirectURI)
	encoded := form.Encode()

	req, errReq := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(encoded))
	if errReq != nil {
		return "", fmt.Errorf("identity: create token request: %w", errReq)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(encoded)), nil
	}

	resp, errDo := v.doWithRetry(ctx, req)
	if errDo != nil {
		log.WithError(errDo).Error("identity: google token exchange failed")
		return "", ErrProviderUnavailable
	}
	defer resp.Body.Close()

	body, errRead := io.ReadAll(resp.Body)
	if errRead != nil {
		return "", ErrProviderUnavailable
	}
	if resp.StatusCode != http.StatusOK {
		log.WithFields(log.Fields{"status": resp.StatusCode}).Error("identity: google token exchange rejected")
		if resp.StatusCode == http.StatusBadRequest {
			return "", ErrInvalidCode
		}
		return "", ErrProviderUnavailable
	}

	var token tokenResponse
	if errUnmarshal := json.Unmarshal(body, &token); errUnmarshal != nil || token.AccessToken == "" {
		return "", ErrProviderUnavailable
	}
	return token.AccessToken, nil
}

func (v *GoogleVerifier) fetchUserinfo(ctx context.Context, accessToken string) (userinfoResponse, error) {
	req, errReq := http.NewRequestWithContext(ctx, http.MethodGet, userinfoURL, nil)
	if errReq != nil {
		return userinfoResponse{}, fmt.Errorf("identity: create userinfo request: %w", errReq)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, errDo := v.doWithRetry(ctx, req)
	if errDo != nil {
		log.WithError(errDo).Error("identity: google userinfo failed")
		return userinfoResponse{}, ErrProviderUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.WithField("status", resp.StatusCode).Error("identity: google userinfo rejected")
		return userinfoResponse{}, ErrProviderUnavailable
	}
	var info userinfoResponse
	if errDecode := json.NewDecoder(resp.Body).Decode(&info); errDecode != nil {
		return userinfoResponse{}, ErrProviderUnavailable
	}
	if info.ID == "" || info.Email == "" {
		return userinfoResponse{}, ErrProviderUnavailable
	}
	return info, nil
}

// doWithRetry retries once after a network error or a 5xx response.
func (v *GoogleVerifier) doWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := v.httpClient.Do(req)
	if err == nil && resp.StatusCode < 500 {
		return resp, nil
	}
	if resp != nil {
		resp.Body.Close()
	}

	select {
	case <-time.After(v.retryDelay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	retry := req.Clone(ctx)
	if req.GetBody != nil {
		body, errBody := req.GetBody()
		if errBody != nil {
			return nil, errBody
		}
		retry.Body = body
	}
	return v.httpClient.Do(retry)
}

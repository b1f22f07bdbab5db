package github

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthProvider yields a token usable against the GitHub API. The fetch
// path only needs a bearer token; how it is obtained (PAT or GitHub App
// installation) is the provider's concern.
type AuthProvider interface {
	Token() (string, error)
}

// TokenAuth is the simple path: a personal access token from the
// environment. Public-only fetches work with any valid PAT; private
// comments require the token to carry repo scope.
type TokenAuth struct {
	AccessToken string
}

// Token returns the configured personal access token.
func (t *TokenAuth) Token() (string, error) {
	if t.AccessToken == "" {
		return "", fmt.Errorf("GITHUB_TOKEN is empty")
	}
	return t.AccessToken, nil
}

// AppAuth authenticates as a GitHub App installation. Used for
// org-wide private comment access where a PAT is not appropriate.
// Tokens are cached until shortly before expiry.
type AppAuth struct {
	AppID          string
	PrivateKey     string
	InstallationID string

	mu      sync.Mutex
	token   string
	expires time.Time
}

// InstallationToken is a short-lived installation access token.
type InstallationToken struct {
	Token     string
	ExpiresAt time.Time
}

// GenerateJWT creates the App-level JWT used to mint installation tokens.
func (a *AppAuth) GenerateJWT() (string, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(a.PrivateKey))
	if err != nil {
		return "", fmt.Errorf("failed to parse private key: %w", err)
	}

	appID, err := strconv.ParseInt(a.AppID, 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid app ID: %w", err)
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Minute)),
		Issuer:    strconv.FormatInt(appID, 10),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signedToken, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT: %w", err)
	}

	return signedToken, nil
}

// Token returns a valid installation token, reusing the cached one when
// it has more than a minute of life left.
func (a *AppAuth) Token() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token != "" && time.Until(a.expires) > time.Minute {
		return a.token, nil
	}

	jwtToken, err := a.GenerateJWT()
	if err != nil {
		return "", err
	}

	installationID, err := strconv.ParseInt(a.InstallationID, 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid installation ID: %w", err)
	}

	tok, err := a.getInstallationAccessToken(jwtToken, installationID)
	if err != nil {
		return "", err
	}

	a.token = tok.Token
	a.expires = tok.ExpiresAt
	return a.token, nil
}

// getInstallationAccessToken exchanges the App JWT for an installation
// access token.
func (a *AppAuth) getInstallationAccessToken(jwtToken string, installationID int64) (*InstallationToken, error) {
	url := fmt.Sprintf("https://api.github.com/app/installations/%d/access_tokens", installationID)
	req, err := http.NewRequest("POST", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+jwtToken)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get access token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("GitHub API error: %d - %s", resp.StatusCode, string(body))
	}

	var result struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &InstallationToken{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
	}, nil
}

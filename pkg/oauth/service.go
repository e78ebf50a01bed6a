// Package oauth implements the GitHub OAuth login flow. The exchange yields
// the GitHub login, which doubles as the user ID everywhere else in the
// system.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

var (
	// ErrInvalidCode is returned when the authorization code is invalid
	ErrInvalidCode = errors.New("invalid authorization code")
	// ErrProviderAPIError is returned when the GitHub API returns an error
	ErrProviderAPIError = errors.New("OAuth provider API error")
)

// UserInfo holds basic user information from GitHub
type UserInfo struct {
	ID        string
	Login     string
	Name      string
	Email     string
	AvatarURL string
}

// Config holds the OAuth client settings. OAuthBaseURL and APIBaseURL are
// overridable for tests.
type Config struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
	OAuthBaseURL string
	APIBaseURL   string
}

// Service handles the GitHub OAuth exchange
type Service struct {
	config Config
	client *http.Client
}

// NewService creates a new OAuth service
func NewService(cfg Config) *Service {
	if cfg.OAuthBaseURL == "" {
		cfg.OAuthBaseURL = "https://github.com"
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "https://api.github.com"
	}
	return &Service{
		config: cfg,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// AuthURL returns the GitHub authorization URL for the given CSRF state.
func (s *Service) AuthURL(state string) string {
	params := url.Values{}
	params.Add("client_id", s.config.ClientID)
	params.Add("redirect_uri", s.config.CallbackURL)
	params.Add("scope", "read:user")
	params.Add("state", state)
	return s.config.OAuthBaseURL + "/login/oauth/authorize?" + params.Encode()
}

// HandleCallback exchanges an authorization code for the GitHub user behind
// it.
func (s *Service) HandleCallback(ctx context.Context, code string) (*UserInfo, error) {
	token, err := s.exchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.fetchUser(ctx, token)
}

func (s *Service) exchangeCode(ctx context.Context, code string) (string, error) {
	data := url.Values{}
	data.Set("client_id", s.config.ClientID)
	data.Set("client_secret", s.config.ClientSecret)
	data.Set("code", code)
	data.Set("redirect_uri", s.config.CallbackURL)

	req, err := http.NewRequestWithContext(ctx, "POST", s.config.OAuthBaseURL+"/login/oauth/access_token", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")
	req.URL.RawQuery = data.Encode()

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to exchange code: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", ErrInvalidCode
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", ErrInvalidCode
	}
	return tokenResp.AccessToken, nil
}

func (s *Service) fetchUser(ctx context.Context, accessToken string) (*UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", s.config.APIBaseURL+"/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: status %d: %s", ErrProviderAPIError, resp.StatusCode, string(body))
	}

	var githubUser struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&githubUser); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}

	name := githubUser.Name
	if name == "" {
		name = githubUser.Login
	}

	return &UserInfo{
		ID:        fmt.Sprintf("%d", githubUser.ID),
		Login:     githubUser.Login,
		Name:      name,
		Email:     githubUser.Email,
		AvatarURL: githubUser.AvatarURL,
	}, nil
}

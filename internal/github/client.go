// Package github talks to GitHub's OAuth and REST endpoints on behalf of the
// federated login flow.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	defaultAuthURL    = "https://github.com/login/oauth/authorize"
	defaultTokenURL   = "https://github.com/login/oauth/access_token"
	defaultAPIBaseURL = "https://api.github.com"
	defaultTimeout    = 10 * time.Second

	acceptHeader    = "application/vnd.github.v3+json"
	userAgentHeader = "Agencia-Viajes-Oeste"
)

// Scopes requested during authorization.
var Scopes = []string{"user:email", "read:user"}

// ErrUnexpectedStatus is returned when the REST API answers with a non-2xx
// status.
var ErrUnexpectedStatus = errors.New("unexpected github status")

// ProviderError is an error reported by GitHub's token endpoint, such as an
// expired or already used authorization code.
type ProviderError struct {
	Code        string
	Description string
}

func (e *ProviderError) Error() string {
	if e.Description == "" {
		return "github: " + e.Code
	}
	return fmt.Sprintf("github: %s: %s", e.Code, e.Description)
}

// Config holds the OAuth app credentials. The URL fields default to GitHub's
// public endpoints and exist so tests can point at a fake server.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	AuthURL    string
	TokenURL   string
	APIBaseURL string
	Timeout    time.Duration
}

// Profile is the subset of the GitHub user resource used for login.
type Profile struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

// Email is an entry of the authenticated user's email list.
type Email struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// Client performs the authorization-code exchange and profile lookups.
type Client struct {
	oauth      *oauth2.Config
	apiBaseURL string
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.AuthURL == "" {
		cfg.AuthURL = defaultAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultTokenURL
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultAPIBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	return &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		apiBaseURL: strings.TrimRight(cfg.APIBaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Configured reports whether a client id is set.
func (c *Client) Configured() bool {
	return c.oauth.ClientID != ""
}

// AuthCodeURL returns the authorization URL the browser is redirected to.
func (c *Client) AuthCodeURL() string {
	return c.oauth.AuthCodeURL("")
}

// Exchange trades an authorization code for an access token. Errors reported
// by GitHub come back as *ProviderError.
func (c *Client) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := c.oauth.Exchange(c.context(ctx), code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.ErrorCode != "" {
			return nil, &ProviderError{
				Code:        retrieveErr.ErrorCode,
				Description: retrieveErr.ErrorDescription,
			}
		}
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	return token, nil
}

// FetchUser returns the profile of the token's owner.
func (c *Client) FetchUser(ctx context.Context, token *oauth2.Token) (Profile, error) {
	var profile Profile
	if err := c.get(ctx, token, "/user", &profile); err != nil {
		return Profile{}, fmt.Errorf("fetch user: %w", err)
	}
	if profile.ID == 0 {
		return Profile{}, errors.New("fetch user: missing id in response")
	}
	return profile, nil
}

// FetchEmails returns the email addresses of the token's owner.
func (c *Client) FetchEmails(ctx context.Context, token *oauth2.Token) ([]Email, error) {
	var emails []Email
	if err := c.get(ctx, token, "/user/emails", &emails); err != nil {
		return nil, fmt.Errorf("fetch emails: %w", err)
	}
	return emails, nil
}

// PrimaryEmail picks the primary address, else the first one.
func PrimaryEmail(emails []Email) string {
	for _, e := range emails {
		if e.Primary && e.Email != "" {
			return e.Email
		}
	}
	for _, e := range emails {
		if e.Email != "" {
			return e.Email
		}
	}
	return ""
}

func (c *Client) get(ctx context.Context, token *oauth2.Token, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBaseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("User-Agent", userAgentHeader)

	resp, err := c.oauth.Client(c.context(ctx), token).Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w %d: %s", ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) context(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

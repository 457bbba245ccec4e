package voice

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

	"github.com/rs/zerolog/log"
)

// Credential is a one-time room join credential.
type Credential struct {
	RoomToken string
	ServerURL string
	// ExpiresAt is a hint; zero when the backend did not send one.
	ExpiresAt time.Time
}

// TokenPath is the backend route that issues room credentials.
const TokenPath = "/api/v1/livekit/token"

// StaticToken is a TokenProvider returning a fixed bearer token.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	if t == "" {
		return "", errors.New("no auth token configured")
	}
	return string(t), nil
}

// TokenResponse is the JSON body of the credential endpoint.
type TokenResponse struct {
	AccessToken string    `json:"accessToken"`
	URL         string    `json:"url"`
	ExpiresAt   time.Time `json:"expiresAt,omitzero"`
}

// HTTPCredentialFetcher requests room credentials from the dashboard backend.
type HTTPCredentialFetcher struct {
	baseURL string
	tokens  TokenProvider
	client  *http.Client
}

// NewHTTPCredentialFetcher targets baseURL (e.g. "http://127.0.0.1:8080").
// A nil client gets a 10s timeout default.
func NewHTTPCredentialFetcher(baseURL string, tokens TokenProvider, client *http.Client) *HTTPCredentialFetcher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPCredentialFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		client:  client,
	}
}

func (f *HTTPCredentialFetcher) FetchCredential(ctx context.Context, agentID, userID string) (Credential, error) {
	if strings.TrimSpace(agentID) == "" || strings.TrimSpace(userID) == "" {
		return Credential{}, newError(KindCredentialFetch, errors.New("agent id and user id are required"))
	}

	bearer, err := f.tokens.Token(ctx)
	if err != nil {
		return Credential{}, newError(KindCredentialFetch, fmt.Errorf("auth token: %w", err))
	}

	q := url.Values{}
	q.Set("agent_id", agentID)
	q.Set("user_id", userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+TokenPath+"?"+q.Encode(), nil)
	if err != nil {
		return Credential{}, newError(KindCredentialFetch, err)
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return Credential{}, newError(KindCredentialFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Warn().
			Str("module", "voice.credential").
			Str("agent_id", agentID).
			Int("status", resp.StatusCode).
			Msg("credential request rejected")
		return Credential{}, &Error{
			Kind:   KindCredentialFetch,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("unexpected status: %s", strings.TrimSpace(string(body))),
		}
	}

	var tr TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return Credential{}, &Error{Kind: KindCredentialFetch, Status: resp.StatusCode, Err: fmt.Errorf("decode body: %w", err)}
	}
	if tr.AccessToken == "" || tr.URL == "" {
		return Credential{}, &Error{Kind: KindCredentialFetch, Status: resp.StatusCode, Err: errors.New("malformed credential: missing accessToken or url")}
	}

	return Credential{RoomToken: tr.AccessToken, ServerURL: tr.URL, ExpiresAt: tr.ExpiresAt}, nil
}

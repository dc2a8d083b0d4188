package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	shared "github.com/pacemate/server/src/go/pkg"
)

// Token represents the OAuth token structure we care about
type Token struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// TokenSource returns a valid token.
// It is safe for concurrent use by multiple goroutines.
type TokenSource interface {
	Token(context.Context) (*Token, error)
	ForceRefresh(context.Context) (*Token, error)
}

// FirestoreTokenSource reads Strava tokens from the user record and
// refreshes them against the provider when necessary.
type FirestoreTokenSource struct {
	db       shared.Database
	userID   string
	provider string
	mu       sync.Mutex
}

func NewFirestoreTokenSource(db shared.Database, userID, provider string) *FirestoreTokenSource {
	return &FirestoreTokenSource{
		db:       db,
		userID:   userID,
		provider: provider,
	}
}

// Token returns a token, refreshing it if necessary.
func (s *FirestoreTokenSource) Token(ctx context.Context) (*Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	strava, err := s.stravaIntegration(ctx)
	if err != nil {
		return nil, err
	}

	if strava.AccessToken == "" {
		return nil, fmt.Errorf("missing access token for %s", s.provider)
	}
	if strava.RefreshToken == "" {
		return nil, fmt.Errorf("missing refresh token for %s", s.provider)
	}

	// Proactive refresh if expired or expiring in the next minute.
	if strava.ExpiresAt != nil && time.Now().Add(1*time.Minute).After(*strava.ExpiresAt) {
		return s.refreshToken(ctx, strava.RefreshToken)
	}

	var expiry time.Time
	if strava.ExpiresAt != nil {
		expiry = *strava.ExpiresAt
	}
	return &Token{
		AccessToken:  strava.AccessToken,
		RefreshToken: strava.RefreshToken,
		Expiry:       expiry,
	}, nil
}

// ForceRefresh forcibly refreshes the token regardless of expiry.
func (s *FirestoreTokenSource) ForceRefresh(ctx context.Context) (*Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Fetch the refresh token from the store again to be safe.
	strava, err := s.stravaIntegration(ctx)
	if err != nil {
		return nil, err
	}
	if strava.RefreshToken == "" {
		return nil, fmt.Errorf("missing refresh token for %s", s.provider)
	}

	return s.refreshToken(ctx, strava.RefreshToken)
}

func (s *FirestoreTokenSource) stravaIntegration(ctx context.Context) (*stravaTokens, error) {
	if s.provider != shared.SourceStrava {
		return nil, fmt.Errorf("unknown provider %s", s.provider)
	}

	userData, err := s.db.GetUser(ctx, s.userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if userData.Integrations == nil || userData.Integrations.Strava == nil || !userData.Integrations.Strava.Enabled {
		return nil, fmt.Errorf("strava not linked/enabled")
	}

	i := userData.Integrations.Strava
	return &stravaTokens{
		AccessToken:  i.AccessToken,
		RefreshToken: i.RefreshToken,
		ExpiresAt:    i.ExpiresAt,
	}, nil
}

type stravaTokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    *time.Time
}

// refreshToken performs the HTTP exchange to get a new token & updates Firestore
func (s *FirestoreTokenSource) refreshToken(ctx context.Context, refreshToken string) (*Token, error) {
	clientID, err := s.getSecret("client-id")
	if err != nil {
		return nil, err
	}
	clientSecret, err := s.getSecret("client-secret")
	if err != nil {
		return nil, err
	}

	data := url.Values{}
	// Strava wants client_id/secret in the body, not Basic Auth.
	data.Set("client_id", clientID)
	data.Set("client_secret", clientSecret)
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", refreshToken)

	req, err := http.NewRequestWithContext(ctx, "POST", "https://www.strava.com/oauth/token", strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("refresh request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("refresh failed with status: %d", resp.StatusCode)
	}

	var result struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int    `json:"expires_in"`
		ExpiresAt    int64  `json:"expires_at"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode refresh response: %w", err)
	}

	newExpiry := time.Now().Add(time.Duration(result.ExpiresIn) * time.Second)
	if result.ExpiresAt != 0 {
		newExpiry = time.Unix(result.ExpiresAt, 0)
	}

	// Dotted paths so we do not overwrite the whole integration sub-object
	// (which would wipe enabled, athlete_id, etc.)
	prefix := "integrations." + s.provider + "."
	updateData := map[string]interface{}{
		prefix + "access_token": result.AccessToken,
		prefix + "expires_at":   newExpiry,
		prefix + "last_used_at": time.Now(),
	}
	// Strava rotates refresh tokens, but guard against an empty response
	// value wiping the stored one.
	if result.RefreshToken != "" {
		updateData[prefix+"refresh_token"] = result.RefreshToken
	}

	if err := s.db.UpdateUser(ctx, s.userID, updateData); err != nil {
		return nil, fmt.Errorf("failed to persist new tokens: %w", err)
	}

	newRefreshToken := result.RefreshToken
	if newRefreshToken == "" {
		newRefreshToken = refreshToken
	}

	return &Token{
		AccessToken:  result.AccessToken,
		RefreshToken: newRefreshToken,
		Expiry:       newExpiry,
	}, nil
}

func (s *FirestoreTokenSource) getSecret(keyType string) (string, error) {
	// Environment variables use uppercase with underscores
	// e.g., "strava-client-id" becomes "STRAVA_CLIENT_ID"
	envVarName := strings.ToUpper(strings.ReplaceAll(s.provider, "-", "_")) + "_" + strings.ToUpper(strings.ReplaceAll(keyType, "-", "_"))

	value := os.Getenv(envVarName)
	if value == "" {
		return "", fmt.Errorf("environment variable %s not found", envVarName)
	}

	return value, nil
}

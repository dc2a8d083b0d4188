package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// EnvSecretStore resolves secrets from environment variables. Cloud Run and
// Cloud Functions deployments mount Secret Manager values as env vars, so a
// dedicated Secret Manager client is unnecessary at runtime.
//
// Secret names are upper-snake-cased: "strava-client-secret" resolves to
// STRAVA_CLIENT_SECRET.
type EnvSecretStore struct{}

func (s *EnvSecretStore) GetSecret(ctx context.Context, projectID, name string) (string, error) {
	key := strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("secret %s not set in environment", key)
	}
	return val, nil
}

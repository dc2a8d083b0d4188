// Package strava fetches activity stream data from the Strava API.
package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	shared "github.com/pacemate/server/src/go/pkg"
	httputil "github.com/pacemate/server/src/go/pkg/infrastructure/http"
	"github.com/pacemate/server/src/go/pkg/infrastructure/oauth"
	"github.com/pacemate/server/src/go/pkg/types"
)

const defaultBaseURL = "https://www.strava.com/api/v3"

// streamKeys is every series type we ask Strava for. Types the activity
// does not have are simply absent from the response.
var streamKeys = []string{
	"time", "distance", "latlng", "altitude", "heartrate",
	"cadence", "watts", "velocity_smooth", "grade_smooth",
}

// Fetcher implements shared.StreamFetcher against the Strava API. Token
// refresh (proactive and reactive on 401) is handled by the oauth
// transport; rate-limit and server errors surface as errors so the
// pipeline can report the item as failed without retrying.
type Fetcher struct {
	db     shared.Database
	logger *slog.Logger

	// BaseURL overrides the Strava API root (tests).
	BaseURL string
	// HTTPClient overrides the per-user OAuth client (tests).
	HTTPClient *http.Client
}

func NewFetcher(db shared.Database, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		db:     db,
		logger: logger.With("component", "strava-client"),
	}
}

func (f *Fetcher) FetchStreams(ctx context.Context, userID, provider, externalID string) (*types.StreamFetchResult, error) {
	if provider != shared.SourceStrava {
		return nil, fmt.Errorf("unsupported provider %q", provider)
	}
	if externalID == "" {
		return nil, fmt.Errorf("missing external id")
	}

	client := f.HTTPClient
	if client == nil {
		source := oauth.NewFirestoreTokenSource(f.db, userID, shared.SourceStrava)
		client = oauth.NewHTTPClient(source)
		client.Timeout = 30 * time.Second
	}

	base := f.BaseURL
	if base == "" {
		base = defaultBaseURL
	}

	q := url.Values{}
	for _, k := range streamKeys {
		q.Add("keys", k)
	}
	q.Set("key_by_type", "true")
	endpoint := fmt.Sprintf("%s/activities/%s/streams?%s", base, url.PathEscape(externalID), q.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("strava streams request: %w", err)
	}
	defer resp.Body.Close()

	// Strava answers 404 for activities that exist but have no streams
	// (manual entries that slipped past the heuristics) as well as for
	// deleted activities. Either way: a confirmed negative, not a failure.
	if resp.StatusCode == http.StatusNotFound {
		f.logger.Debug("Strava has no streams", "external_id", externalID)
		return &types.StreamFetchResult{Status: types.StreamFetchNoStreams}, nil
	}

	if err := httputil.ParseErrorResponse(resp); err != nil {
		if httputil.IsRateLimited(err) {
			f.logger.Warn("Strava rate limit hit", "external_id", externalID)
		}
		return nil, fmt.Errorf("strava streams: %w", err)
	}

	var streams types.StreamSet
	if err := json.NewDecoder(resp.Body).Decode(&streams); err != nil {
		return nil, fmt.Errorf("decode streams response: %w", err)
	}

	if len(streams) == 0 {
		return &types.StreamFetchResult{Status: types.StreamFetchNoStreams}, nil
	}

	return &types.StreamFetchResult{
		Status:  types.StreamFetchOK,
		Streams: streams,
	}, nil
}

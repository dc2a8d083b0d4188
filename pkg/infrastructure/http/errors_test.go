package httputil

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseErrorResponse_Success(t *testing.T) {
	resp := &http.Response{
		StatusCode: 200,
		Body:       http.NoBody,
	}

	err := ParseErrorResponse(resp)
	if err != nil {
		t.Errorf("Expected nil error for 200 response, got: %v", err)
	}
}

func TestParseErrorResponse_Error(t *testing.T) {
	body := `{"message":"Record Not Found","errors":[{"resource":"Activity","field":"id","code":"invalid"}]}`
	resp := &http.Response{
		StatusCode: 404,
		Body:       io.NopCloser(strings.NewReader(body)),
		Request:    httptest.NewRequest("GET", "https://www.strava.com/api/v3/activities/123/streams", nil),
	}

	err := ParseErrorResponse(resp)
	if err == nil {
		t.Fatal("Expected error for 404 response")
	}

	httpErr, ok := err.(*HTTPError)
	if !ok {
		t.Fatalf("Expected *HTTPError, got %T", err)
	}

	if httpErr.StatusCode != 404 {
		t.Errorf("Expected status 404, got %d", httpErr.StatusCode)
	}

	if !strings.Contains(httpErr.Body, "Record Not Found") {
		t.Errorf("Expected body to contain error message, got: %s", httpErr.Body)
	}

	if !strings.Contains(httpErr.Error(), "Record Not Found") {
		t.Errorf("Expected Error() to contain body, got: %s", httpErr.Error())
	}

	if !IsStatus(err, 404) {
		t.Error("Expected IsStatus to match 404")
	}
	if IsRateLimited(err) {
		t.Error("404 should not be treated as rate limiting")
	}
}

func TestParseErrorResponse_RateLimited(t *testing.T) {
	resp := &http.Response{
		StatusCode: 429,
		Header:     http.Header{"Retry-After": []string{"120"}},
		Body:       io.NopCloser(strings.NewReader(`{"message":"Rate Limit Exceeded"}`)),
	}

	err := ParseErrorResponse(resp)
	if !IsRateLimited(err) {
		t.Fatalf("Expected rate-limit error, got: %v", err)
	}

	httpErr := err.(*HTTPError)
	if httpErr.RetryAfter.Seconds() != 120 {
		t.Errorf("Expected 120s retry-after, got %v", httpErr.RetryAfter)
	}
}

func TestParseErrorResponse_WrappedError(t *testing.T) {
	resp := &http.Response{
		StatusCode: 503,
		Body:       http.NoBody,
	}

	err := fmt.Errorf("strava streams: %w", ParseErrorResponse(resp))
	if !IsStatus(err, 503) {
		t.Error("Expected IsStatus to see through fmt.Errorf wrapping")
	}
}

func TestParseErrorResponse_BodyRewrap(t *testing.T) {
	body := `{"error": "test"}`
	resp := &http.Response{
		StatusCode: 500,
		Body:       io.NopCloser(strings.NewReader(body)),
		Request:    httptest.NewRequest("GET", "https://api.example.com/test", nil),
	}

	_ = ParseErrorResponse(resp)

	// Body should be re-wrapped and readable
	rewrappedBody := make([]byte, 100)
	n, _ := resp.Body.Read(rewrappedBody)
	if string(rewrappedBody[:n]) != body {
		t.Errorf("Body not properly re-wrapped, got: %s", string(rewrappedBody[:n]))
	}
}

func TestTruncate(t *testing.T) {
	short := "hello"
	if truncate(short, 10) != "hello" {
		t.Error("Short string should not be truncated")
	}

	long := strings.Repeat("a", 600)
	truncated := truncate(long, 500)
	if len(truncated) != 503 { // 500 + "..."
		t.Errorf("Expected length 503, got %d", len(truncated))
	}
	if !strings.HasSuffix(truncated, "...") {
		t.Error("Truncated string should end with ...")
	}
}

package integrations

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/matzehuels/releasetower/pkg/cache"
	rterrors "github.com/matzehuels/releasetower/pkg/errors"
	"github.com/matzehuels/releasetower/pkg/httputil"
)

func TestNewClient(t *testing.T) {
	c, _ := cache.NewFileCache(t.TempDir())
	defer c.Close()

	headers := map[string]string{"Authorization": "Bearer token"}
	client := NewClient(Options{Cache: c, TTL: time.Hour}, "test:", headers)

	if client == nil {
		t.Fatal("NewClient() returned nil")
	}
	if client.http == nil {
		t.Error("NewClient() http client is nil")
	}
	if client.cache != c {
		t.Error("NewClient() cache not set correctly")
	}
	if client.headers["Authorization"] != "Bearer token" {
		t.Error("NewClient() headers not set correctly")
	}
}

func TestNewClientNilHeaders(t *testing.T) {
	c, _ := cache.NewFileCache(t.TempDir())
	defer c.Close()

	client := NewClient(Options{Cache: c, TTL: time.Hour, RetryDelay: time.Millisecond}, "test:", nil)

	if client == nil {
		t.Fatal("NewClient() returned nil")
	}
	if client.headers != nil {
		t.Error("NewClient() should allow nil headers")
	}
}

func TestClientGet(t *testing.T) {
	type response struct {
		Message string `json:"message"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		json.NewEncoder(w).Encode(response{Message: "hello"})
	}))
	defer server.Close()

	c, _ := cache.NewFileCache(t.TempDir())
	defer c.Close()

	client := NewClient(Options{Cache: c, TTL: time.Hour, RetryDelay: time.Millisecond}, "test:", nil)
	client.http = server.Client()

	var resp response
	err := client.Get(context.Background(), server.URL, &resp)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if resp.Message != "hello" {
		t.Errorf("Get() message = %q, want %q", resp.Message, "hello")
	}
}

func TestClientGetWithHeaders(t *testing.T) {
	var receivedHeader string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedHeader = r.Header.Get("X-Custom")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer server.Close()

	c, _ := cache.NewFileCache(t.TempDir())
	defer c.Close()

	client := NewClient(Options{Cache: c, TTL: time.Hour}, "test:", map[string]string{"X-Default": "default"})
	client.http = server.Client()

	var resp map[string]string
	err := client.GetWithHeaders(context.Background(), server.URL, map[string]string{"X-Custom": "custom"}, &resp)
	if err != nil {
		t.Fatalf("GetWithHeaders() error: %v", err)
	}
	if receivedHeader != "custom" {
		t.Errorf("custom header = %q, want %q", receivedHeader, "custom")
	}
}

func TestClientGetWithHeadersOverridesDefaults(t *testing.T) {
	var receivedHeader string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedHeader = r.Header.Get("X-Override")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer server.Close()

	c, _ := cache.NewFileCache(t.TempDir())
	defer c.Close()

	client := NewClient(Options{Cache: c, TTL: time.Hour}, "test:", map[string]string{"X-Override": "default"})
	client.http = server.Client()

	var resp map[string]string
	err := client.GetWithHeaders(context.Background(), server.URL, map[string]string{"X-Override": "overridden"}, &resp)
	if err != nil {
		t.Fatalf("GetWithHeaders() error: %v", err)
	}
	if receivedHeader != "overridden" {
		t.Errorf("header = %q, want %q", receivedHeader, "overridden")
	}
}

func TestClientGetText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("plain text response"))
	}))
	defer server.Close()

	c, _ := cache.NewFileCache(t.TempDir())
	defer c.Close()

	client := NewClient(Options{Cache: c, TTL: time.Hour, RetryDelay: time.Millisecond}, "test:", nil)
	client.http = server.Client()

	text, err := client.GetText(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("GetText() error: %v", err)
	}
	if text != "plain text response" {
		t.Errorf("GetText() = %q, want %q", text, "plain text response")
	}
}

func TestClientGet404(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c, _ := cache.NewFileCache(t.TempDir())
	defer c.Close()

	client := NewClient(Options{Cache: c, TTL: time.Hour, RetryDelay: time.Millisecond}, "test:", nil)
	client.http = server.Client()

	var resp map[string]string
	err := client.Get(context.Background(), server.URL, &resp)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestClientGet500(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c, _ := cache.NewFileCache(t.TempDir())
	defer c.Close()

	client := NewClient(Options{Cache: c, TTL: time.Hour, RetryDelay: time.Millisecond}, "test:", nil)
	client.http = server.Client()

	var resp map[string]string
	err := client.Get(context.Background(), server.URL, &resp)
	if err == nil {
		t.Error("Get() should return error for 500")
	}

	var retryErr *httputil.RetryableError
	if !errors.As(err, &retryErr) {
		t.Errorf("Get() error should be RetryableError, got %T", err)
	}
}

func TestClientCached(t *testing.T) {
	c, _ := cache.NewFileCache(t.TempDir())
	defer c.Close()

	client := NewClient(Options{Cache: c, TTL: time.Hour, RetryDelay: time.Millisecond}, "test:", nil)

	fetchCount := 0
	type testData struct {
		Value string `json:"value"`
	}
	value := testData{}

	fetch := func() error {
		fetchCount++
		value = testData{Value: "fetched"}
		return nil
	}

	// Use unique key per test run to avoid cache interference
	key := "test-key-" + time.Now().String()

	// First call should fetch since key doesn't exist
	err := client.Cached(context.Background(), key, false, &value, fetch)
	if err != nil {
		t.Fatalf("Cached() error: %v", err)
	}
	// Fetch should have been called
	if fetchCount < 1 {
		t.Errorf("fetch count = %d, want at least 1", fetchCount)
	}
}

func TestClientCachedRefresh(t *testing.T) {
	c, _ := cache.NewFileCache(t.TempDir())
	defer c.Close()

	client := NewClient(Options{Cache: c, TTL: time.Hour, RetryDelay: time.Millisecond}, "test:", nil)

	fetchCount := 0
	var value string

	fetch := func() error {
		fetchCount++
		value = "fetched"
		return nil
	}

	// With refresh=true, should always fetch
	err := client.Cached(context.Background(), "test-key", true, &value, fetch)
	if err != nil {
		t.Fatalf("Cached() error: %v", err)
	}
	if fetchCount != 1 {
		t.Errorf("fetch count = %d, want 1", fetchCount)
	}
}

func TestClientCachedFetchError(t *testing.T) {
	c, _ := cache.NewFileCache(t.TempDir())
	defer c.Close()

	client := NewClient(Options{Cache: c, TTL: time.Hour, RetryDelay: time.Millisecond}, "test:", nil)

	var value string

	// Use unique key per test run to avoid cache interference
	key := "test-error-key-" + time.Now().String()

	// RetryWithBackoff will retry, so we need a non-retryable error
	fetchCount := 0
	fetch := func() error {
		fetchCount++
		return ErrNotFound // Non-retryable error
	}

	err := client.Cached(context.Background(), key, false, &value, fetch)
	if err == nil {
		t.Error("Cached() should return error when fetch fails")
	}
	if fetchCount < 1 {
		t.Error("fetch should have been called at least once")
	}
}

func TestCheckStatus(t *testing.T) {
	tests := []struct {
		name       string
		code       int
		wantErr    bool
		wantType   error
		isRetryErr bool
	}{
		{
			name:    "200 OK",
			code:    200,
			wantErr: false,
		},
		{
			name:     "404 Not Found",
			code:     404,
			wantErr:  true,
			wantType: ErrNotFound,
		},
		{
			name:       "500 Internal Server Error",
			code:       500,
			wantErr:    true,
			isRetryErr: true,
		},
		{
			name:       "502 Bad Gateway",
			code:       502,
			wantErr:    true,
			isRetryErr: true,
		},
		{
			name:       "503 Service Unavailable",
			code:       503,
			wantErr:    true,
			isRetryErr: true,
		},
		{
			name:     "400 Bad Request",
			code:     400,
			wantErr:  true,
			wantType: ErrRequest,
		},
		{
			name:       "429 Too Many Requests",
			code:       429,
			wantErr:    true,
			wantType:   ErrNetwork,
			isRetryErr: true,
		},
		{
			name:    "403 Forbidden",
			code:    403,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkStatus(&http.Response{StatusCode: tt.code, Header: http.Header{}})

			if tt.wantErr {
				if err == nil {
					t.Error("checkStatus() should return error")
				}
				if tt.wantType != nil && !errors.Is(err, tt.wantType) {
					t.Errorf("checkStatus() error = %v, want %v", err, tt.wantType)
				}
				if tt.isRetryErr {
					var retryErr *httputil.RetryableError
					if !errors.As(err, &retryErr) {
						t.Errorf("checkStatus() error should be RetryableError, got %T", err)
					}
				}
			} else {
				if err != nil {
					t.Errorf("checkStatus() unexpected error: %v", err)
				}
			}
		})
	}
}

func TestNormalizePkgName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercase", "Package", "package"},
		{"underscore to dash", "my_package", "my-package"},
		{"trim spaces", "  package  ", "package"},
		{"combined", "  My_Package  ", "my-package"},
		{"empty", "", ""},
		{"already normalized", "my-package", "my-package"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePkgName(tt.input); got != tt.want {
				t.Errorf("NormalizePkgName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeRepoURL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"https url", "https://github.com/user/repo", "https://github.com/user/repo"},
		{"with .git suffix", "https://github.com/user/repo.git", "https://github.com/user/repo"},
		{"git@ to https", "git@github.com:user/repo", "https://github.com/user/repo"},
		{"git:// to https", "git://github.com/user/repo", "https://github.com/user/repo"},
		{"git+ prefix", "git+https://github.com/user/repo", "https://github.com/user/repo"},
		{"with spaces", "  https://github.com/user/repo  ", "https://github.com/user/repo"},
		{"combined", "git+git@github.com:user/repo.git", "https://github.com/user/repo"},
		{"ssh url", "git+ssh://git@github.com/user/repo.git", "https://github.com/user/repo"},
		{"scm git https", "scm:git:https://github.com/user/repo.git", "https://github.com/user/repo"},
		{"scm git protocol", "scm:git:git://github.com/user/repo.git", "https://github.com/user/repo"},
		{"scm ssh", "scm:git@github.com:user/repo.git", "https://github.com/user/repo"},
		{"scm ssh url", "scm:git:ssh://git@gitlab.com/group/repo.git", "https://gitlab.com/group/repo"},
		{"trailing slash", "https://github.com/user/repo/", "https://github.com/user/repo"},
		{"http github", "http://github.com/user/repo", "https://github.com/user/repo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeRepoURL(tt.input); got != tt.want {
				t.Errorf("NormalizeRepoURL(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestURLEncode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "hello", "hello"},
		{"space", "hello world", "hello+world"},
		{"special chars", "a=1&b=2", "a%3D1%26b%3D2"},
		{"slash", "path/to/resource", "path%2Fto%2Fresource"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := URLEncode(tt.input); got != tt.want {
				t.Errorf("URLEncode(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewHTTPClient(t *testing.T) {
	client := NewHTTPClient()
	if client == nil {
		t.Fatal("NewHTTPClient() returned nil")
	}
	if client.Timeout != httpTimeout {
		t.Errorf("Timeout = %v, want %v", client.Timeout, httpTimeout)
	}
}

func TestClientHostDisabled(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	disabled := false
	client := NewClient(Options{Hosts: NewHostRules(HostRule{MatchHost: "127.0.0.1", Enabled: &disabled})}, "test:", nil)
	client.SetHTTPClient(server.Client())

	var resp map[string]string
	err := client.Get(context.Background(), server.URL, &resp)
	if rterrors.HostFailureOf(err) != rterrors.HostFailureDisabled {
		t.Errorf("Get() error = %v, want host disabled", err)
	}
	if called {
		t.Error("disabled host should not receive requests")
	}
}

func TestClientAbortOnError(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	opts := Options{
		Hosts:      NewHostRules(HostRule{MatchHost: server.URL, AbortOnError: true}),
		Retries:    2,
		RetryDelay: time.Millisecond,
	}
	client := NewClient(opts, "test:", nil)
	client.SetHTTPClient(server.Client())

	var resp map[string]string
	err := client.Get(context.Background(), server.URL+"/pkg", &resp)
	if rterrors.HostFailureOf(err) != rterrors.HostFailureHard {
		t.Errorf("Get() error = %v, want hard host failure", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2 (retried before giving up)", calls)
	}
}

func slowServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestClientRuleTimeout(t *testing.T) {
	tests := []struct {
		name  string
		abort bool
		want  rterrors.HostFailure
	}{
		{"abort on error", true, rterrors.HostFailureHard},
		{"soft host", false, rterrors.HostFailureSoft},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := slowServer(t)
			opts := Options{
				Hosts:      NewHostRules(HostRule{MatchHost: "127.0.0.1", AbortOnError: tt.abort, Timeout: 50 * time.Millisecond}),
				Retries:    1,
				RetryDelay: time.Millisecond,
			}
			client := NewClient(opts, "test:", nil)
			client.SetHTTPClient(server.Client())

			var resp map[string]string
			err := client.Get(context.Background(), server.URL+"/pkg", &resp)
			if !errors.Is(err, ErrNetwork) {
				t.Fatalf("Get() error = %v, want ErrNetwork", err)
			}
			if got := rterrors.HostFailureOf(err); got != tt.want {
				t.Errorf("HostFailureOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClientCallerCancelIsNotNetworkFailure(t *testing.T) {
	server := slowServer(t)
	opts := Options{
		Hosts:   NewHostRules(HostRule{MatchHost: "127.0.0.1", AbortOnError: true, Timeout: time.Second}),
		Retries: 1,
	}
	client := NewClient(opts, "test:", nil)
	client.SetHTTPClient(server.Client())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var resp map[string]string
	err := client.Get(ctx, server.URL+"/pkg", &resp)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Get() error = %v, want context.DeadlineExceeded", err)
	}
	if errors.Is(err, ErrNetwork) || rterrors.HostFailureOf(err) == rterrors.HostFailureHard {
		t.Errorf("caller cancellation classified as host failure: %v", err)
	}
}

func TestClientNotFoundIsNeverHard(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	client := NewClient(Options{Hosts: NewHostRules(HostRule{AbortOnError: true})}, "test:", nil)
	client.SetHTTPClient(server.Client())

	var resp map[string]string
	err := client.Get(context.Background(), server.URL, &resp)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() error = %v, want ErrNotFound", err)
	}
	if rterrors.HostFailureOf(err) != rterrors.HostFailureSoft {
		t.Errorf("404 should be a soft failure, got %v", rterrors.HostFailureOf(err))
	}
}

func TestClientHostRuleAuth(t *testing.T) {
	var auth, private string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		private = r.Header.Get("PRIVATE-TOKEN")
		json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer server.Close()

	client := NewClient(Options{Hosts: NewHostRules(HostRule{Token: "abc"})}, "test:", nil)
	client.SetHTTPClient(server.Client())
	var resp map[string]string
	if err := client.Get(context.Background(), server.URL, &resp); err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if auth != "Bearer abc" {
		t.Errorf("Authorization = %q, want %q", auth, "Bearer abc")
	}

	client = NewClient(Options{Hosts: NewHostRules(HostRule{Token: "xyz", AuthType: "PRIVATE-TOKEN"})}, "test:", nil)
	client.SetHTTPClient(server.Client())
	if err := client.Get(context.Background(), server.URL, &resp); err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if private != "xyz" {
		t.Errorf("PRIVATE-TOKEN = %q, want %q", private, "xyz")
	}
}

func TestClientCachedHit(t *testing.T) {
	client := NewClient(Options{Cache: cache.NewMemoryCache(), TTL: time.Hour}, "test:", nil)

	fetches := 0
	var v string
	fetch := func() error {
		fetches++
		v = "value"
		return nil
	}
	for range 2 {
		if err := client.Cached(context.Background(), "key", false, &v, fetch); err != nil {
			t.Fatalf("Cached() error: %v", err)
		}
	}
	if fetches != 1 {
		t.Errorf("fetches = %d, want 1", fetches)
	}
	if v != "value" {
		t.Errorf("v = %q, want %q", v, "value")
	}
}

func TestHostRulesFind(t *testing.T) {
	off := false
	rules := NewHostRules(
		HostRule{Headers: map[string]string{"X-All": "1"}},
		HostRule{MatchHost: "https://pypi.org/simple/", Enabled: &off},
		HostRule{MatchHost: "pypi.org", Token: "t", AbortOnError: true},
	)

	tests := []struct {
		url         string
		wantEnabled bool
		wantToken   string
		wantAbort   bool
	}{
		{"https://pypi.org/pypi/requests/json", true, "t", true},
		{"https://pypi.org/simple/requests", false, "t", true},
		{"https://files.pypi.org/x", true, "t", true},
		{"https://notpypi.org/x", true, "", false},
		{"https://registry.npmjs.org/react", true, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			r := rules.Find(tt.url)
			if r.IsEnabled() != tt.wantEnabled || r.Token != tt.wantToken || r.AbortOnError != tt.wantAbort {
				t.Errorf("Find() = %+v", r)
			}
			if r.Headers["X-All"] != "1" {
				t.Error("match-all headers should apply to every host")
			}
		})
	}

	var nilRules *HostRules
	if !nilRules.Find("https://example.com").IsEnabled() {
		t.Error("nil rules should allow every host")
	}
}

func TestJoinURL(t *testing.T) {
	if got := JoinURL("https://registry.npmjs.org/", "/@types%2Fnode"); got != "https://registry.npmjs.org/@types%2Fnode" {
		t.Errorf("JoinURL() = %q", got)
	}
}

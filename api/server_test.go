package api

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"cloudkeeper/core/account"
	"cloudkeeper/core/query"
	"cloudkeeper/core/types"
)

// captureMailer records the last OTP sent to each address
type captureMailer struct {
	mu   sync.Mutex
	otps map[string]string
}

func (m *captureMailer) SendOTP(_ context.Context, to, otp string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.otps == nil {
		m.otps = make(map[string]string)
	}
	m.otps[to] = otp
	return nil
}

func (m *captureMailer) otp(to string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.otps[to]
}

type testEnv struct {
	srv    *Server
	http   *httptest.Server
	client *http.Client
	store  *account.MemoryStore
	mailer *captureMailer
}

func sampleDataset() *types.Dataset {
	records := []types.InstanceRecord{
		types.NewInstanceRecord("m5.large", "us-east-1", 2, "8 GiB", 8, 0.096),
		types.NewInstanceRecord("m5.xlarge", "us-east-1", 4, "16 GiB", 16, 0.192),
		types.NewInstanceRecord("c5.large", "eu-west-1", 2, "4 GiB", 4, 0.085),
		types.NewInstanceRecord("zero.cpu", "eu-west-1", 0, "1 GiB", 1, 0.01),
	}
	return types.NewDataset("test.csv", records, []string{"eu-west-1", "us-east-1"})
}

func newTestEnv(t *testing.T, ds *types.Dataset) *testEnv {
	t.Helper()

	store := account.NewMemoryStore()
	mailer := &captureMailer{}
	svc := account.NewService(store, mailer, account.DefaultOptions())

	srv := NewServer(DefaultConfig(), query.NewEngine(ds), svc, nil, "test")
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &testEnv{
		srv:    srv,
		http:   ts,
		client: &http.Client{Jar: jar},
		store:  store,
		mailer: mailer,
	}
}

func (e *testEnv) postJSON(t *testing.T, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	data, _ := json.Marshal(body)
	resp, err := e.client.Post(e.http.URL+path, "application/json", strings.NewReader(string(data)))
	if err != nil {
		t.Fatal(err)
	}
	return resp, decode(t, resp)
}

func (e *testEnv) postForm(t *testing.T, path string, values url.Values) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := e.client.PostForm(e.http.URL+path, values)
	if err != nil {
		t.Fatal(err)
	}
	return resp, decode(t, resp)
}

func (e *testEnv) get(t *testing.T, path string) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := e.client.Get(e.http.URL + path)
	if err != nil {
		t.Fatal(err)
	}
	return resp, decode(t, resp)
}

func decode(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	out := map[string]interface{}{}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(data, &out); err != nil {
			t.Fatalf("invalid JSON %q: %v", data, err)
		}
	} else {
		out["raw"] = string(data)
	}
	return out
}

func errorCode(body map[string]interface{}) string {
	e, _ := body["error"].(map[string]interface{})
	code, _ := e["code"].(string)
	return code
}

// login signs up, verifies and logs in email
func (e *testEnv) login(t *testing.T, email string) {
	t.Helper()
	if resp, body := e.postJSON(t, "/api/v1/signup", map[string]string{"email": email, "password": "secret"}); resp.StatusCode != http.StatusOK {
		t.Fatalf("signup: %d %v", resp.StatusCode, body)
	}
	if resp, body := e.postJSON(t, "/api/v1/verify", map[string]string{"otp": e.mailer.otp(email)}); resp.StatusCode != http.StatusOK {
		t.Fatalf("verify: %d %v", resp.StatusCode, body)
	}
	if resp, body := e.postJSON(t, "/api/v1/login", map[string]string{"email": email, "password": "secret"}); resp.StatusCode != http.StatusOK {
		t.Fatalf("login: %d %v", resp.StatusCode, body)
	}
}

func TestHealthAndVersion(t *testing.T) {
	env := newTestEnv(t, sampleDataset())

	resp, body := env.get(t, "/health")
	if resp.StatusCode != http.StatusOK || body["status"] != "healthy" {
		t.Errorf("health: %d %v", resp.StatusCode, body)
	}
	if resp.Header.Get(requestIDHeader) == "" {
		t.Error("expected a request id header")
	}

	resp, body = env.get(t, "/version")
	if resp.StatusCode != http.StatusOK || body["version"] != "test" {
		t.Errorf("version: %d %v", resp.StatusCode, body)
	}
}

func TestReady(t *testing.T) {
	tests := []struct {
		name   string
		ds     *types.Dataset
		status int
	}{
		{"loaded", sampleDataset(), http.StatusOK},
		{"empty", types.EmptyDataset("missing.csv"), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.ds)
			resp, body := env.get(t, "/ready")
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, body %v", resp.StatusCode, body)
			}
		})
	}
}

func TestInstancesRequireLogin(t *testing.T) {
	env := newTestEnv(t, sampleDataset())

	for _, path := range []string{"/api/v1/instances", "/api/v1/regions"} {
		resp, body := env.get(t, path)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", path, resp.StatusCode)
		}
		if errorCode(body) != "AUTH_ERROR" {
			t.Errorf("%s: unexpected error body %v", path, body)
		}
	}
}

func TestSignupVerifyLoginQuery(t *testing.T) {
	env := newTestEnv(t, sampleDataset())
	env.login(t, "alice@cloudkeeper.com")

	resp, body := env.get(t, "/api/v1/instances?sort_by=PricePerVCpu&limit=2")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("instances: %d %v", resp.StatusCode, body)
	}
	if body["total_matched_instances"].(float64) != 4 {
		t.Errorf("total = %v", body["total_matched_instances"])
	}
	instances := body["instances"].([]interface{})
	if len(instances) != 2 {
		t.Fatalf("expected 2 instances, got %d", len(instances))
	}
	first := instances[0].(map[string]interface{})
	if first["InstanceType"] != "c5.large" {
		t.Errorf("cheapest per vCPU should lead, got %v", first["InstanceType"])
	}
	if body["chart_region_counts"] == nil || body["chart_top_n"] == nil || body["chart_price_vcpu_scatter"] == nil {
		t.Error("expected all three charts")
	}

	// zero.cpu has an infinite price per vCPU; it sorts last and renders as null
	resp, body = env.get(t, "/api/v1/instances?region=eu-west-1&sort_by=PricePerVCpu&limit=all")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("instances: %d", resp.StatusCode)
	}
	instances = body["instances"].([]interface{})
	last := instances[len(instances)-1].(map[string]interface{})
	if last["InstanceType"] != "zero.cpu" || last["PricePerVCpu"] != nil {
		t.Errorf("expected zero.cpu last with null ratio, got %v", last)
	}

	resp, body = env.get(t, "/api/v1/regions")
	if resp.StatusCode != http.StatusOK || body["count"].(float64) != 2 {
		t.Errorf("regions: %d %v", resp.StatusCode, body)
	}

	if resp, _ := env.postJSON(t, "/api/v1/logout", nil); resp.StatusCode != http.StatusOK {
		t.Errorf("logout: %d", resp.StatusCode)
	}
	if resp, _ := env.get(t, "/api/v1/instances"); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", resp.StatusCode)
	}
}

func TestInstancesWithoutData(t *testing.T) {
	env := newTestEnv(t, types.EmptyDataset("missing.csv"))
	env.login(t, "bob@cloudkeeper.com")

	resp, body := env.get(t, "/api/v1/instances")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("instances: %d", resp.StatusCode)
	}
	if body["message"] != "pricing data is not available" {
		t.Errorf("expected no-data message, got %v", body["message"])
	}
	if instances := body["instances"].([]interface{}); len(instances) != 0 {
		t.Errorf("expected no instances, got %d", len(instances))
	}
}

func TestSignupWithFormAndValidation(t *testing.T) {
	env := newTestEnv(t, sampleDataset())

	resp, body := env.postForm(t, "/api/v1/signup", url.Values{"email": {"mallory@example.com"}, "password": {"secret"}})
	if resp.StatusCode != http.StatusBadRequest || errorCode(body) != "INPUT_ERROR" {
		t.Errorf("foreign domain: %d %v", resp.StatusCode, body)
	}

	resp, body = env.postForm(t, "/api/v1/signup", url.Values{"email": {"carol@cloudkeeper.com"}, "password": {"secret"}})
	if resp.StatusCode != http.StatusOK || body["resent"] != false {
		t.Fatalf("signup: %d %v", resp.StatusCode, body)
	}

	resp, body = env.postForm(t, "/api/v1/signup", url.Values{"email": {"carol@cloudkeeper.com"}, "password": {"secret"}})
	if resp.StatusCode != http.StatusOK || body["resent"] != true {
		t.Errorf("second signup should resend: %d %v", resp.StatusCode, body)
	}

	resp, body = env.postForm(t, "/api/v1/verify", url.Values{"otp": {"000000"}})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("wrong OTP: %d %v", resp.StatusCode, body)
	}

	resp, _ = env.postForm(t, "/api/v1/verify", url.Values{"otp": {env.mailer.otp("carol@cloudkeeper.com")}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("verify: %d", resp.StatusCode)
	}

	resp, body = env.postForm(t, "/api/v1/signup", url.Values{"email": {"carol@cloudkeeper.com"}, "password": {"secret"}})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("verified signup should conflict: %d %v", resp.StatusCode, body)
	}
}

func TestVerifyWithoutPendingUser(t *testing.T) {
	env := newTestEnv(t, sampleDataset())
	resp, body := env.postJSON(t, "/api/v1/verify", map[string]string{"otp": "123456"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d %v", resp.StatusCode, body)
	}
}

func TestLoginUnverifiedSetsPendingUser(t *testing.T) {
	env := newTestEnv(t, sampleDataset())
	email := "dan@cloudkeeper.com"

	env.postJSON(t, "/api/v1/signup", map[string]string{"email": email, "password": "secret"})

	// a fresh client has no pending user until login reports the account unverified
	jar, _ := cookiejar.New(nil)
	env.client = &http.Client{Jar: jar}

	resp, body := env.postJSON(t, "/api/v1/login", map[string]string{"email": email, "password": "secret"})
	if resp.StatusCode != http.StatusForbidden || errorCode(body) != "NOT_VERIFIED" {
		t.Fatalf("expected 403 NOT_VERIFIED, got %d %v", resp.StatusCode, body)
	}

	resp, body = env.postJSON(t, "/api/v1/verify", map[string]string{"otp": env.mailer.otp(email)})
	if resp.StatusCode != http.StatusOK || body["email"] != email {
		t.Errorf("verify via pending user: %d %v", resp.StatusCode, body)
	}

	resp, body = env.postJSON(t, "/api/v1/login", map[string]string{"email": email, "password": "wrong"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("wrong password: %d %v", resp.StatusCode, body)
	}
}

func TestGuardLogsOutUnverifiedAccount(t *testing.T) {
	env := newTestEnv(t, sampleDataset())
	email := "erin@cloudkeeper.com"
	env.login(t, email)

	u, _ := env.store.GetByEmail(context.Background(), email)
	u.Verified = false
	if err := env.store.Update(context.Background(), u); err != nil {
		t.Fatal(err)
	}

	if resp, _ := env.get(t, "/api/v1/instances"); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unverified account, got %d", resp.StatusCode)
	}

	// re-verified, the old session stays logged out
	u.Verified = true
	env.store.Update(context.Background(), u)
	if resp, _ := env.get(t, "/api/v1/instances"); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("session should have been cleared, got %d", resp.StatusCode)
	}
}

func TestMetrics(t *testing.T) {
	env := newTestEnv(t, sampleDataset())
	env.get(t, "/health")

	resp, body := env.get(t, "/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics: %d", resp.StatusCode)
	}
	raw := body["raw"].(string)
	for _, want := range []string{"cloudkeeper_requests_total 1", "cloudkeeper_dataset_records 4"} {
		if !strings.Contains(raw, want) {
			t.Errorf("metrics missing %q:\n%s", want, raw)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, sampleDataset())

	req, _ := http.NewRequest(http.MethodOptions, env.http.URL+"/api/v1/login", nil)
	resp, err := env.client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("expected 204, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("missing CORS header")
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	srv := NewServer(nil, query.NewEngine(nil), nil, nil, "test")
	h := srv.recoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if srv.errorCount != 1 {
		t.Errorf("panic should count as an error")
	}
}

// sessionToken returns the session cookie the client holds
func (e *testEnv) sessionToken(t *testing.T) string {
	t.Helper()
	u, _ := url.Parse(e.http.URL)
	for _, c := range e.client.Jar.Cookies(u) {
		if c.Name == e.srv.config.CookieName {
			return c.Value
		}
	}
	t.Fatal("no session cookie")
	return ""
}

func TestSessionExpiry(t *testing.T) {
	env := newTestEnv(t, sampleDataset())
	env.login(t, "frank@cloudkeeper.com")

	if resp, _ := env.get(t, "/api/v1/instances"); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 while the session is live, got %d", resp.StatusCode)
	}

	token := env.sessionToken(t)
	data, found, err := env.srv.sessionStore.Find(token)
	if err != nil || !found {
		t.Fatalf("session not stored: found=%v err=%v", found, err)
	}
	if err := env.srv.sessionStore.Commit(token, data, time.Now().Add(-time.Second)); err != nil {
		t.Fatal(err)
	}

	if resp, _ := env.get(t, "/api/v1/instances"); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 after expiry, got %d", resp.StatusCode)
	}
	if n := env.srv.sessionCount(); n != 0 {
		t.Errorf("expired session still counted: %d", n)
	}
}

func TestLoginRenewsSessionToken(t *testing.T) {
	env := newTestEnv(t, sampleDataset())
	email := "gina@cloudkeeper.com"

	env.postJSON(t, "/api/v1/signup", map[string]string{"email": email, "password": "secret"})
	before := env.sessionToken(t)
	env.postJSON(t, "/api/v1/verify", map[string]string{"otp": env.mailer.otp(email)})
	if resp, body := env.postJSON(t, "/api/v1/login", map[string]string{"email": email, "password": "secret"}); resp.StatusCode != http.StatusOK {
		t.Fatalf("login: %d %v", resp.StatusCode, body)
	}
	if after := env.sessionToken(t); after == before {
		t.Error("login should issue a new session token")
	}
}

func TestInstancesNonFiniteParameters(t *testing.T) {
	env := newTestEnv(t, sampleDataset())
	env.login(t, "hank@cloudkeeper.com")

	for _, q := range []string{"max_price=inf", "min_memory=NaN", "max_price=-Inf&min_memory=+inf"} {
		t.Run(q, func(t *testing.T) {
			resp, body := env.get(t, "/api/v1/instances?limit=all&"+q)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d", resp.StatusCode)
			}
			if body["total_matched_instances"].(float64) != 4 {
				t.Errorf("non-finite filters should be ignored, matched %v", body["total_matched_instances"])
			}
			criteria := body["criteria"].(map[string]interface{})
			if criteria["max_price"] != nil || criteria["min_memory"] != nil {
				t.Errorf("expected null criteria, got %v", criteria)
			}
		})
	}
}

func TestWriteJSONUnencodable(t *testing.T) {
	srv := NewServer(nil, query.NewEngine(nil), nil, nil, "test")
	rec := httptest.NewRecorder()
	srv.writeJSON(rec, http.StatusOK, map[string]float64{"v": math.Inf(1)})

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || errorCode(body) != "INTERNAL_ERROR" {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

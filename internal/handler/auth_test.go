package handler_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tablekeep/restaurant-manager/internal/config"
	"github.com/tablekeep/restaurant-manager/internal/handler"
	"github.com/tablekeep/restaurant-manager/internal/model"
	"github.com/tablekeep/restaurant-manager/internal/ratelimit"
	"github.com/tablekeep/restaurant-manager/internal/repository"
	"github.com/tablekeep/restaurant-manager/internal/router"
	"github.com/tablekeep/restaurant-manager/internal/utils"
)

// ---------- Fakes ----------

// fakeUserStore is an in-memory credential store.  The mutex gives it the
// same first-writer-wins uniqueness the MySQL index provides.
type fakeUserStore struct {
	mu     sync.Mutex
	byID   map[uint64]model.User
	nextID uint64
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byID: make(map[uint64]model.User)}
}

func (s *fakeUserStore) Create(_ context.Context, u *model.User) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byID {
		if existing.Email == u.Email {
			return 0, repository.ErrUserExists
		}
	}
	s.nextID++
	u.ID = s.nextID
	u.CreatedAt = time.Now().UTC()
	s.byID[u.ID] = *u
	return u.ID, nil
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, sql.ErrNoRows
}

func (s *fakeUserStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (s *fakeUserStore) delete(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, id)
}

func (s *fakeUserStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

// ---------- Harness ----------

const testSecret = "unit-test-signing-secret-0123456789"

type testServer struct {
	e       *echo.Echo
	users   *fakeUserStore
	revoked *repository.MemoryRevocationStore
	cfg     config.Config
}

func newTestServer(t *testing.T, rl config.RateLimitConfig) *testServer {
	t.Helper()
	cfg := config.Config{
		Env:           "test",
		JWTSecret:     testSecret,
		SessionTTLMin: 120,
		BcryptCost:    4, // min cost keeps hashing fast in tests
	}
	users := newFakeUserStore()
	revoked := repository.NewMemoryRevocationStore()
	limiter := ratelimit.NewMemoryLimiter(rl.Window)

	a := handler.NewAuthHandler(cfg, rl, users, revoked, limiter, nil)
	e := echo.New()
	router.RegisterAuth(e, a, rl, limiter, revoked)
	return &testServer{e: e, users: users, revoked: revoked, cfg: cfg}
}

func limiterOff() config.RateLimitConfig {
	return config.RateLimitConfig{Enabled: false, Window: 15 * time.Minute, RegisterLimit: 5, LoginFailLimit: 10, Prefix: "rl"}
}

func limiterOn() config.RateLimitConfig {
	cfg := limiterOff()
	cfg.Enabled = true
	return cfg
}

func (ts *testServer) do(method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = strings.NewReader(string(b))
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == utils.SessionCookieName {
			return ck
		}
	}
	t.Fatal("expected a session cookie")
	return nil
}

func johnPayload() map[string]any {
	return map[string]any{
		"firstName":      "John",
		"lastName":       "Doe",
		"email":          "john@example.com",
		"password":       "SecurePass123!",
		"restaurantName": "My Restaurant",
		"role":           "owner",
	}
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	msg, _ := body["error"].(string)
	return msg
}

// ---------- Tests ----------

func TestRegisterLoginMeLogoutLifecycle(t *testing.T) {
	ts := newTestServer(t, limiterOff())

	rec := ts.do(http.MethodPost, "/api/register", johnPayload())
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	var created struct {
		ID    uint64 `json:"id"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode register body: %v", err)
	}
	if created.ID == 0 || created.Email != "john@example.com" {
		t.Fatalf("unexpected register body: %+v", created)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatal("registration response must not contain password material")
	}

	rec = ts.do(http.MethodPost, "/api/login", map[string]string{"email": "john@example.com", "password": "SecurePass123!"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	ck := sessionCookie(t, rec)
	if ck.Value == "" || !ck.HttpOnly || ck.SameSite != http.SameSiteStrictMode {
		t.Fatalf("session cookie missing required attributes: %+v", ck)
	}
	if strings.Contains(rec.Body.String(), ck.Value) {
		t.Fatal("token must live only in the cookie, not the JSON body")
	}

	rec = ts.do(http.MethodGet, "/api/me", nil, ck)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var me struct {
		User map[string]any `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &me); err != nil {
		t.Fatalf("decode me body: %v", err)
	}
	if me.User["firstName"] != "John" || me.User["role"] != "owner" {
		t.Fatalf("unexpected profile: %+v", me.User)
	}
	if _, ok := me.User["passwordHash"]; ok {
		t.Fatal("profile must never include passwordHash")
	}
	if strings.Contains(strings.ToLower(rec.Body.String()), "password") {
		t.Fatal("profile body must carry no password material")
	}

	rec = ts.do(http.MethodPost, "/api/logout", nil, ck)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", rec.Code)
	}
	cleared := sessionCookie(t, rec)
	if cleared.Value != "" {
		t.Fatal("logout must clear the cookie")
	}

	rec = ts.do(http.MethodGet, "/api/me", nil, ck)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("me after logout: expected 401, got %d", rec.Code)
	}
	if errorOf(t, rec) != "session revoked" {
		t.Fatalf("expected session revoked, got %q", errorOf(t, rec))
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ts := newTestServer(t, limiterOff())

	if rec := ts.do(http.MethodPost, "/api/register", johnPayload()); rec.Code != http.StatusCreated {
		t.Fatalf("first register: expected 201, got %d", rec.Code)
	}

	// Same address in a different case must still collide.
	payload := johnPayload()
	payload["email"] = "John@Example.COM"
	rec := ts.do(http.MethodPost, "/api/register", payload)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register: expected 409, got %d", rec.Code)
	}
	if errorOf(t, rec) != "user already exists" {
		t.Fatalf("duplicate message must stay generic, got %q", errorOf(t, rec))
	}
	if ts.users.count() != 1 {
		t.Fatalf("expected exactly one user, got %d", ts.users.count())
	}
}

func TestRegisterValidationNoPartialWrites(t *testing.T) {
	ts := newTestServer(t, limiterOff())

	weak := []string{"short1!", "nouppercase123!", "NOLOWERCASE123!", "NoDigitsHere!", "NoSymbols123"}
	for _, pw := range weak {
		payload := johnPayload()
		payload["password"] = pw
		rec := ts.do(http.MethodPost, "/api/register", payload)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("password %q: expected 400, got %d", pw, rec.Code)
		}
		if !strings.Contains(errorOf(t, rec), "password") {
			t.Fatalf("password %q: error should name the field, got %q", pw, errorOf(t, rec))
		}
	}
	if ts.users.count() != 0 {
		t.Fatalf("no user may be created on validation failure, got %d", ts.users.count())
	}
}

func TestLoginUnifiedCredentialsError(t *testing.T) {
	ts := newTestServer(t, limiterOff())
	ts.do(http.MethodPost, "/api/register", johnPayload())

	wrongPw := ts.do(http.MethodPost, "/api/login", map[string]string{"email": "john@example.com", "password": "WrongPass123!"})
	unknown := ts.do(http.MethodPost, "/api/login", map[string]string{"email": "nobody@example.com", "password": "SecurePass123!"})

	if wrongPw.Code != http.StatusUnauthorized || unknown.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401/401, got %d/%d", wrongPw.Code, unknown.Code)
	}
	if wrongPw.Body.String() != unknown.Body.String() {
		t.Fatalf("wrong-password and unknown-email bodies must be identical: %q vs %q",
			wrongPw.Body.String(), unknown.Body.String())
	}
}

func TestMeWithoutSession(t *testing.T) {
	ts := newTestServer(t, limiterOff())

	rec := ts.do(http.MethodGet, "/api/me", nil)
	if rec.Code != http.StatusUnauthorized || errorOf(t, rec) != "not authenticated" {
		t.Fatalf("expected 401 not authenticated, got %d %q", rec.Code, errorOf(t, rec))
	}

	rec = ts.do(http.MethodGet, "/api/me", nil, &http.Cookie{Name: utils.SessionCookieName, Value: "garbage"})
	if rec.Code != http.StatusUnauthorized || errorOf(t, rec) != "not authenticated" {
		t.Fatalf("garbled cookie: expected 401 not authenticated, got %d %q", rec.Code, errorOf(t, rec))
	}
}

func TestMeExpiredSession(t *testing.T) {
	ts := newTestServer(t, limiterOff())
	ts.do(http.MethodPost, "/api/register", johnPayload())

	tok, err := utils.NewSessionToken(testSecret, 1, "owner", -1)
	if err != nil {
		t.Fatalf("mint expired token: %v", err)
	}
	ck := &http.Cookie{Name: utils.SessionCookieName, Value: tok.Token}

	rec := ts.do(http.MethodGet, "/api/me", nil, ck)
	if rec.Code != http.StatusUnauthorized || errorOf(t, rec) != "session expired" {
		t.Fatalf("expected 401 session expired, got %d %q", rec.Code, errorOf(t, rec))
	}

	// Expiry is checked before revocation, so an expired-and-revoked token
	// still reports expiry.
	_ = ts.revoked.Revoke(context.Background(), tok.ID, time.Hour)
	rec = ts.do(http.MethodGet, "/api/me", nil, ck)
	if errorOf(t, rec) != "session expired" {
		t.Fatalf("check order violated: got %q", errorOf(t, rec))
	}
}

func TestMeDeletedAccount(t *testing.T) {
	ts := newTestServer(t, limiterOff())
	ts.do(http.MethodPost, "/api/register", johnPayload())
	rec := ts.do(http.MethodPost, "/api/login", map[string]string{"email": "john@example.com", "password": "SecurePass123!"})
	ck := sessionCookie(t, rec)

	ts.users.delete(1)

	rec = ts.do(http.MethodGet, "/api/me", nil, ck)
	if rec.Code != http.StatusUnauthorized || errorOf(t, rec) != "not authenticated" {
		t.Fatalf("deleted account: expected 401 not authenticated, got %d %q", rec.Code, errorOf(t, rec))
	}
}

func TestLogoutIdempotent(t *testing.T) {
	ts := newTestServer(t, limiterOff())

	// No session at all is still a success.
	rec := ts.do(http.MethodPost, "/api/logout", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout without session: expected 200, got %d", rec.Code)
	}
	if sessionCookie(t, rec).Value != "" {
		t.Fatal("logout must always clear the cookie")
	}

	// A garbled cookie is cleared without error too.
	rec = ts.do(http.MethodPost, "/api/logout", nil, &http.Cookie{Name: utils.SessionCookieName, Value: "junk"})
	if rec.Code != http.StatusOK {
		t.Fatalf("logout with junk cookie: expected 200, got %d", rec.Code)
	}
}

func TestRegisterRateLimit(t *testing.T) {
	ts := newTestServer(t, limiterOn())

	// Every attempt counts, including rejected ones.
	payload := johnPayload()
	payload["password"] = "weak"
	for i := 1; i <= 5; i++ {
		rec := ts.do(http.MethodPost, "/api/register", payload)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("attempt %d: expected 400, got %d", i, rec.Code)
		}
	}
	rec := ts.do(http.MethodPost, "/api/register", johnPayload())
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("6th attempt: expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("429 should carry Retry-After")
	}
}

func TestLoginRateLimitCountsOnlyFailures(t *testing.T) {
	ts := newTestServer(t, limiterOn())
	ts.do(http.MethodPost, "/api/register", johnPayload())

	good := map[string]string{"email": "john@example.com", "password": "SecurePass123!"}
	bad := map[string]string{"email": "john@example.com", "password": "WrongPass123!"}

	fail := func(i int) {
		rec := ts.do(http.MethodPost, "/api/login", bad)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("failure %d: expected 401, got %d", i, rec.Code)
		}
	}

	for i := 1; i <= 5; i++ {
		fail(i)
	}
	// Successful logins in between never consume quota.
	for i := 0; i < 3; i++ {
		if rec := ts.do(http.MethodPost, "/api/login", good); rec.Code != http.StatusOK {
			t.Fatalf("interleaved success: expected 200, got %d", rec.Code)
		}
	}
	for i := 6; i <= 10; i++ {
		fail(i)
	}

	// The ceiling is reached: the 11th attempt is denied before the
	// credentials are even examined, correct or not.
	rec := ts.do(http.MethodPost, "/api/login", good)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("11th attempt: expected 429, got %d", rec.Code)
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	ts := newTestServer(t, limiterOff())
	ts.do(http.MethodPost, "/api/register", johnPayload())

	login := func() *http.Cookie {
		rec := ts.do(http.MethodPost, "/api/login", map[string]string{"email": "john@example.com", "password": "SecurePass123!"})
		return sessionCookie(t, rec)
	}
	first, second := login(), login()

	// Logging out one session leaves the other alive.
	if rec := ts.do(http.MethodPost, "/api/logout", nil, first); rec.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", rec.Code)
	}
	if rec := ts.do(http.MethodGet, "/api/me", nil, first); errorOf(t, rec) != "session revoked" {
		t.Fatalf("first session should be revoked, got %q", errorOf(t, rec))
	}
	if rec := ts.do(http.MethodGet, "/api/me", nil, second); rec.Code != http.StatusOK {
		t.Fatalf("second session should survive, got %d", rec.Code)
	}
}

func TestConcurrentDuplicateRegistration(t *testing.T) {
	ts := newTestServer(t, limiterOff())

	const n = 8
	codes := make(chan int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			codes <- ts.do(http.MethodPost, "/api/register", johnPayload()).Code
		}()
	}
	wg.Wait()
	close(codes)

	created, conflicts := 0, 0
	for code := range codes {
		switch code {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
			conflicts++
		default:
			t.Fatalf("unexpected status %d", code)
		}
	}
	if created != 1 || conflicts != n-1 {
		t.Fatalf("expected exactly one winner, got created=%d conflicts=%d", created, conflicts)
	}
	if ts.users.count() != 1 {
		t.Fatalf("expected one stored user, got %d", ts.users.count())
	}
}

func TestRateLimitDisabledInTestMode(t *testing.T) {
	// LoadRateLimitConfig forces the limiter off when APP_ENV=test so
	// suites like this one stay deterministic.
	cfg := config.LoadRateLimitConfig("test")
	if cfg.Enabled {
		t.Fatal("limiter must be disabled in test mode")
	}
	ts := newTestServer(t, cfg)
	payload := johnPayload()
	for i := 0; i < 20; i++ {
		payload["email"] = fmt.Sprintf("user%d@example.com", i)
		if rec := ts.do(http.MethodPost, "/api/register", payload); rec.Code != http.StatusCreated {
			t.Fatalf("attempt %d: expected 201 with limiter off, got %d", i, rec.Code)
		}
	}
}

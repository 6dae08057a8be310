package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"dawaam/internal/app/server"
	"dawaam/internal/platform/config"
	"dawaam/internal/platform/db"
)

type envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Error     *apiError       `json:"error"`
	RequestID string          `json:"requestId"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

// mailRecorder stands in for the SMTP mailer so workflow tests can assert
// on notification dispatch.
type mailRecorder struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *mailRecorder) Send(_ context.Context, _, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *mailRecorder) sentTo(to, subjectFragment string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mail := range m.sent {
		if mail.To == to && bytes.Contains([]byte(mail.Subject), []byte(subjectFragment)) {
			return true
		}
	}
	return false
}

func testConfig(dbURL string) config.Config {
	return config.Config{
		Addr:               ":0",
		DatabaseURL:        dbURL,
		JWTSecret:          "test-secret",
		DataEncryptionKey:  "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef",
		Environment:        "test",
		SeedAdminEmail:     "admin@test.local",
		SeedAdminPassword:  "ChangeMe123!",
		EmailFrom:          "no-reply@test.local",
		OfficeInboxEmail:   "office@test.local",
		RunMigrations:      true,
		RunSeed:            true,
		MaxBodyBytes:       1 << 20,
		RateLimitPerMinute: 10000,
		SessionTTL:         8 * time.Hour,
	}
}

func setupApp(t *testing.T) (*server.App, *mailRecorder) {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	cfg := testConfig(dbURL)

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		t.Fatalf("db connect failed: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := db.Migrate(ctx, pool, migrationsDir(t)); err != nil {
		t.Fatalf("migrations failed: %v", err)
	}
	if err := db.Seed(ctx, pool, cfg); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	mailer := &mailRecorder{}
	app, err := server.New(cfg, pool, mailer)
	if err != nil {
		t.Fatalf("server setup failed: %v", err)
	}
	return app, mailer
}

func migrationsDir(t *testing.T) string {
	t.Helper()
	for _, candidate := range []string{"migrations", "../../../migrations"} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	t.Fatal("migrations directory not found")
	return ""
}

func doJSON(t *testing.T, client *http.Client, method, url, token string, payload any, headers map[string]string) (*http.Response, envelope) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	if len(raw) > 0 {
		// Non-JSON responses (PDF, CSV, XLSX) are not enveloped.
		_ = json.Unmarshal(raw, &env)
	}
	return resp, env
}

func login(t *testing.T, client *http.Client, baseURL, email, password string) string {
	t.Helper()

	resp, env := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login as %s: got %d (%+v)", email, resp.StatusCode, env.Error)
	}

	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Token == "" {
		t.Fatalf("login response missing token: %s", env.Data)
	}
	return data.Token
}

func createAccount(t *testing.T, client *http.Client, baseURL, adminToken, email, role string) {
	t.Helper()

	resp, env := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/admin/users", adminToken, map[string]string{
		"email":     email,
		"firstName": "Test",
		"lastName":  "User",
		"role":      role,
		"password":  "Passw0rd!Test",
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create %s account: got %d (%+v)", role, resp.StatusCode, env.Error)
	}
}

func submitPayload(email string) map[string]any {
	days := []map[string]any{
		{"date": "2025-01-06", "hours": 8},
		{"date": "2025-01-07", "hours": 8},
		{"date": "2025-01-08", "hours": 8},
		{"date": "2025-01-09", "hours": 8},
		{"date": "2025-01-10", "hours": 8},
		{"date": "2025-01-11", "hours": 0},
		{"date": "2025-01-12", "hours": 0},
	}
	return map[string]any{
		"firstName":       "Amina",
		"lastName":        "Haddad",
		"email":           email,
		"company":         "Dawaam",
		"department":      "Operations",
		"jobTitle":        "Site Engineer",
		"periodType":      "weekly",
		"periodStart":     "2025-01-06",
		"rateType":        "hourly",
		"workLocation":    "Tripoli",
		"workDescription": "Weekly site supervision",
		"supervisorName":  "Omar K",
		"days":            days,
		"signature":       "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg==",
	}
}

func fmtUnique(prefix string, n int64) string {
	return fmt.Sprintf("%s-%d@example.com", prefix, n)
}

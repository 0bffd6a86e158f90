package app

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/leadflow-crm/api/internal/auth"
	"github.com/leadflow-crm/api/internal/config"
	"github.com/leadflow-crm/api/internal/db"
)

const testCookieName = "lf_sess"

type testEnv struct {
	pool   *pgxpool.Pool
	router http.Handler
}

func TestLogoutRevokesSession(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	seedUser(t, ctx, env.pool, "session@example.com", "Password123!", "user")

	cookie := login(t, env.router, "session@example.com", "Password123!")
	status, _ := request(t, env.router, http.MethodGet, "/api/auth/me", nil, cookie, "")
	if status != http.StatusOK {
		t.Fatalf("expected 200 before logout, got %d", status)
	}

	csrf := csrfToken(t, env.router, cookie)
	status, _ = request(t, env.router, http.MethodPost, "/api/auth/logout", nil, cookie, csrf)
	if status != http.StatusNoContent {
		t.Fatalf("expected 204 logout response, got %d", status)
	}

	status, _ = request(t, env.router, http.MethodGet, "/api/auth/me", nil, cookie, "")
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", status)
	}
}

func TestLeadVisibilityIsScopedToAssignee(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	seedUser(t, ctx, env.pool, "admin@example.com", "Password123!", "admin")
	aliceID := seedUser(t, ctx, env.pool, "alice@example.com", "Password123!", "user")
	seedUser(t, ctx, env.pool, "bob@example.com", "Password123!", "user")

	adminCookie := login(t, env.router, "admin@example.com", "Password123!")
	adminCsrf := csrfToken(t, env.router, adminCookie)
	leadID := createLead(t, env.router, adminCookie, adminCsrf, env, "Ada Lovelace", aliceID)

	aliceCookie := login(t, env.router, "alice@example.com", "Password123!")
	status, _ := request(t, env.router, http.MethodGet, "/api/leads/"+leadID, nil, aliceCookie, "")
	if status != http.StatusOK {
		t.Fatalf("expected 200 for assignee read, got %d", status)
	}

	bobCookie := login(t, env.router, "bob@example.com", "Password123!")
	status, _ = request(t, env.router, http.MethodGet, "/api/leads/"+leadID, nil, bobCookie, "")
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 for out-of-scope read, got %d", status)
	}

	status, _ = request(t, env.router, http.MethodGet, "/api/leads", nil, bobCookie, "")
	if status != http.StatusOK {
		t.Fatalf("expected 200 list, got %d", status)
	}
}

func TestOnlyAdminsCanDeleteLeads(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	seedUser(t, ctx, env.pool, "admin@example.com", "Password123!", "admin")
	aliceID := seedUser(t, ctx, env.pool, "alice@example.com", "Password123!", "user")

	adminCookie := login(t, env.router, "admin@example.com", "Password123!")
	adminCsrf := csrfToken(t, env.router, adminCookie)
	leadID := createLead(t, env.router, adminCookie, adminCsrf, env, "Grace Hopper", aliceID)

	aliceCookie := login(t, env.router, "alice@example.com", "Password123!")
	aliceCsrf := csrfToken(t, env.router, aliceCookie)
	status, _ := request(t, env.router, http.MethodDelete, "/api/leads/"+leadID, nil, aliceCookie, aliceCsrf)
	if status != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin delete, got %d", status)
	}

	status, _ = request(t, env.router, http.MethodDelete, "/api/leads/"+leadID, nil, adminCookie, adminCsrf)
	if status != http.StatusNoContent {
		t.Fatalf("expected 204 for admin delete, got %d", status)
	}
}

func TestCSVImportEndToEnd(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	seedUser(t, ctx, env.pool, "admin@example.com", "Password123!", "admin")
	aliceID := seedUser(t, ctx, env.pool, "alice@example.com", "Password123!", "user")

	adminCookie := login(t, env.router, "admin@example.com", "Password123!")
	adminCsrf := csrfToken(t, env.router, adminCookie)

	csv := "Name,Phone,Email,Product,Source,Value,Priority\n" +
		"Jane Doe,555-1234,jane@acme.test,Solar Panels,Website,2500,high\n" +
		",555-9999,missing@acme.test,Solar Panels,Website,100,low\n"

	status, body := importCSV(t, env.router, adminCookie, adminCsrf, csv, aliceID)
	if status != http.StatusOK {
		t.Fatalf("expected 200 import, got %d (%s)", status, string(body))
	}

	var summary struct {
		Count   int      `json:"count"`
		Skipped int      `json:"skipped"`
		Errors  []string `json:"errors"`
		Total   int      `json:"total"`
	}
	if err := json.Unmarshal(body, &summary); err != nil {
		t.Fatalf("parse summary: %v", err)
	}
	if summary.Count != 1 || summary.Skipped != 1 || summary.Total != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(summary.Errors) != 1 || summary.Errors[0] != "Row 3: Missing required name or phone" {
		t.Fatalf("unexpected errors: %v", summary.Errors)
	}

	aliceCookie := login(t, env.router, "alice@example.com", "Password123!")
	status, body = request(t, env.router, http.MethodGet, "/api/leads", nil, aliceCookie, "")
	if status != http.StatusOK {
		t.Fatalf("expected 200 list, got %d", status)
	}
	var list struct {
		Leads []struct {
			Name            string `json:"name"`
			ProductInterest struct {
				Name string `json:"name"`
			} `json:"productInterest"`
		} `json:"leads"`
	}
	if err := json.Unmarshal(body, &list); err != nil {
		t.Fatalf("parse list: %v", err)
	}
	if len(list.Leads) != 1 || list.Leads[0].Name != "Jane Doe" {
		t.Fatalf("unexpected leads after import: %s", string(body))
	}
	if list.Leads[0].ProductInterest.Name != "Solar Panels" {
		t.Fatalf("expected auto-created product, got %q", list.Leads[0].ProductInterest.Name)
	}
}

func TestNonAdminsCannotImport(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	aliceID := seedUser(t, ctx, env.pool, "alice@example.com", "Password123!", "user")

	aliceCookie := login(t, env.router, "alice@example.com", "Password123!")
	aliceCsrf := csrfToken(t, env.router, aliceCookie)

	status, _ := importCSV(t, env.router, aliceCookie, aliceCsrf, "name,phone\nJane,555-1\n", aliceID)
	if status != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin import, got %d", status)
	}
}

func TestSeedIsIdempotentAndLoginable(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	params := db.SeedParams{
		AdminEmail:    "admin@local.leadflow",
		AdminPassword: "Admin12345!",
		AdminName:     "Local Admin",
	}
	for i := 0; i < 2; i++ {
		if err := db.Seed(ctx, env.pool, params); err != nil {
			t.Fatalf("seed run %d: %v", i+1, err)
		}
	}

	var admins, products, sources int
	if err := env.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE lower(email) = lower($1)`, params.AdminEmail).Scan(&admins); err != nil {
		t.Fatalf("count admins: %v", err)
	}
	if err := env.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE name = 'General Service'`).Scan(&products); err != nil {
		t.Fatalf("count products: %v", err)
	}
	if err := env.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sources WHERE name = 'CSV Upload'`).Scan(&sources); err != nil {
		t.Fatalf("count sources: %v", err)
	}
	if admins != 1 || products != 1 || sources != 1 {
		t.Fatalf("expected one of each seeded row, got admins=%d products=%d sources=%d", admins, products, sources)
	}

	login(t, env.router, params.AdminEmail, params.AdminPassword)
}

func TestAdminEmployeeStats(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	seedUser(t, ctx, env.pool, "admin@example.com", "Password123!", "admin")
	aliceID := seedUser(t, ctx, env.pool, "alice@example.com", "Password123!", "user")

	adminCookie := login(t, env.router, "admin@example.com", "Password123!")
	adminCsrf := csrfToken(t, env.router, adminCookie)
	createLead(t, env.router, adminCookie, adminCsrf, env, "Stats Lead", aliceID)

	status, body := request(t, env.router, http.MethodGet, "/api/admin/users/"+aliceID.String()+"/stats", nil, adminCookie, "")
	if status != http.StatusOK {
		t.Fatalf("expected 200 employee stats, got %d (%s)", status, string(body))
	}
	var res struct {
		Stats struct {
			TotalLeads   int     `json:"totalLeads"`
			NewLeads     int     `json:"newLeads"`
			TotalCalls   int     `json:"totalCalls"`
			TotalValue   float64 `json:"totalValue"`
			AvgLeadValue float64 `json:"avgLeadValue"`
		} `json:"stats"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		t.Fatalf("parse stats: %v", err)
	}
	if res.Stats.TotalLeads != 1 || res.Stats.NewLeads != 1 || res.Stats.TotalCalls != 0 {
		t.Fatalf("unexpected stats: %s", string(body))
	}
	if res.Stats.TotalValue != 1000 || res.Stats.AvgLeadValue != 1000 {
		t.Fatalf("unexpected value stats: %s", string(body))
	}

	aliceCookie := login(t, env.router, "alice@example.com", "Password123!")
	status, _ = request(t, env.router, http.MethodGet, "/api/admin/users/"+aliceID.String()+"/stats", nil, aliceCookie, "")
	if status != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", status)
	}
}

func TestAnalyticsScopedByRole(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	seedUser(t, ctx, env.pool, "admin@example.com", "Password123!", "admin")
	aliceID := seedUser(t, ctx, env.pool, "alice@example.com", "Password123!", "user")
	bobID := seedUser(t, ctx, env.pool, "bob@example.com", "Password123!", "user")

	adminCookie := login(t, env.router, "admin@example.com", "Password123!")
	adminCsrf := csrfToken(t, env.router, adminCookie)
	createLead(t, env.router, adminCookie, adminCsrf, env, "Alice Lead", aliceID)
	createLead(t, env.router, adminCookie, adminCsrf, env, "Bob Lead", bobID)

	var report struct {
		TotalLeads      int   `json:"totalLeads"`
		UserPerformance []any `json:"userPerformance"`
	}

	status, body := request(t, env.router, http.MethodGet, "/api/analytics", nil, adminCookie, "")
	if status != http.StatusOK {
		t.Fatalf("expected 200 analytics, got %d", status)
	}
	if err := json.Unmarshal(body, &report); err != nil {
		t.Fatalf("parse analytics: %v", err)
	}
	if report.TotalLeads != 2 || len(report.UserPerformance) != 2 {
		t.Fatalf("unexpected admin report: %s", string(body))
	}

	aliceCookie := login(t, env.router, "alice@example.com", "Password123!")
	status, body = request(t, env.router, http.MethodGet, "/api/analytics", nil, aliceCookie, "")
	if status != http.StatusOK {
		t.Fatalf("expected 200 analytics, got %d", status)
	}
	if err := json.Unmarshal(body, &report); err != nil {
		t.Fatalf("parse analytics: %v", err)
	}
	if report.TotalLeads != 1 || len(report.UserPerformance) != 0 {
		t.Fatalf("unexpected scoped report: %s", string(body))
	}
}

func setupTestEnv(t *testing.T) testEnv {
	t.Helper()
	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	if _, err := os.Stat("openapi.yaml"); err != nil {
		if err := os.Chdir(filepath.Join("..", "..")); err != nil {
			t.Fatalf("chdir to module root: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("connect test db: %v", err)
	}
	t.Cleanup(pool.Close)

	resetSchema(t, ctx, pool, databaseURL)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Config{
		Addr:               ":0",
		DatabaseURL:        databaseURL,
		SessionCookieName:  testCookieName,
		SessionTTL:         12 * time.Hour,
		SecureCookies:      false,
		CSRFEnforce:        true,
		Env:                "test",
		APIMaxBodyBytes:    2 << 20,
		ImportMaxFileBytes: 25 << 20,
		ImportMaxRows:      5000,
	}

	router, err := NewRouter(cfg, pool, logger)
	if err != nil {
		t.Fatalf("create router: %v", err)
	}

	return testEnv{pool: pool, router: router}
}

func resetSchema(t *testing.T, ctx context.Context, pool *pgxpool.Pool, databaseURL string) {
	t.Helper()

	if _, err := pool.Exec(ctx, `DROP SCHEMA public CASCADE; CREATE SCHEMA public;`); err != nil {
		t.Fatalf("drop schema: %v", err)
	}

	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		t.Fatalf("open migration db: %v", err)
	}
	defer migrationDB.Close()

	if err := goose.Up(migrationDB, "migrations"); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
}

func seedUser(t *testing.T, ctx context.Context, pool *pgxpool.Pool, email, password, role string) uuid.UUID {
	t.Helper()

	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	var id uuid.UUID
	err = pool.QueryRow(ctx, `
		INSERT INTO users (email, full_name, password_hash, role, is_active)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING id`, email, email, hash, role).Scan(&id)
	if err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return id
}

// createLead seeds a product and source directly, then creates the lead
// through the API.
func createLead(t *testing.T, router http.Handler, cookie *http.Cookie, csrf string, env testEnv, name string, assignedTo uuid.UUID) string {
	t.Helper()
	ctx := context.Background()

	var creatorID uuid.UUID
	if err := env.pool.QueryRow(ctx, `SELECT id FROM users WHERE role = 'admin' LIMIT 1`).Scan(&creatorID); err != nil {
		t.Fatalf("find admin: %v", err)
	}

	var productID, sourceID uuid.UUID
	if err := env.pool.QueryRow(ctx, `
		INSERT INTO products (name, is_active, created_by) VALUES ('Test Product', TRUE, $1)
		ON CONFLICT (name) DO UPDATE SET updated_at = now()
		RETURNING id`, creatorID).Scan(&productID); err != nil {
		t.Fatalf("seed product: %v", err)
	}
	if err := env.pool.QueryRow(ctx, `
		INSERT INTO sources (name, is_active, created_by) VALUES ('Test Source', TRUE, $1)
		ON CONFLICT (name) DO UPDATE SET updated_at = now()
		RETURNING id`, creatorID).Scan(&sourceID); err != nil {
		t.Fatalf("seed source: %v", err)
	}

	payload, _ := json.Marshal(map[string]any{
		"name":            name,
		"phone":           "555-0000",
		"productInterest": productID.String(),
		"source":          sourceID.String(),
		"leadValue":       1000,
		"assignedTo":      assignedTo.String(),
	})
	status, body := request(t, router, http.MethodPost, "/api/leads", payload, cookie, csrf)
	if status != http.StatusCreated {
		t.Fatalf("create lead expected 201, got %d (%s)", status, string(body))
	}

	var res struct {
		Lead struct {
			ID string `json:"id"`
		} `json:"lead"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		t.Fatalf("parse lead: %v", err)
	}
	return res.Lead.ID
}

func importCSV(t *testing.T, router http.Handler, cookie *http.Cookie, csrf, csvText string, assignedTo uuid.UUID) (int, []byte) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "leads.csv")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(csvText)); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if err := mw.WriteField("assignedTo", assignedTo.String()); err != nil {
		t.Fatalf("write field: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/admin/leads/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.RemoteAddr = "127.0.0.1:12345"
	req.AddCookie(cookie)
	req.Header.Set("X-CSRF-Token", csrf)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	body, _ := io.ReadAll(rec.Result().Body)
	return rec.Code, body
}

func login(t *testing.T, router http.Handler, email, password string) *http.Cookie {
	t.Helper()
	payload, _ := json.Marshal(map[string]string{"email": email, "password": password})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "127.0.0.1:12345"
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		body, _ := io.ReadAll(rec.Result().Body)
		t.Fatalf("login expected 200, got %d with body: %s", rec.Code, string(body))
	}

	for _, c := range rec.Result().Cookies() {
		if c.Name == testCookieName {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func csrfToken(t *testing.T, router http.Handler, session *http.Cookie) string {
	t.Helper()
	status, body := request(t, router, http.MethodGet, "/api/auth/csrf", nil, session, "")
	if status != http.StatusOK {
		t.Fatalf("csrf expected 200, got %d (%s)", status, string(body))
	}
	var payload map[string]string
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("parse csrf body: %v", err)
	}
	return payload["csrfToken"]
}

func request(t *testing.T, router http.Handler, method, path string, body []byte, session *http.Cookie, csrf string) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.RemoteAddr = "127.0.0.1:12345"
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if session != nil {
		req.AddCookie(session)
	}
	if csrf != "" {
		req.Header.Set("X-CSRF-Token", csrf)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	resBody, _ := io.ReadAll(rec.Result().Body)
	return rec.Code, resBody
}

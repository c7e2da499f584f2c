package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/thrivewell/wellness-platform/internal/analytics"
	"github.com/thrivewell/wellness-platform/internal/appointments"
	"github.com/thrivewell/wellness-platform/internal/auth"
	"github.com/thrivewell/wellness-platform/internal/employees"
	"github.com/thrivewell/wellness-platform/internal/notify"
	"github.com/thrivewell/wellness-platform/internal/observability/metrics"
	"github.com/thrivewell/wellness-platform/pkg/logging"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mr := miniredis.RunT(t)
	sessions := auth.NewRedisSessionStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	issuer, err := auth.NewTokenIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}

	users := auth.NewInMemoryUserStore()
	if err := users.Seed(auth.User{
		ID: 1, OrgID: "org-1", Email: "admin@example.com", Role: auth.RoleAdmin,
	}, "admin-pass"); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	if err := users.Seed(auth.User{
		ID: 7, OrgID: "org-1", Email: "dana.reyes@example.com", Role: auth.RoleEmployee,
	}, "employee-pass"); err != nil {
		t.Fatalf("seed employee: %v", err)
	}

	apptRepo := appointments.NewInMemoryRepository()
	apptRepo.SetClock(func() time.Time { return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) })
	apptRepo.SeedProviders("org-1", appointments.Provider{ID: 3, Name: "Dr. Okafor", Email: "okafor@example.com", Type: "user"})
	apptRepo.SeedPartners("org-1", appointments.Provider{ID: 11, Name: "City Wellness Center", Type: "partner_organization"})

	empRepo := employees.NewInMemoryRepository()

	logger := logging.Default()
	reg := prometheus.NewRegistry()
	apptMetrics := metrics.NewAppointmentMetrics(reg)
	httpMetrics := metrics.NewHTTPMetrics(reg)

	notifier := notify.NewService(notify.NewStubEmailSender(logger), logger)

	apptHandler := appointments.NewHandler(apptRepo, notifier, apptMetrics, logger)
	handler := New(&Config{
		Logger:             logger,
		AuthHandler:        auth.NewHandler(users, issuer, sessions, logger),
		TokenIssuer:        issuer,
		Sessions:           sessions,
		AppointmentHandler: apptHandler,
		EmployeeHandler:    employees.NewHandler(empRepo, logger),
		AnalyticsHandler:   analytics.NewHandler(analytics.NewService(apptRepo, empRepo), logger),
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		HTTPMetrics:        httpMetrics,
		CORSAllowedOrigins: []string{"http://localhost:3000"},
	})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func login(t *testing.T, srv *httptest.Server, email, password string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	resp, err := http.Post(srv.URL+"/api/org/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", resp.StatusCode)
	}
	var env struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	return env.Data.Token
}

func doJSON(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{
		"/api/org/appointments",
		"/api/org/employees",
		"/api/org/dashboard/overview",
		"/api/org/employee/appointments",
	} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s status = %d, want 401", path, resp.StatusCode)
		}
	}
}

func TestEmployeeCannotUseAdminSurface(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv, "dana.reyes@example.com", "employee-pass")

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/org/appointments", token, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
}

func TestAdminCannotUseEmployeeSurface(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv, "admin@example.com", "admin-pass")

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/org/employee/appointments", token, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
}

func TestBookingLifecycleEndToEnd(t *testing.T) {
	srv := newTestServer(t)
	adminToken := login(t, srv, "admin@example.com", "admin-pass")
	empToken := login(t, srv, "dana.reyes@example.com", "employee-pass")

	// Employee discovers providers and books.
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/org/employee/appointments/available-providers", empToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("providers status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/org/employee/appointments", empToken, map[string]any{
		"provider_id":      3,
		"provider_type":    "user",
		"appointment_type": "consultation",
		"appointment_date": time.Now().AddDate(0, 0, 1).Format("2006-01-02"),
		"appointment_time": "10:30",
		"duration_minutes": 30,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("book status = %d", resp.StatusCode)
	}
	var created struct {
		Data appointments.Appointment `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode booking: %v", err)
	}
	resp.Body.Close()

	// Admin confirms, then completes.
	for _, status := range []string{"confirmed", "completed"} {
		resp = doJSON(t, http.MethodPut,
			srv.URL+"/api/org/appointments/1/status", adminToken,
			map[string]any{"status": status})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("transition to %s: status = %d", status, resp.StatusCode)
		}
		resp.Body.Close()
	}

	// Terminal state rejects further moves.
	resp = doJSON(t, http.MethodPut,
		srv.URL+"/api/org/appointments/1/status", adminToken,
		map[string]any{"status": "cancelled", "cancellation_reason": "too late"})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("terminal transition status = %d, want 422", resp.StatusCode)
	}
	resp.Body.Close()

	// Statistics reflect the completed appointment.
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/org/appointments/statistics", adminToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("statistics status = %d", resp.StatusCode)
	}
	var stats struct {
		Data appointments.Statistics `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	resp.Body.Close()
	if stats.Data.Total != 1 || stats.Data.Completed != 1 {
		t.Fatalf("unexpected stats: %+v", stats.Data)
	}
}

func TestEmployeeRosterEndToEnd(t *testing.T) {
	srv := newTestServer(t)
	adminToken := login(t, srv, "admin@example.com", "admin-pass")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/org/employees", adminToken, map[string]any{
		"firstname": "Morgan",
		"lastname":  "Liu",
		"email":     "morgan.liu@example.com",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/org/employees/1/programs", adminToken, map[string]any{
		"programs": []string{"mindfulness"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("assign status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/org/employees", adminToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
	var list struct {
		Total int `json:"total"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	resp.Body.Close()
	if list.Total != 1 {
		t.Fatalf("total = %d, want 1", list.Total)
	}
}

func TestMetricsEndpointExposed(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t)

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/api/org/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	defer resp.Body.Close()
	if resp.Header.Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Fatalf("allow-origin = %q", resp.Header.Get("Access-Control-Allow-Origin"))
	}
}

package appointments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/thrivewell/wellness-platform/internal/tenancy"
	"github.com/thrivewell/wellness-platform/pkg/logging"
)

type recordingNotifier struct {
	booked    []int64
	cancelled []int64
}

func (n *recordingNotifier) AppointmentBooked(_ context.Context, appt *Appointment) {
	n.booked = append(n.booked, appt.ID)
}

func (n *recordingNotifier) AppointmentCancelled(_ context.Context, appt *Appointment) {
	n.cancelled = append(n.cancelled, appt.ID)
}

var handlerTestClock = func() time.Time {
	return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
}

func newTestHandler(t *testing.T) (*Handler, *InMemoryRepository, *recordingNotifier) {
	t.Helper()
	repo := NewInMemoryRepository()
	repo.SetClock(handlerTestClock)
	repo.SeedProviders("org-1",
		Provider{ID: 3, Name: "Dr. Okafor", Email: "okafor@example.com", Type: "user"},
		Provider{ID: 4, Name: "Morgan Liu", Email: "liu@example.com", Type: "organization_admin"},
	)
	repo.SeedPartners("org-1",
		Provider{ID: 11, Name: "City Wellness Center", Email: "contact@citywellness.example", Type: "partner_organization"},
	)
	notifier := &recordingNotifier{}
	h := NewHandler(repo, notifier, nil, logging.Default())
	h.now = handlerTestClock
	return h, repo, notifier
}

func seedAppointment(t *testing.T, repo *InMemoryRepository, providerID, employeeID int64, date string) *Appointment {
	t.Helper()
	appt, err := repo.Create(context.Background(), "org-1", &BookingRequest{
		ProviderID:      providerID,
		ProviderType:    ProviderTypeUser,
		AppointmentType: TypeConsultation,
		AppointmentDate: date,
		AppointmentTime: "10:30",
		DurationMinutes: 30,
		Notes:           DefaultNotes,
	}, employeeID)
	if err != nil {
		t.Fatalf("seed appointment: %v", err)
	}
	return appt
}

func authedRequest(method, target string, body any, userID int64, role string) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	ctx := tenancy.WithOrgID(req.Context(), "org-1")
	ctx = tenancy.WithUser(ctx, userID, role)
	return req.WithContext(ctx)
}

func withIDParam(req *http.Request, id int64) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("id", fmt.Sprintf("%d", id))
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	return req.WithContext(ctx)
}

type listResponse struct {
	Success    bool              `json:"success"`
	Data       []json.RawMessage `json:"data"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PerPage    int               `json:"per_page"`
	TotalPages int               `json:"total_pages"`
}

type singleResponse struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

func TestListOrganization(t *testing.T) {
	h, repo, _ := newTestHandler(t)
	seedAppointment(t, repo, 3, 7, "2026-03-10")
	seedAppointment(t, repo, 4, 8, "2026-03-11")

	rec := httptest.NewRecorder()
	h.ListOrganization(rec, authedRequest(http.MethodGet, "/api/org/appointments", nil, 1, tenancy.RoleAdmin))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp listResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.Total != 2 || len(resp.Data) != 2 {
		t.Fatalf("unexpected list response: %+v", resp)
	}
	if resp.Page != 1 || resp.TotalPages != 1 {
		t.Fatalf("pagination envelope wrong: %+v", resp)
	}
}

func TestListOrganizationMissingContext(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.ListOrganization(rec, httptest.NewRequest(http.MethodGet, "/api/org/appointments", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestListMineFiltersByProvider(t *testing.T) {
	h, repo, _ := newTestHandler(t)
	mine := seedAppointment(t, repo, 4, 7, "2026-03-10")
	seedAppointment(t, repo, 3, 7, "2026-03-11")

	rec := httptest.NewRecorder()
	h.ListMine(rec, authedRequest(http.MethodGet, "/api/org/appointments/my-appointments", nil, 4, tenancy.RoleAdmin))

	var resp listResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 1 {
		t.Fatalf("total = %d, want 1", resp.Total)
	}
	var appt Appointment
	if err := json.Unmarshal(resp.Data[0], &appt); err != nil {
		t.Fatalf("decode item: %v", err)
	}
	if appt.ID != mine.ID {
		t.Fatalf("got appointment %d, want %d", appt.ID, mine.ID)
	}
}

func TestListEmployeeScopesToSelf(t *testing.T) {
	h, repo, _ := newTestHandler(t)
	seedAppointment(t, repo, 3, 7, "2026-03-10")
	seedAppointment(t, repo, 3, 8, "2026-03-10")

	rec := httptest.NewRecorder()
	h.ListEmployee(rec, authedRequest(http.MethodGet, "/api/org/employee/appointments", nil, 7, tenancy.RoleEmployee))

	var resp listResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 1 {
		t.Fatalf("total = %d, want 1", resp.Total)
	}
}

func TestGetNotFound(t *testing.T) {
	h, _, _ := newTestHandler(t)

	req := withIDParam(authedRequest(http.MethodGet, "/api/org/appointments/999", nil, 1, tenancy.RoleAdmin), 999)
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var resp singleResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Success || resp.Message == "" {
		t.Fatalf("error envelope wrong: %+v", resp)
	}
}

func TestGetInvalidID(t *testing.T) {
	h, _, _ := newTestHandler(t)

	req := authedRequest(http.MethodGet, "/api/org/appointments/abc", nil, 1, tenancy.RoleAdmin)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("id", "abc")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rec := httptest.NewRecorder()
	h.Get(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestBook(t *testing.T) {
	h, _, notifier := newTestHandler(t)

	body := map[string]any{
		"provider_id":      3,
		"provider_type":    "user",
		"appointment_type": "consultation",
		"appointment_date": "2026-03-10",
		"appointment_time": "10:30",
		"duration_minutes": 30,
	}
	rec := httptest.NewRecorder()
	h.Book(rec, authedRequest(http.MethodPost, "/api/org/employee/appointments", body, 7, tenancy.RoleEmployee))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var resp singleResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	var appt Appointment
	if err := json.Unmarshal(resp.Data, &appt); err != nil {
		t.Fatalf("decode appointment: %v", err)
	}
	if appt.Status != StatusScheduled {
		t.Fatalf("status = %s, want scheduled", appt.Status)
	}
	if appt.Notes != DefaultNotes {
		t.Fatalf("notes = %q, want default", appt.Notes)
	}
	if appt.EmployeeID != 7 {
		t.Fatalf("employee_id = %d, want 7", appt.EmployeeID)
	}
	if len(notifier.booked) != 1 {
		t.Fatalf("notifier.booked = %v, want one entry", notifier.booked)
	}
}

func TestBookValidationErrors(t *testing.T) {
	h, _, notifier := newTestHandler(t)

	body := map[string]any{
		"provider_id":      3,
		"provider_type":    "user",
		"appointment_type": "consultation",
		"appointment_date": "2026-02-01",
		"appointment_time": "10:30",
		"duration_minutes": 25,
	}
	rec := httptest.NewRecorder()
	h.Book(rec, authedRequest(http.MethodPost, "/api/org/employee/appointments", body, 7, tenancy.RoleEmployee))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	var resp singleResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Success {
		t.Fatal("success = true on validation failure")
	}
	if _, ok := resp.Errors["appointment_date"]; !ok {
		t.Fatalf("expected appointment_date error, got %v", resp.Errors)
	}
	if _, ok := resp.Errors["duration_minutes"]; !ok {
		t.Fatalf("expected duration_minutes error, got %v", resp.Errors)
	}
	if len(notifier.booked) != 0 {
		t.Fatal("notifier called on failed booking")
	}
}

func TestBookUnknownProvider(t *testing.T) {
	h, _, _ := newTestHandler(t)

	body := map[string]any{
		"provider_id":      99,
		"provider_type":    "user",
		"appointment_type": "consultation",
		"appointment_date": "2026-03-10",
		"appointment_time": "10:30",
		"duration_minutes": 30,
	}
	rec := httptest.NewRecorder()
	h.Book(rec, authedRequest(http.MethodPost, "/api/org/employee/appointments", body, 7, tenancy.RoleEmployee))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	var resp singleResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := resp.Errors["provider_id"]; !ok {
		t.Fatalf("expected provider_id error, got %v", resp.Errors)
	}
}

func TestBookMalformedBody(t *testing.T) {
	h, _, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/org/employee/appointments", bytes.NewBufferString("{"))
	ctx := tenancy.WithOrgID(req.Context(), "org-1")
	ctx = tenancy.WithUser(ctx, 7, tenancy.RoleEmployee)
	rec := httptest.NewRecorder()
	h.Book(rec, req.WithContext(ctx))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestUpdateStatusConfirm(t *testing.T) {
	h, repo, _ := newTestHandler(t)
	appt := seedAppointment(t, repo, 3, 7, "2026-03-10")

	body := map[string]any{"status": "confirmed"}
	req := withIDParam(authedRequest(http.MethodPut, "/api/org/appointments/1/status", body, 1, tenancy.RoleAdmin), appt.ID)
	rec := httptest.NewRecorder()
	h.UpdateStatus(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp singleResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	var updated Appointment
	if err := json.Unmarshal(resp.Data, &updated); err != nil {
		t.Fatalf("decode appointment: %v", err)
	}
	if updated.Status != StatusConfirmed {
		t.Fatalf("status = %s, want confirmed", updated.Status)
	}
}

func TestUpdateStatusCancelNotifies(t *testing.T) {
	h, repo, notifier := newTestHandler(t)
	appt := seedAppointment(t, repo, 3, 7, "2026-03-10")

	body := map[string]any{"status": "cancelled", "cancellation_reason": "employee unavailable"}
	req := withIDParam(authedRequest(http.MethodPut, "/api/org/appointments/1/status", body, 1, tenancy.RoleAdmin), appt.ID)
	rec := httptest.NewRecorder()
	h.UpdateStatus(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if len(notifier.cancelled) != 1 || notifier.cancelled[0] != appt.ID {
		t.Fatalf("notifier.cancelled = %v, want [%d]", notifier.cancelled, appt.ID)
	}
}

func TestUpdateStatusCancelRequiresReason(t *testing.T) {
	h, repo, notifier := newTestHandler(t)
	appt := seedAppointment(t, repo, 3, 7, "2026-03-10")

	body := map[string]any{"status": "cancelled", "cancellation_reason": "   "}
	req := withIDParam(authedRequest(http.MethodPut, "/api/org/appointments/1/status", body, 1, tenancy.RoleAdmin), appt.ID)
	rec := httptest.NewRecorder()
	h.UpdateStatus(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	var resp singleResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := resp.Errors["cancellation_reason"]; !ok {
		t.Fatalf("expected cancellation_reason error, got %v", resp.Errors)
	}
	if len(notifier.cancelled) != 0 {
		t.Fatal("notifier called on rejected cancellation")
	}
}

func TestUpdateStatusTerminal(t *testing.T) {
	h, repo, _ := newTestHandler(t)
	appt := seedAppointment(t, repo, 3, 7, "2026-03-10")
	if _, err := repo.UpdateStatus(context.Background(), "org-1", appt.ID, &StatusUpdate{Status: StatusCompleted}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	body := map[string]any{"status": "confirmed"}
	req := withIDParam(authedRequest(http.MethodPut, "/api/org/appointments/1/status", body, 1, tenancy.RoleAdmin), appt.ID)
	rec := httptest.NewRecorder()
	h.UpdateStatus(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestStatisticsEndpoint(t *testing.T) {
	h, repo, _ := newTestHandler(t)
	appt := seedAppointment(t, repo, 3, 7, "2026-03-10")
	seedAppointment(t, repo, 3, 8, "2026-03-11")
	if _, err := repo.UpdateStatus(context.Background(), "org-1", appt.ID, &StatusUpdate{Status: StatusCompleted}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	rec := httptest.NewRecorder()
	h.Statistics(rec, authedRequest(http.MethodGet, "/api/org/appointments/statistics", nil, 1, tenancy.RoleAdmin))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp singleResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	var stats Statistics
	if err := json.Unmarshal(resp.Data, &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Total != 2 || stats.Completed != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.CompletionRate != 50 {
		t.Fatalf("completion rate = %v, want 50", stats.CompletionRate)
	}
}

func TestStatisticsHalfOpenRange(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.Statistics(rec, authedRequest(http.MethodGet, "/api/org/appointments/statistics?start_date=2026-03-01", nil, 1, tenancy.RoleAdmin))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 when only start_date given", rec.Code)
	}
}

func TestStatisticsMalformedDates(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.Statistics(rec, authedRequest(http.MethodGet, "/api/org/appointments/statistics?start_date=yesterday&end_date=tomorrow", nil, 1, tenancy.RoleAdmin))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for unparsable dates", rec.Code)
	}
}

func TestProvidersEndpoint(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.Providers(rec, authedRequest(http.MethodGet, "/api/org/employee/appointments/available-providers", nil, 7, tenancy.RoleEmployee))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp singleResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	var providers []Provider
	if err := json.Unmarshal(resp.Data, &providers); err != nil {
		t.Fatalf("decode providers: %v", err)
	}
	if len(providers) != 2 {
		t.Fatalf("providers = %d, want 2", len(providers))
	}
}

func TestPartnersEndpoint(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.Partners(rec, authedRequest(http.MethodGet, "/api/org/appointments/available-partners", nil, 1, tenancy.RoleAdmin))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp singleResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	var partners []Provider
	if err := json.Unmarshal(resp.Data, &partners); err != nil {
		t.Fatalf("decode partners: %v", err)
	}
	if len(partners) != 1 || partners[0].Name != "City Wellness Center" {
		t.Fatalf("unexpected partners: %+v", partners)
	}
}

package adminhandler

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"dawaam/internal/domain/account"
	"dawaam/internal/domain/audit"
	"dawaam/internal/domain/auth"
	"dawaam/internal/domain/leads"
	"dawaam/internal/domain/notifications"
	"dawaam/internal/domain/timesheet"
	"dawaam/internal/platform/jobs"
	"dawaam/internal/platform/metrics"
	"dawaam/internal/reports"
	"dawaam/internal/transport/http/api"
	"dawaam/internal/transport/http/middleware"
	"dawaam/internal/transport/http/shared"
)

type Handler struct {
	Accounts   *account.Service
	Leads      *leads.Store
	Timesheets *timesheet.Service
	Audit      *audit.Service
	Metrics    *metrics.Collector
	Jobs       *jobs.Service
	Reminder   jobs.Runner
	Notify     *notifications.Service
}

func NewHandler(accounts *account.Service, leadStore *leads.Store, timesheets *timesheet.Service, auditSvc *audit.Service, collector *metrics.Collector, jobsSvc *jobs.Service, reminder jobs.Runner, notify *notifications.Service) *Handler {
	return &Handler{
		Accounts:   accounts,
		Leads:      leadStore,
		Timesheets: timesheets,
		Audit:      auditSvc,
		Metrics:    collector,
		Jobs:       jobsSvc,
		Reminder:   reminder,
		Notify:     notify,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireRole(auth.RoleAdmin))
		r.Post("/users", h.handleCreateUser)
		r.Get("/users", h.handleListUsers)
		r.Delete("/users/{userID}", h.handleDeleteUser)
		r.Post("/users/{userID}/active", h.handleSetUserActive)
		r.Get("/leads", h.handleListLeads)
		r.Get("/leads/export.csv", h.handleExportLeadsCSV)
		r.Get("/reports/timesheets.xlsx", h.handleTimesheetReport)
		r.Get("/metrics", h.handleMetrics)
		r.Get("/audit", h.handleListAudit)
		r.Get("/notifications", h.handleListNotifications)
		r.Post("/reminders/run", h.handleRunReminder)
	})
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var payload account.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("email", payload.Email, "email is required")
	v.Required("firstName", payload.FirstName, "first name is required")
	v.Required("lastName", payload.LastName, "last name is required")
	v.Required("role", payload.Role, "role is required")
	v.Enum("role", payload.Role, []string{auth.RoleContractor, auth.RoleEmployer, auth.RoleSupervisor, auth.RoleAdmin}, "unknown role")
	if len(payload.Password) < 10 {
		v.Add("password", "password must be at least 10 characters")
	}
	if v.Reject(w, requestID) {
		return
	}

	acc, err := h.Accounts.Create(r.Context(), payload)
	if err != nil {
		if errors.Is(err, account.ErrEmailTaken) {
			api.Fail(w, http.StatusConflict, "conflict", "email already registered", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "user_create_failed", "failed to create account", requestID)
		return
	}

	h.recordAudit(r, "account.create", strconv.FormatInt(acc.ID, 10), nil, acc)
	api.Created(w, acc, requestID)
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 50, 200)

	accounts, total, err := h.Accounts.Store.List(r.Context(), page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "user_list_failed", "failed to list accounts", requestID)
		return
	}
	api.Success(w, map[string]any{"users": accounts, "total": total, "limit": page.Limit, "offset": page.Offset}, requestID)
}

func (h *Handler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || id <= 0 {
		api.Fail(w, http.StatusNotFound, "not_found", "account not found", requestID)
		return
	}
	if acc, ok := middleware.GetAccount(r.Context()); ok && acc.AccountID == id {
		api.Fail(w, http.StatusConflict, "conflict", "cannot delete your own account", requestID)
		return
	}

	if err := h.Accounts.Store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, account.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "account not found", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "user_delete_failed", "failed to delete account", requestID)
		return
	}

	h.recordAudit(r, "account.delete", strconv.FormatInt(id, 10), nil, nil)
	api.Success(w, map[string]string{"status": "deleted"}, requestID)
}

func (h *Handler) handleSetUserActive(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || id <= 0 {
		api.Fail(w, http.StatusNotFound, "not_found", "account not found", requestID)
		return
	}

	var payload struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	if acc, ok := middleware.GetAccount(r.Context()); ok && acc.AccountID == id && !payload.Active {
		api.Fail(w, http.StatusConflict, "conflict", "cannot deactivate your own account", requestID)
		return
	}

	if err := h.Accounts.Store.SetActive(r.Context(), id, payload.Active); err != nil {
		if errors.Is(err, account.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "account not found", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "user_update_failed", "failed to update account", requestID)
		return
	}

	h.recordAudit(r, "account.set_active", strconv.FormatInt(id, 10), nil, payload)
	api.Success(w, map[string]any{"status": "updated", "active": payload.Active}, requestID)
}

func (h *Handler) handleListLeads(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 50, 200)

	list, total, err := h.Leads.List(r.Context(), leads.ListFilter{
		Kind:   r.URL.Query().Get("kind"),
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "lead_list_failed", "failed to list leads", requestID)
		return
	}
	api.Success(w, map[string]any{"leads": list, "total": total, "limit": page.Limit, "offset": page.Offset}, requestID)
}

func (h *Handler) handleExportLeadsCSV(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	list, _, err := h.Leads.List(r.Context(), leads.ListFilter{
		Kind:   r.URL.Query().Get("kind"),
		Limit:  10000,
		Offset: 0,
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "lead_export_failed", "failed to export leads", requestID)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="leads.csv"`)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"id", "kind", "name", "email", "phone", "company", "message", "createdAt"})
	for _, l := range list {
		_ = cw.Write([]string{
			strconv.FormatInt(l.ID, 10),
			string(l.Kind),
			l.Name,
			l.Email,
			l.Phone,
			l.Company,
			l.Message,
			l.CreatedAt.Format(time.RFC3339),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		slog.Warn("lead csv write failed", "err", err)
	}
}

func (h *Handler) handleTimesheetReport(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	sheets, _, err := h.Timesheets.List(r.Context(), timesheet.ListFilter{Limit: 10000})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to load timesheets", requestID)
		return
	}

	now := time.Now()
	workbook, err := reports.TimesheetWorkbook(sheets, now)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to build report", requestID)
		return
	}
	h.Metrics.RecordXLSXExport()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="timesheets_%s.xlsx"`, now.Format("2006-01-02")))
	if _, err := w.Write(workbook); err != nil {
		slog.Warn("report write failed", "err", err)
	}
}

func (h *Handler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	api.Success(w, h.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListAudit(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 50, 200)

	filter := audit.Filter{
		Action:     r.URL.Query().Get("action"),
		EntityType: r.URL.Query().Get("entityType"),
		ActorEmail: r.URL.Query().Get("actor"),
	}
	includeDetails := r.URL.Query().Get("details") == "true"

	total, err := h.Audit.Count(r.Context(), filter)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "audit_list_failed", "failed to count audit events", requestID)
		return
	}
	events, err := h.Audit.List(r.Context(), filter, includeDetails, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "audit_list_failed", "failed to list audit events", requestID)
		return
	}

	api.Success(w, map[string]any{"events": events, "total": total, "limit": page.Limit, "offset": page.Offset}, requestID)
}

func (h *Handler) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 50, 200)

	list, err := h.Notify.List(r.Context(), page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "notification_list_failed", "failed to list notifications", requestID)
		return
	}
	api.Success(w, map[string]any{"notifications": list, "limit": page.Limit, "offset": page.Offset}, requestID)
}

func (h *Handler) handleRunReminder(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	details, err := h.Jobs.RunNow(r.Context(), jobs.JobPendingReminder, h.Reminder)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "job_failed", "reminder job failed", requestID)
		return
	}
	api.Success(w, map[string]any{"status": "completed", "details": details}, requestID)
}

func (h *Handler) recordAudit(r *http.Request, action, entityID string, before, after any) {
	actor := ""
	if acc, ok := middleware.GetAccount(r.Context()); ok {
		actor = acc.Email
	}
	err := h.Audit.Record(r.Context(), actor, action, "account", entityID,
		middleware.GetRequestID(r.Context()), shared.ClientIP(r), before, after)
	if err != nil {
		slog.Warn("audit record failed", "action", action, "err", err)
	}
}

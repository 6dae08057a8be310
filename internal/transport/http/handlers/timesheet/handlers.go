package timesheethandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"dawaam/internal/domain/account"
	"dawaam/internal/domain/audit"
	"dawaam/internal/domain/auth"
	"dawaam/internal/domain/notifications"
	"dawaam/internal/domain/timesheet"
	"dawaam/internal/pdf"
	"dawaam/internal/platform/idempotency"
	"dawaam/internal/platform/metrics"
	"dawaam/internal/transport/http/api"
	"dawaam/internal/transport/http/middleware"
	"dawaam/internal/transport/http/shared"
)

type Handler struct {
	Service     *timesheet.Service
	Accounts    *account.Store
	Notify      *notifications.Service
	Audit       *audit.Service
	Metrics     *metrics.Collector
	Idem        *idempotency.Store
	OfficeEmail string
}

func NewHandler(service *timesheet.Service, accounts *account.Store, notify *notifications.Service, auditSvc *audit.Service, collector *metrics.Collector, idem *idempotency.Store, officeEmail string) *Handler {
	return &Handler{Service: service, Accounts: accounts, Notify: notify, Audit: auditSvc, Metrics: collector, Idem: idem, OfficeEmail: officeEmail}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/timesheets", func(r chi.Router) {
		r.With(
			middleware.RequireRole(auth.RoleContractor, auth.RoleAdmin),
			middleware.Idempotency(h.Idem),
		).Post("/", h.handleSubmit)
		r.With(middleware.RequireRole(auth.RoleSupervisor, auth.RoleAdmin)).Get("/pending-approval", h.handleListPending)
		r.With(middleware.RequireRole(auth.RoleSupervisor, auth.RoleAdmin, auth.RoleEmployer)).Get("/", h.handleList)
		authenticated := middleware.RequireRole(auth.RoleContractor, auth.RoleEmployer, auth.RoleSupervisor, auth.RoleAdmin)
		r.With(authenticated).Get("/{timesheetID}", h.handleGet)
		r.With(authenticated).Get("/{timesheetID}/pdf", h.handleExportPDF)
		r.With(middleware.RequireRole(auth.RoleSupervisor, auth.RoleAdmin)).Post("/{timesheetID}/approve", h.handleApprove)
		r.With(middleware.RequireRole(auth.RoleSupervisor, auth.RoleAdmin)).Post("/{timesheetID}/reject", h.handleReject)
		r.With(middleware.RequireRole(auth.RoleAdmin)).Delete("/{timesheetID}", h.handleDelete)
	})
}

type dayPayload struct {
	Date        string  `json:"date"`
	Hours       float64 `json:"hours"`
	StartTime   string  `json:"startTime"`
	EndTime     string  `json:"endTime"`
	Description string  `json:"description"`
	Location    string  `json:"location"`
}

type submitRequest struct {
	FirstName       string       `json:"firstName"`
	LastName        string       `json:"lastName"`
	Email           string       `json:"email"`
	Company         string       `json:"company"`
	Department      string       `json:"department"`
	JobTitle        string       `json:"jobTitle"`
	PeriodType      string       `json:"periodType"`
	PeriodStart     string       `json:"periodStart"`
	RateType        string       `json:"rateType"`
	WorkLocation    string       `json:"workLocation"`
	WorkDescription string       `json:"workDescription"`
	SupervisorName  string       `json:"supervisorName"`
	Days            []dayPayload `json:"days"`
	Signature       string       `json:"signature"`
}

type approveRequest struct {
	Signature    string `json:"signature"`
	ApproverName string `json:"approverName"`
}

type rejectRequest struct {
	Reason       string `json:"reason"`
	RejectorName string `json:"rejectorName"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var payload submitRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("firstName", payload.FirstName, "first name is required")
	v.Required("lastName", payload.LastName, "last name is required")
	v.Required("email", payload.Email, "email is required")
	v.Required("company", payload.Company, "company is required")
	v.Required("department", payload.Department, "department is required")
	v.Required("jobTitle", payload.JobTitle, "job title is required")
	v.Required("workLocation", payload.WorkLocation, "work location is required")
	v.Required("workDescription", payload.WorkDescription, "work description is required")
	v.Required("supervisorName", payload.SupervisorName, "supervisor name is required")
	v.Required("periodType", payload.PeriodType, "period type is required")
	v.Enum("periodType", payload.PeriodType, []string{timesheet.PeriodWeekly, timesheet.PeriodMonthly}, "period type must be weekly or monthly")
	v.Required("rateType", payload.RateType, "rate type is required")
	v.Enum("rateType", payload.RateType, []string{timesheet.RateHourly, timesheet.RateDaily}, "rate type must be hourly or daily")
	v.Required("signature", payload.Signature, "signature is required")
	periodStart, _ := v.Date("periodStart", payload.PeriodStart)
	if v.Reject(w, requestID) {
		return
	}

	days := make([]timesheet.DayInput, 0, len(payload.Days))
	for i, d := range payload.Days {
		date, err := shared.ParseDate(d.Date)
		if err != nil {
			shared.FailValidation(w, requestID, []shared.ValidationIssue{{
				Field:  fmt.Sprintf("days[%d].date", i),
				Reason: "must be a valid date in YYYY-MM-DD format",
			}})
			return
		}
		days = append(days, timesheet.DayInput{
			Date:        date,
			Hours:       d.Hours,
			StartTime:   d.StartTime,
			EndTime:     d.EndTime,
			Description: d.Description,
			Location:    d.Location,
		})
	}

	sheet, err := h.Service.Submit(r.Context(), timesheet.SubmitInput{
		FirstName:       payload.FirstName,
		LastName:        payload.LastName,
		ContractorEmail: payload.Email,
		Company:         payload.Company,
		Department:      payload.Department,
		JobTitle:        payload.JobTitle,
		PeriodType:      payload.PeriodType,
		PeriodStart:     periodStart,
		RateType:        payload.RateType,
		WorkLocation:    payload.WorkLocation,
		WorkDescription: payload.WorkDescription,
		SupervisorName:  payload.SupervisorName,
		Days:            days,
		Signature:       []byte(payload.Signature),
		SignedAt:        time.Now(),
	})
	if err != nil {
		h.failSubmit(w, requestID, err)
		return
	}

	h.recordAudit(r, "timesheet.submit", sheet.ID, nil, sheet)
	h.Notify.Notify(r.Context(), h.OfficeEmail, notifications.TypeTimesheetSubmitted,
		"Timesheet submitted",
		fmt.Sprintf("%s %s submitted a timesheet for %s (%s hours).",
			sheet.FirstName, sheet.LastName, sheet.PeriodText, pdf.FormatHours(sheet.TotalHours)))

	api.Created(w, sheet, requestID)
}

func (h *Handler) failSubmit(w http.ResponseWriter, requestID string, err error) {
	switch {
	case errors.Is(err, timesheet.ErrSignatureRequired):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "signature", Reason: "signature is required"}})
	case errors.Is(err, timesheet.ErrInvalidPeriod):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "periodType", Reason: err.Error()}})
	case errors.Is(err, timesheet.ErrInvalidEntries):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "days", Reason: err.Error()}})
	default:
		api.Fail(w, http.StatusInternalServerError, "timesheet_submit_failed", "failed to save timesheet", requestID)
	}
}

func (h *Handler) handleListPending(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	sheets, err := h.Service.ListPending(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "timesheet_list_failed", "failed to list pending timesheets", requestID)
		return
	}
	api.Success(w, map[string]any{"timesheets": sheets, "count": len(sheets)}, requestID)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 50, 200)

	filter := timesheet.ListFilter{
		Status:          r.URL.Query().Get("status"),
		ContractorEmail: r.URL.Query().Get("email"),
		Limit:           page.Limit,
		Offset:          page.Offset,
	}
	sheets, total, err := h.Service.List(r.Context(), filter)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "timesheet_list_failed", "failed to list timesheets", requestID)
		return
	}
	api.Success(w, map[string]any{"timesheets": sheets, "total": total, "limit": page.Limit, "offset": page.Offset}, requestID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	id, ok := h.timesheetID(w, r)
	if !ok {
		return
	}
	sheet, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.failLookup(w, requestID, err, "failed to load timesheet")
		return
	}
	if !h.canView(r, sheet) {
		api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", requestID)
		return
	}
	api.Success(w, sheet, requestID)
}

// canView scopes single-record reads: supervisors and admins see every
// sheet, contractors only their own, employers only their company's.
func (h *Handler) canView(r *http.Request, sheet timesheet.Timesheet) bool {
	acc, ok := middleware.GetAccount(r.Context())
	if !ok {
		return false
	}
	switch acc.Role {
	case auth.RoleAdmin, auth.RoleSupervisor:
		return true
	case auth.RoleContractor:
		return strings.EqualFold(acc.Email, sheet.ContractorEmail)
	case auth.RoleEmployer:
		actor, err := h.Accounts.Get(r.Context(), acc.AccountID)
		if err != nil {
			return false
		}
		return actor.Company != "" && strings.EqualFold(actor.Company, sheet.Company)
	}
	return false
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	id, ok := h.timesheetID(w, r)
	if !ok {
		return
	}

	var payload approveRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	v := shared.NewValidator()
	v.Required("signature", payload.Signature, "supervisor signature is required")
	v.Required("approverName", payload.ApproverName, "approver name is required")
	if v.Reject(w, requestID) {
		return
	}

	sheet, err := h.Service.Approve(r.Context(), id, []byte(payload.Signature), payload.ApproverName)
	if err != nil {
		h.failTransition(w, requestID, err, "signature", "supervisor signature is required")
		return
	}

	h.recordAudit(r, "timesheet.approve", sheet.ID, nil, map[string]any{"status": sheet.Status, "approverName": sheet.ApproverName})
	h.Notify.Notify(r.Context(), sheet.ContractorEmail, notifications.TypeTimesheetApproved,
		"Timesheet approved",
		fmt.Sprintf("Your timesheet for %s was approved by %s.", sheet.PeriodText, payload.ApproverName))

	api.Success(w, sheet, requestID)
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	id, ok := h.timesheetID(w, r)
	if !ok {
		return
	}

	var payload rejectRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	v := shared.NewValidator()
	v.Required("reason", payload.Reason, "rejection reason is required")
	v.Required("rejectorName", payload.RejectorName, "rejector name is required")
	if v.Reject(w, requestID) {
		return
	}

	sheet, err := h.Service.Reject(r.Context(), id, payload.Reason, payload.RejectorName)
	if err != nil {
		h.failTransition(w, requestID, err, "reason", "rejection reason is required")
		return
	}

	h.recordAudit(r, "timesheet.reject", sheet.ID, nil, map[string]any{"status": sheet.Status, "rejectionReason": sheet.RejectionReason})
	h.Notify.Notify(r.Context(), sheet.ContractorEmail, notifications.TypeTimesheetRejected,
		"Timesheet rejected",
		fmt.Sprintf("Your timesheet for %s was rejected by %s: %s", sheet.PeriodText, payload.RejectorName, payload.Reason))

	api.Success(w, sheet, requestID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	id, ok := h.timesheetID(w, r)
	if !ok {
		return
	}
	if err := h.Service.Delete(r.Context(), id); err != nil {
		h.failLookup(w, requestID, err, "failed to delete timesheet")
		return
	}
	h.recordAudit(r, "timesheet.delete", id, nil, nil)
	api.Success(w, map[string]string{"status": "deleted"}, requestID)
}

func (h *Handler) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	id, ok := h.timesheetID(w, r)
	if !ok {
		return
	}
	variant, err := pdf.ParseVariant(r.URL.Query().Get("variant"))
	if err != nil {
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "variant", Reason: "must be calendar or table"}})
		return
	}

	sheet, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.failLookup(w, requestID, err, "failed to load timesheet")
		return
	}
	if !h.canView(r, sheet) {
		api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", requestID)
		return
	}

	doc, err := pdf.Render(sheet, variant, time.Now())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "pdf_export_failed", "failed to generate pdf", requestID)
		return
	}
	h.Metrics.RecordPDFExport()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", pdf.Filename(sheet, time.Now())))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc)))
	if _, err := w.Write(doc); err != nil {
		slog.Warn("pdf write failed", "timesheetId", id, "err", err)
	}
}

func (h *Handler) timesheetID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "timesheetID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		api.Fail(w, http.StatusNotFound, "not_found", "timesheet not found", middleware.GetRequestID(r.Context()))
		return 0, false
	}
	return id, true
}

func (h *Handler) failLookup(w http.ResponseWriter, requestID string, err error, message string) {
	if errors.Is(err, timesheet.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "timesheet not found", requestID)
		return
	}
	api.Fail(w, http.StatusInternalServerError, "timesheet_failed", message, requestID)
}

func (h *Handler) failTransition(w http.ResponseWriter, requestID string, err error, field, fieldReason string) {
	switch {
	case errors.Is(err, timesheet.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "timesheet not found", requestID)
	case errors.Is(err, timesheet.ErrNotPending):
		api.Fail(w, http.StatusConflict, "conflict", "timesheet already processed", requestID)
	case errors.Is(err, timesheet.ErrSignatureRequired), errors.Is(err, timesheet.ErrReasonRequired):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: field, Reason: fieldReason}})
	default:
		api.Fail(w, http.StatusInternalServerError, "timesheet_failed", "failed to update timesheet", requestID)
	}
}

func (h *Handler) recordAudit(r *http.Request, action string, entityID int64, before, after any) {
	actor := ""
	if acc, ok := middleware.GetAccount(r.Context()); ok {
		actor = acc.Email
	}
	err := h.Audit.Record(r.Context(), actor, action, "timesheet", strconv.FormatInt(entityID, 10),
		middleware.GetRequestID(r.Context()), shared.ClientIP(r), before, after)
	if err != nil {
		slog.Warn("audit record failed", "action", action, "err", err)
	}
}

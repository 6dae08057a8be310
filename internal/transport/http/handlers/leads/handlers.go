package leadshandler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"dawaam/internal/domain/leads"
	"dawaam/internal/domain/notifications"
	"dawaam/internal/transport/http/api"
	"dawaam/internal/transport/http/middleware"
	"dawaam/internal/transport/http/shared"
)

type Handler struct {
	Store       *leads.Store
	Notify      *notifications.Service
	OfficeEmail string
}

func NewHandler(store *leads.Store, notify *notifications.Service, officeEmail string) *Handler {
	return &Handler{Store: store, Notify: notify, OfficeEmail: officeEmail}
}

// RegisterRoutes mounts the public enquiry endpoints. These are the only
// unauthenticated mutations in the API, which is why they sit behind the
// rate limiter applied at the router level.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/leads/{kind}", h.handleSubmit)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	kind, ok := leads.ParseKind(chi.URLParam(r, "kind"))
	if !ok {
		api.Fail(w, http.StatusNotFound, "not_found", "unknown enquiry form", requestID)
		return
	}

	var sub leads.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	if issues := leads.Validate(kind, &sub); len(issues) > 0 {
		fields := make([]shared.ValidationIssue, 0, len(issues))
		for _, issue := range issues {
			fields = append(fields, shared.ValidationIssue{Field: issue.Field, Reason: issue.Message})
		}
		shared.FailValidation(w, requestID, fields)
		return
	}

	id, err := h.Store.Insert(r.Context(), kind, &sub)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "lead_submit_failed", "failed to save enquiry", requestID)
		return
	}

	h.Notify.Notify(r.Context(), h.OfficeEmail, notifications.TypeLeadReceived,
		fmt.Sprintf("New %s enquiry", kind),
		fmt.Sprintf("%s (%s) submitted a %s enquiry.", sub.Name, sub.Email, kind))

	api.Created(w, map[string]any{"id": id, "kind": kind}, requestID)
}

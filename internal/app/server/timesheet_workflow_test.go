package server_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestTimesheetSubmitApproveWorkflow(t *testing.T) {
	app, mailer := setupApp(t)
	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	client := ts.Client()

	adminToken := login(t, client, ts.URL, "admin@test.local", "ChangeMe123!")

	contractorEmail := fmtUnique("contractor", time.Now().UnixNano())
	createAccount(t, client, ts.URL, adminToken, contractorEmail, "contractor")
	contractorToken := login(t, client, ts.URL, contractorEmail, "Passw0rd!Test")

	// Submit: 5 worked days at 8h plus a zero-hour weekend.
	resp, env := doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/timesheets", contractorToken,
		submitPayload(contractorEmail), nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("submit: got %d (%+v)", resp.StatusCode, env.Error)
	}

	var sheet struct {
		ID         int64   `json:"id"`
		Status     string  `json:"status"`
		TotalHours float64 `json:"totalHours"`
		TotalDays  int     `json:"totalDays"`
		PeriodText string  `json:"periodText"`
	}
	if err := json.Unmarshal(env.Data, &sheet); err != nil {
		t.Fatalf("decode submit response: %v", err)
	}
	if sheet.Status != "pending" {
		t.Fatalf("status = %s, want pending", sheet.Status)
	}
	if sheet.TotalHours != 40 || sheet.TotalDays != 5 {
		t.Fatalf("aggregates = %v hours / %d days, want 40 / 5", sheet.TotalHours, sheet.TotalDays)
	}
	if sheet.PeriodText != "Week of 1/6/2025" {
		t.Fatalf("periodText = %q", sheet.PeriodText)
	}

	// The sheet shows up in the approval queue.
	resp, env = doJSON(t, client, http.MethodGet, ts.URL+"/api/v1/timesheets/pending-approval", adminToken, nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("pending list: got %d (%+v)", resp.StatusCode, env.Error)
	}
	var queue struct {
		Timesheets []struct {
			ID int64 `json:"id"`
		} `json:"timesheets"`
	}
	if err := json.Unmarshal(env.Data, &queue); err != nil {
		t.Fatalf("decode pending list: %v", err)
	}
	found := false
	for _, item := range queue.Timesheets {
		if item.ID == sheet.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("sheet %d missing from approval queue", sheet.ID)
	}

	// Approve without a signature is a validation error.
	resp, _ = doJSON(t, client, http.MethodPost, ts.URL+urlID("/api/v1/timesheets/%d/approve", sheet.ID), adminToken,
		map[string]string{"signature": "", "approverName": "Omar K"}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("approve without signature: got %d, want 400", resp.StatusCode)
	}

	// Approve for real.
	resp, env = doJSON(t, client, http.MethodPost, ts.URL+urlID("/api/v1/timesheets/%d/approve", sheet.ID), adminToken,
		map[string]string{"signature": "supervisor-signature", "approverName": "Omar K"}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("approve: got %d (%+v)", resp.StatusCode, env.Error)
	}

	// The loser of the race gets a conflict, and the record stays approved.
	resp, env = doJSON(t, client, http.MethodPost, ts.URL+urlID("/api/v1/timesheets/%d/reject", sheet.ID), adminToken,
		map[string]string{"reason": "too late", "rejectorName": "Omar K"}, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("reject after approve: got %d, want 409", resp.StatusCode)
	}

	resp, env = doJSON(t, client, http.MethodGet, ts.URL+urlID("/api/v1/timesheets/%d", sheet.ID), adminToken, nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get after approve: got %d", resp.StatusCode)
	}
	var after struct {
		Status       string `json:"status"`
		ApproverName string `json:"approverName"`
	}
	if err := json.Unmarshal(env.Data, &after); err != nil {
		t.Fatalf("decode sheet: %v", err)
	}
	if after.Status != "approved" || after.ApproverName != "Omar K" {
		t.Fatalf("final state = %+v, want approved by Omar K", after)
	}

	if !mailer.sentTo(contractorEmail, "approved") {
		t.Error("contractor was not notified of the approval")
	}
}

func TestTimesheetRejectWorkflow(t *testing.T) {
	app, mailer := setupApp(t)
	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	client := ts.Client()

	adminToken := login(t, client, ts.URL, "admin@test.local", "ChangeMe123!")
	contractorEmail := fmtUnique("reject", time.Now().UnixNano())
	createAccount(t, client, ts.URL, adminToken, contractorEmail, "contractor")
	contractorToken := login(t, client, ts.URL, contractorEmail, "Passw0rd!Test")

	resp, env := doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/timesheets", contractorToken,
		submitPayload(contractorEmail), nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("submit: got %d (%+v)", resp.StatusCode, env.Error)
	}
	var sheet struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &sheet); err != nil {
		t.Fatalf("decode submit response: %v", err)
	}

	// Reject without a reason fails validation.
	resp, _ = doJSON(t, client, http.MethodPost, ts.URL+urlID("/api/v1/timesheets/%d/reject", sheet.ID), adminToken,
		map[string]string{"reason": "", "rejectorName": "Omar K"}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("reject without reason: got %d, want 400", resp.StatusCode)
	}

	resp, env = doJSON(t, client, http.MethodPost, ts.URL+urlID("/api/v1/timesheets/%d/reject", sheet.ID), adminToken,
		map[string]string{"reason": "hours do not match the site log", "rejectorName": "Omar K"}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reject: got %d (%+v)", resp.StatusCode, env.Error)
	}

	var after struct {
		Status          string `json:"status"`
		RejectionReason string `json:"rejectionReason"`
	}
	if err := json.Unmarshal(env.Data, &after); err != nil {
		t.Fatalf("decode reject response: %v", err)
	}
	if after.Status != "rejected" || after.RejectionReason == "" {
		t.Fatalf("final state = %+v, want rejected with reason", after)
	}

	if !mailer.sentTo(contractorEmail, "rejected") {
		t.Error("contractor was not notified of the rejection")
	}
}

func TestTimesheetSubmitIdempotency(t *testing.T) {
	app, _ := setupApp(t)
	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	client := ts.Client()

	adminToken := login(t, client, ts.URL, "admin@test.local", "ChangeMe123!")
	contractorEmail := fmtUnique("idem", time.Now().UnixNano())
	createAccount(t, client, ts.URL, adminToken, contractorEmail, "contractor")
	contractorToken := login(t, client, ts.URL, contractorEmail, "Passw0rd!Test")

	headers := map[string]string{"Idempotency-Key": fmtUnique("key", time.Now().UnixNano())}

	resp, env := doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/timesheets", contractorToken,
		submitPayload(contractorEmail), headers)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("first submit: got %d (%+v)", resp.StatusCode, env.Error)
	}
	var first struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &first); err != nil {
		t.Fatalf("decode first submit: %v", err)
	}

	// Retrying with the same key replays the stored response.
	resp, env = doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/timesheets", contractorToken,
		submitPayload(contractorEmail), headers)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("retry: got %d (%+v)", resp.StatusCode, env.Error)
	}
	if resp.Header.Get("Idempotency-Replayed") != "true" {
		t.Fatal("retry was not replayed from the idempotency store")
	}
	var second struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &second); err != nil {
		t.Fatalf("decode retry: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("retry created a second timesheet: %d vs %d", second.ID, first.ID)
	}
}

func TestTimesheetPDFExport(t *testing.T) {
	app, _ := setupApp(t)
	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	client := ts.Client()

	adminToken := login(t, client, ts.URL, "admin@test.local", "ChangeMe123!")
	contractorEmail := fmtUnique("pdf", time.Now().UnixNano())
	createAccount(t, client, ts.URL, adminToken, contractorEmail, "contractor")
	contractorToken := login(t, client, ts.URL, contractorEmail, "Passw0rd!Test")

	resp, env := doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/timesheets", contractorToken,
		submitPayload(contractorEmail), nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("submit: got %d (%+v)", resp.StatusCode, env.Error)
	}
	var sheet struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &sheet); err != nil {
		t.Fatalf("decode submit response: %v", err)
	}

	for _, variant := range []string{"calendar", "table"} {
		req, err := http.NewRequest(http.MethodGet, ts.URL+urlID("/api/v1/timesheets/%d/pdf?variant=", sheet.ID)+variant, nil)
		if err != nil {
			t.Fatal(err)
		}
		req.Header.Set("Authorization", "Bearer "+adminToken)
		pdfResp, err := client.Do(req)
		if err != nil {
			t.Fatalf("pdf export (%s): %v", variant, err)
		}
		if pdfResp.StatusCode != http.StatusOK {
			pdfResp.Body.Close()
			t.Fatalf("pdf export (%s): got %d", variant, pdfResp.StatusCode)
		}
		if ct := pdfResp.Header.Get("Content-Type"); ct != "application/pdf" {
			t.Errorf("pdf export (%s): content type %q", variant, ct)
		}
		disposition := pdfResp.Header.Get("Content-Disposition")
		if !strings.Contains(disposition, "January_2025_Amina_Haddad_Timesheet.pdf") {
			t.Errorf("pdf export (%s): unexpected filename in %q", variant, disposition)
		}
		pdfResp.Body.Close()
	}
}

func TestLeadCapture(t *testing.T) {
	app, mailer := setupApp(t)
	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	client := ts.Client()

	// Missing required fields are reported per-field.
	resp, env := doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/leads/manpower", "",
		map[string]any{"name": "", "email": "nope"}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid lead: got %d, want 400", resp.StatusCode)
	}
	if env.Error == nil || env.Error.Code != "validation_error" {
		t.Fatalf("invalid lead: error = %+v", env.Error)
	}

	resp, env = doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/leads/manpower", "",
		map[string]any{
			"name":    "Sara B",
			"email":   "sara@example.com",
			"company": "Harbour Co",
			"detail":  map[string]string{"headcount": "12", "trade": "welders"},
		}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("valid lead: got %d (%+v)", resp.StatusCode, env.Error)
	}

	if !mailer.sentTo("office@test.local", "manpower") {
		t.Error("office inbox was not notified of the new lead")
	}

	// Unknown form kinds are 404s.
	resp, _ = doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/leads/newsletter", "",
		map[string]any{"name": "X", "email": "x@example.com"}, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown kind: got %d, want 404", resp.StatusCode)
	}
}

func urlID(format string, id int64) string {
	return fmt.Sprintf(format, id)
}

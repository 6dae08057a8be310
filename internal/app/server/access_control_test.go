package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func createAccountDetailed(t *testing.T, client *http.Client, baseURL, adminToken string, fields map[string]string) envelope {
	t.Helper()

	payload := map[string]string{
		"firstName": "Test",
		"lastName":  "User",
		"password":  "Passw0rd!Test",
	}
	for key, value := range fields {
		payload[key] = value
	}
	resp, env := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/admin/users", adminToken, payload, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create %s account: got %d (%+v)", payload["role"], resp.StatusCode, env.Error)
	}
	return env
}

func TestTimesheetRecordReadsAreScoped(t *testing.T) {
	app, _ := setupApp(t)
	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	client := ts.Client()

	adminToken := login(t, client, ts.URL, "admin@test.local", "ChangeMe123!")

	nonce := time.Now().UnixNano()
	ownerEmail := fmtUnique("owner", nonce)
	otherEmail := fmtUnique("other", nonce)
	sameCompanyEmail := fmtUnique("employer-same", nonce)
	otherCompanyEmail := fmtUnique("employer-other", nonce)

	createAccount(t, client, ts.URL, adminToken, ownerEmail, "contractor")
	createAccount(t, client, ts.URL, adminToken, otherEmail, "contractor")
	createAccountDetailed(t, client, ts.URL, adminToken, map[string]string{
		"email": sameCompanyEmail, "role": "employer", "company": "Dawaam",
	})
	createAccountDetailed(t, client, ts.URL, adminToken, map[string]string{
		"email": otherCompanyEmail, "role": "employer", "company": "Elsewhere Ltd",
	})

	ownerToken := login(t, client, ts.URL, ownerEmail, "Passw0rd!Test")
	otherToken := login(t, client, ts.URL, otherEmail, "Passw0rd!Test")
	sameCompanyToken := login(t, client, ts.URL, sameCompanyEmail, "Passw0rd!Test")
	otherCompanyToken := login(t, client, ts.URL, otherCompanyEmail, "Passw0rd!Test")

	resp, env := doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/timesheets", ownerToken,
		submitPayload(ownerEmail), nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("submit: got %d (%+v)", resp.StatusCode, env.Error)
	}
	var sheet struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &sheet); err != nil || sheet.ID == 0 {
		t.Fatalf("submit response missing id: %s", env.Data)
	}

	recordURL := urlID("/api/v1/timesheets/%d", sheet.ID)
	pdfURL := urlID("/api/v1/timesheets/%d/pdf", sheet.ID)

	cases := []struct {
		name  string
		token string
		want  int
	}{
		{"owner", ownerToken, http.StatusOK},
		{"admin", adminToken, http.StatusOK},
		{"employer same company", sameCompanyToken, http.StatusOK},
		{"other contractor", otherToken, http.StatusForbidden},
		{"employer other company", otherCompanyToken, http.StatusForbidden},
	}
	for _, tc := range cases {
		resp, env := doJSON(t, client, http.MethodGet, ts.URL+recordURL, tc.token, nil, nil)
		if resp.StatusCode != tc.want {
			t.Fatalf("%s read: got %d, want %d (%+v)", tc.name, resp.StatusCode, tc.want, env.Error)
		}
		if tc.want == http.StatusForbidden && (env.Error == nil || env.Error.Code != "forbidden") {
			t.Fatalf("%s read: want forbidden error, got %+v", tc.name, env.Error)
		}

		resp, env = doJSON(t, client, http.MethodGet, ts.URL+pdfURL+"?variant=calendar", tc.token, nil, nil)
		if resp.StatusCode != tc.want {
			t.Fatalf("%s pdf export: got %d, want %d (%+v)", tc.name, resp.StatusCode, tc.want, env.Error)
		}
	}
}

func TestAdminCreateUserKeepsPhone(t *testing.T) {
	app, _ := setupApp(t)
	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	client := ts.Client()

	adminToken := login(t, client, ts.URL, "admin@test.local", "ChangeMe123!")

	email := fmtUnique("phoned", time.Now().UnixNano())
	env := createAccountDetailed(t, client, ts.URL, adminToken, map[string]string{
		"email": email, "role": "contractor", "phone": "+218 91 234 5678",
	})

	var created struct {
		Email string `json:"email"`
		Phone string `json:"phone"`
	}
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode created account: %v", err)
	}
	if created.Phone != "+218 91 234 5678" {
		t.Fatalf("created account phone: got %q", created.Phone)
	}

	found := false
	for offset := 0; !found; offset += 200 {
		url := urlID("/api/v1/admin/users?limit=200&offset=%d", int64(offset))
		resp, env := doJSON(t, client, http.MethodGet, ts.URL+url, adminToken, nil, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("list users: got %d (%+v)", resp.StatusCode, env.Error)
		}
		var listing struct {
			Users []struct {
				Email string `json:"email"`
				Phone string `json:"phone"`
			} `json:"users"`
		}
		if err := json.Unmarshal(env.Data, &listing); err != nil {
			t.Fatalf("decode user listing: %v", err)
		}
		if len(listing.Users) == 0 {
			break
		}
		for _, user := range listing.Users {
			if user.Email == email {
				found = true
				if user.Phone != "+218 91 234 5678" {
					t.Fatalf("listed account phone: got %q", user.Phone)
				}
			}
		}
	}
	if !found {
		t.Fatalf("created account %s not in listing", email)
	}
}

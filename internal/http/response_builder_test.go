package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestJSONResponseBuilder(t *testing.T) {
	rr := httptest.NewRecorder()
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/tenants/1").
		Body(map[string]string{"id": "1"}).
		Write(rr)

	if rr.Code != http.StatusCreated {
		t.Errorf("status = %d", rr.Code)
	}
	if got := rr.Header().Get("Content-Type"); got != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := rr.Header().Get("Location"); got != "/api/tenants/1" {
		t.Errorf("Location = %q", got)
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil || body["id"] != "1" {
		t.Errorf("body = %s (%v)", rr.Body, err)
	}
}

func TestJSONResponseBuilderError(t *testing.T) {
	rr := httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusConflict).Error("maximum 5 active tenants allowed").Write(rr)
	if rr.Body.String() != "{\"error\":\"maximum 5 active tenants allowed\"}\n" {
		t.Errorf("body = %q", rr.Body.String())
	}
}

func TestJSONResponseBuilderNoBody(t *testing.T) {
	rr := httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusNoContent).Write(rr)
	if rr.Code != http.StatusNoContent || rr.Body.Len() != 0 || rr.Header().Get("Content-Type") != "" {
		t.Errorf("unexpected response: %d %q", rr.Code, rr.Body.String())
	}
}

func TestWriteErrorHidesInternalDetails(t *testing.T) {
	rr := httptest.NewRecorder()
	writeError(rr, httptest.NewRequest(http.MethodGet, "/x", nil), errString("db password is hunter2"))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	if rr.Body.String() != "{\"error\":\"internal error\"}\n" {
		t.Errorf("body = %q", rr.Body.String())
	}
}

type errString string

func (e errString) Error() string { return string(e) }

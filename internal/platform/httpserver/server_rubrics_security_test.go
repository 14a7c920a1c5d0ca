package httpserver

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
)

func rubricBody() []byte {
	return []byte(`{
		"title": "Report Rubric",
		"subject": "Science",
		"sections": [
			{"name": "Content", "description": "Content quality", "max_marks": 20}
		]
	}`)
}

func TestRubricCreateRequiresUserHeader(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/api/rubrics/v1/rubrics", bytes.NewReader(rubricBody()))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestRubricCreateForbiddenForStudents(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/api/rubrics/v1/rubrics", bytes.NewReader(rubricBody()))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", "student-1")
	req.Header.Set("X-User-Role", "student")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestRubricCreateAcceptedForTeachers(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/api/rubrics/v1/rubrics", bytes.NewReader(rubricBody()))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", "teacher-1")
	req.Header.Set("X-User-Role", "teacher")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestRubricCreateRejectsInvalidPayload(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/api/rubrics/v1/rubrics", bytes.NewReader([]byte(`{"title": ""}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", "teacher-1")
	req.Header.Set("X-User-Role", "teacher")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

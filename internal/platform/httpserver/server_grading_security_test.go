package httpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	gradingservice "intelligrade/contexts/assessment-core/grading-service"
	"intelligrade/contexts/assessment-core/grading-service/ports"
	rubricservice "intelligrade/contexts/assessment-core/rubric-service"
)

type fixedGrader struct{}

func (fixedGrader) Grade(_ context.Context, request ports.GradeRequest) (ports.GradeResponse, error) {
	scores := make([]ports.SectionScore, 0, len(request.Sections))
	for _, section := range request.Sections {
		scores = append(scores, ports.SectionScore{
			SectionName:  section.Name,
			MarksAwarded: float64(section.MaxMarks) / 2,
			Feedback:     "Acceptable.",
		})
	}
	return ports.GradeResponse{
		SectionScores:   scores,
		OverallFeedback: "Acceptable overall.",
		GraderModel:     "fixed-grader",
	}, nil
}

func newTestServer() *Server {
	rubrics := []ports.RubricSnapshot{
		{
			RubricID:   "rubric-1",
			Title:      "Report Rubric",
			Subject:    "Science",
			TotalMarks: 20,
			IsActive:   true,
			Sections: []ports.RubricSectionSpec{
				{Name: "Content", Description: "Content quality", MaxMarks: 20},
			},
		},
	}
	return New(
		rubricservice.NewInMemoryModule(nil, slog.Default()),
		gradingservice.NewInMemoryModule(rubrics, fixedGrader{}, slog.Default()),
		slog.Default(),
		":0",
	)
}

func submissionBody() []byte {
	payload := map[string]any{
		"file_name":    "report.pdf",
		"content_type": "application/pdf",
		"content":      base64.StdEncoding.EncodeToString([]byte("report text")),
		"rubric_id":    "rubric-1",
	}
	body, _ := json.Marshal(payload)
	return body
}

func TestSubmissionCreateRequiresUserHeader(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/api/grading/v1/submissions", bytes.NewReader(submissionBody()))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestTriggerGradeForbiddenForStudents(t *testing.T) {
	server := newTestServer()

	createReq := httptest.NewRequest(http.MethodPost, "/api/grading/v1/submissions", bytes.NewReader(submissionBody()))
	createReq.Header.Set("Content-Type", "application/json")
	createReq.Header.Set("X-User-Id", "student-1")
	createReq.Header.Set("X-User-Role", "student")
	createRec := httptest.NewRecorder()
	server.mux.ServeHTTP(createRec, createReq)
	if createRec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", createRec.Code, createRec.Body.String())
	}

	var created struct {
		Submission struct {
			SubmissionID string `json:"submission_id"`
		} `json:"submission"`
	}
	if err := json.Unmarshal(createRec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response failed: %v", err)
	}

	gradeReq := httptest.NewRequest(http.MethodPost, "/api/grading/v1/submissions/"+created.Submission.SubmissionID+"/grade", nil)
	gradeReq.Header.Set("X-User-Id", "student-1")
	gradeReq.Header.Set("X-User-Role", "student")
	gradeRec := httptest.NewRecorder()
	server.mux.ServeHTTP(gradeRec, gradeReq)

	if gradeRec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", gradeRec.Code, gradeRec.Body.String())
	}
}

func TestTriggerGradeSucceedsForTeachers(t *testing.T) {
	server := newTestServer()

	createReq := httptest.NewRequest(http.MethodPost, "/api/grading/v1/submissions", bytes.NewReader(submissionBody()))
	createReq.Header.Set("Content-Type", "application/json")
	createReq.Header.Set("X-User-Id", "student-1")
	createReq.Header.Set("X-User-Role", "student")
	createRec := httptest.NewRecorder()
	server.mux.ServeHTTP(createRec, createReq)
	if createRec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", createRec.Code, createRec.Body.String())
	}

	var created struct {
		Submission struct {
			SubmissionID string `json:"submission_id"`
		} `json:"submission"`
	}
	if err := json.Unmarshal(createRec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response failed: %v", err)
	}

	gradeReq := httptest.NewRequest(http.MethodPost, "/api/grading/v1/submissions/"+created.Submission.SubmissionID+"/grade", nil)
	gradeReq.Header.Set("X-User-Id", "teacher-1")
	gradeReq.Header.Set("X-User-Role", "teacher")
	gradeRec := httptest.NewRecorder()
	server.mux.ServeHTTP(gradeRec, gradeReq)

	if gradeRec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", gradeRec.Code, gradeRec.Body.String())
	}
}

func TestUnsupportedUploadReturnsBadRequest(t *testing.T) {
	server := newTestServer()
	payload := map[string]any{
		"file_name":    "notes.txt",
		"content_type": "text/plain",
		"content":      base64.StdEncoding.EncodeToString([]byte("plain text")),
	}
	body, _ := json.Marshal(payload)

	req := httptest.NewRequest(http.MethodPost, "/api/grading/v1/submissions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", "student-1")
	req.Header.Set("X-User-Role", "student")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestAnalyticsForbiddenForStudents(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/grading/v1/analytics", nil)
	req.Header.Set("X-User-Id", "student-1")
	req.Header.Set("X-User-Role", "student")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}
}

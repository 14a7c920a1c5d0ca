package unit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"intelligrade/contexts/assessment-core/grading-service/adapters/grader"
	"intelligrade/contexts/assessment-core/grading-service/ports"
)

func fakeGraderServer(t *testing.T, arguments string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			t.Errorf("missing bearer authorization")
		}
		var payload struct {
			Model      string `json:"model"`
			Messages   []any  `json:"messages"`
			Tools      []any  `json:"tools"`
			ToolChoice any    `json:"tool_choice"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request failed: %v", err)
		}
		if len(payload.Messages) != 2 || len(payload.Tools) != 1 || payload.ToolChoice == nil {
			t.Errorf("expected system+user messages and a forced tool call, got %+v", payload)
		}

		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{
					"message": map[string]any{
						"tool_calls": []map[string]any{
							{
								"function": map[string]any{
									"name":      "submit_grading",
									"arguments": arguments,
								},
							},
						},
					},
				},
			},
		})
	}))
}

func TestGraderClientParsesToolCall(t *testing.T) {
	arguments := `{
		"section_grades": [
			{"section_name": "Introduction", "marks_awarded": 7, "max_marks": 10, "feedback": "Well motivated.", "similarity_score": 82},
			{"section_name": "Methods", "marks_awarded": 14, "max_marks": 20, "feedback": "Missing baselines."}
		],
		"overall_feedback": "Competent report.",
		"plagiarism_score": 12,
		"plagiarism_risk": "low"
	}`
	server := fakeGraderServer(t, arguments, http.StatusOK)
	defer server.Close()

	client := grader.NewClient(server.URL, "test-key", "test-model", nil)
	response, err := client.Grade(context.Background(), ports.GradeRequest{
		RubricTitle:   "Research Report Rubric",
		RubricSubject: "Computer Science",
		Sections: []ports.RubricSectionSpec{
			{Name: "Introduction", Description: "Problem statement", MaxMarks: 10},
			{Name: "Methods", Description: "Methodology", MaxMarks: 20, Keywords: "dataset, baseline"},
		},
		SubmissionText: "A study of caching strategies.",
	})
	if err != nil {
		t.Fatalf("grade failed: %v", err)
	}
	if len(response.SectionScores) != 2 {
		t.Fatalf("expected 2 section scores, got %d", len(response.SectionScores))
	}
	if response.SectionScores[0].MarksAwarded != 7 {
		t.Fatalf("expected 7 marks, got %v", response.SectionScores[0].MarksAwarded)
	}
	if response.SectionScores[0].SimilarityScore == nil || *response.SectionScores[0].SimilarityScore != 82 {
		t.Fatalf("expected similarity 82, got %v", response.SectionScores[0].SimilarityScore)
	}
	if response.OverallFeedback != "Competent report." {
		t.Fatalf("unexpected overall feedback %q", response.OverallFeedback)
	}
	if response.GraderModel != "test-model" {
		t.Fatalf("expected model label test-model, got %s", response.GraderModel)
	}
	if response.PlagiarismScore == nil || *response.PlagiarismScore != 12 {
		t.Fatalf("expected plagiarism score 12, got %v", response.PlagiarismScore)
	}
}

func TestGraderClientSurfacesUpstreamErrors(t *testing.T) {
	server := fakeGraderServer(t, "", http.StatusBadGateway)
	defer server.Close()

	client := grader.NewClient(server.URL, "test-key", "test-model", nil)
	_, err := client.Grade(context.Background(), ports.GradeRequest{
		Sections:       []ports.RubricSectionSpec{{Name: "Essay", Description: "Full essay", MaxMarks: 100}},
		SubmissionText: "text",
	})
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("expected upstream status error, got %v", err)
	}
}

func TestGraderClientRejectsMissingToolCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices": [{"message": {"tool_calls": []}}]}`))
	}))
	defer server.Close()

	client := grader.NewClient(server.URL, "test-key", "test-model", nil)
	_, err := client.Grade(context.Background(), ports.GradeRequest{
		Sections:       []ports.RubricSectionSpec{{Name: "Essay", Description: "Full essay", MaxMarks: 100}},
		SubmissionText: "text",
	})
	if err == nil || !strings.Contains(err.Error(), "no tool call") {
		t.Fatalf("expected missing tool call error, got %v", err)
	}
}

package grader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"intelligrade/contexts/assessment-core/grading-service/ports"
)

const systemPrompt = `You are an expert academic evaluator. Your task is to grade a student's academic report based on the provided rubric.

For each section in the rubric:
1. Carefully analyze the relevant content in the report
2. Assess how well it meets the stated expectations
3. Assign marks (0 to max_marks for that section)
4. Provide constructive feedback explaining the score
5. Estimate how strongly the student's work matches the rubric expectations on a 0-100 scale and explain your reasoning.

Be fair, objective, and constructive in your evaluation.`

// Client scores submissions through an OpenAI-compatible chat completions
// endpoint. Structured output is enforced by a required submit_grading tool
// call, so the model cannot answer in free text.
type Client struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

func NewClient(baseURL string, apiKey string, model string, logger *slog.Logger) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		Model:      model,
		HTTPClient: &http.Client{Timeout: 5 * time.Minute},
		Logger:     logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model      string        `json:"model"`
	Messages   []chatMessage `json:"messages"`
	Tools      []any         `json:"tools"`
	ToolChoice any           `json:"tool_choice"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			ToolCalls []struct {
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
}

type gradingDoc struct {
	SectionGrades []struct {
		SectionName           string   `json:"section_name"`
		MarksAwarded          float64  `json:"marks_awarded"`
		MaxMarks              float64  `json:"max_marks"`
		Feedback              string   `json:"feedback"`
		SimilarityScore       *float64 `json:"similarity_score"`
		SimilarityExplanation string   `json:"similarity_explanation"`
	} `json:"section_grades"`
	OverallFeedback       string   `json:"overall_feedback"`
	PlagiarismScore       *float64 `json:"plagiarism_score"`
	PlagiarismRisk        string   `json:"plagiarism_risk"`
	PlagiarismExplanation string   `json:"plagiarism_explanation"`
}

func (c *Client) Grade(ctx context.Context, request ports.GradeRequest) (ports.GradeResponse, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserPrompt(request)},
		},
		Tools:      []any{submitGradingTool()},
		ToolChoice: map[string]any{"type": "function", "function": map[string]any{"name": "submit_grading"}},
	})
	if err != nil {
		return ports.GradeResponse{}, err
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.BaseURL+"/v1/chat/completions",
		bytes.NewReader(body),
	)
	if err != nil {
		return ports.GradeResponse{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return ports.GradeResponse{}, err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(httpResp.Body, 4096))
		if c.Logger != nil {
			c.Logger.Error("grader api returned an error",
				"event", "grader_api_error",
				"module", "assessment-core/grading-service",
				"layer", "adapter",
				"status", httpResp.StatusCode,
				"body", string(detail),
			)
		}
		return ports.GradeResponse{}, fmt.Errorf("grader api status %d", httpResp.StatusCode)
	}

	var decoded chatResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&decoded); err != nil {
		return ports.GradeResponse{}, fmt.Errorf("decode grader response: %w", err)
	}
	if len(decoded.Choices) == 0 || len(decoded.Choices[0].Message.ToolCalls) == 0 {
		return ports.GradeResponse{}, fmt.Errorf("grader returned no tool call")
	}

	var doc gradingDoc
	arguments := decoded.Choices[0].Message.ToolCalls[0].Function.Arguments
	if err := json.Unmarshal([]byte(arguments), &doc); err != nil {
		return ports.GradeResponse{}, fmt.Errorf("decode grading arguments: %w", err)
	}

	response := ports.GradeResponse{
		OverallFeedback:       doc.OverallFeedback,
		GraderModel:           c.Model,
		PlagiarismScore:       doc.PlagiarismScore,
		PlagiarismRisk:        doc.PlagiarismRisk,
		PlagiarismExplanation: doc.PlagiarismExplanation,
		SectionScores:         make([]ports.SectionScore, 0, len(doc.SectionGrades)),
	}
	for _, grade := range doc.SectionGrades {
		response.SectionScores = append(response.SectionScores, ports.SectionScore{
			SectionName:           grade.SectionName,
			MarksAwarded:          grade.MarksAwarded,
			Feedback:              grade.Feedback,
			SimilarityScore:       grade.SimilarityScore,
			SimilarityExplanation: grade.SimilarityExplanation,
		})
	}
	return response, nil
}

func buildUserPrompt(request ports.GradeRequest) string {
	var rubricText strings.Builder
	for i, section := range request.Sections {
		if i > 0 {
			rubricText.WriteString("\n\n")
		}
		fmt.Fprintf(&rubricText, "Section %d: %s (Max: %d marks)\nExpectations: %s",
			i+1, section.Name, section.MaxMarks, section.Description)
		if section.Keywords != "" {
			fmt.Fprintf(&rubricText, "\nKey keywords/phrases to look for: %s", section.Keywords)
		}
		if section.ConceptExpectations != "" {
			fmt.Fprintf(&rubricText, "\nConcept expectations: %s", section.ConceptExpectations)
		}
	}

	return fmt.Sprintf(`Grade this academic report based on the following rubric:

RUBRIC:
%s

REPORT CONTENT:
%s

Provide detailed section-wise grading with marks, feedback, and similarity assessment for each section.`,
		rubricText.String(), request.SubmissionText)
}

func submitGradingTool() map[string]any {
	return map[string]any{
		"type": "function",
		"function": map[string]any{
			"name":        "submit_grading",
			"description": "Submit the grading results for the academic report",
			"parameters": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"section_grades": map[string]any{
						"type":        "array",
						"description": "Grades for each rubric section",
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"section_name":  map[string]any{"type": "string"},
								"marks_awarded": map[string]any{"type": "number"},
								"max_marks":     map[string]any{"type": "number"},
								"feedback":      map[string]any{"type": "string"},
								"similarity_score": map[string]any{
									"type":        "number",
									"description": "Similarity or alignment score (0-100) between the student's work and rubric expectations",
								},
								"similarity_explanation": map[string]any{
									"type":        "string",
									"description": "Short explanation of why this similarity score was assigned",
								},
							},
							"required": []string{"section_name", "marks_awarded", "max_marks", "feedback"},
						},
					},
					"overall_feedback": map[string]any{
						"type":        "string",
						"description": "Overall summary feedback for the report",
					},
					"plagiarism_score": map[string]any{
						"type":        "number",
						"description": "Estimated likelihood (0-100) that the report contains unoriginal content",
					},
					"plagiarism_risk": map[string]any{
						"type":        "string",
						"description": "Overall plagiarism risk level: low, medium or high",
					},
					"plagiarism_explanation": map[string]any{
						"type":        "string",
						"description": "Short explanation of the plagiarism assessment",
					},
				},
				"required": []string{"section_grades", "overall_feedback"},
			},
		},
	}
}

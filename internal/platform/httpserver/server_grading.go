package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	gradingerrors "intelligrade/contexts/assessment-core/grading-service/domain/errors"
	gradinghttp "intelligrade/contexts/assessment-core/grading-service/transport/http"

	"github.com/go-playground/validator/v10"
)

func (s *Server) handleCreateSubmission(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := requireGradingIdentity(w, r)
	if !ok {
		return
	}

	var req gradinghttp.CreateSubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeGradingError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.grading.Handler.CreateSubmissionHandler(r.Context(), userID, role, req)
	if err != nil {
		writeGradingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleAssignRubric(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := requireGradingIdentity(w, r)
	if !ok {
		return
	}

	var req gradinghttp.AssignRubricRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeGradingError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.grading.Handler.AssignRubricHandler(r.Context(), userID, role, r.PathValue("submission_id"), req)
	if err != nil {
		writeGradingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTriggerGrade(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := requireGradingIdentity(w, r)
	if !ok {
		return
	}

	resp, err := s.grading.Handler.TriggerGradeHandler(r.Context(), userID, role, r.PathValue("submission_id"))
	if err != nil {
		writeGradingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSaveOverride(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := requireGradingIdentity(w, r)
	if !ok {
		return
	}

	var req gradinghttp.SaveOverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeGradingError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.grading.Handler.SaveOverrideHandler(r.Context(), userID, role, r.PathValue("result_id"), req)
	if err != nil {
		writeGradingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetSubmission(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := requireGradingIdentity(w, r)
	if !ok {
		return
	}

	resp, err := s.grading.Handler.GetSubmissionHandler(r.Context(), userID, role, r.PathValue("submission_id"))
	if err != nil {
		writeGradingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := requireGradingIdentity(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	resp, err := s.grading.Handler.ListSubmissionsHandler(
		r.Context(),
		userID,
		role,
		query.Get("student_id"),
		query.Get("rubric_id"),
		query.Get("status"),
	)
	if err != nil {
		writeGradingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := requireGradingIdentity(w, r)
	if !ok {
		return
	}

	resp, err := s.grading.Handler.GetResultHandler(r.Context(), userID, role, r.PathValue("result_id"))
	if err != nil {
		writeGradingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDashboardSummary(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := requireGradingIdentity(w, r)
	if !ok {
		return
	}

	resp, err := s.grading.Handler.DashboardSummaryHandler(r.Context(), userID, role)
	if err != nil {
		writeGradingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClassAnalytics(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := requireGradingIdentity(w, r)
	if !ok {
		return
	}

	resp, err := s.grading.Handler.ClassAnalyticsHandler(r.Context(), userID, role, r.URL.Query().Get("rubric_id"))
	if err != nil {
		writeGradingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeGradingDomainError(w http.ResponseWriter, err error) {
	var validationErr validator.ValidationErrors
	switch {
	case errors.As(err, &validationErr):
		writeGradingError(w, http.StatusBadRequest, "invalid_payload", err.Error())
	case errors.Is(err, gradingerrors.ErrSubmissionNotFound):
		writeGradingError(w, http.StatusNotFound, "submission_not_found", err.Error())
	case errors.Is(err, gradingerrors.ErrResultNotFound):
		writeGradingError(w, http.StatusNotFound, "result_not_found", err.Error())
	case errors.Is(err, gradingerrors.ErrRubricNotFound):
		writeGradingError(w, http.StatusNotFound, "rubric_not_found", err.Error())
	case errors.Is(err, gradingerrors.ErrFileNotFound):
		writeGradingError(w, http.StatusNotFound, "file_not_found", err.Error())
	case errors.Is(err, gradingerrors.ErrInvalidSubmissionInput),
		errors.Is(err, gradingerrors.ErrNoRubricAssigned),
		errors.Is(err, gradingerrors.ErrRubricInactive),
		errors.Is(err, gradingerrors.ErrUnsupportedFileType),
		errors.Is(err, gradingerrors.ErrSectionMismatch):
		writeGradingError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, gradingerrors.ErrFileTooLarge):
		writeGradingError(w, http.StatusRequestEntityTooLarge, "file_too_large", err.Error())
	case errors.Is(err, gradingerrors.ErrGradingInProgress):
		writeGradingError(w, http.StatusConflict, "grading_in_progress", err.Error())
	case errors.Is(err, gradingerrors.ErrResultAlreadyExists),
		errors.Is(err, gradingerrors.ErrInvalidStatusChange):
		writeGradingError(w, http.StatusConflict, "status_conflict", err.Error())
	case errors.Is(err, gradingerrors.ErrUnauthorizedActor):
		writeGradingError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, gradingerrors.ErrActorNotPermitted):
		writeGradingError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, gradingerrors.ErrGradingFailed):
		writeGradingError(w, http.StatusBadGateway, "grading_failed", err.Error())
	default:
		writeGradingError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeGradingError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, gradinghttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func requireGradingIdentity(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeGradingError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return "", "", false
	}
	return userID, r.Header.Get("X-User-Role"), true
}

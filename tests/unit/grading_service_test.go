package unit

import (
	"context"
	"errors"
	"testing"
	"time"

	gradingservice "intelligrade/contexts/assessment-core/grading-service"
	"intelligrade/contexts/assessment-core/grading-service/adapters/extract"
	"intelligrade/contexts/assessment-core/grading-service/adapters/memory"
	"intelligrade/contexts/assessment-core/grading-service/domain/entities"
	gradingerrors "intelligrade/contexts/assessment-core/grading-service/domain/errors"
	"intelligrade/contexts/assessment-core/grading-service/ports"
	gradingtransport "intelligrade/contexts/assessment-core/grading-service/transport/http"
)

// stubGrader scores submissions from canned responses. The first `failures`
// calls return an error so retry paths can be exercised.
type stubGrader struct {
	calls    int
	failures int
	queue    []ports.GradeResponse
	response ports.GradeResponse
}

func (g *stubGrader) Grade(_ context.Context, _ ports.GradeRequest) (ports.GradeResponse, error) {
	g.calls++
	if g.calls <= g.failures {
		return ports.GradeResponse{}, errors.New("grader upstream unavailable")
	}
	if len(g.queue) > 0 {
		next := g.queue[0]
		g.queue = g.queue[1:]
		return next, nil
	}
	return g.response, nil
}

func reportRubricSnapshot() ports.RubricSnapshot {
	return ports.RubricSnapshot{
		RubricID:   "rubric-1",
		Title:      "Research Report Rubric",
		Subject:    "Computer Science",
		TotalMarks: 60,
		IsActive:   true,
		Sections: []ports.RubricSectionSpec{
			{Name: "Introduction", Description: "Problem statement and motivation", MaxMarks: 10},
			{Name: "Methods", Description: "Methodology and experimental design", MaxMarks: 20},
			{Name: "Results", Description: "Findings with supporting evidence", MaxMarks: 20},
			{Name: "Conclusion", Description: "Summary and future work", MaxMarks: 10},
		},
	}
}

func passingGradeResponse() ports.GradeResponse {
	return ports.GradeResponse{
		SectionScores: []ports.SectionScore{
			{SectionName: "Introduction", MarksAwarded: 6, Feedback: "Clear problem statement."},
			{SectionName: "Methods", MarksAwarded: 15, Feedback: "Sound design, baselines are missing."},
			{SectionName: "Results", MarksAwarded: 18, Feedback: "Strong supporting evidence."},
			{SectionName: "Conclusion", MarksAwarded: 8, Feedback: "Good summary of findings."},
		},
		OverallFeedback: "Solid report with room to tighten the methodology.",
		GraderModel:     "stub-grader",
	}
}

func newGradingModule(grader ports.Grader) gradingservice.Module {
	return gradingservice.NewInMemoryModule([]ports.RubricSnapshot{reportRubricSnapshot()}, grader, nil)
}

func uploadSubmission(
	t *testing.T,
	module gradingservice.Module,
	studentID string,
	rubricID string,
) gradingtransport.SubmissionDTO {
	t.Helper()
	resp, err := module.Handler.CreateSubmissionHandler(context.Background(), studentID, "student", gradingtransport.CreateSubmissionRequest{
		FileName:    "report.pdf",
		ContentType: "application/pdf",
		Content:     []byte("An experiment on caching strategies, with measurements."),
		RubricID:    rubricID,
	})
	if err != nil {
		t.Fatalf("create submission failed: %v", err)
	}
	return resp.Submission
}

func TestSubmissionUploadRejectsUnsupportedExtension(t *testing.T) {
	module := newGradingModule(&stubGrader{})

	_, err := module.Handler.CreateSubmissionHandler(context.Background(), "student-1", "student", gradingtransport.CreateSubmissionRequest{
		FileName:    "notes.txt",
		ContentType: "text/plain",
		Content:     []byte("plain text"),
	})
	if !errors.Is(err, gradingerrors.ErrUnsupportedFileType) {
		t.Fatalf("expected unsupported file type, got %v", err)
	}
}

func TestSubmissionUploadEnforcesSizeLimit(t *testing.T) {
	store := memory.NewStore(nil)
	module := gradingservice.NewModule(gradingservice.Dependencies{
		Submissions:    store,
		Results:        store,
		Rubrics:        store,
		Files:          store,
		Extractor:      extract.PlainTextExtractor{},
		Grader:         &stubGrader{},
		Outbox:         store,
		Clock:          store,
		IDGen:          store,
		MaxUploadBytes: 16,
	})

	_, err := module.Handler.CreateSubmissionHandler(context.Background(), "student-1", "student", gradingtransport.CreateSubmissionRequest{
		FileName:    "report.pdf",
		ContentType: "application/pdf",
		Content:     []byte("this payload is larger than sixteen bytes"),
	})
	if !errors.Is(err, gradingerrors.ErrFileTooLarge) {
		t.Fatalf("expected file too large, got %v", err)
	}
}

func TestGradeFlowEndToEnd(t *testing.T) {
	module := newGradingModule(&stubGrader{response: passingGradeResponse()})

	submission := uploadSubmission(t, module, "student-1", "rubric-1")
	if submission.Status != "pending" {
		t.Fatalf("expected pending submission, got %s", submission.Status)
	}

	graded, err := module.Handler.TriggerGradeHandler(context.Background(), "teacher-1", "teacher", submission.SubmissionID)
	if err != nil {
		t.Fatalf("trigger grade failed: %v", err)
	}
	if graded.Result.TotalMarksAwarded != 47 {
		t.Fatalf("expected total 47, got %v", graded.Result.TotalMarksAwarded)
	}
	if graded.Result.TotalMaxMarks != 60 {
		t.Fatalf("expected max 60, got %d", graded.Result.TotalMaxMarks)
	}
	if graded.Result.DisplayedPercent != 78 {
		t.Fatalf("expected 78 percent, got %d", graded.Result.DisplayedPercent)
	}
	if graded.Result.IsFinalApproved {
		t.Fatalf("fresh result must not be approved")
	}

	view, err := module.Handler.GetSubmissionHandler(context.Background(), "teacher-1", "teacher", submission.SubmissionID)
	if err != nil {
		t.Fatalf("get submission failed: %v", err)
	}
	if view.Submission.Status != "graded" {
		t.Fatalf("expected graded status, got %s", view.Submission.Status)
	}
	if view.Result == nil {
		t.Fatalf("expected attached result")
	}

	overridden, err := module.Handler.SaveOverrideHandler(context.Background(), "teacher-1", "teacher", graded.Result.ResultID, gradingtransport.SaveOverrideRequest{
		Sections: []gradingtransport.OverrideSectionPayload{
			{SectionName: "Introduction", MarksAwarded: 6},
			{SectionName: "Methods", MarksAwarded: 15},
			{SectionName: "Results", MarksAwarded: 15, Feedback: "Two plots misread the data."},
			{SectionName: "Conclusion", MarksAwarded: 8},
		},
		OverallFeedback: "Adjusted after manual review.",
		Approve:         true,
	})
	if err != nil {
		t.Fatalf("save override failed: %v", err)
	}
	if overridden.Result.FinalTotalMarks == nil || *overridden.Result.FinalTotalMarks != 44 {
		t.Fatalf("expected final total 44, got %v", overridden.Result.FinalTotalMarks)
	}
	if overridden.Result.DisplayedTotal != 44 {
		t.Fatalf("expected displayed total 44, got %v", overridden.Result.DisplayedTotal)
	}
	if overridden.Result.DisplayedPercent != 73 {
		t.Fatalf("expected 73 percent, got %d", overridden.Result.DisplayedPercent)
	}
	if !overridden.Result.IsFinalApproved || overridden.Result.FinalApprovedBy != "teacher-1" {
		t.Fatalf("expected approval by teacher-1, got %+v", overridden.Result)
	}

	view, err = module.Handler.GetSubmissionHandler(context.Background(), "student-1", "student", submission.SubmissionID)
	if err != nil {
		t.Fatalf("student get submission failed: %v", err)
	}
	if view.Submission.Status != "approved" {
		t.Fatalf("expected approved status, got %s", view.Submission.Status)
	}
}

func TestTriggerGradeRequiresReviewerRole(t *testing.T) {
	module := newGradingModule(&stubGrader{response: passingGradeResponse()})
	submission := uploadSubmission(t, module, "student-1", "rubric-1")

	_, err := module.Handler.TriggerGradeHandler(context.Background(), "student-1", "student", submission.SubmissionID)
	if !errors.Is(err, gradingerrors.ErrActorNotPermitted) {
		t.Fatalf("expected actor not permitted, got %v", err)
	}
}

func TestTriggerGradeRequiresAssignedRubric(t *testing.T) {
	module := newGradingModule(&stubGrader{response: passingGradeResponse()})
	submission := uploadSubmission(t, module, "student-1", "")

	_, err := module.Handler.TriggerGradeHandler(context.Background(), "teacher-1", "teacher", submission.SubmissionID)
	if !errors.Is(err, gradingerrors.ErrNoRubricAssigned) {
		t.Fatalf("expected no rubric assigned, got %v", err)
	}
}

func TestGradingFailureRevertsToPending(t *testing.T) {
	module := newGradingModule(&stubGrader{failures: 1, response: passingGradeResponse()})
	submission := uploadSubmission(t, module, "student-1", "rubric-1")

	_, err := module.Handler.TriggerGradeHandler(context.Background(), "teacher-1", "teacher", submission.SubmissionID)
	if !errors.Is(err, gradingerrors.ErrGradingFailed) {
		t.Fatalf("expected grading failed, got %v", err)
	}

	view, err := module.Handler.GetSubmissionHandler(context.Background(), "teacher-1", "teacher", submission.SubmissionID)
	if err != nil {
		t.Fatalf("get submission failed: %v", err)
	}
	if view.Submission.Status != "pending" {
		t.Fatalf("expected revert to pending, got %s", view.Submission.Status)
	}
	if view.Result != nil {
		t.Fatalf("failed pass must not persist a result")
	}

	retried, err := module.Handler.TriggerGradeHandler(context.Background(), "teacher-1", "teacher", submission.SubmissionID)
	if err != nil {
		t.Fatalf("retry after failure should succeed: %v", err)
	}
	if retried.Result.TotalMarksAwarded != 47 {
		t.Fatalf("expected total 47 on retry, got %v", retried.Result.TotalMarksAwarded)
	}
}

func TestGradingClampsSectionMarks(t *testing.T) {
	response := ports.GradeResponse{
		SectionScores: []ports.SectionScore{
			{SectionName: "Introduction", MarksAwarded: -5, Feedback: "Missing entirely."},
			{SectionName: "Methods", MarksAwarded: 25, Feedback: "Excellent."},
			{SectionName: "Results", MarksAwarded: 10, Feedback: "Adequate."},
			{SectionName: "Conclusion", MarksAwarded: 12, Feedback: "Thorough."},
		},
		OverallFeedback: "Mixed quality across sections.",
		GraderModel:     "stub-grader",
	}
	module := newGradingModule(&stubGrader{response: response})
	submission := uploadSubmission(t, module, "student-1", "rubric-1")

	graded, err := module.Handler.TriggerGradeHandler(context.Background(), "teacher-1", "teacher", submission.SubmissionID)
	if err != nil {
		t.Fatalf("trigger grade failed: %v", err)
	}
	awarded := map[string]float64{}
	for _, section := range graded.Result.SectionGrades {
		awarded[section.SectionName] = section.MarksAwarded
	}
	if awarded["Introduction"] != 0 {
		t.Fatalf("expected negative marks clamped to 0, got %v", awarded["Introduction"])
	}
	if awarded["Methods"] != 20 {
		t.Fatalf("expected marks clamped to section max 20, got %v", awarded["Methods"])
	}
	if awarded["Conclusion"] != 10 {
		t.Fatalf("expected marks clamped to section max 10, got %v", awarded["Conclusion"])
	}
	if graded.Result.TotalMarksAwarded != 40 {
		t.Fatalf("expected clamped total 40, got %v", graded.Result.TotalMarksAwarded)
	}
}

func TestGradingRejectsRenamedSections(t *testing.T) {
	response := passingGradeResponse()
	response.SectionScores[0].SectionName = "Intro"
	module := newGradingModule(&stubGrader{response: response})
	submission := uploadSubmission(t, module, "student-1", "rubric-1")

	_, err := module.Handler.TriggerGradeHandler(context.Background(), "teacher-1", "teacher", submission.SubmissionID)
	if !errors.Is(err, gradingerrors.ErrGradingFailed) {
		t.Fatalf("expected grading failed, got %v", err)
	}

	view, err := module.Handler.GetSubmissionHandler(context.Background(), "teacher-1", "teacher", submission.SubmissionID)
	if err != nil {
		t.Fatalf("get submission failed: %v", err)
	}
	if view.Submission.Status != "pending" {
		t.Fatalf("expected revert to pending, got %s", view.Submission.Status)
	}
}

func TestTriggerGradeConflictsWhileGrading(t *testing.T) {
	module := newGradingModule(&stubGrader{response: passingGradeResponse()})
	submission := uploadSubmission(t, module, "student-1", "rubric-1")

	// Simulate a concurrent pass that already claimed the submission.
	if err := module.Store.TransitionStatus(
		context.Background(),
		submission.SubmissionID,
		entities.SubmissionStatusPending,
		entities.SubmissionStatusGrading,
		time.Now().UTC(),
	); err != nil {
		t.Fatalf("claim submission failed: %v", err)
	}

	_, err := module.Handler.TriggerGradeHandler(context.Background(), "teacher-1", "teacher", submission.SubmissionID)
	if !errors.Is(err, gradingerrors.ErrGradingInProgress) {
		t.Fatalf("expected grading in progress, got %v", err)
	}
}

func TestOverrideDraftDoesNotApprove(t *testing.T) {
	module := newGradingModule(&stubGrader{response: passingGradeResponse()})
	submission := uploadSubmission(t, module, "student-1", "rubric-1")

	graded, err := module.Handler.TriggerGradeHandler(context.Background(), "teacher-1", "teacher", submission.SubmissionID)
	if err != nil {
		t.Fatalf("trigger grade failed: %v", err)
	}

	draft, err := module.Handler.SaveOverrideHandler(context.Background(), "teacher-1", "teacher", graded.Result.ResultID, gradingtransport.SaveOverrideRequest{
		Sections: []gradingtransport.OverrideSectionPayload{
			{SectionName: "Introduction", MarksAwarded: 6},
			{SectionName: "Methods", MarksAwarded: 15},
			{SectionName: "Results", MarksAwarded: 15},
			{SectionName: "Conclusion", MarksAwarded: 8},
		},
		Approve: false,
	})
	if err != nil {
		t.Fatalf("save draft override failed: %v", err)
	}
	if draft.Result.IsFinalApproved {
		t.Fatalf("draft save must not approve")
	}
	if draft.Result.FinalTotalMarks == nil || *draft.Result.FinalTotalMarks != 44 {
		t.Fatalf("expected draft final total 44, got %v", draft.Result.FinalTotalMarks)
	}
	// Unapproved overrides stay hidden from the displayed grade.
	if draft.Result.DisplayedTotal != 47 {
		t.Fatalf("expected displayed total to remain 47, got %v", draft.Result.DisplayedTotal)
	}

	view, err := module.Handler.GetSubmissionHandler(context.Background(), "teacher-1", "teacher", submission.SubmissionID)
	if err != nil {
		t.Fatalf("get submission failed: %v", err)
	}
	if view.Submission.Status != "graded" {
		t.Fatalf("expected status to remain graded, got %s", view.Submission.Status)
	}
}

func TestOverrideApprovalIsIdempotent(t *testing.T) {
	module := newGradingModule(&stubGrader{response: passingGradeResponse()})
	submission := uploadSubmission(t, module, "student-1", "rubric-1")

	graded, err := module.Handler.TriggerGradeHandler(context.Background(), "teacher-1", "teacher", submission.SubmissionID)
	if err != nil {
		t.Fatalf("trigger grade failed: %v", err)
	}

	request := gradingtransport.SaveOverrideRequest{
		Sections: []gradingtransport.OverrideSectionPayload{
			{SectionName: "Introduction", MarksAwarded: 6},
			{SectionName: "Methods", MarksAwarded: 15},
			{SectionName: "Results", MarksAwarded: 18},
			{SectionName: "Conclusion", MarksAwarded: 8},
		},
		Approve: true,
	}
	first, err := module.Handler.SaveOverrideHandler(context.Background(), "teacher-1", "teacher", graded.Result.ResultID, request)
	if err != nil {
		t.Fatalf("first approval failed: %v", err)
	}
	if !first.Result.IsFinalApproved || first.Result.FinalApprovedBy != "teacher-1" {
		t.Fatalf("expected approval by teacher-1, got %+v", first.Result)
	}

	second, err := module.Handler.SaveOverrideHandler(context.Background(), "admin-1", "admin", graded.Result.ResultID, request)
	if err != nil {
		t.Fatalf("repeated approval failed: %v", err)
	}
	if second.Result.FinalApprovedBy != "teacher-1" {
		t.Fatalf("repeated approval must keep the original approver, got %s", second.Result.FinalApprovedBy)
	}
	if second.Result.FinalApprovedAt == nil || first.Result.FinalApprovedAt == nil ||
		*second.Result.FinalApprovedAt != *first.Result.FinalApprovedAt {
		t.Fatalf("repeated approval must keep the original approval time")
	}
}

func TestOverrideRejectsRenamedSection(t *testing.T) {
	module := newGradingModule(&stubGrader{response: passingGradeResponse()})
	submission := uploadSubmission(t, module, "student-1", "rubric-1")

	graded, err := module.Handler.TriggerGradeHandler(context.Background(), "teacher-1", "teacher", submission.SubmissionID)
	if err != nil {
		t.Fatalf("trigger grade failed: %v", err)
	}

	_, err = module.Handler.SaveOverrideHandler(context.Background(), "teacher-1", "teacher", graded.Result.ResultID, gradingtransport.SaveOverrideRequest{
		Sections: []gradingtransport.OverrideSectionPayload{
			{SectionName: "Intro", MarksAwarded: 6},
			{SectionName: "Methods", MarksAwarded: 15},
			{SectionName: "Results", MarksAwarded: 18},
			{SectionName: "Conclusion", MarksAwarded: 8},
		},
		Approve: true,
	})
	if !errors.Is(err, gradingerrors.ErrSectionMismatch) {
		t.Fatalf("expected section mismatch, got %v", err)
	}
}

func TestOverrideFeedbackFallsBackToAIFeedback(t *testing.T) {
	module := newGradingModule(&stubGrader{response: passingGradeResponse()})
	submission := uploadSubmission(t, module, "student-1", "rubric-1")

	graded, err := module.Handler.TriggerGradeHandler(context.Background(), "teacher-1", "teacher", submission.SubmissionID)
	if err != nil {
		t.Fatalf("trigger grade failed: %v", err)
	}

	overridden, err := module.Handler.SaveOverrideHandler(context.Background(), "teacher-1", "teacher", graded.Result.ResultID, gradingtransport.SaveOverrideRequest{
		Sections: []gradingtransport.OverrideSectionPayload{
			{SectionName: "Introduction", MarksAwarded: 5},
			{SectionName: "Methods", MarksAwarded: 15},
			{SectionName: "Results", MarksAwarded: 18},
			{SectionName: "Conclusion", MarksAwarded: 8},
		},
		Approve: true,
	})
	if err != nil {
		t.Fatalf("save override failed: %v", err)
	}
	if overridden.Result.FinalSectionGrades[0].Feedback != "Clear problem statement." {
		t.Fatalf("expected fallback to AI section feedback, got %q", overridden.Result.FinalSectionGrades[0].Feedback)
	}
	if overridden.Result.FinalOverallFeedback == nil ||
		*overridden.Result.FinalOverallFeedback != "Solid report with room to tighten the methodology." {
		t.Fatalf("expected fallback to AI overall feedback, got %v", overridden.Result.FinalOverallFeedback)
	}
}

func TestStudentCannotReadAnotherStudentsSubmission(t *testing.T) {
	module := newGradingModule(&stubGrader{response: passingGradeResponse()})
	submission := uploadSubmission(t, module, "student-1", "rubric-1")

	_, err := module.Handler.GetSubmissionHandler(context.Background(), "student-2", "student", submission.SubmissionID)
	if !errors.Is(err, gradingerrors.ErrActorNotPermitted) {
		t.Fatalf("expected actor not permitted, got %v", err)
	}

	graded, err := module.Handler.TriggerGradeHandler(context.Background(), "teacher-1", "teacher", submission.SubmissionID)
	if err != nil {
		t.Fatalf("trigger grade failed: %v", err)
	}
	if _, err := module.Handler.GetResultHandler(context.Background(), "student-2", "student", graded.Result.ResultID); !errors.Is(err, gradingerrors.ErrActorNotPermitted) {
		t.Fatalf("expected actor not permitted on result read, got %v", err)
	}
	owned, err := module.Handler.GetResultHandler(context.Background(), "student-1", "student", graded.Result.ResultID)
	if err != nil {
		t.Fatalf("owner result read failed: %v", err)
	}
	if owned.Result.ResultID != graded.Result.ResultID {
		t.Fatalf("unexpected result %s", owned.Result.ResultID)
	}
}

func TestClassAnalyticsBandsAndAverages(t *testing.T) {
	essayRubric := ports.RubricSnapshot{
		RubricID:   "essay-rubric",
		Title:      "Essay Rubric",
		Subject:    "History",
		TotalMarks: 100,
		IsActive:   true,
		Sections: []ports.RubricSectionSpec{
			{Name: "Essay", Description: "Full essay", MaxMarks: 100},
		},
	}
	plagiarismLow := 20.0
	plagiarismHigh := 40.0
	grader := &stubGrader{queue: []ports.GradeResponse{
		{
			SectionScores:   []ports.SectionScore{{SectionName: "Essay", MarksAwarded: 45, Feedback: "Weak argumentation."}},
			OverallFeedback: "Needs substantial revision.",
			GraderModel:     "stub-grader",
		},
		{
			SectionScores:   []ports.SectionScore{{SectionName: "Essay", MarksAwarded: 52, Feedback: "Passable structure."}},
			OverallFeedback: "Borderline pass.",
			GraderModel:     "stub-grader",
			PlagiarismScore: &plagiarismLow,
			PlagiarismRisk:  "low",
		},
		{
			SectionScores:   []ports.SectionScore{{SectionName: "Essay", MarksAwarded: 71, Feedback: "Good analysis."}},
			OverallFeedback: "Good work overall.",
			GraderModel:     "stub-grader",
		},
		{
			SectionScores:   []ports.SectionScore{{SectionName: "Essay", MarksAwarded: 90, Feedback: "Excellent synthesis."}},
			OverallFeedback: "Outstanding essay.",
			GraderModel:     "stub-grader",
			PlagiarismScore: &plagiarismHigh,
			PlagiarismRisk:  "medium",
		},
	}}
	module := gradingservice.NewInMemoryModule([]ports.RubricSnapshot{essayRubric}, grader, nil)

	for _, student := range []string{"student-1", "student-2", "student-3", "student-4"} {
		submission := uploadSubmission(t, module, student, "essay-rubric")
		if _, err := module.Handler.TriggerGradeHandler(context.Background(), "teacher-1", "teacher", submission.SubmissionID); err != nil {
			t.Fatalf("trigger grade for %s failed: %v", student, err)
		}
	}

	analytics, err := module.Handler.ClassAnalyticsHandler(context.Background(), "teacher-1", "teacher", "essay-rubric")
	if err != nil {
		t.Fatalf("class analytics failed: %v", err)
	}
	if analytics.TotalResults != 4 {
		t.Fatalf("expected 4 results, got %d", analytics.TotalResults)
	}
	expectedBands := map[string]int{"0-49": 1, "50-69": 1, "70-84": 1, "85-100": 1}
	for band, count := range expectedBands {
		if analytics.Bands[band] != count {
			t.Fatalf("expected band %s count %d, got %d", band, count, analytics.Bands[band])
		}
	}
	if analytics.AveragePercentage != 65 {
		t.Fatalf("expected average percentage 65, got %d", analytics.AveragePercentage)
	}
	if analytics.AveragePlagiarismScore == nil || *analytics.AveragePlagiarismScore != 30 {
		t.Fatalf("expected average plagiarism 30, got %v", analytics.AveragePlagiarismScore)
	}

	if _, err := module.Handler.ClassAnalyticsHandler(context.Background(), "student-1", "student", "essay-rubric"); !errors.Is(err, gradingerrors.ErrActorNotPermitted) {
		t.Fatalf("expected students to be rejected, got %v", err)
	}
}

func TestDashboardSummaryScopesStudentsToOwnUploads(t *testing.T) {
	module := newGradingModule(&stubGrader{response: passingGradeResponse()})

	first := uploadSubmission(t, module, "student-1", "rubric-1")
	uploadSubmission(t, module, "student-1", "rubric-1")
	uploadSubmission(t, module, "student-2", "rubric-1")
	if _, err := module.Handler.TriggerGradeHandler(context.Background(), "teacher-1", "teacher", first.SubmissionID); err != nil {
		t.Fatalf("trigger grade failed: %v", err)
	}

	studentView, err := module.Handler.DashboardSummaryHandler(context.Background(), "student-1", "student")
	if err != nil {
		t.Fatalf("student dashboard failed: %v", err)
	}
	if studentView.TotalSubmissions != 2 {
		t.Fatalf("expected 2 submissions for student-1, got %d", studentView.TotalSubmissions)
	}
	if studentView.StatusCounts["graded"] != 1 || studentView.StatusCounts["pending"] != 1 {
		t.Fatalf("unexpected student status counts %+v", studentView.StatusCounts)
	}

	teacherView, err := module.Handler.DashboardSummaryHandler(context.Background(), "teacher-1", "teacher")
	if err != nil {
		t.Fatalf("teacher dashboard failed: %v", err)
	}
	if teacherView.TotalSubmissions != 3 {
		t.Fatalf("expected 3 submissions for teacher view, got %d", teacherView.TotalSubmissions)
	}
}

func TestAssignRubricOnlyWhilePending(t *testing.T) {
	module := newGradingModule(&stubGrader{response: passingGradeResponse()})
	submission := uploadSubmission(t, module, "student-1", "")

	assigned, err := module.Handler.AssignRubricHandler(context.Background(), "student-1", "student", submission.SubmissionID, gradingtransport.AssignRubricRequest{
		RubricID: "rubric-1",
	})
	if err != nil {
		t.Fatalf("assign rubric failed: %v", err)
	}
	if assigned.Submission.RubricID != "rubric-1" {
		t.Fatalf("expected rubric-1 assigned, got %s", assigned.Submission.RubricID)
	}

	if _, err := module.Handler.TriggerGradeHandler(context.Background(), "teacher-1", "teacher", submission.SubmissionID); err != nil {
		t.Fatalf("trigger grade failed: %v", err)
	}

	_, err = module.Handler.AssignRubricHandler(context.Background(), "student-1", "student", submission.SubmissionID, gradingtransport.AssignRubricRequest{
		RubricID: "rubric-1",
	})
	if !errors.Is(err, gradingerrors.ErrInvalidStatusChange) {
		t.Fatalf("expected invalid status change, got %v", err)
	}
}

package unit

import (
	"context"
	"errors"
	"testing"
	"time"

	gradingservice "intelligrade/contexts/assessment-core/grading-service"
	gradingworkers "intelligrade/contexts/assessment-core/grading-service/application/workers"
	gradingerrors "intelligrade/contexts/assessment-core/grading-service/domain/errors"
	gradingtransport "intelligrade/contexts/assessment-core/grading-service/transport/http"
	rubricservice "intelligrade/contexts/assessment-core/rubric-service"
	rubricworkers "intelligrade/contexts/assessment-core/rubric-service/application/workers"
	rubrictransport "intelligrade/contexts/assessment-core/rubric-service/transport/http"
	"intelligrade/internal/platform/messaging"
	"intelligrade/internal/shared/events"
)

// Bus delivery is asynchronous, so projection state is polled up to a deadline.
func waitFor(t *testing.T, check func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if check() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func TestRubricEventsProjectIntoGradingStore(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rubricModule := rubricservice.NewInMemoryModule(nil, nil)
	gradingModule := gradingservice.NewInMemoryModule(nil, &stubGrader{response: passingGradeResponse()}, nil)
	bus := messaging.NewBus(nil)

	consumer := gradingworkers.RubricProjectionConsumer{
		Subscriber: bus,
		Projection: gradingModule.Store,
	}
	if err := consumer.Start(ctx); err != nil {
		t.Fatalf("start projection consumer failed: %v", err)
	}

	created, err := rubricModule.Handler.CreateRubricHandler(ctx, "teacher-1", "teacher", createRubricRequest())
	if err != nil {
		t.Fatalf("create rubric failed: %v", err)
	}

	relay := rubricworkers.OutboxRelay{
		Outbox:    rubricModule.Store,
		Publisher: bus,
		Clock:     rubricModule.Store,
		BatchSize: 10,
	}
	if err := relay.RunOnce(ctx); err != nil {
		t.Fatalf("relay run failed: %v", err)
	}

	waitFor(t, func() bool {
		_, err := gradingModule.Store.GetRubricSnapshot(ctx, created.Rubric.RubricID)
		return err == nil
	})

	snapshot, err := gradingModule.Store.GetRubricSnapshot(ctx, created.Rubric.RubricID)
	if err != nil {
		t.Fatalf("projected snapshot missing: %v", err)
	}
	if snapshot.TotalMarks != 60 {
		t.Fatalf("expected projected total 60, got %d", snapshot.TotalMarks)
	}
	if len(snapshot.Sections) != 4 {
		t.Fatalf("expected 4 projected sections, got %d", len(snapshot.Sections))
	}
	if !snapshot.IsActive {
		t.Fatalf("expected projected rubric to be active")
	}

	pending, err := rubricModule.Store.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected drained outbox, got %d rows", len(pending))
	}

	// The projected rubric must be usable for an actual grading pass.
	submission := uploadSubmission(t, gradingModule, "student-1", created.Rubric.RubricID)
	graded, err := gradingModule.Handler.TriggerGradeHandler(ctx, "teacher-1", "teacher", submission.SubmissionID)
	if err != nil {
		t.Fatalf("grading against projected rubric failed: %v", err)
	}
	if graded.Result.TotalMaxMarks != 60 {
		t.Fatalf("expected max 60 from projection, got %d", graded.Result.TotalMaxMarks)
	}
}

func TestRubricDeactivationPropagatesToGrading(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rubricModule := rubricservice.NewInMemoryModule(nil, nil)
	gradingModule := gradingservice.NewInMemoryModule(nil, &stubGrader{response: passingGradeResponse()}, nil)
	bus := messaging.NewBus(nil)

	consumer := gradingworkers.RubricProjectionConsumer{
		Subscriber: bus,
		Projection: gradingModule.Store,
	}
	if err := consumer.Start(ctx); err != nil {
		t.Fatalf("start projection consumer failed: %v", err)
	}

	created, err := rubricModule.Handler.CreateRubricHandler(ctx, "teacher-1", "teacher", createRubricRequest())
	if err != nil {
		t.Fatalf("create rubric failed: %v", err)
	}

	relay := rubricworkers.OutboxRelay{
		Outbox:    rubricModule.Store,
		Publisher: bus,
		Clock:     rubricModule.Store,
		BatchSize: 10,
	}
	if err := relay.RunOnce(ctx); err != nil {
		t.Fatalf("relay run failed: %v", err)
	}
	waitFor(t, func() bool {
		snapshot, err := gradingModule.Store.GetRubricSnapshot(ctx, created.Rubric.RubricID)
		return err == nil && snapshot.IsActive
	})

	if _, err := rubricModule.Handler.SetRubricActiveHandler(
		ctx,
		"teacher-1",
		"teacher",
		created.Rubric.RubricID,
		rubrictransport.SetRubricActiveRequest{Active: false},
	); err != nil {
		t.Fatalf("deactivate rubric failed: %v", err)
	}
	if err := relay.RunOnce(ctx); err != nil {
		t.Fatalf("relay run failed: %v", err)
	}
	waitFor(t, func() bool {
		snapshot, err := gradingModule.Store.GetRubricSnapshot(ctx, created.Rubric.RubricID)
		return err == nil && !snapshot.IsActive
	})

	submission := uploadSubmission(t, gradingModule, "student-1", "")
	_, err = gradingModule.Handler.AssignRubricHandler(ctx, "student-1", "student", submission.SubmissionID, gradingtransport.AssignRubricRequest{RubricID: created.Rubric.RubricID})
	if !errors.Is(err, gradingerrors.ErrRubricInactive) {
		t.Fatalf("expected rubric inactive, got %v", err)
	}
}

func TestGradingOutboxRelayPublishesSubmissionEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gradingModule := gradingservice.NewInMemoryModule(nil, &stubGrader{response: passingGradeResponse()}, nil)
	bus := messaging.NewBus(nil)

	received := make(chan events.Envelope, 8)
	if err := bus.Subscribe(ctx, "submission.created", "test-consumer", func(_ context.Context, event events.Envelope) error {
		received <- event
		return nil
	}); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	submission := uploadSubmission(t, gradingModule, "student-1", "")

	relay := gradingworkers.OutboxRelay{
		Outbox:    gradingModule.Store,
		Publisher: bus,
		Clock:     gradingModule.Store,
		BatchSize: 10,
	}
	if err := relay.RunOnce(ctx); err != nil {
		t.Fatalf("relay run failed: %v", err)
	}

	select {
	case event := <-received:
		if event.EventType != "submission.created" {
			t.Fatalf("unexpected event type %s", event.EventType)
		}
		if event.PartitionKey != submission.SubmissionID {
			t.Fatalf("expected partition key %s, got %s", submission.SubmissionID, event.PartitionKey)
		}
		if event.SourceService != "grading-service" {
			t.Fatalf("unexpected source service %s", event.SourceService)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("submission.created event not delivered")
	}

	pending, err := gradingModule.Store.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected drained outbox, got %d rows", len(pending))
	}
}

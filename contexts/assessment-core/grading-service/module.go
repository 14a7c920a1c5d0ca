package gradingservice

import (
	"log/slog"
	"time"

	"intelligrade/contexts/assessment-core/grading-service/adapters/extract"
	httpadapter "intelligrade/contexts/assessment-core/grading-service/adapters/http"
	"intelligrade/contexts/assessment-core/grading-service/adapters/memory"
	"intelligrade/contexts/assessment-core/grading-service/application/commands"
	"intelligrade/contexts/assessment-core/grading-service/application/queries"
	"intelligrade/contexts/assessment-core/grading-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Submissions    ports.SubmissionRepository
	Results        ports.ResultRepository
	Rubrics        ports.RubricSource
	Files          ports.FileStore
	Extractor      ports.TextExtractor
	Grader         ports.Grader
	Outbox         ports.OutboxWriter
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	GraderTimeout  time.Duration
	MaxUploadBytes int64
	Logger         *slog.Logger
}

func NewModule(deps Dependencies) Module {
	createSubmission := commands.CreateSubmissionUseCase{
		Submissions:    deps.Submissions,
		Files:          deps.Files,
		Outbox:         deps.Outbox,
		Clock:          deps.Clock,
		IDGen:          deps.IDGen,
		MaxUploadBytes: deps.MaxUploadBytes,
		Logger:         deps.Logger,
	}
	assignRubric := commands.AssignRubricUseCase{
		Submissions: deps.Submissions,
		Rubrics:     deps.Rubrics,
		Clock:       deps.Clock,
		Logger:      deps.Logger,
	}
	triggerGrade := commands.TriggerGradeUseCase{
		Submissions:   deps.Submissions,
		Results:       deps.Results,
		Rubrics:       deps.Rubrics,
		Files:         deps.Files,
		Extractor:     deps.Extractor,
		Grader:        deps.Grader,
		Outbox:        deps.Outbox,
		Clock:         deps.Clock,
		IDGen:         deps.IDGen,
		GraderTimeout: deps.GraderTimeout,
		Logger:        deps.Logger,
	}
	saveOverride := commands.SaveOverrideUseCase{
		Submissions: deps.Submissions,
		Results:     deps.Results,
		Outbox:      deps.Outbox,
		Clock:       deps.Clock,
		IDGen:       deps.IDGen,
		Logger:      deps.Logger,
	}
	queryUseCase := queries.QueryUseCase{
		Submissions: deps.Submissions,
		Results:     deps.Results,
		Logger:      deps.Logger,
	}
	analytics := queries.AnalyticsUseCase{
		Submissions: deps.Submissions,
		Results:     deps.Results,
		Logger:      deps.Logger,
	}

	return Module{
		Handler: httpadapter.Handler{
			CreateSubmission: createSubmission,
			AssignRubric:     assignRubric,
			TriggerGrade:     triggerGrade,
			SaveOverride:     saveOverride,
			Queries:          queryUseCase,
			Analytics:        analytics,
			Logger:           deps.Logger,
		},
	}
}

// NewInMemoryModule wires the module against the in-memory store. The
// provided grader stands in for the HTTP client; rubric snapshots seed the
// local projection.
func NewInMemoryModule(
	rubrics []ports.RubricSnapshot,
	grader ports.Grader,
	logger *slog.Logger,
) Module {
	store := memory.NewStore(rubrics)
	module := NewModule(Dependencies{
		Submissions: store,
		Results:     store,
		Rubrics:     store,
		Files:       store,
		Extractor:   extract.PlainTextExtractor{},
		Grader:      grader,
		Outbox:      store,
		Clock:       store,
		IDGen:       store,
		Logger:      logger,
	})
	module.Store = store
	return module
}

package rubricservice

import (
	"log/slog"

	httpadapter "intelligrade/contexts/assessment-core/rubric-service/adapters/http"
	"intelligrade/contexts/assessment-core/rubric-service/adapters/memory"
	"intelligrade/contexts/assessment-core/rubric-service/application/commands"
	"intelligrade/contexts/assessment-core/rubric-service/application/queries"
	"intelligrade/contexts/assessment-core/rubric-service/domain/entities"
	"intelligrade/contexts/assessment-core/rubric-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Repository ports.Repository
	Outbox     ports.OutboxWriter
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func NewModule(deps Dependencies) Module {
	createRubric := commands.CreateRubricUseCase{
		Repository: deps.Repository,
		Outbox:     deps.Outbox,
		Clock:      deps.Clock,
		IDGen:      deps.IDGen,
		Logger:     deps.Logger,
	}
	updateRubric := commands.UpdateRubricUseCase{
		Repository: deps.Repository,
		Outbox:     deps.Outbox,
		Clock:      deps.Clock,
		IDGen:      deps.IDGen,
		Logger:     deps.Logger,
	}
	queryUseCase := queries.QueryUseCase{
		Repository: deps.Repository,
		Logger:     deps.Logger,
	}

	return Module{
		Handler: httpadapter.Handler{
			CreateRubric: createRubric,
			UpdateRubric: updateRubric,
			Queries:      queryUseCase,
			Logger:       deps.Logger,
		},
	}
}

func NewInMemoryModule(seed []entities.Rubric, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Repository: store,
		Outbox:     store,
		Clock:      store,
		IDGen:      store,
		Logger:     logger,
	})
	module.Store = store
	return module
}

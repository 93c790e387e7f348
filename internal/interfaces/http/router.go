package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/rebanho-api/internal/application/ledger"
	"github.com/jhoicas/rebanho-api/internal/application/usecase"
	"github.com/jhoicas/rebanho-api/pkg/jwt"
	"github.com/jhoicas/rebanho-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	PropertyUC *usecase.PropertyUseCase
	CategoryUC *usecase.CategoryUseCase
	PlanUC     *usecase.PlanUseCase
	Snapshots  *ledger.SnapshotUseCase
	Movements  *ledger.MovementUseCase
	Projector  *ledger.BalanceProjector
	Scheduler  *ledger.TransferScheduler
	Evolution  *ledger.CategoryEvolution
	Aggregator *ledger.ConsolidationAggregator
	Renderer   ledger.ConsolidationRenderer
	JWTSecret  string
	Log        *logger.Logger
}

// Router registra las rutas de la API. Todas requieren Bearer Token; las escrituras
// de catálogo son solo admin y las del libro admin o tecnico.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	log = log.Component("http")

	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))
	admin := RequireRole(jwt.RoleAdmin)
	writer := RequireRole(jwt.RoleAdmin, jwt.RoleTecnico)
	reader := RequireRole(jwt.RoleAdmin, jwt.RoleTecnico, jwt.RoleConsulta)

	catalog := NewCatalogHandler(deps.PropertyUC, deps.CategoryUC, deps.PlanUC, log)
	api.Post("/properties", admin, catalog.CreateProperty)
	api.Get("/properties", reader, catalog.ListProperties)
	api.Get("/properties/:id", reader, catalog.GetProperty)
	api.Post("/categories", admin, catalog.CreateCategory)
	api.Get("/categories", reader, catalog.ListCategories)
	api.Get("/categories/:id", reader, catalog.GetCategory)
	api.Post("/plans", admin, catalog.CreatePlan)
	api.Get("/plans", reader, catalog.ListPlans)
	api.Get("/plans/:planID", reader, catalog.GetPlan)

	ledgerHandler := NewLedgerHandler(deps.Snapshots, deps.Movements, deps.Projector, log)
	api.Post("/snapshots", writer, ledgerHandler.CreateSnapshot)
	api.Get("/snapshots", reader, ledgerHandler.ListSnapshots)

	consolidation := NewConsolidationHandler(deps.Aggregator, deps.Renderer, deps.PropertyUC, deps.CategoryUC, deps.PlanUC, log)
	api.Get("/consolidation/compare", reader, consolidation.Compare)

	// Rutas de un plan: el plan debe ser de la empresa del token.
	plan := api.Group("/plans/:planID", RequirePlan(deps.PlanUC))
	plan.Post("/movements", writer, ledgerHandler.RegisterMovement)
	plan.Get("/movements", reader, ledgerHandler.ListMovements)
	plan.Delete("/movements/:id", writer, ledgerHandler.DeleteMovement)
	plan.Get("/balance", reader, ledgerHandler.Balance)

	schedules := NewScheduleHandler(deps.Scheduler, deps.Evolution, log)
	plan.Post("/schedules", writer, schedules.Schedule)
	plan.Post("/schedules/rule", writer, schedules.ScheduleRule)
	plan.Post("/promotions", writer, schedules.Promote)

	plan.Get("/consolidation", reader, consolidation.Consolidate)
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/rebanho-api/internal/application/ledger"
	"github.com/jhoicas/rebanho-api/internal/application/usecase"
	"github.com/jhoicas/rebanho-api/internal/domain/repository"
	"github.com/jhoicas/rebanho-api/internal/infrastructure/events"
	"github.com/jhoicas/rebanho-api/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/rebanho-api/internal/infrastructure/pdf"
	"github.com/jhoicas/rebanho-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/rebanho-api/internal/interfaces/http"
	"github.com/jhoicas/rebanho-api/pkg/config"
	"github.com/jhoicas/rebanho-api/pkg/logger"
)

// stores repositorios y runner transaccional del backend elegido.
type stores struct {
	movements repository.MovementRepository
	snapshots repository.SnapshotRepository
	catalog   ledger.Catalog
	txRunner  ledger.TxRunner
	close     func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	st := openStores(ctx, cfg, log)
	defer st.close()

	// Publicación de resultados de planificación; sin broker configurado se omite.
	var publisher ledger.SchedulePublisher
	if cfg.Rabbit.Enabled() {
		rp, err := events.NewRabbitPublisher(cfg.Rabbit.URL, cfg.Rabbit.Exchange, log)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a RabbitMQ")
		}
		defer rp.Close()
		publisher = rp
	}

	defaults := ledger.Defaults{
		OffsetDays:  cfg.Ledger.OffsetDays,
		LotSize:     int64(cfg.Ledger.LotSize),
		CadenceDays: cfg.Ledger.CadenceDays,
	}
	projector := ledger.NewBalanceProjector(st.snapshots, st.movements, st.catalog, log)
	evolution := ledger.NewCategoryEvolution(st.txRunner, projector, log)
	scheduler := ledger.NewTransferScheduler(st.txRunner, projector, evolution, publisher, defaults, log)
	aggregator := ledger.NewConsolidationAggregator(projector)
	movementUC := ledger.NewMovementUseCase(st.txRunner, projector, st.movements, log)
	snapshotUC := ledger.NewSnapshotUseCase(st.snapshots, st.catalog)

	propertyUC := usecase.NewPropertyUseCase(st.catalog.Properties)
	categoryUC := usecase.NewCategoryUseCase(st.catalog.Categories)
	planUC := usecase.NewPlanUseCase(st.catalog.Plans)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Rebanho API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "store": cfg.Store.Driver})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		PropertyUC: propertyUC,
		CategoryUC: categoryUC,
		PlanUC:     planUC,
		Snapshots:  snapshotUC,
		Movements:  movementUC,
		Projector:  projector,
		Scheduler:  scheduler,
		Evolution:  evolution,
		Aggregator: aggregator,
		Renderer:   infrapdf.NewMarotoPDFGenerator(),
		JWTSecret:  cfg.JWT.Secret,
		Log:        log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

// openStores abre PostgreSQL (aplicando migraciones) o el store en memoria según STORE_DRIVER.
func openStores(ctx context.Context, cfg *config.Config, log *logger.Logger) stores {
	if cfg.Store.Driver == "memory" {
		mem := memory.New()
		log.Warn().Msg("store en memoria: los datos se pierden al reiniciar")
		return stores{
			movements: mem.Movements(),
			snapshots: mem.Snapshots(),
			catalog:   mem.Catalog(),
			txRunner:  memory.NewTxRunner(mem),
			close:     func() {},
		}
	}

	pool, err := postgres.NewPool(ctx, cfg.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		log.Fatal().Err(err).Msg("migraciones")
	}
	return stores{
		movements: postgres.NewMovementRepository(pool),
		snapshots: postgres.NewSnapshotRepository(pool),
		catalog: ledger.Catalog{
			Properties: postgres.NewPropertyRepository(pool),
			Categories: postgres.NewCategoryRepository(pool),
			Plans:      postgres.NewPlanRepository(pool),
		},
		txRunner: postgres.NewTxRunner(pool),
		close:    pool.Close,
	}
}

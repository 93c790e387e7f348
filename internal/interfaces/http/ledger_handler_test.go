package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/rebanho-api/internal/application/ledger"
	"github.com/jhoicas/rebanho-api/internal/application/usecase"
	"github.com/jhoicas/rebanho-api/internal/domain/entity"
	"github.com/jhoicas/rebanho-api/internal/infrastructure/memory"
	"github.com/jhoicas/rebanho-api/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/rebanho-api/internal/interfaces/http"
	"github.com/jhoicas/rebanho-api/pkg/logger"
)

const (
	otherCompanyID = "00000000-0000-0000-0000-000000000003"
	propA          = "prop-a"
	propB          = "prop-b"
	catGarrote     = "cat-garrote"
	catNovilho     = "cat-novilho"
	planBase       = "plan-base"
	planForeign    = "plan-ajeno"
)

// buildLedgerApp arma la API completa sobre el store en memoria con un catálogo mínimo.
func buildLedgerApp(t *testing.T) *fiber.App {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	day := func(s string) time.Time {
		d, err := entity.ParseDate(s)
		require.NoError(t, err)
		return d
	}

	require.NoError(t, store.Properties().Create(ctx, &entity.Property{ID: propA, CompanyID: testCompanyID, Name: "Fazenda Aurora", Code: "AUR"}))
	require.NoError(t, store.Properties().Create(ctx, &entity.Property{ID: propB, CompanyID: testCompanyID, Name: "Fazenda Boa Vista", Code: "BVI"}))
	require.NoError(t, store.Categories().Create(ctx, &entity.Category{ID: catNovilho, CompanyID: testCompanyID, Code: "NOV", Name: "Novilho"}))
	require.NoError(t, store.Categories().Create(ctx, &entity.Category{ID: catGarrote, CompanyID: testCompanyID, Code: "GAR", Name: "Garrote", SuccessorID: catNovilho}))
	require.NoError(t, store.Plans().Create(ctx, &entity.Plan{ID: planBase, CompanyID: testCompanyID, Name: "Plan base", StartDate: day("2022-01-01")}))
	require.NoError(t, store.Plans().Create(ctx, &entity.Plan{ID: planForeign, CompanyID: otherCompanyID, Name: "Ajeno", StartDate: day("2022-01-01")}))

	log := logger.Nop()
	runner := memory.NewTxRunner(store)
	projector := ledger.NewBalanceProjector(store.Snapshots(), store.Movements(), store.Catalog(), log)
	evolution := ledger.NewCategoryEvolution(runner, projector, log)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		PropertyUC: usecase.NewPropertyUseCase(store.Properties()),
		CategoryUC: usecase.NewCategoryUseCase(store.Categories()),
		PlanUC:     usecase.NewPlanUseCase(store.Plans()),
		Snapshots:  ledger.NewSnapshotUseCase(store.Snapshots(), store.Catalog()),
		Movements:  ledger.NewMovementUseCase(runner, projector, store.Movements(), log),
		Projector:  projector,
		Scheduler: ledger.NewTransferScheduler(runner, projector, evolution, nil,
			ledger.Defaults{OffsetDays: 90, LotSize: 100, CadenceDays: 30}, log),
		Evolution:  evolution,
		Aggregator: ledger.NewConsolidationAggregator(projector),
		Renderer:   pdf.NewMarotoPDFGenerator(),
		JWTSecret:  testJWTSecret,
		Log:        log,
	})
	return app
}

// call lanza la petición con el rol indicado y decodifica el cuerpo JSON en out (si no es nil).
func call(t *testing.T, app *fiber.App, role, method, path string, body any, out any) int {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", tokenForRole(t, role))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func snapshotBody(property, category string, qty, unit int64, asOf string) map[string]any {
	return map[string]any{
		"property_id": property, "category_id": category,
		"quantity": qty, "unit_value": unit, "as_of": asOf, "initial": true,
	}
}

func TestLedgerAPI_EntradaProgramadaYSaldo(t *testing.T) {
	app := buildLedgerApp(t)

	status := call(t, app, "admin", http.MethodPost, "/api/snapshots", snapshotBody(propA, catGarrote, 0, 2500, "2022-01-01"), nil)
	require.Equal(t, http.StatusCreated, status)

	var entry map[string]any
	status = call(t, app, "tecnico", http.MethodPost, "/api/plans/"+planBase+"/movements", map[string]any{
		"property_id": propA, "category_id": catGarrote, "date": "2022-04-01",
		"kind": "ENTRY_PURCHASE", "quantity": 480,
	}, &entry)
	require.Equal(t, http.StatusCreated, status)
	entryID := int64(entry["id"].(float64))

	schedule := map[string]any{
		"entry_movement_id": entryID, "rule_id": "venta-90", "destination_kind": "EXIT_SALE",
	}
	var res map[string]any
	status = call(t, app, "tecnico", http.MethodPost, "/api/plans/"+planBase+"/schedules", schedule, &res)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 480, res["scheduled"])
	events := res["events"].([]any)
	require.Len(t, events, 1)
	ev := events[0].(map[string]any)
	assert.Equal(t, "2022-06-30", ev["date"], "sin offset_days se usa el desfase configurado")
	assert.Equal(t, "venta-90", ev["derived_by"])

	// Repetir la programación reemplaza los derivados en lugar de duplicarlos.
	status = call(t, app, "tecnico", http.MethodPost, "/api/plans/"+planBase+"/schedules", schedule, &res)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, res["deleted"])
	events = res["events"].([]any)
	require.Len(t, events, 1)
	ev = events[0].(map[string]any)

	var list map[string]any
	status = call(t, app, "consulta", http.MethodGet, "/api/plans/"+planBase+"/movements?kinds=EXIT_SALE", nil, &list)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, list["items"], 1)

	var bal map[string]any
	status = call(t, app, "consulta", http.MethodGet,
		"/api/plans/"+planBase+"/balance?property_id="+propA+"&category_id="+catGarrote+"&as_of=2022-06-29&available=true", nil, &bal)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 480, bal["quantity"])
	assert.EqualValues(t, 0, bal["available"], "la venta programada ya compromete todo el saldo futuro")

	status = call(t, app, "consulta", http.MethodGet,
		"/api/plans/"+planBase+"/balance?property_id="+propA+"&category_id="+catGarrote+"&as_of=2022-06-30", nil, &bal)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 0, bal["quantity"])

	// El derivado lo administra su regla: no se borra a mano.
	var errBody map[string]any
	status = call(t, app, "tecnico", http.MethodDelete, "/api/plans/"+planBase+"/movements/"+jsonNumber(ev["id"]), nil, &errBody)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "DERIVED_MOVEMENT", errBody["code"])
}

func TestLedgerAPI_Errores(t *testing.T) {
	app := buildLedgerApp(t)
	require.Equal(t, http.StatusCreated,
		call(t, app, "admin", http.MethodPost, "/api/snapshots", snapshotBody(propA, catGarrote, 10, 2500, "2022-01-01"), nil))

	var errBody map[string]any
	status := call(t, app, "tecnico", http.MethodPost, "/api/plans/"+planBase+"/movements", map[string]any{
		"property_id": propA, "category_id": catGarrote, "date": "2022-02-01", "kind": "EXIT_SALE", "quantity": 11,
	}, &errBody)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INSUFFICIENT_BALANCE", errBody["code"])

	status = call(t, app, "tecnico", http.MethodPost, "/api/plans/"+planBase+"/movements", map[string]any{
		"property_id": propA, "category_id": catGarrote, "date": "2022-02-01", "kind": "EXIT_SALE", "quantity": 0,
	}, &errBody)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "NON_POSITIVE_QUANTITY", errBody["code"])

	status = call(t, app, "tecnico", http.MethodPost, "/api/plans/"+planBase+"/schedules", map[string]any{
		"entry_movement_id": 1, "rule_id": "r", "destination_kind": "EXIT_SALE", "offset_days": 0,
	}, &errBody)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_OFFSET", errBody["code"])

	status = call(t, app, "tecnico", http.MethodPost, "/api/plans/"+planBase+"/promotions", map[string]any{
		"property_id": propA, "source_category_id": catGarrote, "dest_category_id": catGarrote,
		"quantity": 1, "date": "2022-02-01",
	}, &errBody)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "CATEGORY_CYCLE", errBody["code"])
}

func TestLedgerAPI_PromocionPorEdad(t *testing.T) {
	app := buildLedgerApp(t)
	require.Equal(t, http.StatusCreated,
		call(t, app, "admin", http.MethodPost, "/api/snapshots", snapshotBody(propA, catGarrote, 40, 2500, "2022-01-01"), nil))

	var pair map[string]any
	status := call(t, app, "tecnico", http.MethodPost, "/api/plans/"+planBase+"/promotions", map[string]any{
		"property_id": propA, "source_category_id": catGarrote, "date": "2022-03-01", "by_age": true,
	}, &pair)
	require.Equal(t, http.StatusCreated, status)
	exit := pair["exit"].(map[string]any)
	entry := pair["entry"].(map[string]any)
	assert.Equal(t, "EXIT_PROMOTION", exit["kind"])
	assert.Equal(t, catNovilho, entry["category_id"])
	assert.EqualValues(t, 40, entry["quantity"])
}

func TestLedgerAPI_Consolidado(t *testing.T) {
	app := buildLedgerApp(t)
	require.Equal(t, http.StatusCreated,
		call(t, app, "admin", http.MethodPost, "/api/snapshots", snapshotBody(propA, catGarrote, 100, 2500, "2022-01-01"), nil))
	require.Equal(t, http.StatusCreated,
		call(t, app, "admin", http.MethodPost, "/api/snapshots", snapshotBody(propB, catGarrote, 100, 2500, "2022-01-01"), nil))

	query := "?property_ids=" + propA + "," + propB + "&category_ids=" + catGarrote + "&as_of=2022-06-30"
	var cons map[string]any
	status := call(t, app, "consulta", http.MethodGet, "/api/plans/"+planBase+"/consolidation"+query, nil, &cons)
	require.Equal(t, http.StatusOK, status)
	grand := cons["grand_total"].(map[string]any)
	assert.EqualValues(t, 200, grand["quantity"])
	assert.Equal(t, "500000", grand["total_value"])
	assert.Len(t, cons["lines"], 2)

	req := httptest.NewRequest(http.MethodGet, "/api/plans/"+planBase+"/consolidation"+query+"&format=pdf", nil)
	req.Header.Set("Authorization", tokenForRole(t, "consulta"))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))

	var compare []map[string]any
	status = call(t, app, "consulta", http.MethodGet, "/api/consolidation/compare"+query+"&plan_ids="+planBase, nil, &compare)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, compare, 1)

	status = call(t, app, "consulta", http.MethodGet, "/api/consolidation/compare"+query+"&plan_ids="+planForeign, nil, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func jsonNumber(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}

package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgjwt "github.com/jhoicas/rebanho-api/pkg/jwt"
)

const (
	testJWTSecret = "secreto-de-pruebas-rebanho"
	testUserID    = "00000000-0000-0000-0000-000000000001"
	testCompanyID = "00000000-0000-0000-0000-000000000002"
	testIssuer    = "rebanho-api-test"
	testExpMin    = 60
)

func tokenForRole(t *testing.T, role string) string {
	t.Helper()
	return bearer(t, testJWTSecret, testCompanyID, role, testExpMin)
}

func bearer(t *testing.T, secret, companyID, role string, expMin int) string {
	t.Helper()
	tok, err := pkgjwt.Generate(secret, testUserID, companyID, role, testIssuer, expMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

// send lanza la petición con el header Authorization tal cual y devuelve estado y código de error.
func send(t *testing.T, app *fiber.App, method, path, authHeader string, body any) (int, string) {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var errBody struct {
		Code string `json:"code"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&errBody)
	return resp.StatusCode, errBody.Code
}

func TestRouter_PermisosPorRol(t *testing.T) {
	app := buildLedgerApp(t)
	birth := map[string]any{
		"property_id": propA, "category_id": catGarrote, "date": "2022-02-01", "kind": "ENTRY_BIRTH", "quantity": 5,
	}
	property := map[string]any{"name": "Fazenda Nova", "code": "NOV"}
	movements := "/api/plans/" + planBase + "/movements"
	balance := "/api/plans/" + planBase + "/balance?property_id=" + propA + "&category_id=" + catGarrote + "&as_of=2022-03-01"

	cases := []struct {
		name   string
		role   string
		method string
		path   string
		body   any
		status int
	}{
		{"tecnico registra movimientos", "tecnico", http.MethodPost, movements, birth, http.StatusCreated},
		{"consulta no registra movimientos", "consulta", http.MethodPost, movements, birth, http.StatusForbidden},
		{"consulta lee el saldo", "consulta", http.MethodGet, balance, nil, http.StatusOK},
		{"consulta lista movimientos", "consulta", http.MethodGet, movements, nil, http.StatusOK},
		{"tecnico no crea propiedades", "tecnico", http.MethodPost, "/api/properties", property, http.StatusForbidden},
		{"admin crea propiedades", "admin", http.MethodPost, "/api/properties", property, http.StatusCreated},
		{"rol desconocido", "bodega", http.MethodGet, "/api/plans", nil, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, code := send(t, app, tc.method, tc.path, tokenForRole(t, tc.role), tc.body)
			assert.Equal(t, tc.status, status)
			if tc.status == http.StatusForbidden {
				assert.Equal(t, "FORBIDDEN", code)
			}
		})
	}
}

func TestRouter_TokensInvalidos(t *testing.T) {
	app := buildLedgerApp(t)
	path := "/api/plans/" + planBase + "/movements"

	cases := []struct {
		name   string
		header string
		code   string
	}{
		{"sin header", "", "MISSING_TOKEN"},
		{"esquema distinto de Bearer", "Basic dXNlcjpwYXNz", "INVALID_TOKEN"},
		{"token malformado", "Bearer token.invalido.aqui", "INVALID_TOKEN"},
		{"firmado con otro secreto", bearer(t, "otro-secreto", testCompanyID, "admin", testExpMin), "INVALID_TOKEN"},
		{"expirado", bearer(t, testJWTSecret, testCompanyID, "admin", -1), "INVALID_TOKEN"},
		{"sin rol", bearer(t, testJWTSecret, testCompanyID, "", testExpMin), "MISSING_ROLE"},
		{"sin empresa", bearer(t, testJWTSecret, "", "admin", testExpMin), "MISSING_COMPANY"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, code := send(t, app, http.MethodGet, path, tc.header, nil)
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Equal(t, tc.code, code)
		})
	}
}

func TestRequirePlan_EmpresaDelToken(t *testing.T) {
	app := buildLedgerApp(t)

	status, code := send(t, app, http.MethodGet, "/api/plans/"+planForeign+"/movements", tokenForRole(t, "admin"), nil)
	assert.Equal(t, http.StatusForbidden, status, "plan de otra empresa")
	assert.Equal(t, "FORBIDDEN", code)

	// El dueño del plan ajeno sí lo ve, pero no el plan base.
	foreign := bearer(t, testJWTSecret, otherCompanyID, "admin", testExpMin)
	status, _ = send(t, app, http.MethodGet, "/api/plans/"+planForeign+"/movements", foreign, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = send(t, app, http.MethodPost, "/api/plans/"+planBase+"/movements", foreign, map[string]any{
		"property_id": propA, "category_id": catGarrote, "date": "2022-02-01", "kind": "ENTRY_BIRTH", "quantity": 1,
	})
	assert.Equal(t, http.StatusForbidden, status, "no se escribe en el libro de otra empresa")

	status, code = send(t, app, http.MethodGet, "/api/plans/no-existe/balance", tokenForRole(t, "consulta"), nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "UNKNOWN_PLAN", code)
}

func TestJWT_ClaimsDelLibro(t *testing.T) {
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, testCompanyID, pkgjwt.RoleTecnico, testIssuer, testExpMin)
	require.NoError(t, err)

	claims, err := pkgjwt.Parse(testJWTSecret, tok)
	require.NoError(t, err)
	assert.Equal(t, testUserID, claims.UserID)
	assert.Equal(t, testCompanyID, claims.CompanyID)
	assert.Equal(t, pkgjwt.RoleTecnico, claims.Role)
	assert.Equal(t, testIssuer, claims.Issuer)

	sinEmpresa, err := pkgjwt.Generate(testJWTSecret, testUserID, "", pkgjwt.RoleAdmin, testIssuer, testExpMin)
	require.NoError(t, err)
	_, err = pkgjwt.Parse(testJWTSecret, sinEmpresa)
	assert.ErrorIs(t, err, pkgjwt.ErrMissingCompany)
}

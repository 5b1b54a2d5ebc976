package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Victor-armando18/service-giftbuilder/internal/domain"
	"github.com/Victor-armando18/service-giftbuilder/internal/infrastructure/cart"
	"github.com/Victor-armando18/service-giftbuilder/internal/infrastructure/catalog"
	"github.com/Victor-armando18/service-giftbuilder/internal/infrastructure/jsonlogic"
	"github.com/Victor-armando18/service-giftbuilder/internal/infrastructure/memory"
	"github.com/Victor-armando18/service-giftbuilder/internal/infrastructure/rules"
	"github.com/Victor-armando18/service-giftbuilder/internal/interfaces"
	"github.com/Victor-armando18/service-giftbuilder/internal/metrics"
	"github.com/Victor-armando18/service-giftbuilder/internal/usecase"
)

const catalogYAML = `
boxes:
  - id: oak-crate
    title: Oak Crate
    maxProducts: 3
    variants:
      - id: oak-small
        price: 50
    optionSets:
      - name: ribbon
        values: [red, gold]
products:
  - id: candle
    title: Soy Candle
    variants:
      - id: candle-vanilla
        price: 20
  - id: mug
    title: Stoneware Mug
    variants:
      - id: mug-blue
        price: 15
  - id: throw
    title: Linen Throw
    variants:
      - id: throw-grey
        price: 15
`

func newServer(t *testing.T) (*echo.Echo, *cart.FileCart) {
	t.Helper()
	cat, err := catalog.Parse([]byte(catalogYAML))
	require.NoError(t, err)

	fileCart := cart.NewFileCart(filepath.Join(t.TempDir(), "submissions.json"))
	m := metrics.New()
	svc := usecase.NewSessionService(usecase.Dependencies{
		Store:        memory.NewSessionStore(),
		Catalog:      cat,
		Cart:         fileCart,
		Guards:       rules.NewFileLoader(""),
		Executor:     jsonlogic.NewExecutor(),
		Metrics:      m,
		RulesVersion: "v1",
		SessionTTL:   time.Hour,
	})
	return New(Options{Builder: svc, Catalog: cat, Metrics: m}), fileCart
}

func do(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestServer_BuildAndCheckout(t *testing.T) {
	e, fileCart := newServer(t)

	rec := do(t, e, http.MethodPost, "/sessions", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	session := decode[domain.Session](t, rec)
	base := "/sessions/" + session.ID

	rec = do(t, e, http.MethodPost, base+"/box", `{"boxId":"oak-crate","options":{"ribbon":"red"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	for _, id := range []string{"candle", "mug", "throw"} {
		rec = do(t, e, http.MethodPost, base+"/products", `{"productId":"`+id+`"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	result := decode[interfaces.DispatchResult](t, rec)
	assert.InDelta(t, 100.0, result.Session.State.TotalPrice, 1e-9)
	assert.InDelta(t, 5.0, result.Session.State.Discount, 1e-9)

	rec = do(t, e, http.MethodPost, base+"/products", `{"productId":"mug"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, e, http.MethodPost, base+"/actions", `{"type":"EDIT_PRODUCT","productId":"mug"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	result = decode[interfaces.DispatchResult](t, rec)
	require.NotNil(t, result.Session.State.EditingProductID)
	assert.Equal(t, "mug", *result.Session.State.EditingProductID)

	rec = do(t, e, http.MethodPost, base+"/checkout", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	checkout := decode[domain.CheckoutResult](t, rec)
	require.NotNil(t, checkout.Submission)
	assert.True(t, strings.HasPrefix(checkout.Submission.ID, "GIFT-"))
	assert.InDelta(t, 95.0, checkout.Submission.FinalPrice, 1e-9)

	stored, err := fileCart.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, stored, 1)

	rec = do(t, e, http.MethodGet, base, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_ErrorMapping(t *testing.T) {
	e, _ := newServer(t)
	session := decode[domain.Session](t, do(t, e, http.MethodPost, "/sessions", ""))
	base := "/sessions/" + session.ID

	cases := []struct {
		name, method, path, body string
		want                     int
	}{
		{"unknown session", http.MethodGet, "/sessions/missing", "", http.StatusNotFound},
		{"unknown action", http.MethodPost, base + "/actions", `{"type":"CHECKOUT"}`, http.StatusBadRequest},
		{"malformed action", http.MethodPost, base + "/actions", `{"type":"SET_STEP"}`, http.StatusBadRequest},
		{"unknown box", http.MethodPost, base + "/box", `{"boxId":"pine"}`, http.StatusNotFound},
		{"missing box id", http.MethodPost, base + "/box", `{}`, http.StatusBadRequest},
		{"bad option", http.MethodPost, base + "/box", `{"boxId":"oak-crate","options":{"ribbon":"blue"}}`, http.StatusUnprocessableEntity},
		{"patch without box", http.MethodPatch, base + "/box/options", `[{"op":"add","path":"/ribbon","value":"red"}]`, http.StatusConflict},
		{"unknown product", http.MethodPost, base + "/products", `{"productId":"lamp"}`, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, e, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestServer_CheckoutBlocked(t *testing.T) {
	e, _ := newServer(t)
	session := decode[domain.Session](t, do(t, e, http.MethodPost, "/sessions", ""))

	rec := do(t, e, http.MethodPost, "/sessions/"+session.ID+"/checkout", "")
	require.Equal(t, http.StatusForbidden, rec.Code)
	body := decode[struct {
		Error  string                  `json:"error"`
		Guards []domain.GuardViolation `json:"guards"`
	}](t, rec)
	assert.Equal(t, "Blocked by Guards", body.Error)
	assert.NotEmpty(t, body.Guards)
}

func TestServer_PatchOptionsAndDelete(t *testing.T) {
	e, _ := newServer(t)
	session := decode[domain.Session](t, do(t, e, http.MethodPost, "/sessions", ""))
	base := "/sessions/" + session.ID

	require.Equal(t, http.StatusOK, do(t, e, http.MethodPost, base+"/box", `{"boxId":"oak-crate"}`).Code)

	rec := do(t, e, http.MethodPatch, base+"/box/options", `[{"op":"add","path":"/ribbon","value":"gold"}]`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[interfaces.DispatchResult](t, rec)
	assert.Equal(t, "gold", result.Session.State.SelectedBox.Options["ribbon"])

	rec = do(t, e, http.MethodPatch, base+"/box/options", `not a patch`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	assert.Equal(t, http.StatusNoContent, do(t, e, http.MethodDelete, base, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, e, http.MethodDelete, base, "").Code)
}

func TestServer_CatalogHealthAndMetrics(t *testing.T) {
	e, _ := newServer(t)

	rec := do(t, e, http.MethodGet, "/boxes", "")
	require.Equal(t, http.StatusOK, rec.Code)
	boxes := decode[[]interfaces.BoxDefinition](t, rec)
	require.Len(t, boxes, 1)
	assert.Equal(t, 3, boxes[0].MaxProducts)

	rec = do(t, e, http.MethodGet, "/products", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]interfaces.ProductDefinition](t, rec), 3)

	assert.Equal(t, http.StatusOK, do(t, e, http.MethodGet, "/healthz", "").Code)

	do(t, e, http.MethodPost, "/sessions", "")
	rec = do(t, e, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "giftbuilder_sessions_active 1")
}

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		domain.ErrSessionNotFound:  http.StatusNotFound,
		domain.ErrVariantNotFound:  http.StatusNotFound,
		domain.ErrDuplicateProduct: http.StatusConflict,
		domain.ErrSessionChanged:   http.StatusConflict,
		domain.ErrInvalidOption:    http.StatusUnprocessableEntity,
		domain.ErrCheckoutBlocked:  http.StatusForbidden,
		domain.ErrRulePackNotFound: http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, statusFor(fmt.Errorf("wrapped: %w", err)), err.Error())
	}
}

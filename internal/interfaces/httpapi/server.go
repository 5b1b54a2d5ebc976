// Package httpapi exposes the gift builder over REST with echo.
package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/Victor-armando18/service-giftbuilder/internal/domain"
	"github.com/Victor-armando18/service-giftbuilder/internal/interfaces"
	"github.com/Victor-armando18/service-giftbuilder/internal/metrics"
	"github.com/Victor-armando18/service-giftbuilder/pkg/giftbuilder"
)

type Options struct {
	Builder      interfaces.BuilderFacade
	Catalog      interfaces.CatalogService
	Metrics      *metrics.Metrics
	Logger       *zap.Logger
	AllowOrigins []string
}

type handler struct {
	builder interfaces.BuilderFacade
	catalog interfaces.CatalogService
	logger  *zap.Logger
}

type selectBoxRequest struct {
	BoxID     string            `json:"boxId"`
	VariantID string            `json:"variantId"`
	Options   map[string]string `json:"options"`
}

type addProductRequest struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId"`
}

// New builds the echo instance with every route registered.
func New(opts Options) *echo.Echo {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	origins := opts.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAccept},
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency))
			return nil
		},
	}))

	h := &handler{builder: opts.Builder, catalog: opts.Catalog, logger: logger}

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	if opts.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(opts.Metrics.Handler()))
	}

	e.GET("/boxes", h.listBoxes)
	e.GET("/products", h.listProducts)

	e.POST("/sessions", h.createSession)
	e.GET("/sessions/:id", h.getSession)
	e.DELETE("/sessions/:id", h.deleteSession)
	e.POST("/sessions/:id/actions", h.dispatch)
	e.POST("/sessions/:id/box", h.selectBox)
	e.PATCH("/sessions/:id/box/options", h.patchBoxOptions)
	e.POST("/sessions/:id/products", h.addProduct)
	e.POST("/sessions/:id/checkout", h.checkout)

	return e
}

func (h *handler) listBoxes(c echo.Context) error {
	boxes, err := h.catalog.ListBoxes(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, boxes)
}

func (h *handler) listProducts(c echo.Context) error {
	products, err := h.catalog.ListProducts(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, products)
}

func (h *handler) createSession(c echo.Context) error {
	session, err := h.builder.Create(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, session)
}

func (h *handler) getSession(c echo.Context) error {
	session, err := h.builder.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, session)
}

func (h *handler) deleteSession(c echo.Context) error {
	if err := h.builder.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handler) dispatch(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Payload inválido"})
	}
	action, err := giftbuilder.DecodeAction(body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	result, err := h.builder.Dispatch(c.Request().Context(), c.Param("id"), action)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *handler) selectBox(c echo.Context) error {
	var req selectBoxRequest
	if err := c.Bind(&req); err != nil || req.BoxID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "boxId is required"})
	}
	result, err := h.builder.SelectCatalogBox(c.Request().Context(), c.Param("id"), req.BoxID, req.VariantID, req.Options)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *handler) patchBoxOptions(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid patch request"})
	}
	result, err := h.builder.PatchBoxOptions(c.Request().Context(), c.Param("id"), body)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *handler) addProduct(c echo.Context) error {
	var req addProductRequest
	if err := c.Bind(&req); err != nil || req.ProductID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "productId is required"})
	}
	result, err := h.builder.AddCatalogProduct(c.Request().Context(), c.Param("id"), req.ProductID, req.VariantID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *handler) checkout(c echo.Context) error {
	result, err := h.builder.Checkout(c.Request().Context(), c.Param("id"))
	if errors.Is(err, domain.ErrCheckoutBlocked) {
		return c.JSON(http.StatusForbidden, map[string]any{
			"error":        "Blocked by Guards",
			"guards":       result.GuardsHit,
			"rulesVersion": result.RulesVersion,
		})
	}
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, result)
}

func (h *handler) fail(c echo.Context, err error) error {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", c.Path()),
			zap.String("session_id", c.Param("id")),
			zap.Error(err))
	}
	return c.JSON(status, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrBoxNotFound),
		errors.Is(err, domain.ErrVariantNotFound),
		errors.Is(err, domain.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateProduct),
		errors.Is(err, domain.ErrNoBoxSelected),
		errors.Is(err, domain.ErrSessionChanged):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidOption),
		errors.Is(err, domain.ErrInvalidPatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrCheckoutBlocked):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

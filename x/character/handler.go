// Package character serves the personagem resource
package character

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/totegamma/personagens/core"
)

var tracer = otel.Tracer("character")

// Handler is the interface for handling HTTP requests
type Handler interface {
	Create(c echo.Context) error
	List(c echo.Context) error
	Get(c echo.Context) error
	Update(c echo.Context) error
	Delete(c echo.Context) error
}

type handler struct {
	service core.CharacterService
}

// NewHandler creates a new handler
func NewHandler(service core.CharacterService) Handler {
	return &handler{service: service}
}

// Mount registers the character routes on g, which is expected to live at core.CharacterBasePath
func Mount(g *echo.Group, h Handler) {
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

// parseID accepts ids that fit the bigint id column
func parseID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 63)
}

func respondInvalidID(c echo.Context, err error) error {
	// out of range ids are never issued by the sequence
	if errors.Is(err, strconv.ErrRange) {
		return c.JSON(http.StatusNotFound, core.ErrorResponse{Error: "character not found"})
	}
	return c.JSON(http.StatusBadRequest, core.ErrorResponse{Error: "invalid id", Message: err.Error()})
}

func (h handler) respondError(c echo.Context, span trace.Span, err error) error {
	var validationErr core.ErrorValidation
	if errors.As(err, &validationErr) {
		return c.JSON(http.StatusBadRequest, validationErr.Fields)
	}

	var notFoundErr core.ErrorNotFound
	if errors.As(err, &notFoundErr) {
		return c.JSON(http.StatusNotFound, core.ErrorResponse{Error: "character not found"})
	}

	span.SetStatus(codes.Error, err.Error())
	slog.ErrorContext(
		c.Request().Context(), "character request failed",
		slog.String("error", err.Error()),
		slog.String("module", "character"),
	)
	return c.JSON(http.StatusInternalServerError, core.ErrorResponse{Error: "internal error", Message: err.Error()})
}

// Create stores a new character
func (h handler) Create(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Character.Handler.Create")
	defer span.End()

	var input core.CharacterInput
	err := c.Bind(&input)
	if err != nil {
		return c.JSON(http.StatusBadRequest, core.ErrorResponse{Error: "invalid request", Message: err.Error()})
	}

	created, err := h.service.Create(ctx, input)
	if err != nil {
		return h.respondError(c, span, err)
	}

	return c.JSON(http.StatusCreated, created)
}

// List returns every character
func (h handler) List(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Character.Handler.List")
	defer span.End()

	characters, err := h.service.List(ctx)
	if err != nil {
		return h.respondError(c, span, err)
	}
	if characters == nil {
		characters = []core.Character{}
	}

	return c.JSON(http.StatusOK, characters)
}

// Get returns a character by ID
func (h handler) Get(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Character.Handler.Get")
	defer span.End()

	id, err := parseID(c)
	if err != nil {
		return respondInvalidID(c, err)
	}

	character, err := h.service.Get(ctx, id)
	if err != nil {
		return h.respondError(c, span, err)
	}

	return c.JSON(http.StatusOK, character)
}

// Update replaces a character
func (h handler) Update(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Character.Handler.Update")
	defer span.End()

	id, err := parseID(c)
	if err != nil {
		return respondInvalidID(c, err)
	}

	var input core.CharacterInput
	err = c.Bind(&input)
	if err != nil {
		return c.JSON(http.StatusBadRequest, core.ErrorResponse{Error: "invalid request", Message: err.Error()})
	}

	updated, err := h.service.Update(ctx, id, input)
	if err != nil {
		return h.respondError(c, span, err)
	}

	return c.JSON(http.StatusOK, updated)
}

// Delete removes a character
func (h handler) Delete(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Character.Handler.Delete")
	defer span.End()

	id, err := parseID(c)
	if err != nil {
		return respondInvalidID(c, err)
	}

	err = h.service.Delete(ctx, id)
	if err != nil {
		return h.respondError(c, span, err)
	}

	return c.NoContent(http.StatusNoContent)
}

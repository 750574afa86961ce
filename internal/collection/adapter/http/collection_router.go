package http

import (
	"collection-tracker/internal/collection/domain/model"
	"collection-tracker/internal/collection/usecase"
	apperrors "collection-tracker/internal/shared/errors"

	"github.com/gofiber/fiber/v2"
)

// CollectionHTTPHandler handles HTTP requests for collection changes
type CollectionHTTPHandler struct {
	usecase usecase.CollectionUsecaseInterface
}

// NewCollectionHTTPHandler creates a new collection HTTP handler
func NewCollectionHTTPHandler(uc usecase.CollectionUsecaseInterface) *CollectionHTTPHandler {
	return &CollectionHTTPHandler{usecase: uc}
}

// ChangeRequest is the body of a card change. UserID and CardID come from the path.
type ChangeRequest struct {
	SetID      string                `json:"setId"`
	Rarity     model.Rarity          `json:"rarity"`
	Finish     model.Finish          `json:"finish"`
	Special    model.Special         `json:"special"`
	CountDelta int                   `json:"countDelta"`
	Subgroup   *model.SubgroupToggle `json:"subgroup,omitempty"`
}

// SubgroupRequest is the body of a subgroup toggle
type SubgroupRequest struct {
	Collecting bool `json:"collecting"`
	Count      int  `json:"count"`
}

// SetupCollectionRoutes registers the collection routes under router
func (h *CollectionHTTPHandler) SetupCollectionRoutes(router fiber.Router, middleware *Middleware) {
	users := router.Group("/users/:userID")

	users.Post("/cards/:cardID/changes", middleware.Protect(), h.ApplyChange)
	users.Get("/cards/:cardID", middleware.Protect(), h.GetCardRecord)

	users.Get("/sets/:setID", middleware.Protect(), h.GetSetAggregate)
	users.Put("/sets/:setID/subgroups/:subgroupID", middleware.Protect(), h.SetSubgroupCollecting)
	users.Post("/sets/:setID/rebuild", middleware.Protect(), h.RebuildSetAggregate)
}

// ApplyChange handles POST /users/:userID/cards/:cardID/changes
func (h *CollectionHTTPHandler) ApplyChange(c *fiber.Ctx) error {
	var req ChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, apperrors.NewValidationError("invalid request body").WithCause(err))
	}

	result, err := h.usecase.ApplyChange(c.UserContext(), model.CollectionChange{
		UserID:     c.Params("userID"),
		CardID:     c.Params("cardID"),
		SetID:      req.SetID,
		Rarity:     req.Rarity,
		Finish:     req.Finish,
		Special:    req.Special,
		CountDelta: req.CountDelta,
		Subgroup:   req.Subgroup,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(result)
}

// GetCardRecord handles GET /users/:userID/cards/:cardID
func (h *CollectionHTTPHandler) GetCardRecord(c *fiber.Ctx) error {
	rec, err := h.usecase.GetCardRecord(c.UserContext(), c.Params("userID"), c.Params("cardID"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(rec)
}

// GetSetAggregate handles GET /users/:userID/sets/:setID
func (h *CollectionHTTPHandler) GetSetAggregate(c *fiber.Ctx) error {
	agg, err := h.usecase.GetSetAggregate(c.UserContext(), c.Params("userID"), c.Params("setID"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(agg)
}

// SetSubgroupCollecting handles PUT /users/:userID/sets/:setID/subgroups/:subgroupID
func (h *CollectionHTTPHandler) SetSubgroupCollecting(c *fiber.Ctx) error {
	var req SubgroupRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, apperrors.NewValidationError("invalid request body").WithCause(err))
	}

	agg, err := h.usecase.SetSubgroupCollecting(c.UserContext(), c.Params("userID"), c.Params("setID"), model.SubgroupToggle{
		SubgroupID: c.Params("subgroupID"),
		Collecting: req.Collecting,
		Count:      req.Count,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(agg)
}

// RebuildSetAggregate handles POST /users/:userID/sets/:setID/rebuild
func (h *CollectionHTTPHandler) RebuildSetAggregate(c *fiber.Ctx) error {
	agg, err := h.usecase.RebuildSetAggregate(c.UserContext(), c.Params("userID"), c.Params("setID"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(agg)
}

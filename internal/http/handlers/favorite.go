package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursetrack-backend/internal/http/response"
	"github.com/yungbote/coursetrack-backend/internal/platform/dbctx"
	"github.com/yungbote/coursetrack-backend/internal/services"
)

type FavoriteHandler struct {
	favorites services.FavoriteService
}

func NewFavoriteHandler(favorites services.FavoriteService) *FavoriteHandler {
	return &FavoriteHandler{favorites: favorites}
}

// POST /api/favorites/:kind/toggle
// body: { "itemId": "<uuid>" }
func (h *FavoriteHandler) Toggle(c *gin.Context) {
	var req struct {
		ItemID string `json:"itemId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	itemID, ok := parseUUID(c, req.ItemID, "itemId")
	if !ok {
		return
	}
	res, err := h.favorites.Toggle(c.Request.Context(), c.Param("kind"), itemID)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, res)
}

// GET /api/favorites/:kind
func (h *FavoriteHandler) List(c *gin.Context) {
	items, err := h.favorites.List(dbctx.Context{Ctx: c.Request.Context()}, c.Param("kind"))
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"items": items})
}

// GET /api/nodes/:id/items?kind=<kind>
func (h *FavoriteHandler) ListNodeItems(c *gin.Context) {
	nodeID, ok := parseUUID(c, c.Param("id"), "node id")
	if !ok {
		return
	}
	items, err := h.favorites.ListForNode(dbctx.Context{Ctx: c.Request.Context()}, c.Query("kind"), nodeID)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"items": items})
}

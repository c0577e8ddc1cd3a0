package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursetrack-backend/internal/http/response"
	"github.com/yungbote/coursetrack-backend/internal/platform/dbctx"
	"github.com/yungbote/coursetrack-backend/internal/services"
)

type ProgressHandler struct {
	progress  services.ProgressService
	catalog   services.CatalogService
	reconcile services.ReconcileService
}

func NewProgressHandler(progress services.ProgressService, catalog services.CatalogService, reconcile services.ReconcileService) *ProgressHandler {
	return &ProgressHandler{progress: progress, catalog: catalog, reconcile: reconcile}
}

// POST /api/progress/toggle
// body: { "leafId": "<uuid>" }
func (h *ProgressHandler) Toggle(c *gin.Context) {
	var req struct {
		LeafID string `json:"leafId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	leafID, ok := parseUUID(c, req.LeafID, "leafId")
	if !ok {
		return
	}
	res, err := h.progress.ToggleLeaf(c.Request.Context(), leafID)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, res)
}

// GET /api/progress/done?kind=lesson
func (h *ProgressHandler) ListDone(c *gin.Context) {
	ids, err := h.catalog.ListDone(dbctx.Context{Ctx: c.Request.Context()}, c.Query("kind"))
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"nodeIds": ids})
}

// GET /api/progress/audit
func (h *ProgressHandler) Audit(c *gin.Context) {
	res, err := h.reconcile.ReconcileMe(c.Request.Context(), true)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, res)
}

// POST /api/progress/reconcile
func (h *ProgressHandler) Reconcile(c *gin.Context) {
	res, err := h.reconcile.ReconcileMe(c.Request.Context(), false)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, res)
}

package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursetrack-backend/internal/http/response"
	"github.com/yungbote/coursetrack-backend/internal/platform/dbctx"
	"github.com/yungbote/coursetrack-backend/internal/services"
)

type CatalogHandler struct {
	catalog services.CatalogService
}

func NewCatalogHandler(catalog services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// GET /api/trees/:variant/courses
func (h *CatalogHandler) ListCourses(c *gin.Context) {
	nodes, err := h.catalog.ListRoots(dbctx.Context{Ctx: c.Request.Context()}, c.Param("variant"))
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"nodes": nodes})
}

// GET /api/nodes/:id
func (h *CatalogHandler) GetNode(c *gin.Context) {
	id, ok := parseUUID(c, c.Param("id"), "node id")
	if !ok {
		return
	}
	detail, err := h.catalog.GetNode(dbctx.Context{Ctx: c.Request.Context()}, id)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, detail)
}

// GET /api/nodes/:id/children
func (h *CatalogHandler) ListChildren(c *gin.Context) {
	id, ok := parseUUID(c, c.Param("id"), "node id")
	if !ok {
		return
	}
	nodes, err := h.catalog.ListChildren(dbctx.Context{Ctx: c.Request.Context()}, id)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"nodes": nodes})
}

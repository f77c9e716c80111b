package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

//
// --- Admin Dashboard ---
//

// GetDashboard returns KPI data plus the order and product listings.
// GET /v1/admin/dashboard
func (h *Handlers) GetDashboard(c *gin.Context) {
	dash, err := h.Admin.Dashboard(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to load dashboard")
		return
	}
	c.JSON(http.StatusOK, dash)
}

// GetStats returns only the KPI tiles.
// GET /v1/admin/stats
func (h *Handlers) GetStats(c *gin.Context) {
	stats, err := h.Admin.Stats(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to load stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

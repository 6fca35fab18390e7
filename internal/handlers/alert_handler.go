package handlers

import (
	"alert-desk/pkg/pagination"
	"alert-desk/pkg/response"

	"github.com/gin-gonic/gin"
)

// ListAlerts returns the live alert set, optionally filtered to one
// severity and paginated for display.
func (a *API) ListAlerts(c *gin.Context) {
	severity := c.DefaultQuery("severity", "all")

	alerts := a.engine.Alerts(severity)
	page := pagination.GetPage(c)
	pageSize := pagination.GetPageSize(c)
	start, end := pagination.Slice(page, pageSize, len(alerts))

	response.Success(c, gin.H{
		"alerts": alerts[start:end],
		"pagination": pagination.Pagination{
			Page:     page,
			PageSize: pageSize,
			Total:    len(alerts),
		},
		"counts": a.engine.CountBySeverity(),
	})
}

// AcknowledgeAlert forwards an ack to the backend. A failed ack becomes a
// dismissable notice, never an engine fault.
func (a *API) AcknowledgeAlert(c *gin.Context) {
	alertID := c.Param("id")
	if alertID == "" {
		response.InvalidParams(c, "alert id is required")
		return
	}

	if err := a.backend.Acknowledge(c.Request.Context(), alertID); err != nil {
		a.notices.Error("Could not acknowledge alert: " + err.Error())
		response.Fail(c, err.Error())
		return
	}
	response.Success(c, gin.H{"acknowledged": alertID})
}

package handlers

import (
	"alert-desk/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ListNotices returns pending user notices, newest first.
func (a *API) ListNotices(c *gin.Context) {
	response.Success(c, a.notices.List())
}

// DismissNotice drops one notice from the feed.
func (a *API) DismissNotice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.InvalidParams(c, "notice id must be a uuid")
		return
	}
	if !a.notices.Dismiss(id) {
		response.NotFound(c, "notice not found")
		return
	}
	response.Success(c, nil)
}

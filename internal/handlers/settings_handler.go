package handlers

import (
	"alert-desk/internal/models"
	"alert-desk/pkg/response"
	"alert-desk/pkg/validator"

	"github.com/gin-gonic/gin"
)

// GetSettings returns the current settings. With refresh=true the remote
// copy is fetched first.
func (a *API) GetSettings(c *gin.Context) {
	if c.Query("refresh") == "true" {
		s, err := a.settings.FetchRemote(c.Request.Context())
		if err != nil {
			a.notices.Error("Could not fetch settings: " + err.Error())
			response.Fail(c, err.Error())
			return
		}
		response.Success(c, s)
		return
	}
	response.Success(c, a.settings.Current())
}

// UpdateSettings replaces the settings with the full posted object. The
// update succeeds or fails as a whole. Changing the server URL does not
// reconnect the channel; that stays an explicit user action.
func (a *API) UpdateSettings(c *gin.Context) {
	var next models.Settings
	if err := c.ShouldBindJSON(&next); err != nil {
		response.InvalidParams(c, err.Error())
		return
	}
	if err := validator.Struct(next); err != nil {
		response.InvalidParams(c, validator.Describe(err))
		return
	}

	if err := a.settings.Update(c.Request.Context(), next); err != nil {
		a.notices.Error("Could not update settings: " + err.Error())
		response.Fail(c, err.Error())
		return
	}
	response.Success(c, next)
}

package handlers

import (
	"encoding/base64"
	"strconv"
	"strings"

	"alert-desk/internal/models"
	"alert-desk/internal/protocol"
	apierrors "alert-desk/pkg/errors"
	"alert-desk/pkg/response"

	"github.com/gin-gonic/gin"
)

// ListSounds returns the local sound catalog plus the reserved sentinel
// names the dropdown always offers.
func (a *API) ListSounds(c *gin.Context) {
	response.Success(c, gin.H{
		"sounds":    a.catalog.List(),
		"sentinels": []string{models.SoundNone, models.SoundBeep},
	})
}

type uploadSoundRequest struct {
	Name       string `json:"name" binding:"required"`
	CustomName string `json:"custom_name"`
	Data       string `json:"data" binding:"required"`
}

// UploadSound pushes a user audio file to the backend and refreshes the
// catalog over the persistent channel.
func (a *API) UploadSound(c *gin.Context) {
	var req uploadSoundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.InvalidParams(c, err.Error())
		return
	}

	name := req.CustomName
	if name == "" {
		name = req.Name
	}
	if isSentinelName(name) {
		response.InvalidParams(c, "sound name is reserved")
		return
	}

	data, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		response.InvalidParams(c, "sound data is not valid base64")
		return
	}

	sound, err := a.backend.UploadSound(c.Request.Context(), req.Name, req.CustomName, data)
	if err != nil {
		a.notices.Error("Could not upload sound: " + err.Error())
		response.Fail(c, err.Error())
		return
	}

	// Pull the authoritative catalog; the backend may have renamed on
	// collision.
	a.refreshSounds()
	response.Success(c, sound)
}

// DeleteSound removes an uploaded sound. Default sounds are refused by the
// backend.
func (a *API) DeleteSound(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.InvalidParams(c, "sound id must be numeric")
		return
	}

	if err := a.backend.DeleteSound(c.Request.Context(), id); err != nil {
		if apierrors.IsKind(err, apierrors.KindNotFound) {
			response.NotFound(c, "sound not found")
			return
		}
		a.notices.Error("Could not delete sound: " + err.Error())
		response.Fail(c, err.Error())
		return
	}

	a.refreshSounds()
	response.Success(c, gin.H{"deleted": id})
}

// StopSounds halts all in-flight playback immediately.
func (a *API) StopSounds(c *gin.Context) {
	a.effects.StopAll()
	response.Success(c, nil)
}

func (a *API) refreshSounds() {
	a.channel.Send(protocol.GetSounds())
}

func isSentinelName(name string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	return n == models.SoundNone || n == models.SoundBeep
}

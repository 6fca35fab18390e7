package handlers

import (
	"alert-desk/internal/backendapi"
	"alert-desk/internal/engine"
	"alert-desk/internal/notices"
	"alert-desk/internal/settings"
	"alert-desk/internal/sideeffect"
	"alert-desk/internal/sound"
	"alert-desk/internal/transport"
	"alert-desk/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// API serves the local presentation boundary: a loopback HTTP surface the
// UI polls for the live alert set and drives user actions through.
type API struct {
	engine   *engine.Engine
	channel  *transport.Channel
	settings *settings.Store
	catalog  *sound.Catalog
	effects  *sideeffect.Dispatcher
	backend  *backendapi.Client
	notices  *notices.Feed
	logger   zerolog.Logger
}

func NewAPI(
	eng *engine.Engine,
	channel *transport.Channel,
	store *settings.Store,
	catalog *sound.Catalog,
	effects *sideeffect.Dispatcher,
	backend *backendapi.Client,
	feed *notices.Feed,
	logger zerolog.Logger,
) *API {
	return &API{
		engine:   eng,
		channel:  channel,
		settings: store,
		catalog:  catalog,
		effects:  effects,
		backend:  backend,
		notices:  feed,
		logger:   logger.With().Str("component", "api").Logger(),
	}
}

func (a *API) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")
	{
		api.GET("/alerts", a.ListAlerts)
		api.POST("/alerts/:id/ack", a.AcknowledgeAlert)

		api.GET("/status", a.ConnectionStatus)
		api.POST("/connect", a.Connect)
		api.POST("/disconnect", a.Disconnect)

		api.GET("/settings", a.GetSettings)
		api.POST("/settings/update", a.UpdateSettings)

		api.GET("/sounds", a.ListSounds)
		api.POST("/sounds/upload", a.UploadSound)
		api.POST("/sounds/:id/delete", a.DeleteSound)
		api.POST("/sounds/stop", a.StopSounds)

		api.GET("/notices", a.ListNotices)
		api.POST("/notices/:id/dismiss", a.DismissNotice)
	}
}

// ConnectionStatus reports the transport channel state.
func (a *API) ConnectionStatus(c *gin.Context) {
	response.Success(c, gin.H{
		"state":      a.channel.State().String(),
		"connection": a.channel.ConnState(),
	})
}

// Connect opens the persistent channel. This is the user-initiated path:
// the retry budget resets.
func (a *API) Connect(c *gin.Context) {
	if err := a.channel.Open(); err != nil {
		response.Fail(c, err.Error())
		return
	}
	response.Success(c, a.channel.ConnState())
}

// Disconnect closes the channel deliberately; no reconnect follows.
func (a *API) Disconnect(c *gin.Context) {
	a.channel.Close()
	response.Success(c, a.channel.ConnState())
}

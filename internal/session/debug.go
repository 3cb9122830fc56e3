package session

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// StartDebugServer exposes a local status endpoint for operating bots:
// /healthz for liveness and /state for a snapshot of the mirrored room.
// Disabled unless debug_addr is configured. Snapshots are copies, so
// handlers never block the dispatch loop.
func (s *Session) StartDebugServer() {
	if s.cfg.DebugAddr == "" {
		return
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"authenticated": s.Authenticated(),
			"room":          s.store.Meta().Slug,
		})
	})

	r.GET("/state", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"meta":     s.store.Meta(),
			"booth":    s.store.Booth(),
			"playback": s.store.Playback(),
			"users":    s.store.Users(),
			"votes":    s.store.Votes(),
			"grabs":    s.store.Grabs(),
			"mutes":    s.store.Mutes(),
			"self":     s.store.Self(),
		})
	})

	srv := &http.Server{Addr: s.cfg.DebugAddr, Handler: r}
	s.mu.Lock()
	s.debugSrv = srv
	s.mu.Unlock()

	go func() {
		log.Info().Str("module", "debug").Str("addr", s.cfg.DebugAddr).Msg("debug server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Str("module", "debug").Err(err).Msg("debug server error")
		}
	}()
}

func (s *Session) stopDebugServer() {
	s.mu.Lock()
	srv := s.debugSrv
	s.debugSrv = nil
	s.mu.Unlock()
	if srv == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Str("module", "debug").Err(err).Msg("debug server forced to shutdown")
	}
}

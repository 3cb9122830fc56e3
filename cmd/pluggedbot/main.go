package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jbarney86/plugged/internal/config"
	"github.com/jbarney86/plugged/internal/domain"
	"github.com/jbarney86/plugged/internal/session"
	"github.com/jbarney86/plugged/internal/wire"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	email := os.Getenv("PLUG_EMAIL")
	password := os.Getenv("PLUG_PASSWORD")
	room := os.Getenv("PLUG_ROOM")
	if email == "" || password == "" || room == "" {
		log.Fatal().Msg("PLUG_EMAIL, PLUG_PASSWORD and PLUG_ROOM must be set")
	}

	sess, err := session.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create session")
	}

	sess.On(wire.EventAdvance, func(ev wire.Event) {
		adv := ev.Data.(wire.Advance)
		log.Info().
			Str("title", adv.Playback.Media.Title).
			Str("author", adv.Playback.Media.Author).
			Int("prevPositive", adv.Previous.Score.Positive).
			Int("prevNegative", adv.Previous.Score.Negative).
			Int("prevGrabs", adv.Previous.Score.Grabs).
			Msg("track advanced")
	})
	sess.On(wire.EventChat, func(ev wire.Event) {
		msg := ev.Data.(domain.ChatMessage)
		log.Info().Str("from", msg.Username).Msg(msg.Message)
	})
	sess.On(wire.EventConnectionLost, func(wire.Event) {
		log.Warn().Msg("connection lost, reconnecting")
	})
	sess.On(wire.EventConnected, func(wire.Event) {
		log.Info().Msg("connected")
	})

	if err := sess.Login(ctx, session.Credentials{Email: email, Password: password}); err != nil {
		log.Fatal().Err(err).Msg("login failed")
	}
	if err := sess.Connect(ctx, room); err != nil {
		log.Fatal().Err(err).Msg("could not join room")
	}
	sess.StartDebugServer()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx := context.Background()
	if err := sess.Logout(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("logout failed")
	}
	log.Info().Msg("Session exited gracefully")
}

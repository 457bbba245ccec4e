package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	router "github.com/miali88/flowonai/internal/adapters/http"
	signaling "github.com/miali88/flowonai/internal/adapters/signal"
	"github.com/miali88/flowonai/internal/app"
	"github.com/miali88/flowonai/internal/app/orch"
	"github.com/miali88/flowonai/internal/app/sfu"
	"github.com/miali88/flowonai/internal/auth"
	"github.com/miali88/flowonai/internal/config"
	"github.com/miali88/flowonai/internal/credential"
)

func main() {
	args := os.Args[1:]
	tokenMode := len(args) > 0 && args[0] == "token"
	if tokenMode {
		args = args[1:]
	}

	fs := config.Flags()
	sub := fs.String("sub", "", "token mode: principal to issue a dashboard token for")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	level, _ := fs.GetString("log-level")
	config.SetupLogging(level)

	cfg, err := config.Load(fs)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	config.SetupLogging(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	verifier := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret), cfg.Auth.Issuer)
	if tokenMode {
		if *sub == "" {
			log.Fatal().Msg("token mode needs --sub")
		}
		token, err := verifier.Generate(*sub, cfg.Auth.TokenTTL)
		if err != nil {
			log.Fatal().Err(err).Msg("generate token")
		}
		fmt.Println(token)
		return
	}

	if err := run(cfg, verifier); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
	log.Info().Msg("Server exited gracefully")
}

func run(cfg *config.Config, verifier auth.TokenVerifier) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	issuer, err := credential.NewIssuer(cfg.Voice.APIKey, cfg.Voice.APISecret, cfg.Voice.TokenTTL)
	if err != nil {
		return err
	}

	o := &orch.Orchestrator{
		Registry: app.NewRegistry(),
		Rooms:    app.NewRoomManager(),
		Policy:   app.SimplePolicy{Kick: cfg.Signal.KickSlow},
		Relays:   sfu.NewRelayManager(),
	}
	limiter := signaling.NewRoomRateLimiter(cfg.Signal.JoinLimit, cfg.Signal.JoinInterval)

	r := router.SetupRouter(ctx, cfg, router.Deps{
		Orch:     o,
		Issuer:   issuer,
		Verifier: verifier,
		Limiter:  limiter,
	})
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", addr).Str("provider", cfg.Voice.Provider).Msg("Flowon server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if cfg.Signal.JoinInterval <= 0 {
			return nil
		}
		ticker := time.NewTicker(cfg.Signal.JoinInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				limiter.Prune()
			}
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
		}
		return nil
	})
	return g.Wait()
}

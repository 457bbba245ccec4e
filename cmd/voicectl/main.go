// Command voicectl runs one voice session against a Flowon backend from the
// terminal.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/miali88/flowonai/internal/adapters/livekit"
	"github.com/miali88/flowonai/internal/adapters/sfuclient"
	"github.com/miali88/flowonai/internal/config"
	"github.com/miali88/flowonai/internal/media"
	"github.com/miali88/flowonai/internal/voice"
)

func main() {
	fs := config.ClientFlags()
	agentID := fs.String("agent", "", "agent id")
	userID := fs.String("user", "", "user id")
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	level, _ := fs.GetString("log-level")
	config.SetupLogging(level)

	cfg, err := config.LoadClient(fs)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	config.SetupLogging(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}
	if *agentID == "" || *userID == "" {
		log.Fatal().Msg("--agent and --user are required")
	}

	if err := run(cfg, *agentID, *userID); err != nil {
		log.Error().Err(err).Msg("session failed")
		os.Exit(1)
	}
}

func run(cfg *config.ClientConfig, agentID, userID string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	audio := media.Silence()
	if cfg.AudioSource != "" {
		audio = media.OggFile(cfg.AudioSource)
	}

	var transport voice.RoomTransport
	switch cfg.Transport {
	case "livekit":
		transport = livekit.New(audio)
	default:
		transport = sfuclient.New(sfuclient.Config{ICEServers: cfg.ICEServers, Audio: audio})
	}

	var sink voice.AudioSink
	if cfg.RecordDir != "" {
		sink = media.OggRecorder{Dir: cfg.RecordDir}
	}

	ended := make(chan struct{}, 1)
	observer := voice.ObserverFuncs{
		Connected: func(p *voice.Participant) {
			fmt.Printf("connected as %s  (m + Enter toggles mute, q + Enter quits)\n", p.Identity())
		},
		Disconnected: func() {
			fmt.Println("disconnected")
			select {
			case ended <- struct{}{}:
			default:
			}
		},
		Error: func(err error) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		},
	}

	fetcher := voice.NewHTTPCredentialFetcher(cfg.BackendURL, voice.StaticToken(cfg.AuthToken), nil)
	ctrl := voice.NewController(fetcher, transport, observer, voice.Config{
		ConnectTimeout:  cfg.ConnectTimeout,
		TeardownTimeout: cfg.TeardownTimeout,
		Sink:            sink,
	})
	defer ctrl.Close()

	if err := ctrl.Start(ctx, agentID, userID); err != nil {
		return err
	}

	lines := make(chan string)
	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- strings.TrimSpace(sc.Text())
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			ctrl.Stop()
			return nil
		case <-ended:
			return nil
		case line, ok := <-lines:
			if !ok {
				ctrl.Stop()
				return nil
			}
			switch line {
			case "q":
				ctrl.Stop()
				return nil
			case "m":
				muted := !ctrl.Status().Muted
				if err := ctrl.SetMuted(ctx, muted); err != nil {
					fmt.Fprintf(os.Stderr, "mute: %v\n", err)
					continue
				}
				fmt.Printf("muted=%t\n", muted)
			case "s":
				b, _ := json.Marshal(ctrl.Status())
				fmt.Println(string(b))
			}
		}
	}
}

// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Command speechmediator is the process entrypoint: it loads configuration,
// wires the Message Streams, Event Bridge, Output Storage, Provider
// Adapters and backends, and runs the Method Multiplexer until shutdown
// (spec §6.6 exit-code discipline).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/rapidaai/speechmediator/internal/backend/netforward"
	"github.com/rapidaai/speechmediator/internal/backend/textline"
	"github.com/rapidaai/speechmediator/internal/backend/voice"
	"github.com/rapidaai/speechmediator/internal/commons"
	"github.com/rapidaai/speechmediator/internal/config"
	"github.com/rapidaai/speechmediator/internal/eventbridge"
	busredis "github.com/rapidaai/speechmediator/internal/eventbus/redis"
	"github.com/rapidaai/speechmediator/internal/multiplexer"
	"github.com/rapidaai/speechmediator/internal/provider"
	"github.com/rapidaai/speechmediator/internal/provider/azure"
	"github.com/rapidaai/speechmediator/internal/provider/deepgram"
	"github.com/rapidaai/speechmediator/internal/provider/elevenlabs"
	"github.com/rapidaai/speechmediator/internal/provider/google"
	"github.com/rapidaai/speechmediator/internal/provider/polly"
	"github.com/rapidaai/speechmediator/internal/storage"
	"github.com/rapidaai/speechmediator/internal/stream"
)

// Exit codes (spec §6.6: "0 on clean shutdown, non-zero on initialization
// failure"), one per startup failure path, mirroring the original Main.cpp's
// single try/catch mapped to distinct codes.
const (
	exitOK = iota
	exitConfigInvalid
	exitLoggerInitFailed
	exitSocketDirUnwritable
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (env format)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "speechmediator: config: %v\n", err)
		os.Exit(exitConfigInvalid)
	}

	logger, err := commons.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "speechmediator: logger: %v\n", err)
		os.Exit(exitLoggerInitFailed)
	}
	defer logger.Sync()

	if err := os.MkdirAll(cfg.SocketDir, 0o700); err != nil {
		logger.Errorf("socket directory unwritable: %v", err)
		os.Exit(exitSocketDirUnwritable)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		logger.Infof("speechmediator: shutdown signal received")
		cancel()
	}()

	registry, warnings := buildProviderRegistry(ctx, cfg)
	for _, w := range warnings {
		logger.Warnf("provider: %v", w)
	}
	activeProvider, err := registry.Get(cfg.VoiceProviderID)
	if err != nil {
		logger.Warnf("voice provider %q unavailable at startup: %v", cfg.VoiceProviderID, err)
	}

	out := storage.New(logger, cfg.MaxChunkBytes)

	textStream, err := stream.New(logger, stream.Options{
		Role:        stream.RoleServer,
		Channel:     cfg.TextStringSocketPath,
		SocketDir:   cfg.SocketDir,
		KeepAlive:   cfg.KeepAliveEnabled,
		IdleTimeout: time.Duration(cfg.ClientIdleTimeoutS) * time.Second,
	})
	if err != nil {
		logger.Errorf("text-line stream: %v", err)
		os.Exit(exitSocketDirUnwritable)
	}

	var forwardStream *stream.Stream
	if cfg.NetForwardSocketPath != "" {
		forwardStream, err = stream.New(logger, stream.Options{
			Role:        stream.RoleServer,
			Channel:     cfg.NetForwardSocketPath,
			SocketDir:   cfg.SocketDir,
			KeepAlive:   cfg.KeepAliveEnabled,
			IdleTimeout: time.Duration(cfg.ClientIdleTimeoutS) * time.Second,
		})
		if err != nil {
			logger.Errorf("net-forward stream: %v", err)
			os.Exit(exitSocketDirUnwritable)
		}
	}

	voiceStream, err := stream.New(logger, stream.Options{
		Role:        stream.RoleServer,
		Channel:     cfg.VoiceSocketPath,
		SocketDir:   cfg.SocketDir,
		KeepAlive:   cfg.KeepAliveEnabled,
		IdleTimeout: time.Duration(cfg.ClientIdleTimeoutS) * time.Second,
	})
	if err != nil {
		logger.Errorf("voice stream: %v", err)
		os.Exit(exitSocketDirUnwritable)
	}

	resetStreams := []*stream.Stream{textStream, voiceStream}
	if forwardStream != nil {
		resetStreams = append(resetStreams, forwardStream)
	}
	reloadConfig := func() error {
		reloaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		logger.Infof("config: reloaded (log_level=%s voice_provider_id=%s)", reloaded.LogLevel, reloaded.VoiceProviderID)
		return nil
	}

	redisClient := goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	bus := busredis.New(redisClient, logger, cfg.EventBusOutChannel, cfg.EventBusInChannel, resetStreams, reloadConfig)
	bridge := eventbridge.New(logger, bus, cfg.MaxEventBodyBytes)

	mux := multiplexer.New(logger, out, time.Duration(cfg.ServiceMethodWaitMS)*time.Millisecond)
	mux.Add(0, textline.New(logger, textStream, bridge))
	if forwardStream != nil {
		mux.Add(1, netforward.New(logger, forwardStream, bridge,
			time.Duration(cfg.NetForwardReceiveTimeoutS)*time.Second))
	}

	wordlist, err := config.LoadTriggerWordlist(cfg.VoiceTriggerWordlistFile)
	if err != nil {
		logger.Warnf("trigger wordlist: %v", err)
	}

	mux.Add(2, voice.New(logger, voiceStream, bridge, activeProvider, voice.Config{
		RecordingHz:          uint32(cfg.VoiceRecordingHz),
		PlaybackHz:           uint32(cfg.VoicePlaybackHz),
		RecordingTimeout:     time.Duration(cfg.VoiceRecordingTimeoutS) * time.Second,
		RecordStorageSeconds: cfg.VoiceRecordStorageSecS,
		PlaybackFrameSamples: 320,
		LanguageCode:         cfg.ProviderLanguageCode,
		VoiceGender:          provider.VoiceGender(cfg.ProviderVoiceGender),
		TriggerEnabled:       cfg.VoiceTriggerEnabled,
		TriggerTimeout:       time.Duration(cfg.VoiceTriggerTimeoutS) * time.Second,
		Wordlist:             wordlist,
	}, nil))

	// The Multiplexer tick loop and the event-bus subscriber are this
	// process's two long-running goroutines; errgroup joins them so
	// either one's exit (event-bus subscription ending on ctx cancel)
	// deterministically waits for the other before shutdown proceeds,
	// the same join discipline the teacher uses for its worker goroutines.
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		mux.Run()
		return nil
	})
	group.Go(func() error {
		return bus.Run(groupCtx, out, mux)
	})

	<-ctx.Done()
	mux.Shutdown()
	if err := group.Wait(); err != nil {
		logger.Errorf("event bus: %v", err)
	}

	logger.Infof("speechmediator: shutting down")
	textStream.Shutdown()
	if forwardStream != nil {
		forwardStream.Shutdown()
	}
	voiceStream.Shutdown()
	os.Exit(exitOK)
}

// buildProviderRegistry constructs every adapter whose required credential
// fields are non-empty. A misconfigured/absent provider is skipped with a
// warning rather than aborting startup — the Voice backend already treats
// an absent provider as "not viable" (spec §4.8).
func buildProviderRegistry(ctx context.Context, cfg *config.AppConfig) (*provider.Registry, []error) {
	var providers []provider.Provider
	var warnings []error

	if cfg.GoogleProjectID != "" {
		var creds []byte
		if cfg.GoogleCredentialsFile != "" {
			b, err := os.ReadFile(cfg.GoogleCredentialsFile)
			if err != nil {
				warnings = append(warnings, fmt.Errorf("google: reading credentials file: %w", err))
			} else {
				creds = b
			}
		}
		if adapter, err := google.New(ctx, cfg.GoogleProjectID, cfg.GoogleRecognizer, creds); err != nil {
			warnings = append(warnings, fmt.Errorf("google: %w", err))
		} else {
			providers = append(providers, adapter)
		}
	}

	if cfg.AzureSubscriptionKey != "" {
		providers = append(providers, azure.New(cfg.AzureSubscriptionKey, cfg.AzureRegion))
	}

	if cfg.DeepgramAPIKey != "" {
		providers = append(providers, deepgram.New(cfg.DeepgramAPIKey))
	}

	if cfg.ElevenLabsAPIKey != "" {
		providers = append(providers, elevenlabs.New(cfg.ElevenLabsAPIKey))
	}

	if cfg.AWSRegion != "" && cfg.AWSAccessKeyID != "" {
		if adapter, err := polly.New(ctx, cfg.AWSRegion, cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey); err != nil {
			warnings = append(warnings, fmt.Errorf("polly: %w", err))
		} else {
			providers = append(providers, adapter)
		}
	}

	return provider.NewRegistry(providers...), warnings
}

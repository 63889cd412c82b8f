// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package config loads and validates the mediator's startup configuration
// (spec §6.5) and the optional trigger-phrase wordlist (§4.8, §9 open
// question on the trigger gate's keyphrase source).
package config

import (
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// AppConfig mirrors spec §6.5's recognized option set.
type AppConfig struct {
	ServiceMethodWaitMS int `mapstructure:"service_method_wait_ms" validate:"required"`

	VoiceSocketPath         string `mapstructure:"voice_socket_path" validate:"required"`
	VoiceRecordingHz        int    `mapstructure:"voice_recording_hz" validate:"required"`
	VoicePlaybackHz         int    `mapstructure:"voice_playback_hz" validate:"required"`
	VoiceRecordingTimeoutS  int    `mapstructure:"voice_recording_timeout_s" validate:"required"`
	VoiceProviderID         string `mapstructure:"voice_provider_id" validate:"required"`
	ProviderLanguageCode    string `mapstructure:"provider_language_code" validate:"required"`
	ProviderVoiceGender     string `mapstructure:"provider_voice_gender"`
	VoiceRecordStorageSecS   int    `mapstructure:"voice_record_storage_sec" validate:"required"`
	VoiceTriggerTimeoutS     int    `mapstructure:"voice_trigger_timeout_s"`
	VoiceTriggerEnabled      bool   `mapstructure:"voice_trigger_enabled"`
	VoiceTriggerWordlistFile string `mapstructure:"voice_trigger_wordlist_file"`

	TextStringSocketPath      string `mapstructure:"text_string_socket_path" validate:"required"`
	TextStringReceiveTimeoutS int    `mapstructure:"text_string_receive_timeout_s" validate:"required"`
	NetForwardSocketPath      string `mapstructure:"net_forward_socket_path"`
	NetForwardReceiveTimeoutS int    `mapstructure:"net_forward_receive_timeout_s"`

	SocketDir string `mapstructure:"socket_dir" validate:"required"`
	LogLevel  string `mapstructure:"log_level" validate:"required"`

	KeepAliveEnabled   bool `mapstructure:"keep_alive_enabled"`
	ClientIdleTimeoutS int  `mapstructure:"client_idle_timeout_s" validate:"required"`

	MaxEventBodyBytes int `mapstructure:"max_event_body_bytes" validate:"required"`
	MaxChunkBytes     int `mapstructure:"max_chunk_bytes" validate:"required"`

	// Provider credential material (spec §4.9: "ambient credential
	// material"). Only the fields relevant to VoiceProviderID need be set.
	GoogleProjectID       string `mapstructure:"google_project_id"`
	GoogleRecognizer      string `mapstructure:"google_recognizer"`
	GoogleCredentialsFile string `mapstructure:"google_credentials_file"`
	AzureSubscriptionKey  string `mapstructure:"azure_subscription_key"`
	AzureRegion           string `mapstructure:"azure_region"`
	DeepgramAPIKey        string `mapstructure:"deepgram_api_key"`
	ElevenLabsAPIKey      string `mapstructure:"elevenlabs_api_key"`
	AWSRegion             string `mapstructure:"aws_region"`
	AWSAccessKeyID        string `mapstructure:"aws_access_key_id"`
	AWSSecretAccessKey    string `mapstructure:"aws_secret_access_key"`

	// Event bus transport (spec §1 collaborator, wired over Redis pub/sub).
	RedisAddr         string `mapstructure:"redis_addr"`
	RedisPassword     string `mapstructure:"redis_password"`
	RedisDB           int    `mapstructure:"redis_db"`
	EventBusOutChannel string `mapstructure:"event_bus_out_channel" validate:"required"`
	EventBusInChannel  string `mapstructure:"event_bus_in_channel" validate:"required"`
}

// Load reads configuration from the named file (or ENV_PATH override) with
// sane defaults, validates it, and returns the typed struct. Called at
// startup and again on RESET_REQUEST per spec §6.5.
func Load(path string) (*AppConfig, error) {
	v := viper.NewWithOptions(viper.KeyDelimiter("__"))
	v.AddConfigPath(".")
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else if envPath := os.Getenv("ENV_PATH"); envPath != "" {
		v.SetConfigFile(envPath)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: reading from environment variables only: %v", err)
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal failed: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config: invalid: %w", err)
	}

	for _, key := range v.AllKeys() {
		if !knownKeys[key] {
			log.Printf("config: unknown key %q ignored", key)
		}
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service_method_wait_ms", 100)

	v.SetDefault("socket_dir", "/tmp/mrh/")
	v.SetDefault("log_level", "info")

	v.SetDefault("voice_socket_path", "voice")
	v.SetDefault("voice_recording_hz", 16000)
	v.SetDefault("voice_playback_hz", 16000)
	v.SetDefault("voice_recording_timeout_s", 2)
	v.SetDefault("voice_record_storage_sec", 30)
	v.SetDefault("voice_provider_id", "google")
	v.SetDefault("provider_language_code", "en-US")
	v.SetDefault("provider_voice_gender", "neutral")
	v.SetDefault("voice_trigger_enabled", false)
	v.SetDefault("voice_trigger_timeout_s", 8)

	v.SetDefault("text_string_socket_path", "text")
	v.SetDefault("text_string_receive_timeout_s", 300)
	v.SetDefault("net_forward_socket_path", "forward")
	v.SetDefault("net_forward_receive_timeout_s", 30)

	v.SetDefault("keep_alive_enabled", true)
	v.SetDefault("client_idle_timeout_s", 300)

	v.SetDefault("max_event_body_bytes", 128)
	v.SetDefault("max_chunk_bytes", 252)

	v.SetDefault("google_recognizer", "")
	v.SetDefault("azure_region", "eastus")
	v.SetDefault("aws_region", "us-east-1")

	v.SetDefault("redis_addr", "127.0.0.1:6379")
	v.SetDefault("redis_db", 0)
	v.SetDefault("event_bus_out_channel", "speechmediator:out")
	v.SetDefault("event_bus_in_channel", "speechmediator:in")
}

// knownKeys lists every recognized mapstructure tag (lowercased) so unknown
// config keys can be flagged per spec §6.5 ("unknown keys ignored with a
// warning").
var knownKeys = map[string]bool{
	"service_method_wait_ms": true, "socket_dir": true, "log_level": true,
	"voice_socket_path": true, "voice_recording_hz": true, "voice_playback_hz": true,
	"voice_recording_timeout_s": true, "voice_record_storage_sec": true,
	"voice_provider_id": true, "provider_language_code": true, "provider_voice_gender": true,
	"voice_trigger_enabled": true, "voice_trigger_timeout_s": true, "voice_trigger_wordlist_file": true,
	"text_string_socket_path": true, "text_string_receive_timeout_s": true,
	"net_forward_socket_path": true, "net_forward_receive_timeout_s": true,
	"keep_alive_enabled": true, "client_idle_timeout_s": true,
	"max_event_body_bytes": true, "max_chunk_bytes": true,
	"google_project_id": true, "google_recognizer": true, "google_credentials_file": true,
	"azure_subscription_key": true, "azure_region": true,
	"deepgram_api_key": true, "elevenlabs_api_key": true,
	"aws_region": true, "aws_access_key_id": true, "aws_secret_access_key": true,
	"redis_addr": true, "redis_password": true, "redis_db": true,
	"event_bus_out_channel": true, "event_bus_in_channel": true,
}

// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, 100, cfg.ServiceMethodWaitMS)
	require.Equal(t, "/tmp/mrh/", cfg.SocketDir)
	require.Equal(t, 16000, cfg.VoiceRecordingHz)
	require.Equal(t, "google", cfg.VoiceProviderID)
	require.Equal(t, "speechmediator:out", cfg.EventBusOutChannel)
	require.Equal(t, "speechmediator:in", cfg.EventBusInChannel)
}

func TestLoadOverridesFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.env")
	require.NoError(t, os.WriteFile(path, []byte("voice_provider_id=azure\nazure_region=westus\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "azure", cfg.VoiceProviderID)
	require.Equal(t, "westus", cfg.AzureRegion)
}

func TestLoadTriggerWordlistEmptyPathIsNotAnError(t *testing.T) {
	list, err := LoadTriggerWordlist("")
	require.NoError(t, err)
	require.Empty(t, list.Phrases)
}

func TestLoadTriggerWordlistNormalizesPhrases(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wordlist.yaml")
	require.NoError(t, os.WriteFile(path, []byte("phrases:\n  - \"  Hey Assistant  \"\n  - \"\"\n  - OK Computer\n"), 0o600))

	list, err := LoadTriggerWordlist(path)
	require.NoError(t, err)
	require.Equal(t, []string{"hey assistant", "ok computer"}, list.Phrases)
}

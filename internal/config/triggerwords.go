// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// TriggerWordlist is the on-disk shape of the wake-phrase gate's keyphrase
// source (SPEC_FULL supplement resolving the trigger gate's previously
// unwired keyphrase Open Question).
type TriggerWordlist struct {
	Phrases []string `yaml:"phrases"`
}

// LoadTriggerWordlist reads the wordlist file. An empty path returns an
// empty list without error (the gate stays permanently open, per spec
// §4.8: "may be disabled").
func LoadTriggerWordlist(path string) (TriggerWordlist, error) {
	if path == "" {
		return TriggerWordlist{}, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return TriggerWordlist{}, fmt.Errorf("config: reading trigger wordlist: %w", err)
	}

	var list TriggerWordlist
	if err := yaml.Unmarshal(raw, &list); err != nil {
		return TriggerWordlist{}, fmt.Errorf("config: parsing trigger wordlist: %w", err)
	}

	normalized := make([]string, 0, len(list.Phrases))
	for _, p := range list.Phrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			normalized = append(normalized, p)
		}
	}
	list.Phrases = normalized
	return list, nil
}

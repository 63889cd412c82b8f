// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Command speechctl is a thin operator CLI for poking a running
// speechmediator process over its event-bus transport (spec §1: "thin
// command-line helper tool", out of scope for core logic). It speaks the
// same Redis pub/sub wire shape as internal/eventbus/redis.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:6379", "redis address")
	outChannel := flag.String("out", "speechmediator:out", "channel the mediator publishes responses on")
	inChannel := flag.String("in", "speechmediator:in", "channel the mediator listens for requests on")
	cmd := flag.String("cmd", "", "say|reset|avail|method")
	text := flag.String("text", "", "utterance text for -cmd=say")
	stringID := flag.Uint("string-id", 1, "string id for -cmd=say")
	groupID := flag.Uint("group-id", 0, "group id for -cmd=say")
	wait := flag.Duration("wait", 2*time.Second, "how long to wait for a response (avail/method only)")
	flag.Parse()

	if *cmd == "" {
		fmt.Fprintln(os.Stderr, "usage: speechctl -cmd=say|reset|avail|method [flags]")
		os.Exit(2)
	}

	client := redis.NewClient(&redis.Options{Addr: *addr})
	defer client.Close()

	ctx := context.Background()
	req, err := requestFor(*cmd, *text, uint32(*stringID), uint32(*groupID))
	if err != nil {
		fmt.Fprintln(os.Stderr, "speechctl:", err)
		os.Exit(1)
	}

	if *cmd == "avail" || *cmd == "method" {
		if err := awaitResponse(ctx, client, *outChannel, *inChannel, req, *wait); err != nil {
			fmt.Fprintln(os.Stderr, "speechctl:", err)
			os.Exit(1)
		}
		return
	}

	if err := client.Publish(ctx, *inChannel, req).Err(); err != nil {
		fmt.Fprintln(os.Stderr, "speechctl: publish failed:", err)
		os.Exit(1)
	}
}

func requestFor(cmd, text string, stringID, groupID uint32) ([]byte, error) {
	switch cmd {
	case "say":
		if text == "" {
			return nil, fmt.Errorf("-text is required for -cmd=say")
		}
		return json.Marshal(map[string]any{
			"type": "SAY_STRING_REQUEST", "text": text, "string_id": stringID, "group_id": groupID,
		})
	case "reset":
		return json.Marshal(map[string]any{"type": "RESET_REQUEST"})
	case "avail":
		return json.Marshal(map[string]any{"type": "LISTEN_AVAIL_REQUEST"})
	case "method":
		return json.Marshal(map[string]any{"type": "LISTEN_GET_METHOD"})
	default:
		return nil, fmt.Errorf("unrecognized -cmd %q", cmd)
	}
}

// awaitResponse publishes req and prints the first response seen on
// outChannel within timeout, since avail/method are request/reply over an
// otherwise fire-and-forget pub/sub transport.
func awaitResponse(ctx context.Context, client *redis.Client, outChannel, inChannel string, req []byte, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	sub := client.Subscribe(ctx, outChannel)
	defer sub.Close()

	if err := client.Publish(ctx, inChannel, req).Err(); err != nil {
		return fmt.Errorf("publish failed: %w", err)
	}

	select {
	case msg := <-sub.Channel():
		fmt.Println(msg.Payload)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("no response within %s", timeout)
	}
}

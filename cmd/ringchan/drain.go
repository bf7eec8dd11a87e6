package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/jittakal/ringchan/pkg/buffer"
	"github.com/jittakal/ringchan/pkg/event"
)

// drain pops messages on every tick until ctx is done and returns how many it took.
func drain(ctx context.Context, ch buffer.Channel[event.Message], poll time.Duration, logger *slog.Logger) int {
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	n := 0
	for {
		for {
			msg, ok := ch.Pop()
			if !ok {
				break
			}
			n++
			logger.Debug("drained message",
				"position", msg.Position(),
				"size", msg.Size(),
				"timestamp", msg.Timestamp,
			)
		}

		select {
		case <-ctx.Done():
			return n
		case <-ticker.C:
		}
	}
}

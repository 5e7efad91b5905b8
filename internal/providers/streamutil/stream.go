package streamutil

import (
	"context"
	"sync"

	"github.com/speechgate/speechgate/internal/models"
)

// YieldFunc receives produced speech chunks. Returning false stops further
// forwarding.
type YieldFunc func(models.SpeechChunk) bool

// Forward wraps provider-specific streaming logic with a shared channel
// lifecycle so adapters follow the same contract when emitting audio chunks.
// The channel is unbuffered: chunks are handed to the consumer one at a time
// and the producer never runs ahead. The forward callback should invoke yield
// for every chunk until it returns false or the stream is exhausted.
func Forward(ctx context.Context, closer func() error, forward func(ctx context.Context, yield YieldFunc)) (<-chan models.SpeechChunk, func() error) {
	chunks := make(chan models.SpeechChunk)
	var once sync.Once
	callCloser := func() {
		if closer == nil {
			return
		}
		once.Do(func() {
			_ = closer()
		})
	}

	go func() {
		defer close(chunks)
		defer callCloser()

		forward(ctx, func(chunk models.SpeechChunk) bool {
			select {
			case <-ctx.Done():
				return false
			case chunks <- chunk:
				return true
			}
		})
	}()

	return chunks, func() error {
		callCloser()
		return nil
	}
}

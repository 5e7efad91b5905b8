package elevenlabs

import (
	"context"

	"github.com/speechgate/speechgate/internal/invokeerr"
	"github.com/speechgate/speechgate/internal/models"
	"github.com/speechgate/speechgate/internal/providers/streamutil"
)

// Synthesize converts text to audio with the request voice. Callers supply a
// pre-resolved voice identifier; there is no name lookup or fallback voice.
// The result is a complete buffer or, when the remote client streams, a lazy
// single-pass chunk sequence that is never materialized here.
func (a *Adapter) Synthesize(ctx context.Context, req models.SpeechRequest) (models.SpeechResult, error) {
	apiKey, err := models.APIKey(a.credentials(req.Credentials))
	if err != nil {
		return models.SpeechResult{}, err
	}

	if req.Voice == "" {
		return models.SpeechResult{}, invokeerr.New(invokeerr.KindBadRequest, "voice id is required")
	}
	if req.Input == "" {
		return models.SpeechResult{}, invokeerr.New(invokeerr.KindBadRequest, "input text is required")
	}

	model := req.Model
	if model == "" {
		model = DefaultSpeechModel
	}

	audio, err := a.dial(ctx, apiKey).Speech(ctx, SpeechParams{
		VoiceID:  req.Voice,
		Text:     req.Input,
		ModelID:  model,
		Format:   speechOutputFormat,
		Settings: speechVoiceSettings,
		Stream:   req.Stream || a.stream,
	})
	if err != nil {
		return models.SpeechResult{}, invokeerr.Classify(err, "text-to-speech generation failed")
	}

	if audio.Chunks == nil {
		return models.SpeechResult{Audio: audio.Data}, nil
	}

	// Empty chunks are dropped as they are produced; the channel stays
	// unbuffered so the producer never runs ahead of the consumer.
	forward := func(ctx context.Context, yield streamutil.YieldFunc) {
		for chunk := range audio.Chunks {
			if len(chunk) == 0 {
				continue
			}
			if !yield(models.SpeechChunk{Audio: chunk}) {
				return
			}
		}
	}
	chunks, cancel := streamutil.Forward(ctx, audio.Cancel, forward)
	return models.SpeechResult{Stream: &models.SpeechStream{Chunks: chunks, Cancel: cancel}}, nil
}

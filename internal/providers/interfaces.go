package providers

import (
	"context"

	"github.com/speechgate/speechgate/internal/models"
)

// CredentialValidator confirms a credential bundle is accepted by the remote
// service before any model is used.
type CredentialValidator interface {
	ValidateCredentials(ctx context.Context, creds models.Credentials) error
}

// AudioTranscriber converts speech to text.
type AudioTranscriber interface {
	Transcribe(ctx context.Context, req models.TranscriptionRequest) (models.TranscriptionResponse, error)
}

// TextToSpeech converts text to audio, buffered or streamed.
type TextToSpeech interface {
	Synthesize(ctx context.Context, req models.SpeechRequest) (models.SpeechResult, error)
}

// VoiceLister exposes the remote voice inventory.
type VoiceLister interface {
	Voices(ctx context.Context, creds models.Credentials) ([]models.Voice, error)
}

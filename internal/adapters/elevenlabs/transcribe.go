package elevenlabs

import (
	"context"

	"github.com/speechgate/speechgate/internal/invokeerr"
	"github.com/speechgate/speechgate/internal/models"
)

// Transcribe forwards audio to the speech-to-text endpoint and returns the
// transcript text. Only the local portion of credential validation runs here;
// the remote probe belongs to ValidateCredentials.
func (a *Adapter) Transcribe(ctx context.Context, req models.TranscriptionRequest) (models.TranscriptionResponse, error) {
	apiKey, err := models.APIKey(a.credentials(req.Credentials))
	if err != nil {
		return models.TranscriptionResponse{}, err
	}

	source := req.Input.Source()
	if source == nil {
		return models.TranscriptionResponse{}, invokeerr.New(invokeerr.KindBadRequest, "audio input is required")
	}

	model := req.Model
	if model == "" {
		model = DefaultTranscriptionModel
	}

	result, err := a.dial(ctx, apiKey).Transcribe(ctx, TranscribeParams{
		ModelID:        model,
		File:           source,
		Filename:       req.Input.Filename,
		LanguageCode:   transcriptionLanguage,
		TagAudioEvents: transcriptionTagAudio,
		Diarize:        transcriptionDiarize,
	})
	if err != nil {
		return models.TranscriptionResponse{}, invokeerr.Classify(err, "speech-to-text transcription failed")
	}

	// Diarization is requested but speaker and timing metadata are not
	// surfaced; the contract is plain text.
	return models.TranscriptionResponse{Text: result.Text}, nil
}

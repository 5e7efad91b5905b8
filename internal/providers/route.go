package providers

import (
	"context"

	"github.com/speechgate/speechgate/internal/models"
)

// Route represents a single provider deployment that can serve a public alias.
type Route struct {
	Alias      string
	Provider   string
	Model      string
	Weight     int
	Metadata   map[string]string
	Validate   CredentialValidator
	Transcribe AudioTranscriber
	Speech     TextToSpeech
	Voices     VoiceLister
	Health     func(ctx context.Context) error
}

// ResolveDeployment extracts the deployment identifier from route metadata.
func (r Route) ResolveDeployment() string {
	if r.Metadata != nil {
		if dep := r.Metadata["deployment"]; dep != "" {
			return dep
		}
	}
	return r.Model
}

// ToModel converts route metadata back to a models.Model struct for APIs.
func (r Route) ToModel() models.Model {
	modalities := make([]string, 0, 2)
	if r.Transcribe != nil {
		modalities = append(modalities, "speech2text")
	}
	if r.Speech != nil {
		modalities = append(modalities, "tts")
	}
	return models.Model{
		Alias:         r.Alias,
		Provider:      r.Provider,
		ProviderModel: r.Model,
		Modalities:    modalities,
	}
}

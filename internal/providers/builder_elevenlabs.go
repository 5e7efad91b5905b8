package providers

import (
	"context"
	"fmt"
	"strings"

	speech "github.com/speechgate/speechgate/internal/adapters/elevenlabs"
	"github.com/speechgate/speechgate/internal/config"
	"github.com/speechgate/speechgate/internal/models"
)

func init() {
	RegisterDefinition(Definition{
		Name:         "elevenlabs",
		Description:  "ElevenLabs speech APIs (speech-to-text, text-to-speech)",
		Capabilities: []string{"speech2text", "tts", "validate_credentials", "voices"},
		Builder:      buildElevenLabsRoute,
	})
}

func buildElevenLabsRoute(ctx context.Context, cfg *config.Config, entry config.ModelCatalogEntry) (Route, error) {
	apiKey := strings.TrimSpace(entry.APIKey)
	if apiKey == "" && cfg != nil {
		apiKey = strings.TrimSpace(cfg.Providers.ElevenLabsKey)
	}
	if apiKey == "" {
		return Route{}, fmt.Errorf("elevenlabs provider requires api key (providers.elevenlabs_key or catalog entry api_key)")
	}

	md := cloneMetadata(entry.Metadata)
	adapter := speech.New(speech.Options{
		Credentials: map[string]any{models.CredentialKeyAPIKey: apiKey},
		Stream:      strings.EqualFold(md["stream"], "true"),
	})

	weight := entry.Weight
	if weight == 0 {
		weight = 100
	}

	route := Route{
		Alias:    entry.Alias,
		Provider: entry.Provider,
		Model:    entry.ProviderModel,
		Weight:   weight,
		Metadata: md,
		Validate: adapter,
		Voices:   adapter,
		Health:   adapter.HealthCheck,
	}

	// An entry without declared modalities serves both speech directions.
	if len(entry.Modalities) == 0 || supportsModality(entry.Modalities, "speech2text") {
		route.Transcribe = adapter
	}
	if len(entry.Modalities) == 0 || supportsModality(entry.Modalities, "tts") {
		route.Speech = adapter
	}
	return route, nil
}

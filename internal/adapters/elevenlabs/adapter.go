// Package elevenlabs adapts the ElevenLabs speech APIs to the gateway's
// provider contracts: credential validation, speech-to-text, and
// text-to-speech. Each operation is stateless and request-scoped; credentials
// arrive with every call and are checked at every public entry point.
package elevenlabs

import (
	"context"
	"fmt"

	"github.com/speechgate/speechgate/internal/invokeerr"
	"github.com/speechgate/speechgate/internal/models"
)

const (
	// DefaultTranscriptionModel is the scribe model used when a request
	// leaves the model blank.
	DefaultTranscriptionModel = "scribe_v1"
	// DefaultSpeechModel is used when a synthesis request leaves the model blank.
	DefaultSpeechModel = "eleven_turbo_v2"

	// Transcription options are fixed rather than caller-configurable.
	transcriptionLanguage = "eng"
	transcriptionTagAudio = true
	transcriptionDiarize  = true

	// speechOutputFormat pins the synthesis encoding.
	speechOutputFormat = "mp3_44100_128"
)

// speechVoiceSettings are the fixed voice-shaping parameters applied to every
// synthesis call. No runtime mutation path exists.
var speechVoiceSettings = VoiceSettings{
	Stability:       0.5,
	SimilarityBoost: 0.75,
	Style:           0.0,
	SpeakerBoost:    true,
}

// DialFunc opens an API client bound to one API key.
type DialFunc func(ctx context.Context, apiKey string) API

// Options configure the adapter.
type Options struct {
	// Credentials used when a request carries none (catalog-level key).
	Credentials models.Credentials
	// Stream requests chunked synthesis results from the remote client.
	Stream bool
	// Dial overrides remote client construction, used by tests.
	Dial DialFunc
}

// Adapter exposes the ElevenLabs speech endpoints as gateway backends.
type Adapter struct {
	defaults models.Credentials
	stream   bool
	dial     DialFunc
}

// New constructs an adapter. No remote call happens here; credentials are
// checked per invocation.
func New(opts Options) *Adapter {
	dial := opts.Dial
	if dial == nil {
		dial = func(ctx context.Context, apiKey string) API {
			return NewClient(ctx, apiKey)
		}
	}
	return &Adapter{defaults: opts.Credentials, stream: opts.Stream, dial: dial}
}

// credentials picks the request credentials, falling back to the catalog key.
func (a *Adapter) credentials(supplied models.Credentials) models.Credentials {
	if supplied != nil {
		return supplied
	}
	return a.defaults
}

// ValidateCredentials checks the credential mapping shape locally, then
// performs one lightweight probe (default voice settings fetch) against the
// remote service. Every failure collapses into the CredentialsInvalid kind so
// the host gets a single actionable signal.
func (a *Adapter) ValidateCredentials(ctx context.Context, creds models.Credentials) error {
	apiKey, err := models.APIKey(a.credentials(creds))
	if err != nil {
		return err
	}

	if _, err := a.dial(ctx, apiKey).DefaultVoiceSettings(ctx); err != nil {
		return invokeerr.CredentialsInvalid(err)
	}
	return nil
}

// Voices lists the voices available to the supplied credentials.
func (a *Adapter) Voices(ctx context.Context, creds models.Credentials) ([]models.Voice, error) {
	apiKey, err := models.APIKey(a.credentials(creds))
	if err != nil {
		return nil, err
	}

	voices, err := a.dial(ctx, apiKey).Voices(ctx)
	if err != nil {
		return nil, invokeerr.Classify(err, "list voices failed")
	}
	out := make([]models.Voice, 0, len(voices))
	for _, v := range voices {
		out = append(out, models.Voice{ID: v.ID, Name: v.Name})
	}
	return out, nil
}

// HealthCheck satisfies the route health hook by probing the catalog
// credentials.
func (a *Adapter) HealthCheck(ctx context.Context) error {
	if err := a.ValidateCredentials(ctx, nil); err != nil {
		return fmt.Errorf("elevenlabs health probe: %w", err)
	}
	return nil
}

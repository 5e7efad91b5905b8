package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"sync"
	"time"

	eleven "github.com/haguro/elevenlabs-go"
)

const (
	defaultBaseURL   = "https://api.elevenlabs.io"
	speechToTextPath = "/v1/speech-to-text"

	defaultTimeout = 60 * time.Second
)

// VoiceSettings mirrors the remote voice-shaping knobs.
type VoiceSettings struct {
	Stability       float32
	SimilarityBoost float32
	Style           float32
	SpeakerBoost    bool
}

// Voice identifies one remote voice.
type Voice struct {
	ID   string `json:"voice_id"`
	Name string `json:"name"`
}

// TranscribeParams drive one speech-to-text call.
type TranscribeParams struct {
	ModelID        string
	File           io.Reader
	Filename       string
	LanguageCode   string
	TagAudioEvents bool
	Diarize        bool
}

// Transcription is the remote transcription payload. Word-level metadata is
// accepted on the wire but not modeled; only the fields below are read.
type Transcription struct {
	Text                string  `json:"text"`
	LanguageCode        string  `json:"language_code"`
	LanguageProbability float64 `json:"language_probability"`
}

// SpeechParams drive one text-to-speech call.
type SpeechParams struct {
	VoiceID  string
	Text     string
	ModelID  string
	Format   string
	Settings VoiceSettings
	Stream   bool
}

// SpeechAudio carries the synthesis result in whichever shape the remote
// client produced: a complete buffer, or a chunk channel that must be drained
// (or canceled) by the consumer.
type SpeechAudio struct {
	Data   []byte
	Chunks <-chan []byte
	Cancel func() error
}

// API is the remote-service surface the adapters call. The concrete Client
// below talks to ElevenLabs; tests substitute stubs.
type API interface {
	DefaultVoiceSettings(ctx context.Context) (VoiceSettings, error)
	Voices(ctx context.Context) ([]Voice, error)
	Transcribe(ctx context.Context, p TranscribeParams) (Transcription, error)
	Speech(ctx context.Context, p SpeechParams) (SpeechAudio, error)
}

// APIError is a non-2xx response from the speech-to-text endpoint. Error text
// leads with the status code so the invocation-error classifier sees the same
// shape the wrapped library produces.
type APIError struct {
	StatusCode int
	Message    string
	Detail     string `json:"detail,omitempty"`
}

func (e APIError) Error() string {
	msg := e.Message
	if e.Detail != "" {
		msg = e.Detail
	}
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%d %s", e.StatusCode, msg)
}

// Client implements API on top of the elevenlabs-go library. The library has
// no speech-to-text coverage, so that one endpoint is called directly.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	voice      *eleven.Client
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the speech-to-text endpoint base, used by tests.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient replaces the HTTP client used for speech-to-text calls.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient builds a Client bound to one API key. Adapters construct a fresh
// Client per invocation from the request credentials.
func NewClient(ctx context.Context, apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		voice:      eleven.NewClient(ctx, apiKey, defaultTimeout),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DefaultVoiceSettings fetches the account-level voice settings. Used as the
// lightweight probe during credential validation.
func (c *Client) DefaultVoiceSettings(_ context.Context) (VoiceSettings, error) {
	settings, err := c.voice.GetDefaultVoiceSettings()
	if err != nil {
		return VoiceSettings{}, err
	}
	return VoiceSettings{
		Stability:       settings.Stability,
		SimilarityBoost: settings.SimilarityBoost,
		Style:           settings.Style,
		SpeakerBoost:    settings.SpeakerBoost,
	}, nil
}

// Voices lists the voices available to the account.
func (c *Client) Voices(_ context.Context) ([]Voice, error) {
	voices, err := c.voice.GetVoices()
	if err != nil {
		return nil, err
	}
	out := make([]Voice, 0, len(voices))
	for _, v := range voices {
		out = append(out, Voice{ID: v.VoiceId, Name: v.Name})
	}
	return out, nil
}

// Speech synthesizes p.Text with the given voice. When p.Stream is set the
// audio arrives as a chunk channel fed straight off the wire; otherwise the
// complete buffer is returned.
func (c *Client) Speech(_ context.Context, p SpeechParams) (SpeechAudio, error) {
	req := eleven.TextToSpeechRequest{
		Text:    p.Text,
		ModelID: p.ModelID,
		VoiceSettings: &eleven.VoiceSettings{
			Stability:       p.Settings.Stability,
			SimilarityBoost: p.Settings.SimilarityBoost,
			Style:           p.Settings.Style,
			SpeakerBoost:    p.Settings.SpeakerBoost,
		},
	}
	queries := []eleven.QueryFunc{}
	if p.Format != "" {
		queries = append(queries, eleven.OutputFormat(p.Format))
	}

	if !p.Stream {
		audio, err := c.voice.TextToSpeech(p.VoiceID, req, queries...)
		if err != nil {
			return SpeechAudio{}, err
		}
		return SpeechAudio{Data: audio}, nil
	}

	pr, pw := io.Pipe()
	go func() {
		err := c.voice.TextToSpeechStream(pw, p.VoiceID, req, queries...)
		pw.CloseWithError(err)
	}()

	chunks := make(chan []byte)
	done := make(chan struct{})
	go func() {
		defer close(chunks)
		buf := make([]byte, 4*1024)
		for {
			n, err := pr.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				select {
				case chunks <- chunk:
				case <-done:
					return
				}
			}
			if err != nil {
				if err != io.EOF {
					log.Printf("elevenlabs: speech stream aborted: %v", err)
				}
				return
			}
		}
	}()

	var cancelOnce sync.Once
	cancel := func() error {
		cancelOnce.Do(func() { close(done) })
		return pr.Close()
	}
	return SpeechAudio{Chunks: chunks, Cancel: cancel}, nil
}

// Transcribe uploads audio to the speech-to-text endpoint and decodes the
// transcription payload.
func (c *Client) Transcribe(ctx context.Context, p TranscribeParams) (Transcription, error) {
	if p.File == nil {
		return Transcription{}, fmt.Errorf("audio input required")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	fields := map[string]string{
		"model_id":         p.ModelID,
		"tag_audio_events": strconv.FormatBool(p.TagAudioEvents),
		"diarize":          strconv.FormatBool(p.Diarize),
	}
	if p.LanguageCode != "" {
		fields["language_code"] = p.LanguageCode
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return Transcription{}, fmt.Errorf("write %s field: %w", name, err)
		}
	}

	filename := p.Filename
	if filename == "" {
		filename = "audio_file"
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return Transcription{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, p.File); err != nil {
		return Transcription{}, fmt.Errorf("copy audio payload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return Transcription{}, fmt.Errorf("close multipart writer: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+speechToTextPath, &body)
	if err != nil {
		return Transcription{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	httpReq.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Transcription{}, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Transcription{}, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(respBody, &apiErr); err != nil {
			apiErr.Message = string(respBody)
		}
		return Transcription{}, apiErr
	}

	var result Transcription
	if err := json.Unmarshal(respBody, &result); err != nil {
		return Transcription{}, err
	}
	return result, nil
}

package public

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/speechgate/speechgate/internal/app"
	"github.com/speechgate/speechgate/internal/config"
	"github.com/speechgate/speechgate/internal/invokeerr"
	"github.com/speechgate/speechgate/internal/models"
	"github.com/speechgate/speechgate/internal/providers"
	"github.com/speechgate/speechgate/internal/router"
)

// stubBackend implements every provider capability with canned results.
type stubBackend struct {
	validateErr error
	lastCreds   models.Credentials

	transcription     models.TranscriptionResponse
	transcribeErr     error
	lastTranscription models.TranscriptionRequest

	speechResult models.SpeechResult
	speechErr    error
	lastSpeech   models.SpeechRequest

	voices    []models.Voice
	voicesErr error
}

func (s *stubBackend) ValidateCredentials(_ context.Context, creds models.Credentials) error {
	s.lastCreds = creds
	return s.validateErr
}

func (s *stubBackend) Transcribe(_ context.Context, req models.TranscriptionRequest) (models.TranscriptionResponse, error) {
	s.lastTranscription = req
	return s.transcription, s.transcribeErr
}

func (s *stubBackend) Synthesize(_ context.Context, req models.SpeechRequest) (models.SpeechResult, error) {
	s.lastSpeech = req
	return s.speechResult, s.speechErr
}

func (s *stubBackend) Voices(_ context.Context, _ models.Credentials) ([]models.Voice, error) {
	return s.voices, s.voicesErr
}

func newTestApp(t *testing.T, backends map[string]*stubBackend) *fiber.App {
	t.Helper()

	catalog := make([]config.ModelCatalogEntry, 0, len(backends))
	for model := range backends {
		catalog = append(catalog, config.ModelCatalogEntry{
			Alias: "speech", Provider: "stub", ProviderModel: model,
		})
	}
	cfg := &config.Config{
		Server:       config.ServerConfig{ListenAddr: ":0"},
		Audio:        config.AudioConfig{MaxUploadMB: 10},
		ModelCatalog: catalog,
	}

	factory := providers.NewFactory(cfg)
	factory.Register("stub", func(_ context.Context, _ *config.Config, entry config.ModelCatalogEntry) (providers.Route, error) {
		backend := backends[entry.ProviderModel]
		return providers.Route{
			Alias:      entry.Alias,
			Provider:   "stub",
			Model:      entry.ProviderModel,
			Weight:     1,
			Validate:   backend,
			Transcribe: backend,
			Speech:     backend,
			Voices:     backend,
		}, nil
	})

	engine := router.NewEngine()
	if err := engine.Reload(context.Background(), factory); err != nil {
		t.Fatalf("reload: %v", err)
	}

	fiberApp := fiber.New(fiber.Config{BodyLimit: 64 << 20})
	Register(fiberApp, &app.Container{Config: cfg, Factory: factory, Engine: engine})
	return fiberApp
}

func decodeJSON(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestListModels(t *testing.T) {
	fiberApp := newTestApp(t, map[string]*stubBackend{"scribe_v1": {}})

	resp, err := fiberApp.Test(httptest.NewRequest(http.MethodGet, "/v1/models", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}

	body := decodeJSON(t, resp)
	data, ok := body["data"].([]any)
	if !ok || len(data) != 1 {
		t.Fatalf("expected 1 model, got %v", body)
	}
	model := data[0].(map[string]any)
	if model["alias"] != "speech" || model["provider"] != "stub" {
		t.Fatalf("model payload mismatch: %v", model)
	}
}

func TestValidateCredentials(t *testing.T) {
	backend := &stubBackend{}
	fiberApp := newTestApp(t, map[string]*stubBackend{"scribe_v1": backend})

	req := httptest.NewRequest(http.MethodPost, "/v1/providers/validate",
		strings.NewReader(`{"provider":"stub","credentials":{"api_key":"sk-1"}}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := fiberApp.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if body := decodeJSON(t, resp); body["result"] != "success" {
		t.Fatalf("expected success, got %v", body)
	}

	creds, ok := backend.lastCreds.(map[string]any)
	if !ok || creds["api_key"] != "sk-1" {
		t.Fatalf("credentials did not reach backend: %v", backend.lastCreds)
	}
}

func TestValidateCredentialsFailure(t *testing.T) {
	backend := &stubBackend{
		validateErr: invokeerr.New(invokeerr.KindCredentialsInvalid, "invalid credentials: bad key"),
	}
	fiberApp := newTestApp(t, map[string]*stubBackend{"scribe_v1": backend})

	req := httptest.NewRequest(http.MethodPost, "/v1/providers/validate",
		strings.NewReader(`{"provider":"stub","credentials":{"api_key":"bad"}}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := fiberApp.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if body := decodeJSON(t, resp); body["kind"] != "credentials_invalid" {
		t.Fatalf("expected credentials_invalid kind, got %v", body)
	}
}

func TestValidateCredentialsUnknownProvider(t *testing.T) {
	fiberApp := newTestApp(t, map[string]*stubBackend{"scribe_v1": {}})

	req := httptest.NewRequest(http.MethodPost, "/v1/providers/validate",
		strings.NewReader(`{"provider":"nope"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := fiberApp.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func transcriptionRequest(t *testing.T, model, filename, payload string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if model != "" {
		writer.WriteField("model", model)
	}
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		part.Write([]byte(payload))
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/audio/transcriptions", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestAudioTranscriptions(t *testing.T) {
	backend := &stubBackend{transcription: models.TranscriptionResponse{Text: "hello world"}}
	fiberApp := newTestApp(t, map[string]*stubBackend{"scribe_v1": backend})

	req := transcriptionRequest(t, "speech", "clip.wav", "wav-bytes")
	req.Header.Set("X-Api-Key", "sk-request")

	resp, err := fiberApp.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if body := decodeJSON(t, resp); body["text"] != "hello world" {
		t.Fatalf("transcript mismatch: %v", body)
	}
	if resp.Header.Get("X-Invocation-Id") == "" {
		t.Fatalf("invocation id header missing")
	}

	got := backend.lastTranscription
	if got.Model != "scribe_v1" {
		t.Fatalf("deployment model mismatch: %q", got.Model)
	}
	if string(got.Input.Data) != "wav-bytes" || got.Input.Filename != "clip.wav" {
		t.Fatalf("audio input mismatch: %+v", got.Input)
	}
	creds, ok := got.Credentials.(map[string]any)
	if !ok || creds["api_key"] != "sk-request" {
		t.Fatalf("header credentials missing: %v", got.Credentials)
	}
}

func TestAudioTranscriptionsValidation(t *testing.T) {
	fiberApp := newTestApp(t, map[string]*stubBackend{"scribe_v1": {}})

	resp, err := fiberApp.Test(transcriptionRequest(t, "", "clip.wav", "x"))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing model: expected 400, got %d", resp.StatusCode)
	}

	resp, err = fiberApp.Test(transcriptionRequest(t, "speech", "", ""))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing file: expected 400, got %d", resp.StatusCode)
	}

	resp, err = fiberApp.Test(transcriptionRequest(t, "unknown", "clip.wav", "x"))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("unknown alias: expected 503, got %d", resp.StatusCode)
	}
}

func TestAudioTranscriptionsEnforcesUploadLimit(t *testing.T) {
	fiberApp := newTestApp(t, map[string]*stubBackend{"scribe_v1": {}})

	oversized := strings.Repeat("a", 11<<20)
	resp, err := fiberApp.Test(transcriptionRequest(t, "speech", "clip.wav", oversized), 5000)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", resp.StatusCode)
	}
}

func TestAudioTranscriptionsFailover(t *testing.T) {
	failing := &stubBackend{transcribeErr: invokeerr.New(invokeerr.KindServerUnavailable, "503 down")}
	working := &stubBackend{transcription: models.TranscriptionResponse{Text: "recovered"}}
	fiberApp := newTestApp(t, map[string]*stubBackend{"m-down": failing, "m-up": working})

	resp, err := fiberApp.Test(transcriptionRequest(t, "speech", "clip.wav", "x"))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected failover success, got %d", resp.StatusCode)
	}
	if body := decodeJSON(t, resp); body["text"] != "recovered" {
		t.Fatalf("expected second backend transcript, got %v", body)
	}
}

func speechRequest(t *testing.T, payload string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/audio/speech", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestAudioSpeechBuffered(t *testing.T) {
	backend := &stubBackend{speechResult: models.SpeechResult{Audio: []byte("mp3bytes")}}
	fiberApp := newTestApp(t, map[string]*stubBackend{"turbo": backend})

	resp, err := fiberApp.Test(speechRequest(t, `{"model":"speech","input":"hello","voice":"v1","user":"u1"}`))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "audio/mpeg" {
		t.Fatalf("content type mismatch: %q", ct)
	}

	audio, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(audio) != "mp3bytes" {
		t.Fatalf("audio mismatch: %q", audio)
	}

	got := backend.lastSpeech
	if got.Voice != "v1" || got.Input != "hello" || got.User != "u1" {
		t.Fatalf("speech request mismatch: %+v", got)
	}
	if got.Model != "turbo" {
		t.Fatalf("deployment model mismatch: %q", got.Model)
	}
}

func TestAudioSpeechStreamed(t *testing.T) {
	chunks := make(chan models.SpeechChunk, 2)
	chunks <- models.SpeechChunk{Audio: []byte("aa")}
	chunks <- models.SpeechChunk{Audio: []byte("bb")}
	close(chunks)

	canceled := 0
	backend := &stubBackend{speechResult: models.SpeechResult{
		Stream: &models.SpeechStream{
			Chunks: chunks,
			Cancel: func() error { canceled++; return nil },
		},
	}}
	fiberApp := newTestApp(t, map[string]*stubBackend{"turbo": backend})

	resp, err := fiberApp.Test(speechRequest(t, `{"model":"speech","input":"hello","voice":"v1","stream":true}`))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}

	audio, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(audio) != "aabb" {
		t.Fatalf("streamed audio mismatch: %q", audio)
	}
	if !backend.lastSpeech.Stream {
		t.Fatalf("stream flag should pass through")
	}
	if canceled != 1 {
		t.Fatalf("stream cancel should run once, ran %d", canceled)
	}
}

func TestAudioSpeechValidation(t *testing.T) {
	fiberApp := newTestApp(t, map[string]*stubBackend{"turbo": {}})

	resp, err := fiberApp.Test(speechRequest(t, `{"input":"hello","voice":"v1"}`))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing model: expected 400, got %d", resp.StatusCode)
	}

	resp, err = fiberApp.Test(speechRequest(t, `{"model":"speech","voice":"v1"}`))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing input: expected 400, got %d", resp.StatusCode)
	}
}

func TestAudioSpeechErrorSurfacesKind(t *testing.T) {
	backend := &stubBackend{speechErr: invokeerr.New(invokeerr.KindRateLimited, "429 slow down")}
	fiberApp := newTestApp(t, map[string]*stubBackend{"turbo": backend})

	resp, err := fiberApp.Test(speechRequest(t, `{"model":"speech","input":"hello","voice":"v1"}`))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.StatusCode)
	}
	if body := decodeJSON(t, resp); body["kind"] != "rate_limited" {
		t.Fatalf("expected rate_limited kind, got %v", body)
	}
}

func TestListVoices(t *testing.T) {
	backend := &stubBackend{voices: []models.Voice{{ID: "v1", Name: "Rachel"}}}
	fiberApp := newTestApp(t, map[string]*stubBackend{"turbo": backend})

	resp, err := fiberApp.Test(httptest.NewRequest(http.MethodGet, "/v1/audio/voices?model=speech", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}

	body := decodeJSON(t, resp)
	voices, ok := body["voices"].([]any)
	if !ok || len(voices) != 1 {
		t.Fatalf("expected 1 voice, got %v", body)
	}
	voice := voices[0].(map[string]any)
	if voice["id"] != "v1" || voice["name"] != "Rachel" {
		t.Fatalf("voice payload mismatch: %v", voice)
	}
}

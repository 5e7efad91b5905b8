package public

import (
	"bufio"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/speechgate/speechgate/internal/app"
	"github.com/speechgate/speechgate/internal/httpserver/httputil"
	"github.com/speechgate/speechgate/internal/invokeerr"
	"github.com/speechgate/speechgate/internal/models"
	"github.com/speechgate/speechgate/internal/providers"
)

type speechHandler struct {
	container *app.Container
}

const (
	headerAPIKey       = "X-Api-Key"
	headerTenantID     = "X-Tenant-Id"
	headerInvocationID = "X-Invocation-Id"
)

// requestCredentials builds per-request credentials from the API key header.
// A nil return means the route's catalog credentials apply.
func requestCredentials(c *fiber.Ctx) models.Credentials {
	if key := strings.TrimSpace(c.Get(headerAPIKey)); key != "" {
		return map[string]any{models.CredentialKeyAPIKey: key}
	}
	return nil
}

func (h *speechHandler) listModels(c *fiber.Ctx) error {
	out := make([]models.Model, 0)
	for _, routes := range h.container.Engine.ListAliases() {
		for _, route := range routes {
			out = append(out, route.ToModel())
		}
	}
	return c.JSON(fiber.Map{"data": out})
}

type validateRequest struct {
	Provider    string `json:"provider"`
	Credentials any    `json:"credentials"`
}

func (h *speechHandler) validateCredentials(c *fiber.Ctx) error {
	var payload validateRequest
	if err := c.BodyParser(&payload); err != nil {
		return httputil.WriteError(c, fiber.StatusBadRequest, "invalid request body")
	}
	provider := strings.TrimSpace(payload.Provider)
	if provider == "" {
		provider = "elevenlabs"
	}

	var validator providers.CredentialValidator
	for _, routes := range h.container.Engine.ListAliases() {
		for _, route := range routes {
			if route.Provider == provider && route.Validate != nil {
				validator = route.Validate
				break
			}
		}
		if validator != nil {
			break
		}
	}
	if validator == nil {
		return httputil.WriteError(c, fiber.StatusNotFound, "no route for provider "+provider)
	}

	if err := validator.ValidateCredentials(c.UserContext(), payload.Credentials); err != nil {
		return httputil.WriteInvokeError(c, err)
	}
	return c.JSON(fiber.Map{"result": "success"})
}

func (h *speechHandler) listVoices(c *fiber.Ctx) error {
	alias := strings.TrimSpace(c.Query("model"))
	routes := h.container.Engine.SelectRoutes(alias)
	if len(routes) == 0 {
		return httputil.WriteError(c, fiber.StatusServiceUnavailable, "no backend available for model")
	}
	creds := requestCredentials(c)
	for _, route := range routes {
		if route.Voices == nil {
			continue
		}
		voices, err := route.Voices.Voices(c.UserContext(), creds)
		if err != nil {
			return httputil.WriteInvokeError(c, err)
		}
		return c.JSON(fiber.Map{"voices": voices})
	}
	return httputil.WriteError(c, fiber.StatusBadRequest, "model does not list voices")
}

func (h *speechHandler) audioTranscriptions(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return httputil.WriteError(c, fiber.StatusBadRequest, "multipart form required")
	}
	alias := strings.TrimSpace(c.FormValue("model"))
	if alias == "" {
		return httputil.WriteError(c, fiber.StatusBadRequest, "model is required")
	}
	fileHeaders := form.File["file"]
	if len(fileHeaders) == 0 {
		return httputil.WriteError(c, fiber.StatusBadRequest, "file is required")
	}
	fh := fileHeaders[0]
	if maxBytes := int64(h.container.Config.Audio.MaxUploadMB) << 20; maxBytes > 0 && fh.Size > maxBytes {
		return httputil.WriteError(c, fiber.StatusRequestEntityTooLarge, "audio file exceeds upload limit")
	}
	src, err := fh.Open()
	if err != nil {
		return httputil.WriteError(c, fiber.StatusBadRequest, "failed to open file")
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		return httputil.WriteError(c, fiber.StatusBadRequest, "failed to read file")
	}

	routes := h.container.Engine.SelectRoutes(alias)
	if len(routes) == 0 {
		return httputil.WriteError(c, fiber.StatusServiceUnavailable, "no backend available for model")
	}

	invocationID := uuid.NewString()
	c.Set(headerInvocationID, invocationID)
	creds := requestCredentials(c)
	user := c.FormValue("user")

	var lastErr error
	for _, route := range routes {
		if route.Transcribe == nil {
			continue
		}
		req := models.TranscriptionRequest{
			Model:       route.ResolveDeployment(),
			Credentials: creds,
			Input: models.AudioInput{
				Data:        data,
				Filename:    fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
			},
			User: user,
		}
		start := time.Now()
		resp, err := route.Transcribe.Transcribe(c.UserContext(), req)
		h.record(route, "transcribe", err, time.Since(start))
		if err != nil {
			h.container.Engine.ReportFailure(alias, route)
			log.Printf("transcription %s via %s failed: %v", invocationID, route.Provider, err)
			lastErr = err
			continue
		}
		h.container.Engine.ReportSuccess(alias, route)
		return c.JSON(fiber.Map{"text": resp.Text})
	}

	if lastErr == nil {
		return httputil.WriteError(c, fiber.StatusBadRequest, "model does not support transcription")
	}
	return httputil.WriteInvokeError(c, lastErr)
}

type audioSpeechRequest struct {
	Model  string `json:"model"`
	Input  string `json:"input"`
	Voice  string `json:"voice"`
	User   string `json:"user"`
	Stream bool   `json:"stream"`
}

func (h *speechHandler) audioSpeech(c *fiber.Ctx) error {
	var payload audioSpeechRequest
	if err := c.BodyParser(&payload); err != nil {
		return httputil.WriteError(c, fiber.StatusBadRequest, "invalid request body")
	}
	alias := strings.TrimSpace(payload.Model)
	if alias == "" {
		return httputil.WriteError(c, fiber.StatusBadRequest, "model is required")
	}
	if strings.TrimSpace(payload.Input) == "" {
		return httputil.WriteError(c, fiber.StatusBadRequest, "input is required")
	}

	routes := h.container.Engine.SelectRoutes(alias)
	if len(routes) == 0 {
		return httputil.WriteError(c, fiber.StatusServiceUnavailable, "no backend available for model")
	}

	invocationID := uuid.NewString()
	c.Set(headerInvocationID, invocationID)
	creds := requestCredentials(c)

	var lastErr error
	for _, route := range routes {
		if route.Speech == nil {
			continue
		}
		req := models.SpeechRequest{
			Model:       route.ResolveDeployment(),
			TenantID:    strings.TrimSpace(c.Get(headerTenantID)),
			Credentials: creds,
			Input:       payload.Input,
			Voice:       strings.TrimSpace(payload.Voice),
			User:        payload.User,
			Stream:      payload.Stream,
		}
		start := time.Now()
		result, err := route.Speech.Synthesize(c.UserContext(), req)
		h.record(route, "synthesize", err, time.Since(start))
		if err != nil {
			h.container.Engine.ReportFailure(alias, route)
			log.Printf("synthesis %s via %s failed: %v", invocationID, route.Provider, err)
			lastErr = err
			continue
		}
		h.container.Engine.ReportSuccess(alias, route)
		return writeSpeechResult(c, result)
	}

	if lastErr == nil {
		return httputil.WriteError(c, fiber.StatusBadRequest, "model does not support speech synthesis")
	}
	return httputil.WriteInvokeError(c, lastErr)
}

// writeSpeechResult sends the audio buffer directly, or forwards the lazy
// chunk sequence as a chunked body without materializing it.
func writeSpeechResult(c *fiber.Ctx, result models.SpeechResult) error {
	c.Set(fiber.HeaderContentType, "audio/mpeg")
	if !result.Streaming() {
		c.Set(fiber.HeaderContentLength, strconv.Itoa(len(result.Audio)))
		return c.Send(result.Audio)
	}

	stream := result.Stream
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer stream.Cancel()
		for chunk := range stream.Chunks {
			if _, err := w.Write(chunk.Audio); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	})
	return nil
}

func (h *speechHandler) record(route providers.Route, operation string, err error, elapsed time.Duration) {
	if h.container.Observability == nil {
		return
	}
	kind := ""
	if err != nil {
		kind = string(invokeerr.KindOf(err))
	}
	h.container.Observability.RecordInvocation(route.Provider, route.Model, operation, kind, elapsed)
}

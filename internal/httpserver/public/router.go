// Package public wires up the gateway's public API routes.
package public

import (
	"github.com/gofiber/fiber/v2"

	"github.com/speechgate/speechgate/internal/app"
)

// Register mounts the speech API under /v1.
func Register(fiberApp *fiber.App, container *app.Container) {
	handler := &speechHandler{container: container}
	group := fiberApp.Group("/v1")
	group.Get("/models", handler.listModels)
	group.Post("/providers/validate", handler.validateCredentials)
	group.Post("/audio/transcriptions", handler.audioTranscriptions)
	group.Post("/audio/speech", handler.audioSpeech)
	group.Get("/audio/voices", handler.listVoices)
}

package handler

import (
	"quiz-lens/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// Handlers groups everything RegisterRoutes mounts.
type Handlers struct {
	Pages   *PageHandler
	Session *SessionHandler
	Health  *HealthHandler
}

// RegisterRoutes mounts the HTML pages, the JSON API under /api and the
// health check.
func RegisterRoutes(app fiber.Router, h Handlers) {
	vm := middleware.NewValidationMiddleware()

	app.Get("/healthz", h.Health.Health)

	app.Get("/", h.Pages.Index)
	app.Post("/text", h.Pages.EnterText)
	app.Post("/image", h.Pages.UploadImage)
	app.Post("/generate", h.Pages.Generate)
	app.Post("/answers", h.Pages.SaveAnswers)
	app.Post("/submit", h.Pages.Submit)
	app.Post("/home", h.Pages.BackToHome)
	app.Post("/reset", h.Pages.Reset)

	api := app.Group("/api")
	api.Get("/levels", h.Session.GetLevels)

	session := api.Group("/session")
	session.Get("/", h.Session.GetSession)
	session.Post("/text", h.Session.EnterText)
	session.Get("/image", h.Session.GetImage)
	session.Post("/image", h.Session.UploadImage)
	session.Post("/generate", h.Session.Generate)
	session.Put("/answers/:index", vm.ValidateAnswerParams(), h.Session.SelectAnswer)
	session.Delete("/answers/:index", vm.ValidateIndexParam(), h.Session.ClearAnswer)
	session.Post("/submit", h.Session.Submit)
	session.Post("/home", h.Session.BackToHome)
	session.Post("/reset", h.Session.Reset)
}

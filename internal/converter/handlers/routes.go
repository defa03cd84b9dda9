package handlers

import "github.com/gofiber/fiber/v3"

// Register подключает маршруты сервиса
func Register(app *fiber.App, convert *ConvertHandler, health *HealthHandler) {
	app.Get("/health/live", health.LivenessProbe)
	app.Get("/health/ready", health.ReadinessProbe)

	app.Post("/convert", convert.Convert)
	app.Get("/runs", convert.ListRuns)
	app.Get("/runs/:id", convert.GetRun)
	app.Get("/runs/:id/source", convert.GetSource)
	app.Delete("/runs/:id", convert.DeleteRun)
	app.Get("/runs/:id/pages/:page/svg", convert.RenderPage)
}

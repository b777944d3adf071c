package controllers

import (
	swagger "github.com/arsmn/fiber-swagger/v2"
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func Routes(app *fiber.App, bc *BenchmarkController, brokerEnabled bool) {
	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Get("/healthz", Healthz(brokerEnabled))
	app.Get("/readiness", ReadinessProbe(brokerEnabled))
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Post("/benchmark", bc.RunBenchmark)
	app.Get("/benchmark/latest", bc.LatestBenchmark)
	app.Post("/payload", bc.SignPayload)
}

package controllers

import (
	"errors"

	msgbroker "paywall-bench/application/msg-broker"
	"paywall-bench/core/payload"
	"paywall-bench/core/paywall"
	"paywall-bench/core/usecases"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const REDACTED = "********"

var validate = validator.New()

// BenchmarkRequest is the body of POST /benchmark and POST /payload. Both
// fields are optional; without an order the demo order is used.
type BenchmarkRequest struct {
	Order *payload.Order `json:"order,omitempty"`
	Mode  string         `json:"mode,omitempty" validate:"omitempty,oneof=first-error settled"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type BenchmarkController struct {
	bench  *usecases.Benchmark
	tracer oteltrace.Tracer
	// latest returns the last scheduled report, nil when there is none
	latest func() *paywall.Report
}

func NewBenchmarkController(bench *usecases.Benchmark, tracer oteltrace.Tracer, latest func() *paywall.Report) *BenchmarkController {
	if latest == nil {
		latest = func() *paywall.Report { return nil }
	}
	return &BenchmarkController{
		bench:  bench,
		tracer: tracer,
		latest: latest,
	}
}

// Ready godoc
// @Summary Readiness probe
// @Description Ready once the message broker, when enabled, is connected
// @ID readiness
// @Success 200
// @Failure 500
// @Router /readiness [get]
func ReadinessProbe(brokerEnabled bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !brokerEnabled || msgbroker.IsInitialized {
			return c.SendStatus(fiber.StatusOK)
		}
		return c.SendStatus(fiber.StatusInternalServerError)
	}
}

// Healthy godoc
// @Summary Healthiness probe
// @Description Healthy while the message broker, when enabled, keeps polling
// @ID healthz
// @Success 200
// @Failure 500
// @Router /healthz [get]
func Healthz(brokerEnabled bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !brokerEnabled || msgbroker.IsHealthy {
			return c.SendStatus(fiber.StatusOK)
		}
		return c.SendStatus(fiber.StatusInternalServerError)
	}
}

// RunBenchmark godoc
// @Summary Run a benchmark
// @Description Opens the payment wall with a signed order and times every bank it offers
// @ID runBenchmark
// @Accept json
// @Produce json
// @Param request body BenchmarkRequest false "Order and probe mode"
// @Success 200 {object} paywall.Report
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /benchmark [post]
func (bc *BenchmarkController) RunBenchmark(c *fiber.Ctx) error {
	req, err := parseRequest(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}
	// validated above, empty keeps the configured mode
	mode := paywall.Mode(req.Mode)

	ctx, span := bc.tracer.Start(c.UserContext(), "runBenchmark", oteltrace.WithAttributes(
		attribute.String("benchmark.mode", req.Mode),
		attribute.Bool("benchmark.demo", req.Order == nil),
	))
	defer span.End()

	report, err := bc.bench.RunWithMode(ctx, bc.overrides(req), mode)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "benchmark failed")
		status := fiber.StatusBadGateway
		if errors.Is(err, payload.ErrUnknownAlgorithm) {
			status = fiber.StatusInternalServerError
		}
		return c.Status(status).JSON(ErrorResponse{Error: err.Error()})
	}
	span.SetAttributes(attribute.String("benchmark.runId", report.RunID))
	return c.JSON(report)
}

// LatestBenchmark godoc
// @Summary Latest scheduled benchmark
// @Description Report of the last successful scheduled run
// @ID latestBenchmark
// @Produce json
// @Success 200 {object} paywall.Report
// @Failure 404 {object} ErrorResponse
// @Router /benchmark/latest [get]
func (bc *BenchmarkController) LatestBenchmark(c *fiber.Ctx) error {
	report := bc.latest()
	if report == nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "no scheduled benchmark has completed yet"})
	}
	return c.JSON(report)
}

// SignPayload godoc
// @Summary Preview a signed payload
// @Description Returns the form fields a benchmark would post to the payment wall, security key redacted
// @ID signPayload
// @Accept json
// @Produce json
// @Param request body BenchmarkRequest false "Order"
// @Success 200 {object} map[string]string
// @Failure 400 {object} ErrorResponse
// @Router /payload [post]
func (bc *BenchmarkController) SignPayload(c *fiber.Ctx) error {
	req, err := parseRequest(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}
	signed, err := bc.bench.Sign(bc.overrides(req))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
	}
	if _, ok := signed["SECURITY_KEY"]; ok {
		signed["SECURITY_KEY"] = REDACTED
	}
	return c.JSON(signed)
}

func (bc *BenchmarkController) overrides(req *BenchmarkRequest) payload.Payload {
	if req.Order == nil {
		return nil
	}
	return req.Order.Overrides(bc.bench.Now())
}

func parseRequest(c *fiber.Ctx) (*BenchmarkRequest, error) {
	req := &BenchmarkRequest{}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(req); err != nil {
			return nil, errors.New("cannot parse request body")
		}
	}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if req.Order != nil {
		if err := req.Order.Validate(); err != nil {
			return nil, err
		}
	}
	return req, nil
}

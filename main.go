package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"paywall-bench/application/config"
	"paywall-bench/application/controllers"
	msgbroker "paywall-bench/application/msg-broker"
	"paywall-bench/application/paywall_client"
	"paywall-bench/application/scheduler"
	"paywall-bench/application/tracing"
	"paywall-bench/core/constants"
	"paywall-bench/core/paywall"

	_ "paywall-bench/application/docs"

	"paywall-bench/core/usecases"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	_ "go.uber.org/automaxprocs"
)

// @title Payment wall benchmark
// @version 1.0
// @description Times the payment wall and every bank redirect it offers.
// @BasePath /
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	tp := tracing.NewProvider(cfg.JaegerEndpoint, nil)
	defer tp.ShutDownTracer()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := paywall_client.New(cfg.ClientConfig(), tp.GetTracer())
	bench := usecases.NewBenchmark(cfg.Signer(), client, cfg.FanOut())

	var latest func() *paywall.Report
	if cfg.BenchSchedule != "" {
		sched, err := scheduler.New(ctx, cfg.BenchSchedule, func(ctx context.Context) (*paywall.Report, error) {
			return bench.Run(ctx, nil)
		})
		if err != nil {
			log.Fatal(err)
		}
		sched.Start()
		defer sched.Stop()
		latest = sched.Latest
	}

	if cfg.BrokerEnabled() {
		brokerClient, err := msgbroker.New(ctx, msgbroker.Queues{
			EndpointURL: cfg.SQSEndpointURL,
			Requests:    cfg.RequestsQueueName,
			Responses:   cfg.ResponsesQueueName,
		}, tp.GetTracer())
		if err != nil {
			log.Fatal(err)
		}
		// Init the consumer
		go func() {
			if err := usecases.BenchmarkReqConsumer(ctx, brokerClient, bench); err != nil {
				log.Printf("Benchmark consumer stopped: %v", err)
			}
		}()
	}

	app := fiber.New(fiber.Config{
		AppName:     constants.APP_NAME,
		JSONEncoder: sonic.Marshal,
		JSONDecoder: sonic.Unmarshal,
	})
	app.Use(recover.New())
	controllers.Routes(app, controllers.NewBenchmarkController(bench, tp.GetTracer(), latest), cfg.BrokerEnabled())

	go func() {
		<-ctx.Done()
		log.Println("Shutting down")
		if err := app.Shutdown(); err != nil {
			log.Printf("Error shutting down server: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}

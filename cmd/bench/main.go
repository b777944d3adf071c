package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"paywall-bench/application/config"
	"paywall-bench/application/paywall_client"
	"paywall-bench/application/sandbox"
	"paywall-bench/application/tracing"
	"paywall-bench/core/payload"
	"paywall-bench/core/paywall"
	"paywall-bench/core/usecases"

	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"
	_ "go.uber.org/automaxprocs"
)

func main() {
	asJSON := flag.Bool("json", false, "print the report as JSON")
	mode := flag.String("mode", "", "probe mode, first-error or settled (defaults to PROBE_MODE)")
	amount := flag.String("amount", "", "order amount in major units, e.g. 12.34 (defaults to the demo order)")
	useSandbox := flag.Bool("sandbox", false, "run against an in-process payment wall instead of PAYWALL_URL")
	trace := flag.Bool("trace", false, "write spans to stderr when no JAEGER_ENDPOINT is set")
	flag.Parse()

	if err := run(*asJSON, *mode, *amount, *useSandbox, *trace); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func run(asJSON bool, modeFlag, amount string, useSandbox, trace bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	mode := cfg.FanOut().Mode
	if modeFlag != "" {
		if mode, err = paywall.ParseMode(modeFlag); err != nil {
			return err
		}
	}

	var overrides payload.Payload
	if amount != "" {
		value, err := decimal.NewFromString(amount)
		if err != nil || !value.IsPositive() {
			return fmt.Errorf("invalid amount %q", amount)
		}
		overrides = payload.Order{Amount: value}.Overrides(time.Now())
	}

	var spans io.Writer = io.Discard
	if trace {
		spans = os.Stderr
	}
	tp := tracing.NewProvider(cfg.JaegerEndpoint, spans)
	defer tp.ShutDownTracer()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	clientCfg := cfg.ClientConfig()
	if useSandbox {
		url, shutdown, err := startSandbox(cfg.Signer())
		if err != nil {
			return err
		}
		defer shutdown()
		clientCfg.URL = url
	}

	bench := usecases.NewBenchmark(cfg.Signer(), paywall_client.New(clientCfg, tp.GetTracer()), cfg.FanOut())
	report, err := bench.RunWithMode(ctx, overrides, mode)
	if err != nil {
		return err
	}

	if asJSON {
		return writeJSON(os.Stdout, report)
	}
	return printReport(os.Stdout, report)
}

// writeJSON renders the report with the codec the service answers with.
func writeJSON(out io.Writer, report *paywall.Report) error {
	data, err := sonic.ConfigStd.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot encode report: %w", err)
	}
	_, err = out.Write(append(data, '\n'))
	return err
}

func printReport(out io.Writer, report *paywall.Report) error {
	fmt.Fprintf(out, "run %s (%s) started %s\n\n", report.RunID, report.Mode, report.StartedAt.Format("2006-01-02 15:04:05"))
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PROVIDER\tSTATUS\tELAPSED\tERROR")
	for _, r := range report.Results {
		status := fmt.Sprint(r.Status)
		if r.Status == paywall.StatusTimeout {
			status += " (timeout)"
		}
		fmt.Fprintf(w, "%s\t%s\t%.3fs\t%s\n", r.Provider, status, r.ElapsedSeconds, strings.TrimSpace(r.Error))
	}
	return w.Flush()
}

func startSandbox(signer *payload.Signer) (string, func(), error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("cannot start sandbox: %w", err)
	}
	server := &http.Server{Handler: sandbox.New(signer).Handler()}
	go server.Serve(listener)
	log.Printf("Sandbox payment wall listening on %s", listener.Addr())
	return "http://" + listener.Addr().String() + "/", func() { server.Close() }, nil
}

package paywall_client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"paywall-bench/core/payload"
	"paywall-bench/core/paywall"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// Timeouts bound one request. Response limits the wait for the response
// headers, Deadline the whole exchange including the body. Zero disables.
type Timeouts struct {
	Response time.Duration
	Deadline time.Duration
}

type Config struct {
	URL   string
	Wall  Timeouts
	Probe Timeouts
}

// HTTPClient talks to the payment wall and to the bank endpoints it returns
// using form encoded POSTs.
type HTTPClient struct {
	url       string
	wall      Timeouts
	probe     Timeouts
	wallHTTP  *http.Client
	probeHTTP *http.Client
	tracer    oteltrace.Tracer
}

func New(cfg Config, tracer oteltrace.Tracer) *HTTPClient {
	return &HTTPClient{
		url:       cfg.URL,
		wall:      cfg.Wall,
		probe:     cfg.Probe,
		wallHTTP:  newHTTPClient(cfg.Wall),
		probeHTTP: newHTTPClient(cfg.Probe),
		tracer:    tracer,
	}
}

func newHTTPClient(t Timeouts) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = t.Response
	transport.MaxIdleConnsPerHost = 16
	transport.DialContext = (&net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext
	return &http.Client{Transport: transport}
}

func (c *HTTPClient) Open(ctx context.Context, p payload.Payload) (*paywall.WallResponse, error) {
	ctx, span := c.tracer.Start(ctx, "openPaymentWall", oteltrace.WithAttributes(
		attribute.String("paywall.url", c.url),
		attribute.String("paywall.stamp", p["STAMP"]),
	))
	defer span.End()

	status, body, elapsed, err := c.postForm(ctx, c.wallHTTP, c.wall.Deadline, c.url, p, true)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "payment wall request failed")
		return nil, err
	}

	wallDuration.WithLabelValues(strconv.Itoa(status)).Observe(elapsed)
	span.SetAttributes(attribute.Int("http.status_code", status))
	return &paywall.WallResponse{
		Status:         status,
		Body:           body,
		ElapsedSeconds: elapsed,
	}, nil
}

func (c *HTTPClient) Probe(ctx context.Context, option paywall.BankOption) (paywall.ProbeResult, error) {
	ctx, span := c.tracer.Start(ctx, "probeBank", oteltrace.WithAttributes(
		attribute.String("bank.provider", option.Provider),
		attribute.String("bank.url", option.URL),
	))
	defer span.End()

	result := paywall.ProbeResult{Provider: option.Provider}
	status, _, elapsed, err := c.postForm(ctx, c.probeHTTP, c.probe.Deadline, option.URL, option.Fields, false)
	result.ElapsedSeconds = elapsed
	if err != nil {
		if !isTimeout(err) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "bank probe failed")
			return result, err
		}
		probeTimeouts.WithLabelValues(option.Provider).Inc()
		status = paywall.StatusTimeout
	}

	result.Status = status
	probeDuration.WithLabelValues(option.Provider, strconv.Itoa(status)).Observe(elapsed)
	span.SetAttributes(attribute.Int("http.status_code", status))
	return result, nil
}

// postForm sends fields as a form body. Elapsed time runs from just before the
// request is issued until the response, the timeout or the error.
func (c *HTTPClient) postForm(ctx context.Context, client *http.Client, deadline time.Duration, target string, fields map[string]string, keepBody bool) (int, []byte, float64, error) {
	if deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, deadline)
		defer cancel()
	}

	form := url.Values{}
	for k, v := range fields {
		form.Set(k, v)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, nil, 0, fmt.Errorf("cannot build request for %s: %w", target, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, time.Since(start).Seconds(), err
	}
	defer resp.Body.Close()

	var body []byte
	if keepBody {
		body, err = io.ReadAll(resp.Body)
	} else {
		_, err = io.Copy(io.Discard, resp.Body)
	}
	elapsed := time.Since(start).Seconds()
	if err != nil {
		return resp.StatusCode, nil, elapsed, err
	}
	return resp.StatusCode, body, elapsed, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

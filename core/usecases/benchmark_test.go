package usecases

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"paywall-bench/core/constants"
	"paywall-bench/core/msg_broker"
	"paywall-bench/core/payload"
	"paywall-bench/core/paywall"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tradeXML = `<trade><payments><payment><banks>
	<nordea url="https://bank.example/nordea"><STAMP>1</STAMP></nordea>
	<aktia url="https://bank.example/aktia"/>
</banks></payment></payments></trade>`

type fakeClient struct {
	mu       sync.Mutex
	wall     *paywall.WallResponse
	wallErr  error
	opened   payload.Payload
	statuses map[string]int
	errs     map[string]error
}

func (f *fakeClient) Open(ctx context.Context, p payload.Payload) (*paywall.WallResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened = p
	return f.wall, f.wallErr
}

func (f *fakeClient) Probe(ctx context.Context, option paywall.BankOption) (paywall.ProbeResult, error) {
	if err := f.errs[option.Provider]; err != nil {
		return paywall.ProbeResult{Provider: option.Provider}, err
	}
	return paywall.ProbeResult{Provider: option.Provider, Status: f.statuses[option.Provider], ElapsedSeconds: 0.1}, nil
}

func testSigner() *payload.Signer {
	defaults := payload.Payload{}
	for _, field := range payload.DefaultFields {
		defaults[field] = ""
	}
	defaults["SECURITY_KEY"] = "SAIPPUAKAUPPIAS"
	return payload.NewSigner(defaults, payload.DefaultFields, payload.MD5)
}

func newTestBenchmark(client paywall.Client, mode paywall.Mode) *Benchmark {
	b := NewBenchmark(testSigner(), client, paywall.FanOut{Mode: mode})
	b.now = func() time.Time { return time.UnixMilli(1500000000000) }
	return b
}

func TestRunReportsWallFirst(t *testing.T) {
	client := &fakeClient{
		wall:     &paywall.WallResponse{Status: http.StatusOK, Body: []byte(tradeXML), ElapsedSeconds: 0.7},
		statuses: map[string]int{"nordea": 200, "aktia": paywall.StatusTimeout},
	}

	report, err := newTestBenchmark(client, "").Run(context.Background(), nil)
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, paywall.ModeFirstError, report.Mode)
	require.Len(t, report.Results, 3)
	assert.Equal(t, paywall.ProbeResult{Status: 200, Provider: constants.PAYWALL_PROVIDER, ElapsedSeconds: 0.7}, report.Results[0])
	assert.Equal(t, "nordea", report.Results[1].Provider)
	assert.Equal(t, 200, report.Results[1].Status)
	assert.Equal(t, "aktia", report.Results[2].Provider)
	assert.Equal(t, paywall.StatusTimeout, report.Results[2].Status)

	assert.Equal(t, "1500000000000", client.opened["STAMP"])
	assert.Equal(t, "1234", client.opened["AMOUNT"])
	assert.Len(t, client.opened[payload.MAC_FIELD], 32)
}

func TestRunUsesOverrides(t *testing.T) {
	client := &fakeClient{wall: &paywall.WallResponse{Status: http.StatusOK, Body: []byte(tradeXML)}}
	order := payload.Order{Stamp: "s-1", Amount: decimal.RequireFromString("5")}

	_, err := newTestBenchmark(client, "").Run(context.Background(), order.Overrides(time.Now()))
	require.NoError(t, err)
	assert.Equal(t, "s-1", client.opened["STAMP"])
	assert.Equal(t, "500", client.opened["AMOUNT"])
	assert.Empty(t, client.opened["FIRSTNAME"])
}

func TestRunWallFailures(t *testing.T) {
	cases := map[string]struct {
		client *fakeClient
		target error
	}{
		"transport": {
			client: &fakeClient{wallErr: errors.New("dial tcp: connection refused")},
		},
		"status": {
			client: &fakeClient{wall: &paywall.WallResponse{Status: http.StatusInternalServerError}},
			target: paywall.ErrWallStatus,
		},
		"shape": {
			client: &fakeClient{wall: &paywall.WallResponse{Status: http.StatusOK, Body: []byte(`<trade/>`)}},
			target: paywall.ErrUnexpectedShape,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			report, err := newTestBenchmark(tc.client, "").Run(context.Background(), nil)
			require.Error(t, err)
			assert.Nil(t, report)
			if tc.target != nil {
				assert.ErrorIs(t, err, tc.target)
			}
		})
	}
}

func TestRunModes(t *testing.T) {
	boom := errors.New("connection reset")
	client := &fakeClient{
		wall:     &paywall.WallResponse{Status: http.StatusOK, Body: []byte(tradeXML)},
		statuses: map[string]int{"nordea": 200},
		errs:     map[string]error{"aktia": boom},
	}
	bench := newTestBenchmark(client, paywall.ModeFirstError)

	_, err := bench.Run(context.Background(), nil)
	assert.ErrorIs(t, err, boom)

	report, err := bench.RunWithMode(context.Background(), nil, paywall.ModeSettled)
	require.NoError(t, err)
	require.Len(t, report.Results, 3)
	assert.Equal(t, paywall.ModeSettled, report.Mode)
	assert.Equal(t, "connection reset", report.Results[2].Error)
}

func TestSignDefaultsToDemoOrder(t *testing.T) {
	bench := newTestBenchmark(&fakeClient{}, "")

	signed, err := bench.Sign(nil)
	require.NoError(t, err)
	assert.Equal(t, "Food", signed["MESSAGE"])

	mac, err := payload.ComputeMac(payload.MD5, signed, payload.DefaultFields)
	require.NoError(t, err)
	assert.Equal(t, mac, signed[payload.MAC_FIELD])
}

type fakeBroker struct {
	requests []*msg_broker.BenchmarkRequest
	sent     []*msg_broker.BenchmarkResponse
	sendErr  error
	handled  []error
}

func (f *fakeBroker) Send(resp *msg_broker.BenchmarkResponse) error {
	f.sent = append(f.sent, resp)
	return f.sendErr
}

func (f *fakeBroker) Recv(ctx context.Context, handlerFunc msg_broker.HandlerFunc) error {
	for _, req := range f.requests {
		f.handled = append(f.handled, handlerFunc(ctx, req))
	}
	return nil
}

func TestBenchmarkReqConsumer(t *testing.T) {
	client := &fakeClient{
		wall:     &paywall.WallResponse{Status: http.StatusOK, Body: []byte(tradeXML)},
		statuses: map[string]int{"nordea": 200, "aktia": 200},
	}
	tracing := map[string]interface{}{"traceparent": "00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01"}
	broker := &fakeBroker{requests: []*msg_broker.BenchmarkRequest{
		{RequestId: "demo", TracingInformation: tracing},
		{RequestId: "order", Order: &payload.Order{Amount: decimal.NewFromInt(3)}, Mode: "settled"},
		{RequestId: "bad-mode", Mode: "sometimes"},
		{RequestId: "bad-amount", Order: &payload.Order{Amount: decimal.Zero}},
		{RequestId: "bad-email", Order: &payload.Order{Amount: decimal.NewFromInt(1), Email: "nope"}},
	}}

	require.NoError(t, BenchmarkReqConsumer(context.Background(), broker, newTestBenchmark(client, "")))
	require.Len(t, broker.sent, 5)

	assert.Equal(t, "demo", broker.sent[0].RequestId)
	assert.Equal(t, tracing, broker.sent[0].TracingInformation)
	require.NotNil(t, broker.sent[0].Report)
	assert.Len(t, broker.sent[0].Report.Results, 3)

	assert.Equal(t, paywall.ModeSettled, broker.sent[1].Report.Mode)
	assert.Equal(t, "300", client.opened["AMOUNT"])

	assert.Nil(t, broker.sent[2].Report)
	assert.Contains(t, broker.sent[2].Error, "unknown probe mode")
	assert.Equal(t, payload.ErrNonPositiveAmount.Error(), broker.sent[3].Error)
	assert.Nil(t, broker.sent[4].Report)
	assert.Contains(t, broker.sent[4].Error, "Email")
	assert.Equal(t, "300", client.opened["AMOUNT"])

	for _, err := range broker.handled {
		assert.NoError(t, err)
	}
}

func TestBenchmarkReqConsumerReportsRunFailure(t *testing.T) {
	client := &fakeClient{wall: &paywall.WallResponse{Status: http.StatusBadGateway}}
	broker := &fakeBroker{
		requests: []*msg_broker.BenchmarkRequest{{RequestId: "r1"}},
		sendErr:  errors.New("queue gone"),
	}

	require.NoError(t, BenchmarkReqConsumer(context.Background(), broker, newTestBenchmark(client, "")))
	require.Len(t, broker.sent, 1)
	assert.Contains(t, broker.sent[0].Error, "error status")
	require.Len(t, broker.handled, 1)
	require.Error(t, broker.handled[0])
	assert.Contains(t, broker.handled[0].Error(), "queue gone")
}

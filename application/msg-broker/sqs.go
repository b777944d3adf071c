package msgbroker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	msg_broker_iface "paywall-bench/core/msg_broker"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const (
	VISIBILITY_TIMEOUT = int32(15)
	TRACEPARENT        = "traceparent"
)

var (
	opsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "total_benchmark_requests_processed",
		Help: "The total number of processed benchmark requests",
	})
	IsInitialized = false
	IsHealthy     = false
)

// Queues locates the request and response queues. EndpointURL overrides the
// AWS endpoint, e.g. for localstack.
type Queues struct {
	EndpointURL string
	Requests    string
	Responses   string
}

// sqsAPI is the part of *sqs.Client the broker uses.
type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

type SQSClient struct {
	requestsQueueURL  *string
	responsesQueueURL *string
	api               sqsAPI
	tracer            oteltrace.Tracer
}

func New(ctx context.Context, queues Queues, tracer oteltrace.Tracer) (msg_broker_iface.Client, error) {
	var cfg aws.Config
	var err error
	if queues.EndpointURL != "" {
		customResolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:           queues.EndpointURL,
				SigningRegion: region,
			}, nil
		})
		cfg, err = config.LoadDefaultConfig(ctx, config.WithEndpointResolverWithOptions(customResolver))
	} else {
		cfg, err = config.LoadDefaultConfig(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("couldn't load aws configuration: %w", err)
	}

	client := sqs.NewFromConfig(cfg)

	reqQueueUrlOutput, err := client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{
		QueueName: aws.String(queues.Requests),
	})
	if err != nil {
		return nil, fmt.Errorf("couldn't get url for queue %s: %w", queues.Requests, err)
	}

	respQueueUrlOutput, err := client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{
		QueueName: aws.String(queues.Responses),
	})
	if err != nil {
		return nil, fmt.Errorf("couldn't get url for queue %s: %w", queues.Responses, err)
	}

	IsInitialized = true
	IsHealthy = true
	return &SQSClient{
		requestsQueueURL:  reqQueueUrlOutput.QueueUrl,
		responsesQueueURL: respQueueUrlOutput.QueueUrl,
		api:               client,
		tracer:            tracer,
	}, nil
}

func (c *SQSClient) Send(resp *msg_broker_iface.BenchmarkResponse) error {
	ctxCall := extractTraceContext(context.Background(), resp.TracingInformation)
	_, span := c.tracer.Start(ctxCall, "sentResponse", oteltrace.WithAttributes(
		attribute.String("req.requestId", resp.RequestId),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctxCall, time.Second*15)
	defer cancel()

	data, err := json.Marshal(resp)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("cannot marshal message data: %w", err)
	}

	_, err = c.api.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    c.responsesQueueURL,
		MessageBody: aws.String(string(data)),
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("cannot send sqs message: %w", err)
	}

	log.Printf("Sent benchmark response %s", resp.RequestId)
	return nil
}

func (c *SQSClient) processMsg(ctxCall context.Context, handlerFunc msg_broker_iface.HandlerFunc, req *msg_broker_iface.BenchmarkRequest, receiptHandle *string) {
	ctx, span := c.tracer.Start(ctxCall, "processBenchmarkMsg", oteltrace.WithAttributes(
		attribute.String("req.requestId", req.RequestId),
	))
	defer span.End()
	log.Printf("Received benchmark request %s", req.RequestId)

	if err := handlerFunc(ctx, req); err != nil {
		// Left on the queue, it becomes visible again after VISIBILITY_TIMEOUT
		span.RecordError(err)
		log.Printf("Couldn't process message %s: %v", req.RequestId, err)
		return
	}
	c.deleteMsg(receiptHandle, req.RequestId)
	opsProcessed.Inc()
}

func (c *SQSClient) deleteMsg(receiptHandle *string, id string) {
	ctxDelete, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	_, err := c.api.DeleteMessage(ctxDelete, &sqs.DeleteMessageInput{
		QueueUrl:      c.requestsQueueURL,
		ReceiptHandle: receiptHandle,
	})
	if err != nil {
		log.Printf("Couldn't delete message %s: %v", id, err)
	}
}

// Recv polls the requests queue until ctx is done, handling every message in
// its own goroutine under a span that continues the sender's trace. A message
// is deleted once its handler succeeds. Malformed messages are deleted
// without being handled.
func (c *SQSClient) Recv(ctx context.Context, handlerFunc msg_broker_iface.HandlerFunc) error {
	for {
		select {
		case <-ctx.Done():
			log.Println("Stopping polling because a context kill signal was sent")
			return nil
		default:
		}

		req, receiptHandle, err := c.recv(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			var formatErr *unknownFormatError
			if errors.As(err, &formatErr) {
				log.Println(err)
				c.deleteMsg(receiptHandle, "with unknown format")
				continue
			}
			IsHealthy = false
			log.Printf("Couldn't receive message: %v", err)
			return err
		}
		IsHealthy = true
		if req == nil {
			continue
		}

		go c.processMsg(extractTraceContext(ctx, req.TracingInformation), handlerFunc, req, receiptHandle)
	}
}

type unknownFormatError struct {
	body string
}

func (e *unknownFormatError) Error() string {
	return fmt.Sprintf("unknown message format, cannot parse json: %s", e.body)
}

func (c *SQSClient) recv(ctx context.Context) (*msg_broker_iface.BenchmarkRequest, *string, error) {
	recvMsgInput := &sqs.ReceiveMessageInput{
		MessageAttributeNames: []string{
			string(types.QueueAttributeNameAll),
		},
		WaitTimeSeconds:   1,
		QueueUrl:          c.requestsQueueURL,
		VisibilityTimeout: VISIBILITY_TIMEOUT,
	}

	msgOutput, err := c.api.ReceiveMessage(ctx, recvMsgInput)
	if err != nil {
		return nil, nil, err
	}
	if len(msgOutput.Messages) == 0 {
		return nil, nil, nil
	}

	msg := msgOutput.Messages[0]
	req, err := decodeRequest(aws.ToString(msg.Body))
	if err != nil {
		return nil, msg.ReceiptHandle, err
	}
	return req, msg.ReceiptHandle, nil
}

func decodeRequest(body string) (*msg_broker_iface.BenchmarkRequest, error) {
	var req msg_broker_iface.BenchmarkRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil || req.RequestId == "" {
		return nil, &unknownFormatError{body: body}
	}
	return &req, nil
}

// extractTraceContext continues the trace whose traceparent travelled with the
// message, if any.
func extractTraceContext(ctx context.Context, info map[string]interface{}) context.Context {
	traceparent, ok := info[TRACEPARENT].(string)
	if !ok || traceparent == "" {
		return ctx
	}
	prop := propagation.TraceContext{}
	return prop.Extract(ctx, propagation.MapCarrier{
		TRACEPARENT: traceparent,
	})
}

// InjectTraceContext returns the tracing information to attach to an outgoing
// message so the consumer can continue the trace of ctx.
func InjectTraceContext(ctx context.Context) map[string]interface{} {
	prop := propagation.TraceContext{}
	carrier := propagation.MapCarrier{}
	prop.Inject(ctx, carrier)
	return map[string]interface{}{
		TRACEPARENT: carrier[TRACEPARENT],
	}
}

package redpanda

import (
	"context"
	"errors"
	"testing"

	"github.com/drfirst/dental-claims/pkg/circuitbreaker"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestHeaderCarrier_RoundTrip(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	record := &kgo.Record{Headers: []kgo.RecordHeader{{Key: "traceparent", Value: []byte("stale")}}}
	prop := propagation.TraceContext{}
	prop.Inject(ctx, &HeaderCarrier{Record: record})

	if len(record.Headers) != 1 {
		t.Fatalf("expected traceparent to be replaced, got %d headers", len(record.Headers))
	}
	want := "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"
	if got := (&HeaderCarrier{Record: record}).Get("traceparent"); got != want {
		t.Errorf("traceparent = %q, want %q", got, want)
	}

	extracted := trace.SpanContextFromContext(prop.Extract(context.Background(), &HeaderCarrier{Record: record}))
	if extracted.TraceID() != traceID || !extracted.IsRemote() {
		t.Errorf("unexpected extracted context: %+v", extracted)
	}
}

func TestClaimsTopicConfig(t *testing.T) {
	cfg := ClaimsTopicConfig("")
	if cfg.Name != DefaultClaimsTopic {
		t.Errorf("expected default topic name, got %s", cfg.Name)
	}
	if cfg.Partitions < 1 || cfg.Configs["cleanup.policy"] == nil {
		t.Errorf("unexpected topic config: %+v", cfg)
	}
}

func TestNewProducer_RequiresBrokers(t *testing.T) {
	if _, err := NewProducer(DefaultProducerConfig(nil), nil); err == nil {
		t.Fatal("expected error without brokers")
	}
}

func TestNewConsumer_RequiresHandler(t *testing.T) {
	if _, err := NewConsumer(DefaultConsumerConfig([]string{"localhost:9092"}, DefaultClaimsTopic), nil, nil); err == nil {
		t.Fatal("expected error without handler")
	}
}

type failingPublisher struct {
	calls int
	err   error
}

func (f *failingPublisher) Publish(ctx context.Context, topic, key string, value []byte) error {
	f.calls++
	return f.err
}

func TestGuardedPublisher_StopsCallingDeadBroker(t *testing.T) {
	cfg := circuitbreaker.DefaultConfig("publish")
	cfg.FailureThreshold = 2
	breaker, err := circuitbreaker.New(cfg, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	brokerDown := errors.New("unable to dial")
	next := &failingPublisher{err: brokerDown}
	pub := NewGuardedPublisher(next, breaker)

	for i := 0; i < 2; i++ {
		if err := pub.Publish(context.Background(), DefaultClaimsTopic, "c1", []byte("{}")); !errors.Is(err, brokerDown) {
			t.Fatalf("publish %d: expected broker error, got %v", i, err)
		}
	}
	if err := pub.Publish(context.Background(), DefaultClaimsTopic, "c1", []byte("{}")); !errors.Is(err, circuitbreaker.ErrOpen) {
		t.Fatalf("expected ErrOpen once the circuit trips, got %v", err)
	}
	if next.calls != 2 {
		t.Errorf("expected 2 calls to the producer, got %d", next.calls)
	}
}

func TestGuardedPublisher_PassesThrough(t *testing.T) {
	breaker, err := circuitbreaker.New(circuitbreaker.DefaultConfig("publish"), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	next := &failingPublisher{}
	if err := NewGuardedPublisher(next, breaker).Publish(context.Background(), "t", "k", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.calls != 1 {
		t.Errorf("expected 1 call, got %d", next.calls)
	}
}

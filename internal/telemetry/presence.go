package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"chatroom-service/internal/observability"
)

const (
	RoutingKeyJoined = "participant.joined"
	RoutingKeyLeft   = "participant.left"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// PresenceEmitter publishes join and departure events for downstream consumers.
type PresenceEmitter struct {
	publisher   Publisher
	service     string
	environment string
	log         *zap.Logger
	now         func() time.Time
}

type PresenceEnvelope struct {
	SchemaVersion int             `json:"schema_version"`
	EventType     string          `json:"event_type"`
	OccurredAt    string          `json:"occurred_at"`
	Service       string          `json:"service"`
	Environment   string          `json:"environment"`
	RequestID     string          `json:"request_id,omitempty"`
	TraceID       string          `json:"trace_id,omitempty"`
	Payload       PresencePayload `json:"payload"`
}

type PresencePayload struct {
	Participant string `json:"participant"`
}

func NewPresenceEmitter(publisher Publisher, service, environment string, log *zap.Logger) *PresenceEmitter {
	if log == nil {
		log = zap.NewNop()
	}
	return &PresenceEmitter{
		publisher:   publisher,
		service:     service,
		environment: environment,
		log:         log,
		now:         time.Now,
	}
}

func (e *PresenceEmitter) Joined(ctx context.Context, name string) {
	e.emit(ctx, RoutingKeyJoined, name)
}

func (e *PresenceEmitter) Left(ctx context.Context, names ...string) {
	for _, name := range names {
		e.emit(ctx, RoutingKeyLeft, name)
	}
}

func (e *PresenceEmitter) emit(ctx context.Context, routingKey, name string) {
	if e == nil || e.publisher == nil {
		return
	}

	envelope := PresenceEnvelope{
		SchemaVersion: 1,
		EventType:     routingKey,
		OccurredAt:    e.now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     observability.RequestIDFromContext(ctx),
		Payload:       PresencePayload{Participant: name},
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		envelope.TraceID = sc.TraceID().String()
	}

	if err := e.publisher.Publish(ctx, routingKey, envelope); err != nil {
		e.log.Warn("presence publish failed",
			zap.String("routing_key", routingKey),
			zap.String("participant", name),
			zap.Error(err))
	}
}

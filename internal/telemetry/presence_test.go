package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"chatroom-service/internal/mocks"
	"chatroom-service/internal/observability"
)

func TestPresenceEmitterJoined(t *testing.T) {
	pub := new(mocks.PublisherMock)
	emitter := NewPresenceEmitter(pub, "chatroom-service", "test", zaptest.NewLogger(t))
	emitter.now = func() time.Time { return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC) }

	ctx := observability.WithRequestID(context.Background(), "req-9")
	pub.On("Publish", ctx, RoutingKeyJoined, mock.AnythingOfType("telemetry.PresenceEnvelope")).Return(nil).Once()

	emitter.Joined(ctx, "alice")

	pub.AssertExpectations(t)
	envelope := pub.Calls[0].Arguments.Get(2).(PresenceEnvelope)
	assert.Equal(t, "participant.joined", envelope.EventType)
	assert.Equal(t, "2024-03-01T10:00:00Z", envelope.OccurredAt)
	assert.Equal(t, "req-9", envelope.RequestID)
	assert.Equal(t, "alice", envelope.Payload.Participant)
	assert.Equal(t, "chatroom-service", envelope.Service)
}

func TestPresenceEmitterLeftPublishesEach(t *testing.T) {
	pub := new(mocks.PublisherMock)
	emitter := NewPresenceEmitter(pub, "chatroom-service", "test", zaptest.NewLogger(t))

	pub.On("Publish", mock.Anything, RoutingKeyLeft, mock.Anything).Return(errors.New("channel closed")).Twice()

	emitter.Left(context.Background(), "alice", "bob")

	pub.AssertExpectations(t)
	require.Len(t, pub.Calls, 2)
	assert.Equal(t, "bob", pub.Calls[1].Arguments.Get(2).(PresenceEnvelope).Payload.Participant)
}

func TestNilEmitterIsSafe(t *testing.T) {
	var emitter *PresenceEmitter
	assert.NotPanics(t, func() { emitter.Joined(context.Background(), "alice") })
}

func TestInitTracingWithoutEndpoint(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), "", "chatroom-service", "test")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

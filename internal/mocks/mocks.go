package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"chatroom-service/internal/models"
	"chatroom-service/internal/repositories"
)

type ParticipantRepositoryMock struct {
	mock.Mock
}

func (m *ParticipantRepositoryMock) CreateParticipant(ctx context.Context, p models.Participant, entrance models.Message) (models.Message, error) {
	args := m.Called(ctx, p, entrance)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *ParticipantRepositoryMock) GetParticipant(ctx context.Context, name string) (models.Participant, error) {
	args := m.Called(ctx, name)
	var p models.Participant
	if val := args.Get(0); val != nil {
		p = val.(models.Participant)
	}
	return p, args.Error(1)
}

func (m *ParticipantRepositoryMock) ListParticipants(ctx context.Context) ([]models.Participant, error) {
	args := m.Called(ctx)
	var list []models.Participant
	if val := args.Get(0); val != nil {
		list = val.([]models.Participant)
	}
	return list, args.Error(1)
}

func (m *ParticipantRepositoryMock) TouchParticipant(ctx context.Context, name string, lastSeen int64) error {
	args := m.Called(ctx, name, lastSeen)
	return args.Error(0)
}

func (m *ParticipantRepositoryMock) ListInactive(ctx context.Context, cutoff int64) ([]models.Participant, error) {
	args := m.Called(ctx, cutoff)
	var list []models.Participant
	if val := args.Get(0); val != nil {
		list = val.([]models.Participant)
	}
	return list, args.Error(1)
}

func (m *ParticipantRepositoryMock) RemoveInactive(ctx context.Context, cutoff int64, departures []models.Message) ([]models.Message, error) {
	args := m.Called(ctx, cutoff, departures)
	var list []models.Message
	if val := args.Get(0); val != nil {
		list = val.([]models.Message)
	}
	return list, args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	args := m.Called(ctx, msg)
	var stored models.Message
	if val := args.Get(0); val != nil {
		stored = val.(models.Message)
	}
	return stored, args.Error(1)
}

func (m *MessageRepositoryMock) ListVisibleMessages(ctx context.Context, requester string, limit int) ([]models.Message, error) {
	args := m.Called(ctx, requester, limit)
	var list []models.Message
	if val := args.Get(0); val != nil {
		list = val.([]models.Message)
	}
	return list, args.Error(1)
}

// ParticipantServiceMock stands in for the participant registry in handler tests.
type ParticipantServiceMock struct {
	mock.Mock
}

func (m *ParticipantServiceMock) Register(ctx context.Context, name string) (models.Participant, error) {
	args := m.Called(ctx, name)
	var p models.Participant
	if val := args.Get(0); val != nil {
		p = val.(models.Participant)
	}
	return p, args.Error(1)
}

func (m *ParticipantServiceMock) List(ctx context.Context) ([]models.Participant, error) {
	args := m.Called(ctx)
	var list []models.Participant
	if val := args.Get(0); val != nil {
		list = val.([]models.Participant)
	}
	return list, args.Error(1)
}

func (m *ParticipantServiceMock) Heartbeat(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

// MessageServiceMock stands in for the message log in handler tests.
type MessageServiceMock struct {
	mock.Mock
}

func (m *MessageServiceMock) Post(ctx context.Context, from, to, text, msgType string) (models.Message, error) {
	args := m.Called(ctx, from, to, text, msgType)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageServiceMock) List(ctx context.Context, requester string, limit int) ([]models.Message, error) {
	args := m.Called(ctx, requester, limit)
	var list []models.Message
	if val := args.Get(0); val != nil {
		list = val.([]models.Message)
	}
	return list, args.Error(1)
}

type BroadcasterMock struct {
	mock.Mock
}

func (m *BroadcasterMock) Broadcast(msgs ...models.Message) {
	m.Called(msgs)
}

type PresenceRecorderMock struct {
	mock.Mock
}

func (m *PresenceRecorderMock) Joined(ctx context.Context, name string) {
	m.Called(ctx, name)
}

func (m *PresenceRecorderMock) Left(ctx context.Context, names ...string) {
	m.Called(ctx, names)
}

// PublisherMock records presence events instead of sending them to a broker.
type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *PublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

type PingerMock struct {
	mock.Mock
}

func (m *PingerMock) PingContext(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

var _ repositories.ParticipantRepository = (*ParticipantRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ interface {
	Register(ctx context.Context, name string) (models.Participant, error)
	List(ctx context.Context) ([]models.Participant, error)
	Heartbeat(ctx context.Context, name string) error
} = (*ParticipantServiceMock)(nil)
var _ interface {
	Post(ctx context.Context, from, to, text, msgType string) (models.Message, error)
	List(ctx context.Context, requester string, limit int) ([]models.Message, error)
} = (*MessageServiceMock)(nil)
var _ interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
} = (*PublisherMock)(nil)

package chat

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
	"chatroom-service/internal/models"
	"chatroom-service/internal/repositories"
	"chatroom-service/internal/validation"
)

var fixedNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.Local)

func fixedClock() time.Time { return fixedNow }

func TestRegisterStoresParticipantAndAnnounces(t *testing.T) {
	repo := new(mocks.ParticipantRepositoryMock)
	bc := new(mocks.BroadcasterMock)
	presence := new(mocks.PresenceRecorderMock)
	reg := NewRegistry(repo, Hooks{Broadcaster: bc, Presence: presence, Now: fixedClock}, zaptest.NewLogger(t))

	want := models.Participant{Name: "alice", LastSeen: fixedNow.UnixMilli()}
	entrance := models.NewStatusMessage("alice", EntranceText, fixedNow)
	stored := entrance
	stored.ID = 1

	repo.On("CreateParticipant", mock.Anything, want, entrance).Return(stored, nil).Once()
	bc.On("Broadcast", []models.Message{stored}).Once()
	presence.On("Joined", mock.Anything, "alice").Once()

	p, err := reg.Register(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, want, p)
	assert.Equal(t, "10:00:00", entrance.Time)

	repo.AssertExpectations(t)
	bc.AssertExpectations(t)
	presence.AssertExpectations(t)
}

func TestRegisterDuplicateIsConflict(t *testing.T) {
	repo := new(mocks.ParticipantRepositoryMock)
	bc := new(mocks.BroadcasterMock)
	reg := NewRegistry(repo, Hooks{Broadcaster: bc, Now: fixedClock}, zaptest.NewLogger(t))

	repo.On("CreateParticipant", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, repositories.ErrParticipantExists).Once()

	_, err := reg.Register(context.Background(), "alice")
	require.ErrorIs(t, err, ErrParticipantExists)
	bc.AssertNotCalled(t, "Broadcast", mock.Anything)
}

func TestRegisterEmptyNameIsValidationError(t *testing.T) {
	repo := new(mocks.ParticipantRepositoryMock)
	reg := NewRegistry(repo, Hooks{}, zaptest.NewLogger(t))

	_, err := reg.Register(context.Background(), "")
	var verr *validation.ValidationError
	require.ErrorAs(t, err, &verr)
	repo.AssertNotCalled(t, "CreateParticipant", mock.Anything, mock.Anything, mock.Anything)
}

func TestRegisterBackendFailureIsStorageError(t *testing.T) {
	repo := new(mocks.ParticipantRepositoryMock)
	reg := NewRegistry(repo, Hooks{Now: fixedClock}, zaptest.NewLogger(t))
	boom := errors.New("connection reset")

	repo.On("CreateParticipant", mock.Anything, mock.Anything, mock.Anything).Return(nil, boom).Once()

	_, err := reg.Register(context.Background(), "alice")
	var serr *StorageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "register participant", serr.Op)
	assert.ErrorIs(t, err, boom)
}

func TestListReturnsEmptySlice(t *testing.T) {
	repo := new(mocks.ParticipantRepositoryMock)
	reg := NewRegistry(repo, Hooks{}, nil)

	repo.On("ListParticipants", mock.Anything).Return(nil, nil).Once()

	list, err := reg.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestHeartbeat(t *testing.T) {
	t.Run("missing identity", func(t *testing.T) {
		repo := new(mocks.ParticipantRepositoryMock)
		reg := NewRegistry(repo, Hooks{}, zaptest.NewLogger(t))

		require.ErrorIs(t, reg.Heartbeat(context.Background(), ""), ErrParticipantNotFound)
		repo.AssertNotCalled(t, "TouchParticipant", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown participant", func(t *testing.T) {
		repo := new(mocks.ParticipantRepositoryMock)
		reg := NewRegistry(repo, Hooks{Now: fixedClock}, zaptest.NewLogger(t))
		repo.On("TouchParticipant", mock.Anything, "ghost", fixedNow.UnixMilli()).Return(repositories.ErrParticipantNotFound).Once()

		require.ErrorIs(t, reg.Heartbeat(context.Background(), "ghost"), ErrParticipantNotFound)
	})

	t.Run("refreshes last seen", func(t *testing.T) {
		repo := new(mocks.ParticipantRepositoryMock)
		reg := NewRegistry(repo, Hooks{Now: fixedClock}, zaptest.NewLogger(t))
		repo.On("TouchParticipant", mock.Anything, "alice", fixedNow.UnixMilli()).Return(nil).Once()

		require.NoError(t, reg.Heartbeat(context.Background(), "alice"))
		repo.AssertExpectations(t)
	})
}

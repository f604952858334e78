package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chatroom-service/internal/chat"
	"chatroom-service/internal/middleware"
	"chatroom-service/internal/mocks"
	"chatroom-service/internal/models"
	"chatroom-service/internal/validation"
)

type fixture struct {
	router       *gin.Engine
	participants *mocks.ParticipantServiceMock
	messages     *mocks.MessageServiceMock
	store        *mocks.PingerMock
}

func setupRouter() fixture {
	gin.SetMode(gin.TestMode)
	f := fixture{
		router:       gin.New(),
		participants: new(mocks.ParticipantServiceMock),
		messages:     new(mocks.MessageServiceMock),
		store:        new(mocks.PingerMock),
	}
	f.router.Use(middleware.Identity())
	RegisterRoutes(f.router,
		NewParticipantHandler(f.participants),
		NewMessageHandler(f.messages),
		NewHealthHandler(f.store))
	return f
}

func (f fixture) do(method, path, user, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if user != "" {
		req.Header.Set(middleware.UserHeader, user)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestRegisterCreated(t *testing.T) {
	f := setupRouter()
	f.participants.On("Register", mock.Anything, "alice").Return(models.Participant{Name: "alice", LastSeen: 42}, nil).Once()

	rec := f.do(http.MethodPost, "/participants", "", `{"name":"alice"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	var p models.Participant
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&p))
	assert.Equal(t, "alice", p.Name)
	f.participants.AssertExpectations(t)
}

func TestRegisterConflict(t *testing.T) {
	f := setupRouter()
	f.participants.On("Register", mock.Anything, "alice").Return(nil, chat.ErrParticipantExists).Once()

	rec := f.do(http.MethodPost, "/participants", "", `{"name":"alice"}`)

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"participant already exists"}`, rec.Body.String())
}

func TestRegisterValidationDetails(t *testing.T) {
	f := setupRouter()
	verr := &validation.ValidationError{Fields: []validation.FieldError{{Field: "name", Rule: "required", Message: "name is required"}}}
	f.participants.On("Register", mock.Anything, "").Return(nil, verr).Once()

	rec := f.do(http.MethodPost, "/participants", "", `{}`)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{"error":"validation failed","details":[{"field":"name","rule":"required","message":"name is required"}]}`, rec.Body.String())
}

func TestRegisterMalformedBody(t *testing.T) {
	f := setupRouter()

	rec := f.do(http.MethodPost, "/participants", "", `{"name":`)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	f.participants.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestListParticipantsStorageErrorIsHidden(t *testing.T) {
	f := setupRouter()
	f.participants.On("List", mock.Anything).Return(nil, &chat.StorageError{Op: "list participants", Err: errors.New("pq: password authentication failed")}).Once()

	rec := f.do(http.MethodGet, "/participants", "", "")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestPostMessageUsesHeaderIdentity(t *testing.T) {
	f := setupRouter()
	stored := models.Message{From: "João", To: "Todos", Text: "oi", Type: models.TypeMessage, Time: "10:00:00"}
	f.messages.On("Post", mock.Anything, "João", "Todos", "oi", "message").Return(stored, nil).Once()

	rec := f.do(http.MethodPost, "/messages", "Jo%C3%A3o", `{"from":"mallory","to":"Todos","text":"oi","type":"message"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"from":"João","to":"Todos","text":"oi","type":"message","time":"10:00:00"}`, rec.Body.String())
	f.messages.AssertExpectations(t)
}

func TestPostMessageUnknownSender(t *testing.T) {
	f := setupRouter()
	f.messages.On("Post", mock.Anything, "ghost", "Todos", "hi", "message").Return(nil, chat.ErrUnknownSender).Once()

	rec := f.do(http.MethodPost, "/messages", "ghost", `{"to":"Todos","text":"hi","type":"message"}`)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestListMessages(t *testing.T) {
	t.Run("without limit", func(t *testing.T) {
		f := setupRouter()
		f.messages.On("List", mock.Anything, "bob", 0).Return([]models.Message{}, nil).Once()

		rec := f.do(http.MethodGet, "/messages", "bob", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
		f.messages.AssertExpectations(t)
	})

	t.Run("with limit", func(t *testing.T) {
		f := setupRouter()
		f.messages.On("List", mock.Anything, "bob", 2).Return([]models.Message{{From: "a"}, {From: "b"}}, nil).Once()

		rec := f.do(http.MethodGet, "/messages?limit=2", "bob", "")

		require.Equal(t, http.StatusOK, rec.Code)
		f.messages.AssertExpectations(t)
	})

	for _, raw := range []string{"0", "-1", "ten", ""} {
		t.Run("invalid limit "+raw, func(t *testing.T) {
			f := setupRouter()

			rec := f.do(http.MethodGet, "/messages?limit="+raw, "bob", "")

			require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			f.messages.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestHeartbeat(t *testing.T) {
	t.Run("known participant", func(t *testing.T) {
		f := setupRouter()
		f.participants.On("Heartbeat", mock.Anything, "alice").Return(nil).Once()

		rec := f.do(http.MethodPost, "/status", "alice", "")

		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("plus sign is part of the name", func(t *testing.T) {
		f := setupRouter()
		f.participants.On("Heartbeat", mock.Anything, "a+b").Return(nil).Once()

		rec := f.do(http.MethodPost, "/status", "a+b", "")

		require.Equal(t, http.StatusOK, rec.Code)
		f.participants.AssertExpectations(t)
	})

	t.Run("missing header", func(t *testing.T) {
		f := setupRouter()
		f.participants.On("Heartbeat", mock.Anything, "").Return(chat.ErrParticipantNotFound).Once()

		rec := f.do(http.MethodPost, "/status", "", "")

		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHealth(t *testing.T) {
	f := setupRouter()
	f.store.On("PingContext", mock.Anything).Return(nil).Once()
	require.Equal(t, http.StatusOK, f.do(http.MethodGet, "/healthz", "", "").Code)

	f.store.On("PingContext", mock.Anything).Return(errors.New("closed")).Once()
	require.Equal(t, http.StatusServiceUnavailable, f.do(http.MethodGet, "/healthz", "", "").Code)
}

package chat

import (
	"context"
	"errors"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"chatroom-service/internal/models"
	"chatroom-service/internal/observability"
	"chatroom-service/internal/repositories"
	"chatroom-service/internal/validation"
)

// MessageLog is the append-only room history.
type MessageLog struct {
	participants repositories.ParticipantRepository
	messages     repositories.MessageRepository
	hooks        Hooks
	log          *zap.Logger
}

// NewMessageLog constructs a MessageLog.
func NewMessageLog(participants repositories.ParticipantRepository, messages repositories.MessageRepository, hooks Hooks, log *zap.Logger) *MessageLog {
	if log == nil {
		log = zap.NewNop()
	}
	return &MessageLog{participants: participants, messages: messages, hooks: hooks, log: log}
}

// Post appends a message authored by from. The sender must be registered.
func (l *MessageLog) Post(ctx context.Context, from, to, text, msgType string) (models.Message, error) {
	ctx, span := tracer.Start(ctx, "chat.post_message")
	defer span.End()
	span.SetAttributes(attribute.String("chat.from", from), attribute.String("chat.type", msgType))

	in := validation.MessageInput{To: to, Text: text, Type: msgType}
	if err := validation.ValidateMessage(in, from); err != nil {
		return models.Message{}, err
	}

	if _, err := l.participants.GetParticipant(ctx, from); err != nil {
		err = translate("lookup sender", err)
		if errors.Is(err, ErrParticipantNotFound) {
			return models.Message{}, ErrUnknownSender
		}
		span.RecordError(err)
		return models.Message{}, err
	}

	msg := models.NewMessage(from, to, text, in.MessageType(), l.hooks.Time())
	stored, err := l.messages.CreateMessage(ctx, msg)
	if err != nil {
		err = translate("store message", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		l.log.Error("store message", zap.String("from", from), zap.Error(err))
		return models.Message{}, err
	}

	observability.IncMessageStored(string(stored.Type))
	l.hooks.Delivered(stored)
	return stored, nil
}

// List returns requester's view of the log in chronological order. A zero
// limit returns everything; otherwise only the most recent limit messages.
func (l *MessageLog) List(ctx context.Context, requester string, limit int) ([]models.Message, error) {
	if limit < 0 {
		return nil, ErrInvalidLimit
	}

	ctx, span := tracer.Start(ctx, "chat.list_messages")
	defer span.End()
	span.SetAttributes(attribute.Int("chat.limit", limit))

	msgs, err := l.messages.ListVisibleMessages(ctx, requester, limit)
	if err != nil {
		span.RecordError(err)
		return nil, translate("list messages", err)
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	return msgs, nil
}

// ParseLimit reads the limit query parameter. Only positive integers are accepted.
func ParseLimit(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, ErrInvalidLimit
	}
	return n, nil
}

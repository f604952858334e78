package chat

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"chatroom-service/internal/models"
	"chatroom-service/internal/observability"
	"chatroom-service/internal/repositories"
	"chatroom-service/internal/validation"
)

var tracer = otel.Tracer("chatroom-service/chat")

// Registry owns the set of participants currently in the room.
type Registry struct {
	repo  repositories.ParticipantRepository
	hooks Hooks
	log   *zap.Logger
}

// NewRegistry constructs a Registry.
func NewRegistry(repo repositories.ParticipantRepository, hooks Hooks, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{repo: repo, hooks: hooks, log: log}
}

// Register adds name to the room and announces the entrance. The participant
// and its entrance message are stored in a single transaction.
func (r *Registry) Register(ctx context.Context, name string) (models.Participant, error) {
	ctx, span := tracer.Start(ctx, "chat.register")
	defer span.End()
	span.SetAttributes(attribute.String("chat.participant", name))

	if err := validation.ValidateParticipant(validation.ParticipantInput{Name: name}); err != nil {
		observability.IncRegistration("invalid")
		return models.Participant{}, err
	}

	now := r.hooks.Time()
	p := models.NewParticipant(name, now)
	entrance, err := r.repo.CreateParticipant(ctx, p, models.NewStatusMessage(name, EntranceText, now))
	if err != nil {
		err = translate("register participant", err)
		if errors.Is(err, ErrParticipantExists) {
			observability.IncRegistration("conflict")
			return models.Participant{}, err
		}
		observability.IncRegistration("error")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.log.Error("register participant", zap.String("name", name), zap.Error(err))
		return models.Participant{}, err
	}

	observability.IncRegistration("created")
	observability.IncMessageStored(string(entrance.Type))
	r.log.Info("participant joined", zap.String("name", name))

	r.hooks.Delivered(entrance)
	r.hooks.Joined(ctx, name)
	return p, nil
}

// List returns every participant currently in the room.
func (r *Registry) List(ctx context.Context) ([]models.Participant, error) {
	ctx, span := tracer.Start(ctx, "chat.list_participants")
	defer span.End()

	participants, err := r.repo.ListParticipants(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, translate("list participants", err)
	}
	if participants == nil {
		participants = []models.Participant{}
	}
	return participants, nil
}

// Heartbeat marks name as seen now.
func (r *Registry) Heartbeat(ctx context.Context, name string) error {
	if name == "" {
		return ErrParticipantNotFound
	}

	ctx, span := tracer.Start(ctx, "chat.heartbeat")
	defer span.End()
	span.SetAttributes(attribute.String("chat.participant", name))

	if err := r.repo.TouchParticipant(ctx, name, r.hooks.Time().UnixMilli()); err != nil {
		err = translate("touch participant", err)
		if !errors.Is(err, ErrParticipantNotFound) {
			span.RecordError(err)
			r.log.Error("heartbeat", zap.String("name", name), zap.Error(err))
		}
		return err
	}
	return nil
}

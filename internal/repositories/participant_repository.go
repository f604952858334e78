package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/samber/lo"

	"chatroom-service/internal/models"
)

var (
	ErrParticipantExists   = errors.New("participant already exists")
	ErrParticipantNotFound = errors.New("participant not found")
)

// ParticipantRepository abstracts participant persistence.
type ParticipantRepository interface {
	// CreateParticipant inserts p together with its entrance message, or fails
	// with ErrParticipantExists when the name is taken.
	CreateParticipant(ctx context.Context, p models.Participant, entrance models.Message) (models.Message, error)
	GetParticipant(ctx context.Context, name string) (models.Participant, error)
	ListParticipants(ctx context.Context) ([]models.Participant, error)
	TouchParticipant(ctx context.Context, name string, lastSeen int64) error
	ListInactive(ctx context.Context, cutoff int64) ([]models.Participant, error)
	// RemoveInactive deletes the authors of departures that are still inactive
	// at cutoff and stores their departure messages. It returns the messages
	// actually written.
	RemoveInactive(ctx context.Context, cutoff int64, departures []models.Message) ([]models.Message, error)
}

// ParticipantRepo is a sqlx implementation of ParticipantRepository.
type ParticipantRepo struct {
	db *sqlx.DB
}

// NewParticipantRepo constructs a ParticipantRepo.
func NewParticipantRepo(db *sqlx.DB) *ParticipantRepo {
	return &ParticipantRepo{db: db}
}

// CreateParticipant registers a participant and its entrance message atomically.
func (r *ParticipantRepo) CreateParticipant(ctx context.Context, p models.Participant, entrance models.Message) (models.Message, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Message{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `INSERT INTO participants (name, last_seen) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`, p.Name, p.LastSeen)
	if err != nil {
		return models.Message{}, err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return models.Message{}, err
	}
	if count == 0 {
		err = ErrParticipantExists
		return models.Message{}, err
	}

	if entrance, err = insertMessage(ctx, tx, entrance); err != nil {
		return models.Message{}, err
	}

	if err = tx.Commit(); err != nil {
		return models.Message{}, err
	}
	return entrance, nil
}

// GetParticipant fetches a participant by name.
func (r *ParticipantRepo) GetParticipant(ctx context.Context, name string) (models.Participant, error) {
	var p models.Participant
	err := r.db.GetContext(ctx, &p, `SELECT name, last_seen FROM participants WHERE name=$1`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Participant{}, ErrParticipantNotFound
	}
	return p, err
}

// ListParticipants returns every active participant.
func (r *ParticipantRepo) ListParticipants(ctx context.Context) ([]models.Participant, error) {
	participants := []models.Participant{}
	err := r.db.SelectContext(ctx, &participants, `SELECT name, last_seen FROM participants ORDER BY name ASC`)
	return participants, err
}

// TouchParticipant refreshes the participant's last heartbeat.
func (r *ParticipantRepo) TouchParticipant(ctx context.Context, name string, lastSeen int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE participants SET last_seen = $2 WHERE name=$1`, name, lastSeen)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrParticipantNotFound
	}
	return nil
}

// ListInactive returns participants last seen before cutoff.
func (r *ParticipantRepo) ListInactive(ctx context.Context, cutoff int64) ([]models.Participant, error) {
	var participants []models.Participant
	err := r.db.SelectContext(ctx, &participants, `SELECT name, last_seen FROM participants WHERE last_seen < $1 ORDER BY name ASC`, cutoff)
	return participants, err
}

// RemoveInactive evicts stale participants and records their departures in one transaction.
func (r *ParticipantRepo) RemoveInactive(ctx context.Context, cutoff int64, departures []models.Message) ([]models.Message, error) {
	if len(departures) == 0 {
		return nil, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	names := lo.Map(departures, func(m models.Message, _ int) string { return m.From })

	// A heartbeat that lands between ListInactive and here keeps the participant.
	var removed []string
	if err = tx.SelectContext(ctx, &removed, `DELETE FROM participants WHERE name = ANY($1) AND last_seen < $2 RETURNING name`, pq.Array(names), cutoff); err != nil {
		return nil, err
	}

	gone := lo.Keyify(removed)
	written := make([]models.Message, 0, len(removed))
	for _, msg := range departures {
		if _, ok := gone[msg.From]; !ok {
			continue
		}
		var stored models.Message
		if stored, err = insertMessage(ctx, tx, msg); err != nil {
			return nil, err
		}
		written = append(written, stored)
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return written, nil
}

package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"chatroom-service/internal/models"
)

// MessageRepository defines interactions for room messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, msg models.Message) (models.Message, error)
	// ListVisibleMessages returns messages visible to requester in insertion
	// order. A positive limit keeps only the most recent limit messages.
	ListVisibleMessages(ctx context.Context, requester string, limit int) ([]models.Message, error)
}

const visibleMessagesFilter = `kind = 'message' OR recipient = 'Todos' OR recipient = $1 OR sender = $1`

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateMessage appends a message to the room log.
func (r *MessageRepo) CreateMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	return insertMessage(ctx, r.db, msg)
}

// ListVisibleMessages returns the requester's view of the room log.
func (r *MessageRepo) ListVisibleMessages(ctx context.Context, requester string, limit int) ([]models.Message, error) {
	msgs := []models.Message{}
	if limit <= 0 {
		err := r.db.SelectContext(ctx, &msgs, `SELECT id, sender, recipient, text, kind, sent_at FROM messages
        WHERE `+visibleMessagesFilter+`
        ORDER BY id ASC`, requester)
		return msgs, err
	}

	err := r.db.SelectContext(ctx, &msgs, `SELECT id, sender, recipient, text, kind, sent_at FROM (
            SELECT id, sender, recipient, text, kind, sent_at FROM messages
            WHERE `+visibleMessagesFilter+`
            ORDER BY id DESC
            LIMIT $2
        ) recent
        ORDER BY id ASC`, requester, limit)
	return msgs, err
}

func insertMessage(ctx context.Context, q sqlx.QueryerContext, msg models.Message) (models.Message, error) {
	err := q.QueryRowxContext(ctx, `INSERT INTO messages (sender, recipient, text, kind, sent_at) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		msg.From, msg.To, msg.Text, msg.Type, msg.Time).
		Scan(&msg.ID)
	return msg, err
}

package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"

	"chatroom-service/internal/models"
)

const (
	participantPrefix = "participant:"
	messagePrefix     = "message:"
	messageSeqKey     = "seq:messages"

	// maxTxnAttempts bounds optimistic retries on badger.ErrConflict.
	maxTxnAttempts = 5
)

// BadgerStore keeps both collections in an embedded BadgerDB. It implements
// ParticipantRepository and MessageRepository.
//
// Keys:
//   - participant:{name}
//   - message:{id padded to 20 digits}, so a prefix scan yields insertion order.
type BadgerStore struct {
	db  *badger.DB
	seq *badger.Sequence
}

// NewBadgerStore wraps an open database. The caller keeps ownership of db;
// Close only releases the message sequence.
func NewBadgerStore(db *badger.DB) (*BadgerStore, error) {
	seq, err := db.GetSequence([]byte(messageSeqKey), 100)
	if err != nil {
		return nil, fmt.Errorf("message sequence: %w", err)
	}
	return &BadgerStore{db: db, seq: seq}, nil
}

// Close releases the leased sequence range.
func (s *BadgerStore) Close() error {
	return s.seq.Release()
}

// PingContext reports whether the underlying database is usable.
func (s *BadgerStore) PingContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return errors.New("badger: database is closed")
	}
	return nil
}

// CreateParticipant inserts the participant unless the key already exists.
func (s *BadgerStore) CreateParticipant(ctx context.Context, p models.Participant, entrance models.Message) (models.Message, error) {
	err := s.update(ctx, func(txn *badger.Txn) error {
		_, err := txn.Get(participantKey(p.Name))
		if err == nil {
			return ErrParticipantExists
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := setJSON(txn, participantKey(p.Name), p); err != nil {
			return err
		}
		if entrance.ID, err = s.nextID(); err != nil {
			return err
		}
		return setJSON(txn, messageKey(entrance.ID), entrance)
	})
	if err != nil {
		return models.Message{}, err
	}
	return entrance, nil
}

// GetParticipant fetches a participant by name.
func (s *BadgerStore) GetParticipant(ctx context.Context, name string) (models.Participant, error) {
	var p models.Participant
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		p, err = getParticipant(txn, name)
		return err
	})
	return p, err
}

// ListParticipants returns every participant ordered by name.
func (s *BadgerStore) ListParticipants(ctx context.Context) ([]models.Participant, error) {
	participants := []models.Participant{}
	err := s.view(ctx, func(txn *badger.Txn) error {
		return scanPrefix(txn, participantPrefix, false, func(_, raw []byte) (bool, error) {
			var p models.Participant
			if err := json.Unmarshal(raw, &p); err != nil {
				return false, err
			}
			participants = append(participants, p)
			return true, nil
		})
	})
	return participants, err
}

// TouchParticipant refreshes the participant's last heartbeat.
func (s *BadgerStore) TouchParticipant(ctx context.Context, name string, lastSeen int64) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		p, err := getParticipant(txn, name)
		if err != nil {
			return err
		}
		p.LastSeen = lastSeen
		return setJSON(txn, participantKey(name), p)
	})
}

// ListInactive returns participants last seen before cutoff.
func (s *BadgerStore) ListInactive(ctx context.Context, cutoff int64) ([]models.Participant, error) {
	participants, err := s.ListParticipants(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Filter(participants, func(p models.Participant, _ int) bool {
		return p.InactiveSince(cutoff)
	}), nil
}

// RemoveInactive evicts stale participants and records their departures in one transaction.
func (s *BadgerStore) RemoveInactive(ctx context.Context, cutoff int64, departures []models.Message) ([]models.Message, error) {
	if len(departures) == 0 {
		return nil, nil
	}

	var written []models.Message
	err := s.update(ctx, func(txn *badger.Txn) error {
		written = written[:0]
		for _, msg := range departures {
			p, err := getParticipant(txn, msg.From)
			if errors.Is(err, ErrParticipantNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			// Refreshed since the sweep listed it.
			if !p.InactiveSince(cutoff) {
				continue
			}
			if err := txn.Delete(participantKey(p.Name)); err != nil {
				return err
			}
			if msg.ID, err = s.nextID(); err != nil {
				return err
			}
			if err := setJSON(txn, messageKey(msg.ID), msg); err != nil {
				return err
			}
			written = append(written, msg)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return written, nil
}

// CreateMessage appends a message to the room log.
func (s *BadgerStore) CreateMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	err := s.update(ctx, func(txn *badger.Txn) error {
		var err error
		if msg.ID, err = s.nextID(); err != nil {
			return err
		}
		return setJSON(txn, messageKey(msg.ID), msg)
	})
	if err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// ListVisibleMessages walks the log newest first so a limit stops the scan early.
func (s *BadgerStore) ListVisibleMessages(ctx context.Context, requester string, limit int) ([]models.Message, error) {
	msgs := []models.Message{}
	err := s.view(ctx, func(txn *badger.Txn) error {
		return scanPrefix(txn, messagePrefix, true, func(key, raw []byte) (bool, error) {
			var m models.Message
			if err := json.Unmarshal(raw, &m); err != nil {
				return false, err
			}
			id, err := strconv.ParseInt(strings.TrimPrefix(string(key), messagePrefix), 10, 64)
			if err != nil {
				return false, fmt.Errorf("message key %q: %w", key, err)
			}
			m.ID = id
			if m.VisibleTo(requester) {
				msgs = append(msgs, m)
			}
			return limit <= 0 || len(msgs) < limit, nil
		})
	})
	if err != nil {
		return nil, err
	}
	return lo.Reverse(msgs), nil
}

func (s *BadgerStore) nextID() (int64, error) {
	n, err := s.seq.Next()
	if err != nil {
		return 0, err
	}
	// Sequences start at zero; message ids start at one like BIGSERIAL.
	return int64(n) + 1, nil
}

func (s *BadgerStore) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < maxTxnAttempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

func (s *BadgerStore) view(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(fn)
}

func getParticipant(txn *badger.Txn, name string) (models.Participant, error) {
	item, err := txn.Get(participantKey(name))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return models.Participant{}, ErrParticipantNotFound
	}
	if err != nil {
		return models.Participant{}, err
	}
	var p models.Participant
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &p)
	})
	return p, err
}

// scanPrefix feeds each key/value under prefix to fn until fn returns false.
func scanPrefix(txn *badger.Txn, prefix string, reverse bool, fn func(key, raw []byte) (bool, error)) error {
	opts := badger.DefaultIteratorOptions
	opts.Reverse = reverse
	opts.Prefix = []byte(prefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	seek := []byte(prefix)
	if reverse {
		seek = append([]byte(prefix), 0xFF)
	}
	for it.Seek(seek); it.ValidForPrefix([]byte(prefix)); it.Next() {
		item := it.Item()
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		more, err := fn(item.KeyCopy(nil), raw)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
	return nil
}

func setJSON(txn *badger.Txn, key []byte, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set(key, raw)
}

func participantKey(name string) []byte {
	return []byte(participantPrefix + name)
}

func messageKey(id int64) []byte {
	return []byte(fmt.Sprintf("%s%020d", messagePrefix, id))
}

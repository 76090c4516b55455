//go:generate go run go.uber.org/mock/mockgen -source=record.go -destination=../mocks/mock_record_repository.go -package=mocks
package repositories

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"pair-chat/domain"
	pcerrors "pair-chat/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	connectionPrefix   = "conn:"
	sessionPrefix      = "session:"
	sessionIndexPrefix = "sidx:"
	messagePrefix      = "msg:"
	// Upper bound of a 19 digit zero padded timestamp, used to seek from the newest key.
	newestTimestamp = "9999999999999999999"
)

type IRecordRepository interface {
	StoreConnection(record ConnectionRecord) error
	StoreSessionStart(session domain.Session) error
	StoreSessionEnd(id domain.SessionID, at time.Time) error
	StoreMessage(record MessageRecord) error
	Connections(limit int) ([]ConnectionRecord, error)
	RecentSessions(limit int) ([]SessionRecord, error)
	Session(id domain.SessionID) (SessionRecord, error)
	Messages(id domain.SessionID, limit int) ([]MessageRecord, error)
}

type ConnectionRecord struct {
	ID         uuid.UUID
	Kind       string
	ClientID   domain.ClientID
	SessionID  domain.SessionID
	Enrichment domain.Enrichment
	At         time.Time
}

type SessionRecord struct {
	ID           domain.SessionID
	Participants [2]domain.ClientID
	Enrichment   [2]domain.Enrichment
	StartedAt    time.Time
	EndedAt      *time.Time
}

type MessageRecord struct {
	ID        uuid.UUID
	SessionID domain.SessionID
	SenderID  domain.ClientID
	Text      string
	Lang      string
	At        time.Time
}

// RecordRepository keeps the connection, session and message log in BadgerDB.
// Values are protobuf encoded structpb.Struct documents.
//
// Keys:
//
//	conn:{ts}:{uuid}            one per connect, disconnect or replace
//	session:{id}                the session document, updated on end
//	sidx:{ts}:{id}              sessions by start time
//	msg:{session}:{ts}:{uuid}   messages of a session
//
// Timestamps are 19 digit zero padded UnixNano so lexicographic order is chronological.
type RecordRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewRecordRepository(db *badger.DB, log *slog.Logger) RecordRepository {
	return RecordRepository{db: db, log: log}
}

func (r RecordRepository) StoreConnection(record ConnectionRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	key := fmt.Sprintf("%s%019d:%s", connectionPrefix, record.At.UnixNano(), record.ID)
	value, err := encode(map[string]any{
		"id":         record.ID.String(),
		"kind":       record.Kind,
		"client_id":  string(record.ClientID),
		"session_id": string(record.SessionID),
		"enrichment": enrichmentMap(record.Enrichment),
		"at":         formatTime(record.At),
	})
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

// StoreSessionStart writes the session document and its time index in one transaction.
func (r RecordRepository) StoreSessionStart(session domain.Session) error {
	value, err := encode(sessionMap(SessionRecord{
		ID:           session.ID,
		Participants: session.Participants,
		Enrichment:   session.Enrichment,
		StartedAt:    session.StartedAt,
		EndedAt:      session.EndedAt,
	}))
	if err != nil {
		return err
	}
	indexKey := fmt.Sprintf("%s%019d:%s", sessionIndexPrefix, session.StartedAt.UnixNano(), session.ID)
	return r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(sessionKey(session.ID), value); err != nil {
			return err
		}
		return txn.Set([]byte(indexKey), []byte(session.ID))
	})
}

func (r RecordRepository) StoreSessionEnd(id domain.SessionID, at time.Time) error {
	return r.db.Update(func(txn *badger.Txn) error {
		record, err := readSession(txn, id)
		if err != nil {
			return err
		}
		record.EndedAt = &at
		value, err := encode(sessionMap(record))
		if err != nil {
			return err
		}
		return txn.Set(sessionKey(id), value)
	})
}

func (r RecordRepository) StoreMessage(record MessageRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	key := fmt.Sprintf("%s%s:%019d:%s", messagePrefix, record.SessionID, record.At.UnixNano(), record.ID)
	value, err := encode(map[string]any{
		"id":         record.ID.String(),
		"session_id": string(record.SessionID),
		"sender_id":  string(record.SenderID),
		"text":       record.Text,
		"lang":       record.Lang,
		"at":         formatTime(record.At),
	})
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

// Connections returns the newest connection records first.
func (r RecordRepository) Connections(limit int) ([]ConnectionRecord, error) {
	var records []ConnectionRecord
	err := r.scanNewest(connectionPrefix, limit, func(item *badger.Item) error {
		s, err := decodeItem(item)
		if err != nil {
			return err
		}
		record, err := toConnectionRecord(s)
		if err != nil {
			return err
		}
		records = append(records, record)
		return nil
	})
	return records, err
}

// RecentSessions returns the most recently started sessions first.
func (r RecordRepository) RecentSessions(limit int) ([]SessionRecord, error) {
	var records []SessionRecord
	err := r.db.View(func(txn *badger.Txn) error {
		var ids []domain.SessionID
		if err := scanNewestTxn(txn, sessionIndexPrefix, limit, func(item *badger.Item) error {
			return item.Value(func(v []byte) error {
				ids = append(ids, domain.SessionID(v))
				return nil
			})
		}); err != nil {
			return err
		}
		for _, id := range ids {
			record, err := readSession(txn, id)
			if err != nil {
				return err
			}
			records = append(records, record)
		}
		return nil
	})
	return records, err
}

func (r RecordRepository) Session(id domain.SessionID) (SessionRecord, error) {
	var record SessionRecord
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		record, err = readSession(txn, id)
		return err
	})
	return record, err
}

// Messages returns up to limit messages of a session, oldest first.
func (r RecordRepository) Messages(id domain.SessionID, limit int) ([]MessageRecord, error) {
	var records []MessageRecord
	prefix := []byte(fmt.Sprintf("%s%s:", messagePrefix, id))
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(records) == limit {
				r.log.Debug(fmt.Sprintf("Maximum of %d message reached", limit))
				break
			}
			s, err := decodeItem(it.Item())
			if err != nil {
				return err
			}
			record, err := toMessageRecord(s)
			if err != nil {
				return err
			}
			records = append(records, record)
		}
		return nil
	})
	return records, err
}

func (r RecordRepository) scanNewest(prefix string, limit int, fn func(item *badger.Item) error) error {
	return r.db.View(func(txn *badger.Txn) error {
		return scanNewestTxn(txn, prefix, limit, fn)
	})
}

// scanNewestTxn walks the keys of prefix from the newest timestamp backwards.
func scanNewestTxn(txn *badger.Txn, prefix string, limit int, fn func(item *badger.Item) error) error {
	options := badger.DefaultIteratorOptions
	options.Reverse = true
	it := txn.NewIterator(options)
	defer it.Close()

	prefixBytes := []byte(prefix)
	count := 0
	for it.Seek([]byte(prefix + newestTimestamp)); it.ValidForPrefix(prefixBytes); it.Next() {
		if limit > 0 && count == limit {
			break
		}
		if err := fn(it.Item()); err != nil {
			return err
		}
		count++
	}
	return nil
}

func readSession(txn *badger.Txn, id domain.SessionID) (SessionRecord, error) {
	item, err := txn.Get(sessionKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return SessionRecord{}, fmt.Errorf("%w: %s", pcerrors.ErrSessionNotFound, id)
	}
	if err != nil {
		return SessionRecord{}, err
	}
	s, err := decodeItem(item)
	if err != nil {
		return SessionRecord{}, err
	}
	return toSessionRecord(s)
}

func sessionKey(id domain.SessionID) []byte {
	return []byte(sessionPrefix + string(id))
}

func encode(fields map[string]any) ([]byte, error) {
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(s)
}

func decodeItem(item *badger.Item) (*structpb.Struct, error) {
	var s structpb.Struct
	err := item.Value(func(v []byte) error {
		return proto.Unmarshal(v, &s)
	})
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", item.Key(), err)
	}
	return &s, nil
}

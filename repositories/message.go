//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"fmt"
	"log/slog"
	"remind-lab/domain"
	"remind-lab/domain/mimetypes"
	"remind-lab/errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IMessageRepository interface {
	StoreMessage(message domain.StoredMessage) error
	GetMessage(id uuid.UUID) (domain.StoredMessage, error)
	MarkProcessed(id uuid.UUID, cmd domain.Command, reply string) error
	GetMessages(phone string, cursor *string) ([]domain.StoredMessage, *string, error)
}

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) MessageRepository {
	return MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

type diskMessage struct {
	ID             string           `json:"id"`
	Phone          string           `json:"phone"`
	Text           string           `json:"text"`
	ReceivedAt     int64            `json:"received_at"`
	AttachmentURL  string           `json:"attachment_url,omitempty"`
	AttachmentMIME mimetypes.MIME   `json:"attachment_mime,omitempty"`
	AttachmentKind mimetypes.Kind   `json:"attachment_kind,omitempty"`
	Processed      bool             `json:"processed"`
	Intent         domain.Intent    `json:"intent,omitempty"`
	Sentiment      domain.Sentiment `json:"sentiment,omitempty"`
	Language       domain.Language  `json:"language,omitempty"`
	Reply          string           `json:"reply,omitempty"`
}

// StoreMessage persists a message under "msg:{phone}:{timestamp_padded}:{uuid}".
// The 19-digit padding keeps keys of one phone in chronological order and the
// uuid separates two messages received at the same nanosecond.
// "msg_all:" mirrors the same order across phones and "msg_id:" resolves an id
// to its primary key.
func (m MessageRepository) StoreMessage(message domain.StoredMessage) error {
	suffix := fmt.Sprintf("%019d:%s", message.ReceivedAt.UnixNano(), message.ID)
	key := fmt.Sprintf("msg:%s:%s", message.Phone, suffix)
	return m.db.Update(func(txn *badger.Txn) error {
		if err := writeJSON(txn, key, fromStoredMessage(message)); err != nil {
			return err
		}
		if err := txn.Set([]byte("msg_all:"+suffix), []byte(key)); err != nil {
			return err
		}
		return txn.Set([]byte(fmt.Sprintf("msg_id:%s", message.ID)), []byte(key))
	})
}

func (m MessageRepository) GetMessage(id uuid.UUID) (domain.StoredMessage, error) {
	var message domain.StoredMessage
	err := m.db.View(func(txn *badger.Txn) error {
		key, err := primaryKey(txn, id)
		if err != nil {
			return err
		}
		var disk diskMessage
		if _, err := readJSON(txn, key, &disk); err != nil {
			return err
		}
		message, err = toStoredMessage(disk)
		return err
	})
	return message, err
}

// MarkProcessed attaches the analysis outcome to a stored message.
func (m MessageRepository) MarkProcessed(id uuid.UUID, cmd domain.Command, reply string) error {
	return m.db.Update(func(txn *badger.Txn) error {
		key, err := primaryKey(txn, id)
		if err != nil {
			return err
		}
		var disk diskMessage
		if _, err := readJSON(txn, key, &disk); err != nil {
			return err
		}
		disk.Processed = true
		disk.Intent = cmd.Intent
		disk.Sentiment = cmd.Sentiment
		disk.Language = cmd.Language
		disk.Reply = reply
		return writeJSON(txn, key, disk)
	})
}

// GetMessages walks the messages of a phone (every phone when empty) from the
// newest to the oldest. The returned cursor resumes right after the last message.
// It stops collecting messages once the configured limitMessages is reached.
func (m MessageRepository) GetMessages(phone string, cursor *string) ([]domain.StoredMessage, *string, error) {
	var messages []domain.StoredMessage
	var lastKey string

	prefix := fmt.Sprintf("msg:%s:", phone)
	indexed := phone == ""
	if indexed {
		prefix = "msg_all:"
	}

	err := m.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			// Highest possible timestamp, then walk backwards.
			seekKey = []byte(prefix + "9999999999999999999")
		default:
			seekKey = []byte(prefix + *cursor)
		}

		it.Seek(seekKey)
		if cursor != nil && it.ValidForPrefix([]byte(prefix)) {
			it.Next()
		}

		for ; it.ValidForPrefix([]byte(prefix)); it.Next() {
			if m.limitMessages != nil && len(messages) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d message reached", *m.limitMessages))
				break
			}
			item := it.Item()
			lastKey = string(item.Key()[len(prefix):])

			var disk diskMessage
			var err error
			if indexed {
				var primary []byte
				if primary, err = item.ValueCopy(nil); err != nil {
					return err
				}
				_, err = readJSON(txn, string(primary), &disk)
			} else {
				err = item.Value(func(val []byte) error { return unmarshal(val, &disk) })
			}
			if err != nil {
				return err
			}
			message, err := toStoredMessage(disk)
			if err != nil {
				return err
			}
			messages = append(messages, message)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return messages, &lastKey, nil
}

func primaryKey(txn *badger.Txn, id uuid.UUID) (string, error) {
	item, err := txn.Get([]byte(fmt.Sprintf("msg_id:%s", id)))
	if err == badger.ErrKeyNotFound {
		return "", fmt.Errorf("%w: %s", errors.ErrMessageNotFound, id)
	}
	if err != nil {
		return "", err
	}
	key, err := item.ValueCopy(nil)
	return string(key), err
}

func fromStoredMessage(message domain.StoredMessage) diskMessage {
	disk := diskMessage{
		ID:         message.ID.String(),
		Phone:      message.Phone,
		Text:       message.Text,
		ReceivedAt: message.ReceivedAt.UnixNano(),
		Processed:  message.Processed,
		Intent:     message.Intent,
		Sentiment:  message.Sentiment,
		Language:   message.Language,
		Reply:      message.Reply,
	}
	if a := message.Attachment; a != nil {
		disk.AttachmentURL = a.URL
		disk.AttachmentMIME = a.MIME
		disk.AttachmentKind = a.Kind
	}
	return disk
}

func toStoredMessage(disk diskMessage) (domain.StoredMessage, error) {
	parsedID, err := uuid.Parse(disk.ID)
	if err != nil {
		return domain.StoredMessage{}, err
	}
	message := domain.StoredMessage{
		RawMessage: domain.RawMessage{
			ID:         parsedID,
			Phone:      disk.Phone,
			Text:       disk.Text,
			ReceivedAt: time.Unix(0, disk.ReceivedAt).UTC(),
		},
		Processed: disk.Processed,
		Intent:    disk.Intent,
		Sentiment: disk.Sentiment,
		Language:  disk.Language,
		Reply:     disk.Reply,
	}
	if disk.AttachmentURL != "" {
		message.Attachment = &domain.Attachment{
			URL:  disk.AttachmentURL,
			MIME: disk.AttachmentMIME,
			Kind: disk.AttachmentKind,
		}
	}
	return message, nil
}

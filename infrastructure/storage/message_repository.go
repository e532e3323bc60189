package storage

import (
	goerrors "errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/dgraph-io/badger/v4"

	"group-chat/domain/chat"
	"group-chat/errors"
)

type IMessageRepository interface {
	Append(message chat.Message) (chat.Message, error)
	Get(group chat.GroupID, seq chat.Sequence) (chat.Message, error)
	Head(group chat.GroupID) (chat.Sequence, error)
	After(group chat.GroupID, after chat.Sequence, limit int) ([]chat.Message, error)
	Before(group chat.GroupID, before chat.Sequence, limit int) ([]chat.Message, error)
}

type MessageRepository struct {
	db              *badger.DB
	log             *slog.Logger
	conflictRetries int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) *MessageRepository {
	return &MessageRepository{db: db, log: log, conflictRetries: defaultConflictRetries}
}

// Append assigns the next sequence of the group and persists the message
// together with the sender's own read receipt and the group's last message.
// Callers serialize appends per group, the conflict retry only covers
// writers that bypass that lock.
func (r *MessageRepository) Append(message chat.Message) (chat.Message, error) {
	var stored chat.Message
	err := updateWithRetry(r.db, r.conflictRetries, func(txn *badger.Txn) error {
		head, err := readSequence(txn, message.Group)
		if err != nil {
			return err
		}
		stored = message
		stored.Seq = head + 1
		stored.ID = stored.Seq.MessageID()
		stored.DeliveredTo = chat.NewIdentitySet()
		stored.ReadBy = chat.NewIdentitySet(message.SenderID)

		if err := txn.Set(messageKey(stored.Group, stored.Seq), encodeMessage(stored)); err != nil {
			return err
		}
		if err := txn.Set(sequenceKey(stored.Group), encodeSequence(stored.Seq)); err != nil {
			return err
		}
		key := receiptKey(stored.Group, stored.Seq, chat.Read, stored.SenderID)
		if err := txn.Set(key, encodeReceiptTime(stored.CreatedAt)); err != nil {
			return err
		}
		return touchLastMessage(txn, stored)
	})
	if err != nil {
		return chat.Message{}, unavailable(err)
	}
	r.log.Debug("Message appended", "group", stored.Group, "seq", stored.Seq)
	return stored, nil
}

func (r *MessageRepository) Get(group chat.GroupID, seq chat.Sequence) (chat.Message, error) {
	var message chat.Message
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(messageKey(group, seq))
		if goerrors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s in %s", errors.ErrMessageNotFound, seq.MessageID(), group)
		}
		if err != nil {
			return err
		}
		if err := item.Value(func(v []byte) error {
			message, err = decodeMessage(v)
			return err
		}); err != nil {
			return err
		}
		return loadReceipts(txn, &message)
	})
	if err != nil {
		return chat.Message{}, unavailable(err)
	}
	return message, nil
}

// Head returns the highest sequence assigned in the group, zero when empty.
func (r *MessageRepository) Head(group chat.GroupID) (chat.Sequence, error) {
	var head chat.Sequence
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		head, err = readSequence(txn, group)
		return err
	})
	return head, unavailable(err)
}

// After returns up to limit messages strictly after the given sequence, oldest first.
func (r *MessageRepository) After(group chat.GroupID, after chat.Sequence, limit int) ([]chat.Message, error) {
	if limit <= 0 {
		return nil, nil
	}
	return r.scan(group, messageKey(group, after+1), false, limit)
}

// Before returns the limit newest messages strictly before the given
// sequence, in ascending order. Zero means "before the end of the log".
func (r *MessageRepository) Before(group chat.GroupID, before chat.Sequence, limit int) ([]chat.Message, error) {
	if limit <= 0 || before == 1 {
		return nil, nil
	}
	seek := append(messagesOf(group), maxPaddedSequence...)
	if before > 1 {
		seek = messageKey(group, before-1)
	}
	messages, err := r.scan(group, seek, true, limit)
	if err != nil {
		return nil, err
	}
	slices.Reverse(messages)
	return messages, nil
}

func (r *MessageRepository) scan(group chat.GroupID, seek []byte, reverse bool, limit int) ([]chat.Message, error) {
	var messages []chat.Message
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := messagesOf(group)
		if err := func() error {
			opts := badger.DefaultIteratorOptions
			opts.Reverse = reverse
			opts.Prefix = prefix
			opts.PrefetchSize = limit
			it := txn.NewIterator(opts)
			defer it.Close()

			for it.Seek(seek); it.ValidForPrefix(prefix) && len(messages) < limit; it.Next() {
				err := it.Item().Value(func(v []byte) error {
					m, err := decodeMessage(v)
					if err != nil {
						return err
					}
					messages = append(messages, m)
					return nil
				})
				if err != nil {
					return err
				}
			}
			return nil
		}(); err != nil {
			return err
		}

		for i := range messages {
			if err := loadReceipts(txn, &messages[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, unavailable(err)
	}
	return messages, nil
}

func readSequence(txn *badger.Txn, group chat.GroupID) (chat.Sequence, error) {
	item, err := txn.Get(sequenceKey(group))
	if goerrors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var seq chat.Sequence
	err = item.Value(func(v []byte) error {
		seq, err = decodeSequence(v)
		return err
	})
	return seq, err
}

// loadReceipts fills the delivered and read sets from the receipt keys of the message.
func loadReceipts(txn *badger.Txn, m *chat.Message) error {
	m.DeliveredTo = chat.NewIdentitySet()
	m.ReadBy = chat.NewIdentitySet()

	prefix := receiptsOf(m.Group, m.Seq)
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		kind, user, ok := receiptFromKey(it.Item().Key(), prefix)
		if !ok {
			continue
		}
		switch kind {
		case chat.Delivered:
			m.DeliveredTo.Add(user)
		case chat.Read:
			m.ReadBy.Add(user)
		}
	}
	return nil
}

// touchLastMessage refreshes the denormalized last message of the group record.
func touchLastMessage(txn *badger.Txn, m chat.Message) error {
	group := chat.Group{ID: m.Group}
	item, err := txn.Get(groupKey(m.Group))
	switch {
	case err == nil:
		if err := item.Value(func(v []byte) error {
			group, err = decodeGroup(v)
			return err
		}); err != nil {
			return err
		}
	case !goerrors.Is(err, badger.ErrKeyNotFound):
		return err
	}
	if group.LastMessage != nil && group.LastMessage.Seq >= m.Seq {
		return nil
	}
	last := chat.NewLastMessage(m)
	group.LastMessage = &last
	return txn.Set(groupKey(m.Group), encodeGroup(group))
}

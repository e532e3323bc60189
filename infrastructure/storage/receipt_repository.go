package storage

import (
	goerrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"

	"group-chat/domain/chat"
	"group-chat/errors"
)

type IReceiptRepository interface {
	Add(group chat.GroupID, seqs []chat.Sequence, kind chat.ReceiptKind, user chat.UserID) ([]chat.Sequence, error)
	CountUnread(group chat.GroupID, user chat.UserID) (int, error)
}

// ReceiptRepository stores one key per (message, kind, recipient).
// Writing a receipt never rewrites a shared value, so concurrent
// acknowledgements from different recipients cannot overwrite each other.
type ReceiptRepository struct {
	db              *badger.DB
	log             *slog.Logger
	conflictRetries int
	now             func() time.Time
}

func NewReceiptRepository(db *badger.DB, log *slog.Logger) *ReceiptRepository {
	return &ReceiptRepository{
		db:              db,
		log:             log,
		conflictRetries: defaultConflictRetries,
		now:             time.Now,
	}
}

// Add records the receipts in a single transaction and returns the
// sequences whose set actually grew. An unknown sequence aborts the batch.
func (r *ReceiptRepository) Add(group chat.GroupID, seqs []chat.Sequence, kind chat.ReceiptKind, user chat.UserID) ([]chat.Sequence, error) {
	var changed []chat.Sequence
	at := r.now().UTC()
	err := updateWithRetry(r.db, r.conflictRetries, func(txn *badger.Txn) error {
		changed = changed[:0]
		for _, seq := range lo.Uniq(seqs) {
			if _, err := txn.Get(messageKey(group, seq)); err != nil {
				if goerrors.Is(err, badger.ErrKeyNotFound) {
					return fmt.Errorf("%w: %s in %s", errors.ErrMessageNotFound, seq.MessageID(), group)
				}
				return err
			}
			key := receiptKey(group, seq, kind, user)
			_, err := txn.Get(key)
			switch {
			case err == nil:
				continue
			case !goerrors.Is(err, badger.ErrKeyNotFound):
				return err
			}
			if err := txn.Set(key, encodeReceiptTime(at)); err != nil {
				return err
			}
			changed = append(changed, seq)
		}
		return nil
	})
	if err != nil {
		return nil, unavailable(err)
	}
	return changed, nil
}

// CountUnread counts the messages of the group without a read receipt from user.
func (r *ReceiptRepository) CountUnread(group chat.GroupID, user chat.UserID) (int, error) {
	unread := 0
	err := r.db.View(func(txn *badger.Txn) error {
		var seqs []chat.Sequence
		prefix := messagesOf(group)
		if err := func() error {
			opts := badger.DefaultIteratorOptions
			opts.PrefetchValues = false
			opts.Prefix = prefix
			it := txn.NewIterator(opts)
			defer it.Close()

			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				seq, err := sequenceFromKey(it.Item().Key(), prefix)
				if err != nil {
					return err
				}
				seqs = append(seqs, seq)
			}
			return nil
		}(); err != nil {
			return err
		}

		for _, seq := range seqs {
			_, err := txn.Get(receiptKey(group, seq, chat.Read, user))
			switch {
			case goerrors.Is(err, badger.ErrKeyNotFound):
				unread++
			case err != nil:
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, unavailable(err)
	}
	return unread, nil
}

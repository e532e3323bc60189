package storage

import (
	goerrors "errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"group-chat/errors"
)

const defaultConflictRetries = 8

// OpenBadger opens the database at dir, or an in-memory one when dir is empty.
func OpenBadger(dir string, log *slog.Logger) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	log.Info("Badger opened", "dir", dir, "in_memory", dir == "")
	return db, nil
}

// updateWithRetry runs fn in a read-write transaction and replays it when
// badger reports a conflict with a concurrent commit.
func updateWithRetry(db *badger.DB, retries int, fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt <= retries; attempt++ {
		if err = db.Update(fn); !goerrors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

// unavailable wraps storage failures, domain errors are returned as is.
func unavailable(err error) error {
	switch {
	case err == nil:
		return nil
	case goerrors.Is(err, errors.ErrMessageNotFound),
		goerrors.Is(err, errors.ErrGroupNotFound),
		goerrors.Is(err, errors.ErrEndpointNotFound),
		goerrors.Is(err, errors.ErrNotMember),
		goerrors.Is(err, errors.ErrInvalidCursor),
		goerrors.Is(err, errors.ErrStoreUnavailable):
		return err
	default:
		return fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
}

package chat

import (
	"fmt"
	"strconv"

	"group-chat/errors"
)

type GroupID string
type UserID string

// Sequence is the per-group arrival order assigned by the message store.
// The first message of a group gets 1, zero means "before everything".
type Sequence uint64

// MessageID is the public identifier of a message inside its group.
type MessageID string

func (s Sequence) MessageID() MessageID {
	return MessageID(strconv.FormatUint(uint64(s), 10))
}

func (s Sequence) Cursor() Cursor {
	return Cursor(fmt.Sprintf("%020d", uint64(s)))
}

func ParseMessageID(id MessageID) (Sequence, error) {
	seq, err := strconv.ParseUint(string(id), 10, 64)
	if err != nil || seq == 0 {
		return 0, fmt.Errorf("%w: %q", errors.ErrMessageNotFound, id)
	}
	return Sequence(seq), nil
}

// Cursor is an opaque, server-assigned position in a group log.
// Two cursors are equal exactly when they designate the same message.
type Cursor string

func ParseCursor(raw string) (Cursor, error) {
	if len(raw) != 20 {
		return "", fmt.Errorf("%w: %q", errors.ErrInvalidCursor, raw)
	}
	if _, err := strconv.ParseUint(raw, 10, 64); err != nil {
		return "", fmt.Errorf("%w: %q", errors.ErrInvalidCursor, raw)
	}
	return Cursor(raw), nil
}

// Sequence returns the position designated by the cursor, zero when malformed.
func (c Cursor) Sequence() Sequence {
	seq, err := strconv.ParseUint(string(c), 10, 64)
	if err != nil {
		return 0
	}
	return Sequence(seq)
}

func (c Cursor) String() string {
	return string(c)
}

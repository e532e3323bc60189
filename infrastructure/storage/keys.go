package storage

import (
	"bytes"
	"fmt"
	"strconv"

	"group-chat/domain/chat"
)

// Key layout. Sequences are zero padded to 20 digits so that the
// lexicographical order of badger keys is the arrival order.
//
//	grp:{group}                           group record
//	seq:{group}                           last assigned sequence
//	msg:{group}:{seq}                     message record
//	rcpt:{group}:{seq}:{d|r}:{user}       receipt, value is the ack time
//	usr:{user}                            profile
//	ept:{user}:{endpoint}                 push endpoint
const (
	groupPrefix    = "grp:"
	sequencePrefix = "seq:"
	messagePrefix  = "msg:"
	receiptPrefix  = "rcpt:"
	profilePrefix  = "usr:"
	endpointPrefix = "ept:"
)

// maxPaddedSequence sorts after every real message key of a group.
const maxPaddedSequence = "99999999999999999999"

func groupKey(group chat.GroupID) []byte {
	return []byte(groupPrefix + string(group))
}

func sequenceKey(group chat.GroupID) []byte {
	return []byte(sequencePrefix + string(group))
}

func messagesOf(group chat.GroupID) []byte {
	return []byte(messagePrefix + string(group) + ":")
}

func messageKey(group chat.GroupID, seq chat.Sequence) []byte {
	return []byte(fmt.Sprintf("%s%s:%020d", messagePrefix, group, uint64(seq)))
}

func receiptsOf(group chat.GroupID, seq chat.Sequence) []byte {
	return []byte(fmt.Sprintf("%s%s:%020d:", receiptPrefix, group, uint64(seq)))
}

func receiptKey(group chat.GroupID, seq chat.Sequence, kind chat.ReceiptKind, user chat.UserID) []byte {
	return []byte(fmt.Sprintf("%s%s:%020d:%s:%s", receiptPrefix, group, uint64(seq), kind, user))
}

func profileKey(user chat.UserID) []byte {
	return []byte(profilePrefix + string(user))
}

func endpointsOf(user chat.UserID) []byte {
	return []byte(endpointPrefix + string(user) + ":")
}

func endpointKey(user chat.UserID, endpointID string) []byte {
	return []byte(endpointPrefix + string(user) + ":" + endpointID)
}

// sequenceFromKey parses the padded sequence that follows prefix.
func sequenceFromKey(key, prefix []byte) (chat.Sequence, error) {
	if !bytes.HasPrefix(key, prefix) {
		return 0, fmt.Errorf("key %q does not start with %q", key, prefix)
	}
	raw := key[len(prefix):]
	if len(raw) > 20 {
		raw = raw[:20]
	}
	seq, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed sequence in key %q: %w", key, err)
	}
	return chat.Sequence(seq), nil
}

// receiptFromKey splits the "{d|r}:{user}" suffix of a receipt key.
func receiptFromKey(key, prefix []byte) (chat.ReceiptKind, chat.UserID, bool) {
	if !bytes.HasPrefix(key, prefix) {
		return "", "", false
	}
	suffix := key[len(prefix):]
	if len(suffix) < 3 || suffix[1] != ':' {
		return "", "", false
	}
	return chat.ReceiptKind(suffix[:1]), chat.UserID(suffix[2:]), true
}

package storage

import (
	"fmt"
	"strings"
	"time"

	"google.golang.org/protobuf/encoding/protowire"
)

// DescribeEntry decodes a raw badger entry into a type and a one line detail
// for debugging tools. Values that fail to decode are reported, never returned as errors.
func DescribeEntry(key string, val []byte) (string, string) {
	switch {
	case strings.HasPrefix(key, groupPrefix):
		g, err := decodeGroup(val)
		if err != nil {
			return "GROUP", err.Error()
		}
		detail := fmt.Sprintf("%q members=%v", g.Name, g.Members)
		if g.LastMessage != nil {
			detail += fmt.Sprintf(" last=#%d %s: %s", g.LastMessage.Seq, g.LastMessage.SenderID, g.LastMessage.Snippet)
		}
		return "GROUP", detail
	case strings.HasPrefix(key, sequencePrefix):
		seq, err := decodeSequence(val)
		if err != nil {
			return "SEQUENCE", err.Error()
		}
		return "SEQUENCE", fmt.Sprintf("head=%d", seq)
	case strings.HasPrefix(key, messagePrefix):
		m, err := decodeMessage(val)
		if err != nil {
			return "MESSAGE", err.Error()
		}
		return "MESSAGE", fmt.Sprintf("%s %s: %s", m.CreatedAt.Format(time.RFC3339), m.SenderID, m.Body.Summary())
	case strings.HasPrefix(key, receiptPrefix):
		at, n := protowire.ConsumeVarint(val)
		if n < 0 {
			return "RECEIPT", "malformed time"
		}
		return "RECEIPT", fromUnixNano(at).Format(time.RFC3339)
	case strings.HasPrefix(key, profilePrefix):
		p, err := decodeProfile(val)
		if err != nil {
			return "PROFILE", err.Error()
		}
		return "PROFILE", p.DisplayName
	case strings.HasPrefix(key, endpointPrefix):
		e, err := decodeEndpoint(val)
		if err != nil {
			return "ENDPOINT", err.Error()
		}
		return "ENDPOINT", fmt.Sprintf("%s %s", e.Platform, e.Token)
	default:
		return "RAW", fmt.Sprintf("Size: %d bytes", len(val))
	}
}

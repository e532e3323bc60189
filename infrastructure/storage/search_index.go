package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/blugelabs/bluge"

	"group-chat/domain/chat"
	"group-chat/errors"
)

const (
	searchGroupField = "group"
	searchSeqField   = "seq"
	searchTextField  = "text"
)

type ISearchIndex interface {
	Index(message chat.Message) error
	Search(ctx context.Context, group chat.GroupID, query string, limit int) ([]chat.Sequence, error)
}

// SearchIndex keeps a full text index of message bodies, one document per message.
type SearchIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

// OpenSearchIndex opens the index stored in dir, or an in-memory one when dir is empty.
func OpenSearchIndex(dir string, log *slog.Logger) (*SearchIndex, error) {
	config := bluge.InMemoryOnlyConfig()
	if dir != "" {
		config = bluge.DefaultConfig(dir)
	}
	writer, err := bluge.OpenWriter(config)
	if err != nil {
		return nil, fmt.Errorf("%w: search index: %v", errors.ErrStoreUnavailable, err)
	}
	return NewSearchIndex(writer, log), nil
}

func NewSearchIndex(writer *bluge.Writer, log *slog.Logger) *SearchIndex {
	return &SearchIndex{writer: writer, log: log}
}

func (s *SearchIndex) Index(message chat.Message) error {
	text := searchableText(message.Body)
	if text == "" {
		return nil
	}
	doc := bluge.NewDocument(documentID(message.Group, message.Seq)).
		AddField(bluge.NewKeywordField(searchGroupField, string(message.Group))).
		AddField(bluge.NewKeywordField(searchSeqField, message.Cursor().String()).StoreValue()).
		AddField(bluge.NewTextField(searchTextField, text))
	if err := s.writer.Update(doc.ID(), doc); err != nil {
		return fmt.Errorf("%w: index message %s: %v", errors.ErrStoreUnavailable, message.ID, err)
	}
	return nil
}

// Search returns the sequences of the best matching messages of the group, best first.
func (s *SearchIndex) Search(ctx context.Context, group chat.GroupID, query string, limit int) ([]chat.Sequence, error) {
	reader, err := s.writer.Reader()
	if err != nil {
		return nil, fmt.Errorf("%w: search reader: %v", errors.ErrStoreUnavailable, err)
	}
	defer func() {
		if err := reader.Close(); err != nil {
			s.log.Warn("Unable to close search reader", "error", err)
		}
	}()

	q := bluge.NewBooleanQuery().
		AddMust(bluge.NewTermQuery(string(group)).SetField(searchGroupField)).
		AddMust(bluge.NewMatchQuery(query).SetField(searchTextField))
	matches, err := reader.Search(ctx, bluge.NewTopNSearch(limit, q))
	if err != nil {
		return nil, fmt.Errorf("%w: search: %v", errors.ErrStoreUnavailable, err)
	}

	var seqs []chat.Sequence
	match, err := matches.Next()
	for err == nil && match != nil {
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == searchSeqField {
				seqs = append(seqs, chat.Cursor(value).Sequence())
			}
			return true
		})
		if err != nil {
			break
		}
		match, err = matches.Next()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: search iteration: %v", errors.ErrStoreUnavailable, err)
	}
	return seqs, nil
}

func (s *SearchIndex) Close() error {
	return s.writer.Close()
}

func documentID(group chat.GroupID, seq chat.Sequence) string {
	return string(group) + ":" + seq.Cursor().String()
}

func searchableText(body chat.Body) string {
	parts := []string{strings.TrimSpace(body.Text)}
	if body.Expense != nil {
		parts = append(parts, body.Expense.Title)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

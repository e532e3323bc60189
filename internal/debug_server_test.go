package internal

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"group-chat/domain/chat"
	"group-chat/infrastructure/storage"
)

func TestDebugHandler(t *testing.T) {
	req := require.New(t)
	log := slog.Default()
	db, err := storage.OpenBadger("", log)
	req.NoError(err)
	defer db.Close()
	req.NoError(storage.NewDirectoryRepository(db, log).UpsertGroup(context.Background(), "flat", "Flat 3B", []chat.UserID{"alice"}))

	mapper := func(key string, val []byte) InspectRow {
		kind, detail := storage.DescribeEntry(key, val)
		return InspectRow{Key: key, Type: kind, Detail: detail}
	}
	stats := func() map[string]any { return map[string]any{"subscribers": 3} }
	server := httptest.NewServer(DebugHandler(log, db, mapper, stats))
	defer server.Close()

	get := func(path string) (int, string) {
		resp, err := http.Get(server.URL + path)
		req.NoError(err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		req.NoError(err)
		return resp.StatusCode, string(body)
	}

	code, body := get("/inspect")
	req.Equal(http.StatusOK, code)
	req.Contains(body, "grp:flat")
	req.Contains(body, "GROUP")
	req.Contains(body, "subscribers")

	code, body = get("/stats")
	req.Equal(http.StatusOK, code)
	req.JSONEq(`{"subscribers":3}`, body)

	code, _ = get("/metrics")
	req.Equal(http.StatusOK, code)
}

package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const defaultInspectLimit = 200

// InspectRow is one badger key as shown by the debug server and the inspect CLI.
type InspectRow struct {
	Key       string `json:"key"`
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
	EntityID  string `json:"entity_id"`
	Phone     string `json:"phone"`
	Detail    string `json:"detail"`
}

type RowMapper func(key string, val []byte) InspectRow

// Browse maps up to limit keys starting with prefix. Every key is listed when
// prefix is empty.
func Browse(db *badger.DB, prefix string, limit int, mapper RowMapper) ([]InspectRow, error) {
	if mapper == nil {
		mapper = DefaultMapper
	}
	if limit <= 0 {
		limit = defaultInspectLimit
	}
	var rows []InspectRow
	err := db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p) && len(rows) < limit; it.Next() {
			item := it.Item()
			key := string(item.Key())
			if err := item.Value(func(val []byte) error {
				rows = append(rows, mapper(key, val))
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	return rows, err
}

// NewDebugHandler serves GET endpoint?prefix=&limit= as JSON rows.
func NewDebugHandler(db *badger.DB, endpoint string, mapper RowMapper) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(endpoint, func(w http.ResponseWriter, r *http.Request) {
		limit := defaultInspectLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = n
		}
		rows, err := Browse(db, r.URL.Query().Get("prefix"), limit, mapper)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(rows)
	})
	return mux
}

// StartDebugServer exposes the key browser on every interface until ctx is done.
func StartDebugServer(ctx context.Context, db *badger.DB, port int, endpoint string, log *slog.Logger) {
	server := &http.Server{
		Addr:              fmt.Sprintf("0.0.0.0:%d", port),
		Handler:           NewDebugHandler(db, endpoint, DefaultMapper),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Debug server stopped", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		_ = server.Close()
	}()
}

// DefaultMapper knows the key layouts of the repositories:
//
//	msg:{phone}:{ts}:{id}              reminder_phone:{phone}:{ts}:{id}
//	msg_all:{ts}:{id}                  event:{calendar}:{ts}:{id}
//	msg_id:{id}  reminder:{id}  calendar_id:{id}
//	pref:{phone}  calendar:{phone}:{id}  daily:{kind}:{phone}:{date}
func DefaultMapper(key string, val []byte) InspectRow {
	parts := strings.Split(key, ":")
	row := InspectRow{
		Key:       key,
		Type:      strings.ToUpper(parts[0]),
		Timestamp: "--",
		EntityID:  "--------",
		Detail:    "Size: " + strconv.Itoa(len(val)) + " bytes",
	}
	switch {
	case len(parts) == 4 && (parts[0] == "msg" || parts[0] == "reminder_phone"):
		row.Phone = parts[1]
		row.Timestamp = nanosToClock(parts[2])
		row.EntityID = shortID(parts[3])
	case len(parts) == 4 && parts[0] == "event":
		row.Timestamp = nanosToClock(parts[2])
		row.EntityID = shortID(parts[3])
	case len(parts) == 3 && parts[0] == "msg_all":
		row.Timestamp = nanosToClock(parts[1])
		row.EntityID = shortID(parts[2])
	case len(parts) == 3 && parts[0] == "calendar":
		row.Phone = parts[1]
		row.EntityID = shortID(parts[2])
	case len(parts) == 4 && parts[0] == "daily":
		row.Phone = parts[2]
		row.Timestamp = parts[3]
		row.Detail = parts[1]
		return row
	case len(parts) == 2 && parts[0] == "pref":
		row.Phone = parts[1]
	case len(parts) == 2:
		row.EntityID = shortID(parts[1])
	}
	if detail, ok := summarize(val); ok {
		row.Detail = detail
	}
	return row
}

// summarize picks the most telling field of a JSON document; index values
// (plain keys) are shown as is.
func summarize(val []byte) (string, bool) {
	var doc map[string]any
	if err := json.Unmarshal(val, &doc); err != nil {
		if len(val) > 0 && len(val) < 256 {
			return string(val), true
		}
		return "", false
	}
	for _, field := range []string{"title", "text", "name", "timezone"} {
		if s, ok := doc[field].(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

func nanosToClock(raw string) string {
	ts, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return "--"
	}
	return time.Unix(0, ts).UTC().Format("2006-01-02 15:04:05")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

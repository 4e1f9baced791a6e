package main

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"remind-lab/domain"
	"remind-lab/repositories"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestKeysCommand(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()
	db, err := badger.Open(badger.DefaultOptions(dir).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	req.NoError(repositories.NewReminderRepository(db, slog.New(slog.DiscardHandler)).Create(domain.Reminder{
		ID: uuid.New(), Phone: "+34600000001", Title: "sacar al perro",
		Occurrence: time.Now().Add(time.Hour), CreatedAt: time.Now(),
	}))
	req.NoError(db.Close())

	t.Setenv("BADGER_FILEPATH", dir)
	t.Setenv("ANALYTICS_FILEPATH", filepath.Join(t.TempDir(), "analytics.db"))
	t.Setenv("INSPECT_COLOURS", "false")

	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"keys", "--prefix", "reminder"})
	req.NoError(cmd.Execute())
	req.Contains(out.String(), "sacar al perro")
	req.Contains(out.String(), "REMINDER_PHONE")

	out.Reset()
	cmd = rootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"analytics"})
	req.NoError(cmd.Execute())
	req.Contains(out.String(), "PHONE")
}

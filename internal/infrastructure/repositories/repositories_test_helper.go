package repositories

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "open sqlite")
	return db
}

func mustExec(t *testing.T, db *gorm.DB, q string, args ...interface{}) {
	t.Helper()
	require.NoError(t, db.Exec(q, args...).Error, "exec failed: query=%s", q)
}

func createVerificationRequestTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE verification_requests (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		status TEXT NOT NULL,
		telegram_status TEXT NOT NULL,
		telegram_error TEXT,
		telegram_message_id INTEGER,
		retry_count INTEGER NOT NULL DEFAULT 0,
		metadata TEXT DEFAULT '{}',
		charge_id TEXT,
		version INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func createChargeTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE charges (
		id TEXT PRIMARY KEY,
		code TEXT,
		request_id TEXT,
		owner_id TEXT,
		amount TEXT NOT NULL,
		currency TEXT NOT NULL,
		status TEXT NOT NULL,
		hosted_url TEXT,
		metadata TEXT DEFAULT '{}',
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func createChargeEventTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE charge_events (
		id TEXT PRIMARY KEY,
		charge_id TEXT NOT NULL,
		source TEXT NOT NULL,
		event_id TEXT,
		event_type TEXT NOT NULL,
		status TEXT NOT NULL,
		applied BOOLEAN NOT NULL DEFAULT 0,
		payload TEXT DEFAULT '{}',
		created_at DATETIME
	);`)
}

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
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "open sqlite")
	return db
}

func mustExec(t *testing.T, db *gorm.DB, q string, args ...interface{}) {
	t.Helper()
	require.NoError(t, db.Exec(q, args...).Error, "exec failed: query=%s", q)
}

func createUserTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		country TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		is_verified BOOLEAN NOT NULL DEFAULT 0,
		has_2fa BOOLEAN NOT NULL DEFAULT 0,
		referral_code TEXT NOT NULL UNIQUE,
		referred_by TEXT,
		role TEXT NOT NULL,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func createLedgerTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE ledger_entries (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		amount TEXT NOT NULL,
		method TEXT NOT NULL,
		status TEXT NOT NULL,
		external_ref TEXT UNIQUE,
		receipt_ref TEXT,
		address TEXT,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func createPositionTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE investment_positions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		plan_id TEXT NOT NULL,
		principal TEXT NOT NULL,
		daily_rate TEXT NOT NULL,
		duration_days INTEGER NOT NULL,
		expected_profit TEXT NOT NULL,
		start_date DATETIME NOT NULL,
		end_date DATETIME NOT NULL,
		status TEXT NOT NULL,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func createCardApplicationTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE card_applications (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		full_name TEXT NOT NULL,
		card_type TEXT NOT NULL,
		address TEXT NOT NULL,
		city TEXT NOT NULL,
		state TEXT,
		zip_code TEXT NOT NULL,
		country TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

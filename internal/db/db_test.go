package db

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/aurora-planner/aurora/internal/models"
)

func TestOpenAndMigrate_SQLite(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "aurora-test.db")
	conn, err := Open(dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if !IsSQLite(conn) {
		t.Fatalf("expected sqlite dialect, got %q", DialectName(conn))
	}
	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	// Running twice must be a no-op.
	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("second migrate: %v", errMigrate)
	}
	if !conn.Migrator().HasTable(&models.Document{}) {
		t.Fatalf("expected documents table")
	}
	if !conn.Migrator().HasTable(&models.User{}) {
		t.Fatalf("expected users table")
	}
}

func TestOpen_EmptyDSN(t *testing.T) {
	if _, err := Open("   "); err == nil {
		t.Fatalf("expected error for empty dsn")
	}
}

func TestJSONExtractTextExpr_SQLite(t *testing.T) {
	conn, err := Open("file:" + filepath.Join(t.TempDir(), "expr.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if got := JSONExtractTextExpr(conn, "data", "name"); got != "json_extract(data, '$.name')" {
		t.Fatalf("unexpected expression %q", got)
	}
	if got := CaseInsensitiveLikeExpr(conn, "x"); got != `LOWER(x) LIKE ? ESCAPE '\'` {
		t.Fatalf("unexpected like expression %q", got)
	}
	if got := NormalizeLikePattern(conn, "%ABC%"); got != "%abc%" {
		t.Fatalf("unexpected pattern %q", got)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	conn, err := Open("file:" + filepath.Join(t.TempDir(), "unique.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	first := models.User{ID: "u1", GoogleSub: "sub-1", CreatedAt: now, UpdatedAt: now}
	if errCreate := conn.Create(&first).Error; errCreate != nil {
		t.Fatalf("create: %v", errCreate)
	}
	dup := models.User{ID: "u2", GoogleSub: "sub-1", CreatedAt: now, UpdatedAt: now}
	errDup := conn.Create(&dup).Error
	if !IsUniqueViolation(errDup) {
		t.Fatalf("expected sqlite unique violation, got %v", errDup)
	}

	pgErr := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	if !IsUniqueViolation(pgErr) {
		t.Fatalf("expected postgres unique violation")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatalf("expected foreign key violation to be distinct")
	}
	if IsUniqueViolation(errors.New("connection reset")) || IsUniqueViolation(nil) {
		t.Fatalf("expected unrelated errors to be rejected")
	}
}

func TestEscapeLike(t *testing.T) {
	cases := map[string]string{
		"plain":   "plain",
		"50%":     `50\%`,
		"a_b":     `a\_b`,
		`back\sl`: `back\\sl`,
	}
	for in, want := range cases {
		if got := EscapeLike(in); got != want {
			t.Fatalf("EscapeLike(%q): expected %q, got %q", in, want, got)
		}
	}
}

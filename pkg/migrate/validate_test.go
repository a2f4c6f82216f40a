package migrate

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidateDirAcceptsShippedMigrations(t *testing.T) {
	if err := ValidateDir("migrations"); err != nil {
		t.Fatalf("shipped migrations should validate: %v", err)
	}
}

func TestValidateDirRejectsBadFilename(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "001_bad.sql")
	if err := os.WriteFile(path, []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := ValidateDir(dir); err == nil {
		t.Fatalf("expected filename validation error")
	}
}

func TestValidateDirRejectsMissingDownSection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "20260810090000_example.sql")
	if err := os.WriteFile(path, []byte("-- +goose Up\nCREATE TABLE t (id INT);\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := ValidateDir(dir); err == nil {
		t.Fatalf("expected missing down error")
	}
}

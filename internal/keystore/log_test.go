package keystore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLogCommitAndReopen(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "consumption.log")

	id, err := NewFileIdentity(filepath.Join(dir, "key.bin"))
	if err != nil {
		t.Fatalf("NewFileIdentity() error = %v", err)
	}

	l, err := OpenLog(logPath)
	if err != nil {
		t.Fatalf("OpenLog() error = %v", err)
	}
	if got := l.UsedRanges(id); len(got) != 0 {
		t.Fatalf("fresh log has ranges: %v", got)
	}

	if err := l.Commit(id, Range{Lo: 0, Hi: 100}, Range{Lo: 200, Hi: 300}); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	reopened, err := OpenLog(logPath)
	if err != nil {
		t.Fatalf("OpenLog() (reopen) error = %v", err)
	}
	got := reopened.UsedRanges(id)
	want := []Range{{Lo: 0, Hi: 100}, {Lo: 200, Hi: 300}}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("UsedRanges() after reopen = %v, want %v", got, want)
	}
}

func TestLogCommitIsAppendOnly(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "consumption.log")
	id, _ := NewFileIdentity(filepath.Join(dir, "key.bin"))

	l, err := OpenLog(logPath)
	if err != nil {
		t.Fatalf("OpenLog() error = %v", err)
	}

	if err := l.Commit(id, Range{Lo: 0, Hi: 10}); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if err := l.Commit(id, Range{Lo: 10, Hi: 20}); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	got := l.UsedRanges(id)
	if len(got) != 2 {
		t.Fatalf("UsedRanges() = %v, want 2 entries", got)
	}
}

func TestLogRejectsMalformedLine(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "consumption.log")
	if err := os.WriteFile(logPath, []byte("not a valid line\n"), 0o600); err != nil {
		t.Fatalf("os.WriteFile() error = %v", err)
	}
	if _, err := OpenLog(logPath); err == nil {
		t.Fatal("expected an error for a malformed consumption log")
	}
}

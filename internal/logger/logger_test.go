package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestLogFilePathDefaultsUnderWorkdir(t *testing.T) {
	tmpDir := t.TempDir()
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("get wd failed: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(oldWD) })
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}

	got, err := logFilePath(Options{})
	if err != nil {
		t.Fatalf("resolve default path failed: %v", err)
	}
	realTmp, _ := filepath.EvalSymlinks(tmpDir)
	realDir, _ := filepath.EvalSymlinks(filepath.Dir(got))
	if realDir != filepath.Join(realTmp, defaultDir) {
		t.Fatalf("unexpected log dir %s", realDir)
	}
	if filepath.Base(got) != defaultFilename {
		t.Fatalf("unexpected log filename %s", filepath.Base(got))
	}
}

func TestReleaseWritesJSONWithServiceField(t *testing.T) {
	tmpDir := t.TempDir()
	log := New("release", Options{Dir: tmpDir, Filename: "release.log", Service: "ordercore"})
	log.Sugar().Infow("order_created", "order_number", "ORD-20261019-0001")
	_ = log.Sync()

	raw, err := os.ReadFile(filepath.Join(tmpDir, "release.log"))
	if err != nil {
		t.Fatalf("read release log failed: %v", err)
	}
	line := strings.TrimSpace(strings.Split(string(raw), "\n")[0])
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("release log is not json: %v (%s)", err, line)
	}
	if entry["message"] != "order_created" || entry["service"] != "ordercore" || entry["order_number"] != "ORD-20261019-0001" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestReleaseHonoursLevelOverride(t *testing.T) {
	tmpDir := t.TempDir()
	log := New("release", Options{Dir: tmpDir, Filename: "warn.log", Level: "warn"})
	log.Info("grace_sweep_done")
	log.Warn("grace_sweep_failed")
	_ = log.Sync()

	raw, err := os.ReadFile(filepath.Join(tmpDir, "warn.log"))
	if err != nil {
		t.Fatalf("read log failed: %v", err)
	}
	if strings.Contains(string(raw), "grace_sweep_done") {
		t.Fatalf("info entry should be filtered at warn level")
	}
	if !strings.Contains(string(raw), "grace_sweep_failed") {
		t.Fatalf("warn entry missing: %s", raw)
	}
}

func TestDebugDoesNotCreateFile(t *testing.T) {
	tmpDir := t.TempDir()
	log := New("debug", Options{Dir: tmpDir, Filename: "debug.log"})
	log.Info("debug-entry")
	_ = log.Sync()

	if _, err := os.Stat(filepath.Join(tmpDir, "debug.log")); !os.IsNotExist(err) {
		t.Fatalf("debug mode should not create a log file")
	}
}

func TestResolveLevel(t *testing.T) {
	cases := []struct {
		debug bool
		raw   string
		want  zap.AtomicLevel
	}{
		{true, "", zap.NewAtomicLevelAt(zap.DebugLevel)},
		{false, "", zap.NewAtomicLevelAt(zap.InfoLevel)},
		{false, "error", zap.NewAtomicLevelAt(zap.ErrorLevel)},
		{true, "bogus", zap.NewAtomicLevelAt(zap.DebugLevel)},
	}
	for _, tc := range cases {
		if got := resolveLevel(tc.debug, tc.raw); got.Level() != tc.want.Level() {
			t.Fatalf("resolveLevel(%v, %q) = %s, want %s", tc.debug, tc.raw, got.Level(), tc.want.Level())
		}
	}
}

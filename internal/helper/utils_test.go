package helper

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestGenerateUUID(t *testing.T) {
	a, err := GenerateUUID()
	if err != nil {
		t.Fatalf("GenerateUUID() failed: %v", err)
	}
	b, _ := GenerateUUID()
	if a == b {
		t.Error("two UUIDs should differ")
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Errorf("GenerateUUID() = %q is not a UUID: %v", a, err)
	}
}

func TestPrettyPrint(t *testing.T) {
	var buf bytes.Buffer
	PrettyPrint(&buf, map[string]int{"chunks": 3})
	want := "{\n  \"chunks\": 3\n}\n"
	if buf.String() != want {
		t.Errorf("PrettyPrint() wrote %q, want %q", buf.String(), want)
	}
}

func TestCreateFolder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b")
	if err := CreateFolder(path); err != nil {
		t.Fatalf("CreateFolder() failed: %v", err)
	}
	if fi, err := os.Stat(path); err != nil || !fi.IsDir() {
		t.Fatalf("folder not created: %v", err)
	}
	if err := CreateFolder(path); err != nil {
		t.Errorf("CreateFolder() on existing folder = %v, want nil", err)
	}
}

func TestSetupLogger(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	var buf bytes.Buffer
	SetupLogger(&buf, "warn", true)
	if zerolog.GlobalLevel() != zerolog.WarnLevel {
		t.Errorf("GlobalLevel = %v, want warn", zerolog.GlobalLevel())
	}
	log.Info().Msg("hidden")
	log.Warn().Str("stage", "extract").Msg("visible")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info message should be filtered at warn level")
	}
	if !strings.Contains(out, `"stage":"extract"`) {
		t.Errorf("JSON output missing field: %s", out)
	}

	SetupLogger(&buf, "bogus", false)
	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Errorf("GlobalLevel = %v, want info for unknown level", zerolog.GlobalLevel())
	}
}

package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewFallsBackToInfo(t *testing.T) {
	l := New("not-a-level")
	if l.GetLevel() != logrus.InfoLevel {
		t.Fatalf("expected info level, got %v", l.GetLevel())
	}
	if New("debug").GetLevel() != logrus.DebugLevel {
		t.Fatalf("expected debug level")
	}
}

func TestNewDefaultTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	root.SetOutput(&buf)
	defer root.SetOutput(os.Stderr)

	NewDefault("walk").WithField("walk_id", "walk-1").Info("started")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected json log line: %v", err)
	}
	if line["component"] != "walk" || line["walk_id"] != "walk-1" {
		t.Fatalf("unexpected fields: %v", line)
	}
}

func TestSetLevelIgnoresInvalid(t *testing.T) {
	SetLevel("warn")
	defer SetLevel("info")
	SetLevel("bogus")
	if root.GetLevel() != logrus.WarnLevel {
		t.Fatalf("expected level to stay at warn")
	}
}

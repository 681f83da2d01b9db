package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}
}

func TestLoggerText(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithWriter(&buf)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	Named("trainer").Info(context.Background(), "fold done", Int("fold", 2), Float64("ndcg@10", 0.81))

	out := buf.String()
	for _, want := range []string{"fold done", "component=trainer", "fold=2", "ndcg@10=0.81", "source=logger_test.go"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q does not contain %q", out, want)
		}
	}
}

func TestLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(WithWriter(&buf), WithJSON(true))
	SetLevel(0)

	log.Warn(context.Background(), "degraded", Strings("features", []string{"q_pos_best"}), Error(errors.New("boom")))

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("not a JSON line: %v: %q", err, buf.String())
	}
	if line["msg"] != "degraded" || line["level"] != "WARN" {
		t.Errorf("unexpected record: %v", line)
	}
}

func TestSetLevelString(t *testing.T) {
	var buf bytes.Buffer
	log := New(WithWriter(&buf))

	if err := SetLevelString("error"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	log.Info(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Errorf("info logged at error level: %q", buf.String())
	}

	if err := SetLevelString("verbose"); err == nil {
		t.Error("expected an error for an unknown level")
	}
	if err := SetLevelString("info"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

package logger

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
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

func TestLoggerJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithFormat(FormatJSON, &buf); err != nil {
		t.Fatalf("failed to initialize json logger: %v", err)
	}
	defer func() { _ = Init() }()

	Get().Info(context.Background(), "snapshot stored", String("dataset", "target"), Int("records", 26))

	out := buf.String()
	if !strings.Contains(out, `"msg":"snapshot stored"`) {
		t.Fatalf("expected json message, got %q", out)
	}
	if !strings.Contains(out, `"records":26`) {
		t.Fatalf("expected records field, got %q", out)
	}
	if !strings.Contains(out, `"source":"`) {
		t.Fatalf("expected source field, got %q", out)
	}
}

func TestLoggerUnknownFormat(t *testing.T) {
	if err := InitWithFormat("xml", &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestLoggerNamedAndWith(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithFormat(FormatText, &buf); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = Init() }()

	l := Named("cache").With(String("dataset", "reference"))
	l.Warn(context.Background(), "serving stale snapshot", Error(errors.New("boom")), Duration("age", time.Minute), Bool("stale", true))

	out := buf.String()
	for _, want := range []string{"dataset=reference", "cache.error=boom", "cache.stale=true", "level=WARN"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
}

func TestSetLevelString(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithFormat(FormatText, &buf); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = Init() }()

	ctx := context.Background()
	Get().Debug(ctx, "hidden")
	if strings.Contains(buf.String(), "hidden") {
		t.Fatal("debug record written at info level")
	}

	if err := SetLevelString("DEBUG"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	Get().Debug(ctx, "visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Fatal("debug record missing after level change")
	}

	if err := SetLevelString("verbose"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

package shared

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

func TestSetLogLevel(t *testing.T) {
	tc := []struct {
		name    string
		level   string
		want    log.Level
		wantErr bool
	}{
		{name: "debug", level: "debug", want: log.DebugLevel},
		{name: "warn", level: "warn", want: log.WarnLevel},
		{name: "upper case", level: "ERROR", want: log.ErrorLevel},
		{name: "unknown keeps current", level: "loud", want: log.InfoLevel, wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLogger(&bytes.Buffer{})
			l.SetLevel(log.InfoLevel)

			err := SetLogLevel(l, tt.level)

			if (err != nil) != tt.wantErr {
				t.Fatalf("SetLogLevel(%q) error = %v, wantErr %v", tt.level, err, tt.wantErr)
			}
			if got := l.GetLevel(); got != tt.want {
				t.Errorf("level = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	l := log.New(&buf)

	WithLogger(l, "component", "proxy").Info("hello")

	if got := buf.String(); !bytes.Contains([]byte(got), []byte("component=proxy")) {
		t.Errorf("expected child logger fields in output, got %q", got)
	}
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()

	if a == b {
		t.Error("expected distinct IDs")
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Errorf("expected a valid UUID, got %q: %v", a, err)
	}
}

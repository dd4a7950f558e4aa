package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewLoggerLevels(t *testing.T) {
	cases := []struct {
		level string
		want  logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"info", logrus.InfoLevel},
		{"warn", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
		{"nonsense", logrus.InfoLevel},
	}
	for _, tc := range cases {
		l := NewLogger(tc.level, "development")
		if l.GetLevel() != tc.want {
			t.Fatalf("level %q -> %v, want %v", tc.level, l.GetLevel(), tc.want)
		}
	}
}

func TestNewLoggerFormatterByEnvironment(t *testing.T) {
	if _, ok := NewLogger("info", "production").Formatter.(*logrus.JSONFormatter); !ok {
		t.Fatal("production logger should use the JSON formatter")
	}
	if _, ok := NewLogger("info", "development").Formatter.(*logrus.TextFormatter); !ok {
		t.Fatal("development logger should use the text formatter")
	}
}

package logger

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatFields(t *testing.T) {
	tests := []struct {
		name   string
		fields Fields
		want   string
	}{
		{"empty", nil, ""},
		{"sorted", Fields{"b": 2, "a": "x"}, "{a=x, b=2}"},
		{"float", Fields{"ratio": 0.5}, "{ratio=0.50}"},
		{"int64", Fields{"ms": int64(12)}, "{ms=12}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatFields(tt.fields))
		})
	}
}

func TestLevelsWriteToLog(t *testing.T) {
	var buf bytes.Buffer
	flags := log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	defer func() {
		log.SetOutput(os.Stderr)
		log.SetFlags(flags)
	}()

	Info("composed", Fields{"form": "sonata"})
	Warn("skipped", nil)
	Error("failed", errors.New("boom"), Fields{"source": "patterns.json"})

	out := buf.String()
	assert.Contains(t, out, "[INFO] composed {form=sonata}")
	assert.Contains(t, out, "[WARN] skipped")
	assert.Contains(t, out, "[ERROR] failed: boom {source=patterns.json}")
}

func TestLogTraining_AddsFields(t *testing.T) {
	var buf bytes.Buffer
	flags := log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	defer func() {
		log.SetOutput(os.Stderr)
		log.SetFlags(flags)
	}()

	fields := Fields{"motifs": 2}
	LogTraining(context.Background(), "corpus", 40, 3*time.Millisecond, fields)
	Debug("sampled", Fields{"state": "(2, 2)"})

	assert.Equal(t, "corpus", fields["source"])
	assert.Equal(t, 40, fields["entries"])
	out := buf.String()
	assert.Contains(t, out, "[INFO] Models retrained {duration_ms=3, entries=40, motifs=2, source=corpus}")
	assert.Contains(t, out, "[DEBUG] sampled {state=(2, 2)}")
}

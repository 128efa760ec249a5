package main

import (
	"context"
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"
)

func TestSplitDuration(t *testing.T) {
	tests := []struct {
		args []string
		rest []string
		d    time.Duration
	}{
		{[]string{"-for", "30s", "-top", "3"}, []string{"-top", "3"}, 30 * time.Second},
		{[]string{"-interval=2s", "--for=1m"}, []string{"-interval=2s"}, time.Minute},
		{[]string{"-serial", "R58M"}, []string{"-serial", "R58M"}, 0},
		{nil, nil, 0},
	}
	for _, tc := range tests {
		rest, d := splitDuration(tc.args)
		if !reflect.DeepEqual(rest, tc.rest) || d != tc.d {
			t.Errorf("splitDuration(%v) = %v, %s; want %v, %s", tc.args, rest, d, tc.rest, tc.d)
		}
	}
}

func TestNewLogger(t *testing.T) {
	l := newLogger("warn", io.Discard)
	if l.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("info should be filtered at warn level")
	}
	if !newLogger("bogus", io.Discard).Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("unknown levels fall back to info")
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	if err := run("explode", nil); err == nil {
		t.Fatal("unknown command should fail")
	}
	if err := run("kill", []string{"abc"}); err == nil {
		t.Fatal("non-numeric pid should fail")
	}
}

package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/gardar/ocrsynth/internal/config"
	"github.com/gardar/ocrsynth/pkg/fonts"
	"github.com/gardar/ocrsynth/pkg/synth"
)

func TestParsePageRange(t *testing.T) {
	tests := []struct {
		in      string
		want    synth.PageRange
		wantErr bool
	}{
		{"2", synth.PageRange{Start: 2, End: 3}, false},
		{"1:4", synth.PageRange{Start: 1, End: 4}, false},
		{"3:", synth.PageRange{Start: 3}, false},
		{":2", synth.PageRange{End: 2}, false},
		{"a:2", synth.PageRange{}, true},
		{"1:b", synth.PageRange{}, true},
	}
	for _, tt := range tests {
		got, err := parsePageRange(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parsePageRange(%q) error = %v", tt.in, err)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parsePageRange(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestApplyFlags(t *testing.T) {
	cfg := config.Default()
	if err := applyFlags(cfg, "invisible", "0:2", true, false, true, true); err != nil {
		t.Fatalf("applyFlags() error = %v", err)
	}
	if cfg.Mode != synth.ModeInvisible || !cfg.RotateText || !cfg.RecalcLineBoxes || cfg.LogWarnings {
		t.Errorf("applyFlags() = %+v", cfg.Options)
	}
	if cfg.Pages != (synth.PageRange{Start: 0, End: 2}) {
		t.Errorf("Pages = %+v", cfg.Pages)
	}

	if err := applyFlags(cfg, "", "", false, true, false, false); err == nil {
		t.Error("applyFlags() accepted both rotations")
	}
	if err := applyFlags(config.Default(), "sepia", "", false, false, false, false); err == nil {
		t.Error("applyFlags() accepted an unknown mode")
	}
}

func TestListFonts(t *testing.T) {
	store, err := fonts.NewDefaultStore()
	if err != nil {
		t.Fatalf("NewDefaultStore() error = %v", err)
	}
	var buf bytes.Buffer
	listFonts(&buf, store)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("listFonts() printed %d lines, want 5:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "Go\tnormal\t") || !strings.HasSuffix(lines[0], "(default)") {
		t.Errorf("first line = %q, want the default Go normal font", lines[0])
	}
	if !strings.HasPrefix(lines[4], "Go Mono\titalic\t") || strings.Contains(lines[4], "(default)") {
		t.Errorf("last line = %q, want Go Mono italic without the default mark", lines[4])
	}
}

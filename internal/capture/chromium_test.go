package capture

import (
	"context"
	"testing"
	"time"

	"eventcal/internal/config"
)

func TestLocalURL(t *testing.T) {
	tests := []struct {
		listen string
		want   string
	}{
		{"127.0.0.1:8080", "http://127.0.0.1:8080"},
		{":8080", "http://127.0.0.1:8080"},
		{"0.0.0.0:9000", "http://127.0.0.1:9000"},
		{"[::]:9000", "http://127.0.0.1:9000"},
		{"cal.local:80", "http://cal.local:80"},
		{"cal.local", "http://cal.local"},
	}
	for _, tt := range tests {
		if got := LocalURL(tt.listen); got != tt.want {
			t.Errorf("LocalURL(%q) = %q, want %q", tt.listen, got, tt.want)
		}
	}
}

func TestOptionsFrom(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Listen = ":8080"
	cfg.BasicAuth = config.BasicAuthConfig{Username: "admin", Password: "pw"}

	opts := OptionsFrom(cfg)
	if opts.URL != "http://127.0.0.1:8080/calendar" {
		t.Errorf("URL = %q", opts.URL)
	}
	if opts.Width != 1280 || opts.Height != 960 || opts.Timeout != 30*time.Second {
		t.Errorf("size/timeout = %dx%d %s", opts.Width, opts.Height, opts.Timeout)
	}
	if opts.OutputPath != "./var/preview.png" || opts.Username != "admin" {
		t.Errorf("opts = %+v", opts)
	}

	cfg.Capture.URL = "http://display.local/calendar?view=week"
	if got := OptionsFrom(cfg).URL; got != cfg.Capture.URL {
		t.Errorf("explicit URL replaced with %q", got)
	}
}

func TestSnapshotRequiresTargets(t *testing.T) {
	if err := Snapshot(context.Background(), Options{OutputPath: "x.png"}); err == nil {
		t.Error("missing URL accepted")
	}
	if err := Snapshot(context.Background(), Options{URL: "http://127.0.0.1:1"}); err == nil {
		t.Error("missing output path accepted")
	}
}

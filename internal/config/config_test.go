package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, name, body string) *Manager {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return NewManager(path)
}

const validYAML = `
community: gardening
platform:
  base_url: https://platform.example
storage:
  path: ./lockbot.db
lock:
  delay: 2
  delay_units: days
`

func TestParseYAML(t *testing.T) {
	t.Parallel()
	m := writeConfig(t, "config.yaml", validYAML)
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Community != "gardening" {
		t.Fatalf("community = %q", cfg.Community)
	}
	if cfg.Lock.Delay != 2 || cfg.Lock.DelayUnits != "days" {
		t.Fatalf("lock = %+v", cfg.Lock)
	}
	if !cfg.Lock.IgnoreModeratorsEnabled() {
		t.Fatal("ignore_moderators should default to true")
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	m := writeConfig(t, "config.yaml", validYAML+"\nsurprise: true\n")
	if _, err := m.Parse(); err == nil {
		t.Fatal("expected unknown-field error")
	}
}

func TestUnitListCollapsesToFirst(t *testing.T) {
	t.Parallel()
	m := writeConfig(t, "config.yaml", strings.Replace(validYAML,
		"delay_units: days", "delay_units: [weeks, months]", 1))
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Lock.DelayUnits != "weeks" {
		t.Fatalf("delay_units = %q, want first list element", cfg.Lock.DelayUnits)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	base := func() *Config {
		return &Config{
			Community: "gardening",
			Platform:  PlatformConfig{BaseURL: "https://platform.example"},
			Storage:   StorageConfig{Path: "./db"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "ok", mutate: func(*Config) {}},
		{
			name:    "missing community",
			mutate:  func(c *Config) { c.Community = "" },
			wantErr: "community",
		},
		{
			name:    "negative delay",
			mutate:  func(c *Config) { c.Lock.Delay = -1 },
			wantErr: "lock.delay",
		},
		{
			name:    "bad unit",
			mutate:  func(c *Config) { c.Lock.DelayUnits = "fortnights" },
			wantErr: "delay_units",
		},
		{
			name:    "bad locked flair template",
			mutate:  func(c *Config) { c.Lock.LockedFlairTemplateID = "not-a-template" },
			wantErr: "locked_flair_template_id",
		},
		{
			name: "bad ignore template entry",
			mutate: func(c *Config) {
				c.Lock.IgnorePostFlairTemplate = "0a1b2c3d-0000-1111-2222-3333aabbccdd, nope"
			},
			wantErr: "ignore_post_flair_template",
		},
		{
			name: "valid templates",
			mutate: func(c *Config) {
				c.Lock.LockedFlairTemplateID = "0a1b2c3d-0000-1111-2222-3333aabbccdd"
				c.Lock.IgnorePostFlairTemplate = "0a1b2c3d-0000-1111-2222-3333aabbccdd"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate = %v, want error mentioning %q", err, tt.wantErr)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	t.Parallel()
	got := SplitList(" Announcement, MOD Post ,,news ")
	want := []string{"announcement", "mod post", "news"}
	if len(got) != len(want) {
		t.Fatalf("SplitList = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("SplitList[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if SplitList("  ") != nil {
		t.Fatal("blank list should be nil")
	}
}

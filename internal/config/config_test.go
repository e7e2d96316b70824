package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func setEnv(t *testing.T, env map[string]string) {
	t.Helper()
	for _, key := range []string{
		"TELEGRAM_API_ID", "TELEGRAM_API_HASH", "TELEGRAM_SESSION_FILE",
		"NOTION_TOKEN", "NOTION_DATABASE_ID", "LOG_LEVEL",
	} {
		t.Setenv(key, env[key])
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		want    *Config
		wantErr bool
	}{
		{
			name: "full environment",
			env: map[string]string{
				"TELEGRAM_API_ID":       "12345",
				"TELEGRAM_API_HASH":     "abcdef",
				"TELEGRAM_SESSION_FILE": "/tmp/session.json",
				"NOTION_TOKEN":          "secret_x",
				"NOTION_DATABASE_ID":    "db-1",
				"LOG_LEVEL":             "debug",
			},
			want: &Config{
				TelegramAPIID:    12345,
				TelegramAPIHash:  "abcdef",
				SessionFile:      "/tmp/session.json",
				NotionToken:      "secret_x",
				NotionDatabaseID: "db-1",
				LogLevel:         "debug",
			},
		},
		{
			name: "defaults",
			env: map[string]string{
				"TELEGRAM_API_ID":   "1",
				"TELEGRAM_API_HASH": "h",
			},
			want: &Config{
				TelegramAPIID:   1,
				TelegramAPIHash: "h",
				SessionFile:     "./session.json",
				LogLevel:        "info",
			},
		},
		{
			name:    "missing api id",
			env:     map[string]string{"TELEGRAM_API_HASH": "h"},
			wantErr: true,
		},
		{
			name: "non-numeric api id",
			env: map[string]string{
				"TELEGRAM_API_ID":   "not-a-number",
				"TELEGRAM_API_HASH": "h",
			},
			wantErr: true,
		},
		{
			name:    "missing api hash",
			env:     map[string]string{"TELEGRAM_API_ID": "1"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnv(t, tt.env)

			got, err := Load()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestHasNotion(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want bool
	}{
		{name: "both set", cfg: Config{NotionToken: "t", NotionDatabaseID: "d"}, want: true},
		{name: "token only", cfg: Config{NotionToken: "t"}, want: false},
		{name: "database only", cfg: Config{NotionDatabaseID: "d"}, want: false},
		{name: "neither", cfg: Config{}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.HasNotion(); got != tt.want {
				t.Errorf("HasNotion() = %v, want %v", got, tt.want)
			}
		})
	}
}

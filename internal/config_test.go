package internal

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/taskview/internal/sse"
	"github.com/starford/taskview/internal/tasklist"
	pkgconfig "github.com/starford/taskview/pkg/config"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestAPIConfig_Validation(t *testing.T) {
	cases := []struct {
		name string
		cfg  APIConfig
		ok   bool
	}{
		{"http", APIConfig{BaseURL: "http://localhost:5000", Timeout: time.Second}, true},
		{"https with path", APIConfig{BaseURL: "https://tasks.example.com/api", Timeout: time.Second}, true},
		{"missing url", APIConfig{Timeout: time.Second}, false},
		{"no scheme", APIConfig{BaseURL: "localhost:5000", Timeout: time.Second}, false},
		{"zero timeout", APIConfig{BaseURL: "http://x"}, false},
		{"tiny timeout", APIConfig{BaseURL: "http://x", Timeout: time.Millisecond}, false},
	}
	for _, tc := range cases {
		err := tc.cfg.Validate()
		if (err == nil) != tc.ok {
			t.Errorf("%s: err = %v, want ok=%v", tc.name, err, tc.ok)
		}
	}
}

func TestViewConfig_EmptySortDefaults(t *testing.T) {
	cfg := ViewConfig{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty view config should validate: %v", err)
	}
	if cfg.DefaultSort != tasklist.DefaultSortMode {
		t.Errorf("default sort = %q, want %q", cfg.DefaultSort, tasklist.DefaultSortMode)
	}
}

func TestViewConfig_SummaryThrottle(t *testing.T) {
	cfg := ViewConfig{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("zero throttle should validate: %v", err)
	}
	if cfg.SummaryThrottle != sse.DefaultSummaryThrottle {
		t.Errorf("throttle = %v, want %v", cfg.SummaryThrottle, sse.DefaultSummaryThrottle)
	}

	cfg = ViewConfig{SummaryThrottle: -time.Second}
	if err := cfg.Validate(); err == nil {
		t.Error("negative throttle should fail validation")
	}
}

func TestViewConfig_UnknownSort(t *testing.T) {
	cfg := ViewConfig{DefaultSort: "alphabetical"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown sort mode should fail validation")
	}
}

func TestFullConfig_ReportsSection(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.App.HTTP.Port = 70000
	err := cfg.Validate()
	if err == nil || !strings.HasPrefix(err.Error(), "app:") {
		t.Fatalf("err = %v, want app section error", err)
	}
}

func TestLoadYAML(t *testing.T) {
	t.Setenv("TASK_API", "http://tasks.internal:9000")
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `app:
  log_level: debug
  http:
    port: 9090
api:
  base_url: ${TASK_API}
  timeout: 3s
view:
  default_sort: due-asc
  summary_throttle: 500ms
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.LogLevel != slog.LevelDebug || cfg.App.HTTP.Port != 9090 {
		t.Errorf("app = %+v", cfg.App)
	}
	if cfg.API.BaseURL != "http://tasks.internal:9000" || cfg.API.Timeout != 3*time.Second {
		t.Errorf("api = %+v", cfg.API)
	}
	if cfg.View.DefaultSort != tasklist.SortDueAsc || cfg.View.SummaryThrottle != 500*time.Millisecond {
		t.Errorf("view = %+v", cfg.View)
	}
}

func TestLiveSettings_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	live := newLiveSettings(NewDefaultConfig())
	if live.DefaultSort() != tasklist.SortCreatedDesc || live.level.Level() != slog.LevelInfo {
		t.Fatalf("initial settings wrong")
	}

	write := func(s string) {
		t.Helper()
		if err := os.WriteFile(path, []byte(s), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	write("app:\n  log_level: warn\n  http:\n    port: 9999\nview:\n  default_sort: status\n")
	if err := live.reload(path, logger); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if live.DefaultSort() != tasklist.SortStatus {
		t.Errorf("default sort = %q, want status", live.DefaultSort())
	}
	if live.level.Level() != slog.LevelWarn {
		t.Errorf("level = %v, want warn", live.level.Level())
	}
	if live.current.Load().App.HTTP.Port != 8080 {
		t.Errorf("port changed without restart")
	}
	if !strings.Contains(logs.String(), "apply after restart") {
		t.Errorf("expected restart warning, logs: %s", logs.String())
	}

	write("view:\n  default_sort: sideways\n")
	if err := live.reload(path, logger); err == nil {
		t.Fatal("invalid config should be rejected")
	}
	if live.DefaultSort() != tasklist.SortStatus {
		t.Errorf("rejected reload changed settings: %q", live.DefaultSort())
	}
}

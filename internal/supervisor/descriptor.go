// Package supervisor describes how a process manager launches the framebox
// backend. The descriptor is rendered as a pm2-compatible apps document.
package supervisor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// Backend defaults.
const (
	DefaultPort    = "8001"
	DefaultHost    = "0.0.0.0"
	DefaultDataDir = "./data"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// App is one managed process.
type App struct {
	Name             string            `json:"name" yaml:"name"`
	Script           string            `json:"script" yaml:"script"`
	Args             string            `json:"args" yaml:"args"`
	Interpreter      string            `json:"interpreter" yaml:"interpreter"`
	Cwd              string            `json:"cwd" yaml:"cwd"`
	Env              map[string]string `json:"env" yaml:"env"`
	Instances        int               `json:"instances" yaml:"instances"`
	Autorestart      bool              `json:"autorestart" yaml:"autorestart"`
	Watch            bool              `json:"watch" yaml:"watch"`
	MaxMemoryRestart string            `json:"max_memory_restart" yaml:"max_memory_restart"`
	ErrorFile        string            `json:"error_file" yaml:"error_file"`
	OutFile          string            `json:"out_file" yaml:"out_file"`
	LogDateFormat    string            `json:"log_date_format" yaml:"log_date_format"`
	MergeLogs        bool              `json:"merge_logs" yaml:"merge_logs"`
	MinUptime        string            `json:"min_uptime" yaml:"min_uptime"`
	MaxRestarts      int               `json:"max_restarts" yaml:"max_restarts"`
	// RestartDelay is in milliseconds.
	RestartDelay int `json:"restart_delay" yaml:"restart_delay"`
}

// Descriptor is the document a process manager reads.
type Descriptor struct {
	Apps []App `json:"apps" yaml:"apps"`
}

// Backend returns the descriptor for the backend. PORT, HOST and DATA_DIR
// come from getenv when set; a nil getenv means os.Getenv.
func Backend(getenv func(string) string) Descriptor {
	if getenv == nil {
		getenv = os.Getenv
	}
	env := func(key, fallback string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return fallback
	}

	return Descriptor{Apps: []App{{
		Name:        "framebox",
		Script:      "uv",
		Args:        "run python main.py",
		Interpreter: "none",
		Cwd:         "./",
		Env: map[string]string{
			"PORT":     env("PORT", DefaultPort),
			"HOST":     env("HOST", DefaultHost),
			"DATA_DIR": env("DATA_DIR", DefaultDataDir),
		},
		Instances:        1,
		Autorestart:      true,
		Watch:            false,
		MaxMemoryRestart: "500M",
		ErrorFile:        "./logs/err.log",
		OutFile:          "./logs/out.log",
		LogDateFormat:    "YYYY-MM-DD HH:mm:ss Z",
		MergeLogs:        true,
		MinUptime:        "10s",
		MaxRestarts:      10,
		RestartDelay:     int((4 * time.Second).Milliseconds()),
	}}}
}

// Validate checks every app for values a process manager would reject.
func (d Descriptor) Validate() error {
	if len(d.Apps) == 0 {
		return fmt.Errorf("descriptor has no apps")
	}
	for _, app := range d.Apps {
		if err := app.Validate(); err != nil {
			return fmt.Errorf("app %q: %w", app.Name, err)
		}
	}
	return nil
}

// Validate checks a single app.
func (a App) Validate() error {
	if a.Name == "" {
		return fmt.Errorf("name is required")
	}
	if a.Script == "" {
		return fmt.Errorf("script is required")
	}
	if a.Instances < 1 {
		return fmt.Errorf("instances must be at least 1, got %d", a.Instances)
	}
	if _, err := a.MemoryLimit(); err != nil {
		return err
	}
	if _, err := time.ParseDuration(a.MinUptime); err != nil {
		return fmt.Errorf("invalid min_uptime %q: %w", a.MinUptime, err)
	}
	if a.MaxRestarts < 0 {
		return fmt.Errorf("max_restarts must be >= 0, got %d", a.MaxRestarts)
	}
	if a.RestartDelay < 0 {
		return fmt.Errorf("restart_delay must be >= 0, got %d", a.RestartDelay)
	}
	return nil
}

// MemoryLimit parses MaxMemoryRestart. A bare "M" or "G" suffix is read as
// MB or GB.
func (a App) MemoryLimit() (uint64, error) {
	n, err := humanize.ParseBytes(a.MaxMemoryRestart)
	if err != nil {
		return 0, fmt.Errorf("invalid max_memory_restart %q: %w", a.MaxMemoryRestart, err)
	}
	if n == 0 {
		return 0, fmt.Errorf("max_memory_restart must be positive")
	}
	return n, nil
}

// Render encodes d as JSON or YAML.
func (d Descriptor) Render(format string) ([]byte, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	switch format {
	case FormatJSON, "":
		out, err := json.MarshalIndent(d, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(out, '\n'), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(d); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported format %q (want json or yaml)", format)
	}
}

package tactical

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tacticalpha/regime-engine/pkg/logger"
)

// Store persists model configs as one JSON file per model under a
// directory. The file is the source of truth: loading a saved model and
// building it against the same indicator table reproduces the signal
// series bit for bit.
type Store struct {
	dir string
}

// NewStore creates the models directory if needed
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("models directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create models dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

func (st *Store) path(name string) string {
	return filepath.Join(st.dir, name+".json")
}

// Save writes a config to <dir>/<name>.json, stamping created_at and
// n_indicators if the caller left them zero. Only the name is checked
// here; full validation against the indicator universe happens when the
// model is built.
func (st *Store) Save(cfg Config) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("cannot save a model without a name")
	}
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = time.Now().UTC()
	}
	if cfg.NIndicators == 0 {
		cfg.NIndicators = len(cfg.Indicators)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal model %q: %w", cfg.Name, err)
	}
	if err := os.WriteFile(st.path(cfg.Name), append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write model %q: %w", cfg.Name, err)
	}

	logger.Info("model saved",
		zap.String("model", cfg.Name),
		zap.String("logic", cfg.LogicType),
		zap.Int("indicators", len(cfg.Indicators)),
	)
	return nil
}

// Load reads one model config by name
func (st *Store) Load(name string) (Config, error) {
	data, err := os.ReadFile(st.path(name))
	if err != nil {
		return Config{}, fmt.Errorf("load model %q: %w", name, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse model %q: %w", name, err)
	}
	if cfg.Name != name {
		return Config{}, fmt.Errorf("model file %s declares name %q", st.path(name), cfg.Name)
	}
	return cfg, nil
}

// List returns the names of all saved models, sorted
func (st *Store) List() ([]string, error) {
	entries, err := os.ReadDir(st.dir)
	if err != nil {
		return nil, fmt.Errorf("list models in %s: %w", st.dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// Inspect renders a saved model for humans: the config fields plus the
// variant parameters re-indented
func (st *Store) Inspect(name string) (string, error) {
	cfg, err := st.Load(name)
	if err != nil {
		return "", err
	}

	var params string
	if len(cfg.Parameters) > 0 {
		var buf bytes.Buffer
		if err := json.Indent(&buf, cfg.Parameters, "  ", "  "); err != nil {
			params = string(cfg.Parameters)
		} else {
			params = buf.String()
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "model:       %s\n", cfg.Name)
	fmt.Fprintf(&b, "logic:       %s\n", cfg.LogicType)
	fmt.Fprintf(&b, "created:     %s\n", cfg.CreatedAt.Format(time.RFC3339))
	if cfg.Description != "" {
		fmt.Fprintf(&b, "description: %s\n", cfg.Description)
	}
	fmt.Fprintf(&b, "indicators (%d):\n", len(cfg.Indicators))
	for _, ind := range cfg.Indicators {
		fmt.Fprintf(&b, "  - %s\n", ind)
	}
	if params != "" {
		fmt.Fprintf(&b, "parameters:\n  %s\n", params)
	}
	return b.String(), nil
}

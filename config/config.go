// Package config loads jujube's TOML configuration: display defaults and
// the keybinding override table. Everything is read once at startup and
// handed to the UI as a value; the file is not watched.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/gerunddev/jujube/keymap"
)

// Config is the full startup configuration.
type Config struct {
	HighlightColor string // selection highlight, hex or ANSI index
	DiffFormat     string // "color-words" or "git"
	Revset         string // initial revset for the log tab
	BookmarkPrefix string // prefix for generated bookmark names
	Layout         string // "horizontal" or "vertical" split

	// Keys holds raw override values per context; invalid entries are
	// reported (and skipped) when applied to the keymap.
	Keys keymap.Overrides
}

// Defaults returns the configuration used when no file exists.
func Defaults() *Config {
	return &Config{
		HighlightColor: "238",
		DiffFormat:     "color-words",
		Revset:         "",
		BookmarkPrefix: "jujube-",
		Layout:         "horizontal",
		Keys:           keymap.Overrides{},
	}
}

// DefaultPath returns the conventional config location.
func DefaultPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "jujube", "config.toml")
}

// Load reads the config file at path, or the default location when path
// is empty. A missing file yields defaults, not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) || path == "" {
			return Defaults(), nil
		}
		return nil, fmt.Errorf("opening config: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads TOML configuration from a reader.
func Parse(r io.Reader) (*Config, error) {
	v := viper.New()
	v.SetConfigType("toml")
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg := Defaults()
	if s := v.GetString("highlight-color"); s != "" {
		cfg.HighlightColor = s
	}
	if s := v.GetString("diff-format"); s != "" {
		cfg.DiffFormat = s
	}
	if s := v.GetString("revset"); s != "" {
		cfg.Revset = s
	}
	if s := v.GetString("bookmark-prefix"); s != "" {
		cfg.BookmarkPrefix = s
	}
	if s := v.GetString("layout"); s != "" {
		cfg.Layout = s
	}
	cfg.Keys = parseKeys(v.GetStringMap("keys"))
	return cfg, nil
}

// parseKeys converts the raw [keys.<context>] tables into overrides.
// Value shapes: a chord string, a list of chord strings, or false to
// disable the action. Unrecognized shapes become empty overrides, which
// the keymap rejects per-entry while keeping its default.
func parseKeys(raw map[string]any) keymap.Overrides {
	overrides := keymap.Overrides{}
	for ctxName, v := range raw {
		table, ok := v.(map[string]any)
		if !ok {
			continue
		}
		ctx := keymap.Context(ctxName)
		actions := map[keymap.Action]keymap.Override{}
		for actionName, value := range table {
			actions[keymap.Action(actionName)] = parseOverride(value)
		}
		if len(actions) > 0 {
			overrides[ctx] = actions
		}
	}
	return overrides
}

func parseOverride(value any) keymap.Override {
	switch v := value.(type) {
	case bool:
		if !v {
			return keymap.Override{Disable: true}
		}
		return keymap.Override{}
	case string:
		return keymap.Override{Chords: []string{v}}
	case []any:
		var chords []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				chords = append(chords, s)
			}
		}
		return keymap.Override{Chords: chords}
	case []string:
		return keymap.Override{Chords: v}
	default:
		return keymap.Override{}
	}
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/gerunddev/jujube/config"
	"github.com/gerunddev/jujube/interactive"
	"github.com/gerunddev/jujube/jj"
	"github.com/gerunddev/jujube/keymap"
	"github.com/gerunddev/jujube/ui"
)

var (
	flagPath        string
	flagRevset      string
	flagConfig      string
	flagInteractive bool
	flagDebug       bool
)

func main() {
	root := &cobra.Command{
		Use:           "jujube",
		Short:         "A terminal UI for Jujutsu (jj)",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
	root.Flags().StringVar(&flagPath, "path", ".", "repository path")
	root.Flags().StringVarP(&flagRevset, "revset", "r", "", "initial revset for the log tab")
	root.Flags().StringVar(&flagConfig, "config", "", "config file (default: user config dir)")
	root.Flags().BoolVarP(&flagInteractive, "interactive", "i", false, "quick-action mode instead of the full TUI")
	root.Flags().BoolVar(&flagDebug, "debug", false, "write a debug log to jujube-debug.log")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger := log.New(os.Stderr)
	if flagDebug {
		logger.SetLevel(log.DebugLevel)
	}

	repoRoot, err := jj.RepoRoot(ctx, flagPath)
	if err != nil {
		return fmt.Errorf("not inside a jj repository: %w", err)
	}

	cfgPath := flagConfig
	if cfgPath == "" {
		cfgPath = config.DefaultPath()
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if flagRevset != "" {
		cfg.Revset = flagRevset
	}

	km := keymap.Default()
	for _, kerr := range km.Apply(cfg.Keys) {
		logger.Warn("ignoring keybinding override", "err", kerr)
	}

	// Once the alt screen is up, stderr output would tear the display.
	// Debug runs log to a file instead; otherwise logging is dropped.
	uiLogger := log.New(io.Discard)
	if flagDebug {
		f, ferr := os.OpenFile("jujube-debug.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if ferr != nil {
			return fmt.Errorf("open debug log: %w", ferr)
		}
		defer f.Close()
		uiLogger = log.New(f)
		uiLogger.SetLevel(log.DebugLevel)
	}

	runner := jj.NewRunner(repoRoot, jj.WithLogger(uiLogger))
	defer runner.Close()

	if err := runner.CheckVersion(ctx); err != nil {
		logger.Warn("jj version check", "err", err)
	}

	if flagInteractive {
		return interactive.Run(ctx, runner)
	}

	app := ui.NewApp(runner, km, cfg, uiLogger)
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

// Package cli implements the opsdeck command-line interface.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/opsdeck/opsdeck/pkg/buildinfo"
)

// appName is the application name used for directories and display.
const appName = "opsdeck"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// ConfigDir overrides the config directory. Empty means the XDG
	// default (~/.config/opsdeck).
	ConfigDir string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "opsdeck",
		Short:        "Opsdeck is a personal operations console",
		Long:         `Opsdeck tracks projects, goals, routines, assets, tasks and inventory as a typed relationship graph, with a canvas view, a scheduling calendar, and a drag-and-drop transport layer.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigDir, "config-dir", "", "config directory (default ~/.config/opsdeck)")

	// Register all subcommands
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.addCommand())
	root.AddCommand(c.listCommand())
	root.AddCommand(c.linkCommand())
	root.AddCommand(c.unlinkCommand())
	root.AddCommand(c.connectionsCommand())
	root.AddCommand(c.stashCommand())
	root.AddCommand(c.seedCommand())
	root.AddCommand(c.backlogCommand())
	root.AddCommand(c.completionCommand())

	return root
}

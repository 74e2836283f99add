package commands

import (
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"pdf-rag/internal/helper"
	"pdf-rag/internal/parser"
	"pdf-rag/internal/tui"
)

// NewTUICmd creates the tui command
func NewTUICmd(opts *globalOptions) *cobra.Command {
	var logFile string
	cmd := &cobra.Command{
		Use:   "tui [file]...",
		Short: "Open the interactive chat interface",
		Long: `Open a terminal UI with a document list and a question box.

Keys:
  /add <file>   add files to the document list
  /clear        empty the document list
  ctrl+p        process the listed documents
  enter         ask the typed question
  ctrl+c        quit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts, args, logFile)
		},
	}

	cmd.Flags().StringVar(&logFile, "log-file", "", "Write logs to this file instead of discarding them")
	return cmd
}

func runTUI(cmd *cobra.Command, opts *globalOptions, args []string, logFile string) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return userError(err)
	}

	// the UI owns the terminal
	var logOut io.Writer = io.Discard
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		logOut = f
	}
	helper.SetupLogger(logOut, cfg.Log.Level, cfg.Log.JSON)

	pipeline, closeStore, err := newPipeline(cmd.Context(), cfg)
	if err != nil {
		return userError(err)
	}
	defer closeStore()

	model := tui.New(cmd.Context(), pipeline, parser.LoadFiles, args)
	_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}

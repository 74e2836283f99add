package commands

import (
	"os"

	"github.com/spf13/cobra"

	"pdf-rag/internal/config"
	"pdf-rag/internal/helper"
)

const defaultConfigPath = "./configs/config.yaml"

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	logLevel   string
}

// NewRootCmd creates the pdf-rag command tree.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}
	cmd := &cobra.Command{
		Use:   "pdf-rag",
		Short: "Ask questions about your PDF documents",
		Long: `pdf-rag extracts the text of uploaded documents, indexes it in a vector
store and answers questions from the most relevant chunks.

Examples:
  pdf-rag process manual.pdf appendix.pdf
  pdf-rag ask "How do I reset the device?"
  pdf-rag tui manual.pdf
  pdf-rag serve`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", defaultConfigPath, "Path to the YAML config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override log.level (debug, info, warn, error)")

	cmd.AddCommand(
		NewProcessCmd(opts),
		NewAskCmd(opts),
		NewIndexCmd(opts),
		NewTUICmd(opts),
		NewServeCmd(opts),
		NewVersionCmd(),
	)
	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// loadConfig reads and validates the config and sets up logging on stderr.
func (o *globalOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	helper.SetupLogger(os.Stderr, cfg.Log.Level, cfg.Log.JSON)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pdf-rag/internal/models"
	"pdf-rag/internal/parser"
)

// NewProcessCmd creates the process command
func NewProcessCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "process <file>...",
		Short: "Index documents, replacing the current index",
		Long: `Extract the text of every file, split it into chunks, embed the chunks and
store them as the new index. The previous index is kept if nothing could be
extracted.

Supported formats: ` + strings.Join(parser.NewExtractor(false).SupportedExtensions(), ", "),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(cmd, opts, args)
		},
	}
}

func runProcess(cmd *cobra.Command, opts *globalOptions, args []string) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return userError(err)
	}

	docs, err := parser.LoadFiles(args)
	if err != nil {
		return userError(err)
	}

	pipeline, closeStore, err := newPipeline(cmd.Context(), cfg)
	if err != nil {
		return userError(err)
	}
	defer closeStore()

	manifest, err := pipeline.Process(cmd.Context(), docs)
	if err != nil {
		return userError(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Processed %d document(s) into %d chunks (build %s)\n",
		len(manifest.Documents), manifest.ChunkCount, manifest.BuildID)
	return nil
}

// userError keeps the underlying error for errors.Is but prints the
// readable message.
func userError(err error) error {
	return &displayError{msg: models.UserMessage(err), err: err}
}

type displayError struct {
	msg string
	err error
}

func (e *displayError) Error() string { return e.msg }
func (e *displayError) Unwrap() error { return e.err }

package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewAskCmd creates the ask command
func NewAskCmd(opts *globalOptions) *cobra.Command {
	var showSources bool
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question from the indexed documents",
		Long: `Retrieve the chunks most similar to the question and ask the generation
model to answer from them. Run "pdf-rag process" first.

Examples:
  pdf-rag ask "What is the warranty period?"
  pdf-rag ask --sources "Who signed the contract?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, opts, args, showSources)
		},
	}

	cmd.Flags().BoolVar(&showSources, "sources", false, "Print the retrieved chunks after the answer")
	return cmd
}

func runAsk(cmd *cobra.Command, opts *globalOptions, args []string, showSources bool) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return userError(err)
	}

	pipeline, closeStore, err := newPipeline(cmd.Context(), cfg)
	if err != nil {
		return userError(err)
	}
	defer closeStore()

	resp, err := pipeline.Query(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return userError(err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, resp.Render())
	if showSources {
		for _, s := range resp.Sources {
			fmt.Fprintf(out, "\n--- chunk %d (offset %d, similarity %.3f)\n%s\n", s.ChunkID, s.Offset, s.Similarity, s.Content)
		}
	}
	return nil
}

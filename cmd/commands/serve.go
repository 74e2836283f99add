package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"pdf-rag/internal/server"
)

// NewServeCmd creates the serve command
func NewServeCmd(opts *globalOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Start the HTTP API.

Routes:
  GET  /check/healthy
  POST /api/v1/documents   multipart field "files"
  POST /api/v1/ask         {"question": "..."}
  GET  /api/v1/index`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}

func runServe(cmd *cobra.Command, opts *globalOptions, addr string) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return userError(err)
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline, closeStore, err := newPipeline(ctx, cfg)
	if err != nil {
		return userError(err)
	}
	defer closeStore()

	return server.NewServer(cfg.Server, pipeline).Run(ctx)
}

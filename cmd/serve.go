package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/ginjaninja78/po-item-extractor/internal/pdftext"
	"github.com/ginjaninja78/po-item-extractor/internal/server"
	"github.com/spf13/cobra"
)

var listenFlag string

// serveCmd represents the 'serve' command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Accept PO uploads over HTTP and return the workbook",
	Long: `The serve command starts an HTTP server.

  POST /upload   multipart form, field "files", one or more PDFs.
                 Responds with po_analysis.xlsx as an attachment.
  GET  /healthz  Responds "ok".

The server stops gracefully on SIGINT or SIGTERM.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		if listenFlag != "" {
			appConfig.Server.ListenAddr = listenFlag
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return server.New(appConfig, pdftext.Default(logger), logger).ListenAndServe(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&listenFlag, "listen", "", "Address to listen on (default from config, :8080)")
}

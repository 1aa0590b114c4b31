// serve.go implements "recall serve", the local HTTP API.
package cli

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/berth-dev/recall/internal/recap"
	"github.com/berth-dev/recall/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve search and session lookup over HTTP",
	Long: `Start a local HTTP server exposing:

  GET  /healthz
  GET  /api/search?q=...&days=&since=&until=&tool=&file=&limit=&dialect=
  GET  /api/sessions/:id
  POST /api/sessions/:id/recap   (needs an OpenAI API key)

The server stops on Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, 127.0.0.1:7878)")
}

func runServe(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = e.cfg.Server.Addr
	}

	// The recap route answers 503 without a key, so a missing key is not fatal.
	var rc web.Recapper
	r, err := e.newRecapper()
	switch {
	case err == nil:
		rc = r
	case errors.Is(err, recap.ErrNoAPIKey):
		fmt.Fprintf(cmd.ErrOrStderr(), "Recaps disabled: %s is not set\n", e.cfg.Recap.APIKeyEnv)
	default:
		return err
	}

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := web.NewServer(e.searcher, rc, e.logger)
	srv.Verbose = verbose
	if e.cfg.Search.Limit > 0 {
		srv.DefaultLimit = e.cfg.Search.Limit
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s\n", addr)
	return srv.Run(cmd.Context(), addr)
}

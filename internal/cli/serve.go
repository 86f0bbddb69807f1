package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/ovecast/ovecast/pkg/asset"
	"github.com/ovecast/ovecast/pkg/canvas"
	"github.com/ovecast/ovecast/pkg/config"
	"github.com/ovecast/ovecast/pkg/pipeline"
	"github.com/ovecast/ovecast/pkg/server"
)

// shutdownGrace bounds how long in-flight requests may run after the
// serve command is interrupted.
const shutdownGrace = 5 * time.Second

func (c *CLI) serveCommand() *cobra.Command {
	var (
		configPath string
		outDir     string
		modeFlag   string
		background bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the asset file server and control API",
		Long: `Serve runs the combined HTTP server: notebook frontends post
configuration and cell outputs to the control API, and canvas render
apps fetch the resulting assets, with byte-range support for media.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := settings.Validate(); err != nil {
				return err
			}
			mode, err := config.ParseMode(modeFlag)
			if err != nil {
				return err
			}

			logger := c.Logger
			store, err := asset.NewStore(outDir, settings.AssetHost())
			if err != nil {
				return err
			}
			client := canvas.NewClient(settings.Core, mode, logger)
			runner := pipeline.NewRunner(client, store, logger)
			srv := server.New(runner, server.Options{
				Dir:        store.Dir(),
				Mode:       mode,
				Username:   settings.Username,
				Password:   settings.Password,
				Background: background,
			}, logger)

			httpSrv := &http.Server{
				Addr:    fmt.Sprintf(":%d", settings.Port),
				Handler: srv.Router(),
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- httpSrv.ListenAndServe()
			}()

			printSuccess("serving %s on port %d (%s mode)", outDir, settings.Port, mode)
			printLink("canvas core:", settings.Core)
			if settings.Username != "" && settings.Password != "" {
				printInfo("basic auth enabled for %s", settings.Username)
			}
			fmt.Println(StyleDim.Render("  press ctrl-c to stop"))

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-cmd.Context().Done():
				logger.Info("shutting down")
				ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
				defer cancel()
				if err := httpSrv.Shutdown(ctx); err != nil {
					return err
				}
				return cmd.Context().Err()
			}
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "e", "", "path to an ovecast.toml configuration file")
	cmd.Flags().StringVarP(&outDir, "out", "o", defaultOutDir, "directory rendered assets are written to")
	cmd.Flags().StringVarP(&modeFlag, "mode", "m", string(config.ModeProduction), "production or development")
	cmd.Flags().BoolVar(&background, "background", false, "suppress per-request console logging")

	return cmd
}

package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ovecast/ovecast/pkg/asset"
	"github.com/ovecast/ovecast/pkg/canvas"
	"github.com/ovecast/ovecast/pkg/config"
	"github.com/ovecast/ovecast/pkg/errors"
	"github.com/ovecast/ovecast/pkg/layout"
	"github.com/ovecast/ovecast/pkg/pipeline"
	"github.com/ovecast/ovecast/pkg/session"
)

// renderInput is the one-shot rendering document: a session
// configuration followed by captured cells in execution order.
type renderInput struct {
	Config session.Config `json:"config"`
	Cells  []renderCell   `json:"cells"`
}

type renderCell struct {
	Args    layout.PlacementArgs `json:"args"`
	Outputs []pipeline.Output    `json:"outputs"`
}

func (c *CLI) renderCommand() *cobra.Command {
	var (
		configPath string
		outDir     string
		modeFlag   string
	)

	cmd := &cobra.Command{
		Use:   "render <cells.json>",
		Short: "Render captured cell outputs from a JSON file",
		Long: `Render performs a one-shot pass: it reads a JSON document of
captured cells, places each on the configured space and registers the
resulting sections with the canvas service. Rendered assets land in the
output directory ready to be served.`,
		Args: cobra.ExactArgs(1),
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

			data, err := os.ReadFile(args[0])
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidConfig, err, "failed to read %s", args[0])
			}
			var input renderInput
			if err := json.Unmarshal(data, &input); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidConfig, err, "failed to parse %s", args[0])
			}
			if input.Config.Mode == "" {
				input.Config.Mode = mode
			}

			logger := loggerFromContext(cmd.Context())
			store, err := asset.NewStore(outDir, settings.AssetHost())
			if err != nil {
				return err
			}
			client := canvas.NewClient(settings.Core, input.Config.Mode, logger)
			runner := pipeline.NewRunner(client, store, logger)

			prog := newProgress(logger)
			sess, err := runner.Start(cmd.Context(), input.Config)
			if err != nil {
				return err
			}
			fmt.Println(StyleTitle.Render("Rendering " + input.Config.Space))
			printInfo("%d cells, %dx%d grid", len(input.Cells), input.Config.Rows, input.Config.Cols)

			rendered := 0
			for _, cell := range input.Cells {
				results, err := runner.RenderCell(cmd.Context(), sess, cell.Args, cell.Outputs)
				if err != nil {
					printError("cell %d: %s", cell.Args.Cell(), errors.UserMessage(err))
					continue
				}
				for _, res := range results {
					printLink(fmt.Sprintf("cell %s:", res.Key.Label()), res.ControlURL)
				}
				rendered += len(results)
			}
			prog.done(fmt.Sprintf("Registered %d sections on %s", rendered, input.Config.Space))
			printSuccess("assets written to %s", store.Dir())
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "e", "", "path to an ovecast.toml configuration file")
	cmd.Flags().StringVarP(&outDir, "out", "o", defaultOutDir, "directory rendered assets are written to")
	cmd.Flags().StringVarP(&modeFlag, "mode", "m", string(config.ModeProduction), "production or development")

	return cmd
}

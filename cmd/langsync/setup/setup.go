// Package setup implements the init command.
package setup

import (
	"context"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/dysgraphia-support/langsync/internal/config"
	"github.com/dysgraphia-support/langsync/internal/constants"
	"github.com/dysgraphia-support/langsync/internal/i18n"
	"github.com/dysgraphia-support/langsync/internal/logger"
	"github.com/dysgraphia-support/langsync/internal/perf"
	"github.com/dysgraphia-support/langsync/internal/telemetry"
	"github.com/dysgraphia-support/langsync/internal/tui"
)

type initDeps struct {
	fs        afero.Fs
	logger    *logger.Logger
	telemetry func(telemetry.CommandTelemetry)
	colorize  bool
}

func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: i18n.T("cmd.init.short"),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, span := perf.StartSpan(cmd.Context(), "app.command.init")

			configPath, err := cmd.Flags().GetString("config")
			if err != nil {
				perf.EndSpan(span, err)
				return err
			}
			quiet, err := cmd.Flags().GetBool("quiet")
			if err != nil {
				perf.EndSpan(span, err)
				return err
			}
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				perf.EndSpan(span, err)
				return err
			}

			deps := initDeps{
				fs:        afero.NewOsFs(),
				logger:    logger.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), quiet, false),
				telemetry: telemetry.RecordCommand,
				colorize:  tui.IsTerminalWriter(cmd.OutOrStdout()),
			}

			err = runInit(ctx, configPath, force, deps)
			perf.EndSpan(span, err)

			payload := telemetry.CommandTelemetry{
				Command:   "init",
				Success:   err == nil,
				Error:     err,
				Arguments: map[string]interface{}{"force": force},
			}
			if err != nil {
				payload.ExitCode = 1
			}
			deps.telemetry(payload)
			return err
		},
	}

	cmd.Flags().BoolP("force", "f", false, i18n.T("cmd.init.flag.force"))
	return cmd
}

func runInit(ctx context.Context, configPath string, force bool, deps initDeps) error {
	meta := config.NewMetadata(configPath)
	if _, err := config.InitConfig(ctx, deps.fs, meta, force); err != nil {
		return err
	}

	deps.logger.Log(tui.SuccessIcon(deps.colorize)+" "+i18n.T("cmd.init.success", i18n.With(i18n.TData{"path": meta.ConfigPath})), false)
	deps.logger.Log(i18n.T("cmd.init.next_steps", i18n.With(i18n.TData{
		"command": tui.Render(tui.CodeStyle, constants.CommandName+" merge --bundle navigation", deps.colorize),
	})), false)
	return nil
}

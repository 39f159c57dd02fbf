package bundles

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/dysgraphia-support/langsync/internal/bundles"
	"github.com/dysgraphia-support/langsync/internal/i18n"
	"github.com/dysgraphia-support/langsync/internal/logger"
	"github.com/dysgraphia-support/langsync/internal/perf"
	"github.com/dysgraphia-support/langsync/internal/telemetry"
)

func Command() *cobra.Command {
	return &cobra.Command{
		Use:     "bundles",
		Aliases: []string{"ls"},
		Short:   i18n.T("cmd.bundles.short"),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, span := perf.StartSpan(cmd.Context(), "app.command.bundles")

			quiet, err := cmd.Flags().GetBool("quiet")
			if err != nil {
				perf.EndSpan(span, err)
				return err
			}

			log := logger.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), quiet, false)
			err = listBundles(log)
			perf.EndSpan(span, err)

			telemetry.RecordCommand(telemetry.CommandTelemetry{
				Command: "bundles",
				Success: err == nil,
				Error:   err,
			})
			return err
		},
	}
}

// listBundles prints one line per embedded bundle. The output is the
// command's result, so it is shown even in quiet mode.
func listBundles(log *logger.Logger) error {
	for _, name := range bundles.Names() {
		bundle, err := bundles.Load(name)
		if err != nil {
			return err
		}
		log.Log(i18n.T("cmd.bundles.row", i18n.With(i18n.TData{
			"name":    bundle.Name,
			"count":   bundle.KeyCount(),
			"locales": strings.Join(bundle.Locales(), ", "),
		})), true)
	}
	return nil
}

package version

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dysgraphia-support/langsync/internal/constants"
	"github.com/dysgraphia-support/langsync/internal/environment"
	"github.com/dysgraphia-support/langsync/internal/i18n"
)

func Command() *cobra.Command {
	return &cobra.Command{
		Use: "version",
		Short: i18n.T("cmd.version.short", i18n.With(i18n.TData{
			"appName": constants.AppName,
		})),
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), environment.AppVersion())
		},
	}
}

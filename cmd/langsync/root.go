package langsync

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dysgraphia-support/langsync/cmd/langsync/bundles"
	"github.com/dysgraphia-support/langsync/cmd/langsync/merge"
	"github.com/dysgraphia-support/langsync/cmd/langsync/reshape"
	"github.com/dysgraphia-support/langsync/cmd/langsync/setup"
	"github.com/dysgraphia-support/langsync/cmd/langsync/version"
	"github.com/dysgraphia-support/langsync/internal/constants"
	"github.com/dysgraphia-support/langsync/internal/environment"
	"github.com/dysgraphia-support/langsync/internal/i18n"
	"github.com/dysgraphia-support/langsync/internal/tui"
)

func Command() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          constants.CommandName,
		Short:        i18n.T("app.description"),
		Version:      environment.AppVersion(),
		SilenceUsage: true,
	}
	cobra.MousetrapHelpText = "" // allow the app to run in windows by clicking the exe

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", constants.DefaultConfigFile, i18n.T("cmd.root.flag.config"))
	flags.BoolP("quiet", "q", false, i18n.T("cmd.root.flag.quiet"))
	flags.BoolP("debug", "d", false, i18n.T("cmd.root.flag.debug"))
	flags.Bool("perf", false, i18n.T("cmd.root.flag.perf"))
	flags.String("perf-out-dir", "", i18n.T("cmd.root.flag.perf_out_dir"))

	rootCmd.SetVersionTemplate("{{.Version}}\n")
	rootCmd.SetHelpTemplate(rootCmd.HelpTemplate() + "\n" + environment.HelpURL() + "\n")
	rootCmd.AddCommand(merge.Command())
	rootCmd.AddCommand(reshape.Command())
	rootCmd.AddCommand(bundles.Command())
	rootCmd.AddCommand(setup.Command())
	rootCmd.AddCommand(version.Command())

	translateDefaultHelpFacilities(rootCmd)
	fixFlagUsageAlignment(rootCmd)

	return rootCmd
}

func translateDefaultHelpFacilities(rootCmd *cobra.Command) {
	subcommands := rootCmd.Commands()
	allCommands := make([]*cobra.Command, 0, len(subcommands)+1)
	allCommands = append(allCommands, rootCmd)
	allCommands = append(allCommands, subcommands...)

	for _, cmd := range allCommands {
		cmd.InitDefaultHelpFlag()
		cmd.Flags().Lookup("help").Usage = i18n.T("cmd.help.template", i18n.With(i18n.TData{"command": cmd.Name()}))
	}

	rootCmd.InitDefaultHelpCmd()
	helpCmd, _, err := rootCmd.Find([]string{"help"})
	if err != nil {
		return
	}

	helpCmd.Short = i18n.T("cmd.help.usage.short")
	helpCmd.Long = i18n.T("cmd.help.usage.long", i18n.With(i18n.TData{"appName": rootCmd.Name()}))
	helpCmd.Run = func(c *cobra.Command, args []string) {
		cmd, _, err := c.Root().Find(args)
		if cmd == nil || err != nil {
			c.PrintErrln(i18n.T("cmd.help.error", i18n.With(i18n.TData{"topic": fmt.Sprintf("%#q", args)})) + "\n")
			cobra.CheckErr(c.Root().Usage())
			return
		}
		cmd.InitDefaultHelpFlag()
		cmd.InitDefaultVersionFlag()
		cobra.CheckErr(cmd.Help())
	}
}

func fixFlagUsageAlignment(rootCmd *cobra.Command) {
	usageTemplate := rootCmd.UsageTemplate()
	usageTemplate = strings.ReplaceAll(usageTemplate, ".FlagUsages", fmt.Sprintf(".FlagUsagesWrapped %d", tui.Width(os.Stdout)))
	rootCmd.SetUsageTemplate(usageTemplate)
}

func Execute() error {
	return ExecuteContext(context.Background())
}

func ExecuteContext(ctx context.Context) error {
	return Command().ExecuteContext(ctx)
}

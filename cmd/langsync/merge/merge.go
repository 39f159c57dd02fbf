package merge

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/dysgraphia-support/langsync/internal/bundles"
	"github.com/dysgraphia-support/langsync/internal/config"
	"github.com/dysgraphia-support/langsync/internal/environment"
	"github.com/dysgraphia-support/langsync/internal/i18n"
	"github.com/dysgraphia-support/langsync/internal/locale"
	"github.com/dysgraphia-support/langsync/internal/logger"
	"github.com/dysgraphia-support/langsync/internal/perf"
	"github.com/dysgraphia-support/langsync/internal/telemetry"
	"github.com/dysgraphia-support/langsync/internal/tui"
)

type mergeOptions struct {
	ConfigPath   string
	BaseDir      string
	Bundle       string
	BundleFile   string
	Locales      []string
	SkipExisting bool
	SortKeys     bool
	DryRun       bool
	Strict       bool
	Indent       int
}

type mergeDeps struct {
	fs         afero.Fs
	logger     *logger.Logger
	telemetry  func(telemetry.CommandTelemetry)
	baseDirEnv func() (string, bool)
	colorize   bool
}

func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge",
		Short: i18n.T("cmd.merge.short"),
		Long:  i18n.T("cmd.merge.long"),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, span := perf.StartSpan(cmd.Context(), "app.command.merge")

			opts, quiet, debug, err := readFlags(cmd)
			if err != nil {
				perf.EndSpan(span, err)
				return err
			}

			deps := mergeDeps{
				fs:         afero.NewOsFs(),
				logger:     logger.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), quiet, debug),
				telemetry:  telemetry.RecordCommand,
				baseDirEnv: environment.BaseDir,
				colorize:   tui.IsTerminalWriter(cmd.OutOrStdout()),
			}

			report, err := runMerge(ctx, opts, deps)
			span.SetAttributes(
				attribute.Int("merge.succeeded", report.Succeeded()),
				attribute.Int("merge.failed", report.Failed()),
			)
			perf.EndSpan(span, err)

			payload := telemetry.CommandTelemetry{
				Command: "merge",
				Success: err == nil,
				Error:   err,
				Arguments: map[string]interface{}{
					"bundle":       opts.Bundle,
					"bundleFile":   opts.BundleFile != "",
					"locales":      opts.Locales,
					"skipExisting": opts.SkipExisting,
					"sortKeys":     opts.SortKeys,
					"dryRun":       opts.DryRun,
					"strict":       opts.Strict,
				},
				Extra: map[string]interface{}{
					"succeeded":   report.Succeeded(),
					"failed":      report.Failed(),
					"skipped":     report.WithoutEntries(),
					"keysUpdated": report.KeysUpdated(),
				},
			}
			if err != nil {
				payload.ExitCode = 1
			}
			deps.telemetry(payload)

			return err
		},
	}

	cmd.Flags().String("bundle", "", i18n.T("cmd.merge.flag.bundle"))
	cmd.Flags().String("bundle-file", "", i18n.T("cmd.merge.flag.bundle_file"))
	cmd.Flags().StringSlice("locale", nil, i18n.T("cmd.merge.flag.locale"))
	cmd.Flags().Bool("skip-existing", false, i18n.T("cmd.merge.flag.skip_existing"))
	cmd.Flags().Bool("sort-keys", false, i18n.T("cmd.merge.flag.sort_keys"))
	cmd.Flags().BoolP("dry-run", "n", false, i18n.T("cmd.merge.flag.dry_run"))
	cmd.Flags().Int("indent", 0, i18n.T("cmd.merge.flag.indent"))
	cmd.Flags().Bool("strict", false, i18n.T("cmd.merge.flag.strict"))
	cmd.Flags().String("base-dir", "", i18n.T("cmd.merge.flag.base_dir"))

	return cmd
}

func readFlags(cmd *cobra.Command) (opts mergeOptions, quiet bool, debug bool, err error) {
	flags := cmd.Flags()

	if opts.ConfigPath, err = flags.GetString("config"); err != nil {
		return
	}
	if quiet, err = flags.GetBool("quiet"); err != nil {
		return
	}
	if debug, err = flags.GetBool("debug"); err != nil {
		return
	}
	if opts.Bundle, err = flags.GetString("bundle"); err != nil {
		return
	}
	if opts.BundleFile, err = flags.GetString("bundle-file"); err != nil {
		return
	}
	if opts.Locales, err = flags.GetStringSlice("locale"); err != nil {
		return
	}
	if opts.SkipExisting, err = flags.GetBool("skip-existing"); err != nil {
		return
	}
	if opts.SortKeys, err = flags.GetBool("sort-keys"); err != nil {
		return
	}
	if opts.DryRun, err = flags.GetBool("dry-run"); err != nil {
		return
	}
	if opts.Indent, err = flags.GetInt("indent"); err != nil {
		return
	}
	if opts.Strict, err = flags.GetBool("strict"); err != nil {
		return
	}
	opts.BaseDir, err = flags.GetString("base-dir")
	return
}

func runMerge(ctx context.Context, opts mergeOptions, deps mergeDeps) (locale.RunReport, error) {
	if opts.Indent < 0 {
		return locale.RunReport{}, errors.New(i18n.T("cmd.merge.error.indent"))
	}

	bundle, err := loadBundle(deps.fs, opts)
	if err != nil {
		return locale.RunReport{}, err
	}

	meta := config.NewMetadata(opts.ConfigPath)
	settings, found, err := config.ReadConfig(ctx, deps.fs, meta)
	if err != nil {
		return locale.RunReport{}, err
	}
	if !found {
		deps.logger.Debug(i18n.T("cmd.merge.config_defaults", i18n.With(i18n.TData{"path": opts.ConfigPath})))
	}

	baseDir := meta.BaseDir(settings, baseDirOverride(opts, deps))
	deps.logger.Debug(i18n.T("cmd.merge.base_dir", i18n.With(i18n.TData{"path": baseDir})))

	targets, err := config.Targets(settings, baseDir, opts.Locales)
	if err != nil {
		return locale.RunReport{}, err
	}

	if opts.DryRun {
		deps.logger.Log(i18n.T("cmd.merge.dry_run_notice"), false)
	}

	report := locale.Run(ctx, deps.fs, targets, bundle, locale.Options{
		SkipExisting: opts.SkipExisting,
		SortKeys:     opts.SortKeys,
		DryRun:       opts.DryRun,
		Indent:       opts.Indent,
	}, func(outcome locale.Outcome) {
		reportOutcome(outcome, bundle.Name, deps)
	})

	deps.logger.Log("", false)
	deps.logger.Log(tui.Render(tui.TitleStyle, i18n.T("cmd.merge.summary.title"), deps.colorize), false)
	deps.logger.Log(i18n.T("cmd.merge.summary", i18n.With(i18n.TData{
		"succeeded": report.Succeeded(),
		"attempted": report.Attempted(),
		"failed":    report.Failed(),
	})), false)

	return report, exitError(ctx, report, opts.Strict)
}

func baseDirOverride(opts mergeOptions, deps mergeDeps) string {
	if strings.TrimSpace(opts.BaseDir) != "" {
		return opts.BaseDir
	}
	if deps.baseDirEnv == nil {
		return ""
	}
	if dir, ok := deps.baseDirEnv(); ok {
		return dir
	}
	return ""
}

func loadBundle(fs afero.Fs, opts mergeOptions) (*bundles.Bundle, error) {
	switch {
	case opts.Bundle != "" && opts.BundleFile != "":
		return nil, errors.New(i18n.T("cmd.merge.error.bundle_conflict"))
	case opts.Bundle != "":
		return bundles.Load(opts.Bundle)
	case opts.BundleFile != "":
		return bundles.LoadFile(fs, opts.BundleFile)
	default:
		return nil, errors.New(i18n.T("cmd.merge.error.no_bundle"))
	}
}

func reportOutcome(outcome locale.Outcome, bundleName string, deps mergeDeps) {
	file := outcome.Target.Name()

	switch {
	case outcome.Err != nil:
		deps.logger.Error(tui.ErrorIcon(deps.colorize) + " " + i18n.T("cmd.merge.failure", i18n.With(i18n.TData{
			"file":  file,
			"error": outcome.Err.Error(),
		})))
	case outcome.NoEntries:
		deps.logger.Log(tui.SkipIcon(deps.colorize)+" "+i18n.T("cmd.merge.no_entries", i18n.With(i18n.TData{
			"file":   file,
			"bundle": bundleName,
			"locale": outcome.Target.Locale,
		})), false)
	default:
		for _, key := range outcome.Result.SkippedKeys {
			deps.logger.Debug(i18n.T("cmd.merge.skipped_key", i18n.With(i18n.TData{"file": file, "key": key})))
		}

		messageKey := "cmd.merge.success"
		if outcome.Result.DryRun {
			messageKey = "cmd.merge.dry_run_success"
		}
		deps.logger.Log(tui.SuccessIcon(deps.colorize)+" "+i18n.T(messageKey, i18n.Tvars{
			Count: outcome.Result.Updated(),
			Data: &i18n.TData{
				"file":  file,
				"total": outcome.Result.Total,
			},
		}), false)
	}
}

// exitError decides whether the run fails the process: when it was
// interrupted, when every attempted file failed, or in strict mode when any
// file failed.
func exitError(ctx context.Context, report locale.RunReport, strict bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if report.AllFailed() {
		return errors.New(i18n.T("cmd.merge.error.all_failed"))
	}
	if strict && report.Failed() > 0 {
		return errors.New(i18n.T("cmd.merge.error.some_failed", i18n.Tvars{Count: report.Failed()}))
	}
	return nil
}

package reshape

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/dysgraphia-support/langsync/internal/cities"
	"github.com/dysgraphia-support/langsync/internal/i18n"
	"github.com/dysgraphia-support/langsync/internal/logger"
	"github.com/dysgraphia-support/langsync/internal/perf"
	"github.com/dysgraphia-support/langsync/internal/telemetry"
	"github.com/dysgraphia-support/langsync/internal/tui"
)

const (
	defaultInputPath  = "temp_algeria_data/json/algeria_cities.json"
	defaultOutputPath = "database/seeders/data/cities.json"
)

type reshapeOptions struct {
	Input        string
	Output       string
	SummaryLimit int
	Quiet        bool
}

type reshapeDeps struct {
	fs        afero.Fs
	logger    *logger.Logger
	telemetry func(telemetry.CommandTelemetry)
	in        io.Reader
	out       io.Writer
	colorize  bool
}

func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reshape-cities",
		Aliases: []string{"cities"},
		Short:   i18n.T("cmd.reshape.short"),
		Long:    i18n.T("cmd.reshape.long"),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, span := perf.StartSpan(cmd.Context(), "app.command.reshape-cities")

			opts, debug, err := readFlags(cmd)
			if err != nil {
				perf.EndSpan(span, err)
				return err
			}

			deps := reshapeDeps{
				fs:        afero.NewOsFs(),
				logger:    logger.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), opts.Quiet, debug),
				telemetry: telemetry.RecordCommand,
				in:        cmd.InOrStdin(),
				out:       cmd.OutOrStdout(),
				colorize:  tui.IsTerminalWriter(cmd.OutOrStdout()),
			}

			report, err := runReshape(ctx, opts, deps)
			span.SetAttributes(attribute.Int("cities.records", report.Count()))
			perf.EndSpan(span, err)

			payload := telemetry.CommandTelemetry{
				Command: "reshape-cities",
				Success: err == nil,
				Error:   err,
				Arguments: map[string]interface{}{
					"customInput":  opts.Input != defaultInputPath,
					"customOutput": opts.Output != defaultOutputPath,
					"summaryLimit": opts.SummaryLimit,
				},
				Extra: map[string]interface{}{
					"records": report.Count(),
				},
			}
			if err != nil {
				payload.ExitCode = 1
			}
			deps.telemetry(payload)

			return err
		},
	}

	cmd.Flags().StringP("input", "i", defaultInputPath, i18n.T("cmd.reshape.flag.input"))
	cmd.Flags().StringP("output", "o", defaultOutputPath, i18n.T("cmd.reshape.flag.output"))
	cmd.Flags().Int("summary-limit", cities.DefaultSummaryLimit, i18n.T("cmd.reshape.flag.summary_limit"))

	return cmd
}

func readFlags(cmd *cobra.Command) (opts reshapeOptions, debug bool, err error) {
	flags := cmd.Flags()

	if opts.Quiet, err = flags.GetBool("quiet"); err != nil {
		return
	}
	if debug, err = flags.GetBool("debug"); err != nil {
		return
	}
	if opts.Input, err = flags.GetString("input"); err != nil {
		return
	}
	if opts.Output, err = flags.GetString("output"); err != nil {
		return
	}
	opts.SummaryLimit, err = flags.GetInt("summary-limit")
	return
}

func runReshape(ctx context.Context, opts reshapeOptions, deps reshapeDeps) (cities.Report, error) {
	if opts.SummaryLimit < 0 {
		return cities.Report{}, errors.New(i18n.T("cmd.reshape.error.summary_limit"))
	}

	report, err := cities.Reshape(ctx, deps.fs, opts.Input, opts.Output)
	if err != nil {
		return report, err
	}

	deps.logger.Log(tui.SuccessIcon(deps.colorize)+" "+i18n.T("cmd.reshape.success", i18n.With(i18n.TData{
		"count": report.Count(),
		"input": report.InputPath,
	})), false)
	deps.logger.Log(i18n.T("cmd.reshape.saved", i18n.With(i18n.TData{"path": report.OutputPath})), false)

	summary := cities.Summarize(report.Source, report.Cities, opts.SummaryLimit)
	view := renderSummary(summary, opts.SummaryLimit, deps.colorize)
	deps.logger.Log("", false)

	err = tui.Show(view, opts.Quiet, deps.in, deps.out, func(text string) {
		deps.logger.Log(text, false)
	})
	return report, err
}

func renderSummary(summary cities.Summary, limit int, colorize bool) string {
	title := i18n.T("cmd.reshape.summary.title_all")
	if limit > 0 && summary.Provinces > limit {
		title = i18n.T("cmd.reshape.summary.title", i18n.With(i18n.TData{"limit": limit}))
	}

	lines := []string{tui.Render(tui.TitleStyle, title, colorize)}
	for _, row := range summary.Rows {
		line := i18n.T("cmd.reshape.summary.row", i18n.With(i18n.TData{
			"code":  row.Code,
			"name":  row.Name,
			"count": row.Count,
		}))
		lines = append(lines, tui.SummaryStyle.Render(line))
	}
	lines = append(lines, tui.Render(tui.CodeStyle, i18n.T("cmd.reshape.summary.total", i18n.With(i18n.TData{
		"total":     summary.Total,
		"provinces": summary.Provinces,
	})), colorize))

	return strings.Join(lines, "\n")
}

package locale

import (
	"context"

	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"

	"github.com/dysgraphia-support/langsync/internal/perf"
)

// Target is one locale file of the configured table.
type Target struct {
	Locale string
	// Path is where the file is read and written.
	Path string
	// Display is the path shown to the user, usually relative to the base directory.
	Display string
}

func (target Target) Name() string {
	if target.Display != "" {
		return target.Display
	}
	return target.Path
}

// EntrySource yields the entries to merge for a locale.
type EntrySource interface {
	EntriesFor(locale string) ([]Entry, bool)
}

// Outcome is what happened to one target.
type Outcome struct {
	Target Target
	Result Result
	Err    error
	// NoEntries is set when the source had nothing for the target's locale.
	NoEntries bool
}

func (outcome Outcome) Succeeded() bool {
	return outcome.Err == nil && !outcome.NoEntries
}

type Reporter func(Outcome)

type RunReport struct {
	Outcomes []Outcome
}

func (report RunReport) Succeeded() int {
	count := 0
	for _, outcome := range report.Outcomes {
		if outcome.Succeeded() {
			count++
		}
	}
	return count
}

func (report RunReport) Failed() int {
	count := 0
	for _, outcome := range report.Outcomes {
		if outcome.Err != nil {
			count++
		}
	}
	return count
}

func (report RunReport) WithoutEntries() int {
	count := 0
	for _, outcome := range report.Outcomes {
		if outcome.NoEntries {
			count++
		}
	}
	return count
}

// Attempted counts targets that had entries to merge.
func (report RunReport) Attempted() int {
	return len(report.Outcomes) - report.WithoutEntries()
}

// AllFailed reports whether at least one target was attempted and none succeeded.
func (report RunReport) AllFailed() bool {
	return report.Attempted() > 0 && report.Failed() == report.Attempted()
}

func (report RunReport) KeysUpdated() int {
	count := 0
	for _, outcome := range report.Outcomes {
		count += outcome.Result.Updated()
	}
	return count
}

// Run merges source into every target in order. A failing target never
// stops the run: each outcome is passed to report as soon as it is known
// and collected in the returned RunReport. Once ctx is done the remaining
// targets are reported with the context error.
func Run(ctx context.Context, fs afero.Fs, targets []Target, source EntrySource, opts Options, report Reporter) RunReport {
	ctx, span := perf.StartSpan(ctx, "locale.run", attribute.Int("locale.targets", len(targets)))
	defer span.End()

	if report == nil {
		report = func(Outcome) {}
	}

	runReport := RunReport{Outcomes: make([]Outcome, 0, len(targets))}
	for _, target := range targets {
		outcome := runTarget(ctx, fs, target, source, opts)
		runReport.Outcomes = append(runReport.Outcomes, outcome)
		report(outcome)
	}

	span.SetAttributes(
		attribute.Int("locale.succeeded", runReport.Succeeded()),
		attribute.Int("locale.failed", runReport.Failed()),
	)
	return runReport
}

func runTarget(ctx context.Context, fs afero.Fs, target Target, source EntrySource, opts Options) Outcome {
	outcome := Outcome{Target: target, Result: Result{Path: target.Path, DryRun: opts.DryRun}}

	if err := ctx.Err(); err != nil {
		outcome.Err = err
		return outcome
	}

	entries, ok := source.EntriesFor(target.Locale)
	if !ok || len(entries) == 0 {
		outcome.NoEntries = true
		return outcome
	}

	outcome.Result, outcome.Err = MergeLocale(ctx, fs, target.Path, entries, opts)
	return outcome
}

// EntryMap is an EntrySource backed by a plain map.
type EntryMap map[string][]Entry

func (entryMap EntryMap) EntriesFor(locale string) ([]Entry, bool) {
	entries, ok := entryMap[locale]
	return entries, ok
}

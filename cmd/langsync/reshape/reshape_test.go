package reshape

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dysgraphia-support/langsync/internal/cities"
	"github.com/dysgraphia-support/langsync/internal/logger"
	"github.com/dysgraphia-support/langsync/internal/telemetry"
)

func dataset(count int) string {
	records := make([]string, 0, count)
	for i := 0; i < count; i++ {
		records = append(records, fmt.Sprintf(
			`{"id": %d, "wilaya_code": "%02d", "wilaya_name_ascii": "Wilaya %d", "commune_name": "بلدية %d", "commune_name_ascii": "Commune %d"}`,
			i+1, i%12+1, i%12+1, i, i,
		))
	}
	return "[" + strings.Join(records, ",") + "]"
}

func newDeps(t *testing.T, fs afero.Fs) (reshapeDeps, *bytes.Buffer, *[]telemetry.CommandTelemetry) {
	t.Helper()
	t.Setenv("LANGSYNC_TEST", "true")

	out := &bytes.Buffer{}
	recorded := &[]telemetry.CommandTelemetry{}
	return reshapeDeps{
		fs:     fs,
		logger: logger.New(out, out, false, false),
		telemetry: func(payload telemetry.CommandTelemetry) {
			*recorded = append(*recorded, payload)
		},
		in:  &bytes.Buffer{},
		out: out,
	}, out, recorded
}

func TestRunReshapeWritesSeedFileAndSummary(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/data/algeria_cities.json", []byte(dataset(30)), 0644))
	deps, out, _ := newDeps(t, fs)

	report, err := runReshape(context.Background(), reshapeOptions{
		Input:        "/data/algeria_cities.json",
		Output:       "/app/database/seeders/data/cities.json",
		SummaryLimit: 10,
	}, deps)
	require.NoError(t, err)

	assert.Equal(t, 30, report.Count())
	exists, err := afero.Exists(fs, "/app/database/seeders/data/cities.json")
	require.NoError(t, err)
	assert.True(t, exists)

	output := out.String()
	assert.Contains(t, output, "cmd.reshape.success")
	assert.Contains(t, output, "cmd.reshape.saved")
	assert.Contains(t, output, "cmd.reshape.summary.title, Arg 1: {Count: 0, Data: &map[limit:10]}")
	assert.Equal(t, 10, strings.Count(output, "cmd.reshape.summary.row"))
	assert.Contains(t, output, "&map[provinces:12 total:30]")
}

func TestRunReshapeSummaryLimitZeroListsEveryProvince(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/in.json", []byte(dataset(30)), 0644))
	deps, out, _ := newDeps(t, fs)

	_, err := runReshape(context.Background(), reshapeOptions{Input: "/in.json", Output: "/out.json"}, deps)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "cmd.reshape.summary.title_all")
	assert.Equal(t, 12, strings.Count(out.String(), "cmd.reshape.summary.row"))
}

func TestRunReshapeRejectsNegativeSummaryLimit(t *testing.T) {
	fs := afero.NewMemMapFs()
	deps, _, _ := newDeps(t, fs)

	_, err := runReshape(context.Background(), reshapeOptions{Input: "/in.json", Output: "/out.json", SummaryLimit: -1}, deps)

	assert.ErrorContains(t, err, "cmd.reshape.error.summary_limit")
}

func TestRunReshapeMissingInputWritesNothing(t *testing.T) {
	fs := afero.NewMemMapFs()
	deps, out, _ := newDeps(t, fs)

	_, err := runReshape(context.Background(), reshapeOptions{Input: "/missing.json", Output: "/out.json"}, deps)

	assert.ErrorIs(t, err, &cities.ReadError{})
	exists, existsErr := afero.Exists(fs, "/out.json")
	require.NoError(t, existsErr)
	assert.False(t, exists)
	assert.NotContains(t, out.String(), "cmd.reshape.success")
}

func TestRunReshapeMalformedRecordWritesNothing(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/in.json", []byte(`[{"wilaya_code": "01", "commune_name": "أدرار"}]`), 0644))
	deps, _, _ := newDeps(t, fs)

	_, err := runReshape(context.Background(), reshapeOptions{Input: "/in.json", Output: "/out.json"}, deps)

	var schemaErr *cities.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, 0, schemaErr.Index)
	exists, existsErr := afero.Exists(fs, "/out.json")
	require.NoError(t, existsErr)
	assert.False(t, exists)
}

func TestRenderSummarySnapshot(t *testing.T) {
	t.Setenv("LANGSYNC_TEST", "true")

	summary := cities.Summary{
		Rows: []cities.SummaryRow{
			{Code: "01", Name: "Adrar", Count: 16},
			{Code: "02", Name: "Chlef", Count: 35},
		},
		Total:     51,
		Provinces: 2,
	}

	snaps.MatchSnapshot(t, renderSummary(summary, cities.DefaultSummaryLimit, false))
}

func TestCommandReshapesDataset(t *testing.T) {
	t.Setenv("LANGSYNC_TEST", "true")

	fs := afero.NewOsFs()
	tempDir := t.TempDir()
	input := filepath.Join(tempDir, "algeria_cities.json")
	output := filepath.Join(tempDir, "seed", "cities.json")
	require.NoError(t, afero.WriteFile(fs, input, []byte(dataset(3)), 0644))

	cmd := Command()
	addPersistentFlagsForTesting(cmd)
	out := &bytes.Buffer{}
	cmd.SetIn(&bytes.Buffer{})
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"--input", input, "--output", output, "--summary-limit", "0"})

	require.NoError(t, cmd.Execute())

	written, err := cities.ReadSource(context.Background(), fs, input)
	require.NoError(t, err)
	assert.Len(t, written, 3)

	raw, err := afero.ReadFile(fs, output)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "[\n  {\n    \"province_code\": \"01\""))
	assert.Contains(t, out.String(), "cmd.reshape.summary.title_all")
}

func TestCommandUsesDefaultPaths(t *testing.T) {
	t.Setenv("LANGSYNC_TEST", "true")

	cmd := Command()
	input, err := cmd.Flags().GetString("input")
	require.NoError(t, err)
	output, err := cmd.Flags().GetString("output")
	require.NoError(t, err)
	limit, err := cmd.Flags().GetInt("summary-limit")
	require.NoError(t, err)

	assert.Equal(t, "temp_algeria_data/json/algeria_cities.json", input)
	assert.Equal(t, "database/seeders/data/cities.json", output)
	assert.Equal(t, cities.DefaultSummaryLimit, limit)
}

func TestCommandMissingQuietFlagErrors(t *testing.T) {
	runE := Command().RunE
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	assert.Error(t, runE(cmd, nil))
}

func addPersistentFlagsForTesting(cmd *cobra.Command) {
	cmd.PersistentFlags().StringP("config", "c", "./langsync.json", "An alternative JSON file containing the configuration")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress all output")
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug messages")
}

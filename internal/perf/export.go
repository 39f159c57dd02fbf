package perf

import (
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/afero"

	"github.com/dysgraphia-support/langsync/internal/constants"
)

type exportEntry struct {
	Name           string                 `json:"name"`
	SpanID         string                 `json:"span_id"`
	ParentSpanID   string                 `json:"parent_span_id,omitempty"`
	StartTimestamp time.Time              `json:"start_timestamp"`
	DurationNS     int64                  `json:"duration_ns"`
	Attributes     map[string]interface{} `json:"attributes,omitempty"`
}

// ExportToFile writes spans as JSON to <outDir>/langsync-perf.json. Absolute
// paths in path-like attributes are rewritten relative to baseDir so the
// artifact stays portable.
//
// Callers treat a returned error as non-fatal.
func ExportToFile(fs afero.Fs, outDir string, baseDir string, spans []SpanSnapshot) (string, error) {
	if outDir == "" {
		outDir = "."
	}

	if err := fs.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(outDir, constants.PerfExportFilename)
	data, err := json.MarshalIndent(exportSpans(spans, baseDir), "", "  ")
	if err != nil {
		return "", err
	}

	return path, afero.WriteFile(fs, path, data, 0o644)
}

func exportSpans(spans []SpanSnapshot, baseDir string) []exportEntry {
	exported := make([]exportEntry, 0, len(spans))
	for _, span := range spans {
		exported = append(exported, exportEntry{
			Name:           span.Name,
			SpanID:         span.SpanID,
			ParentSpanID:   span.ParentSpanID,
			StartTimestamp: span.StartTime,
			DurationNS:     span.EndTime.Sub(span.StartTime).Nanoseconds(),
			Attributes:     normalizeAttributes(span.Attributes, baseDir),
		})
	}
	return exported
}

func normalizeAttributes(attrs map[string]interface{}, baseDir string) map[string]interface{} {
	if len(attrs) == 0 {
		return attrs
	}

	normalized := make(map[string]interface{}, len(attrs))
	for key, value := range attrs {
		normalized[key] = normalizeValue(key, value, baseDir)
	}
	return normalized
}

func normalizeValue(key string, value interface{}, baseDir string) interface{} {
	stringValue, ok := value.(string)
	if !ok || !looksLikePathKey(key) {
		return value
	}

	if baseDir != "" && filepath.IsAbs(stringValue) {
		rel, err := filepath.Rel(baseDir, stringValue)
		if err == nil {
			return exportPath(rel)
		}
	}

	return exportPath(stringValue)
}

func looksLikePathKey(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	return key == "path" || strings.HasSuffix(key, "_path") || strings.HasSuffix(key, ".path")
}

func exportPath(value string) string {
	cleaned := filepath.Clean(value)
	if cleaned == "." {
		return cleaned
	}
	return filepath.ToSlash(strings.TrimPrefix(cleaned, "./"))
}

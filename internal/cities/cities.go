// Package cities reshapes the Algeria communes dataset into seed records.
package cities

import (
	"bytes"
	"context"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"

	"github.com/dysgraphia-support/langsync/internal/fileutils"
	"github.com/dysgraphia-support/langsync/internal/perf"
)

const (
	fieldWilayaCode       = "wilaya_code"
	fieldCommuneName      = "commune_name"
	fieldCommuneNameASCII = "commune_name_ascii"
	fieldWilayaName       = "wilaya_name"
)

// SourceRecord is one commune of the upstream dataset. Other fields of the
// dataset are ignored.
type SourceRecord struct {
	WilayaCode       string
	CommuneName      string
	CommuneNameASCII string
	// WilayaName is optional and only used to label summaries.
	WilayaName string
}

// City is the seed-data shape.
type City struct {
	ProvinceCode string `json:"province_code"`
	NameAr       string `json:"name_ar"`
	NameEn       string `json:"name_en"`
}

type Report struct {
	InputPath  string
	OutputPath string
	Source     []SourceRecord
	Cities     []City
}

func (report Report) Count() int {
	return len(report.Cities)
}

// Project maps every source record to a City, keeping order.
func Project(records []SourceRecord) []City {
	cities := make([]City, 0, len(records))
	for _, record := range records {
		cities = append(cities, City{
			ProvinceCode: record.WilayaCode,
			NameAr:       record.CommuneName,
			NameEn:       record.CommuneNameASCII,
		})
	}
	return cities
}

// Reshape reads the dataset at inputPath, projects it and writes the result
// to outputPath. Nothing is written when the input is unreadable or a record
// is malformed.
func Reshape(ctx context.Context, fs afero.Fs, inputPath string, outputPath string) (Report, error) {
	ctx, span := perf.StartSpan(ctx, "cities.reshape",
		attribute.String("cities.input_path", inputPath),
		attribute.String("cities.output_path", outputPath),
	)

	report := Report{InputPath: inputPath, OutputPath: outputPath}
	source, err := ReadSource(ctx, fs, inputPath)
	if err == nil {
		report.Source = source
		report.Cities = Project(source)
		err = WriteCities(ctx, fs, outputPath, report.Cities)
	}

	span.SetAttributes(attribute.Int("cities.records", report.Count()))
	perf.EndSpan(span, err)
	return report, err
}

// ReadSource parses the upstream JSON array.
func ReadSource(ctx context.Context, fs afero.Fs, path string) ([]SourceRecord, error) {
	_, span := perf.StartSpan(ctx, "io.cities.read", attribute.String("cities.path", path))
	records, err := readSource(fs, path)
	perf.EndSpan(span, err)
	return records, err
}

func readSource(fs afero.Fs, path string) ([]SourceRecord, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	return ParseSource(path, data)
}

// ParseSource decodes the dataset document. path is only used in errors.
func ParseSource(path string, data []byte) ([]SourceRecord, error) {
	if !gjson.ValidBytes(data) {
		return nil, &ReadError{Path: path, Err: errors.New("not valid JSON")}
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, &ReadError{Path: path, Err: errors.New("top-level value is not a JSON array")}
	}

	items := root.Array()
	records := make([]SourceRecord, 0, len(items))
	for index, item := range items {
		record, err := parseRecord(index, item)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func parseRecord(index int, item gjson.Result) (SourceRecord, error) {
	if !item.IsObject() {
		return SourceRecord{}, &SchemaError{Index: index, Reason: "is not a JSON object"}
	}

	required := func(field string) (string, error) {
		value := item.Get(field)
		if !value.Exists() {
			return "", &SchemaError{Index: index, Field: field, Reason: "is missing"}
		}
		if value.Type != gjson.String {
			return "", &SchemaError{Index: index, Field: field, Reason: "is not a string"}
		}
		return value.String(), nil
	}

	var record SourceRecord
	var err error
	if record.WilayaCode, err = required(fieldWilayaCode); err != nil {
		return record, err
	}
	if record.CommuneName, err = required(fieldCommuneName); err != nil {
		return record, err
	}
	if record.CommuneNameASCII, err = required(fieldCommuneNameASCII); err != nil {
		return record, err
	}

	if name := item.Get(fieldWilayaName); name.Type == gjson.String {
		record.WilayaName = name.String()
	}
	return record, nil
}

// Encode renders cities as a two-space indented array with non-ASCII text
// and HTML characters written literally.
func Encode(cities []City) ([]byte, error) {
	if cities == nil {
		cities = []City{}
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(cities); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// WriteCities replaces the file at path, creating missing parent directories.
func WriteCities(ctx context.Context, fs afero.Fs, path string, cities []City) error {
	_, span := perf.StartSpan(ctx, "io.cities.write",
		attribute.String("cities.path", path),
		attribute.Int("cities.records", len(cities)),
	)
	err := writeCities(fs, path, cities)
	perf.EndSpan(span, err)
	return err
}

func writeCities(fs afero.Fs, path string, cities []City) error {
	data, err := Encode(cities)
	if err != nil {
		return &WriteError{Path: path, Err: errors.Wrap(err, "encode")}
	}
	if err := fileutils.EnsureParentDir(fs, path); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	if err := fileutils.WriteFileAtomic(fs, path, data, fileutils.DefaultFileMode); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

package cities

import "sort"

const (
	DefaultSummaryLimit = 10
	UnknownProvince     = "Unknown"
)

// SummaryRow is the commune count of one province.
type SummaryRow struct {
	Code  string
	Name  string
	Count int
}

type Summary struct {
	Rows []SummaryRow
	// Total is the number of projected records.
	Total int
	// Provinces is the number of distinct province codes.
	Provinces int
}

// Summarize groups cities by province code in ascending code order and
// keeps the first limit groups. A limit of zero or less keeps them all.
// Province names come from the first source record carrying the code.
func Summarize(source []SourceRecord, cities []City, limit int) Summary {
	counts := make(map[string]int)
	for _, city := range cities {
		counts[city.ProvinceCode]++
	}

	codes := make([]string, 0, len(counts))
	for code := range counts {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	if limit > 0 && len(codes) > limit {
		codes = codes[:limit]
	}

	rows := make([]SummaryRow, 0, len(codes))
	for _, code := range codes {
		rows = append(rows, SummaryRow{
			Code:  code,
			Name:  provinceName(source, code),
			Count: counts[code],
		})
	}

	return Summary{
		Rows:      rows,
		Total:     len(cities),
		Provinces: len(counts),
	}
}

func provinceName(source []SourceRecord, code string) string {
	for _, record := range source {
		if record.WilayaCode == code {
			if record.WilayaName == "" {
				return UnknownProvince
			}
			return record.WilayaName
		}
	}
	return UnknownProvince
}

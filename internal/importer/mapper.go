package importer

import (
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/Tom21-xd/Uceva-sub002/internal/models"
)

// Import field keys understood by the backend.
const (
	FieldYear       = "year"
	FieldWeek       = "semana"
	FieldDate       = "fecha"
	FieldAge        = "edad"
	FieldSex        = "sexo"
	FieldNeighbor   = "barrio"
	FieldCommune    = "comuna"
	FieldLatitude   = "latitud"
	FieldLongitude  = "longitud"
	FieldDengueType = "tipo_dengue"
	FieldHospital   = "hospital"
)

// keywordRule maps header substrings to a field. Rules are tried in order and
// the first match wins for a column.
type keywordRule struct {
	field    string
	keywords []string
}

var keywordTable = []keywordRule{
	{FieldYear, []string{"año", "anio", "year"}},
	{FieldWeek, []string{"semana", "week"}},
	{FieldDate, []string{"fecha", "date"}},
	{FieldAge, []string{"edad", "age"}},
	{FieldSex, []string{"sexo", "genero", "género", "sex"}},
	{FieldNeighbor, []string{"barrio"}},
	{FieldCommune, []string{"comuna"}},
	{FieldLatitude, []string{"lat"}},
	{FieldLongitude, []string{"lon", "lng"}},
	{FieldDengueType, []string{"tipo", "dengue"}},
	{FieldHospital, []string{"hospital", "ips"}},
}

// FieldLabels display names, also used as template headers.
var FieldLabels = map[string]string{
	FieldYear:       "Año",
	FieldWeek:       "Semana",
	FieldDate:       "Fecha",
	FieldAge:        "Edad",
	FieldSex:        "Sexo",
	FieldNeighbor:   "Barrio",
	FieldCommune:    "Comuna",
	FieldLatitude:   "Latitud",
	FieldLongitude:  "Longitud",
	FieldDengueType: "Tipo de dengue",
	FieldHospital:   "Hospital",
}

// Fields every known field in table order.
func Fields() []string {
	out := make([]string, 0, len(keywordTable))
	for _, r := range keywordTable {
		out = append(out, r.field)
	}
	return out
}

var numericFields = map[string]bool{
	FieldYear: true, FieldWeek: true, FieldAge: true, FieldLatitude: true, FieldLongitude: true,
}

// normalizeHeader lower-cases and NFC-normalises a header cell.
func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	// a Caser is stateful, so one per call
	return norm.NFC.String(cases.Lower(language.Und).String(strings.TrimSpace(h)))
}

// Mapping field -> source column header.
type Mapping map[string]string

// AutoMap proposes a mapping from a header row. Each column takes the first
// rule whose keyword it contains; a field keeps the first column that claimed
// it. Columns matching nothing stay unmapped and are not imported.
func AutoMap(headers []string) Mapping {
	m := Mapping{}
	for _, h := range headers {
		n := normalizeHeader(h)
		if n == "" {
			continue
		}
		field := matchField(n)
		if field == "" {
			continue
		}
		if _, taken := m[field]; taken {
			continue
		}
		m[field] = h
	}
	return m
}

func matchField(normalized string) string {
	for _, rule := range keywordTable {
		for _, kw := range rule.keywords {
			if strings.Contains(normalized, kw) {
				return rule.field
			}
		}
	}
	return ""
}

// Override sets field to column; an empty column removes the field.
func (m Mapping) Override(field, column string) {
	if column == "" {
		delete(m, field)
		return
	}
	m[field] = column
}

// Fields mapped field keys, sorted.
func (m Mapping) Fields() []string {
	out := make([]string, 0, len(m))
	for f := range m {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Clone copy of m.
func (m Mapping) Clone() Mapping {
	out := make(Mapping, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Apply projects table rows through the mapping. It returns the mapped rows,
// the 1-based data-row number of each mapped row, and per-row errors for rows
// that were rejected locally. Blank rows are skipped silently.
func (m Mapping) Apply(t *Table) ([]map[string]string, []int, []models.ImportRowError) {
	index := make(map[string]int, len(t.Headers))
	for i, h := range t.Headers {
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}

	var (
		rows    []map[string]string
		numbers []int
		errs    []models.ImportRowError
	)
	for i, raw := range t.Rows {
		rowNum := i + 1
		row := make(map[string]string, len(m))
		blank := true
		var rowErrs []models.ImportRowError
		for field, column := range m {
			col, ok := index[column]
			if !ok {
				continue
			}
			v := ""
			if col < len(raw) {
				v = strings.TrimSpace(raw[col])
			}
			if v != "" {
				blank = false
			}
			if v != "" && numericFields[field] && !isNumber(v) {
				rowErrs = append(rowErrs, models.ImportRowError{
					Row:     rowNum,
					Field:   field,
					Message: "valor numérico inválido: " + v,
				})
			}
			row[field] = v
		}
		if blank {
			continue
		}
		if len(rowErrs) > 0 {
			sort.Slice(rowErrs, func(a, b int) bool { return rowErrs[a].Field < rowErrs[b].Field })
			errs = append(errs, rowErrs...)
			continue
		}
		rows = append(rows, row)
		numbers = append(numbers, rowNum)
	}
	return rows, numbers, errs
}

func isNumber(v string) bool {
	_, err := strconv.ParseFloat(strings.Replace(v, ",", ".", 1), 64)
	return err == nil
}

// DetectDelimiter picks ';' when a line has more semicolons than commas, ',' otherwise.
func DetectDelimiter(line string) rune {
	if strings.Count(line, ";") > strings.Count(line, ",") {
		return ';'
	}
	return ','
}

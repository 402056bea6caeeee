package normalizer

import "strings"

// Record is one normalized data row, keyed by canonical field name. Every
// header position gets a value; missing trailing cells fill as "".
type Record map[string]string

// Table is the result of one parse: column names in header order plus the
// surviving records. LinesSeen and RowsDropped feed metrics and the refresh
// audit log; they are not part of the data contract.
type Table struct {
	Columns     []string `json:"columns"`
	Records     []Record `json:"records"`
	LinesSeen   int      `json:"lines_seen"`
	RowsDropped int      `json:"rows_dropped"`
}

// DefaultRenames maps canonical header identifiers to the field names the
// views recognize. Unmapped identifiers pass through unchanged.
func DefaultRenames() map[string]string {
	return map[string]string{
		"age":         "age",
		"gender":      "gender",
		"dateofbirth": "dateofbirth",
		"contact":     "contact",
		"systolicbp":  "systolic",
		"diastolicbp": "diastolic",
		"spo2":        "spo2",
		"heartrate":   "heartrate",
		"temperature": "temperature",
		"results":     "results",
		"doctor":      "doctor",
		"name":        "name",
	}
}

// Parser converts raw spreadsheet CSV exports into Tables. The upstream
// exports are unreliable: they re-embed header rows mid-data, emit short and
// blank rows, and carry no quoting. Malformed rows are dropped, never errored.
type Parser struct {
	renames     map[string]string
	minRowRatio float64
}

func NewParser(renames map[string]string, minRowRatio float64) *Parser {
	if renames == nil {
		renames = DefaultRenames()
	}
	if minRowRatio <= 0 || minRowRatio > 1 {
		minRowRatio = 0.7
	}
	return &Parser{renames: renames, minRowRatio: minRowRatio}
}

// Canonicalize reduces a raw header cell to its canonical identifier:
// lowercase with everything outside [a-z0-9] stripped.
func Canonicalize(cell string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(cell)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// fingerprint concatenates the canonicalized cells with no separator. Rows
// whose fingerprint equals the header's are repeated header rows.
func fingerprint(cells []string) string {
	var b strings.Builder
	for _, c := range cells {
		b.WriteString(Canonicalize(c))
	}
	return b.String()
}

// Parse normalizes raw delimited text. Line separator is "\n", field
// separator is ",", with no quoted-field or escape support. The parse is pure
// and never fails on data shape; the worst case is an empty Table.
func (p *Parser) Parse(text string) Table {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}

	table := Table{LinesSeen: len(lines)}
	if len(lines) < 2 {
		return table
	}

	rawHeader := strings.Split(lines[0], ",")
	headerPrint := fingerprint(rawHeader)

	columns := make([]string, len(rawHeader))
	for i, cell := range rawHeader {
		name := Canonicalize(cell)
		if renamed, ok := p.renames[name]; ok {
			name = renamed
		}
		columns[i] = name
	}
	table.Columns = columns

	minCells := p.minRowRatio * float64(len(columns))

	for _, line := range lines[1:] {
		cells := strings.Split(line, ",")

		if float64(len(cells)) < minCells || allBlank(cells) {
			table.RowsDropped++
			continue
		}
		if fingerprint(cells) == headerPrint {
			table.RowsDropped++
			continue
		}

		record := make(Record, len(columns))
		empty := true
		for i, col := range columns {
			value := ""
			if i < len(cells) {
				value = strings.TrimSpace(cells[i])
			}
			if value != "" {
				empty = false
			}
			record[col] = value
		}
		if empty {
			table.RowsDropped++
			continue
		}
		table.Records = append(table.Records, record)
	}

	return table
}

func allBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

package loader

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// errEmptyFile is returned for inputs without a header row.
var errEmptyFile = errors.New("file is empty")

// readTable returns the header row followed by the data rows.
func readTable(path string) ([][]string, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return readWorkbook(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return readDelimited(data)
}

func readWorkbook(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errEmptyFile
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 || isBlankRow(rows[0]) {
		return nil, errEmptyFile
	}
	return rows, nil
}

func readDelimited(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, errors.New("file is not valid UTF-8")
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errEmptyFile
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = detectDelimiter(data)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed delimited data: %w", err)
		}
		rows = append(rows, rec)
	}
	if len(rows) == 0 || isBlankRow(rows[0]) {
		return nil, errEmptyFile
	}

	width := len(rows[0])
	for i, row := range rows[1:] {
		if len(row) > width {
			return nil, fmt.Errorf("line %d has %d fields, header has %d", i+2, len(row), width)
		}
	}
	return rows, nil
}

// detectDelimiter picks the most frequent of ',', ';' and tab on the first
// line. Ties go to the comma.
func detectDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	best, bestCount := ',', bytes.Count(line, []byte{','})
	for _, c := range []rune{';', '\t'} {
		if n := bytes.Count(line, []byte(string(c))); n > bestCount {
			best, bestCount = c, n
		}
	}
	return best
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

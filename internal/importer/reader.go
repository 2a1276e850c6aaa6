package importer

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"finance-tracker/internal/locale"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Format is the container type of an uploaded export
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

const sniffSize = 64 * 1024

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrMalformedFile     = errors.New("file could not be parsed")

	zipMagic = []byte("PK\x03\x04")
	utf8BOM  = []byte("\xef\xbb\xbf")
)

// RowReader streams the rows of a tabular export. Row numbers follow spreadsheet
// numbering: the header is row 1, the first data row is row 2.
type RowReader interface {
	Header() []string
	// Next returns io.EOF after the last row
	Next() (int, Row, error)
	Close() error
}

// Open detects the container from the file name and leading bytes and returns a reader
func Open(filename string, r io.Reader) (RowReader, Format, error) {
	br := bufio.NewReaderSize(r, sniffSize)
	head, _ := br.Peek(len(zipMagic))

	ext := strings.ToLower(filepath.Ext(filename))
	switch {
	case bytes.Equal(head, zipMagic), ext == ".xlsx":
		reader, err := NewXLSXReader(br)
		return reader, FormatXLSX, err
	case ext == ".csv", ext == ".txt", ext == "":
		reader, err := NewCSVReader(br)
		return reader, FormatCSV, err
	default:
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

type csvRowReader struct {
	reader *csv.Reader
	header []string
	row    int
}

// NewCSVReader reads delimited text. The delimiter (semicolon, comma or tab) is taken
// from the header line.
func NewCSVReader(r io.Reader) (RowReader, error) {
	br, ok := r.(*bufio.Reader)
	if !ok || br.Size() < sniffSize {
		br = bufio.NewReaderSize(r, sniffSize)
	}

	if head, _ := br.Peek(len(utf8BOM)); bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	sample, _ := br.Peek(sniffSize)
	reader := csv.NewReader(br)
	reader.Comma = detectDelimiter(sample)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", ErrMalformedFile)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFile, err)
	}

	return &csvRowReader{reader: reader, header: header, row: 1}, nil
}

func detectDelimiter(sample []byte) rune {
	line := sample
	if i := bytes.IndexByte(sample, '\n'); i >= 0 {
		line = sample[:i]
	}

	best, bestCount := ';', 0
	for _, candidate := range []rune{';', ',', '\t'} {
		if n := bytes.Count(line, []byte(string(candidate))); n > bestCount {
			best, bestCount = candidate, n
		}
	}
	return best
}

func (c *csvRowReader) Header() []string {
	return c.header
}

func (c *csvRowReader) Next() (int, Row, error) {
	for {
		record, err := c.reader.Read()
		if err == io.EOF {
			return 0, nil, io.EOF
		}
		if err != nil {
			return 0, nil, fmt.Errorf("%w: %v", ErrMalformedFile, err)
		}
		c.row++

		if isBlank(record) {
			continue
		}
		return c.row, zipRow(c.header, record), nil
	}
}

func (c *csvRowReader) Close() error {
	return nil
}

type xlsxRowReader struct {
	file        *excelize.File
	sheet       string
	rows        *excelize.Rows
	header      []string
	dateColumns map[int]bool
	numColumns  map[int]bool
	row         int
}

// NewXLSXReader reads the first worksheet of a workbook
func NewXLSXReader(r io.Reader) (RowReader, error) {
	file, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFile, err)
	}

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		_ = file.Close()
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrMalformedFile)
	}

	rows, err := file.Rows(sheets[0])
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("%w: %v", ErrMalformedFile, err)
	}

	if !rows.Next() {
		_ = rows.Close()
		_ = file.Close()
		return nil, fmt.Errorf("%w: empty worksheet", ErrMalformedFile)
	}
	header, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		_ = file.Close()
		return nil, fmt.Errorf("%w: %v", ErrMalformedFile, err)
	}

	x := &xlsxRowReader{
		file:        file,
		sheet:       sheets[0],
		rows:        rows,
		header:      header,
		dateColumns: make(map[int]bool),
		numColumns:  make(map[int]bool),
		row:         1,
	}
	for i, label := range header {
		field, ok := FieldForHeader(label)
		if !ok {
			continue
		}
		if field == FieldDate {
			x.dateColumns[i] = true
		}
		if numericFields[field] {
			x.numColumns[i] = true
		}
	}

	return x, nil
}

func (x *xlsxRowReader) Header() []string {
	return x.header
}

func (x *xlsxRowReader) Next() (int, Row, error) {
	for x.rows.Next() {
		x.row++
		cells, err := x.rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return 0, nil, fmt.Errorf("%w: %v", ErrMalformedFile, err)
		}
		if isBlank(cells) {
			continue
		}

		for i, cell := range cells {
			if !x.dateColumns[i] && !x.numColumns[i] {
				continue
			}
			// text cells keep the export's own notation, "2.500" is 2500
			if !x.isNumberCell(i) {
				continue
			}
			if x.dateColumns[i] {
				cells[i] = serialToDate(cell)
			} else {
				cells[i] = nativeToAmount(cell)
			}
		}
		return x.row, zipRow(x.header, cells), nil
	}

	if err := x.rows.Error(); err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrMalformedFile, err)
	}
	return 0, nil, io.EOF
}

// isNumberCell reports whether column col of the current row is stored as a
// number. Number cells carry no type attribute or "n".
func (x *xlsxRowReader) isNumberCell(col int) bool {
	ref, err := excelize.CoordinatesToCellName(col+1, x.row)
	if err != nil {
		return false
	}
	cellType, err := x.file.GetCellType(x.sheet, ref)
	if err != nil {
		return false
	}
	return cellType == excelize.CellTypeUnset || cellType == excelize.CellTypeNumber
}

func (x *xlsxRowReader) Close() error {
	rowsErr := x.rows.Close()
	if err := x.file.Close(); err != nil {
		return err
	}
	return rowsErr
}

// serialToDate converts date cells stored as spreadsheet serial numbers
func serialToDate(cell string) string {
	serial, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return cell
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return cell
	}
	return locale.FormatDate(t)
}

// nativeToAmount re-renders a number cell in the export's comma-decimal text form
func nativeToAmount(cell string) string {
	amount, err := decimal.NewFromString(strings.TrimSpace(cell))
	if err != nil {
		return cell
	}
	return locale.FormatAmount(amount)
}

func zipRow(header, record []string) Row {
	row := make(Row, len(header))
	for i, label := range header {
		if i < len(record) {
			row[label] = record[i]
		} else {
			row[label] = ""
		}
	}
	return row
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

package ingestion

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrFileNotFound is returned when the source path does not exist.
	ErrFileNotFound = errors.New("file not found")
	// ErrFileFormat is returned when the source cannot be parsed as a spreadsheet.
	ErrFileFormat = errors.New("invalid spreadsheet")
	// ErrUnsupportedFormat is returned for file extensions without a reader.
	ErrUnsupportedFormat = fmt.Errorf("%w: unsupported file format", ErrFileFormat)

	byteOrderMark = []byte{0xEF, 0xBB, 0xBF}
)

const (
	// RowWidth is the number of positional columns read from every row.
	RowWidth = 11
	// DefaultHeaderRows is the number of title and header rows above the data.
	DefaultHeaderRows = 3
)

// Column positions within a raw row. Column 1 is not imported.
const (
	colClientID = 0
	colKey      = 2
	colModules  = 3
	colOrigin   = 4
	colReason   = 5
	colAgent    = 6
	colRecords  = 7
	colStatus   = 8
	colTicket   = 9
	colAction   = 10
)

// RawRow is one data row as read from the source.
type RawRow struct {
	// Number is the 1-based row number within the sheet.
	Number int
	// Cells always holds RowWidth values.
	Cells []string
}

// SourceOptions selects what part of a file is read.
type SourceOptions struct {
	// Sheet names the worksheet to read; empty means the first sheet.
	Sheet string
	// HeaderRows are skipped unconditionally before data rows are yielded.
	HeaderRows int
}

// Source is a forward-only iterator over the data rows of a file.
type Source interface {
	Next() bool
	Row() RawRow
	Err() error
	Close() error
}

// OpenSource opens an .xlsx/.xlsm workbook or a .csv file for reading.
func OpenSource(path string, opts SourceOptions) (Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrFileFormat, path)
	}
	if opts.HeaderRows < 0 {
		opts.HeaderRows = 0
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".xlsx", ".xlsm":
		return openExcel(path, opts)
	case ".csv":
		return openCSV(path, opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

type excelSource struct {
	file       *excelize.File
	rows       *excelize.Rows
	headerRows int
	number     int
	current    RawRow
	err        error
}

func openExcel(path string, opts SourceOptions) (*excelSource, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open xlsx: %v", ErrFileFormat, err)
	}

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			_ = f.Close()
			return nil, fmt.Errorf("%w: excel file has no sheets", ErrFileFormat)
		}
		sheet = sheets[0]
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: failed to read sheet %q: %v", ErrFileFormat, sheet, err)
	}

	return &excelSource{file: f, rows: rows, headerRows: opts.HeaderRows}, nil
}

func (s *excelSource) Next() bool {
	if s.err != nil {
		return false
	}
	for s.rows.Next() {
		s.number++
		if s.number <= s.headerRows {
			continue
		}
		cells, err := s.rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			s.err = fmt.Errorf("%w: row %d: %v", ErrFileFormat, s.number, err)
			return false
		}
		s.current = RawRow{Number: s.number, Cells: padRow(cells, RowWidth)}
		return true
	}
	if err := s.rows.Error(); err != nil {
		s.err = fmt.Errorf("%w: %v", ErrFileFormat, err)
	}
	return false
}

func (s *excelSource) Row() RawRow { return s.current }

func (s *excelSource) Err() error { return s.err }

func (s *excelSource) Close() error {
	rowsErr := s.rows.Close()
	if err := s.file.Close(); err != nil {
		return err
	}
	return rowsErr
}

type csvSource struct {
	file       *os.File
	reader     *csv.Reader
	headerRows int
	number     int
	current    RawRow
	err        error
}

func openCSV(path string, opts SourceOptions) (*csvSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	reader := bufio.NewReader(file)
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	return &csvSource{file: file, reader: csvReader, headerRows: opts.HeaderRows}, nil
}

func (s *csvSource) Next() bool {
	if s.err != nil {
		return false
	}
	for {
		record, err := s.reader.Read()
		if errors.Is(err, io.EOF) {
			return false
		}
		if err != nil {
			s.err = fmt.Errorf("%w: failed to read csv: %v", ErrFileFormat, err)
			return false
		}
		s.number++
		if s.number <= s.headerRows {
			continue
		}
		s.current = RawRow{Number: s.number, Cells: padRow(record, RowWidth)}
		return true
	}
}

func (s *csvSource) Row() RawRow { return s.current }

func (s *csvSource) Err() error { return s.err }

func (s *csvSource) Close() error { return s.file.Close() }

func padRow(row []string, length int) []string {
	padded := make([]string, length)
	copy(padded, row)
	return padded
}

package dataset

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"launchrates/internal/core"
)

// XLSXSource reads the launch table from a worksheet of an Excel workbook.
// An empty Sheet selects the first worksheet.
type XLSXSource struct {
	Path  string
	Sheet string
}

func (s XLSXSource) Load(ctx context.Context) ([]core.LaunchRecord, error) {
	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	records, skipped, err := readWorkbook(f, s.Sheet)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Path, err)
	}
	logSkipped(ctx, s.Path, skipped)
	return records, nil
}

// ReadXLSX parses launch data from a workbook stream.
func ReadXLSX(r io.Reader, sheet string) ([]core.LaunchRecord, []error, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return readWorkbook(f, sheet)
}

func readWorkbook(f *excelize.File, sheet string) ([]core.LaunchRecord, []error, error) {
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return ParseRows(rows)
}

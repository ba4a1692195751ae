package history

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/doeshing/fieldx/internal/domain"
)

// Export formats.
const (
	FormatJSONL = "jsonl"
	FormatXLSX  = "xlsx"
)

// Export writes records to w in format.
func Export(w io.Writer, records []domain.ArchivedRecord, format string) error {
	switch strings.ToLower(format) {
	case "", FormatJSONL:
		return ExportJSONL(w, records)
	case FormatXLSX:
		return ExportXLSX(w, records)
	default:
		return fmt.Errorf("unsupported export format %q (use %s or %s)", format, FormatJSONL, FormatXLSX)
	}
}

// ExportJSONL writes one JSON object per line.
func ExportJSONL(w io.Writer, records []domain.ArchivedRecord) error {
	enc := json.NewEncoder(w)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	return nil
}

const exportSheet = "Extractions"

// ExportXLSX writes a single-sheet workbook, one row per record.
func ExportXLSX(w io.Writer, records []domain.ArchivedRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return err
	}

	headers := []string{
		"Timestamp",
		"Tier",
		"Model",
		"Document",
		"Fields",
		"Output Style",
		"Word Limit",
		"Duration (s)",
		"Result",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(exportSheet, cell, h)
	}

	for i, rec := range records {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(exportSheet, cell, v)
		}
		write(1, rec.Timestamp.Format(domain.TimestampFormat))
		write(2, rec.Tier)
		write(3, rec.Model)
		write(4, rec.DocumentName)
		write(5, strings.Join(rec.Fields, ", "))
		write(6, string(rec.OutputStyle))
		write(7, rec.WordCountLimit)
		write(8, rec.Duration.Seconds())
		write(9, rec.ResultText)
	}

	_ = f.SetColWidth(exportSheet, "A", "A", 22)
	_ = f.SetColWidth(exportSheet, "D", "E", 28)
	_ = f.SetColWidth(exportSheet, "I", "I", 80)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return err
	}
	_, err = buf.WriteTo(w)
	return err
}

package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"sheet-dash/internal/dataset"
)

// maxSheetName is the longest worksheet name Excel accepts.
const maxSheetName = 31

// SaveDownload writes a server download into dir and returns the file path.
// Existing files with the same name are replaced.
func SaveDownload(dir string, d dataset.Download) (string, error) {
	name := filepath.Base(strings.TrimSpace(d.Filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("download has no file name")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}
	path := filepath.Join(dir, name)
	tmp := path + ".part"
	if err := os.WriteFile(tmp, d.Body, 0o644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	return path, nil
}

// PageFileName names the spreadsheet export of one loaded page.
func PageFileName(sheet dataset.SheetID, view dataset.View, page int) string {
	return fmt.Sprintf("%s_page%d_%s.xlsx", view, page, sheet)
}

// Page is one loaded page of a view.
type Page struct {
	Title   string
	Columns []string
	Headers []string
	Rows    []dataset.Row
}

// WriteXLSX writes the page to path as a single-sheet workbook: a header row
// followed by one row per record.
func WriteXLSX(path string, p Page) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(p.Title)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	headers := p.Headers
	if len(headers) != len(p.Columns) {
		headers = make([]string, len(p.Columns))
		for i, c := range p.Columns {
			headers[i] = dataset.Label(nil, c)
		}
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	for r, row := range p.Rows {
		for c, col := range p.Columns {
			v := row[col]
			if v == "" {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	if len(p.Columns) > 0 {
		last, _ := excelize.ColumnNumberToName(len(p.Columns))
		_ = f.SetColWidth(sheet, "A", last, 18)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create export dir: %w", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func sheetName(title string) string {
	title = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, strings.TrimSpace(title))
	if title == "" {
		return "Sheet1"
	}
	if r := []rune(title); len(r) > maxSheetName {
		title = string(r[:maxSheetName])
	}
	return title
}

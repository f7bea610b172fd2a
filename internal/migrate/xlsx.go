package migrate

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/carroceria-sur/taller/pkg/georef"
)

// Sheet is a spreadsheet tab read as text: the first row is the header.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Column returns the index of the header cell whose folded text equals
// name, or -1.
func (s *Sheet) Column(name string) int {
	want := georef.FoldName(name)
	for i, h := range s.Header {
		if georef.FoldName(h) == want {
			return i
		}
	}
	return -1
}

// ReadSheet reads the named sheet, or the first one when name is empty.
func ReadSheet(path, name string) (*Sheet, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "migrate: open xlsx")
	}

	sheet, err := getSheet(f, name)
	if err != nil {
		return nil, err
	}

	out := &Sheet{Name: sheet.Name}
	for i, row := range sheet.Rows {
		if row == nil {
			continue
		}
		cells := rowToStrings(row)
		if i == 0 {
			out.Header = cells
			continue
		}
		if isBlank(cells) {
			continue
		}
		out.Rows = append(out.Rows, cells)
	}
	if out.Header == nil {
		return nil, eris.Errorf("migrate: sheet %q has no header row", sheet.Name)
	}
	return out, nil
}

// WriteSheet saves header and rows as a single-sheet workbook.
func WriteSheet(path, name string, header []string, rows [][]string) error {
	if name == "" {
		name = "Sheet1"
	}
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(name)
	if err != nil {
		return eris.Wrap(err, "migrate: add sheet")
	}
	writeRow(sheet, header)
	for _, r := range rows {
		writeRow(sheet, r)
	}
	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "migrate: save %s", path)
	}
	return nil
}

func getSheet(f *xlsx.File, name string) (*xlsx.Sheet, error) {
	if name != "" {
		sheet, ok := f.Sheet[name]
		if !ok {
			return nil, eris.Errorf("migrate: sheet %q not found", name)
		}
		return sheet, nil
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("migrate: workbook has no sheets")
	}
	return f.Sheets[0], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}

func writeRow(sheet *xlsx.Sheet, cells []string) {
	row := sheet.AddRow()
	for _, c := range cells {
		row.AddCell().SetString(c)
	}
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}

package source

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"salesdw/internal/logging"
)

// ReadRegions reads the spreadsheet-encoded regional reference data.
// The first sheet must carry a header row with region_name (or region),
// country and continent columns. Rows without a region name are skipped.
func ReadRegions(path string) (Result[RegionRow], error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Result[RegionRow]{}, fmt.Errorf("failed to open regions file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Result[RegionRow]{}, fmt.Errorf("regions file has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return Result[RegionRow]{}, fmt.Errorf("failed to read regions sheet: %w", err)
	}
	if len(rows) == 0 {
		return Result[RegionRow]{}, fmt.Errorf("regions sheet is empty")
	}

	header := rows[0]
	nameIdx, ok := findColumn(header, "region_name")
	if !ok {
		// Some exports name the column just "region".
		if nameIdx, ok = findColumn(header, "region"); !ok {
			return Result[RegionRow]{}, fmt.Errorf("regions sheet: missing required column region_name")
		}
	}
	countryIdx, ok := findColumn(header, "country")
	if !ok {
		return Result[RegionRow]{}, fmt.Errorf("regions sheet: missing required column country")
	}
	continentIdx, ok := findColumn(header, "continent")
	if !ok {
		return Result[RegionRow]{}, fmt.Errorf("regions sheet: missing required column continent")
	}

	var res Result[RegionRow]
	for i, row := range rows[1:] {
		// GetRows trims trailing empty cells, so short rows are normal
		// for blank cells at the end of a line.
		name := cellAt(row, nameIdx)
		if strings.TrimSpace(name) == "" {
			logging.Warn().Str("file", path).Int("row", i+2).Msg("Skipping region row without a name")
			res.Skipped++
			continue
		}
		res.Rows = append(res.Rows, RegionRow{
			RegionName: name,
			Country:    cellAt(row, countryIdx),
			Continent:  cellAt(row, continentIdx),
		})
	}

	logging.Debug().Str("file", path).Int("rows", len(res.Rows)).
		Int("skipped", res.Skipped).Msg("Read regions file")
	return res, nil
}

func cellAt(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}

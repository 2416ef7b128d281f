package source

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func writeRegionsFile(t *testing.T, rows [][]string) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatal(err)
		}
	}

	path := filepath.Join(t.TempDir(), "regions.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadRegions(t *testing.T) {
	path := writeRegionsFile(t, [][]string{
		{"region_name", "country", "continent"},
		{"North America", "USA", "North America"},
		{"Europe West", "UK", "Europe"},
		{"", "Nowhere", "None"},
	})

	res, err := ReadRegions(path)
	if err != nil {
		t.Fatalf("ReadRegions: %v", err)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(res.Rows))
	}
	if res.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", res.Skipped)
	}
	if res.Rows[0].RegionName != "North America" || res.Rows[0].Country != "USA" {
		t.Errorf("unexpected first row: %+v", res.Rows[0])
	}
}

func TestReadRegionsAlternateHeader(t *testing.T) {
	path := writeRegionsFile(t, [][]string{
		{"region", "country", "continent"},
		{"Asia Pacific", "Australia", "Oceania"},
	})

	res, err := ReadRegions(path)
	if err != nil {
		t.Fatalf("ReadRegions: %v", err)
	}
	if len(res.Rows) != 1 || res.Rows[0].RegionName != "Asia Pacific" {
		t.Errorf("region column not picked up: %+v", res.Rows)
	}
}

func TestReadRegionsMissingColumn(t *testing.T) {
	path := writeRegionsFile(t, [][]string{
		{"region_name", "country"},
		{"North America", "USA"},
	})

	if _, err := ReadRegions(path); err == nil {
		t.Fatal("expected error for missing continent column")
	}
}

func TestReadRegionsMissingFile(t *testing.T) {
	if _, err := ReadRegions(filepath.Join(t.TempDir(), "absent.xlsx")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

package export

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/xuri/excelize/v2"

	"nfwa/internal"
	"nfwa/internal/events"
	"nfwa/internal/storage"
)

// SeasonWorkbook writes one season's event summary to an xlsx file,
// one sheet per gender, events in the traditional order.
func SeasonWorkbook(db *storage.DB, season, topN int, outputPath string) error {
	f := excelize.NewFile()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	headers := []string{
		"event_no", "wa_event", "orientation", "top_n",
		"athletes_total", "results_total", "points_available",
		"avg_points_top_n", "avg_value_top_n", "avg_perf_top_n",
	}

	for i, gender := range []internal.Gender{internal.GenderWomen, internal.GenderMen} {
		sheet := string(gender)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
				return err
			}
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return err
			}
		}

		for col, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(col+1, 1)
			_ = f.SetCellValue(sheet, cell, h)
			_ = f.SetCellStyle(sheet, cell, cell, headerStyle)
		}

		rows, err := db.SeasonSummary(season, gender, topN)
		if err != nil {
			return err
		}
		sort.SliceStable(rows, func(i, j int) bool {
			a := events.SortIndex(rows[i].EventNo)
			b := events.SortIndex(rows[j].EventNo)
			if a != b {
				return a < b
			}
			return rows[i].EventNo < rows[j].EventNo
		})

		for rowIdx, row := range rows {
			r := rowIdx + 2
			set := func(col int, value any) {
				cell, _ := excelize.CoordinatesToCellName(col, r)
				_ = f.SetCellValue(sheet, cell, value)
			}
			set(1, row.EventNo)
			set(2, derefString(row.WAEvent))
			set(3, row.Orientation)
			set(4, row.TopN)
			set(5, row.AthletesTotal)
			set(6, row.ResultsTotal)
			set(7, row.PointsAvailable)
			set(8, derefFloat(row.AvgPointsTopN))
			set(9, derefFloat(row.AvgValueTopN))
			set(10, derefString(row.AvgPerfTopN))
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func derefFloat(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}

package history

import (
	"fmt"
	"strconv"
	"strings"

	"proximity-dashboard/internal/telemetry"
)

// utf8BOM marks the export as UTF-8 for spreadsheet tools
const utf8BOM = "\ufeff"

// The nine fixed export columns, in field order
var csvColumns = []string{
	"Start Time",
	"End Time",
	"Duration",
	"Battery Start (%)",
	"Battery End (%)",
	"Total kWh",
	"Total Price",
	"Location",
	"Distance (m)",
}

// ExportCSV renders charging records as a BOM-prefixed, comma-separated
// document with every field double-quoted. Values are written verbatim with
// no numeric reformatting; display-side formatting is the table's concern,
// not the export's.
func ExportCSV(records []telemetry.HistoryRecord) []byte {
	var b strings.Builder
	b.WriteString(utf8BOM)

	writeRow(&b, csvColumns)
	for _, r := range records {
		writeRow(&b, []string{
			r.StartTime,
			r.EndTime,
			r.Duration,
			formatNumber(r.BatteryStart),
			formatNumber(r.BatteryEnd),
			formatNumber(r.TotalKwh),
			formatNumber(r.TotalPrice),
			r.LocationName,
			formatNumber(r.Distance),
		})
	}

	return []byte(b.String())
}

// ExportFilename returns the download name for one vehicle's export
func ExportFilename(carNumber string) string {
	return fmt.Sprintf("charging_history_%s.csv", carNumber)
}

func writeRow(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(f, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteByte('\n')
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

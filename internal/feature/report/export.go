package report

import (
	"encoding/csv"
	"io"
	"strconv"
)

// ExportHeader is the column order consumers of the export rely on.
var ExportHeader = []string{
	"ID",
	"User Name",
	"User Email",
	"Organization",
	"Calculation Type",
	"Emissions (kg CO₂e)",
	"Calc Offset (kg CO₂e)",
	"Recorded Offsets (kg CO₂e)",
	"Total Offset (kg CO₂e)",
	"Date",
}

const isoMillis = "2006-01-02T15:04:05.000Z"

func exportRecord(r ReconciledCalculation) []string {
	var name, email, org string
	if u := r.User; u != nil {
		name, email = u.Name, u.Email
		if u.Organization != nil {
			org = *u.Organization
		}
	}
	return []string{
		r.ID,
		name,
		email,
		org,
		r.Type,
		formatKg(r.Emissions),
		formatKg(r.CarbonOffset),
		formatKg(r.RecordedOffset),
		formatKg(r.TotalOffset),
		r.CreatedAt.UTC().Format(isoMillis),
	}
}

// WriteCSV writes the header and one row per calculation, in the given order.
// Fields containing commas, quotes or newlines are quoted.
func WriteCSV(w io.Writer, rows []ReconciledCalculation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(exportRecord(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatKg(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }


// Package report renders analysis results as a terminal table, CSV, or
// XLSX workbook.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/siteselect-cli/internal/engine"
)

var columns = []string{
	"RANK", "ID", "MUNICIPIO", "SCORE", "LAT", "LON",
	"POBLACION_ALCANZABLE", "COMPETIDORES", "DIST_ZONA_KM", "HUFF_SHARE",
}

// WriteTable renders candidates as an aligned text table. top limits the
// row count; top <= 0 writes everything.
func WriteTable(out io.Writer, candidates []engine.Candidate, top int) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "RANK\tID\tMUNICIPIO\tSCORE\tLAT\tLON\tPOB_ALC\tCOMP\tZONA_KM\tHUFF")
	_, _ = fmt.Fprintln(w, "----\t--\t---------\t-----\t---\t---\t-------\t----\t-------\t----")

	for _, c := range limit(candidates, top) {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%.2f\t%.5f\t%.5f\t%.0f\t%d\t%s\t%.1f\n",
			c.Rank, c.ID, c.Municipio, c.Score,
			c.Location.Lat, c.Location.Lon,
			c.PoblacionAlcanzable, c.CompetidoresCercanos,
			zonaDistance(c), c.HuffMarketShare,
		)
	}
	return eris.Wrap(w.Flush(), "report: flush table")
}

// WriteCSV renders candidates as CSV with a header row.
func WriteCSV(out io.Writer, candidates []engine.Candidate, top int) error {
	w := csv.NewWriter(out)
	if err := w.Write(columns); err != nil {
		return eris.Wrap(err, "report: write csv header")
	}

	for _, c := range limit(candidates, top) {
		row := []string{
			strconv.Itoa(c.Rank),
			c.ID,
			c.Municipio,
			strconv.FormatFloat(c.Score, 'f', 2, 64),
			strconv.FormatFloat(c.Location.Lat, 'f', 6, 64),
			strconv.FormatFloat(c.Location.Lon, 'f', 6, 64),
			strconv.FormatFloat(c.PoblacionAlcanzable, 'f', 0, 64),
			strconv.Itoa(c.CompetidoresCercanos),
			zonaDistance(c),
			strconv.FormatFloat(c.HuffMarketShare, 'f', 1, 64),
		}
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "report: write csv row")
		}
	}

	w.Flush()
	return eris.Wrap(w.Error(), "report: flush csv")
}

// WriteXLSX writes one sheet per municipio plus a summary sheet.
func WriteXLSX(path string, results []*engine.Result) error {
	f := xlsx.NewFile()

	summary, err := f.AddSheet("Resumen")
	if err != nil {
		return eris.Wrap(err, "report: add summary sheet")
	}
	header := summary.AddRow()
	for _, h := range []string{"MUNICIPIO", "POBLACION_OBJETIVO", "COMPETIDORES", "ZONAS_COMERCIALES", "MEJOR_SCORE", "MEJOR_UBICACION"} {
		header.AddCell().SetString(h)
	}

	for _, res := range results {
		row := summary.AddRow()
		row.AddCell().SetString(res.Municipio.Nombre)
		row.AddCell().SetFloat(res.TargetPopulation)
		row.AddCell().SetInt(len(res.Competitors))
		row.AddCell().SetInt(len(res.CommercialAreas))
		if len(res.Candidates) > 0 {
			best := res.Candidates[0]
			row.AddCell().SetFloat(best.Score)
			row.AddCell().SetString(best.ID)
		}

		sheet, err := f.AddSheet(res.Municipio.Nombre)
		if err != nil {
			return eris.Wrapf(err, "report: add sheet %s", res.Municipio.Nombre)
		}
		th := sheet.AddRow()
		for _, h := range columns {
			th.AddCell().SetString(h)
		}
		for _, c := range res.Candidates {
			r := sheet.AddRow()
			r.AddCell().SetInt(c.Rank)
			r.AddCell().SetString(c.ID)
			r.AddCell().SetString(c.Municipio)
			r.AddCell().SetFloat(c.Score)
			r.AddCell().SetFloat(c.Location.Lat)
			r.AddCell().SetFloat(c.Location.Lon)
			r.AddCell().SetFloat(c.PoblacionAlcanzable)
			r.AddCell().SetInt(c.CompetidoresCercanos)
			r.AddCell().SetString(zonaDistance(c))
			r.AddCell().SetFloat(c.HuffMarketShare)
		}
	}

	return eris.Wrapf(f.Save(path), "report: save %s", path)
}

// Summary aggregates headline numbers across municipio results.
type Summary struct {
	Municipios      int
	Candidates      int
	Competitors     int
	CommercialAreas int
	BestScore       float64
	BestCandidateID string
	MeanScore       float64
}

// Summarize computes a Summary over results.
func Summarize(results []*engine.Result) Summary {
	var s Summary
	var scoreSum float64
	for _, res := range results {
		s.Municipios++
		s.Candidates += len(res.Candidates)
		s.Competitors += len(res.Competitors)
		s.CommercialAreas += len(res.CommercialAreas)
		for _, c := range res.Candidates {
			scoreSum += c.Score
		}
		if len(res.Candidates) > 0 && res.Candidates[0].Score > s.BestScore {
			s.BestScore = res.Candidates[0].Score
			s.BestCandidateID = res.Candidates[0].ID
		}
	}
	if s.Candidates > 0 {
		s.MeanScore = scoreSum / float64(s.Candidates)
	}
	return s
}

func limit(candidates []engine.Candidate, top int) []engine.Candidate {
	if top > 0 && top < len(candidates) {
		return candidates[:top]
	}
	return candidates
}

func zonaDistance(c engine.Candidate) string {
	if c.DistanciaZonaComercialKM == nil {
		return "-"
	}
	return strconv.FormatFloat(*c.DistanciaZonaComercialKM, 'f', 2, 64)
}

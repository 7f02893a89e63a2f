package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/siteselect-cli/internal/scoring"
)

var breakdownCmd = &cobra.Command{
	Use:   "breakdown",
	Short: "Score a location from raw signals",
	Long: `Compute the weighted composite score for a single location from
manually supplied signals, showing each sub-score and its weight.

Useful for checking how an individual criterion moves the total, or for
scoring a location observed in the field.

Examples:
  breakdown --poblacion-total 145000 --poblacion-alcanzable 98000 \
    --trafico-peatonal 75 --trafico-vehicular 68 \
    --competidores 2 --distancia-zona 0.8 --estrato 4.2`,
	RunE: runBreakdown,
}

func init() {
	f := breakdownCmd.Flags()
	f.Float64("poblacion-total", 0, "municipio population")
	f.Float64("poblacion-alcanzable", 0, "population reachable from the location")
	f.Float64("trafico-peatonal", 0, "pedestrian traffic index (0-100)")
	f.Float64("trafico-vehicular", 0, "vehicle traffic index (0-100)")
	f.Int("competidores", 0, "competitor count within 2 km")
	f.Float64("distancia-zona", -1, "distance to the nearest commercial zone in km (-1=none)")
	f.Float64("nivel", -1, "socioeconomic level (0-100, -1=derive from estrato)")
	f.Float64("estrato", 0, "average estrato (1-6, 0=default)")
	f.Float64("densidad", -1, "commercial density per km2 (-1=proxy from competitors)")

	rootCmd.AddCommand(breakdownCmd)
}

func runBreakdown(cmd *cobra.Command, _ []string) error {
	scorer, err := scoring.NewScorer(cfg.Weights)
	if err != nil {
		return err
	}

	in, err := breakdownInput(cmd)
	if err != nil {
		return err
	}

	b := scorer.Breakdown(in)

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CRITERIO\tPESO\tPUNTAJE")
	fmt.Fprintf(tw, "Población\t%.2f\t%.2f\n", b.Weights.Poblacion, b.Poblacion)
	fmt.Fprintf(tw, "Tráfico\t%.2f\t%.2f\n", b.Weights.Trafico, b.Trafico)
	fmt.Fprintf(tw, "Competencia / zona comercial\t%.2f\t%.2f\n", b.Weights.CompetenciaZonaComercial, b.Competencia)
	fmt.Fprintf(tw, "Nivel socioeconómico\t%.2f\t%.2f\n", b.Weights.NivelSocioeconomico, b.Socioeconomico)
	fmt.Fprintf(tw, "Densidad comercial\t%.2f\t%.2f\n", b.Weights.DensidadComercial, b.Densidad)
	if err := tw.Flush(); err != nil {
		return eris.Wrap(err, "breakdown: flush table")
	}
	fmt.Printf("\nTotal: %.2f\n", b.Total)

	return nil
}

func breakdownInput(cmd *cobra.Command) (scoring.Input, error) {
	f := cmd.Flags()

	in := scoring.Input{}
	in.PoblacionTotal, _ = f.GetFloat64("poblacion-total")
	in.PoblacionAlcanzable, _ = f.GetFloat64("poblacion-alcanzable")
	in.TraficoPeatonal, _ = f.GetFloat64("trafico-peatonal")
	in.TraficoVehicular, _ = f.GetFloat64("trafico-vehicular")
	in.CompetidoresCercanos, _ = f.GetInt("competidores")
	in.EstratoPromedio, _ = f.GetFloat64("estrato")

	if in.PoblacionTotal < 0 || in.PoblacionAlcanzable < 0 || in.CompetidoresCercanos < 0 {
		return scoring.Input{}, eris.New("breakdown: population and competitor counts must be non-negative")
	}

	if v, _ := f.GetFloat64("distancia-zona"); v >= 0 {
		in.DistanciaZonaComercialKM = &v
	}
	if v, _ := f.GetFloat64("nivel"); v >= 0 {
		in.NivelSocioeconomico = &v
	}
	if v, _ := f.GetFloat64("densidad"); v >= 0 {
		in.DensidadComercial = &v
	}

	return in, nil
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/siteselect-cli/internal/census"
	"github.com/sells-group/siteselect-cli/internal/demand"
	"github.com/sells-group/siteselect-cli/internal/geo"
	"github.com/sells-group/siteselect-cli/internal/store"
)

var municipiosCmd = &cobra.Command{
	Use:   "municipios",
	Short: "List the municipio registry",
	Long: `List the DANE municipio registry with the derived figures the
analysis uses: target population, commercial density, and socioeconomic
score.

With --sync the registry and each municipio's uniform demand surface are
written to Postgres for downstream consumers.`,
	RunE: runMunicipios,
}

func init() {
	f := municipiosCmd.Flags()
	f.String("shapefile", "", "DANE MGN shapefile to refresh centroids from (overrides config)")
	f.Bool("sync", false, "write the registry and demand surfaces to Postgres")
	f.Int("grid-size", 0, "demand grid size per axis for --sync (overrides config)")
	f.Float64("radius-km", 0, "demand grid radius in km for --sync (overrides config)")

	rootCmd.AddCommand(municipiosCmd)
}

func runMunicipios(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if path, _ := cmd.Flags().GetString("shapefile"); path != "" {
		cfg.Census.ShapefilePath = path
	}

	registry, err := buildRegistry()
	if err != nil {
		return err
	}

	if err := writeMunicipioTable(os.Stdout, registry.All()); err != nil {
		return err
	}

	if sync, _ := cmd.Flags().GetBool("sync"); sync {
		return syncMunicipios(ctx, cmd, registry)
	}
	return nil
}

func writeMunicipioTable(out io.Writer, municipios []census.Municipio) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MUNICIPIO\tDANE\tPOBLACIÓN\tOBJETIVO\tESTRATO\tNBI%\tDENS/KM²\tSOCIOECON")
	for _, m := range municipios {
		fmt.Fprintf(tw, "%s\t%s\t%.0f\t%.0f\t%.1f\t%.1f\t%.1f\t%.1f\n",
			m.Nombre, m.CodigoDANE, m.Poblacion2024, m.TargetPopulation(),
			m.EstratoPromedio, m.NBIPorcentaje, m.Density(), m.SocioeconomicScore())
	}
	if err := tw.Flush(); err != nil {
		return eris.Wrap(err, "municipios: flush table")
	}
	return nil
}

// syncMunicipios pushes the registry and per-municipio demand surfaces to
// Postgres.
func syncMunicipios(ctx context.Context, cmd *cobra.Command, registry *census.Registry) error {
	if cfg.Store.DatabaseURL == "" {
		return eris.New("municipios: store.database_url is required for --sync")
	}

	gridSize := cfg.Engine.GridSize
	if v, _ := cmd.Flags().GetInt("grid-size"); v > 0 {
		gridSize = v
	}
	radiusKM := cfg.Engine.RadiusKM
	if v, _ := cmd.Flags().GetFloat64("radius-km"); v > 0 {
		radiusKM = v
	}

	pg, err := store.NewPostgres(ctx, cfg.Store.DatabaseURL, cfg.Store.Pool)
	if err != nil {
		return err
	}
	defer pg.Close()

	if err := pg.Migrate(ctx); err != nil {
		return err
	}

	log := zap.L().With(zap.String("command", "municipios"))
	for _, m := range registry.All() {
		if err := pg.UpsertMunicipio(ctx, m); err != nil {
			return err
		}

		grid, err := geo.Grid(census.NormalizeName(m.Nombre), m.Centro, radiusKM, gridSize)
		if err != nil {
			return err
		}
		surface, err := demand.UniformOverGrid(grid, m.TargetPopulation())
		if err != nil {
			return err
		}
		if err := pg.ReplaceDemandPoints(ctx, m.Nombre, surface); err != nil {
			return err
		}
		log.Info("synced municipio",
			zap.String("municipio", m.Nombre),
			zap.Int("demand_points", len(surface.Points)))
	}

	fmt.Printf("\nSynced %d municipios to Postgres\n", len(registry.All()))
	return nil
}

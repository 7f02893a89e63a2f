package census

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"go.uber.org/zap"

	geopkg "github.com/sells-group/siteselect-cli/internal/geo"
)

// nameField is the attribute carrying the municipio name in DANE MGN
// (Marco Geoestadístico Nacional) shapefiles.
const nameField = "mpio_cnmbr"

// LoadCentroids reads a DANE municipio boundary shapefile and returns the
// polygon centroid for each municipio, keyed by normalized name. Records
// with missing or malformed geometry are skipped.
func LoadCentroids(shpPath string) (map[string]geopkg.Point, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "census: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	nameIdx := -1
	for i, f := range fields {
		name := strings.TrimRight(f.String(), "\x00")
		if strings.EqualFold(name, nameField) {
			nameIdx = i
			break
		}
	}
	if nameIdx < 0 {
		return nil, eris.Errorf("census: shapefile %s has no %s field", shpPath, nameField)
	}

	centroids := make(map[string]geopkg.Point)
	var skipped int

	for reader.Next() {
		_, shape := reader.Shape()
		nombre := strings.TrimSpace(strings.TrimRight(reader.Attribute(nameIdx), "\x00"))
		if nombre == "" {
			skipped++
			continue
		}

		poly, ok := shape.(*shp.Polygon)
		if !ok {
			skipped++
			continue
		}

		center, err := polygonCentroid(poly)
		if err != nil {
			skipped++
			continue
		}
		centroids[NormalizeName(nombre)] = center
	}

	if skipped > 0 {
		zap.L().Debug("census: skipped shapefile records",
			zap.String("path", shpPath),
			zap.Int("skipped", skipped),
		)
	}

	return centroids, nil
}

// ApplyCentroids replaces each municipio's Centro with the shapefile
// centroid when one is available. Municipios without a match keep their
// built-in coordinates.
func (r *Registry) ApplyCentroids(centroids map[string]geopkg.Point) {
	for key, m := range r.byKey {
		if center, ok := centroids[key]; ok {
			m.Centro = center
			r.byKey[key] = m
		}
	}
}

// polygonCentroid converts the outer ring of a shapefile polygon to a
// go-geom polygon and takes its area-weighted centroid. Shapefile points
// are X=lon, Y=lat.
func polygonCentroid(p *shp.Polygon) (geopkg.Point, error) {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return geopkg.Point{}, eris.New("census: empty polygon")
	}

	end := int32(len(p.Points))
	if p.NumParts > 1 {
		end = p.Parts[1]
	}

	flat := make([]float64, 0, end*2)
	for i := p.Parts[0]; i < end; i++ {
		flat = append(flat, p.Points[i].X, p.Points[i].Y)
	}

	ring := geom.NewLinearRingFlat(geom.XY, flat)
	poly := geom.NewPolygon(geom.XY)
	if err := poly.Push(ring); err != nil {
		return geopkg.Point{}, eris.Wrap(err, "census: build polygon")
	}

	c, err := xy.Centroid(poly)
	if err != nil {
		return geopkg.Point{}, eris.Wrap(err, "census: centroid")
	}
	return geopkg.Point{Lat: c.Y(), Lon: c.X()}, nil
}

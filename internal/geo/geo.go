// Package geo provides the coordinate primitives shared by the site
// selection engine: haversine and planar distances, the degree/kilometer
// approximation, and candidate grid generation.
package geo

import "math"

// EarthRadiusKM is the mean Earth radius used for haversine distances.
const EarthRadiusKM = 6371.0

// KMPerDegree is an approximate conversion factor for coordinate degrees
// to kilometers. At mid-latitudes, 1 degree of latitude is approximately
// 111 km. The engine applies the same factor to longitude degrees,
// ignoring the latitude-dependent narrowing of longitude degrees; that
// approximation is inherited from the original model and kept until the
// geometry is revisited with the model owners.
const KMPerDegree = 111.0

// DegreesPerKM is the inverse conversion, approximate degrees per kilometer.
const DegreesPerKM = 1.0 / KMPerDegree

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// Haversine returns the great-circle distance between two points in kilometers.
func Haversine(a, b Point) float64 {
	lat1 := radians(a.Lat)
	lon1 := radians(a.Lon)
	lat2 := radians(b.Lat)
	lon2 := radians(b.Lon)

	dlat := lat2 - lat1
	dlon := lon2 - lon1

	h := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Asin(math.Sqrt(h))

	return c * EarthRadiusKM
}

// PlanarDegrees returns the Euclidean distance between two points with raw
// (lat, lon) treated as planar coordinates. The result is in degrees; this
// is only meaningful at municipal scale.
func PlanarDegrees(a, b Point) float64 {
	dlat := a.Lat - b.Lat
	dlon := a.Lon - b.Lon
	return math.Sqrt(dlat*dlat + dlon*dlon)
}

// PlanarKM returns the planar degree distance converted to approximate
// kilometers via KMPerDegree.
func PlanarKM(a, b Point) float64 {
	return PlanarDegrees(a, b) * KMPerDegree
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

package geo

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestHaversineProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	lat := gen.Float64Range(-89, 89)
	lng := gen.Float64Range(-179, 179)

	properties.Property("distance is symmetric", prop.ForAll(
		func(lat1, lng1, lat2, lng2 float64) bool {
			return math.Abs(HaversineMeters(lat1, lng1, lat2, lng2)-HaversineMeters(lat2, lng2, lat1, lng1)) < 1e-6
		},
		lat, lng, lat, lng,
	))

	properties.Property("distance is bounded by half the circumference", prop.ForAll(
		func(lat1, lng1, lat2, lng2 float64) bool {
			d := HaversineMeters(lat1, lng1, lat2, lng2)
			return d >= 0 && d <= math.Pi*EarthRadiusM+1e-6
		},
		lat, lng, lat, lng,
	))

	properties.Property("bounding box contains every point inside the radius", prop.ForAll(
		func(lat1, lng1, bearing, frac float64) bool {
			radius := 10000.0
			d := radius * frac
			// destination point along bearing
			phi1 := lat1 * math.Pi / 180
			lambda1 := lng1 * math.Pi / 180
			delta := d / EarthRadiusM
			phi2 := math.Asin(math.Sin(phi1)*math.Cos(delta) + math.Cos(phi1)*math.Sin(delta)*math.Cos(bearing))
			lambda2 := lambda1 + math.Atan2(math.Sin(bearing)*math.Sin(delta)*math.Cos(phi1), math.Cos(delta)-math.Sin(phi1)*math.Sin(phi2))
			lat2 := phi2 * 180 / math.Pi
			lng2 := wrapLng(lambda2 * 180 / math.Pi)
			return BoundingBox(lat1, lng1, radius).Contains(lat2, lng2)
		},
		gen.Float64Range(-80, 80), gen.Float64Range(-180, 180), gen.Float64Range(0, 2*math.Pi), gen.Float64Range(0, 0.99),
	))

	properties.TestingRun(t)
}

func TestRouteDistanceIncrementalMatchesReplay(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("accumulated hop sum equals replayed route distance", prop.ForAll(
		func(steps []float64) bool {
			route := []Point{{Lat: 37.5, Lng: 127.03}}
			incremental := 0.0
			for i, s := range steps {
				last := route[len(route)-1]
				next := Point{Lat: last.Lat + s, Lng: last.Lng + s/float64(i+2)}
				incremental += HaversineMeters(last.Lat, last.Lng, next.Lat, next.Lng)
				route = append(route, next)
			}
			return math.Abs(incremental-RouteDistance(route)) < 1e-6
		},
		gen.SliceOf(gen.Float64Range(-0.001, 0.001)),
	))

	properties.TestingRun(t)
}

package geo

import "math"

// EarthRadiusM is the mean Earth radius used for all distance math.
const EarthRadiusM = 6371000.0

type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// HaversineMeters returns the great-circle distance between two coordinates
// given in degrees.
func HaversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return EarthRadiusM * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	return HaversineMeters(lat1, lng1, lat2, lng2) / 1000
}

// RouteDistance sums the haversine hops between consecutive points.
func RouteDistance(points []Point) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += HaversineMeters(points[i-1].Lat, points[i-1].Lng, points[i].Lat, points[i].Lng)
	}
	return total
}

// Box is a lat/lng envelope. When MinLng > MaxLng the box crosses the
// antimeridian and covers [MinLng, 180] and [-180, MaxLng].
type Box struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// BoundingBox returns an envelope that contains every point within radiusM
// of the center. It is a prefilter only; callers still apply the exact
// haversine check.
func BoundingBox(lat, lng, radiusM float64) Box {
	delta := radiusM / EarthRadiusM
	dLat := delta * 180 / math.Pi
	dLng := 180.0
	if ratio := math.Sin(delta) / math.Cos(toRad(lat)); ratio >= 0 && ratio < 1 {
		dLng = math.Asin(ratio) * 180 / math.Pi
	}
	box := Box{
		MinLat: math.Max(-90, lat-dLat),
		MaxLat: math.Min(90, lat+dLat),
		MinLng: -180,
		MaxLng: 180,
	}
	if dLng < 180 {
		box.MinLng = wrapLng(lng - dLng)
		box.MaxLng = wrapLng(lng + dLng)
	}
	return box
}

// Wraps reports whether the longitude range crosses the antimeridian.
func (b Box) Wraps() bool {
	return b.MinLng > b.MaxLng
}

func (b Box) Contains(lat, lng float64) bool {
	if lat < b.MinLat || lat > b.MaxLat {
		return false
	}
	if b.Wraps() {
		return lng >= b.MinLng || lng <= b.MaxLng
	}
	return lng >= b.MinLng && lng <= b.MaxLng
}

// wrapLng maps a longitude into [-180, 180].
func wrapLng(lng float64) float64 {
	if lng >= -180 && lng <= 180 {
		return lng
	}
	return math.Mod(math.Mod(lng+180, 360)+360, 360) - 180
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

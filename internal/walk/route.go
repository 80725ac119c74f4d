package walk

import "backend-pettopia/internal/shared/geo"

// RouteDistance sums the haversine hops of a stored route in meters.
func RouteDistance(route []RoutePoint) float64 {
	pts := make([]geo.Point, len(route))
	for i, p := range route {
		pts[i] = geo.Point{Lat: p.Lat, Lng: p.Lng}
	}
	return geo.RouteDistance(pts)
}

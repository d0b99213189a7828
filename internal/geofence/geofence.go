// Package geofence answers whether a coordinate lies inside the monitored
// radius of any facility.
package geofence

import (
	"fmt"
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// EarthRadiusKm is the mean earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0088

// Facility is a monitored site with a circular geofence around it.
type Facility struct {
	Name     string  `json:"name"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	RadiusKm float64 `json:"radius_km"`
}

type fence struct {
	facility Facility
	center   s2.LatLng
	radius   s1.Angle
}

// Fence is an immutable set of facility geofences. It is safe for concurrent
// use.
type Fence struct {
	fences []fence
}

// DefaultFacilities are the monitored sites used when none are configured.
var DefaultFacilities = []Facility{
	{Name: "Zug", Lat: 47.1662, Lon: 8.5155, RadiusKm: 25},
	{Name: "Rahway", Lat: 40.6082, Lon: -74.2776, RadiusKm: 25},
	{Name: "Kenilworth", Lat: 40.6765, Lon: -74.2907, RadiusKm: 25},
	{Name: "West Point", Lat: 40.2140, Lon: -75.2966, RadiusKm: 25},
	{Name: "Haarlem", Lat: 52.3874, Lon: 4.6462, RadiusKm: 25},
	{Name: "Hoddesdon", Lat: 51.7617, Lon: -0.0113, RadiusKm: 25},
	{Name: "Tuas", Lat: 1.3200, Lon: 103.6490, RadiusKm: 25},
}

// New validates the facilities and builds a Fence.
func New(facilities []Facility) (*Fence, error) {
	f := &Fence{fences: make([]fence, 0, len(facilities))}
	for _, fac := range facilities {
		if fac.Lat < -90 || fac.Lat > 90 || fac.Lon < -180 || fac.Lon > 180 {
			return nil, fmt.Errorf("facility %q: coordinates out of range", fac.Name)
		}
		if fac.RadiusKm <= 0 {
			return nil, fmt.Errorf("facility %q: radius must be positive", fac.Name)
		}
		f.fences = append(f.fences, fence{
			facility: fac,
			center:   s2.LatLngFromDegrees(fac.Lat, fac.Lon),
			radius:   s1.Angle(fac.RadiusKm / EarthRadiusKm),
		})
	}
	return f, nil
}

// Contains reports whether the point is within the radius of at least one
// facility.
func (f *Fence) Contains(lat, lon float64) bool {
	_, ok := f.Nearest(lat, lon)
	return ok
}

// Nearest returns the closest facility whose radius covers the point.
func (f *Fence) Nearest(lat, lon float64) (Facility, bool) {
	p := s2.LatLngFromDegrees(lat, lon)

	var (
		best  Facility
		found bool
		min   s1.Angle
	)
	for _, fc := range f.fences {
		d := fc.center.Distance(p)
		if math.IsNaN(float64(d)) || math.IsInf(float64(d), 0) || d > fc.radius {
			continue
		}
		if !found || d < min {
			best, min, found = fc.facility, d, true
		}
	}
	return best, found
}

// DistanceKm is the great-circle distance between two coordinates.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	a := s2.LatLngFromDegrees(lat1, lon1)
	b := s2.LatLngFromDegrees(lat2, lon2)
	return a.Distance(b).Radians() * EarthRadiusKm
}

// Facilities returns a copy of the configured facilities.
func (f *Fence) Facilities() []Facility {
	out := make([]Facility, len(f.fences))
	for i, fc := range f.fences {
		out[i] = fc.facility
	}
	return out
}

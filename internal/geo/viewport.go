package geo

import (
	"math"

	"github.com/golang/geo/s2"
)

const (
	// EarthRadiusKm is Earth's mean radius.
	EarthRadiusKm = 6371.0

	// KmPerDegreeLat is the approximate north-south span of one degree of latitude.
	KmPerDegreeLat = 111.0
)

// Viewport is a rectangular map region described by a center point and
// independent latitude/longitude half-spans in degrees.
type Viewport struct {
	CenterLat float64 `json:"lat"`
	CenterLng float64 `json:"lng"`
	LatDelta  float64 `json:"latDelta"`
	LngDelta  float64 `json:"lngDelta"`
}

// BoundingBox is the NE/SW corner pair equivalent to a viewport.
type BoundingBox struct {
	NELat float64
	NELng float64
	SWLat float64
	SWLng float64
}

// CenterRadius is the circular approximation of a viewport.
type CenterRadius struct {
	Lat      float64
	Lng      float64
	RadiusKm float64
}

// BoundingBox derives the NE/SW corners from the viewport.
func (v Viewport) BoundingBox() BoundingBox {
	return BoundingBox{
		NELat: v.CenterLat + v.LatDelta,
		NELng: v.CenterLng + v.LngDelta,
		SWLat: v.CenterLat - v.LatDelta,
		SWLng: v.CenterLng - v.LngDelta,
	}
}

// CenterRadius approximates the viewport as a circle. The longitude delta is
// scaled by cos(lat) before averaging, since a degree of longitude shrinks
// towards the poles. The returned radius is uncapped; callers with an upstream
// radius ceiling apply Capped.
func (v Viewport) CenterRadius() CenterRadius {
	lngKmPerDegree := KmPerDegreeLat * math.Cos(v.CenterLat*math.Pi/180)
	avgSpanKm := (v.LatDelta*KmPerDegreeLat + v.LngDelta*lngKmPerDegree) / 2

	return CenterRadius{
		Lat:      v.CenterLat,
		Lng:      v.CenterLng,
		RadiusKm: avgSpanKm / 2,
	}
}

// Capped returns a copy with the radius limited to maxKm.
func (c CenterRadius) Capped(maxKm float64) CenterRadius {
	if c.RadiusKm > maxKm {
		c.RadiusKm = maxKm
	}
	return c
}

// HaversineKm returns the great-circle distance between two points in kilometers.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lng1)
	p2 := s2.LatLngFromDegrees(lat2, lng2)
	return p1.Distance(p2).Radians() * EarthRadiusKm
}

// Offset returns the point reached by travelling distKm along the given
// bearing (degrees, 0 = north, 90 = east). A negative distance travels in the
// opposite direction.
func Offset(lat, lng, bearingDeg, distKm float64) (float64, float64) {
	bearingRad := bearingDeg * math.Pi / 180
	angular := distKm / EarthRadiusKm

	p := s2.LatLngFromDegrees(lat, lng)
	latRad := p.Lat.Radians()
	lngRad := p.Lng.Radians()

	lat2 := math.Asin(math.Sin(latRad)*math.Cos(angular) +
		math.Cos(latRad)*math.Sin(angular)*math.Cos(bearingRad))

	lng2 := lngRad + math.Atan2(
		math.Sin(bearingRad)*math.Sin(angular)*math.Cos(latRad),
		math.Cos(angular)-math.Sin(latRad)*math.Sin(lat2))

	return lat2 * 180 / math.Pi, lng2 * 180 / math.Pi
}

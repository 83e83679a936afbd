package geo

import (
	"errors"
	"fmt"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

var ErrOutOfRange = errors.New("geo: coordinates out of range")

// ValidateStop checks that a schedule stop's coordinates are plausible.
func ValidateStop(lat, lng float64) error {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return fmt.Errorf("%w: lat=%v lng=%v", ErrOutOfRange, lat, lng)
	}
	if lat == 0 && lng == 0 {
		return fmt.Errorf("%w: null island", ErrOutOfRange)
	}
	return nil
}

// PointGeoJSON encodes a stop as a GeoJSON point (SRID 4326) for
// storage in a bytea column.
func PointGeoJSON(lat, lng float64) ([]byte, error) {
	if err := ValidateStop(lat, lng); err != nil {
		return nil, err
	}
	p := geom.NewPointFlat(geom.XY, []float64{lng, lat})
	p.SetSRID(4326)
	return geojson.Marshal(p)
}

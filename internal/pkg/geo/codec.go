package geo

import (
	"fmt"

	gopolyline "github.com/twpayne/go-polyline"
)

// EncodePolyline serializes a polyline to the Google encoded-polyline string
// format used for storage. Indices are positional and are not encoded.
func EncodePolyline(p Polyline) string {
	if len(p) == 0 {
		return ""
	}
	coords := make([][]float64, len(p))
	for i, pt := range p {
		coords[i] = []float64{pt.Lat, pt.Lng}
	}
	return string(gopolyline.EncodeCoords(coords))
}

// DecodePolyline deserializes an encoded-polyline string back into a
// Polyline, reassigning contiguous indices from 0.
func DecodePolyline(encoded string) (Polyline, error) {
	if encoded == "" {
		return nil, nil
	}
	coords, _, err := gopolyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("failed to decode polyline: %w", err)
	}
	points := make([]Coordinate, len(coords))
	for i, c := range coords {
		points[i] = Coordinate{Lat: c[0], Lng: c[1]}
	}
	return NewPolyline(points), nil
}

// Package polyline decodes and encodes route geometries in the precision-5
// encoded polyline format returned by OpenRouteService.
package polyline

import "math"

// Point is a decoded vertex.
type Point struct {
	Lat float64
	Lng float64
}

const precision = 1e5

// Decode decodes an encoded polyline. Truncated input yields the vertices
// decoded before the truncation.
func Decode(encoded string) []Point {
	if encoded == "" {
		return nil
	}

	var (
		points   []Point
		lat, lng int
		pos      int
	)
	for pos < len(encoded) {
		dLat, next, ok := readDelta(encoded, pos)
		if !ok {
			break
		}
		dLng, next, ok := readDelta(encoded, next)
		if !ok {
			break
		}
		pos = next
		lat += dLat
		lng += dLng
		points = append(points, Point{Lat: float64(lat) / precision, Lng: float64(lng) / precision})
	}

	return points
}

// readDelta reads one zig-zag encoded value starting at pos.
func readDelta(encoded string, pos int) (delta, next int, ok bool) {
	var result, shift int
	for pos < len(encoded) {
		b := int(encoded[pos]) - 63
		pos++
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			if result&1 != 0 {
				return ^(result >> 1), pos, true
			}
			return result >> 1, pos, true
		}
	}
	return 0, pos, false
}

// Encode encodes points into a polyline string.
func Encode(points []Point) string {
	buf := make([]byte, 0, len(points)*8)
	var prevLat, prevLng int
	for _, p := range points {
		lat := int(math.Round(p.Lat * precision))
		lng := int(math.Round(p.Lng * precision))
		buf = appendValue(buf, lat-prevLat)
		buf = appendValue(buf, lng-prevLng)
		prevLat, prevLng = lat, lng
	}
	return string(buf)
}

func appendValue(buf []byte, v int) []byte {
	if v < 0 {
		v = ^(v << 1)
	} else {
		v <<= 1
	}
	for v >= 0x20 {
		buf = append(buf, byte((v&0x1f)|0x20)+63)
		v >>= 5
	}
	return append(buf, byte(v)+63)
}

const earthRadiusMeters = 6371000

// Length returns the great-circle length of the path in meters.
func Length(points []Point) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += haversine(points[i-1], points[i])
	}
	return total
}

func haversine(a, b Point) float64 {
	toRad := math.Pi / 180
	dLat := (b.Lat - a.Lat) * toRad
	dLng := (b.Lng - a.Lng) * toRad
	h := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(a.Lat*toRad)*math.Cos(b.Lat*toRad)*math.Pow(math.Sin(dLng/2), 2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}

package tiff

import (
	"context"
	"fmt"

	"github.com/paulmach/orb"
)

// GeoTIFF tag IDs: the private-range tags GeoTIFF layers on top of
// baseline TIFF for georeferencing.
const (
	TagModelPixelScale     uint16 = 33550
	TagModelTiepoint       uint16 = 33922
	TagModelTransformation uint16 = 34264
	TagGeoKeyDirectory     uint16 = 34735
	TagGeoDoubleParams     uint16 = 34736
	TagGeoAsciiParams      uint16 = 34737
)

// A handful of the GeoKeys (keys inside the GeoKeyDirectory, distinct from
// TIFF tags) needed to tell a geographic CRS from a projected one and to
// recover its EPSG code.
const (
	GTModelTypeGeoKey     uint16 = 1024
	GTRasterTypeGeoKey    uint16 = 1025
	GeographicTypeGeoKey  uint16 = 2048
	ProjectedCSTypeGeoKey uint16 = 3072
)

// TiePoint is one (pixel, geo) correspondence from the ModelTiepointTag.
type TiePoint struct {
	PixelX, PixelY, PixelZ float64
	GeoX, GeoY, GeoZ       float64
}

// GeoReference is the georeferencing metadata recoverable from an IFD's
// GeoTIFF tags: the pixel-to-geographic transform plus the GeoKey
// directory.
type GeoReference struct {
	PixelScale      [3]float64
	TiePoints       []TiePoint
	Transformation  [16]float64
	GeoKeys         map[uint16]uint16
	GeoDoubleParams []float64
	GeoAsciiParams  string
	CRS             string
}

func (g *GeoReference) hasTransformation() bool {
	for _, v := range g.Transformation {
		if v != 0 {
			return true
		}
	}
	return false
}

// PixelToGeo maps a pixel coordinate to a geographic one, preferring
// ModelTransformation when present and otherwise falling back to the
// tiepoint + pixel-scale pair.
func (g *GeoReference) PixelToGeo(pixelX, pixelY float64) (float64, float64) {
	if g.hasTransformation() {
		t := g.Transformation
		return t[0]*pixelX + t[1]*pixelY + t[3], t[4]*pixelX + t[5]*pixelY + t[7]
	}
	if len(g.TiePoints) > 0 && g.PixelScale[0] != 0 {
		tp := g.TiePoints[0]
		geoX := tp.GeoX + (pixelX-tp.PixelX)*g.PixelScale[0]
		geoY := tp.GeoY - (pixelY-tp.PixelY)*g.PixelScale[1]
		return geoX, geoY
	}
	return 0, 0
}

// Bounds computes the geographic bounding box of a width*height image
// using this reference's transform.
func (g *GeoReference) Bounds(width, height int) orb.Bound {
	if width == 0 || height == 0 {
		return orb.Bound{}
	}
	corners := g.CornerPoints(width, height)
	minX, maxX := corners[0][0], corners[0][0]
	minY, maxY := corners[0][1], corners[0][1]
	for _, c := range corners[1:] {
		minX, maxX = minFloat(minX, c[0]), maxFloat(maxX, c[0])
		minY, maxY = minFloat(minY, c[1]), maxFloat(maxY, c[1])
	}
	return orb.Bound{Min: orb.Point{minX, minY}, Max: orb.Point{maxX, maxY}}
}

// CornerPoints returns the four corners (top-left, top-right,
// bottom-right, bottom-left) of a width*height image in geographic space.
func (g *GeoReference) CornerPoints(width, height int) [4]orb.Point {
	tlX, tlY := g.PixelToGeo(0, 0)
	trX, trY := g.PixelToGeo(float64(width), 0)
	brX, brY := g.PixelToGeo(float64(width), float64(height))
	blX, blY := g.PixelToGeo(0, float64(height))
	return [4]orb.Point{{tlX, tlY}, {trX, trY}, {brX, brY}, {blX, blY}}
}

// PolygonFromBounds closes bound into a five-point ring (the closed-ring
// convention of repeating the start point to close the polygon).
func PolygonFromBounds(bound orb.Bound) orb.Polygon {
	if bound.IsEmpty() {
		return orb.Polygon{}
	}
	ring := orb.Ring{
		{bound.Min[0], bound.Min[1]},
		{bound.Max[0], bound.Min[1]},
		{bound.Max[0], bound.Max[1]},
		{bound.Min[0], bound.Max[1]},
		{bound.Min[0], bound.Min[1]},
	}
	return orb.Polygon{ring}
}

func parseTiePoints(values []float64) []TiePoint {
	tiePoints := make([]TiePoint, 0, len(values)/6)
	for i := 0; i+5 < len(values); i += 6 {
		tiePoints = append(tiePoints, TiePoint{
			PixelX: values[i], PixelY: values[i+1], PixelZ: values[i+2],
			GeoX: values[i+3], GeoY: values[i+4], GeoZ: values[i+5],
		})
	}
	return tiePoints
}

// ExtractGeoReference reads every GeoTIFF tag present in ifd and assembles
// a GeoReference, leaving fields at their zero value when a tag is absent.
// GeoTIFF metadata is always consumed as a unit, so one function issues a
// ReadValues call per tag rather than exposing a per-tag helper per field.
func ExtractGeoReference(ctx context.Context, r *IFDReader, ifd *IFD) (*GeoReference, error) {
	g := &GeoReference{GeoKeys: make(map[uint16]uint16)}

	if vc, err := ReadValues[float64](ctx, r, ifd, TagModelPixelScale, 0); err == nil {
		s := vc.AsContiguousSlice()
		for i := 0; i < 3 && i < len(s); i++ {
			g.PixelScale[i] = s[i]
		}
	} else if !isNotFound(err) {
		return nil, err
	}

	if vc, err := ReadValues[float64](ctx, r, ifd, TagModelTiepoint, 0); err == nil {
		g.TiePoints = parseTiePoints(vc.AsContiguousSlice())
	} else if !isNotFound(err) {
		return nil, err
	}

	if vc, err := ReadValues[float64](ctx, r, ifd, TagModelTransformation, 0); err == nil {
		s := vc.AsContiguousSlice()
		for i := 0; i < 16 && i < len(s); i++ {
			g.Transformation[i] = s[i]
		}
	} else if !isNotFound(err) {
		return nil, err
	}

	if vc, err := ReadValues[float64](ctx, r, ifd, TagGeoDoubleParams, 0); err == nil {
		g.GeoDoubleParams = vc.AsContiguousSlice()
	} else if !isNotFound(err) {
		return nil, err
	}

	if vc, err := ReadValues[string](ctx, r, ifd, TagGeoAsciiParams, 0); err == nil {
		g.GeoAsciiParams = vc.FirstOrDefault()
	} else if !isNotFound(err) {
		return nil, err
	}

	if vc, err := ReadValues[uint16](ctx, r, ifd, TagGeoKeyDirectory, 0); err == nil {
		if err := parseGeoKeys(vc.AsContiguousSlice(), g); err != nil {
			return nil, err
		}
	} else if !isNotFound(err) {
		return nil, err
	}

	g.CRS = determineCRS(g.GeoKeys)
	return g, nil
}

// parseGeoKeys decodes the GeoKeyDirectory layout: a 4-SHORT header
// (version, revision, minor revision, key count) followed by one 4-SHORT
// record per key. Only directly-valued keys (location == 0) are kept in
// GeoKeys; keys stored out-of-line in GeoDoubleParams/GeoAsciiParams are
// left to callers who need them.
func parseGeoKeys(values []uint16, g *GeoReference) error {
	if len(values) < 4 {
		return nil
	}
	numKeys := int(values[3])
	for i := 4; i+3 < len(values) && (i-4)/4 < numKeys; i += 4 {
		keyID, location, count, raw := values[i], values[i+1], values[i+2], values[i+3]
		if location == 0 && count == 1 {
			g.GeoKeys[keyID] = raw
		}
	}
	return nil
}

func determineCRS(keys map[uint16]uint16) string {
	if code, ok := keys[ProjectedCSTypeGeoKey]; ok && code != 0 {
		return fmt.Sprintf("EPSG:%d", code)
	}
	if code, ok := keys[GeographicTypeGeoKey]; ok && code != 0 {
		return fmt.Sprintf("EPSG:%d", code)
	}
	return ""
}

func isNotFound(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == NotFound
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

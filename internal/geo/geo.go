package geo

import (
	"errors"
	"math"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// Scene coordinates are floor-plan pixels with y pointing down. A
// Georeference pins scene (0,0) to a WGS84 location and gives the ground
// resolution; projection math happens in web mercator (EPSG:3857).

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// Georeference anchors the floor plan on the globe.
type Georeference struct {
	OriginLon      float64 `json:"originLon" mapstructure:"originLon"`
	OriginLat      float64 `json:"originLat" mapstructure:"originLat"`
	MetersPerPixel float64 `json:"metersPerPixel" mapstructure:"metersPerPixel"`
	// RotationDeg turns scene +X clockwise from east.
	RotationDeg float64 `json:"rotationDeg" mapstructure:"rotationDeg"`
}

// Validate checks the anchor and the resolution.
func (g Georeference) Validate() error {
	if math.IsNaN(g.OriginLon) || math.IsNaN(g.OriginLat) ||
		g.OriginLon < -180 || g.OriginLon > 180 ||
		g.OriginLat < -85.06 || g.OriginLat > 85.06 ||
		!(g.MetersPerPixel > 0) {
		return ErrInvalidCoordinates
	}
	return nil
}

// GroundArea converts a scene area (square pixels) to square meters.
func (g Georeference) GroundArea(sceneArea float64) float64 {
	return sceneArea * g.MetersPerPixel * g.MetersPerPixel
}

// Projector maps scene points to lon/lat.
type Projector struct {
	origin   geom.XY
	mpp      float64
	sin, cos float64
	toWGS84  func(a, b, c float64) (float64, float64, float64)
}

// NewProjector validates g and prepares the transform.
func NewProjector(g Georeference) (*Projector, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	origin, err := Coords3857From4326(g.OriginLon, g.OriginLat)
	if err != nil {
		return nil, err
	}
	rad := g.RotationDeg * math.Pi / 180
	// web mercator stretches ground distances by 1/cos(lat)
	stretch := 1 / math.Cos(g.OriginLat*math.Pi/180)
	return &Projector{
		origin:  origin,
		mpp:     g.MetersPerPixel * stretch,
		sin:     math.Sin(rad),
		cos:     math.Cos(rad),
		toWGS84: wgs84.EPSG().Transform(3857, 4326),
	}, nil
}

// Mercator maps a scene point to EPSG:3857 meters.
func (p *Projector) Mercator(scene geom.XY) geom.XY {
	// y-down scene: +Y is south before rotation
	east := scene.X * p.mpp
	south := scene.Y * p.mpp
	return geom.XY{
		X: p.origin.X + east*p.cos - south*p.sin,
		Y: p.origin.Y - east*p.sin - south*p.cos,
	}
}

// LonLat maps a scene point to WGS84 longitude/latitude.
func (p *Projector) LonLat(scene geom.XY) geom.XY {
	m := p.Mercator(scene)
	lon, lat, _ := p.toWGS84(m.X, m.Y, 0)
	return geom.XY{X: lon, Y: lat}
}

// Coords3857From4326 projects a longitude/latitude pair to web mercator.
func Coords3857From4326(longitude, latitude float64) (geom.XY, error) {
	if math.IsNaN(longitude) || math.IsNaN(latitude) {
		return geom.XY{}, ErrInvalidCoordinates
	}
	f := wgs84.EPSG().Transform(4326, 3857)
	x, y, _ := f(longitude, latitude, 0)
	return geom.XY{X: x, Y: y}, nil
}

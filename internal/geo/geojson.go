package geo

import (
	"fmt"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/sitesurvey/camplan/pkg/core"
)

// Feature kinds written to the "kind" property.
const (
	KindCamera = "camera"
	KindFOV    = "fov"
)

// FeatureCollection exports cameras as GeoJSON: a point per camera and a
// polygon per field of view. With a nil projector coordinates stay in scene
// units.
func FeatureCollection(cameras []core.Camera, proj *Projector) (geom.GeoJSONFeatureCollection, error) {
	project := func(p geom.XY) geom.XY { return p }
	if proj != nil {
		project = proj.LonLat
	}

	features := make([]geom.GeoJSONFeature, 0, len(cameras)*2)
	for _, c := range cameras {
		id := c.RemoteID
		if id == "" {
			id = c.Key
		}

		pt := geom.NewPoint(geom.Coordinates{
			XY:   project(geom.XY{X: c.X, Y: c.Y}),
			Type: geom.DimXY,
		})
		features = append(features, geom.GeoJSONFeature{
			ID:         id,
			Geometry:   pt.AsGeometry(),
			Properties: cameraProperties(c, KindCamera),
		})

		poly, err := WedgeOf(c).Polygon(ArcSegments, project)
		if err != nil {
			return nil, fmt.Errorf("camera %s: %w", id, err)
		}
		features = append(features, geom.GeoJSONFeature{
			ID:         id + "#fov",
			Geometry:   poly.AsGeometry(),
			Properties: cameraProperties(c, KindFOV),
		})
	}
	return geom.GeoJSONFeatureCollection(features), nil
}

func cameraProperties(c core.Camera, kind string) map[string]any {
	analyses := c.Analyses
	if analyses == nil {
		analyses = core.Analyses{}
	}
	return map[string]any{
		"kind":        kind,
		"name":        c.Name,
		"rotationDeg": c.RotationDeg,
		"fovAngleDeg": c.FOVAngleDeg,
		"fovRadius":   c.FOVRadius,
		"status":      c.Status,
		"analyses":    []string(analyses),
	}
}

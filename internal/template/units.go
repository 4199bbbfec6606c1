package template

import "fmt"

const (
	// PointsPerInch is the PDF user-space unit density.
	PointsPerInch = 72.0
	// MMPerInch converts inches to millimetres.
	MMPerInch = 25.4
)

// CoordSpace names a unit system for exported centers.
type CoordSpace string

const (
	SpacePercentWidth CoordSpace = "percent_width"
	SpacePoints       CoordSpace = "points"
	SpaceInches       CoordSpace = "inches"
	SpaceMM           CoordSpace = "mm"
)

// CoordSpaces lists every supported coordinate space.
var CoordSpaces = []CoordSpace{SpacePercentWidth, SpacePoints, SpaceInches, SpaceMM}

// ParseCoordSpace validates a coordinate space name.
func ParseCoordSpace(s string) (CoordSpace, error) {
	for _, cs := range CoordSpaces {
		if string(cs) == s {
			return cs, nil
		}
	}
	return "", fmt.Errorf("%w: unsupported coordinate space %q, expected one of %v",
		ErrInvalidParameter, s, CoordSpaces)
}

// PointsToInches converts points to inches.
func PointsToInches(v float64) float64 { return v / PointsPerInch }

// InchesToPoints converts inches to points.
func InchesToPoints(v float64) float64 { return v * PointsPerInch }

// PointsToMM converts points to millimetres.
func PointsToMM(v float64) float64 { return v / PointsPerInch * MMPerInch }

// MMToPoints converts millimetres to points.
func MMToPoints(v float64) float64 { return v * PointsPerInch / MMPerInch }

// PercentOfWidth scales a point into percent-of-page-width space.
func PercentOfWidth(p Point, pageWidthPt float64) (Point, error) {
	if pageWidthPt <= 0 {
		return Point{}, fmt.Errorf("%w: page width must be positive, got %g", ErrInvalidParameter, pageWidthPt)
	}
	scale := 100.0 / pageWidthPt
	return Point{X: p.X * scale, Y: p.Y * scale}, nil
}

// PercentToPoints is the inverse of PercentOfWidth.
func PercentToPoints(p Point, pageWidthPt float64) (Point, error) {
	if pageWidthPt <= 0 {
		return Point{}, fmt.Errorf("%w: page width must be positive, got %g", ErrInvalidParameter, pageWidthPt)
	}
	scale := pageWidthPt / 100.0
	return Point{X: p.X * scale, Y: p.Y * scale}, nil
}

// ToSpace converts a point in PDF points into the given coordinate space.
// pageWidthPt is only consulted for percent_width.
func ToSpace(p Point, space CoordSpace, pageWidthPt float64) (Point, error) {
	switch space {
	case SpacePoints:
		return p, nil
	case SpaceInches:
		return Point{X: PointsToInches(p.X), Y: PointsToInches(p.Y)}, nil
	case SpaceMM:
		return Point{X: PointsToMM(p.X), Y: PointsToMM(p.Y)}, nil
	case SpacePercentWidth:
		return PercentOfWidth(p, pageWidthPt)
	default:
		return Point{}, fmt.Errorf("%w: unknown coordinate space %q", ErrInvalidParameter, space)
	}
}

// FromSpace converts a point expressed in the given coordinate space back
// into PDF points.
func FromSpace(p Point, space CoordSpace, pageWidthPt float64) (Point, error) {
	switch space {
	case SpacePoints:
		return p, nil
	case SpaceInches:
		return Point{X: InchesToPoints(p.X), Y: InchesToPoints(p.Y)}, nil
	case SpaceMM:
		return Point{X: MMToPoints(p.X), Y: MMToPoints(p.Y)}, nil
	case SpacePercentWidth:
		return PercentToPoints(p, pageWidthPt)
	default:
		return Point{}, fmt.Errorf("%w: unknown coordinate space %q", ErrInvalidParameter, space)
	}
}

// Convert moves a point between two coordinate spaces.
func Convert(p Point, from, to CoordSpace, pageWidthPt float64) (Point, error) {
	pts, err := FromSpace(p, from, pageWidthPt)
	if err != nil {
		return Point{}, err
	}
	return ToSpace(pts, to, pageWidthPt)
}

package efd

import (
	"errors"
	"image"

	apperrors "shape-recognition/pkg/errors"
)

var ErrZeroArea = errors.New("contour encloses no area (m00 = 0)")

// Contour is an ordered, cyclic sequence of boundary points.
type Contour []image.Point

// Point2D is a sub-pixel position.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Moments holds the raw spatial moments of the polygon a contour outlines.
type Moments struct {
	M00, M10, M01 float64
}

// PolygonMoments integrates the raw moments over the polygon enclosed by c
// (Green's theorem). M00 is the unsigned area; the first order moments carry
// the matching sign so that M10/M00 and M01/M00 are the mass center.
func PolygonMoments(c Contour) Moments {
	var m Moments
	n := len(c)
	for i := 0; i < n; i++ {
		p := c[i]
		q := c[(i+1)%n]
		cross := float64(p.X*q.Y - q.X*p.Y)
		m.M00 += cross
		m.M10 += float64(p.X+q.X) * cross
		m.M01 += float64(p.Y+q.Y) * cross
	}
	m.M00 /= 2
	m.M10 /= 6
	m.M01 /= 6
	if m.M00 < 0 {
		m.M00, m.M10, m.M01 = -m.M00, -m.M10, -m.M01
	}
	return m
}

// Centroid returns the mass center of the polygon enclosed by c.
func Centroid(c Contour) (Point2D, error) {
	m := PolygonMoments(c)
	if m.M00 == 0 {
		return Point2D{}, apperrors.NewDegenerateContourError("no mass center", ErrZeroArea)
	}
	return Point2D{X: m.M10 / m.M00, Y: m.M01 / m.M00}, nil
}

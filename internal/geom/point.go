package geom

import "fmt"

var ErrNotRectangular = fmt.Errorf("rows have different dimensions")

// Point is one day's principal-component vector or one regime centroid.
type Point []float64

func (v Point) Copy() Point {
	var v1 = make(Point, len(v))
	copy(v1, v)
	return v1
}

// Scaled returns a copy with every coordinate divided by the matching
// entry of div.
func (v Point) Scaled(div []float64) Point {
	var v1 = make(Point, len(v))
	for i := range v {
		v1[i] = v[i] / div[i]
	}
	return v1
}

func (v Point) Zero() {
	for i := range v {
		v[i] = 0.0
	}
}

func (v Point) Equal(vec Point) bool {
	if len(v) != len(vec) {
		return false
	}
	for i, value := range v {
		if vec[i] != value {
			return false
		}
	}
	return true
}

// Points is a row-major matrix, one Point per day.
type Points []Point

// Dims returns the number of rows and the shared row dimension.
func (p Points) Dims() (int, int, error) {
	if len(p) == 0 {
		return 0, 0, nil
	}
	dim := len(p[0])
	for i := range p {
		if len(p[i]) != dim {
			return 0, 0, fmt.Errorf("row %d has %d values, expected %d: %w", i, len(p[i]), dim, ErrNotRectangular)
		}
	}
	return len(p), dim, nil
}

func (p Points) Copy() Points {
	p1 := make(Points, len(p))
	for i := range p {
		p1[i] = p[i].Copy()
	}
	return p1
}

// Column returns the idx-th coordinate of every row.
func (p Points) Column(idx int) []float64 {
	col := make([]float64, len(p))
	for i := range p {
		col[i] = p[i][idx]
	}
	return col
}

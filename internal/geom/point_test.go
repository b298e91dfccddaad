package geom

import (
	"errors"
	"testing"
)

func TestPoint_Copy(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		p    Point
	}{
		{name: "empty", p: Point{}},
		{name: "positive", p: Point{1, 2, 3, 4, 5}},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			cp := test.p.Copy()
			if !cp.Equal(test.p) {
				t.Errorf("copy got: %v, expected: %v", cp, test.p)
			}
			if len(cp) > 0 {
				cp[0]++
				if cp.Equal(test.p) {
					t.Errorf("copy shares its backing array with %v", test.p)
				}
			}
		})
	}
}

func TestPoint_Equal(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		p        Point
		p1       Point
		expected bool
	}{
		{name: "positive", p: Point{10, 10}, p1: Point{10, 10}, expected: true},
		{name: "negative", p: Point{10, 10}, p1: Point{11, 10}, expected: false},
		{name: "size", p: Point{10, 10}, p1: Point{10}, expected: false},
	}
	for _, test := range tests {
		if test.p.Equal(test.p1) != test.expected {
			t.Errorf("the comparison of points, got: %v, expected: %v", test.p.Equal(test.p1), test.expected)
		}
	}
}

func TestPoint_Scaled(t *testing.T) {
	t.Parallel()
	p := Point{4, 9}
	got := p.Scaled([]float64{2, 3})
	if !got.Equal(Point{2, 3}) {
		t.Errorf("scaled point got: %v, expected: %v", got, Point{2, 3})
	}
	if !p.Equal(Point{4, 9}) {
		t.Errorf("scaling must not modify the receiver, got: %v", p)
	}
}

func TestPoints_Dims(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		p       Points
		rows    int
		cols    int
		wantErr bool
	}{
		{name: "empty", p: nil},
		{name: "rectangular", p: Points{{1, 2}, {3, 4}, {5, 6}}, rows: 3, cols: 2},
		{name: "ragged", p: Points{{1, 2}, {3}}, wantErr: true},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			rows, cols, err := test.p.Dims()
			if test.wantErr {
				if !errors.Is(err, ErrNotRectangular) {
					t.Errorf("expected %v, got %v", ErrNotRectangular, err)
				}
				return
			}
			if err != nil || rows != test.rows || cols != test.cols {
				t.Errorf("dims got: (%d, %d, %v), expected: (%d, %d)", rows, cols, err, test.rows, test.cols)
			}
		})
	}
}

func TestPoints_Column(t *testing.T) {
	t.Parallel()
	p := Points{{1, 2}, {3, 4}}
	col := p.Column(1)
	if len(col) != 2 || col[0] != 2 || col[1] != 4 {
		t.Errorf("column got: %v, expected: [2 4]", col)
	}
}

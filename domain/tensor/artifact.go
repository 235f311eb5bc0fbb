// Package tensor defines the numerical artifact compared by the harness: a
// dense, row-major, n-dimensional array of complex128 values.
package tensor

import (
	"fmt"
	"math"
	"slices"

	"equivproof/domain/core"
)

// Device records where an artifact was produced. It is carried through the
// harness untouched; nothing in the comparison path depends on it.
type Device string

const (
	DeviceLocal       Device = "cpu"
	DeviceAccelerator Device = "accelerator"
)

// Artifact is a shaped complex array stored flat in row-major order.
type Artifact struct {
	Shape  []int        `json:"shape"`
	Data   []complex128 `json:"-"`
	Device Device       `json:"device,omitempty"`
}

// ShapeSize returns the number of elements a shape holds. Shapes whose
// element count does not fit in an int are rejected.
func ShapeSize(shape []int) (int, error) {
	for i, d := range shape {
		if d < 0 {
			return 0, fmt.Errorf("dimension %d is negative: %d", i, d)
		}
	}
	if slices.Contains(shape, 0) {
		return 0, nil
	}
	size := 1
	for _, d := range shape {
		if size > math.MaxInt/d {
			return 0, fmt.Errorf("shape %v overflows the element count", shape)
		}
		size *= d
	}
	return size, nil
}

// New wraps data with a shape. The data slice is used as-is, not copied.
func New(shape []int, data []complex128) (*Artifact, error) {
	size, err := ShapeSize(shape)
	if err != nil {
		return nil, err
	}
	if size != len(data) {
		return nil, fmt.Errorf("shape %v holds %d elements, got %d", shape, size, len(data))
	}
	return &Artifact{Shape: slices.Clone(shape), Data: data, Device: DeviceLocal}, nil
}

// Zeros allocates a zero-filled artifact.
func Zeros(shape []int) (*Artifact, error) {
	size, err := ShapeSize(shape)
	if err != nil {
		return nil, err
	}
	return &Artifact{Shape: slices.Clone(shape), Data: make([]complex128, size), Device: DeviceLocal}, nil
}

// Vector builds a 1D artifact from values.
func Vector(values ...complex128) *Artifact {
	return &Artifact{Shape: []int{len(values)}, Data: slices.Clone(values), Device: DeviceLocal}
}

// FromRows builds a 2D artifact. All rows must have the same length.
func FromRows(rows [][]complex128) (*Artifact, error) {
	if len(rows) == 0 {
		return &Artifact{Shape: []int{0, 0}, Device: DeviceLocal}, nil
	}
	cols := len(rows[0])
	data := make([]complex128, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("row %d has %d columns, expected %d", i, len(row), cols)
		}
		data = append(data, row...)
	}
	return &Artifact{Shape: []int{len(rows), cols}, Data: data, Device: DeviceLocal}, nil
}

// MustFromRows is FromRows for literals in fixtures and tests.
func MustFromRows(rows [][]complex128) *Artifact {
	a, err := FromRows(rows)
	if err != nil {
		panic(err)
	}
	return a
}

// Identity returns the n×n identity.
func Identity(n int) *Artifact {
	a := &Artifact{Shape: []int{n, n}, Data: make([]complex128, n*n), Device: DeviceLocal}
	for i := 0; i < n; i++ {
		a.Data[i*n+i] = 1
	}
	return a
}

// Size returns the element count.
func (a *Artifact) Size() int { return len(a.Data) }

// Dims returns the number of dimensions.
func (a *Artifact) Dims() int { return len(a.Shape) }

// IsSquare reports whether the artifact is a 2D square matrix.
func (a *Artifact) IsSquare() bool {
	return len(a.Shape) == 2 && a.Shape[0] == a.Shape[1]
}

// SameShape reports whether both artifacts have identical dimensions.
func (a *Artifact) SameShape(b *Artifact) bool {
	return slices.Equal(a.Shape, b.Shape)
}

// At returns element (i, j) of a 2D artifact.
func (a *Artifact) At(i, j int) complex128 {
	return a.Data[i*a.Shape[1]+j]
}

// Set assigns element (i, j) of a 2D artifact.
func (a *Artifact) Set(i, j int, v complex128) {
	a.Data[i*a.Shape[1]+j] = v
}

// Clone returns a deep copy.
func (a *Artifact) Clone() *Artifact {
	return &Artifact{Shape: slices.Clone(a.Shape), Data: slices.Clone(a.Data), Device: a.Device}
}

// Flatten returns a 1D copy.
func (a *Artifact) Flatten() *Artifact {
	return &Artifact{Shape: []int{len(a.Data)}, Data: slices.Clone(a.Data), Device: a.Device}
}

// OnDevice returns a copy tagged with device d.
func (a *Artifact) OnDevice(d Device) *Artifact {
	c := a.Clone()
	c.Device = d
	return c
}

// Diagonal returns the main diagonal of a 2D artifact.
func (a *Artifact) Diagonal() []complex128 {
	n := min(a.Shape[0], a.Shape[1])
	diag := make([]complex128, n)
	for i := 0; i < n; i++ {
		diag[i] = a.At(i, i)
	}
	return diag
}

// CountNonZero returns how many elements differ from 0+0i.
func (a *Artifact) CountNonZero() int {
	n := 0
	for _, v := range a.Data {
		if v != 0 {
			n++
		}
	}
	return n
}

// Hash fingerprints shape and data bit-for-bit. Device is excluded.
func (a *Artifact) Hash() core.Hash {
	return core.ComputeArrayHash(a.Shape, a.Data)
}

// String gives a short description for logs.
func (a *Artifact) String() string {
	return fmt.Sprintf("Artifact(shape=%v, device=%s)", a.Shape, a.Device)
}

// Package vector provides fixed-dimension vectors and the arithmetic and
// similarity operations used for chunk retrieval.
package vector

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// ErrDimensionMismatch is returned when a two-operand operation receives
// vectors of different dimensions, or when a vector's values do not match
// its declared dimension. Callers match it with errors.Is.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Vector is an ordered sequence of float64 components of fixed dimension.
// Dim must always equal len(Values); use New to construct valid instances
// and Validate to reject malformed ones.
type Vector struct {
	Values []float64 `json:"values"`
	Dim    int       `json:"dimension"`
}

// New creates a vector over values. The dimension is taken from the slice
// length. The slice is copied so the caller keeps ownership of its input.
func New(values []float64) Vector {
	v := make([]float64, len(values))
	copy(v, values)
	return Vector{Values: v, Dim: len(v)}
}

// Zero returns the zero vector of dimension n.
func Zero(n int) Vector {
	return Vector{Values: make([]float64, n), Dim: n}
}

// Random returns a vector of dimension n with components drawn i.i.d.
// uniformly from [min, max).
func Random(n int, min, max float64) Vector {
	values := make([]float64, n)
	for i := range values {
		values[i] = min + rand.Float64()*(max-min)
	}
	return Vector{Values: values, Dim: n}
}

// Validate returns an error if the declared dimension does not match the
// number of components. Malformed vectors are rejected, never padded or
// truncated.
func (v Vector) Validate() error {
	if len(v.Values) != v.Dim {
		return fmt.Errorf("%w: %d values with declared dimension %d", ErrDimensionMismatch, len(v.Values), v.Dim)
	}
	return nil
}

func checkPair(a, b Vector) error {
	if a.Dim != b.Dim {
		return fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, a.Dim, b.Dim)
	}
	return nil
}

// CosineSimilarity returns (a·b)/(‖a‖‖b‖). When either vector has zero
// magnitude the result is 0, not an error.
func CosineSimilarity(a, b Vector) (float64, error) {
	if err := checkPair(a, b); err != nil {
		return 0, err
	}
	var dot, na2, nb2 float64
	for i := range a.Values {
		dot += a.Values[i] * b.Values[i]
		na2 += a.Values[i] * a.Values[i]
		nb2 += b.Values[i] * b.Values[i]
	}
	if na2 == 0 || nb2 == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(na2) * math.Sqrt(nb2)), nil
}

// EuclideanDistance returns the L2 distance between a and b.
func EuclideanDistance(a, b Vector) (float64, error) {
	if err := checkPair(a, b); err != nil {
		return 0, err
	}
	var sum float64
	for i := range a.Values {
		d := a.Values[i] - b.Values[i]
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

// ManhattanDistance returns the L1 distance between a and b.
func ManhattanDistance(a, b Vector) (float64, error) {
	if err := checkPair(a, b); err != nil {
		return 0, err
	}
	var sum float64
	for i := range a.Values {
		sum += math.Abs(a.Values[i] - b.Values[i])
	}
	return sum, nil
}

// DotProduct returns the inner product of a and b.
func DotProduct(a, b Vector) (float64, error) {
	if err := checkPair(a, b); err != nil {
		return 0, err
	}
	var dot float64
	for i := range a.Values {
		dot += a.Values[i] * b.Values[i]
	}
	return dot, nil
}

// Norm returns the Euclidean norm of v.
func Norm(v Vector) float64 {
	var sum float64
	for _, x := range v.Values {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Normalize returns v scaled to unit Euclidean norm. A zero vector is
// returned unchanged rather than causing a division by zero.
func Normalize(v Vector) Vector {
	n := Norm(v)
	if n == 0 {
		return New(v.Values)
	}
	out := make([]float64, len(v.Values))
	for i, x := range v.Values {
		out[i] = x / n
	}
	return Vector{Values: out, Dim: v.Dim}
}

// Add returns the elementwise sum of a and b.
func Add(a, b Vector) (Vector, error) {
	if err := checkPair(a, b); err != nil {
		return Vector{}, err
	}
	out := make([]float64, len(a.Values))
	for i := range a.Values {
		out[i] = a.Values[i] + b.Values[i]
	}
	return Vector{Values: out, Dim: a.Dim}, nil
}

// Subtract returns the elementwise difference a-b.
func Subtract(a, b Vector) (Vector, error) {
	if err := checkPair(a, b); err != nil {
		return Vector{}, err
	}
	out := make([]float64, len(a.Values))
	for i := range a.Values {
		out[i] = a.Values[i] - b.Values[i]
	}
	return Vector{Values: out, Dim: a.Dim}, nil
}

// Scale returns v with every component multiplied by factor.
func Scale(v Vector, factor float64) Vector {
	out := make([]float64, len(v.Values))
	for i, x := range v.Values {
		out[i] = x * factor
	}
	return Vector{Values: out, Dim: v.Dim}
}

// Equals reports whether a and b have the same dimension and every component
// differs by at most machine epsilon.
func Equals(a, b Vector) bool {
	if a.Dim != b.Dim || len(a.Values) != len(b.Values) {
		return false
	}
	const eps = 2.220446049250313e-16
	for i := range a.Values {
		if math.Abs(a.Values[i]-b.Values[i]) > eps {
			return false
		}
	}
	return true
}

// Package model fits the press-duration regression from logged jump samples
// and reads and appends the sample log.
package model

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Kind selects the regression family.
type Kind string

const (
	KindLinear Kind = "linear"
	KindPoly   Kind = "poly"
)

// DefaultDegree is the polynomial degree used when none is configured.
const DefaultDegree = 3

// ErrNotEnoughSamples means the dataset cannot determine the fit.
var ErrNotEnoughSamples = errors.New("not enough samples")

// ParseKind accepts the config names plus the short forms LR and PR.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "linear", "lr":
		return KindLinear, nil
	case "poly", "polynomial", "pr":
		return KindPoly, nil
	}
	return "", fmt.Errorf("unknown model kind %q", s)
}

// Regression is a fitted polynomial mapping distance to duration. It is
// immutable once trained.
type Regression struct {
	degree int
	coef   []float64 // In scaled units, lowest order first
	scale  float64
	n      int
	rms    float64
}

// Train fits a model of the given kind. degree is ignored for linear.
func Train(kind Kind, degree int, samples []Sample) (*Regression, error) {
	switch kind {
	case KindLinear:
		return TrainLinear(samples)
	case KindPoly:
		return TrainPolynomial(samples, degree)
	}
	return nil, fmt.Errorf("unknown model kind %q", kind)
}

// TrainLinear fits duration = a + b*distance.
func TrainLinear(samples []Sample) (*Regression, error) {
	return fit(samples, 1)
}

// TrainPolynomial fits a polynomial of the given degree.
func TrainPolynomial(samples []Sample, degree int) (*Regression, error) {
	if degree < 1 {
		return nil, fmt.Errorf("polynomial degree %d < 1", degree)
	}
	return fit(samples, degree)
}

func fit(samples []Sample, degree int) (*Regression, error) {
	n := len(samples)
	if n < degree+1 {
		return nil, fmt.Errorf("%w: have %d, degree %d needs %d", ErrNotEnoughSamples, n, degree, degree+1)
	}

	// Distances run to several hundred pixels; scale to [-1,1] so high
	// powers stay well conditioned.
	scale := 0.0
	for _, s := range samples {
		scale = math.Max(scale, math.Abs(s.Distance))
	}
	if scale == 0 {
		return nil, fmt.Errorf("%w: all distances are zero", ErrNotEnoughSamples)
	}

	// Vandermonde system
	A := mat.NewDense(n, degree+1, nil)
	B := mat.NewVecDense(n, nil)
	for i, s := range samples {
		x := s.Distance / scale
		p := 1.0
		for j := 0; j <= degree; j++ {
			A.Set(i, j, p)
			p *= x
		}
		B.SetVec(i, float64(s.Duration))
	}

	var qr mat.QR
	qr.Factorize(A)

	var params mat.VecDense
	if err := qr.SolveVecTo(&params, false, B); err != nil {
		return nil, fmt.Errorf("least squares: %w", err)
	}

	r := &Regression{
		degree: degree,
		coef:   make([]float64, degree+1),
		scale:  scale,
		n:      n,
	}
	for j := range r.coef {
		r.coef[j] = params.AtVec(j)
	}

	var sum float64
	for _, s := range samples {
		e := r.Predict(s.Distance) - float64(s.Duration)
		sum += e * e
	}
	r.rms = math.Sqrt(sum / float64(n))
	return r, nil
}

// Predict returns the press duration in milliseconds for distance.
func (r *Regression) Predict(distance float64) float64 {
	x := distance / r.scale
	y := 0.0
	for j := len(r.coef) - 1; j >= 0; j-- {
		y = y*x + r.coef[j]
	}
	return y
}

// Degree returns the polynomial degree.
func (r *Regression) Degree() int { return r.degree }

// Samples returns the number of samples the model was fitted on.
func (r *Regression) Samples() int { return r.n }

// RMS returns the root-mean-square residual over the training samples.
func (r *Regression) RMS() float64 { return r.rms }

// Coefficients returns the coefficients in distance units, lowest order
// first.
func (r *Regression) Coefficients() []float64 {
	out := make([]float64, len(r.coef))
	p := 1.0
	for j, c := range r.coef {
		out[j] = c / p
		p *= r.scale
	}
	return out
}

func (r *Regression) String() string {
	var sb strings.Builder
	for j, c := range r.Coefficients() {
		if j > 0 {
			sb.WriteString(" + ")
		}
		switch j {
		case 0:
			fmt.Fprintf(&sb, "%.6g", c)
		case 1:
			fmt.Fprintf(&sb, "%.6g*d", c)
		default:
			fmt.Fprintf(&sb, "%.6g*d^%d", c, j)
		}
	}
	return sb.String()
}

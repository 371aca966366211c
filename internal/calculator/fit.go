package calculator

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// FitParabola fits y = a*x^2 + b*x + c by least squares with x = 0..n-1.
func FitParabola(y []float64) (a, b, c float64, err error) {
	n := len(y)
	if n < 3 {
		return 0, 0, 0, ErrInsufficientData
	}
	design := mat.NewDense(n, 3, nil)
	for i := 0; i < n; i++ {
		x := float64(i)
		design.Set(i, 0, x*x)
		design.Set(i, 1, x)
		design.Set(i, 2, 1)
	}
	var coef mat.VecDense
	if err := coef.SolveVec(design, mat.NewVecDense(n, append([]float64(nil), y...))); err != nil {
		return 0, 0, 0, fmt.Errorf("parabola fit: %w: %v", ErrDegenerate, err)
	}
	if AnyNaN(coef.AtVec(0), coef.AtVec(1), coef.AtVec(2)) {
		return 0, 0, 0, ErrDegenerate
	}
	return coef.AtVec(0), coef.AtVec(1), coef.AtVec(2), nil
}

// FitLine fits y = intercept + slope*x by ordinary least squares.
func FitLine(x, y []float64) (intercept, slope float64, err error) {
	if len(x) != len(y) || len(x) < 2 {
		return 0, 0, ErrInsufficientData
	}
	same := true
	for _, v := range x[1:] {
		if v != x[0] {
			same = false
			break
		}
	}
	if same {
		return 0, 0, ErrDegenerate
	}
	intercept, slope = stat.LinearRegression(x, y, nil, false)
	if AnyNaN(intercept, slope) {
		return 0, 0, ErrDegenerate
	}
	return intercept, slope, nil
}

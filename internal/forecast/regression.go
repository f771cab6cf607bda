package forecast

// Fit is the result of an ordinary least-squares line fit.
type Fit struct {
	Slope     float64
	Intercept float64
	R2        float64
}

// LinearRegression fits y = Slope*x + Intercept. When every x is identical
// the slope is 0, the intercept is mean(y) and R2 is 0. R2 is not clamped.
func LinearRegression(xs, ys []float64) Fit {
	n := min(len(xs), len(ys))
	if n == 0 {
		return Fit{}
	}

	var meanX, meanY float64
	for i := 0; i < n; i++ {
		meanX += xs[i]
		meanY += ys[i]
	}
	meanX /= float64(n)
	meanY /= float64(n)

	var sxx, sxy float64
	for i := 0; i < n; i++ {
		dx := xs[i] - meanX
		sxx += dx * dx
		sxy += dx * (ys[i] - meanY)
	}
	if sxx == 0 {
		return Fit{Intercept: meanY}
	}

	fit := Fit{Slope: sxy / sxx}
	fit.Intercept = meanY - fit.Slope*meanX

	var ssTot, ssRes float64
	for i := 0; i < n; i++ {
		dy := ys[i] - meanY
		ssTot += dy * dy
		r := ys[i] - (fit.Slope*xs[i] + fit.Intercept)
		ssRes += r * r
	}
	if ssTot > 0 {
		fit.R2 = 1 - ssRes/ssTot
	}
	return fit
}

// ExponentialSmoothing runs a single pass over values starting from the
// first value. It returns 0 for an empty series.
func ExponentialSmoothing(values []float64, alpha float64) float64 {
	if len(values) == 0 {
		return 0
	}
	smoothed := values[0]
	for _, v := range values[1:] {
		smoothed += alpha * (v - smoothed)
	}
	return smoothed
}

// Package forecast fits a demand model to a daily series and projects it
// forward.
//
// The Pipeline owns the data contract around the model: quantities below one
// are raised to one, the model is fitted on the natural log, and predictions
// are exponentiated back so every output is strictly positive. The model
// itself sits behind the Backend interface; AdditiveBackend is the default,
// a linear trend plus weekly and yearly Fourier seasonality fitted by
// penalized least squares with a normal prediction interval.
//
// SelectWindow and Tail cut the forecast down for display.
package forecast

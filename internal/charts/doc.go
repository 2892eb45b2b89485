// Package charts renders the dashboard's PNG charts.
//
// Drawing uses fogleman/gg with the Go Regular font parsed by golang/freetype,
// so the binary carries everything it needs to label axes. Two charts exist:
//
//   - History: the SKU's daily quantity as a line.
//   - Forecast: the display window's prediction as a line over a shaded
//     confidence band, with the actual daily quantities as black dots.
//
// Dates on the x axis are labelled MM-DD.
package charts

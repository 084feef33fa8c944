// Package viz renders models for the terminal.
//
//   - [ParamTable]: an instance's working parameters with bounds and fit flags
//   - [LayoutTable]: a schema's property ids in layout order
//   - [ScanPlot]: an asciigraph line of a one-parameter scan
//
// Values outside their bounds and non-finite values are highlighted.
package viz

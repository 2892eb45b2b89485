// Package dataprocessing turns parsed sales records into the per-SKU daily
// series the forecast pipeline consumes.
//
// Aggregation filters one SKU, sums duplicate dates exactly and orders the
// result by date. Dates without sales stay absent: no gap filling is done.
//
//	series := dataprocessing.Aggregate(set, "P-100")
//	summary := dataprocessing.Summarize(series)
package dataprocessing

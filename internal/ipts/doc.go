// Package ipts turns an Intel Precise Touch & Stylus heatmap frame into a
// multi-touch contact stream: protocol decode, background-subtract and
// mirror the sample grid, segment it into blobs, compute per-blob geometry,
// and track blob identity across frames.
package ipts

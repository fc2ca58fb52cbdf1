// Package export turns density fields and run series into files.
//
// Fields are drawn interior-only (the wall ring is skipped) and mapped
// through a [Palette] built from a colorgrad preset:
//
//   - PNG snapshots through fogleman/gg, with an optional velocity overlay
//   - SVG density maps and velocity arrows
//   - animated GIF and MJPEG AVI recordings
//   - metric charts through go-chart and axis-labelled heatmaps through gonum/plot
package export

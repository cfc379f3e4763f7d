// Package output persists the results of per-object shape analysis.
//
// Each function is a single synchronous write driven by an explicit
// settings.Settings value:
//
//   - WriteCoordinates: one object's (x, y) outline as CSV under coordinates/
//   - SaveBoundingBoxFigure: contour plus minimum bounding box as PDF and JPEG
//     under aspect_ratio/
//   - SaveIntermediate: one filter stage's image under intermediates/
//   - SaveFinalOverlay: edge mask over the grayscale source under outlines/,
//     duplicated into intermediates/ when Settings.SaveIntermediates is set
//
// # Directories
//
// Writers never create directories. Run settings.PrepareOutputDirs once before
// the first sample; a missing directory surfaces as an I/O error.
//
// # Errors
//
// Nothing is retried and partial output is not cleaned up. If the PDF of a
// figure is written and the JPEG fails, the PDF stays on disk and the error
// is returned.
//
// # Concurrency
//
// Functions hold no shared state. Calls for distinct objects write distinct
// paths and may run in parallel provided the target directories exist.
package output

// Package settings holds the export configuration a caller supplies per run
// and the encoder settings derived from it.
//
// ExportConfiguration is the user-facing value: resolution, frame rate,
// bitrate, output location, a container/codec label such as "MP4 (H.264)",
// and an optional quality preset. Derive folds in the advanced encoder knobs
// from config and produces EncodeSettings, where exactly one of bitrate or
// CRF governs quality.
package settings

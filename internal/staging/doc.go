// Package staging manages the per-run temporary workspace an export encodes
// into. Each run gets its own karaoke_export_<runid> directory under the
// configured staging root; the final file only leaves the workspace during
// finalization.
package staging

package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"lyricast/internal/deps"
	"lyricast/internal/logging"
	"lyricast/internal/preflight"
	"lyricast/internal/render"
	"lyricast/internal/settings"
)

// validate runs every pre-export check and returns the findings together
// with the backend the run should render with.
func (r *Run) validate(ctx context.Context, att *attempt) ([]ValidationResult, render.Backend) {
	var results []ValidationResult
	p := att.project
	if p == nil {
		return []ValidationResult{preflight.Error("No project loaded", "Load a project with media files before exporting")}, r.backend
	}

	if !p.HasAudio() {
		results = append(results, preflight.Error("No audio file in project", "Add an audio file to the project"))
	}
	if !p.HasBackground() {
		results = append(results, preflight.Error("No video or image background in project", "Add either a video file or image background"))
	}
	if !p.HasSubtitles() {
		results = append(results, preflight.Warning("No subtitles in project", "Add subtitle file for karaoke text overlay"))
	}

	results = append(results, checkOutput(att.cfg, att.finalPath)...)
	results = append(results, checkDiskSpace(ctx, att)...)

	statuses := deps.CheckBinaries([]deps.Requirement{{Name: "FFmpeg", Command: r.ffmpegBinary, Description: "Required for encoding"}})
	if len(deps.MissingRequired(statuses)) > 0 {
		results = append(results, preflight.Error("FFmpeg not found", "Install FFmpeg and ensure it's in your system PATH"))
	}

	backend := r.backend
	spec := render.Spec{Width: att.cfg.Width, Height: att.cfg.Height, FPS: att.cfg.FPS, Project: p}
	if backend == nil {
		backend = r.fallback
	} else if err := backend.Check(spec); err != nil {
		results = append(results, preflight.Warning(
			fmt.Sprintf("%s renderer not available (%v), using fallback renderer", backend.Name(), err),
			"Install a TrueType font or check the background media",
		))
		backend = r.fallback
	}

	if err := att.settings.Validate(); err != nil {
		results = append(results, preflight.Error("Invalid encode settings: "+err.Error(), "Adjust resolution, frame rate, or bitrate"))
	}
	if ignored := att.settings.IgnoredProfile; ignored != "" {
		results = append(results, preflight.Warning(
			fmt.Sprintf("Encoder profile %q is not supported by %s and will not be passed", ignored, att.settings.Codec),
			"Set encoder.profile to main or main10 for H.265 exports",
		))
	}
	return results, backend
}

func checkOutput(cfg settings.ExportConfiguration, finalPath string) []ValidationResult {
	var results []ValidationResult
	dir := cfg.OutputDir
	if dir == "" {
		dir = filepath.Dir(finalPath)
	}
	created, err := preflight.EnsureDirectory(dir)
	if err != nil {
		return append(results, preflight.Error(
			fmt.Sprintf("Cannot create output directory: %v", err),
			"Choose a different output directory or check permissions",
		))
	}
	if created {
		results = append(results, preflight.Info("Created output directory: "+dir, ""))
	}
	if err := preflight.DirectoryWritable(dir); err != nil {
		results = append(results, preflight.Error(
			fmt.Sprintf("Output directory is not writable: %v", err),
			"Choose a different output directory or check permissions",
		))
	}
	if !cfg.Overwrite {
		if _, err := os.Stat(finalPath); err == nil {
			results = append(results, preflight.Warning(
				"Output file already exists: "+finalPath,
				"Enable overwrite or choose a different filename",
			))
		}
	}
	return results
}

func checkDiskSpace(ctx context.Context, att *attempt) []ValidationResult {
	estimate := settings.EstimateOutputBytes(att.cfg.Bitrate, att.duration)
	if estimate <= 0 {
		return nil
	}
	free, err := preflight.FreeSpace(ctx, filepath.Dir(att.finalPath))
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return []ValidationResult{preflight.Info(fmt.Sprintf("Could not check disk space: %v", err), "")}
	}
	recommended := uint64(estimate) * 2
	if free < recommended {
		return []ValidationResult{preflight.Warning(
			fmt.Sprintf("Low disk space: %s available, %s recommended", humanize.IBytes(free), humanize.IBytes(recommended)),
			"Free up disk space or choose a different output location",
		)}
	}
	return nil
}

func (r *Run) logValidation(att *attempt, results []ValidationResult) {
	for _, res := range results {
		switch res.Severity {
		case preflight.SeverityError:
			logging.WarnWithContext(att.logger, "export blocked by validation", "validation_error",
				logging.String("finding", res.Message),
				logging.String(logging.FieldErrorHint, res.Suggestion),
				logging.String(logging.FieldImpact, "export will not start"),
			)
		case preflight.SeverityWarning:
			att.logger.Warn("export validation warning",
				logging.String("finding", res.Message),
				logging.String(logging.FieldEventType, "validation_warning"),
				logging.String(logging.FieldErrorHint, res.Suggestion),
			)
		default:
			att.logger.Debug("export validation note", logging.String("finding", res.Message))
		}
	}
}

package faults

import (
	"strings"

	"golang.org/x/text/cases"
)

// Category is the remediation bucket an error message falls into.
type Category string

const (
	CategoryToolMissing Category = "tool_missing"
	CategoryCodec       Category = "codec"
	CategoryDisk        Category = "disk"
	CategoryPermission  Category = "permission"
	CategoryMemory      Category = "memory"
	CategoryGraphics    Category = "graphics"
	CategoryGeneric     Category = "generic"
)

type rule struct {
	category Category
	match    func(text string) bool
}

// rules are listed in priority order.
var rules = []rule{
	{CategoryToolMissing, func(s string) bool {
		return strings.Contains(s, "ffmpeg") && containsAny(s, "not found", "no such file", "not installed")
	}},
	{CategoryCodec, func(s string) bool { return containsAny(s, "codec", "unknown encoder", "encoder not found") }},
	{CategoryDisk, func(s string) bool {
		return containsAny(s, "disk", "no space", "space left", "free space", "insufficient space")
	}},
	{CategoryPermission, func(s string) bool { return containsAny(s, "permission", "access") }},
	{CategoryMemory, func(s string) bool { return containsAny(s, "memory", "allocat") }},
	{CategoryGraphics, func(s string) bool { return containsAny(s, "opengl", "gpu", "graphics") }},
}

var suggestions = map[Category][]string{
	CategoryToolMissing: {
		"Install FFmpeg from https://ffmpeg.org/download.html",
		"Ensure FFmpeg is added to your system PATH",
		"Restart the application after installing FFmpeg",
	},
	CategoryCodec: {
		"Try a different video codec (H.264 vs H.265)",
		"Update FFmpeg to the latest version",
		"Check if your FFmpeg build supports the selected codec",
	},
	CategoryDisk: {
		"Free up disk space on the output drive",
		"Choose a different output directory",
		"Reduce video quality settings to decrease file size",
	},
	CategoryPermission: {
		"Check write permissions for the output directory",
		"Close any applications that might be using the output file",
		"Try running the application as administrator",
	},
	CategoryMemory: {
		"Close other applications to free up memory",
		"Reduce video resolution or quality settings",
		"Process shorter video segments if possible",
	},
	CategoryGraphics: {
		"Update your graphics drivers",
		"Try reducing video resolution",
		"Check if your GPU supports the required rendering features",
	},
	CategoryGeneric: {
		"Check the application logs for more details",
		"Try exporting with different quality settings",
		"Restart the application and try again",
		"Ensure all input files are accessible and not corrupted",
	},
}

// Classify maps an error message to its primary remediation category, the
// highest-priority one that matches.
func Classify(message string) Category {
	if matched := Categories(message); len(matched) > 0 {
		return matched[0]
	}
	return CategoryGeneric
}

// Categories returns every category the message matches, in priority order.
// It is empty when only the generic advice applies.
func Categories(message string) []Category {
	text := normalize(message)
	var matched []Category
	for _, r := range rules {
		if r.match(text) {
			matched = append(matched, r.category)
		}
	}
	return matched
}

// Suggestions returns the remediation steps for an error message: the lists
// of every matching category in priority order, or the generic list when
// nothing matches.
func Suggestions(message string) []string {
	matched := Categories(message)
	if len(matched) == 0 {
		return SuggestionsFor(CategoryGeneric)
	}
	seen := make(map[string]struct{})
	var out []string
	for _, category := range matched {
		for _, step := range suggestions[category] {
			if _, ok := seen[step]; ok {
				continue
			}
			seen[step] = struct{}{}
			out = append(out, step)
		}
	}
	return out
}

// SuggestionsFor returns a copy of the remediation steps for a category.
func SuggestionsFor(category Category) []string {
	list, ok := suggestions[category]
	if !ok {
		list = suggestions[CategoryGeneric]
	}
	return append([]string(nil), list...)
}

func normalize(message string) string {
	return cases.Fold().String(strings.TrimSpace(message))
}

func containsAny(text string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(text, needle) {
			return true
		}
	}
	return false
}

package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"lyricast/internal/project"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = 0x42
	}

	remaining := size
	for remaining > 0 {
		toWrite := int64(chunkSize)
		if remaining < toWrite {
			toWrite = remaining
		}
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}

// NewProject returns a project with audio, an image background, and one
// subtitle line, backed by small files under dir. duration sets the audio
// length in seconds.
func NewProject(t testing.TB, dir string, duration float64) *project.Project {
	t.Helper()

	audio := filepath.Join(dir, "song.mp3")
	image := filepath.Join(dir, "background.png")
	WriteFile(t, audio, 1024)
	WriteFile(t, image, 1024)
	return &project.Project{
		ID:    "test-project",
		Name:  "Test Song",
		Audio: &project.AudioTrack{Path: audio, Duration: duration},
		Image: &project.ImageBackground{Path: image},
		Subtitles: &project.SubtitleTrack{Lines: []project.SubtitleLine{
			{Start: 0, End: duration, Text: "hello world"},
		}},
	}
}

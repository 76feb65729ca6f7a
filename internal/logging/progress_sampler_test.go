package logging

import "testing"

func TestNewProgressSamplerDefaults(t *testing.T) {
	tests := []struct {
		name       string
		bucketSize float64
		wantSize   float64
	}{
		{"default bucket size for zero", 0, 5},
		{"default bucket size for negative", -1, 5},
		{"custom bucket size", 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewProgressSampler(tt.bucketSize)
			if s.bucketSize != tt.wantSize {
				t.Errorf("bucketSize = %v, want %v", s.bucketSize, tt.wantSize)
			}
			if s.lastBucket != -1 {
				t.Errorf("lastBucket = %d, want -1", s.lastBucket)
			}
		})
	}
}

func TestProgressSamplerNilSampler(t *testing.T) {
	var s *ProgressSampler
	if !s.ShouldLog(50, "rendering") {
		t.Error("ShouldLog on nil sampler should always return true")
	}
	s.Reset()
}

func TestProgressSamplerBucketsAndStages(t *testing.T) {
	s := NewProgressSampler(5)

	steps := []struct {
		percent float64
		stage   string
		want    bool
	}{
		{0, "rendering", true},
		{1, "rendering", false},
		{4.9, "rendering", false},
		{5, "rendering", true},
		{7, "rendering", false},
		{12, "rendering", true},
		{12, "encoding", true},
		{12.5, "encoding", false},
		{150, "encoding", true},
		{100, "encoding", false},
		{-1, "finalizing", true},
		{-1, "finalizing", false},
	}
	for i, step := range steps {
		if got := s.ShouldLog(step.percent, step.stage); got != step.want {
			t.Fatalf("step %d (%v, %s): got %v want %v", i, step.percent, step.stage, got, step.want)
		}
	}

	s.Reset()
	if !s.ShouldLog(12, "encoding") {
		t.Fatal("expected emit after reset")
	}
}

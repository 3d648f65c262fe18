package domain

import "testing"

func TestJobStatus_IsTerminal(t *testing.T) {
	cases := []struct {
		status   JobStatus
		terminal bool
	}{
		{StatusPending, false},
		{StatusProcessing, false},
		{StatusCompleted, true},
		{StatusFailed, true},
	}
	for _, c := range cases {
		if got := c.status.IsTerminal(); got != c.terminal {
			t.Errorf("%s: expected IsTerminal=%v, got %v", c.status, c.terminal, got)
		}
	}
}

func TestCapability_IsValid(t *testing.T) {
	for _, c := range []Capability{CapabilityIllustration, CapabilityAudio, CapabilityVideo} {
		if !c.IsValid() {
			t.Errorf("expected %s to be valid", c)
		}
	}
	if Capability("music").IsValid() {
		t.Error("expected unknown capability to be invalid")
	}
}

func TestCapability_FileExtension(t *testing.T) {
	cases := map[Capability]string{
		CapabilityIllustration: ".png",
		CapabilityAudio:        ".mp3",
		CapabilityVideo:        ".mp4",
	}
	for cap, ext := range cases {
		if got := cap.FileExtension(); got != ext {
			t.Errorf("%s: expected extension %s, got %s", cap, ext, got)
		}
	}
}

func TestCapability_ArtifactCategory(t *testing.T) {
	cases := map[Capability]string{
		CapabilityIllustration: "illustrations",
		CapabilityAudio:        "audio",
		CapabilityVideo:        "videos",
	}
	for cap, dir := range cases {
		if got := cap.ArtifactCategory(); got != dir {
			t.Errorf("%s: expected category %s, got %s", cap, dir, got)
		}
	}
}

func TestSnapshot_MirrorsJobState(t *testing.T) {
	job := &ContentJob{
		Status:      StatusFailed,
		ErrorDetail: "backend unavailable",
	}
	snap := job.Snapshot()
	if snap.Status != StatusFailed {
		t.Errorf("expected FAILED snapshot, got %s", snap.Status)
	}
	if snap.Error != "backend unavailable" {
		t.Errorf("expected error detail in snapshot, got %q", snap.Error)
	}
	if snap.Result != nil {
		t.Error("expected no result for failed job")
	}
	if snap.Timestamp.IsZero() {
		t.Error("expected snapshot timestamp to be set")
	}
}

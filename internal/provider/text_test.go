package provider

import (
	"strings"
	"testing"
)

func TestSplitText_ShortTextSingleChunk(t *testing.T) {
	chunks := SplitText("A short passage.", 100)
	if len(chunks) != 1 || chunks[0] != "A short passage." {
		t.Fatalf("expected single chunk, got %v", chunks)
	}
}

func TestSplitText_Empty(t *testing.T) {
	if chunks := SplitText("   ", 100); chunks != nil {
		t.Fatalf("expected nil for blank text, got %v", chunks)
	}
}

func TestSplitText_BreaksAtSentences(t *testing.T) {
	text := "First sentence here. Second sentence here. Third sentence here."
	chunks := SplitText(text, 45)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %v", chunks)
	}
	for _, c := range chunks {
		if len(c) > 45 {
			t.Errorf("chunk exceeds limit: %q (%d bytes)", c, len(c))
		}
		if !strings.HasSuffix(c, ".") {
			t.Errorf("expected chunk to end at a sentence boundary: %q", c)
		}
	}

	// Nothing lost.
	joined := strings.Join(chunks, " ")
	if joined != text {
		t.Errorf("reassembled text mismatch:\n got %q\nwant %q", joined, text)
	}
}

func TestSplitText_HardSplitsOversizedSentence(t *testing.T) {
	text := strings.Repeat("a", 250)
	chunks := SplitText(text, 100)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	total := 0
	for _, c := range chunks {
		if len(c) > 100 {
			t.Errorf("chunk exceeds limit: %d bytes", len(c))
		}
		total += len(c)
	}
	if total != 250 {
		t.Errorf("expected 250 bytes total, got %d", total)
	}
}

func TestSplitText_HardSplitRespectsRuneBoundaries(t *testing.T) {
	text := strings.Repeat("語", 50) // 3 bytes per rune
	for _, c := range SplitText(text, 20) {
		for _, r := range c {
			if r != '語' {
				t.Fatalf("rune mangled by split: %q", c)
			}
		}
	}
}

func TestEstimateSpokenSeconds(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("word ", 150))

	if got := EstimateSpokenSeconds(text, 1.0); got != 60.0 {
		t.Errorf("expected 60s for 150 words at speed 1.0, got %v", got)
	}
	if got := EstimateSpokenSeconds(text, 2.0); got != 30.0 {
		t.Errorf("expected 30s at speed 2.0, got %v", got)
	}
	if got := EstimateSpokenSeconds(text, 0); got != 60.0 {
		t.Errorf("expected non-positive speed to fall back to 1.0, got %v", got)
	}
	if got := EstimateSpokenSeconds("", 1.0); got != 0 {
		t.Errorf("expected 0s for empty text, got %v", got)
	}
}

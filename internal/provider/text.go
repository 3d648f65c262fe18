package provider

import (
	"strings"
	"unicode/utf8"
)

// SplitText breaks text into chunks of at most limit bytes, preferring
// sentence boundaries. Hosted synthesis endpoints cap input length; callers
// synthesize the chunks in order and concatenate the audio.
func SplitText(text string, limit int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			chunks = append(chunks, s)
		}
		current.Reset()
	}

	for _, sentence := range SplitSentences(text) {
		if len(sentence) > limit {
			flush()
			chunks = append(chunks, hardSplit(sentence, limit)...)
			continue
		}
		if current.Len() > 0 && current.Len()+len(sentence)+1 > limit {
			flush()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(sentence)
	}
	flush()
	return chunks
}

// EstimateSpokenSeconds approximates narration length at roughly 150 words
// per minute, adjusted for playback speed.
func EstimateSpokenSeconds(text string, speed float64) float64 {
	if speed <= 0 {
		speed = 1.0
	}
	words := len(strings.Fields(text))
	return float64(words) / 150.0 * 60.0 / speed
}

// SplitSentences breaks text at sentence terminators, covering both Latin
// and CJK punctuation.
func SplitSentences(text string) []string {
	var sentences []string
	var b strings.Builder
	for _, r := range text {
		b.WriteRune(r)
		switch r {
		case '.', '!', '?', '。', '！', '？':
			if s := strings.TrimSpace(b.String()); s != "" {
				sentences = append(sentences, s)
			}
			b.Reset()
		}
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// hardSplit cuts an oversized sentence at byte limit, respecting rune
// boundaries.
func hardSplit(s string, limit int) []string {
	var parts []string
	for len(s) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		if cut == 0 {
			cut = limit
		}
		parts = append(parts, s[:cut])
		s = s[cut:]
	}
	if s != "" {
		parts = append(parts, s)
	}
	return parts
}

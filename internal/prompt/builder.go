package prompt

import (
	"strings"
	"unicode/utf8"

	"github.com/changshize/fiction-tiktok/internal/domain"
	"github.com/changshize/fiction-tiktok/internal/provider"
)

// summaryLimit caps derived prompts. Image endpoints accept far longer
// prompts, but short scene summaries steer diffusion better than raw prose.
const summaryLimit = 100

// styleModifiers decorate the base prompt per art style. Unknown styles
// fall back to the anime modifier.
var styleModifiers = map[string]string{
	"anime":        "anime style, manga style, high quality, detailed, vibrant colors",
	"realistic":    "photorealistic, high quality, detailed, professional photography",
	"fantasy":      "fantasy art, magical, ethereal, detailed, high quality",
	"cyberpunk":    "cyberpunk style, neon lights, futuristic, high tech, detailed",
	"watercolor":   "watercolor painting, soft colors, artistic, traditional art",
	"oil_painting": "oil painting, classical art style, rich colors, detailed brushwork",
}

const qualityEnhancers = "masterpiece, best quality, highly detailed, 8k resolution"

// Enhance decorates a base prompt with the style modifier and the fixed
// quality enhancers. Every prompt sent to an image backend goes through here.
func Enhance(base, style string) string {
	modifier, ok := styleModifiers[style]
	if !ok {
		modifier = styleModifiers[domain.DefaultStyle]
	}
	return base + ", " + modifier + ", " + qualityEnhancers
}

// FromText derives a base prompt from source text when the job carries no
// explicit prompt. Scene and character extraction belong to the upstream
// text-analysis service; here the summary is purely positional.
func FromText(text string, params domain.IllustrationParams) string {
	base := summarize(text, summaryLimit)

	var b strings.Builder
	b.WriteString(base)
	if params.Mood != "" {
		b.WriteString(", " + params.Mood + " mood")
	}
	if params.TimeOfDay != "" {
		b.WriteString(", " + params.TimeOfDay)
	}
	if params.Setting != "" {
		b.WriteString(", " + params.Setting + " setting")
	}
	return b.String()
}

// summarize keeps the opening sentence, appends the closing one when it
// fits, and truncates at maxLen bytes.
func summarize(text string, maxLen int) string {
	text = strings.Join(strings.Fields(text), " ")
	sentences := provider.SplitSentences(text)

	if len(sentences) <= 2 {
		return truncate(text, maxLen)
	}

	summary := sentences[0]
	if len(summary) < maxLen-50 {
		summary += " " + sentences[len(sentences)-1]
	}
	if len(summary) > maxLen {
		return truncate(summary, maxLen) + "..."
	}
	return summary
}

// truncate cuts at maxLen without splitting a multi-byte rune.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

package domain

// Default generation parameters, applied when the loose parameter bag
// omits a key or carries a value of the wrong type.
const (
	DefaultStyle      = "anime"
	DefaultImageSize  = "1024x1024"
	DefaultSpeed      = 1.0
	DefaultResolution = "1080x1920"
	DefaultFPS        = 30
)

// IllustrationParams are the typed parameters for image generation.
type IllustrationParams struct {
	Style     string
	Size      string
	Mood      string
	TimeOfDay string
	Setting   string
}

// AudioParams are the typed parameters for speech synthesis.
// An empty Voice defers to the backend's default voice.
type AudioParams struct {
	Voice string
	Speed float64
}

// VideoParams are the typed parameters for video composition.
// Duration is always derived from the spoken audio, never requested.
type VideoParams struct {
	Style      string
	Voice      string
	Speed      float64
	Resolution string
	FPS        int
}

// ExtractIllustrationParams pulls typed illustration parameters out of the
// loose bag. Unknown keys are ignored.
func ExtractIllustrationParams(params map[string]any) IllustrationParams {
	return IllustrationParams{
		Style:     stringParam(params, "style", DefaultStyle),
		Size:      stringParam(params, "size", DefaultImageSize),
		Mood:      stringParam(params, "mood", ""),
		TimeOfDay: stringParam(params, "time_of_day", ""),
		Setting:   stringParam(params, "setting", ""),
	}
}

// ExtractAudioParams pulls typed speech parameters out of the loose bag.
func ExtractAudioParams(params map[string]any) AudioParams {
	return AudioParams{
		Voice: stringParam(params, "voice", ""),
		Speed: floatParam(params, "speed", DefaultSpeed),
	}
}

// ExtractVideoParams pulls typed video parameters out of the loose bag.
func ExtractVideoParams(params map[string]any) VideoParams {
	return VideoParams{
		Style:      stringParam(params, "style", DefaultStyle),
		Voice:      stringParam(params, "voice", ""),
		Speed:      floatParam(params, "speed", DefaultSpeed),
		Resolution: stringParam(params, "resolution", DefaultResolution),
		FPS:        intParam(params, "fps", DefaultFPS),
	}
}

func stringParam(params map[string]any, key, def string) string {
	if params == nil {
		return def
	}
	if v, ok := params[key].(string); ok && v != "" {
		return v
	}
	return def
}

func floatParam(params map[string]any, key string, def float64) float64 {
	if params == nil {
		return def
	}
	switch v := params[key].(type) {
	case float64:
		if v > 0 {
			return v
		}
	case int:
		if v > 0 {
			return float64(v)
		}
	}
	return def
}

func intParam(params map[string]any, key string, def int) int {
	if params == nil {
		return def
	}
	switch v := params[key].(type) {
	case int:
		if v > 0 {
			return v
		}
	case float64:
		// JSON numbers decode as float64.
		if v > 0 {
			return int(v)
		}
	}
	return def
}

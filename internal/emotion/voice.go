package emotion

// VoiceStyle is the prosody a synthesizer should use for an emotion.
type VoiceStyle struct {
	Rate   string `json:"rate"`
	Pitch  string `json:"pitch"`
	Volume string `json:"volume"`
}

var voiceStyles = map[Label]VoiceStyle{
	Happy:   {Rate: "fast", Pitch: "high", Volume: "loud"},
	Sad:     {Rate: "slow", Pitch: "low", Volume: "soft"},
	Playful: {Rate: "variable", Pitch: "variable", Volume: "medium"},
	Warm:    {Rate: "medium", Pitch: "medium", Volume: "medium"},
	Excited: {Rate: "very fast", Pitch: "high", Volume: "loud"},
}

// StyleFor returns the voice style for l. Unknown labels get the warm style.
func StyleFor(l Label) VoiceStyle {
	if s, ok := voiceStyles[l]; ok {
		return s
	}
	return voiceStyles[Warm]
}

// SpeedFactor converts a rate word into a playback speed multiplier for
// synthesizers that take a numeric speed.
func (s VoiceStyle) SpeedFactor() float64 {
	switch s.Rate {
	case "slow":
		return 0.85
	case "fast":
		return 1.15
	case "very fast":
		return 1.3
	default:
		return 1.0
	}
}

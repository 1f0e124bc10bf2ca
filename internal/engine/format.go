package engine

import (
	"math/rand"
	"strings"

	"github.com/nadzzz/nova/internal/emotion"
)

// Rand is the randomness the formatter draws from. *math/rand.Rand
// satisfies it; tests supply fixed sources.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// NewRand returns a time-seeded source for production use.
func NewRand(seed int64) Rand {
	return rand.New(rand.NewSource(seed))
}

// Embellishment probabilities. A rule fires when its draw is below the value.
const (
	pAddress = 0.30
	pPattern = 0.20
	pGlyph   = 0.70
	pLaugh   = 0.10
)

var laughs = []string{"hehe", "haha", "lol"}

// Style carries everything the formatter needs from the engine state.
type Style struct {
	Emotion        emotion.Label
	UserName       string
	SpeechPatterns []string
}

// Embellish turns a raw generated reply into the final display text.
//
// The rules run in a fixed order and each gate takes exactly one Float64
// draw. The laugh gate is only drawn for the playful emotion.
func Embellish(text string, st Style, r Rand) string {
	if r.Float64() < pAddress {
		if st.UserName != "" {
			text = st.UserName + ", " + strings.ToLower(text)
		} else {
			text = "Hey, " + strings.ToLower(text)
		}
	}

	if r.Float64() < pPattern && len(st.SpeechPatterns) > 0 {
		text = st.SpeechPatterns[r.Intn(len(st.SpeechPatterns))] + " " + text
	}

	if r.Float64() < pGlyph {
		text = text + " " + st.Emotion.Glyph()
	}

	if st.Emotion == emotion.Playful && r.Float64() < pLaugh {
		text = text + " " + laughs[r.Intn(len(laughs))]
	}

	return text
}

// Package emotion holds the static emotion table, the keyword scorer, and
// the mapping from emotion to speech prosody.
//
// Everything in this package is pure. The stateful part of detection
// (committing a transition, remembering the user's name) lives in the
// engine package.
package emotion

import (
	"regexp"
	"strings"
)

// Label is one of the five emotions the companion can be in.
type Label string

const (
	Happy   Label = "happy"
	Sad     Label = "sad"
	Playful Label = "playful"
	Warm    Label = "warm"
	Excited Label = "excited"
)

// Default is the emotion a fresh session starts in.
const Default = Warm

// Priority is the declaration order of the labels. Scoring ties are broken
// in favour of the earlier entry.
var Priority = []Label{Happy, Sad, Playful, Warm, Excited}

// Profile describes how an emotion is recognised and expressed.
type Profile struct {
	Description   string
	Triggers      []string
	ResponseStyle string
	Glyph         string
}

var profiles = map[Label]Profile{
	Happy: {
		Description:   "Cheerful and excited",
		Triggers:      []string{"great!", "awesome", "love it", "happy", "yay"},
		ResponseStyle: "enthusiastic",
		Glyph:         "😊",
	},
	Sad: {
		Description:   "Compassionate and comforting",
		Triggers:      []string{"sad", "depressed", "unhappy", "crying", "lonely"},
		ResponseStyle: "gentle",
		Glyph:         "🤗",
	},
	Playful: {
		Description:   "Fun and joking",
		Triggers:      []string{"joke", "funny", "laugh", "haha", "lol"},
		ResponseStyle: "teasing",
		Glyph:         "😄",
	},
	Warm: {
		Description:   "Friendly and caring",
		ResponseStyle: "supportive",
		Glyph:         "💖",
	},
	Excited: {
		Description:   "Energetic and eager",
		Triggers:      []string{"wow", "amazing", "incredible", "excited"},
		ResponseStyle: "energetic",
		Glyph:         "✨",
	},
}

// Valid reports whether l is one of the defined labels.
func (l Label) Valid() bool {
	_, ok := profiles[l]
	return ok
}

// Profile returns the profile for l, falling back to the default emotion.
func (l Label) Profile() Profile {
	if p, ok := profiles[l]; ok {
		return p
	}
	return profiles[Default]
}

// Description is shorthand for l.Profile().Description.
func (l Label) Description() string { return l.Profile().Description }

// Glyph is shorthand for l.Profile().Glyph.
func (l Label) Glyph() string { return l.Profile().Glyph }

// Parse converts s to a Label. The second result is false for unknown labels.
func Parse(s string) (Label, bool) {
	l := Label(strings.ToLower(strings.TrimSpace(s)))
	return l, l.Valid()
}

// Scores maps every label to its keyword score for one utterance.
type Scores map[Label]int

// Score counts trigger hits for every label in text and applies the
// self-report boost ("i feel sad", "i'm happy" add 2). It returns the
// winning label, its score and the full score table.
func Score(text string) (Label, int, Scores) {
	lower := strings.ToLower(text)
	scores := make(Scores, len(Priority))

	for _, label := range Priority {
		for _, trigger := range profiles[label].Triggers {
			if strings.Contains(lower, trigger) {
				scores[label]++
			}
		}
		name := string(label)
		if strings.Contains(lower, "i feel "+name) || strings.Contains(lower, "i'm "+name) {
			scores[label] += 2
		}
	}

	best := Priority[0]
	for _, label := range Priority[1:] {
		if scores[label] > scores[best] {
			best = label
		}
	}
	return best, scores[best], scores
}

// ShouldCommit reports whether a scored label is strong enough to replace
// the current emotion. Sad is committed on any signal at all.
func ShouldCommit(label Label, score int) bool {
	return score > 1 || label == Sad
}

var namePattern = regexp.MustCompile(`(my name is|i'm|im) (\w+)`)

// ExtractName looks for a self-introduction in text and returns the name
// with its first letter upper-cased.
func ExtractName(text string) (string, bool) {
	m := namePattern.FindStringSubmatch(strings.ToLower(text))
	if m == nil {
		return "", false
	}
	word := m[2]
	return strings.ToUpper(word[:1]) + word[1:], true
}

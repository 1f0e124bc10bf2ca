// Package persona describes who the companion is: its name, traits and
// stock speech patterns.
package persona

import (
	"slices"
	"strings"

	"github.com/nadzzz/nova/internal/apperr"
)

// Default persona values.
var (
	DefaultName   = "Nova"
	DefaultTraits = []string{"friendly", "curious", "supportive", "humorous"}

	DefaultSpeechPatterns = []string{
		"I was thinking...",
		"You know what?",
		"Hey, guess what?",
		"I really appreciate that you...",
	}
)

// Profile is the companion's personality. Like memory.Store it relies on
// its owning engine.State for synchronisation.
type Profile struct {
	name           string
	traits         []string
	speechPatterns []string
}

// New builds a profile. Empty arguments fall back to the defaults and
// duplicate traits are dropped.
func New(name string, traits, speechPatterns []string) *Profile {
	if name == "" {
		name = DefaultName
	}
	if len(traits) == 0 {
		traits = DefaultTraits
	}
	if len(speechPatterns) == 0 {
		speechPatterns = DefaultSpeechPatterns
	}
	p := &Profile{name: name, speechPatterns: slices.Clone(speechPatterns)}
	for _, t := range traits {
		_, _ = p.AddTrait(t)
	}
	return p
}

// Name returns the companion's name.
func (p *Profile) Name() string { return p.name }

// AddTrait appends trait unless it is already present. It reports whether
// the trait was newly added.
func (p *Profile) AddTrait(trait string) (bool, error) {
	trait = strings.TrimSpace(trait)
	if trait == "" {
		return false, apperr.Input("trait must not be empty")
	}
	if slices.Contains(p.traits, trait) {
		return false, nil
	}
	p.traits = append(p.traits, trait)
	return true, nil
}

// Traits returns a copy of the trait list in insertion order.
func (p *Profile) Traits() []string { return slices.Clone(p.traits) }

// SpeechPatterns returns a copy of the speech patterns.
func (p *Profile) SpeechPatterns() []string { return slices.Clone(p.speechPatterns) }

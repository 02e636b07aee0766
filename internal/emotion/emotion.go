// Package emotion resolves the 8-dimensional conditioning vector that steers
// the emotional tone of synthesized speech.
package emotion

import (
	"fmt"
	"strings"
)

// Dim is the number of components in a conditioning vector.
const Dim = 8

// Component indices in canonical order.
const (
	Joy = iota
	Sadness
	Disgust
	Fear
	Surprise
	Anger
	Other
	Neutral
)

// Vector is a conditioning vector in the canonical order
// {joy, sadness, disgust, fear, surprise, anger, other, neutral}.
// Components are in [0,1] and should sum to approximately 1.
type Vector [Dim]float64

// Sum returns the total of all components.
func (v Vector) Sum() float64 {
	var total float64
	for _, c := range v {
		total += c
	}
	return total
}

// Validate checks component ranges. The unit-sum property is a soft
// constraint and is not checked here.
func (v Vector) Validate() error {
	for i, c := range v {
		if c < 0 || c > 1 {
			return fmt.Errorf("emotion component %d out of range [0,1]: %f", i, c)
		}
	}
	return nil
}

func (v Vector) normalized() Vector {
	total := v.Sum()
	if total == 0 {
		return v
	}
	for i := range v {
		v[i] /= total
	}
	return v
}

// DefaultNeutral is the neutral-leaning vector used when no other signal applies.
var DefaultNeutral = Vector{0.3077, 0.0256, 0.0256, 0.0256, 0.0256, 0.0256, 0.2564, 0.3077}

var presets = map[string]Vector{
	"neutral":  DefaultNeutral,
	"joy":      {0.8, 0.0, 0.0, 0.0, 0.1, 0.0, 0.05, 0.05},
	"sad":      {0.0, 0.8, 0.0, 0.0, 0.0, 0.0, 0.1, 0.1},
	"fear":     {0.0, 0.1, 0.0, 0.7, 0.1, 0.0, 0.05, 0.05},
	"anger":    {0.0, 0.0, 0.1, 0.0, 0.0, 0.7, 0.1, 0.1},
	"surprise": {0.1, 0.0, 0.0, 0.0, 0.7, 0.0, 0.1, 0.1},
}

// Preset returns the hand-authored vector for a named emotion. Unknown names
// fall back to neutral, matching the production presets.
func Preset(name string) Vector {
	if v, ok := presets[strings.ToLower(name)]; ok {
		return v
	}
	return presets["neutral"]
}

// Keyword lists for the heuristic detector. Korean-first, matching the
// voices the service ships with.
var (
	joyKeywords      = []string{"웃", "기쁨", "행복", "좋", "신나", "즐거", "하하", "히히"}
	sadKeywords      = []string{"슬프", "울", "눈물", "아프", "힘들", "외로"}
	fearKeywords     = []string{"무서", "두렵", "겁", "살려", "도망", "위험"}
	angerKeywords    = []string{"화", "짜증", "싫어", "미워", "나쁜"}
	surpriseKeywords = []string{"놀라", "깜짝", "어머", "세상에", "!", "?"}
)

func countHits(text string, keywords []string) int {
	hits := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			hits++
		}
	}
	return hits
}

// Detect scores keyword-category matches and punctuation signals and returns
// a normalized conditioning vector. Zero hits yields the neutral default.
func Detect(text string) Vector {
	lower := strings.ToLower(text)

	joyScore := countHits(lower, joyKeywords)
	sadScore := countHits(lower, sadKeywords)
	fearScore := countHits(lower, fearKeywords)
	angerScore := countHits(lower, angerKeywords)
	surpriseScore := countHits(lower, surpriseKeywords)

	exclaims := strings.Count(text, "!")
	if exclaims >= 2 {
		surpriseScore += 2
	}
	if fearScore > 0 && exclaims > 0 {
		fearScore++
	}

	total := joyScore + sadScore + fearScore + angerScore + surpriseScore
	if total == 0 {
		return DefaultNeutral
	}

	v := Vector{
		Joy:      float64(joyScore) / float64(total),
		Sadness:  float64(sadScore) / float64(total),
		Disgust:  0.05,
		Fear:     float64(fearScore) / float64(total),
		Surprise: float64(surpriseScore) / float64(total),
		Anger:    float64(angerScore) / float64(total),
		Other:    0.1,
		Neutral:  0.1,
	}

	return v.normalized()
}

// Resolve picks exactly one vector for a chunk of text by priority: an
// explicit vector is used unchanged, then heuristic detection when auto is
// set, then the neutral default.
func Resolve(explicit *Vector, auto bool, text string) Vector {
	if explicit != nil {
		return *explicit
	}
	if auto {
		return Detect(text)
	}
	return DefaultNeutral
}

package model

import (
	"strings"
	"time"
)

// Timing is the granularity a lyrics document carries.
type Timing string

const (
	TimingNone Timing = "none"
	TimingLine Timing = "line"
	TimingWord Timing = "word"
)

// Token is a word, syllable or untimed run of text inside a line.
type Token struct {
	Text  string
	Start time.Duration
	End   time.Duration
	Timed bool
}

type Line struct {
	Start  time.Duration
	End    time.Duration
	Tokens []Token
	// Agent is the ttm:agent voice id, e.g. "v1".
	Agent string
	// SongPart is the enclosing section, e.g. "Verse" or "Chorus".
	SongPart string
}

// Text joins the line's tokens.
func (l Line) Text() string {
	var sb strings.Builder
	for _, tok := range l.Tokens {
		sb.WriteString(tok.Text)
	}
	return strings.TrimSpace(sb.String())
}

// HasTokenTiming reports whether any token carries its own timing.
func (l Line) HasTokenTiming() bool {
	for _, tok := range l.Tokens {
		if tok.Timed {
			return true
		}
	}
	return false
}

type Document struct {
	Lines    []Line
	Timing   Timing
	Language string
	Duration time.Duration
}

// Timed reports whether the lines can be placed on a timeline.
func (d *Document) Timed() bool {
	return d.Timing != TimingNone
}

package lrc

import (
	"fmt"
	"strings"
	"time"

	"github.com/sukalov/uta/internal/model"
	"github.com/sukalov/uta/internal/utils/e"
)

// Format selects the output flavour.
type Format string

const (
	FormatLRC   Format = "lrc"
	FormatPlain Format = "plain"
)

// Ext is the file extension used for the format.
func (f Format) Ext() string {
	if f == FormatLRC {
		return ".lrc"
	}
	return ".txt"
}

// Header holds the optional LRC ID tags.
type Header struct {
	Title  string
	Artist string
	Album  string
}

type Options struct {
	Format   Format
	Syllable bool
	Header   *Header
	// Voices prefixes lines that name a singer with "agent: ".
	Voices bool
	// Sections separates song parts with a blank line.
	Sections bool
}

// Check reports whether doc can be rendered with opts.
func Check(doc *model.Document, opts Options) error {
	if opts.Format == FormatLRC && !doc.Timed() {
		return e.Newf(e.ErrUnsupportedFormat, "render lrc", "lyrics are not time-synced")
	}
	return nil
}

// Render writes doc as LRC or plain text, one line per lyric line, with a
// trailing newline. Timestamps are truncated to hundredths.
//
// In syllable mode, lines with per-token timing use the enhanced LRC form:
// the line tag, then an inline <mm:ss.xx> tag before each timed token and a
// closing tag at the end of the last one. Other lines fall back to the
// single leading tag. Voice prefixes go after the line tag.
func Render(doc *model.Document, opts Options) string {
	var sb strings.Builder

	tagged := opts.Format == FormatLRC && doc.Timed()
	if tagged && opts.Header != nil {
		writeHeader(&sb, opts.Header, doc.Duration)
	}

	for i, line := range doc.Lines {
		if opts.Sections && i > 0 && line.SongPart != doc.Lines[i-1].SongPart {
			sb.WriteString("\n")
		}
		voice := ""
		if opts.Voices && line.Agent != "" {
			voice = line.Agent + ": "
		}

		if !tagged {
			sb.WriteString(voice + line.Text())
			sb.WriteString("\n")
			continue
		}

		sb.WriteString("[" + FormatTimestamp(line.Start) + "]" + voice)
		if opts.Syllable && line.HasTokenTiming() {
			writeTokens(&sb, line.Tokens)
		} else {
			sb.WriteString(line.Text())
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func writeTokens(sb *strings.Builder, tokens []model.Token) {
	var end time.Duration
	for _, tok := range tokens {
		if tok.Timed {
			sb.WriteString("<" + FormatTimestamp(tok.Start) + ">")
			end = tok.End
		}
		sb.WriteString(tok.Text)
	}
	if end > 0 {
		sb.WriteString("<" + FormatTimestamp(end) + ">")
	}
}

func writeHeader(sb *strings.Builder, h *Header, length time.Duration) {
	tags := []struct{ key, value string }{
		{"ti", h.Title},
		{"ar", h.Artist},
		{"al", h.Album},
	}
	for _, tag := range tags {
		if v := strings.TrimSpace(tag.value); v != "" {
			fmt.Fprintf(sb, "[%s:%s]\n", tag.key, v)
		}
	}
	if length > 0 {
		secs := int64(length / time.Second)
		fmt.Fprintf(sb, "[length:%02d:%02d]\n", secs/60, secs%60)
	}
}

// FormatTimestamp renders d as mm:ss.xx, truncating below a hundredth.
// Minutes grow past two digits rather than wrapping into hours.
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	cs := int64(d / (10 * time.Millisecond))
	return fmt.Sprintf("%02d:%02d.%02d", cs/6000, cs/100%60, cs%100)
}

package ttml

import (
	"fmt"
	"strings"
	"time"

	"github.com/sukalov/uta/internal/model"
	"github.com/sukalov/uta/internal/utils/e"
)

// Options controls how much timing detail Parse keeps.
type Options struct {
	// Syllable keeps per-span timing as separate tokens.
	Syllable bool
}

// Parse converts a TTML document into a lyrics document.
//
// Paragraphs without a begin time are dropped, unless the document carries
// no timing at all, in which case every paragraph is kept and the result is
// marked model.TimingNone. Line order is document order.
func Parse(data []byte, opts Options) (*model.Document, error) {
	tree, err := buildTree(data, false)
	if err != nil {
		return nil, e.New(e.ErrParse, "parse ttml", err)
	}
	root := tree.root()
	if !root.is("tt") {
		return nil, e.Newf(e.ErrParse, "parse ttml", "root element is <%s>, expected <tt>", root.name.Local)
	}

	doc := &model.Document{}
	doc.Language, _ = root.attr("lang")

	body := root.find("body")
	if body == nil {
		return nil, e.Newf(e.ErrParse, "parse ttml", "document has no <body>")
	}
	if dur, ok := body.attr("dur"); ok {
		if doc.Duration, err = ParseTime(dur); err != nil {
			return nil, e.New(e.ErrParse, "parse ttml body", err)
		}
	}

	var paragraphs []paragraph
	collectParagraphs(body, "", &paragraphs)

	declared := declaredTiming(root)
	untimed := declared == model.TimingNone || !anyBegin(paragraphs)

	wordTimed := false
	for _, p := range paragraphs {
		line, ok, err := convertParagraph(p, opts, untimed)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if line.HasTokenTiming() {
			wordTimed = true
		}
		doc.Lines = append(doc.Lines, line)
	}

	switch {
	case untimed:
		doc.Timing = model.TimingNone
	case declared == model.TimingWord || wordTimed:
		doc.Timing = model.TimingWord
	default:
		doc.Timing = model.TimingLine
	}

	return doc, nil
}

type paragraph struct {
	el       *node
	songPart string
}

func collectParagraphs(n *node, songPart string, out *[]paragraph) {
	for _, c := range n.children {
		if c.kind != elementNode {
			continue
		}
		if c.is("p") {
			*out = append(*out, paragraph{el: c, songPart: songPart})
			continue
		}
		part := songPart
		if v, ok := c.attr("song-part"); ok && c.is("div") {
			part = v
		}
		collectParagraphs(c, part, out)
	}
}

func declaredTiming(root *node) model.Timing {
	v, _ := root.attr("timing")
	switch strings.ToLower(v) {
	case "none":
		return model.TimingNone
	case "word":
		return model.TimingWord
	case "line":
		return model.TimingLine
	}
	return ""
}

func anyBegin(paragraphs []paragraph) bool {
	for _, p := range paragraphs {
		if _, ok := p.el.attr("begin"); ok {
			return true
		}
	}
	return false
}

func convertParagraph(p paragraph, opts Options, untimed bool) (model.Line, bool, error) {
	line := model.Line{SongPart: p.songPart}
	line.Agent, _ = p.el.attr("agent")

	if !untimed {
		start, end, ok, err := timespan(p.el)
		if err != nil {
			return line, false, e.New(e.ErrParse, "parse ttml paragraph", err)
		}
		if !ok {
			return line, false, nil
		}
		line.Start, line.End = start, end
	}

	if opts.Syllable && !untimed && hasTimedSpan(p.el) {
		tb := &tokenBuilder{}
		if err := tb.walk(p.el); err != nil {
			return line, false, e.New(e.ErrParse, "parse ttml span", err)
		}
		line.Tokens = tb.finish()
		return line, true, nil
	}

	line.Tokens = []model.Token{{Text: strings.TrimSpace(collapseSpace(p.el.textContent()))}}
	return line, true, nil
}

// timespan reads begin and end (or dur) from an element. ok is false when
// begin is absent; a missing end leaves it zero.
func timespan(n *node) (time.Duration, time.Duration, bool, error) {
	b, ok := n.attr("begin")
	if !ok {
		return 0, 0, false, nil
	}
	begin, err := ParseTime(b)
	if err != nil {
		return 0, 0, false, fmt.Errorf("begin: %w", err)
	}

	var end time.Duration
	if v, ok := n.attr("end"); ok {
		if end, err = ParseTime(v); err != nil {
			return 0, 0, false, fmt.Errorf("end: %w", err)
		}
	} else if v, ok := n.attr("dur"); ok {
		dur, err := ParseTime(v)
		if err != nil {
			return 0, 0, false, fmt.Errorf("dur: %w", err)
		}
		if end, err = add(begin, dur); err != nil {
			return 0, 0, false, fmt.Errorf("dur: %w", err)
		}
	}
	return begin, end, true, nil
}

func hasTimedSpan(n *node) bool {
	for _, c := range n.children {
		if c.is("span") {
			if _, ok := c.attr("begin"); ok {
				return true
			}
		}
		if c.kind == elementNode && hasTimedSpan(c) {
			return true
		}
	}
	return false
}

// tokenBuilder flattens a paragraph's spans into tokens. Whitespace between
// spans is attached to the preceding token so word boundaries survive.
type tokenBuilder struct {
	tokens []model.Token
}

func (tb *tokenBuilder) walk(n *node) error {
	for _, c := range n.children {
		switch {
		case c.kind == textNode:
			tb.text(c.text)
		case c.is("br"):
			tb.text(" ")
		case c.kind == elementNode:
			if hasTimedSpan(c) {
				if err := tb.walk(c); err != nil {
					return err
				}
				continue
			}
			start, end, ok, err := timespan(c)
			if err != nil {
				return err
			}
			if !ok {
				tb.text(c.textContent())
				continue
			}
			tb.timed(collapseSpace(c.textContent()), start, end)
		}
	}
	return nil
}

func (tb *tokenBuilder) text(s string) {
	s = collapseSpace(s)
	if s == "" {
		return
	}
	if strings.TrimSpace(s) == "" {
		if n := len(tb.tokens); n > 0 && !strings.HasSuffix(tb.tokens[n-1].Text, " ") {
			tb.tokens[n-1].Text += " "
		}
		return
	}
	if n := len(tb.tokens); n > 0 {
		last := &tb.tokens[n-1]
		if strings.HasSuffix(last.Text, " ") {
			s = strings.TrimLeft(s, " ")
		}
		if !last.Timed {
			last.Text += s
			return
		}
	}
	tb.tokens = append(tb.tokens, model.Token{Text: s})
}

func (tb *tokenBuilder) timed(s string, start, end time.Duration) {
	if n := len(tb.tokens); n > 0 && strings.HasSuffix(tb.tokens[n-1].Text, " ") {
		s = strings.TrimLeft(s, " ")
	}
	tb.tokens = append(tb.tokens, model.Token{
		Text:  s,
		Start: start,
		End:   end,
		Timed: true,
	})
}

func (tb *tokenBuilder) finish() []model.Token {
	if len(tb.tokens) == 0 {
		return nil
	}
	tb.tokens[0].Text = strings.TrimLeft(tb.tokens[0].Text, " ")
	last := &tb.tokens[len(tb.tokens)-1]
	last.Text = strings.TrimRight(last.Text, " ")
	return tb.tokens
}

// collapseSpace folds whitespace runs into single spaces, keeping a single
// leading or trailing space when the input had one.
func collapseSpace(s string) string {
	var sb strings.Builder
	space := false
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r':
			space = true
			continue
		}
		if space {
			sb.WriteByte(' ')
			space = false
		}
		sb.WriteRune(r)
	}
	if space {
		sb.WriteByte(' ')
	}
	return sb.String()
}

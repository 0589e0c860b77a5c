package ttml

import (
	"bytes"
	"encoding/xml"
	"strings"

	"github.com/sukalov/uta/internal/utils/e"
)

const prettyIndent = "  "

// Pretty re-indents a TTML document. Elements with mixed content (every
// <p> and anything holding non-blank text) are written verbatim so the
// spacing between timed spans is preserved.
func Pretty(data []byte) ([]byte, error) {
	if _, err := buildTree(data, false); err != nil {
		return nil, e.New(e.ErrParse, "format ttml", err)
	}
	tree, err := buildTree(data, true)
	if err != nil {
		return nil, e.New(e.ErrParse, "format ttml", err)
	}

	var buf bytes.Buffer
	for _, c := range tree.children {
		writePretty(&buf, c, 0)
	}
	return buf.Bytes(), nil
}

func writePretty(buf *bytes.Buffer, n *node, depth int) {
	switch n.kind {
	case procInstNode:
		buf.WriteString("<?" + n.name.Local)
		if n.text != "" {
			buf.WriteString(" " + n.text)
		}
		buf.WriteString("?>\n")
		return
	case commentNode:
		buf.WriteString(strings.Repeat(prettyIndent, depth) + "<!--" + n.text + "-->\n")
		return
	case directiveNode:
		buf.WriteString(strings.Repeat(prettyIndent, depth) + "<!" + n.text + ">\n")
		return
	case textNode:
		if t := strings.TrimSpace(n.text); t != "" {
			buf.WriteString(strings.Repeat(prettyIndent, depth))
			writeEscaped(buf, t)
			buf.WriteString("\n")
		}
		return
	}

	buf.WriteString(strings.Repeat(prettyIndent, depth))
	if n.is("p") || hasText(n) {
		writeInline(buf, n)
		buf.WriteString("\n")
		return
	}

	writeStart(buf, n)
	if len(n.children) == 0 {
		buf.Truncate(buf.Len() - 1)
		buf.WriteString("/>\n")
		return
	}
	buf.WriteString("\n")
	for _, c := range n.children {
		writePretty(buf, c, depth+1)
	}
	buf.WriteString(strings.Repeat(prettyIndent, depth))
	writeEnd(buf, n)
	buf.WriteString("\n")
}

func writeInline(buf *bytes.Buffer, n *node) {
	switch n.kind {
	case textNode:
		writeEscaped(buf, n.text)
		return
	case commentNode:
		buf.WriteString("<!--" + n.text + "-->")
		return
	case directiveNode:
		buf.WriteString("<!" + n.text + ">")
		return
	case procInstNode:
		return
	}
	writeStart(buf, n)
	if len(n.children) == 0 {
		buf.Truncate(buf.Len() - 1)
		buf.WriteString("/>")
		return
	}
	for _, c := range n.children {
		writeInline(buf, c)
	}
	writeEnd(buf, n)
}

func hasText(n *node) bool {
	for _, c := range n.children {
		if c.kind == textNode && strings.TrimSpace(c.text) != "" {
			return true
		}
	}
	return false
}

func writeStart(buf *bytes.Buffer, n *node) {
	buf.WriteString("<" + qualified(n.name))
	for _, a := range n.attrs {
		buf.WriteString(" " + qualified(a.Name) + `="`)
		attrEscaper.WriteString(buf, a.Value)
		buf.WriteString(`"`)
	}
	buf.WriteString(">")
}

func writeEnd(buf *bytes.Buffer, n *node) {
	buf.WriteString("</" + qualified(n.name) + ">")
}

func qualified(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	return name.Space + ":" + name.Local
}

// Text keeps its line breaks and tabs. Attribute values escape them, since
// a parser would normalise them to spaces.
var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer(
		"&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;",
		"\n", "&#xA;", "\r", "&#xD;", "\t", "&#x9;",
	)
)

func writeEscaped(buf *bytes.Buffer, s string) {
	_, _ = textEscaper.WriteString(buf, s)
}

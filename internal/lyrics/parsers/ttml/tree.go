package ttml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

type nodeKind int

const (
	elementNode nodeKind = iota
	textNode
	commentNode
	procInstNode
	directiveNode
)

// node is a minimal XML tree. Mixed content keeps its order.
type node struct {
	kind     nodeKind
	name     xml.Name
	attrs    []xml.Attr
	text     string
	children []*node
}

// attr looks an attribute up by local name, ignoring its namespace.
func (n *node) attr(local string) (string, bool) {
	for _, a := range n.attrs {
		if a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

func (n *node) is(local string) bool {
	return n.kind == elementNode && n.name.Local == local
}

// find returns the first element named local in a depth-first walk.
func (n *node) find(local string) *node {
	if n.is(local) {
		return n
	}
	for _, c := range n.children {
		if found := c.find(local); found != nil {
			return found
		}
	}
	return nil
}

// textContent concatenates all character data below n.
func (n *node) textContent() string {
	var sb strings.Builder
	n.writeText(&sb)
	return sb.String()
}

func (n *node) writeText(sb *strings.Builder) {
	switch n.kind {
	case textNode:
		sb.WriteString(n.text)
	case elementNode:
		if n.name.Local == "br" {
			sb.WriteString(" ")
			return
		}
		for _, c := range n.children {
			c.writeText(sb)
		}
	}
}

// buildTree decodes data into a document node. With raw set it keeps
// namespace prefixes as written instead of resolving them.
func buildTree(data []byte, raw bool) (*node, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true

	doc := &node{kind: elementNode}
	stack := []*node{doc}
	sawRoot := false

	for {
		var (
			tok xml.Token
			err error
		)
		if raw {
			tok, err = dec.RawToken()
		} else {
			tok, err = dec.Token()
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		parent := stack[len(stack)-1]
		switch t := tok.(type) {
		case xml.StartElement:
			if len(stack) == 1 {
				if sawRoot {
					return nil, errors.New("multiple root elements")
				}
				sawRoot = true
			}
			el := &node{kind: elementNode, name: t.Name, attrs: append([]xml.Attr(nil), t.Attr...)}
			parent.children = append(parent.children, el)
			stack = append(stack, el)
		case xml.EndElement:
			if len(stack) == 1 {
				return nil, errors.New("unexpected end element")
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) == 1 {
				if len(bytes.TrimSpace(t)) > 0 {
					return nil, errors.New("text outside root element")
				}
				continue
			}
			parent.children = append(parent.children, &node{kind: textNode, text: string(t)})
		case xml.Comment:
			parent.children = append(parent.children, &node{kind: commentNode, text: string(t)})
		case xml.ProcInst:
			parent.children = append(parent.children, &node{kind: procInstNode, name: xml.Name{Local: t.Target}, text: string(t.Inst)})
		case xml.Directive:
			parent.children = append(parent.children, &node{kind: directiveNode, text: string(t)})
		}
	}

	if len(stack) != 1 {
		return nil, errors.New("unexpected end of document")
	}
	if !sawRoot {
		return nil, errors.New("empty document")
	}
	return doc, nil
}

// root returns the document element.
func (n *node) root() *node {
	for _, c := range n.children {
		if c.kind == elementNode {
			return c
		}
	}
	return nil
}

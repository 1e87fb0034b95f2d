package profile

import (
	"bytes"
	"html"
	"io"
	"sort"
	"strings"
)

// Node is a rendered element. HTML carries trusted markup from profile content
// and is written verbatim after Text.
type Node struct {
	Tag      string
	ID       string
	Classes  []string
	Attrs    map[string]string
	Text     string
	HTML     string
	Children []*Node
}

// El creates an element with children. Nil children are skipped.
func El(tag string, children ...*Node) *Node {
	n := &Node{Tag: tag}
	return n.Append(children...)
}

// Append adds non-nil children.
func (n *Node) Append(children ...*Node) *Node {
	for _, child := range children {
		if child != nil {
			n.Children = append(n.Children, child)
		}
	}
	return n
}

// WithID sets the element id.
func (n *Node) WithID(id string) *Node {
	n.ID = id
	return n
}

// WithClass adds non-empty classes.
func (n *Node) WithClass(classes ...string) *Node {
	for _, c := range classes {
		if c != "" {
			n.Classes = append(n.Classes, c)
		}
	}
	return n
}

// WithClassIf adds a class when cond holds.
func (n *Node) WithClassIf(cond bool, class string) *Node {
	if cond {
		return n.WithClass(class)
	}
	return n
}

// WithAttr sets an attribute.
func (n *Node) WithAttr(key, value string) *Node {
	if n.Attrs == nil {
		n.Attrs = make(map[string]string)
	}
	n.Attrs[key] = value
	return n
}

// WithText sets escaped text content.
func (n *Node) WithText(text string) *Node {
	n.Text = text
	return n
}

// WithHTML sets trusted markup content.
func (n *Node) WithHTML(markup string) *Node {
	n.HTML = markup
	return n
}

// HasClass reports whether the node carries class.
func (n *Node) HasClass(class string) bool {
	if n == nil {
		return false
	}
	for _, c := range n.Classes {
		if c == class {
			return true
		}
	}
	return false
}

// Walk visits nodes depth first until fn returns false.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if n == nil {
		return true
	}
	if !fn(n) {
		return false
	}
	for _, child := range n.Children {
		if !child.Walk(fn) {
			return false
		}
	}
	return true
}

// Find returns every node matching pred.
func (n *Node) Find(pred func(*Node) bool) []*Node {
	var out []*Node
	n.Walk(func(cur *Node) bool {
		if pred(cur) {
			out = append(out, cur)
		}
		return true
	})
	return out
}

// FindByID returns the first node with id.
func (n *Node) FindByID(id string) *Node {
	var found *Node
	n.Walk(func(cur *Node) bool {
		if cur.ID == id {
			found = cur
			return false
		}
		return true
	})
	return found
}

// FindByClass returns every node carrying class.
func (n *Node) FindByClass(class string) []*Node {
	return n.Find(func(cur *Node) bool { return cur.HasClass(class) })
}

// TextContent joins the text and markup of the subtree.
func (n *Node) TextContent() string {
	var parts []string
	n.Walk(func(cur *Node) bool {
		if cur.Text != "" {
			parts = append(parts, cur.Text)
		}
		if cur.HTML != "" {
			parts = append(parts, cur.HTML)
		}
		return true
	})
	return strings.Join(parts, " ")
}

var voidElements = map[string]bool{
	"br":    true,
	"hr":    true,
	"img":   true,
	"input": true,
	"link":  true,
	"meta":  true,
}

// WriteHTML serializes the subtree. Attributes are written in sorted order so
// output is deterministic.
func (n *Node) WriteHTML(w io.Writer) error {
	if n == nil {
		return nil
	}
	var buf bytes.Buffer
	n.writeTo(&buf)
	_, err := w.Write(buf.Bytes())
	return err
}

// String renders the subtree as HTML.
func (n *Node) String() string {
	if n == nil {
		return ""
	}
	var buf bytes.Buffer
	n.writeTo(&buf)
	return buf.String()
}

func (n *Node) writeTo(buf *bytes.Buffer) {
	if n.Tag == "" {
		buf.WriteString(html.EscapeString(n.Text))
		buf.WriteString(n.HTML)
		for _, child := range n.Children {
			child.writeTo(buf)
		}
		return
	}

	buf.WriteByte('<')
	buf.WriteString(n.Tag)
	if n.ID != "" {
		writeAttr(buf, "id", n.ID)
	}
	if len(n.Classes) > 0 {
		writeAttr(buf, "class", strings.Join(n.Classes, " "))
	}
	keys := make([]string, 0, len(n.Attrs))
	for key := range n.Attrs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		writeAttr(buf, key, n.Attrs[key])
	}
	buf.WriteByte('>')
	if voidElements[n.Tag] {
		return
	}

	buf.WriteString(html.EscapeString(n.Text))
	buf.WriteString(n.HTML)
	for _, child := range n.Children {
		child.writeTo(buf)
	}
	buf.WriteString("</")
	buf.WriteString(n.Tag)
	buf.WriteByte('>')
}

func writeAttr(buf *bytes.Buffer, key, value string) {
	buf.WriteByte(' ')
	buf.WriteString(key)
	buf.WriteString(`="`)
	buf.WriteString(html.EscapeString(value))
	buf.WriteByte('"')
}

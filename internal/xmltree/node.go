// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

// Package xmltree provides a minimal element tree and an indented serializer for it.
package xmltree

// Attr is an element attribute.
type Attr struct {
	Name  string
	Value string
}

// Node is an output element. A node owns its children.
type Node struct {
	Tag      string
	Text     string
	HasText  bool
	Attrs    []Attr
	Children []*Node
}

// New creates a detached element.
func New(tag string) *Node {
	return &Node{Tag: tag}
}

// Add appends a new child element and returns it.
func (n *Node) Add(tag string) *Node {
	child := New(tag)
	n.Children = append(n.Children, child)
	return child
}

// AddText appends a child element holding text and returns it.
func (n *Node) AddText(tag, text string) *Node {
	child := n.Add(tag)
	child.SetText(text)
	return child
}

// Append attaches existing elements as the last children.
func (n *Node) Append(children ...*Node) {
	n.Children = append(n.Children, children...)
}

// SetText sets the element text.
func (n *Node) SetText(text string) {
	n.Text = text
	n.HasText = true
}

// SetAttr sets an attribute, replacing an existing one with the same name.
func (n *Node) SetAttr(name, value string) {
	for i := range n.Attrs {
		if n.Attrs[i].Name == name {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Name: name, Value: value})
}

// Attr returns the value of the named attribute.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// ChildrenNamed returns the direct children with the given tag, in order.
func (n *Node) ChildrenNamed(tag string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Tag == tag {
			out = append(out, c)
		}
	}
	return out
}

// First returns the first direct child with the given tag, or nil.
func (n *Node) First(tag string) *Node {
	for _, c := range n.Children {
		if c.Tag == tag {
			return c
		}
	}
	return nil
}

// Find follows a chain of tags through first matches.
func (n *Node) Find(tags ...string) *Node {
	cur := n
	for _, t := range tags {
		if cur = cur.First(t); cur == nil {
			return nil
		}
	}
	return cur
}

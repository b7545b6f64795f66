package profile

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// node is one element of a profile document.
type node struct {
	name     string
	attrs    map[string]string
	children []*node
	// path locates the element in error messages, e.g.
	// root/controller[1]/configuration[2].
	path string
}

func (n *node) attr(name string) (string, bool) {
	v, ok := n.attrs[name]
	return v, ok
}

// parseTree reads the whole document into a node tree. Only elements and
// their attributes are kept.
func parseTree(r io.Reader) (*node, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charsetReader

	var (
		root  *node
		stack []*node
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &LoadError{Path: "document", Err: fmt.Errorf("%w: %v", ErrInvalid, err)}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &node{name: t.Name.Local, attrs: make(map[string]string, len(t.Attr))}
			for _, a := range t.Attr {
				n.attrs[a.Name.Local] = a.Value
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, &LoadError{Path: n.name, Err: fmt.Errorf("%w: several root elements", ErrInvalid)}
				}
				n.path = n.name
				root = n
			} else {
				parent := stack[len(stack)-1]
				idx := 1
				for _, c := range parent.children {
					if c.name == n.name {
						idx++
					}
				}
				n.path = fmt.Sprintf("%s/%s[%d]", parent.path, n.name, idx)
				parent.children = append(parent.children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		}
	}
	if root == nil {
		return nil, &LoadError{Path: "document", Err: fmt.Errorf("%w: no root element", ErrInvalid)}
	}
	return root, nil
}

// charsetReader accepts the latin-1 encodings older profile editors wrote.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(label) {
	case "iso-8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1.NewDecoder().Reader(input), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder().Reader(input), nil
	}
	return nil, fmt.Errorf("unsupported charset %q", label)
}

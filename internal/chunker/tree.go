package chunker

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"sort"
	"strings"
)

// node is either an *element or a *text.
type node interface {
	node()
}

// element is a tag with its attributes, children and byte range in the
// source. start is the offset of '<', end the offset just past the
// closing '>'.
type element struct {
	name     string
	attrs    []attr
	children []node
	start    int64
	end      int64
}

// text is character data, including CDATA, with entities decoded.
type text struct {
	data string
}

func (*element) node() {}
func (*text) node()    {}

type attr struct {
	key   string
	value string
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// parse builds the element forest of content. Namespace prefixes are
// stripped from tag and attribute names and namespace declarations are
// dropped. Comments, processing instructions and directives are skipped.
func parse(content []byte) ([]*element, error) {
	content = bytes.TrimPrefix(content, utf8BOM)

	dec := xml.NewDecoder(bytes.NewReader(content))
	dec.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}

	var (
		roots []*element
		stack []*element
	)

	for {
		offset := dec.InputOffset()
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &element{
				name:  t.Name.Local,
				attrs: plainAttrs(t.Attr),
				start: offset,
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, el)
			} else {
				roots = append(roots, el)
			}
			stack = append(stack, el)

		case xml.EndElement:
			// The decoder rejects mismatched end tags, so the stack top is
			// always the element being closed.
			el := stack[len(stack)-1]
			el.end = dec.InputOffset()
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, &text{data: string(t)})
			}
		}
	}

	if len(stack) > 0 {
		return nil, errors.New("unclosed element " + stack[len(stack)-1].name)
	}
	return roots, nil
}

func plainAttrs(in []xml.Attr) []attr {
	out := make([]attr, 0, len(in))
	for _, a := range in {
		if isNamespaceDecl(a.Name) {
			continue
		}
		out = append(out, attr{
			key:   a.Name.Local,
			value: strings.Join(strings.Fields(a.Value), " "),
		})
	}
	return out
}

func isNamespaceDecl(name xml.Name) bool {
	return name.Space == "xmlns" || (name.Space == "" && name.Local == "xmlns")
}

// lineIndex holds the byte offsets of every newline in a document.
type lineIndex []int64

func newLineIndex(content []byte) lineIndex {
	content = bytes.TrimPrefix(content, utf8BOM)

	var idx lineIndex
	for i, b := range content {
		if b == '\n' {
			idx = append(idx, int64(i))
		}
	}
	return idx
}

// line returns the 1-based line holding the byte at offset.
func (li lineIndex) line(offset int64) int {
	return sort.Search(len(li), func(i int) bool { return li[i] >= offset }) + 1
}

package chart

import (
	"bytes"
	"encoding/xml"
	"io"
	"math"
	"strconv"

	"github.com/rotisserie/eris"
)

// Attr is a single SVG attribute.
type Attr struct {
	Name  string
	Value string
}

// Element is a node of the SVG scene.
type Element struct {
	Tag      string
	Attrs    []Attr
	Text     string
	Children []*Element
}

// El creates an element from name/value pairs.
func El(tag string, kv ...string) *Element {
	e := &Element{Tag: tag}
	for i := 0; i+1 < len(kv); i += 2 {
		e.Attrs = append(e.Attrs, Attr{Name: kv[i], Value: kv[i+1]})
	}
	return e
}

// Set assigns an attribute, replacing an existing value.
func (e *Element) Set(name, value string) *Element {
	for i := range e.Attrs {
		if e.Attrs[i].Name == name {
			e.Attrs[i].Value = value
			return e
		}
	}
	e.Attrs = append(e.Attrs, Attr{Name: name, Value: value})
	return e
}

// Get returns an attribute value.
func (e *Element) Get(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Append adds children and returns e.
func (e *Element) Append(children ...*Element) *Element {
	e.Children = append(e.Children, children...)
	return e
}

// WithText sets the text content and returns e.
func (e *Element) WithText(s string) *Element {
	e.Text = s
	return e
}

// Walk visits e and its descendants depth-first.
func (e *Element) Walk(fn func(*Element)) {
	fn(e)
	for _, c := range e.Children {
		c.Walk(fn)
	}
}

// Canvas is a drawing surface with a fixed id. Renderers clear it before drawing.
type Canvas struct {
	ID       string
	Width    int
	Height   int
	elements []*Element
}

// NewCanvas creates an empty canvas.
func NewCanvas(id string, width, height int) *Canvas {
	return &Canvas{ID: id, Width: width, Height: height}
}

// Clear removes all marks.
func (c *Canvas) Clear() {
	c.elements = nil
}

// Append adds top-level elements.
func (c *Canvas) Append(els ...*Element) {
	c.elements = append(c.elements, els...)
}

// Elements returns the top-level elements.
func (c *Canvas) Elements() []*Element {
	return c.elements
}

// FindAll returns every element with the given tag, in document order.
func (c *Canvas) FindAll(tag string) []*Element {
	var out []*Element
	for _, root := range c.elements {
		root.Walk(func(e *Element) {
			if e.Tag == tag {
				out = append(out, e)
			}
		})
	}
	return out
}

// WriteSVG serializes the canvas as a standalone SVG document.
func (c *Canvas) WriteSVG(w io.Writer) error {
	enc := xml.NewEncoder(w)
	start := xml.StartElement{
		Name: xml.Name{Local: "svg"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "xmlns"}, Value: "http://www.w3.org/2000/svg"},
			{Name: xml.Name{Local: "id"}, Value: c.ID},
			{Name: xml.Name{Local: "width"}, Value: strconv.Itoa(c.Width)},
			{Name: xml.Name{Local: "height"}, Value: strconv.Itoa(c.Height)},
		},
	}
	if err := enc.EncodeToken(start); err != nil {
		return eris.Wrap(err, "chart: encode svg")
	}
	for _, e := range c.elements {
		if err := encodeElement(enc, e); err != nil {
			return err
		}
	}
	if err := enc.EncodeToken(start.End()); err != nil {
		return eris.Wrap(err, "chart: encode svg")
	}
	return eris.Wrap(enc.Flush(), "chart: flush svg")
}

// SVG returns the serialized canvas.
func (c *Canvas) SVG() ([]byte, error) {
	var buf bytes.Buffer
	if err := c.WriteSVG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeElement(enc *xml.Encoder, e *Element) error {
	start := xml.StartElement{Name: xml.Name{Local: e.Tag}}
	for _, a := range e.Attrs {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: a.Name}, Value: a.Value})
	}
	if err := enc.EncodeToken(start); err != nil {
		return eris.Wrapf(err, "chart: encode <%s>", e.Tag)
	}
	if e.Text != "" {
		if err := enc.EncodeToken(xml.CharData(e.Text)); err != nil {
			return eris.Wrapf(err, "chart: encode <%s> text", e.Tag)
		}
	}
	for _, c := range e.Children {
		if err := encodeElement(enc, c); err != nil {
			return err
		}
	}
	if err := enc.EncodeToken(start.End()); err != nil {
		return eris.Wrapf(err, "chart: encode </%s>", e.Tag)
	}
	return nil
}

// num formats a coordinate, trimming float noise.
func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*1e6)/1e6, 'f', -1, 64)
}

func translate(x, y float64) string {
	return "translate(" + num(x) + "," + num(y) + ")"
}

package view

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Class names identify the structural parts of a panel.
const (
	ClassWidget      = "widget"
	ClassTiles       = "tiles"
	ClassTile        = "tile"
	ClassTileValue   = "tile-value"
	ClassTileLabel   = "tile-label"
	ClassSecondary   = "secondary"
	ClassUnavailable = "unavailable"
)

const (
	styleContainer = "padding:20px; background:linear-gradient(135deg, #667eea 0%, #764ba2 100%); " +
		"border-radius:8px; color:white; margin-bottom:20px;"
	styleHeading       = "margin-top:0; color:white;"
	styleTileGrid      = "display:grid; grid-template-columns:repeat(3,1fr); gap:15px; margin-top:20px;"
	styleTile          = "text-align:center;"
	styleTileValue     = "font-size:32px; font-weight:bold;"
	styleTileLabel     = "font-size:12px; opacity:0.9; text-transform:uppercase;"
	styleSecondaryWrap = "margin-top:20px; padding-top:15px; border-top:1px solid rgba(255,255,255,0.3);"
	styleSecondaryGrid = "display:grid; grid-template-columns:repeat(2,1fr); gap:10px; font-size:13px;"
	styleFallback      = "color:white;"
)

// BuildContainer returns the empty panel container in its loading state.
func BuildContainer(widgetID string) *html.Node {
	return element(atom.Div, []html.Attribute{
		{Key: "class", Val: ClassWidget},
		{Key: "data-widget", Val: widgetID},
		{Key: "style", Val: styleContainer},
	})
}

// BuildPanel returns the content nodes of a successfully rendered panel:
// heading, tile grid and secondary row.
func BuildPanel(s Summary) []*html.Node {
	grid := element(atom.Div, attrs(ClassTiles, styleTileGrid))

	for _, tile := range s.Tiles {
		grid.AppendChild(element(atom.Div, attrs(ClassTile, styleTile),
			element(atom.Div, attrs(ClassTileValue, styleTileValue), text(tile.Display())),
			element(atom.Div, attrs(ClassTileLabel, styleTileLabel), text(tile.Label)),
		))
	}

	row := element(atom.Div, []html.Attribute{{Key: "style", Val: styleSecondaryGrid}})

	for _, line := range s.Secondary {
		row.AppendChild(element(atom.Div, nil, text(line.Icon+" "+line.Display())))
	}

	return []*html.Node{
		element(atom.H3, []html.Attribute{{Key: "style", Val: styleHeading}}, text(s.Heading)),
		grid,
		element(atom.Div, attrs(ClassSecondary, styleSecondaryWrap), row),
	}
}

// BuildFallback returns the content nodes shown when no document is available.
func BuildFallback() []*html.Node {
	return []*html.Node{
		element(atom.P, attrs(ClassUnavailable, styleFallback), text(FallbackMessage)),
	}
}

// Replace removes all children of parent and appends content.
func Replace(parent *html.Node, content []*html.Node) {
	for c := parent.FirstChild; c != nil; c = parent.FirstChild {
		parent.RemoveChild(c)
	}

	for _, n := range content {
		parent.AppendChild(n)
	}
}

// Clone returns a deep copy of n detached from any tree.
func Clone(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(Clone(child))
	}

	return c
}

// Render writes n as HTML. Text and attribute values are escaped.
func Render(w io.Writer, n *html.Node) error {
	if err := html.Render(w, n); err != nil {
		return fmt.Errorf("rendering html: %w", err)
	}

	return nil
}

// RenderString renders n to a string.
func RenderString(n *html.Node) (string, error) {
	var b strings.Builder
	if err := Render(&b, n); err != nil {
		return "", err
	}

	return b.String(), nil
}

func element(a atom.Atom, attr []html.Attribute, children ...*html.Node) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		DataAtom: a,
		Data:     a.String(),
		Attr:     attr,
	}

	for _, c := range children {
		n.AppendChild(c)
	}

	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func attrs(class, style string) []html.Attribute {
	return []html.Attribute{
		{Key: "class", Val: class},
		{Key: "style", Val: style},
	}
}

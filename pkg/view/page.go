package view

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const styleBody = "font-family:-apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; " +
	"max-width:960px; margin:0 auto; padding:20px;"

// BuildPage returns a complete HTML document mounting the given panels in
// order.
func BuildPage(title string, panels []*html.Node) *html.Node {
	body := element(atom.Body, []html.Attribute{{Key: "style", Val: styleBody}})
	for _, p := range panels {
		body.AppendChild(p)
	}

	head := element(atom.Head, nil,
		element(atom.Meta, []html.Attribute{{Key: "charset", Val: "utf-8"}}),
		element(atom.Meta, []html.Attribute{
			{Key: "name", Val: "viewport"},
			{Key: "content", Val: "width=device-width, initial-scale=1"},
		}),
		element(atom.Title, nil, text(title)),
	)

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	doc.AppendChild(element(atom.Html, []html.Attribute{{Key: "lang", Val: "en"}}, head, body))

	return doc
}

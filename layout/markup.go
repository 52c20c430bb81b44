package layout

import (
	"html"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	markupLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Close", Pattern: `</[A-Za-z][A-Za-z0-9]*\s*>`},
		{Name: "Open", Pattern: `<[A-Za-z][A-Za-z0-9]*(?:\s[^<>]*)?>`},
		{Name: "Text", Pattern: `[^<]+`},
	})

	markupParser = participle.MustBuild[markupDocument](
		participle.Lexer(markupLexer),
	)
)

// markupDocument is the root of a parsed markup string
type markupDocument struct {
	Nodes []*markupNode `parser:"@@*"`
}

type markupNode struct {
	Text    *string        `parser:"  @Text"`
	Element *markupElement `parser:"| @@"`
}

type markupElement struct {
	Open     string        `parser:"@Open"`
	Children []*markupNode `parser:"@@*"`
	Close    string        `parser:"@Close"`
}

// Node is either a text leaf (Tag empty) or an element wrapping children
type Node struct {
	Tag      string
	Text     string
	Children []Node
}

// IsText reports whether the node is a text leaf
func (n Node) IsText() bool {
	return n.Tag == ""
}

// Plain wraps content in a single text leaf without interpreting markup
func Plain(content string) []Node {
	return []Node{{Text: content}}
}

// Parse reads the small HTML-like markup used by text fields. Tags are
// case-insensitive and entities in text are decoded. Content that is not
// well formed, including mismatched closing tags, is returned as one plain
// text leaf.
func Parse(content string) []Node {
	if !strings.Contains(content, "<") {
		return []Node{{Text: html.UnescapeString(content)}}
	}
	doc, err := markupParser.ParseString("", content)
	if err != nil {
		return Plain(content)
	}
	nodes, ok := convert(doc.Nodes)
	if !ok {
		return Plain(content)
	}
	return nodes
}

func convert(in []*markupNode) ([]Node, bool) {
	out := make([]Node, 0, len(in))
	for _, node := range in {
		if node.Text != nil {
			out = append(out, Node{Text: html.UnescapeString(*node.Text)})
			continue
		}
		name := tagName(node.Element.Open)
		if name != tagName(node.Element.Close) {
			return nil, false
		}
		children, ok := convert(node.Element.Children)
		if !ok {
			return nil, false
		}
		out = append(out, Node{Tag: name, Children: children})
	}
	return out, true
}

// tagName extracts the lower-cased name from "<b>", "</b>" or "<span class=x>"
func tagName(tag string) string {
	name := strings.TrimPrefix(strings.TrimPrefix(tag, "<"), "/")
	name = strings.TrimSuffix(name, ">")
	if i := strings.IndexFunc(name, func(r rune) bool { return r == ' ' || r == '\t' || r == '\n' || r == '\r' }); i >= 0 {
		name = name[:i]
	}
	return strings.ToLower(name)
}

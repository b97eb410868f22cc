package preview

import (
	"strings"

	"golang.org/x/net/html"
)

// ErrorKind classifies a runtime verification failure.
type ErrorKind string

const (
	ErrorKindNone       ErrorKind = ""
	ErrorKindModuleLoad ErrorKind = "module-load"
	ErrorKindRender     ErrorKind = "render"
	ErrorKindNotFound   ErrorKind = "not-found"
	ErrorKindTimeout    ErrorKind = "timeout"
	ErrorKindConnection ErrorKind = "connection"
)

// errorSignature pairs a body substring with the failure class it
// indicates. Matching is case-insensitive against the frame's visible
// text.
type errorSignature struct {
	Needle string
	Kind   ErrorKind
}

// Order matters: module-resolution signatures are checked before the
// generic render ones because a failed import usually cascades into
// undefined-reference noise further down the page.
var errorSignatures = []errorSignature{
	{"failed to fetch dynamically imported module", ErrorKindModuleLoad},
	{"failed to resolve import", ErrorKindModuleLoad},
	{"cannot find module", ErrorKindModuleLoad},
	{"module not found", ErrorKindModuleLoad},
	{"cannot use import statement", ErrorKindModuleLoad},
	{"unexpected token", ErrorKindModuleLoad},
	{"is not defined", ErrorKindRender},
	{"is not a function", ErrorKindRender},
	{"cannot read properties of undefined", ErrorKindRender},
	{"cannot read properties of null", ErrorKindRender},
	{"maximum update depth exceeded", ErrorKindRender},
	{"objects are not valid as a react child", ErrorKindRender},
	{"something went wrong", ErrorKindRender},
	{"no story loaded", ErrorKindNotFound},
	{"couldn't find story matching", ErrorKindNotFound},
}

// errorContainers are element markers the preview UI uses to surface a
// failure even when the message text itself is unrecognized.
var errorContainers = map[string]bool{
	"error-message":   true,
	"error-stack":     true,
	"sb-errordisplay": true,
}

// frameScan is the result of reading a rendered preview frame.
type frameScan struct {
	Kind   ErrorKind
	Detail string // raw matched text, suitable for a regeneration prompt
}

// scanFrame parses frame HTML and classifies any visible failure. A nil
// parse error with an empty Kind means the frame looks healthy.
func scanFrame(body string) frameScan {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		// Tolerant parser; an error here means a badly broken response.
		return frameScan{Kind: ErrorKindRender, Detail: "unparsable frame response"}
	}

	var visible strings.Builder
	var errText strings.Builder
	noPreview := false

	var walk func(n *html.Node, inError bool)
	walk = func(n *html.Node, inError bool) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style":
				return
			}
			for _, attr := range n.Attr {
				if attr.Key != "id" && attr.Key != "class" {
					continue
				}
				for _, token := range strings.Fields(attr.Val) {
					if errorContainers[token] {
						inError = true
					}
					if token == "sb-nopreview" || token == "sb-nopreview_main" {
						noPreview = true
					}
				}
			}
		}
		if n.Type == html.TextNode {
			visible.WriteString(n.Data)
			visible.WriteString(" ")
			if inError {
				errText.WriteString(strings.TrimSpace(n.Data))
				errText.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, inError)
		}
	}
	walk(doc, false)

	text := visible.String()
	lower := strings.ToLower(text)

	for _, sig := range errorSignatures {
		if idx := strings.Index(lower, sig.Needle); idx >= 0 {
			return frameScan{Kind: sig.Kind, Detail: excerpt(text, idx)}
		}
	}
	if detail := strings.TrimSpace(errText.String()); detail != "" {
		return frameScan{Kind: ErrorKindRender, Detail: detail}
	}
	if noPreview {
		return frameScan{Kind: ErrorKindNotFound, Detail: "preview frame reports no story loaded"}
	}
	return frameScan{}
}

// classifyText matches raw diagnostic text (a console line, a page
// error) against the signature table.
func classifyText(text string) ErrorKind {
	lower := strings.ToLower(text)
	for _, sig := range errorSignatures {
		if strings.Contains(lower, sig.Needle) {
			return sig.Kind
		}
	}
	return ErrorKindNone
}

// excerpt returns a short window of text around a match offset.
func excerpt(text string, idx int) string {
	start := idx - 40
	if start < 0 {
		start = 0
	}
	end := idx + 160
	if end > len(text) {
		end = len(text)
	}
	return strings.Join(strings.Fields(text[start:end]), " ")
}

package jira

import (
	"encoding/json"
	"fmt"
	"strings"
)

// adfNode is one node in an Atlassian Document Format tree.
type adfNode struct {
	Type    string                 `json:"type"`
	Text    string                 `json:"text"`
	Content []adfNode              `json:"content"`
	Attrs   map[string]interface{} `json:"attrs"`
	Marks   []adfMark              `json:"marks"`
}

// adfMark is an inline formatting mark on a text node.
type adfMark struct {
	Type  string                 `json:"type"`
	Attrs map[string]interface{} `json:"attrs"`
}

// DocumentToMarkup converts a Jira ADF document into the internal markup
// string. It never fails: null input yields "", a plain string passes
// through unchanged, and anything unrecognized degrades to a JSON dump of
// the payload rather than an error.
func DocumentToMarkup(raw json.RawMessage) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var node adfNode
	if err := json.Unmarshal(raw, &node); err == nil && node.Type != "" {
		return renderNode(&node)
	}

	// Last resort: non-object, non-string shape (number, array, ...).
	var v interface{}
	if err := json.Unmarshal(raw, &v); err == nil {
		if dump, err := json.Marshal(v); err == nil {
			return string(dump)
		}
	}
	return trimmed
}

// renderNode converts one ADF node depth-first.
func renderNode(n *adfNode) string {
	switch n.Type {
	case "doc":
		return renderChildren(n)
	case "paragraph":
		return "<p>" + renderChildren(n) + "</p>"
	case "heading":
		level := attrInt(n.Attrs, "level", 1)
		if level < 1 || level > 6 {
			level = 1
		}
		return fmt.Sprintf("<h%d>%s</h%d>", level, renderChildren(n), level)
	case "orderedList":
		return "<ol>" + renderChildren(n) + "</ol>"
	case "bulletList":
		return "<ul>" + renderChildren(n) + "</ul>"
	case "listItem":
		return "<li>" + renderChildren(n) + "</li>"
	case "codeBlock":
		return "<pre><code>" + renderChildren(n) + "</code></pre>"
	case "blockquote":
		return "<blockquote>" + renderChildren(n) + "</blockquote>"
	case "horizontalRule":
		return "<hr>"
	case "hardBreak":
		return "<br>"
	case "text":
		return applyMarks(n.Text, n.Marks)
	default:
		// Unknown node types contribute their children, nothing else.
		return renderChildren(n)
	}
}

func renderChildren(n *adfNode) string {
	if len(n.Content) == 0 {
		return ""
	}
	var sb strings.Builder
	for i := range n.Content {
		sb.WriteString(renderNode(&n.Content[i]))
	}
	return sb.String()
}

// applyMarks wraps text in one tag per mark, iterating in the order given:
// the first mark in the list becomes the innermost wrap. Mark order is
// vendor-controlled and deliberately not normalized.
func applyMarks(text string, marks []adfMark) string {
	result := text
	for _, m := range marks {
		switch m.Type {
		case "strong":
			result = "<strong>" + result + "</strong>"
		case "em":
			result = "<em>" + result + "</em>"
		case "underline":
			result = "<u>" + result + "</u>"
		case "strike":
			result = "<s>" + result + "</s>"
		case "code":
			result = "<code>" + result + "</code>"
		case "link":
			href := attrString(m.Attrs, "href")
			result = fmt.Sprintf("<a href=%q>%s</a>", href, result)
		case "textColor":
			color := attrString(m.Attrs, "color")
			result = fmt.Sprintf("<span style=\"color: %s\">%s</span>", color, result)
		case "backgroundColor":
			color := attrString(m.Attrs, "color")
			result = fmt.Sprintf("<span style=\"background-color: %s\">%s</span>", color, result)
		}
	}
	return result
}

func attrInt(attrs map[string]interface{}, key string, def int) int {
	if attrs == nil {
		return def
	}
	if v, ok := attrs[key].(float64); ok {
		return int(v)
	}
	return def
}

func attrString(attrs map[string]interface{}, key string) string {
	if attrs == nil {
		return ""
	}
	if v, ok := attrs[key].(string); ok {
		return v
	}
	return ""
}

// MarkupToADF converts internal markup back to a minimal ADF document for
// pushes. Markup tags are not round-tripped; each line becomes a paragraph
// of plain text, which is the level of fidelity Jira needs for created
// issues.
func MarkupToADF(text string) map[string]interface{} {
	var content []interface{}
	for _, line := range strings.Split(stripTags(text), "\n") {
		if line == "" {
			content = append(content, map[string]interface{}{
				"type":    "paragraph",
				"content": []interface{}{},
			})
			continue
		}
		content = append(content, map[string]interface{}{
			"type": "paragraph",
			"content": []interface{}{
				map[string]interface{}{"type": "text", "text": line},
			},
		})
	}
	if content == nil {
		content = []interface{}{}
	}
	return map[string]interface{}{
		"type":    "doc",
		"version": 1,
		"content": content,
	}
}

// stripTags removes markup tags, turning block boundaries into newlines.
func stripTags(s string) string {
	replacer := strings.NewReplacer(
		"</p>", "\n", "</li>", "\n", "</h1>", "\n", "</h2>", "\n",
		"</h3>", "\n", "<br>", "\n", "<hr>", "\n",
	)
	s = replacer.Replace(s)
	var sb strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			sb.WriteRune(r)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

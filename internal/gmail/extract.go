package gmail

import (
	"encoding/base64"
	"strings"

	"golang.org/x/net/html"
	gmail "google.golang.org/api/gmail/v1"
)

// ExtractBody produces a single plain-text string from a message payload.
//
// A text/plain part wins and is returned decoded but otherwise unmodified. If
// only a text/html part exists, it is converted to text with non-content tags
// stripped and whitespace collapsed. A text/plain part whose body is absent
// or does not decode counts as no match, so a decodable text/html sibling is
// still used. A payload without a matching part yields the empty string; an
// absent body is not an error.
func ExtractBody(payload *gmail.MessagePart) string {
	if payload == nil {
		return ""
	}

	if len(payload.Parts) > 0 {
		for _, part := range payload.Parts {
			if part.MimeType == "text/plain" {
				if text := decodePartBody(part); text != "" {
					return text
				}
			}
		}
		for _, part := range payload.Parts {
			if part.MimeType == "text/html" {
				if raw := decodePartBody(part); raw != "" {
					return htmlToText(raw)
				}
			}
		}
		return ""
	}

	// No parts array: apply the same two branches to the payload itself.
	switch payload.MimeType {
	case "text/plain":
		return decodePartBody(payload)
	case "text/html":
		if raw := decodePartBody(payload); raw != "" {
			return htmlToText(raw)
		}
	}
	return ""
}

// decodePartBody decodes the base64url body of a part, returning "" when the
// part has no body data or the data does not decode.
func decodePartBody(part *gmail.MessagePart) string {
	if part == nil || part.Body == nil || part.Body.Data == "" {
		return ""
	}

	// Gmail API uses RFC 4648 base64url encoding; tolerate both padded and
	// unpadded data.
	data, err := base64.URLEncoding.DecodeString(part.Body.Data)
	if err != nil {
		data, err = base64.RawURLEncoding.DecodeString(part.Body.Data)
		if err != nil {
			return ""
		}
	}
	return string(data)
}

// skippedElements are HTML elements whose entire content is dropped during
// text extraction.
var skippedElements = map[string]bool{
	"style":    true,
	"script":   true,
	"head":     true,
	"title":    true,
	"meta":     true,
	"link":     true,
	"noscript": true,
}

// htmlToText strips markup from an HTML document and collapses runs of
// whitespace into single spaces.
func htmlToText(raw string) string {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return ""
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skippedElements[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString(" ")
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	return strings.Join(strings.Fields(b.String()), " ")
}

// Package hypertext flattens styled text fragments into a message body plus
// the entity annotations a rich-text chat client needs to render it.
// Offsets and lengths are counted in UTF-16 code units, which is what the
// Telegram Bot API expects.
package hypertext

import (
	"unicode/utf16"
)

// EntityType names the rich-text style applied to a span of the body.
type EntityType string

const (
	EntityBold     EntityType = "bold"
	EntityTextLink EntityType = "text_link"
)

// Fragment is a unit of text with optional emphasis or link target.
type Fragment struct {
	Text string
	Bold bool
	URL  string
}

// Text returns an unstyled fragment.
func Text(s string) Fragment {
	return Fragment{Text: s}
}

// Bold returns a bold fragment.
func Bold(s string) Fragment {
	return Fragment{Text: s, Bold: true}
}

// Link returns a fragment rendered as a hyperlink to url.
func Link(s, url string) Fragment {
	return Fragment{Text: s, URL: url}
}

// entityTypes lists the styles of f. A bold link carries both.
func (f Fragment) entityTypes() []EntityType {
	var types []EntityType
	if f.Bold {
		types = append(types, EntityBold)
	}
	if f.URL != "" {
		types = append(types, EntityTextLink)
	}
	return types
}

// Entity annotates a span of a message body.
type Entity struct {
	Type   EntityType `json:"type"`
	Offset int        `json:"offset"`
	Length int        `json:"length"`
	URL    string     `json:"url,omitempty"`
}

// Message is a compiled body and its annotations.
type Message struct {
	Body     string   `json:"text"`
	Entities []Entity `json:"entities,omitempty"`
}

// Compile concatenates the fragments and records one entity per style of
// each styled or linked fragment.
func Compile(fragments []Fragment) Message {
	var (
		body     []byte
		entities []Entity
		offset   int
	)
	for _, f := range fragments {
		body = append(body, f.Text...)
		length := UTF16Len(f.Text)
		for _, typ := range f.entityTypes() {
			e := Entity{Type: typ, Offset: offset, Length: length}
			if typ == EntityTextLink {
				e.URL = f.URL
			}
			entities = append(entities, e)
		}
		offset += length
	}
	return Message{Body: string(body), Entities: entities}
}

// UTF16Len returns the number of UTF-16 code units needed to encode s.
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// Slice returns the substring of body covering length UTF-16 code units
// starting at offset. Out-of-range spans are clamped to the body.
func Slice(body string, offset, length int) string {
	start, end := byteRange(body, offset, length)
	return body[start:end]
}

func byteRange(body string, offset, length int) (int, int) {
	start, end := len(body), len(body)
	units := 0
	found := false
	for i, r := range body {
		if !found && units >= offset {
			start = i
			found = true
		}
		if units >= offset+length {
			end = i
			return start, end
		}
		units += utf16.RuneLen(r)
	}
	return start, end
}

package hypertext

import "sort"

// Span is a styled region of a message body with every entity covering
// exactly that region merged into it.
type Span struct {
	Offset int
	Length int
	Bold   bool
	URL    string
}

// Spans merges entities sharing the same region and returns the regions in
// body order. Regions overlapping an earlier one are dropped.
func Spans(msg Message) []Span {
	entities := make([]Entity, len(msg.Entities))
	copy(entities, msg.Entities)
	sort.SliceStable(entities, func(i, j int) bool {
		return entities[i].Offset < entities[j].Offset
	})

	var spans []Span
	end := 0
	for _, e := range entities {
		if n := len(spans); n > 0 && spans[n-1].Offset == e.Offset && spans[n-1].Length == e.Length {
			merge(&spans[n-1], e)
			continue
		}
		if e.Offset < end {
			continue
		}
		s := Span{Offset: e.Offset, Length: e.Length}
		merge(&s, e)
		spans = append(spans, s)
		end = e.Offset + e.Length
	}
	return spans
}

func merge(s *Span, e Entity) {
	switch e.Type {
	case EntityBold:
		s.Bold = true
	case EntityTextLink:
		s.URL = e.URL
	}
}

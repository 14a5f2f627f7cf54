package timeline

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/teranos/chronicle/temporal"
)

// Segment class names
const (
	ClassUncertain      = "uncertain"
	ClassUncertainStart = "uncertain-start"
	ClassUncertainEnd   = "uncertain-end"
	ClassTail           = "tail"
)

// Tags the main segment carries when it joins a synthesized neighbour
const (
	TagConnectsLeft  = "connects-left"
	TagConnectsRight = "connects-right"
	TagHasTail       = "has-tail"
	TagOpenLeft      = "open-left"
)

// Segment is one renderable vis.js item
type Segment struct {
	ID        string
	Content   string
	Start     time.Time
	End       *time.Time
	Group     GroupID
	Subgroup  GroupID
	ClassName string
	Type      Type
	Title     string
	Comment   string
}

// AddClass appends class names, skipping ones already present
func (s *Segment) AddClass(names ...string) {
	have := strings.Fields(s.ClassName)
	for _, n := range names {
		found := false
		for _, h := range have {
			if h == n {
				found = true
				break
			}
		}
		if !found {
			have = append(have, n)
		}
	}
	s.ClassName = strings.Join(have, " ")
}

// HasClass reports whether the segment carries a class name
func (s *Segment) HasClass(name string) bool {
	for _, h := range strings.Fields(s.ClassName) {
		if h == name {
			return true
		}
	}
	return false
}

type segmentJSON struct {
	ID        string  `json:"id"`
	Content   string  `json:"content"`
	Start     string  `json:"start"`
	End       string  `json:"end,omitempty"`
	Group     GroupID `json:"group,omitempty"`
	Subgroup  GroupID `json:"subgroup,omitempty"`
	ClassName string  `json:"className,omitempty"`
	Type      Type    `json:"type,omitempty"`
	Title     string  `json:"title,omitempty"`
	Comment   string  `json:"comment,omitempty"`
}

// MarshalJSON writes start and end as fixed-format extended-year strings
func (s Segment) MarshalJSON() ([]byte, error) {
	out := segmentJSON{
		ID:        s.ID,
		Content:   s.Content,
		Start:     temporal.Format(s.Start),
		Group:     s.Group,
		Subgroup:  s.Subgroup,
		ClassName: s.ClassName,
		Type:      s.Type,
		Title:     s.Title,
		Comment:   s.Comment,
	}
	if s.End != nil {
		out.End = temporal.Format(*s.End)
	}
	// Content is usually an HTML link, keep it readable
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

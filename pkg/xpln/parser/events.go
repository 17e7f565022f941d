package parser

import (
	"encoding/xml"
	"io"
)

// EventKind identifies the type of a structural event.
type EventKind int

const (
	// EventStart is an element start tag.
	EventStart EventKind = iota + 1
	// EventEnd is an element end tag.
	EventEnd
	// EventText is character data.
	EventText
	// EventError reports a tokenizer failure. No events follow it.
	EventError
	// EventEOF marks the end of the stream. No events follow it.
	EventEOF
)

// Attr is an attribute with its namespace prefix removed.
type Attr struct {
	Name  string
	Value string
}

// Event is a single structural event in document order.
type Event struct {
	Kind  EventKind
	Name  string // local element name for EventStart and EventEnd
	Attrs []Attr // EventStart only
	Text  string // EventText only
	Err   error  // EventError only
}

// Attr returns the value of the attribute with the given local name.
func (e Event) Attr(name string) (string, bool) {
	for _, attr := range e.Attrs {
		if attr.Name == name {
			return attr.Value, true
		}
	}
	return "", false
}

// EventSource yields structural events in document order.
type EventSource interface {
	Next() Event
}

// xmlEvents adapts an encoding/xml decoder to EventSource.
type xmlEvents struct {
	decoder *xml.Decoder
}

// NewXMLEvents returns an EventSource reading XML from r in a single forward pass.
func NewXMLEvents(r io.Reader) EventSource {
	return &xmlEvents{decoder: xml.NewDecoder(r)}
}

func (x *xmlEvents) Next() Event {
	for {
		token, err := x.decoder.Token()
		if err == io.EOF {
			return Event{Kind: EventEOF}
		}
		if err != nil {
			return Event{Kind: EventError, Err: err}
		}

		switch t := token.(type) {
		case xml.StartElement:
			attrs := make([]Attr, len(t.Attr))
			for i, attr := range t.Attr {
				attrs[i] = Attr{Name: attr.Name.Local, Value: attr.Value}
			}
			return Event{Kind: EventStart, Name: t.Name.Local, Attrs: attrs}
		case xml.EndElement:
			return Event{Kind: EventEnd, Name: t.Name.Local}
		case xml.CharData:
			return Event{Kind: EventText, Text: string(t)}
		}
	}
}

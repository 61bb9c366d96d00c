package hunk

import (
	"fmt"
	"strconv"
	"strings"
)

// PayloadKind is the discriminant of Payload.
type PayloadKind uint8

const (
	PayloadNone PayloadKind = iota
	PayloadString
	PayloadInt
	PayloadFloat
)

// String returns a short name for the kind.
func (k PayloadKind) String() string {
	switch k {
	case PayloadNone:
		return "none"
	case PayloadString:
		return "string"
	case PayloadInt:
		return "int"
	case PayloadFloat:
		return "float"
	default:
		return "unknown"
	}
}

// Payload is the closed set of values a hunk can carry: NoPayload,
// StringPayload, IntPayload, and FloatPayload.
type Payload interface {
	Kind() PayloadKind
	// Text renders the payload the way it appears in a diff document.
	Text() string
	payload()
}

// NoPayload marks hunks that carry no data.
type NoPayload struct{}

// StringPayload carries a name, path, or free text.
type StringPayload string

// IntPayload carries an integer value.
type IntPayload int

// FloatPayload carries a floating point value.
type FloatPayload float64

func (NoPayload) Kind() PayloadKind     { return PayloadNone }
func (StringPayload) Kind() PayloadKind { return PayloadString }
func (IntPayload) Kind() PayloadKind    { return PayloadInt }
func (FloatPayload) Kind() PayloadKind  { return PayloadFloat }

func (NoPayload) Text() string       { return "" }
func (p StringPayload) Text() string { return string(p) }
func (p IntPayload) Text() string    { return strconv.Itoa(int(p)) }
func (p FloatPayload) Text() string  { return strconv.FormatFloat(float64(p), 'f', -1, 64) }

func (NoPayload) payload()     {}
func (StringPayload) payload() {}
func (IntPayload) payload()    {}
func (FloatPayload) payload()  {}

// DecodePayload parses document text according to kind.
func DecodePayload(kind PayloadKind, text string) (Payload, error) {
	text = strings.TrimSpace(text)
	switch kind {
	case PayloadNone:
		return NoPayload{}, nil
	case PayloadString:
		if text == "" {
			return nil, fmt.Errorf("string payload is empty")
		}
		return StringPayload(text), nil
	case PayloadInt:
		value, err := strconv.Atoi(text)
		if err != nil {
			return nil, fmt.Errorf("int payload %q: %w", text, err)
		}
		return IntPayload(value), nil
	case PayloadFloat:
		value, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("float payload %q: %w", text, err)
		}
		return FloatPayload(value), nil
	default:
		return nil, fmt.Errorf("unknown payload kind %d", kind)
	}
}

// PayloadText returns p's document text, tolerating a nil payload.
func PayloadText(p Payload) string {
	if p == nil {
		return ""
	}
	return p.Text()
}

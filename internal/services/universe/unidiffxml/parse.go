package unidiffxml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	apperrors "github.com/louisbranch/starpatch/internal/platform/errors"
	"github.com/louisbranch/starpatch/internal/services/universe/domain/diff"
	"github.com/louisbranch/starpatch/internal/services/universe/domain/hunk"
)

const rootElement = "unidiff"

// ReadHeader returns the diff name from the document root without reading
// the rest of the document.
func ReadHeader(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	root, err := rootStart(dec)
	if err != nil {
		return "", err
	}
	return diffName(root)
}

// Parse reads a full document. Unknown groups, tags, and attributes and
// undecodable payloads are logged and skipped; only a malformed document or
// missing root fails. source is recorded on the definition.
func Parse(r io.Reader, source string, logger *log.Logger) (*diff.Definition, error) {
	if logger == nil {
		logger = log.Default()
	}
	dec := xml.NewDecoder(r)
	root, err := rootStart(dec)
	if err != nil {
		return nil, err
	}
	name, err := diffName(root)
	if err != nil {
		return nil, err
	}
	p := &parser{dec: dec, diff: name, logger: logger}
	if err := p.parseRoot(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeParseInvalid, fmt.Sprintf("parse unidiff %q", name), err)
	}
	return diff.NewDefinition(name, source, p.hunks), nil
}

type parser struct {
	dec    *xml.Decoder
	diff   string
	logger *log.Logger
	hunks  []hunk.Hunk
}

func (p *parser) warnf(format string, args ...any) {
	p.logger.Printf("unidiff '%s': "+format, append([]any{p.diff}, args...)...)
}

func (p *parser) parseRoot() error {
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			kind, ok := hunk.ParseTargetKind(t.Name.Local)
			if !ok {
				p.warnf("unknown node '%s'", t.Name.Local)
				if err := p.dec.Skip(); err != nil {
					return err
				}
				continue
			}
			target := strings.TrimSpace(attrValue(t, "name"))
			if target == "" {
				p.warnf("%s node without a 'name' attribute, skipping", kind)
				if err := p.dec.Skip(); err != nil {
					return err
				}
				continue
			}
			if err := p.parseGroup(hunk.Target{Kind: kind, Name: target}); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		}
	}
}

func (p *parser) parseGroup(target hunk.Target) error {
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if err := p.parseHunk(target, t); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		}
	}
}

func (p *parser) parseHunk(target hunk.Target, start xml.StartElement) error {
	tag := start.Name.Local
	desc, ok := hunk.Lookup(target.Kind, tag)
	if !ok {
		p.warnf("unknown hunk type '%s' for %s '%s'", tag, target.Kind, target.Name)
		return p.dec.Skip()
	}
	text, err := p.text(tag)
	if err != nil {
		return err
	}

	attrs := make([]hunk.Attribute, 0, len(start.Attr))
	for _, a := range start.Attr {
		if !desc.AllowsAttribute(a.Name.Local) {
			p.warnf("hunk '%s' for %s '%s' has unknown attribute '%s', skipping", tag, target.Kind, target.Name, a.Name.Local)
			return nil
		}
		attrs = append(attrs, hunk.Attribute{Name: a.Name.Local, Value: a.Value})
	}
	if len(attrs) == 0 {
		attrs = nil
	}

	payload, err := hunk.DecodePayload(desc.Payload, text)
	if err != nil {
		p.warnf("hunk '%s' for %s '%s': %v, skipping", tag, target.Kind, target.Name, err)
		return nil
	}
	if desc.Payload == hunk.PayloadNone && strings.TrimSpace(text) != "" {
		p.warnf("hunk '%s' for %s '%s' ignores its text", tag, target.Kind, target.Name)
	}
	p.hunks = append(p.hunks, hunk.Hunk{
		Target:     target,
		Type:       desc.Type,
		Payload:    payload,
		Attributes: attrs,
	})
	return nil
}

// text collects the character data of the current element. Nested elements
// are skipped with a warning.
func (p *parser) text(tag string) (string, error) {
	var b strings.Builder
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			b.Write(t)
		case xml.StartElement:
			p.warnf("hunk '%s' has unexpected child '%s'", tag, t.Name.Local)
			if err := p.dec.Skip(); err != nil {
				return "", err
			}
		case xml.EndElement:
			return b.String(), nil
		}
	}
}

func rootStart(dec *xml.Decoder) (xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return xml.StartElement{}, apperrors.New(apperrors.CodeParseInvalid, "missing root element 'unidiff'")
		}
		if err != nil {
			return xml.StartElement{}, apperrors.Wrap(apperrors.CodeParseInvalid, "read unidiff header", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local != rootElement {
			return xml.StartElement{}, apperrors.WithMetadata(apperrors.CodeParseInvalid, "missing root element 'unidiff'", map[string]string{
				"root": start.Name.Local,
			})
		}
		return start, nil
	}
}

func diffName(root xml.StartElement) (string, error) {
	name := strings.TrimSpace(attrValue(root, "name"))
	if name == "" {
		return "", apperrors.New(apperrors.CodeParseInvalid, "unidiff root without a 'name' attribute")
	}
	return name, nil
}

func attrValue(start xml.StartElement, name string) string {
	for _, a := range start.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

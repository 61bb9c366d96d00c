package unidiffxml

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/louisbranch/starpatch/internal/services/universe/domain/diff"
	"github.com/louisbranch/starpatch/internal/services/universe/domain/hunk"
)

// Write serializes def as a document. Consecutive hunks on the same target
// share one group element. Revert-only hunk types cannot be written.
func Write(w io.Writer, def *diff.Definition) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", " ")

	root := xml.StartElement{
		Name: xml.Name{Local: rootElement},
		Attr: []xml.Attr{{Name: xml.Name{Local: "name"}, Value: def.Name()}},
	}
	if err := enc.EncodeToken(root); err != nil {
		return err
	}

	var (
		open    bool
		current hunk.Target
		group   xml.StartElement
	)
	for _, h := range def.Hunks() {
		tag := hunk.Tag(h.Type)
		if tag == "" {
			return fmt.Errorf("write unidiff %q: hunk type %s has no tag", def.Name(), h.Type.Key())
		}
		if !open || h.Target != current {
			if open {
				if err := enc.EncodeToken(group.End()); err != nil {
					return err
				}
			}
			current = h.Target
			group = xml.StartElement{
				Name: xml.Name{Local: h.Target.Kind.String()},
				Attr: []xml.Attr{{Name: xml.Name{Local: "name"}, Value: h.Target.Name}},
			}
			if err := enc.EncodeToken(group); err != nil {
				return err
			}
			open = true
		}

		elem := xml.StartElement{Name: xml.Name{Local: tag}}
		for _, a := range h.Attributes {
			elem.Attr = append(elem.Attr, xml.Attr{Name: xml.Name{Local: a.Name}, Value: a.Value})
		}
		if err := enc.EncodeToken(elem); err != nil {
			return err
		}
		if text := hunk.PayloadText(h.Payload); text != "" {
			if err := enc.EncodeToken(xml.CharData(text)); err != nil {
				return err
			}
		}
		if err := enc.EncodeToken(elem.End()); err != nil {
			return err
		}
	}
	if open {
		if err := enc.EncodeToken(group.End()); err != nil {
			return err
		}
	}
	if err := enc.EncodeToken(root.End()); err != nil {
		return err
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

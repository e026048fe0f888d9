package fix

import (
	"errors"
	"io"

	"gopkg.in/yaml.v3"
)

// LoadDictionaryYAML loads a self-contained protocol description written in
// YAML. Members are mappings with a single key naming their kind:
//
//	members:
//	  - field: {name: Symbol, required: Y}
//	  - group: {name: NoMDEntries, required: N, members: [...]}
//	  - component: {name: Instrument}
func LoadDictionaryYAML(r io.Reader) (*Dictionary, error) {
	raw, err := decodeYAML(r)
	if err != nil {
		return nil, err
	}
	if raw.Transport != "" {
		return nil, newError(CodeXMLLoad, "transport '%s' cannot be resolved from a reader", raw.Transport)
	}
	return compileDictionary(raw, nil)
}

func decodeYAML(r io.Reader) (*rawProtocol, error) {
	var raw rawProtocol
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, newError(CodeXMLLoad, "empty protocol description")
		}
		var fe *Error
		if errors.As(err, &fe) {
			return nil, fe
		}
		return nil, newError(CodeXMLSyntax, "%v", err)
	}
	return &raw, nil
}

// UnmarshalYAML decodes the single-key member form.
func (m *rawMember) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return newError(CodeXMLAttrInvalid, "line %d: member must be a single-key mapping", node.Line)
	}
	kind := node.Content[0].Value
	switch kind {
	case memberField, memberGroup, memberComponent:
	default:
		return newError(CodeXMLAttrInvalid, "line %d: unexpected member kind '%s'", node.Line, kind)
	}
	type plain rawMember
	var body plain
	if err := node.Content[1].Decode(&body); err != nil {
		return err
	}
	*m = rawMember(body)
	m.Kind = kind
	return nil
}

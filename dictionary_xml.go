package fix

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// xmlNode keeps the document order of child elements, which decides the wire
// order of message members.
type xmlNode struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []xmlNode  `xml:",any"`
}

func (n *xmlNode) attr(name string) string {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func (n *xmlNode) child(name string) *xmlNode {
	for i := range n.Children {
		if n.Children[i].XMLName.Local == name {
			return &n.Children[i]
		}
	}
	return nil
}

// LoadDictionary loads a self-contained XML protocol description. Documents
// that name a separate transport file must be loaded with LoadDictionaryFile
// or LoadDictionaryFS so the reference can be resolved.
func LoadDictionary(r io.Reader) (*Dictionary, error) {
	raw, err := decodeXML(r)
	if err != nil {
		return nil, err
	}
	if raw.Transport != "" {
		return nil, newError(CodeXMLLoad, "transport '%s' cannot be resolved from a reader", raw.Transport)
	}
	return compileDictionary(raw, nil)
}

// LoadDictionaryFile loads a protocol description from disk. Files ending in
// .yaml or .yml are read as YAML, everything else as XML. A transport file
// given without a directory is looked up next to the protocol file.
func LoadDictionaryFile(name string) (*Dictionary, error) {
	return loadDictionary(osSource{}, name)
}

// LoadDictionaryFS is LoadDictionaryFile over an fs.FS.
func LoadDictionaryFS(fsys fs.FS, name string) (*Dictionary, error) {
	return loadDictionary(fsSource{fsys: fsys}, name)
}

type source interface {
	read(name string) ([]byte, error)
	resolve(base, ref string) string
}

type osSource struct{}

func (osSource) read(name string) ([]byte, error) { return os.ReadFile(name) }

func (osSource) resolve(base, ref string) string {
	if filepath.Dir(ref) != "." || filepath.IsAbs(ref) {
		return ref
	}
	return filepath.Join(filepath.Dir(base), ref)
}

type fsSource struct{ fsys fs.FS }

func (s fsSource) read(name string) ([]byte, error) { return fs.ReadFile(s.fsys, name) }

func (fsSource) resolve(base, ref string) string {
	if path.Dir(ref) != "." {
		return ref
	}
	return path.Join(path.Dir(base), ref)
}

func loadDictionary(src source, name string) (*Dictionary, error) {
	app, err := readProtocol(src, name)
	if err != nil {
		return nil, err
	}
	if app.Transport == "" {
		return compileDictionary(app, nil)
	}
	tname := src.resolve(name, app.Transport)
	if tname == name {
		return compileDictionary(app, nil)
	}
	transport, err := readProtocol(src, tname)
	if err != nil {
		return nil, err
	}
	return compileDictionary(app, transport)
}

func readProtocol(src source, name string) (*rawProtocol, error) {
	data, err := src.read(name)
	if err != nil {
		return nil, &Error{Code: CodeXMLLoad, Text: "unable to read '" + name + "': " + err.Error()}
	}
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		return decodeYAML(bytes.NewReader(data))
	}
	return decodeXML(bytes.NewReader(data))
}

func decodeXML(r io.Reader) (*rawProtocol, error) {
	var root xmlNode
	if err := xml.NewDecoder(r).Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, newError(CodeXMLLoad, "empty protocol description")
		}
		var se *xml.SyntaxError
		if errors.As(err, &se) {
			return nil, newError(CodeXMLSyntax, "line %d: %s", se.Line, se.Msg)
		}
		return nil, newError(CodeXMLLoad, "%v", err)
	}
	if root.XMLName.Local != "fix" {
		return nil, newError(CodeUnknownProtocolDescr, "root element is '%s', expected 'fix'", root.XMLName.Local)
	}

	raw := &rawProtocol{
		Version:   root.attr("version"),
		Transport: root.attr("transport"),
	}

	if fields := root.child("fields"); fields != nil {
		for _, fn := range fields.Children {
			if fn.XMLName.Local != "field" {
				continue
			}
			rf := rawField{Number: fn.attr("number"), Name: fn.attr("name"), Type: fn.attr("type")}
			for _, vn := range fn.Children {
				if vn.XMLName.Local == "value" {
					rf.Values = append(rf.Values, EnumValue{Value: vn.attr("enum"), Description: vn.attr("description")})
				}
			}
			raw.Fields = append(raw.Fields, rf)
		}
	}
	if comps := root.child("components"); comps != nil {
		for i := range comps.Children {
			cn := &comps.Children[i]
			if cn.XMLName.Local != "component" {
				continue
			}
			raw.Components = append(raw.Components, rawComponent{Name: cn.attr("name"), Members: xmlMembers(cn)})
		}
	}
	if h := root.child("header"); h != nil {
		raw.Header = xmlMembers(h)
	}
	if t := root.child("trailer"); t != nil {
		raw.Trailer = xmlMembers(t)
	}
	if msgs := root.child("messages"); msgs != nil {
		for i := range msgs.Children {
			mn := &msgs.Children[i]
			if mn.XMLName.Local != "message" {
				continue
			}
			msgType := mn.attr("type")
			if msgType == "" {
				msgType = mn.attr("msgtype")
			}
			raw.Messages = append(raw.Messages, rawMessage{Name: mn.attr("name"), Type: msgType, Members: xmlMembers(mn)})
		}
	}
	return raw, nil
}

func xmlMembers(n *xmlNode) []rawMember {
	var members []rawMember
	for i := range n.Children {
		c := &n.Children[i]
		kind := c.XMLName.Local
		m := rawMember{Kind: kind, Name: c.attr("name"), Required: c.attr("required")}
		if kind == memberGroup {
			m.Members = xmlMembers(c)
		}
		members = append(members, m)
	}
	return members
}

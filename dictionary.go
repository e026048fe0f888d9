package fix

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// EnumValue is one entry of a field's valid-value set.
type EnumValue struct {
	Value       string `yaml:"enum"`
	Description string `yaml:"description"`
}

// FieldType is the dictionary-wide definition of a tag.
type FieldType struct {
	Tag    int
	Name   string
	Type   ValueType
	Values []EnumValue
	valid  map[string]struct{}
}

// HasEnum reports whether the field has a declared valid-value set.
func (ft *FieldType) HasEnum() bool { return len(ft.valid) > 0 }

// IsValid reports whether v belongs to the valid-value set. Fields without a
// set accept everything.
func (ft *FieldType) IsValid(v string) bool {
	if len(ft.valid) == 0 {
		return true
	}
	_, ok := ft.valid[v]
	return ok
}

// layout is the ordered member list of a message or of one group instance.
type layout struct {
	members []*FieldDef
	index   map[int]*FieldDef
}

func (l *layout) lookup(tag int) *FieldDef {
	return l.index[tag]
}

func (l *layout) add(def *FieldDef) error {
	if _, dup := l.index[def.Tag()]; dup {
		return newError(CodeDuplicateFieldDescr, "field '%s' appears twice in the same layout", def.Name())
	}
	l.members = append(l.members, def)
	l.index[def.Tag()] = def
	return nil
}

func newLayout() layout {
	return layout{index: make(map[int]*FieldDef)}
}

// FieldDef places a FieldType inside a message or group layout.
type FieldDef struct {
	Field    *FieldType
	Required bool

	group  *layout   // non-nil for repeating groups
	length *FieldDef // the Length member preceding a Data member
	data   *FieldDef // the Data member following a Length member
}

// Tag returns the field tag.
func (d *FieldDef) Tag() int { return d.Field.Tag }

// Name returns the field name.
func (d *FieldDef) Name() string { return d.Field.Name }

// IsGroup reports whether the member is a repeating group.
func (d *FieldDef) IsGroup() bool { return d.group != nil }

// Members returns the layout of one group instance, or nil.
func (d *FieldDef) Members() []*FieldDef {
	if d.group == nil {
		return nil
	}
	return d.group.members
}

// First returns the delimiter field of a repeating group: the member every
// instance must start with.
func (d *FieldDef) First() *FieldDef {
	if d.group == nil || len(d.group.members) == 0 {
		return nil
	}
	return d.group.members[0]
}

// MessageDef describes one message type: header, body and trailer members in
// wire order.
type MessageDef struct {
	Type string
	Name string
	layout
}

// Fields returns the top-level members in wire order.
func (md *MessageDef) Fields() []*FieldDef { return md.members }

// Field returns the top-level member for tag.
func (md *MessageDef) Field(tag int) (*FieldDef, error) {
	if d := md.lookup(tag); d != nil {
		return d, nil
	}
	return nil, newError(CodeUnknownField, "field %d is not part of message '%s'", tag, md.Type)
}

// Required returns the tags of required top-level members.
func (md *MessageDef) Required() []int {
	var tags []int
	for _, d := range md.members {
		if d.Required {
			tags = append(tags, d.Tag())
		}
	}
	return tags
}

// Dictionary is a loaded protocol description. It is immutable and safe for
// concurrent use.
type Dictionary struct {
	version   string
	transport string
	fields    map[int]*FieldType
	names     map[string]*FieldType
	messages  map[string]*MessageDef
}

// ProtocolVersion returns the application protocol version, e.g. "FIX.4.4".
func (d *Dictionary) ProtocolVersion() string { return d.version }

// TransportVersion returns the BeginString value, e.g. "FIXT.1.1".
func (d *Dictionary) TransportVersion() string { return d.transport }

// MessageDefinition returns the definition of a message type.
func (d *Dictionary) MessageDefinition(msgType string) (*MessageDef, error) {
	if md, ok := d.messages[msgType]; ok {
		return md, nil
	}
	return nil, newError(CodeUnknownMsg, "unknown message type '%s'", msgType)
}

// FieldDefinition returns the definition of a tag.
func (d *Dictionary) FieldDefinition(tag int) (*FieldType, error) {
	if ft, ok := d.fields[tag]; ok {
		return ft, nil
	}
	return nil, newError(CodeUnknownField, "unknown field %d", tag)
}

// FieldByName returns the definition of a field by its name.
func (d *Dictionary) FieldByName(name string) (*FieldType, error) {
	if ft, ok := d.names[name]; ok {
		return ft, nil
	}
	return nil, newError(CodeUnknownField, "unknown field '%s'", name)
}

// Messages returns the known message types, sorted.
func (d *Dictionary) Messages() []string {
	types := make([]string, 0, len(d.messages))
	for t := range d.messages {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

// The loaders translate their document format into this model before compiling.

type rawProtocol struct {
	Version    string         `yaml:"version"`
	Transport  string         `yaml:"transport"`
	Fields     []rawField     `yaml:"fields"`
	Components []rawComponent `yaml:"components"`
	Header     []rawMember    `yaml:"header"`
	Trailer    []rawMember    `yaml:"trailer"`
	Messages   []rawMessage   `yaml:"messages"`
}

type rawField struct {
	Number string      `yaml:"number"`
	Name   string      `yaml:"name"`
	Type   string      `yaml:"type"`
	Values []EnumValue `yaml:"values"`
}

type rawComponent struct {
	Name    string      `yaml:"name"`
	Members []rawMember `yaml:"members"`
}

type rawMessage struct {
	Name    string      `yaml:"name"`
	Type    string      `yaml:"type"`
	Members []rawMember `yaml:"members"`
}

const (
	memberField     = "field"
	memberGroup     = "group"
	memberComponent = "component"
)

type rawMember struct {
	Kind     string      `yaml:"-"`
	Name     string      `yaml:"name"`
	Required string      `yaml:"required"`
	Members  []rawMember `yaml:"members"`
}

// compiler turns raw documents into a Dictionary.
type compiler struct {
	dict       *Dictionary
	components map[string]*rawComponent
	expanding  map[string]bool
}

// compileDictionary builds a Dictionary from an application document and an
// optional transport document. Header, trailer and the BeginString version come
// from the transport when one is given.
func compileDictionary(app, transport *rawProtocol) (*Dictionary, error) {
	if err := checkVersion(app.Version); err != nil {
		return nil, err
	}
	c := &compiler{
		dict: &Dictionary{
			version:   app.Version,
			transport: app.Version,
			fields:    make(map[int]*FieldType),
			names:     make(map[string]*FieldType),
			messages:  make(map[string]*MessageDef),
		},
		components: make(map[string]*rawComponent),
		expanding:  make(map[string]bool),
	}

	header, trailer := app.Header, app.Trailer
	if transport != nil {
		if err := checkVersion(transport.Version); err != nil {
			return nil, err
		}
		c.dict.transport = transport.Version
		if err := c.addFields(transport.Fields, false); err != nil {
			return nil, err
		}
		if err := c.addComponents(transport.Components); err != nil {
			return nil, err
		}
		if len(header) == 0 {
			header = transport.Header
		}
		if len(trailer) == 0 {
			trailer = transport.Trailer
		}
	}
	if err := c.addFields(app.Fields, transport != nil); err != nil {
		return nil, err
	}
	if err := c.addComponents(app.Components); err != nil {
		return nil, err
	}

	if transport != nil {
		for i := range transport.Messages {
			if err := c.addMessage(&transport.Messages[i], header, trailer); err != nil {
				return nil, err
			}
		}
	}
	for i := range app.Messages {
		if err := c.addMessage(&app.Messages[i], header, trailer); err != nil {
			return nil, err
		}
	}
	return c.dict, nil
}

func checkVersion(v string) error {
	if v == "" {
		return newError(CodeUnknownProtocolDescr, "protocol version is not specified")
	}
	if !strings.HasPrefix(v, "FIX.") && !strings.HasPrefix(v, "FIXT.") {
		return newError(CodeUnknownProtocolDescr, "unknown protocol version '%s'", v)
	}
	return nil
}

// addFields registers field types. With merge set, a definition identical to
// one already registered from the transport document is accepted.
func (c *compiler) addFields(fields []rawField, merge bool) error {
	for _, rf := range fields {
		if rf.Number == "" {
			return newError(CodeXMLAttrMissing, "field has no 'number' attribute")
		}
		if rf.Name == "" {
			return newError(CodeXMLAttrMissing, "field %s has no 'name' attribute", rf.Number)
		}
		if rf.Type == "" {
			return newError(CodeXMLAttrMissing, "field '%s' has no 'type' attribute", rf.Name)
		}
		tag, err := strconv.Atoi(rf.Number)
		if err != nil || tag <= 0 {
			return newError(CodeXMLAttrInvalid, "field '%s' has invalid number '%s'", rf.Name, rf.Number)
		}
		vt := parseValueType(rf.Type)
		if vt == TypeUnknown {
			return newError(CodeXMLAttrInvalid, "field '%s' has unknown type '%s'", rf.Name, rf.Type)
		}

		if prev, ok := c.dict.fields[tag]; ok {
			if merge && prev.Name == rf.Name && prev.Type == vt {
				continue
			}
			return newError(CodeDuplicateFieldDescr, "field %d ('%s') is already defined as '%s'", tag, rf.Name, prev.Name)
		}
		if prev, ok := c.dict.names[rf.Name]; ok {
			return newError(CodeDuplicateFieldDescr, "field name '%s' is already used by tag %d", rf.Name, prev.Tag)
		}

		ft := &FieldType{Tag: tag, Name: rf.Name, Type: vt, Values: rf.Values}
		if len(rf.Values) > 0 {
			ft.valid = make(map[string]struct{}, len(rf.Values))
			for _, ev := range rf.Values {
				if ev.Value == "" {
					return newError(CodeXMLAttrMissing, "value of field '%s' has no 'enum' attribute", rf.Name)
				}
				ft.valid[ev.Value] = struct{}{}
			}
		}
		c.dict.fields[tag] = ft
		c.dict.names[rf.Name] = ft
	}
	return nil
}

func (c *compiler) addComponents(components []rawComponent) error {
	for i := range components {
		rc := &components[i]
		if rc.Name == "" {
			return newError(CodeXMLAttrMissing, "component has no 'name' attribute")
		}
		if _, dup := c.components[rc.Name]; dup {
			return newError(CodeXMLAttrInvalid, "component '%s' is defined twice", rc.Name)
		}
		c.components[rc.Name] = rc
	}
	return nil
}

func (c *compiler) addMessage(rm *rawMessage, header, trailer []rawMember) error {
	if rm.Name == "" {
		return newError(CodeXMLAttrMissing, "message has no 'name' attribute")
	}
	if rm.Type == "" {
		return newError(CodeXMLAttrMissing, "message '%s' has no 'type' attribute", rm.Name)
	}
	if _, dup := c.dict.messages[rm.Type]; dup {
		return newError(CodeXMLAttrInvalid, "message type '%s' is defined twice", rm.Type)
	}

	md := &MessageDef{Type: rm.Type, Name: rm.Name, layout: newLayout()}
	for _, part := range [][]rawMember{header, rm.Members, trailer} {
		if err := c.addMembers(&md.layout, part, true); err != nil {
			return fmt.Errorf("message '%s': %w", rm.Name, err)
		}
	}
	if err := linkDataFields(&md.layout); err != nil {
		return fmt.Errorf("message '%s': %w", rm.Name, err)
	}
	c.dict.messages[rm.Type] = md
	return nil
}

// addMembers appends members to l. Components are inlined; a component
// referenced as optional makes all of its members optional.
func (c *compiler) addMembers(l *layout, members []rawMember, required bool) error {
	for _, rm := range members {
		if rm.Name == "" {
			return newError(CodeXMLAttrMissing, "%s has no 'name' attribute", rm.Kind)
		}
		switch rm.Kind {
		case memberComponent:
			comp, ok := c.components[rm.Name]
			if !ok {
				return newError(CodeXMLAttrInvalid, "unknown component '%s'", rm.Name)
			}
			if c.expanding[rm.Name] {
				return newError(CodeXMLAttrInvalid, "component '%s' includes itself", rm.Name)
			}
			req := required
			if rm.Required != "" {
				r, err := parseRequired(rm)
				if err != nil {
					return err
				}
				req = req && r
			}
			c.expanding[rm.Name] = true
			err := c.addMembers(l, comp.Members, req)
			delete(c.expanding, rm.Name)
			if err != nil {
				return err
			}

		case memberField, memberGroup:
			ft, ok := c.dict.names[rm.Name]
			if !ok {
				return newError(CodeUnknownField, "unknown field '%s'", rm.Name)
			}
			if rm.Required == "" {
				return newError(CodeXMLAttrMissing, "%s '%s' has no 'required' attribute", rm.Kind, rm.Name)
			}
			req, err := parseRequired(rm)
			if err != nil {
				return err
			}
			def := &FieldDef{Field: ft, Required: req && required}
			if rm.Kind == memberGroup {
				if ft.Type != TypeNumInGroup {
					return newError(CodeWrongField, "group '%s' must have type NumInGroup, not %s", rm.Name, ft.Type)
				}
				if len(rm.Members) == 0 {
					return newError(CodeWrongField, "group '%s' has no members", rm.Name)
				}
				g := newLayout()
				if err := c.addMembers(&g, rm.Members, true); err != nil {
					return err
				}
				if err := linkDataFields(&g); err != nil {
					return err
				}
				def.group = &g
			}
			if err := l.add(def); err != nil {
				return err
			}

		default:
			return newError(CodeXMLAttrInvalid, "unexpected element '%s'", rm.Kind)
		}
	}
	return nil
}

// linkDataFields pairs every Data member with the Length member right before it.
func linkDataFields(l *layout) error {
	for i, def := range l.members {
		if def.Field.Type.Kind() != KindData {
			continue
		}
		if i == 0 || l.members[i-1].Field.Type != TypeLength {
			return newError(CodeWrongField, "data field '%s' must follow its length field", def.Name())
		}
		def.length = l.members[i-1]
		l.members[i-1].data = def
	}
	return nil
}

func parseRequired(rm rawMember) (bool, error) {
	switch strings.ToUpper(rm.Required) {
	case "Y", "YES", "TRUE":
		return true, nil
	case "N", "NO", "FALSE":
		return false, nil
	}
	return false, newError(CodeXMLAttrInvalid, "%s '%s' has invalid 'required' value '%s'", rm.Kind, rm.Name, rm.Required)
}

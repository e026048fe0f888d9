package fix

import (
	"log/slog"
)

// Message is a FIX message: the root group plus an arena holding the nodes of
// all repeating group instances. A Message is not safe for concurrent use.
type Message struct {
	Group

	env     *engine
	def     *MessageDef
	nodes   []node
	freeIDs []int
	pages   [][]byte
	groups  int
}

func newMessage(env *engine, def *MessageDef) *Message {
	m := &Message{
		env:   env,
		def:   def,
		nodes: []node{{layout: &def.layout, live: true}},
	}
	m.Group = Group{msg: m}
	return m
}

// stamp stores the BeginString and MsgType values when the layout has them.
func (m *Message) stamp() error {
	root := &m.nodes[0]
	if def := root.layout.lookup(TagBeginString); def != nil {
		if err := m.store(root, def, []byte(m.env.dict.transport), false); err != nil {
			return err
		}
	}
	if def := root.layout.lookup(TagMsgType); def != nil {
		if err := m.store(root, def, []byte(m.def.Type), false); err != nil {
			return err
		}
	}
	return nil
}

// Type returns the message type code, e.g. "8".
func (m *Message) Type() string { return m.def.Type }

// Name returns the message name, e.g. "ExecutionReport".
func (m *Message) Name() string { return m.def.Name }

// Definition returns the dictionary definition of the message.
func (m *Message) Definition() *MessageDef { return m.def }

// Dictionary returns the dictionary the message was created from.
func (m *Message) Dictionary() *Dictionary { return m.env.dict }

// Free returns the message's pages and group slots to its parser. The message
// must not be used afterwards.
func (m *Message) Free() {
	if m.nodes == nil {
		return
	}
	m.env.alloc.freePages(m.pages)
	m.env.alloc.freeGroups(m.groups)
	m.pages = nil
	m.groups = 0
	m.nodes = nil
	m.freeIDs = nil
}

// store decodes raw per the declared type of def, optionally runs the value
// checks, copies it into the message pages and sets it on n.
func (m *Message) store(n *node, def *FieldDef, raw []byte, check bool) error {
	if len(raw) == 0 {
		return newError(CodeWrongFieldValue, "field %d has an empty value", def.Tag())
	}
	v, err := Decode(raw, def.Field.Type)
	if err != nil {
		return err
	}
	if check {
		if err := m.env.validator.ValidateField(def.Field, raw); err != nil {
			return err
		}
	}
	if v.raw, err = m.copyBytes(raw); err != nil {
		return err
	}
	n.slot(def).value = v
	return nil
}

// copyBytes copies b into the current page, allocating a new one when it
// does not fit.
func (m *Message) copyBytes(b []byte) ([]byte, error) {
	if k := len(m.pages); k > 0 {
		p := m.pages[k-1]
		if cap(p)-len(p) >= len(b) {
			start := len(p)
			p = append(p, b...)
			m.pages[k-1] = p
			return p[start:len(p):len(p)], nil
		}
	}
	p, err := m.env.alloc.allocPage(len(b))
	if err != nil {
		return nil, err
	}
	p = append(p, b...)
	m.pages = append(m.pages, p)
	return p[:len(b):len(b)], nil
}

// newNode allocates a group instance node in the arena.
func (m *Message) newNode(l *layout) (int, error) {
	if err := m.env.alloc.allocGroup(); err != nil {
		return 0, err
	}
	m.groups++
	if k := len(m.freeIDs); k > 0 {
		id := m.freeIDs[k-1]
		m.freeIDs = m.freeIDs[:k-1]
		n := &m.nodes[id]
		n.layout = l
		n.live = true
		return id, nil
	}
	m.nodes = append(m.nodes, node{layout: l, live: true})
	return len(m.nodes) - 1, nil
}

// dropNode releases a node and, recursively, the nodes of its groups. Handles
// to it become stale through the generation counter.
func (m *Message) dropNode(id int) {
	n := &m.nodes[id]
	for i := range n.fields {
		for _, child := range n.fields[i].groups {
			m.dropNode(child)
		}
	}
	n = &m.nodes[id]
	clear(n.fields)
	n.fields = n.fields[:0]
	n.live = false
	n.gen++
	m.freeIDs = append(m.freeIDs, id)
	m.groups--
	m.env.alloc.freeGroups(1)
}

// walk visits every stored field depth first in tag order.
func (m *Message) walk(id int, fn func(n *node, f *field) error) error {
	n := &m.nodes[id]
	for i := range n.fields {
		f := &n.fields[i]
		if err := fn(n, f); err != nil {
			return err
		}
		for _, child := range f.groups {
			if err := m.walk(child, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkRequired reports the first required member missing from node id or
// from any of its group instances.
func (m *Message) checkRequired(id int) error {
	n := &m.nodes[id]
	for _, def := range n.layout.members {
		tag := def.Tag()
		if id == 0 && (tag == TagBodyLength || tag == TagCheckSum) {
			continue
		}
		f := n.get(tag)
		if f == nil {
			if def.Required {
				return &FieldError{Tag: tag, Err: newError(CodeParseMsg, "required field %d (%s) is missing", tag, def.Name())}
			}
			continue
		}
		for _, child := range f.groups {
			if err := m.checkRequired(child); err != nil {
				return err
			}
		}
	}
	return nil
}

// Validate checks required fields and field values regardless of the parser
// flags.
func (m *Message) Validate() error {
	if _, err := m.node(); err != nil {
		return err
	}
	if err := m.checkRequired(0); err != nil {
		return err
	}
	return m.walk(0, func(_ *node, f *field) error {
		if f.def.IsGroup() {
			return nil
		}
		return m.env.validator.ValidateField(f.def.Field, f.value.raw)
	})
}

// Clone creates a deep copy of the message with its own pages.
func (m *Message) Clone() (*Message, error) {
	if _, err := m.node(); err != nil {
		return nil, err
	}
	c := newMessage(m.env, m.def)
	if err := m.cloneInto(c, 0, 0); err != nil {
		c.Free()
		return nil, err
	}
	return c, nil
}

func (m *Message) cloneInto(c *Message, src, dst int) error {
	for i := range m.nodes[src].fields {
		f := &m.nodes[src].fields[i]
		if !f.def.IsGroup() {
			raw, err := c.copyBytes(f.value.raw)
			if err != nil {
				return err
			}
			v := f.value
			v.raw = raw
			c.nodes[dst].slot(f.def).value = v
			continue
		}
		for _, child := range f.groups {
			id, err := c.newNode(f.def.group)
			if err != nil {
				return err
			}
			slot := c.nodes[dst].slot(f.def)
			slot.groups = append(slot.groups, id)
			if err := m.cloneInto(c, child, id); err != nil {
				return err
			}
		}
	}
	return nil
}

// LogValue implements slog.LogValuer.
func (m *Message) LogValue() slog.Value {
	if m.nodes == nil {
		return slog.StringValue("<freed>")
	}
	attrs := []slog.Attr{
		slog.String("type", m.def.Type),
		slog.String("name", m.def.Name),
		slog.Int("fields", len(m.nodes[0].fields)),
		slog.Int("groups", m.groups),
	}
	if s, err := m.GetString(TagSenderCompID); err == nil {
		attrs = append(attrs, slog.String("sender", s))
	}
	if s, err := m.GetString(TagTargetCompID); err == nil {
		attrs = append(attrs, slog.String("target", s))
	}
	if n, err := m.GetInt64(TagMsgSeqNum); err == nil {
		attrs = append(attrs, slog.Int64("seq", n))
	}
	return slog.GroupValue(attrs...)
}

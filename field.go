package fix

import (
	"cmp"
	"slices"
)

// field is one stored tag: a scalar value or the node ids of its group
// instances.
type field struct {
	def    *FieldDef
	value  Value
	groups []int
}

func (f *field) tag() int { return f.def.Tag() }

// node holds the fields of the message root or of one group instance, sorted
// by tag. Nodes live in the message arena and are addressed by index.
type node struct {
	layout *layout
	fields []field
	gen    uint32
	live   bool
}

func (n *node) search(tag int) (int, bool) {
	return slices.BinarySearchFunc(n.fields, tag, func(f field, t int) int {
		return cmp.Compare(f.tag(), t)
	})
}

func (n *node) get(tag int) *field {
	if i, ok := n.search(tag); ok {
		return &n.fields[i]
	}
	return nil
}

// slot returns the field for def, inserting an empty one when absent.
func (n *node) slot(def *FieldDef) *field {
	i, ok := n.search(def.Tag())
	if !ok {
		n.fields = slices.Insert(n.fields, i, field{def: def})
	}
	return &n.fields[i]
}

func (n *node) remove(tag int) bool {
	i, ok := n.search(tag)
	if ok {
		n.fields = slices.Delete(n.fields, i, i+1)
	}
	return ok
}

func (n *node) tags() []int {
	tags := make([]int, len(n.fields))
	for i := range n.fields {
		tags[i] = n.fields[i].tag()
	}
	return tags
}

package fix

import (
	"math"
	"slices"

	"github.com/shopspring/decimal"
)

// Group is a handle to the message root or to one repeating group instance.
// It stays valid while the instance exists; indices of sibling instances may
// shift when one of them is deleted, the handle does not.
type Group struct {
	msg *Message
	id  int
	gen uint32
}

func (g *Group) node() (*node, error) {
	m := g.msg
	if m == nil || m.nodes == nil {
		return nil, newError(CodeInvalidArgument, "message has been freed")
	}
	if g.id >= len(m.nodes) || !m.nodes[g.id].live || m.nodes[g.id].gen != g.gen {
		return nil, newError(CodeGroupWrongIndex, "group instance no longer exists")
	}
	return &m.nodes[g.id], nil
}

func (g *Group) resolve(tag int) (*node, *FieldDef, error) {
	n, err := g.node()
	if err != nil {
		return nil, nil, err
	}
	def := n.layout.lookup(tag)
	if def == nil {
		return nil, nil, &FieldError{Tag: tag, Err: newError(CodeUnknownField, "field %d is not allowed in message '%s'", tag, g.msg.def.Type)}
	}
	return n, def, nil
}

// isEngineTag reports tags the engine owns at the message root.
func isEngineTag(tag int) bool {
	switch tag {
	case TagBeginString, TagBodyLength, TagMsgType, TagCheckSum:
		return true
	}
	return false
}

// put stores raw as the value of tag. want is the storage class the caller
// is setting; KindNone accepts any declared type.
func (g *Group) put(tag int, want Kind, raw []byte) error {
	n, def, err := g.resolve(tag)
	if err != nil {
		return err
	}
	if g.id == 0 && isEngineTag(tag) {
		return &FieldError{Tag: tag, Err: newError(CodeInvalidArgument, "field %d is maintained by the engine", tag)}
	}
	if def.IsGroup() {
		if f := n.get(tag); f != nil && len(f.groups) > 0 {
			return &FieldError{Tag: tag, Err: newError(CodeFieldTypeExists, "field %d holds repeating groups", tag)}
		}
		return &FieldError{Tag: tag, Err: newError(CodeFieldHasWrongType, "field %d is a repeating group", tag)}
	}
	have := def.Field.Type.Kind()
	if !kindAccepts(want, have) {
		return &FieldError{Tag: tag, Err: newError(CodeFieldHasWrongType, "field %d is %s, not %s", tag, def.Field.Type, want)}
	}
	if err := g.msg.store(n, def, raw, g.msg.env.flags.Has(CheckValue)); err != nil {
		return &FieldError{Tag: tag, Err: err}
	}
	if def.length != nil {
		var buf [20]byte
		return g.msg.store(n, def.length, AppendInt(buf[:0], int64(len(raw))), false)
	}
	return nil
}

func kindAccepts(want, have Kind) bool {
	switch want {
	case KindNone:
		return true
	case KindChar:
		return have == KindChar || have == KindString
	}
	return want == have
}

// SetString sets tag from its wire text. The text is decoded according to the
// declared type of the field.
func (g *Group) SetString(tag int, v string) error {
	return g.put(tag, KindNone, []byte(v))
}

// SetBytes sets tag from raw bytes. For Data fields the paired Length field
// is set as well.
func (g *Group) SetBytes(tag int, v []byte) error {
	return g.put(tag, KindNone, v)
}

func (g *Group) SetInt32(tag int, v int32) error {
	return g.SetInt64(tag, int64(v))
}

func (g *Group) SetInt64(tag int, v int64) error {
	var buf [20]byte
	return g.put(tag, KindInt, AppendInt(buf[:0], v))
}

// SetFloat sets a float typed field. NaN and infinities are rejected.
func (g *Group) SetFloat(tag int, v float64) error {
	var buf [32]byte
	raw, err := AppendFloat(buf[:0], v)
	if err != nil {
		return &FieldError{Tag: tag, Err: err}
	}
	return g.put(tag, KindFloat, raw)
}

// SetDecimal sets a float typed field without a float64 round trip.
func (g *Group) SetDecimal(tag int, v decimal.Decimal) error {
	var buf [32]byte
	return g.put(tag, KindFloat, AppendDecimal(buf[:0], v))
}

func (g *Group) SetChar(tag int, v byte) error {
	return g.put(tag, KindChar, []byte{v})
}

// Get returns the value stored for tag.
func (g *Group) Get(tag int) (Value, error) {
	n, err := g.node()
	if err != nil {
		return Value{}, err
	}
	f := n.get(tag)
	if f == nil {
		return Value{}, &FieldError{Tag: tag, Err: newError(CodeFieldNotFound, "field %d not found", tag)}
	}
	if f.def.IsGroup() {
		return Value{}, &FieldError{Tag: tag, Err: newError(CodeFieldHasWrongType, "field %d is a repeating group", tag)}
	}
	return f.value, nil
}

func (g *Group) GetString(tag int) (string, error) {
	v, err := g.Get(tag)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// GetBytes returns the stored bytes. They remain valid until the message is
// freed.
func (g *Group) GetBytes(tag int) ([]byte, error) {
	v, err := g.Get(tag)
	if err != nil {
		return nil, err
	}
	return v.Bytes(), nil
}

func (g *Group) GetInt64(tag int) (int64, error) {
	v, err := g.Get(tag)
	if err != nil {
		return 0, err
	}
	i, err := v.Int64()
	if err != nil {
		return 0, &FieldError{Tag: tag, Err: err}
	}
	return i, nil
}

func (g *Group) GetInt32(tag int) (int32, error) {
	i, err := g.GetInt64(tag)
	if err != nil {
		return 0, err
	}
	if i < math.MinInt32 || i > math.MaxInt32 {
		return 0, &FieldError{Tag: tag, Err: newError(CodeWrongFieldValue, "%d does not fit in int32", i)}
	}
	return int32(i), nil
}

func (g *Group) GetFloat(tag int) (float64, error) {
	v, err := g.Get(tag)
	if err != nil {
		return 0, err
	}
	f, err := v.Float64()
	if err != nil {
		return 0, &FieldError{Tag: tag, Err: err}
	}
	return f, nil
}

// GetDecimal returns a float or int typed field as an exact decimal.
func (g *Group) GetDecimal(tag int) (decimal.Decimal, error) {
	v, err := g.Get(tag)
	if err != nil {
		return decimal.Zero, err
	}
	switch v.Kind() {
	case KindFloat, KindInt:
		return DecodeDecimal(v.Bytes())
	}
	return decimal.Zero, &FieldError{Tag: tag, Err: newError(CodeFieldHasWrongType, "value is %s, not float", v.Kind())}
}

func (g *Group) GetChar(tag int) (byte, error) {
	v, err := g.Get(tag)
	if err != nil {
		return 0, err
	}
	c, err := v.Char()
	if err != nil {
		return 0, &FieldError{Tag: tag, Err: err}
	}
	return c, nil
}

// orDefault replaces a FieldNotFound failure with def.
func orDefault[T any](v T, err error, def T) (T, error) {
	if err != nil && CodeOf(err) == CodeFieldNotFound {
		return def, nil
	}
	return v, err
}

// GetStringDefault is GetString returning def when the field is absent.
func (g *Group) GetStringDefault(tag int, def string) (string, error) {
	v, err := g.GetString(tag)
	return orDefault(v, err, def)
}

func (g *Group) GetInt32Default(tag int, def int32) (int32, error) {
	v, err := g.GetInt32(tag)
	return orDefault(v, err, def)
}

func (g *Group) GetInt64Default(tag int, def int64) (int64, error) {
	v, err := g.GetInt64(tag)
	return orDefault(v, err, def)
}

func (g *Group) GetFloatDefault(tag int, def float64) (float64, error) {
	v, err := g.GetFloat(tag)
	return orDefault(v, err, def)
}

func (g *Group) GetCharDefault(tag int, def byte) (byte, error) {
	v, err := g.GetChar(tag)
	return orDefault(v, err, def)
}

func (g *Group) GetDecimalDefault(tag int, def decimal.Decimal) (decimal.Decimal, error) {
	v, err := g.GetDecimal(tag)
	return orDefault(v, err, def)
}

// Has reports whether tag holds a value or at least one group instance.
func (g *Group) Has(tag int) bool {
	n, err := g.node()
	return err == nil && n.get(tag) != nil
}

// Tags returns the stored tags in ascending order.
func (g *Group) Tags() []int {
	n, err := g.node()
	if err != nil {
		return nil
	}
	return n.tags()
}

// DeleteField removes a field. Deleting a repeating group tag removes all of
// its instances; deleting a Data field removes its Length field too.
func (g *Group) DeleteField(tag int) error {
	n, err := g.node()
	if err != nil {
		return err
	}
	if g.id == 0 && isEngineTag(tag) {
		return &FieldError{Tag: tag, Err: newError(CodeInvalidArgument, "field %d is maintained by the engine", tag)}
	}
	f := n.get(tag)
	if f == nil {
		return &FieldError{Tag: tag, Err: newError(CodeFieldNotFound, "field %d not found", tag)}
	}
	ids := slices.Clone(f.groups)
	def := f.def
	n.remove(tag)
	if def.length != nil {
		n.remove(def.length.Tag())
	}
	for _, id := range ids {
		g.msg.dropNode(id)
	}
	return nil
}

// AddGroup appends a new instance to the repeating group tag and returns it.
func (g *Group) AddGroup(tag int) (*Group, error) {
	n, def, err := g.resolve(tag)
	if err != nil {
		return nil, err
	}
	if !def.IsGroup() {
		if n.get(tag) != nil {
			return nil, &FieldError{Tag: tag, Err: newError(CodeFieldTypeExists, "field %d holds a value", tag)}
		}
		return nil, &FieldError{Tag: tag, Err: newError(CodeFieldHasWrongType, "field %d is not a repeating group", tag)}
	}
	id, err := g.msg.newNode(def.group)
	if err != nil {
		return nil, &FieldError{Tag: tag, Err: err}
	}
	// newNode may have grown the arena
	n = &g.msg.nodes[g.id]
	f := n.slot(def)
	f.groups = append(f.groups, id)
	return &Group{msg: g.msg, id: id, gen: g.msg.nodes[id].gen}, nil
}

// GetGroup returns instance index of the repeating group tag.
func (g *Group) GetGroup(tag, index int) (*Group, error) {
	n, err := g.node()
	if err != nil {
		return nil, err
	}
	f := n.get(tag)
	if f == nil {
		return nil, &FieldError{Tag: tag, Err: newError(CodeFieldNotFound, "group %d not found", tag)}
	}
	if !f.def.IsGroup() {
		return nil, &FieldError{Tag: tag, Err: newError(CodeFieldHasWrongType, "field %d is not a repeating group", tag)}
	}
	if index < 0 || index >= len(f.groups) {
		return nil, &FieldError{Tag: tag, Err: newError(CodeGroupWrongIndex, "group %d has no instance %d", tag, index)}
	}
	id := f.groups[index]
	return &Group{msg: g.msg, id: id, gen: g.msg.nodes[id].gen}, nil
}

// GroupCount returns the number of instances of the repeating group tag.
func (g *Group) GroupCount(tag int) int {
	n, err := g.node()
	if err != nil {
		return 0
	}
	if f := n.get(tag); f != nil {
		return len(f.groups)
	}
	return 0
}

// DeleteGroup removes instance index of tag. Later instances move down by one
// so indices stay dense; removing the last instance removes the tag.
func (g *Group) DeleteGroup(tag, index int) error {
	n, err := g.node()
	if err != nil {
		return err
	}
	f := n.get(tag)
	if f == nil || !f.def.IsGroup() || index < 0 || index >= len(f.groups) {
		return &FieldError{Tag: tag, Err: newError(CodeGroupWrongIndex, "group %d has no instance %d", tag, index)}
	}
	id := f.groups[index]
	f.groups = slices.Delete(f.groups, index, index+1)
	if len(f.groups) == 0 {
		n.remove(tag)
	}
	g.msg.dropNode(id)
	return nil
}

// Message returns the message owning the group.
func (g *Group) Message() *Message { return g.msg }

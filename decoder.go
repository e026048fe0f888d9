package fix

import (
	"bytes"
)

type parseState int

const (
	stateExpectingHeader parseState = iota
	stateReadingTagValuePair
	stateValidatingField
	stateExpectingGroupBoundary
	stateDone
	stateFailed
)

var parseStateNames = [...]string{
	stateExpectingHeader:        "ExpectingHeader",
	stateReadingTagValuePair:    "ReadingTagValuePair",
	stateValidatingField:        "ValidatingField",
	stateExpectingGroupBoundary: "ExpectingGroupBoundary",
	stateDone:                   "Done",
	stateFailed:                 "Failed",
}

func (s parseState) String() string {
	if int(s) < len(parseStateNames) {
		return parseStateNames[s]
	}
	return "Unknown"
}

var checksumPrefix = []byte("10=")

// scope is the message root or an open repeating group.
type scope struct {
	def    *FieldDef // nil for the root
	layout *layout
	parent int // node holding the group field
	node   int // current instance, -1 before the first one
	want   int
	have   int
}

// decoder is the state of one parse. It is discarded afterwards.
type decoder struct {
	env   *engine
	data  []byte
	delim byte

	pos     int
	bodyEnd int // offset of "10="
	end     int // offset after the CheckSum delimiter

	state   parseState
	msg     *Message
	stack   []scope
	tag     int
	val     []byte
	pending bool // tag/val must be dispatched again after closing a group
	dataLen int  // length announced for the next Data field, or -1
}

func (d *decoder) run() (*Message, error) {
	d.state = stateExpectingHeader
	d.dataLen = -1

	var err error
	for err == nil && d.state != stateDone {
		switch d.state {
		case stateExpectingHeader:
			err = d.header()
		case stateReadingTagValuePair:
			err = d.next()
		case stateValidatingField:
			err = d.field()
		case stateExpectingGroupBoundary:
			err = d.closeGroup()
		}
	}
	if err == nil && d.env.flags.Has(CheckRequired) {
		err = d.msg.checkRequired(0)
	}
	if err != nil {
		d.state = stateFailed
		if d.msg != nil {
			d.msg.Free()
			d.msg = nil
		}
		return nil, err
	}
	return d.msg, nil
}

// token reads tag=value<delim> from pos without crossing limit. missing is
// the code reported when the delimiter is not found.
func (d *decoder) token(limit int, missing ErrorCode) (int, []byte, error) {
	tag, err := d.tagAt(limit, missing)
	if err != nil {
		return 0, nil, err
	}
	end := bytes.IndexByte(d.data[d.pos:limit], d.delim)
	if end < 0 {
		return 0, nil, newError(missing, "field %d is not terminated", tag)
	}
	val := d.data[d.pos : d.pos+end]
	d.pos += end + 1
	return tag, val, nil
}

// tagAt reads the tag and the '=' after it.
func (d *decoder) tagAt(limit int, missing ErrorCode) (int, error) {
	eq := bytes.IndexByte(d.data[d.pos:limit], '=')
	if eq < 0 {
		if bytes.IndexByte(d.data[d.pos:limit], d.delim) >= 0 {
			return 0, newError(CodeWrongField, "field at offset %d has no '='", d.pos)
		}
		return 0, newError(missing, "incomplete field at offset %d", d.pos)
	}
	tag, ok := parseTag(d.data[d.pos : d.pos+eq])
	if !ok {
		return 0, newError(CodeWrongField, "invalid tag '%s' at offset %d", d.data[d.pos:d.pos+eq], d.pos)
	}
	d.pos += eq + 1
	return tag, nil
}

func parseTag(b []byte) (int, bool) {
	if len(b) == 0 || len(b) > 9 {
		return 0, false
	}
	n := 0
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, n > 0
}

// checksum is the FIX CheckSum: the byte sum modulo 256.
func checksum(b []byte) int {
	var sum uint32
	for _, c := range b {
		sum += uint32(c)
	}
	return int(sum % 256)
}

// header consumes BeginString and BodyLength, locates and verifies the
// trailer, then consumes MsgType and opens the message.
func (d *decoder) header() error {
	start := d.pos

	tag, val, err := d.token(len(d.data), CodeNoMoreData)
	if err != nil {
		return err
	}
	if tag != TagBeginString {
		return newError(CodeWrongField, "first field must be BeginString(8), got %d", tag)
	}
	if string(val) != d.env.dict.transport {
		return newError(CodeWrongProtocolVer, "BeginString '%s' does not match '%s'", val, d.env.dict.transport)
	}

	tag, val, err = d.token(len(d.data), CodeNoMoreData)
	if err != nil {
		return err
	}
	if tag != TagBodyLength {
		return newError(CodeWrongField, "second field must be BodyLength(9), got %d", tag)
	}
	bodyLen, err := DecodeInt(val)
	if err != nil || bodyLen < 0 {
		return newError(CodeParseMsg, "invalid BodyLength '%s'", val)
	}

	if bodyLen > int64(len(d.data)-d.pos) {
		return newError(CodeNoMoreData, "BodyLength %d runs past the %d bytes available", bodyLen, len(d.data)-d.pos)
	}
	d.bodyEnd = d.pos + int(bodyLen)
	d.end = d.bodyEnd + len(checksumPrefix) + checksumLen + 1
	if d.end > len(d.data) {
		return newError(CodeNoMoreData, "message needs %d bytes, got %d", d.end-start, len(d.data)-start)
	}
	if bodyLen > 0 && d.data[d.bodyEnd-1] != d.delim {
		return newError(CodeParseMsg, "BodyLength %d does not end on a field boundary", bodyLen)
	}
	trailer := d.data[d.bodyEnd:d.end]
	if !bytes.HasPrefix(trailer, checksumPrefix) || trailer[len(trailer)-1] != d.delim {
		return newError(CodeParseMsg, "CheckSum(10) not found at offset %d", d.bodyEnd)
	}
	digits := trailer[len(checksumPrefix) : len(trailer)-1]
	if !isInt(digits) || digits[0] == '-' {
		return newError(CodeParseMsg, "invalid CheckSum '%s'", digits)
	}
	if d.env.flags.Has(CheckCRC) {
		want := int(digits[0]-'0')*100 + int(digits[1]-'0')*10 + int(digits[2]-'0')
		if got := checksum(d.data[start:d.bodyEnd]); got != want {
			return newError(CodeIntegrityCheck, "CheckSum is %03d, computed %03d", want, got)
		}
	}

	tag, val, err = d.token(d.bodyEnd, CodeParseMsg)
	if err != nil {
		return err
	}
	if tag != TagMsgType {
		return newError(CodeWrongField, "third field must be MsgType(35), got %d", tag)
	}
	def, err := d.env.dict.MessageDefinition(string(val))
	if err != nil {
		return err
	}
	d.msg = newMessage(d.env, def)
	if err := d.msg.stamp(); err != nil {
		return err
	}
	d.stack = append(d.stack, scope{layout: &def.layout, node: 0})
	d.state = stateReadingTagValuePair
	return nil
}

// lookup finds tag in the innermost scope that knows it.
func (d *decoder) lookup(tag int) *FieldDef {
	for i := len(d.stack) - 1; i >= 0; i-- {
		if def := d.stack[i].layout.lookup(tag); def != nil {
			return def
		}
	}
	return nil
}

// next reads the next tag=value pair of the body.
func (d *decoder) next() error {
	if d.pos >= d.bodyEnd {
		if len(d.stack) > 1 {
			d.pending = false
			d.state = stateExpectingGroupBoundary
			return nil
		}
		d.state = stateDone
		return nil
	}

	tag, err := d.tagAt(d.bodyEnd, CodeParseMsg)
	if err != nil {
		return err
	}
	if def := d.lookup(tag); def != nil && def.length != nil && d.dataLen >= 0 {
		// Data values may contain the delimiter; their length comes first.
		if d.dataLen > d.bodyEnd-d.pos {
			return &FieldError{Tag: tag, Err: newError(CodeParseMsg, "data field length %d runs past the body", d.dataLen)}
		}
		end := d.pos + d.dataLen
		if end >= d.bodyEnd || d.data[end] != d.delim {
			return &FieldError{Tag: tag, Err: newError(CodeParseMsg, "data field does not match its length %d", d.dataLen)}
		}
		d.tag, d.val = tag, d.data[d.pos:end]
		d.pos = end + 1
	} else {
		end := bytes.IndexByte(d.data[d.pos:d.bodyEnd], d.delim)
		if end < 0 {
			return newError(CodeParseMsg, "field %d is not terminated", tag)
		}
		d.tag, d.val = tag, d.data[d.pos:d.pos+end]
		d.pos += end + 1
	}
	d.state = stateValidatingField
	return nil
}

// field validates the current pair and stores it in the innermost scope,
// opening group instances as their first field appears.
func (d *decoder) field() error {
	d.pending = false
	top := &d.stack[len(d.stack)-1]
	def := top.layout.lookup(d.tag)

	if def == nil {
		for i := len(d.stack) - 2; i >= 0; i-- {
			if d.stack[i].layout.lookup(d.tag) != nil {
				d.pending = true
				d.state = stateExpectingGroupBoundary
				return nil
			}
		}
		if len(d.stack) == 1 && isEngineTag(d.tag) {
			return &FieldError{Tag: d.tag, Err: newError(CodeParseMsg, "field %d is out of place", d.tag)}
		}
		if d.env.flags.Has(CheckUnknownFields) {
			return &FieldError{Tag: d.tag, Err: newError(CodeUnknownField, "unknown field %d in message '%s'", d.tag, d.msg.Type())}
		}
		d.dataLen = -1
		d.state = stateReadingTagValuePair
		return nil
	}
	if len(d.stack) == 1 && isEngineTag(d.tag) {
		return &FieldError{Tag: d.tag, Err: newError(CodeParseMsg, "field %d is out of place", d.tag)}
	}

	if top.def != nil {
		if def == top.def.First() {
			if top.have == top.want {
				return &FieldError{Tag: top.def.Tag(), Err: newError(CodeParseMsg, "group %d declares %d instances, found more", top.def.Tag(), top.want)}
			}
			id, err := d.msg.newNode(top.layout)
			if err != nil {
				return &FieldError{Tag: top.def.Tag(), Err: err}
			}
			slot := d.msg.nodes[top.parent].slot(top.def)
			slot.groups = append(slot.groups, id)
			top.node = id
			top.have++
		} else if top.node < 0 {
			return &FieldError{Tag: top.def.Tag(), Err: newError(CodeParseMsg, "group %d instance must start with field %d", top.def.Tag(), top.def.First().Tag())}
		}
	}

	n := &d.msg.nodes[top.node]
	if n.get(d.tag) != nil {
		return &FieldError{Tag: d.tag, Err: newError(CodeParseMsg, "duplicate field %d", d.tag)}
	}

	if def.IsGroup() {
		count, err := DecodeInt(d.val)
		if err != nil || count < 0 {
			return &FieldError{Tag: d.tag, Err: newError(CodeWrongFieldValue, "invalid group count '%s'", d.val)}
		}
		if count > 0 {
			d.stack = append(d.stack, scope{
				def:    def,
				layout: def.group,
				parent: top.node,
				node:   -1,
				want:   int(count),
			})
		}
		d.dataLen = -1
		d.state = stateReadingTagValuePair
		return nil
	}

	if err := d.msg.store(n, def, d.val, d.env.flags.Has(CheckValue)); err != nil {
		return &FieldError{Tag: d.tag, Err: err}
	}
	d.dataLen = -1
	if def.data != nil {
		l, err := n.get(d.tag).value.Int64()
		if err != nil || l < 0 || l > int64(d.bodyEnd-d.pos) {
			return &FieldError{Tag: d.tag, Err: newError(CodeParseMsg, "invalid data length '%s'", d.val)}
		}
		d.dataLen = int(l)
	}
	d.state = stateReadingTagValuePair
	return nil
}

// closeGroup closes the innermost group after checking its instance count.
func (d *decoder) closeGroup() error {
	top := d.stack[len(d.stack)-1]
	if top.have != top.want {
		return &FieldError{Tag: top.def.Tag(), Err: newError(CodeParseMsg, "group %d declares %d instances, found %d", top.def.Tag(), top.want, top.have)}
	}
	d.stack = d.stack[:len(d.stack)-1]
	if d.pending {
		d.state = stateValidatingField
	} else {
		d.state = stateReadingTagValuePair
	}
	return nil
}

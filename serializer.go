package fix

// Pack serializes the message into buf using delim between fields. It
// returns the number of bytes written. When buf is too small nothing is
// written and the required length is returned with ErrNoMoreSpace.
func (m *Message) Pack(buf []byte, delim byte) (int, error) {
	scratch := getBuffer()
	scratch, err := m.appendTo(scratch, delim, m.env.flags.Has(CheckRequired))
	defer putBuffer(scratch)
	if err != nil {
		return 0, err
	}
	n := len(scratch)
	if n > len(buf) {
		return n, newError(CodeNoMoreSpace, "message needs %d bytes, buffer has %d", n, len(buf))
	}
	copy(buf, scratch)
	m.env.metrics.serialized(m.def.Type, n)
	return n, nil
}

// RequiredLen returns the number of bytes Pack needs for delim.
func (m *Message) RequiredLen(delim byte) (int, error) {
	scratch := getBuffer()
	scratch, err := m.appendTo(scratch, delim, m.env.flags.Has(CheckRequired))
	defer putBuffer(scratch)
	if err != nil {
		return 0, err
	}
	return len(scratch), nil
}

// Bytes serializes the message into a new slice.
func (m *Message) Bytes(delim byte) ([]byte, error) {
	b, err := m.appendTo(nil, delim, m.env.flags.Has(CheckRequired))
	if err != nil {
		return nil, err
	}
	m.env.metrics.serialized(m.def.Type, len(b))
	return b, nil
}

// String renders the message with '|' delimiters without the required field
// check. It is meant for logs and debugging.
func (m *Message) String() string {
	b, err := m.appendTo(nil, Pipe, false)
	if err != nil {
		return "<" + err.Error() + ">"
	}
	return string(b)
}

// appendTo appends the wire form: BeginString, BodyLength and MsgType, then
// the remaining fields in definition order, then CheckSum.
func (m *Message) appendTo(dst []byte, delim byte, check bool) ([]byte, error) {
	if _, err := m.node(); err != nil {
		return dst, err
	}

	body := getBuffer()
	defer func() { putBuffer(body) }()

	body = appendTag(body, TagMsgType)
	body = append(body, m.def.Type...)
	body = append(body, delim)
	var err error
	if body, err = m.encodeNode(body, 0, delim, check); err != nil {
		return dst, err
	}

	start := len(dst)
	dst = appendTag(dst, TagBeginString)
	dst = append(dst, m.env.dict.transport...)
	dst = append(dst, delim)
	dst = appendTag(dst, TagBodyLength)
	dst = AppendInt(dst, int64(len(body)))
	dst = append(dst, delim)
	dst = append(dst, body...)

	sum := checksum(dst[start:])
	dst = appendTag(dst, TagCheckSum)
	dst = appendPadded(dst, sum, checksumLen)
	return append(dst, delim), nil
}

func appendTag(dst []byte, tag int) []byte {
	dst = AppendInt(dst, int64(tag))
	return append(dst, '=')
}

// encodeNode appends the fields of node id in layout order. Groups are
// written as their count followed by each instance.
func (m *Message) encodeNode(dst []byte, id int, delim byte, check bool) ([]byte, error) {
	n := &m.nodes[id]
	for _, def := range n.layout.members {
		tag := def.Tag()
		if id == 0 && isEngineTag(tag) {
			continue
		}
		f := n.get(tag)
		if f == nil {
			if check && def.Required {
				return dst, &FieldError{Tag: tag, Err: newError(CodeFieldNotFound, "required field %d (%s) is missing", tag, def.Name())}
			}
			continue
		}

		if def.IsGroup() {
			if len(f.groups) == 0 {
				continue
			}
			dst = appendTag(dst, tag)
			dst = AppendInt(dst, int64(len(f.groups)))
			dst = append(dst, delim)
			first := def.First().Tag()
			for _, child := range f.groups {
				if m.nodes[child].get(first) == nil {
					return dst, &FieldError{Tag: tag, Err: newError(CodeFieldNotFound, "group %d instance lacks its first field %d", tag, first)}
				}
				var err error
				if dst, err = m.encodeNode(dst, child, delim, check); err != nil {
					return dst, err
				}
			}
			continue
		}

		dst = appendTag(dst, tag)
		if def.data != nil {
			if df := n.get(def.data.Tag()); df != nil {
				dst = AppendInt(dst, int64(len(df.value.raw)))
				dst = append(dst, delim)
				continue
			}
		}
		dst = append(dst, f.value.raw...)
		dst = append(dst, delim)
	}
	return dst, nil
}

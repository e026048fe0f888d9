package fix

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// LayoutTimestamp is the UTCTimestamp form written by the builder.
const LayoutTimestamp = "20060102-15:04:05.000"

// Builder pool for reuse
var builderPool = sync.Pool{
	New: func() interface{} {
		return &Builder{
			errors: make([]error, 0, 4),
			scopes: make([]*Group, 0, 4),
		}
	},
}

// Builder assembles a message with chained calls. The first failure is kept
// and reported by Build; later calls are still applied where possible.
type Builder struct {
	msg    *Message
	scopes []*Group // open group instances, innermost last
	errors []error
}

// NewBuilder starts a message of msgType created by p.
func (p *Parser) NewBuilder(msgType string) *Builder {
	b := builderPool.Get().(*Builder)
	b.errors = b.errors[:0]
	b.scopes = b.scopes[:0]
	msg, err := p.NewMessage(msgType)
	if err != nil {
		b.errors = append(b.errors, err)
	}
	b.msg = msg
	return b
}

// Release returns the builder to the pool, freeing a message that was not
// built.
func (b *Builder) Release() {
	if b.msg != nil {
		b.msg.Free()
		b.msg = nil
	}
	b.errors = b.errors[:0]
	clear(b.scopes)
	b.scopes = b.scopes[:0]
	builderPool.Put(b)
}

func (b *Builder) fail(err error) *Builder {
	if err != nil {
		b.errors = append(b.errors, err)
	}
	return b
}

// target is the innermost open group instance or the message root.
func (b *Builder) target() *Group {
	if k := len(b.scopes); k > 0 {
		return b.scopes[k-1]
	}
	return &b.msg.Group
}

// Field sets tag from a Go value. Strings and byte slices are taken as wire
// text, integers, floats, decimals and single bytes use the typed setters.
func (b *Builder) Field(tag int, value interface{}) *Builder {
	if b.msg == nil {
		return b
	}
	g := b.target()
	switch v := value.(type) {
	case string:
		return b.fail(g.SetString(tag, v))
	case []byte:
		return b.fail(g.SetBytes(tag, v))
	case int:
		return b.fail(g.SetInt64(tag, int64(v)))
	case int32:
		return b.fail(g.SetInt32(tag, v))
	case int64:
		return b.fail(g.SetInt64(tag, v))
	case float64:
		return b.fail(g.SetFloat(tag, v))
	case decimal.Decimal:
		return b.fail(g.SetDecimal(tag, v))
	case byte:
		return b.fail(g.SetChar(tag, v))
	case time.Time:
		return b.fail(g.SetString(tag, v.UTC().Format(LayoutTimestamp)))
	}
	return b.fail(&FieldError{Tag: tag, Err: newError(CodeInvalidArgument, "unsupported value type %T", value)})
}

func (b *Builder) SenderCompID(id string) *Builder {
	return b.Field(TagSenderCompID, id)
}

func (b *Builder) TargetCompID(id string) *Builder {
	return b.Field(TagTargetCompID, id)
}

func (b *Builder) MsgSeqNum(seq int64) *Builder {
	return b.Field(TagMsgSeqNum, seq)
}

func (b *Builder) SendingTime(t time.Time) *Builder {
	return b.Field(TagSendingTime, t)
}

// Group appends an instance of the repeating group tag to the current scope.
// Following fields go into the instance until End.
func (b *Builder) Group(tag int) *Builder {
	if b.msg == nil {
		return b
	}
	g, err := b.target().AddGroup(tag)
	if err != nil {
		// keep the scope balanced with End
		g = b.target()
		b.fail(err)
	}
	b.scopes = append(b.scopes, g)
	return b
}

// End closes the innermost group instance.
func (b *Builder) End() *Builder {
	if k := len(b.scopes); k > 0 {
		b.scopes = b.scopes[:k-1]
	}
	return b
}

// Build returns the message and releases the builder.
func (b *Builder) Build() (*Message, error) {
	if len(b.errors) > 0 {
		err := b.errors[0]
		b.Release()
		return nil, err
	}
	msg := b.msg
	b.msg = nil // Transfer ownership
	b.Release()
	return msg, nil
}

// MustBuild is Build panicking on error.
func (b *Builder) MustBuild() *Message {
	msg, err := b.Build()
	if err != nil {
		panic(err)
	}
	return msg
}

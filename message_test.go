package fix

import (
	"log/slog"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage(t *testing.T) {
	p := newTestParser(t, CheckAll)

	m, err := p.NewMessage(MsgTypeExecutionReport)
	require.NoError(t, err)
	defer m.Free()

	assert.Equal(t, "8", m.Type())
	assert.Equal(t, "ExecutionReport", m.Name())
	assert.Same(t, p.Dictionary(), m.Dictionary())

	begin, err := m.GetString(TagBeginString)
	require.NoError(t, err)
	assert.Equal(t, "FIX.4.4", begin)
	msgType, err := m.GetString(TagMsgType)
	require.NoError(t, err)
	assert.Equal(t, "8", msgType)

	_, err = p.NewMessage("XX")
	assert.ErrorIs(t, err, ErrUnknownMsg)
}

func TestSetGet(t *testing.T) {
	p := newTestParser(t, CheckAll)
	m := newExecutionReport(t, p)
	defer m.Free()

	s, err := m.GetString(TagSenderCompID)
	require.NoError(t, err)
	assert.Equal(t, "QWERTY_12345678", s)

	seq, err := m.GetInt64(TagMsgSeqNum)
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)
	seq32, err := m.GetInt32(TagMsgSeqNum)
	require.NoError(t, err)
	assert.Equal(t, int32(1), seq32)

	qty, err := m.GetFloat(TagOrderQty)
	require.NoError(t, err)
	assert.Equal(t, 25.0, qty)
	qtyText, err := m.GetString(TagOrderQty)
	require.NoError(t, err)
	assert.Equal(t, "25", qtyText)

	side, err := m.GetChar(TagSide)
	require.NoError(t, err)
	assert.Equal(t, byte('1'), side)

	require.NoError(t, m.SetDecimal(TagPrice, decimal.RequireFromString("135155.125")))
	px, err := m.GetDecimal(TagPrice)
	require.NoError(t, err)
	assert.Equal(t, "135155.125", px.String())

	seqDec, err := m.GetDecimal(TagMsgSeqNum)
	require.NoError(t, err)
	assert.True(t, seqDec.Equal(decimal.NewFromInt(1)))

	// overwrite keeps a single value
	require.NoError(t, m.SetString(TagSymbol, "SBER"))
	sym, err := m.GetString(TagSymbol)
	require.NoError(t, err)
	assert.Equal(t, "SBER", sym)

	assert.True(t, m.Has(TagSymbol))
	assert.False(t, m.Has(TagText))
	tags := m.Tags()
	assert.IsIncreasing(t, tags)
	assert.Contains(t, tags, TagSymbol)
}

func TestSetErrors(t *testing.T) {
	p := newTestParser(t, CheckAll)
	m := newExecutionReport(t, p)
	defer m.Free()

	tests := []struct {
		name string
		err  error
		want *Error
	}{
		{"unknown tag", m.SetString(TagHeartBtInt, "30"), ErrUnknownField},
		{"int into float", m.SetInt64(TagOrderQty, 25), ErrFieldHasWrongType},
		{"float into string", m.SetFloat(TagSymbol, 1.5), ErrFieldHasWrongType},
		{"char into int", m.SetChar(TagMsgSeqNum, '1'), ErrFieldHasWrongType},
		{"nan", m.SetFloat(TagPrice, math.NaN()), ErrInvalidArgument},
		{"begin string", m.SetString(TagBeginString, "FIX.4.2"), ErrInvalidArgument},
		{"body length", m.SetInt64(TagBodyLength, 10), ErrInvalidArgument},
		{"checksum", m.SetString(TagCheckSum, "000"), ErrInvalidArgument},
		{"enum", m.SetChar(TagSide, '9'), ErrWrongFieldValue},
		{"malformed int", m.SetString(TagMsgSeqNum, "x1"), ErrWrongFieldValue},
		{"bad timestamp", m.SetString(TagTransactTime, "2024-01-02"), ErrWrongFieldValue},
		{"bad currency", m.SetString(TagCurrency, "RUBLE"), ErrWrongFieldValue},
		{"empty", m.SetString(TagText, ""), ErrWrongFieldValue},
		{"group tag", m.SetInt64(TagNoPartyIDs, 1), ErrFieldHasWrongType},
	}
	for _, tt := range tests {
		assert.ErrorIs(t, tt.err, tt.want, tt.name)
	}

	// a failed set leaves the previous value
	side, err := m.GetChar(TagSide)
	require.NoError(t, err)
	assert.Equal(t, byte('1'), side)

	_, err = m.AddGroup(TagNoPartyIDs)
	require.NoError(t, err)
	assert.ErrorIs(t, m.SetInt64(TagNoPartyIDs, 1), ErrFieldTypeExists)
}

func TestSetWithoutValueCheck(t *testing.T) {
	p := newTestParser(t, CheckCRC)
	m := newExecutionReport(t, p)
	defer m.Free()

	require.NoError(t, m.SetChar(TagSide, '9'))
	assert.ErrorIs(t, m.Validate(), ErrWrongFieldValue)
}

func TestGetErrorsAndDefaults(t *testing.T) {
	p := newTestParser(t, CheckAll)
	m := newExecutionReport(t, p)
	defer m.Free()

	_, err := m.GetString(TagText)
	assert.ErrorIs(t, err, ErrFieldNotFound)
	_, err = m.GetInt64(TagSymbol)
	assert.ErrorIs(t, err, ErrFieldHasWrongType)
	_, err = m.GetChar(TagSymbol)
	assert.ErrorIs(t, err, ErrFieldHasWrongType)
	_, err = m.GetDecimal(TagSymbol)
	assert.ErrorIs(t, err, ErrFieldHasWrongType)

	text, err := m.GetStringDefault(TagText, "none")
	require.NoError(t, err)
	assert.Equal(t, "none", text)

	sym, err := m.GetStringDefault(TagSymbol, "none")
	require.NoError(t, err)
	assert.Equal(t, "RTS-12.12", sym)

	px, err := m.GetFloatDefault(TagLastPx, 1.5)
	require.NoError(t, err)
	assert.Equal(t, 1.5, px)

	n, err := m.GetInt32Default(TagOrdRejReason, 99)
	require.NoError(t, err)
	assert.Equal(t, int32(99), n)

	n64, err := m.GetInt64Default(TagOrdRejReason, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n64)

	c, err := m.GetCharDefault(TagTimeInForce, '0')
	require.NoError(t, err)
	assert.Equal(t, byte('0'), c)

	d, err := m.GetDecimalDefault(TagLastQty, decimal.NewFromInt(3))
	require.NoError(t, err)
	assert.Equal(t, "3", d.String())

	// type errors are not hidden by the default
	_, err = m.GetInt64Default(TagSymbol, 1)
	assert.ErrorIs(t, err, ErrFieldHasWrongType)
}

func TestDeleteField(t *testing.T) {
	p := newTestParser(t, CheckAll)
	m := newExecutionReport(t, p)
	defer m.Free()

	require.NoError(t, m.DeleteField(TagPrice))
	assert.False(t, m.Has(TagPrice))
	assert.ErrorIs(t, m.DeleteField(TagPrice), ErrFieldNotFound)
	assert.ErrorIs(t, m.DeleteField(TagMsgType), ErrInvalidArgument)

	for i := 0; i < 2; i++ {
		g, err := m.AddGroup(TagNoPartyIDs)
		require.NoError(t, err)
		require.NoError(t, g.SetString(TagPartyID, "P"))
	}
	_, groups := p.Usage()
	assert.Equal(t, 2, groups)

	require.NoError(t, m.DeleteField(TagNoPartyIDs))
	assert.Equal(t, 0, m.GroupCount(TagNoPartyIDs))
	_, groups = p.Usage()
	assert.Equal(t, 0, groups)
}

func TestGroupDensity(t *testing.T) {
	p := newTestParser(t, CheckAll)
	m := newExecutionReport(t, p)
	defer m.Free()

	handles := make([]*Group, 3)
	for i, id := range []string{"A", "B", "C"} {
		g, err := m.AddGroup(TagNoPartyIDs)
		require.NoError(t, err)
		require.NoError(t, g.SetString(TagPartyID, id))
		handles[i] = g
	}
	require.Equal(t, 3, m.GroupCount(TagNoPartyIDs))

	require.NoError(t, m.DeleteGroup(TagNoPartyIDs, 1))
	require.Equal(t, 2, m.GroupCount(TagNoPartyIDs))

	for i, want := range []string{"A", "C"} {
		g, err := m.GetGroup(TagNoPartyIDs, i)
		require.NoError(t, err)
		id, err := g.GetString(TagPartyID)
		require.NoError(t, err)
		assert.Equal(t, want, id)
	}

	_, err := m.GetGroup(TagNoPartyIDs, 2)
	assert.ErrorIs(t, err, ErrGroupWrongIndex)
	assert.ErrorIs(t, m.DeleteGroup(TagNoPartyIDs, 5), ErrGroupWrongIndex)

	// the handle of the deleted instance is stale, the others still work
	_, err = handles[1].GetString(TagPartyID)
	assert.ErrorIs(t, err, ErrGroupWrongIndex)
	id, err := handles[2].GetString(TagPartyID)
	require.NoError(t, err)
	assert.Equal(t, "C", id)

	require.NoError(t, m.DeleteGroup(TagNoPartyIDs, 0))
	require.NoError(t, m.DeleteGroup(TagNoPartyIDs, 0))
	assert.False(t, m.Has(TagNoPartyIDs))
	_, err = m.GetGroup(TagNoPartyIDs, 0)
	assert.ErrorIs(t, err, ErrFieldNotFound)
}

func TestNestedGroups(t *testing.T) {
	p := newTestParser(t, CheckAll)
	m := newExecutionReport(t, p)
	defer m.Free()

	party, err := m.AddGroup(TagNoPartyIDs)
	require.NoError(t, err)
	require.NoError(t, party.SetString(TagPartyID, "TRADER"))
	require.NoError(t, party.SetInt32(TagPartyRole, 11))

	sub, err := party.AddGroup(TagNoPartySubIDs)
	require.NoError(t, err)
	require.NoError(t, sub.SetString(TagPartySubID, "DESK-1"))
	assert.Same(t, m, sub.Message())

	// group members are scoped to their group
	assert.ErrorIs(t, party.SetString(TagSymbol, "X"), ErrUnknownField)
	assert.ErrorIs(t, m.SetString(TagPartyID, "X"), ErrUnknownField)

	_, err = m.AddGroup(TagSymbol)
	assert.ErrorIs(t, err, ErrFieldTypeExists)
	_, err = m.AddGroup(TagText)
	assert.ErrorIs(t, err, ErrFieldHasWrongType)
	_, err = m.AddGroup(TagNoMDEntries)
	assert.ErrorIs(t, err, ErrUnknownField)
	_, err = m.GetGroup(TagSymbol, 0)
	assert.ErrorIs(t, err, ErrFieldHasWrongType)

	// deleting the parent instance invalidates the child handle
	require.NoError(t, m.DeleteGroup(TagNoPartyIDs, 0))
	_, err = sub.GetString(TagPartySubID)
	assert.ErrorIs(t, err, ErrGroupWrongIndex)
}

func TestValidate(t *testing.T) {
	p := newTestParser(t, 0)
	m, err := p.NewMessage(MsgTypeExecutionReport)
	require.NoError(t, err)
	defer m.Free()

	err = m.Validate()
	assert.ErrorIs(t, err, ErrParseMsg)
	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, TagSenderCompID, fe.Tag)

	full := newExecutionReport(t, p)
	defer full.Free()
	require.NoError(t, full.Validate())

	g, err := full.AddGroup(TagNoPartyIDs)
	require.NoError(t, err)
	require.NoError(t, g.SetString(TagPartyRole, "3"))
	assert.ErrorIs(t, full.Validate(), ErrParseMsg)
}

func TestClone(t *testing.T) {
	p := newTestParser(t, CheckAll)
	m := newExecutionReport(t, p)
	g, err := m.AddGroup(TagNoPartyIDs)
	require.NoError(t, err)
	require.NoError(t, g.SetString(TagPartyID, "TRADER"))

	c, err := m.Clone()
	require.NoError(t, err)
	defer c.Free()

	want, err := m.Bytes(Pipe)
	require.NoError(t, err)
	m.Free()

	got, err := c.Bytes(Pipe)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFreedMessage(t *testing.T) {
	p := newTestParser(t, CheckAll)
	m := newExecutionReport(t, p)
	m.Free()
	m.Free()

	_, err := m.GetString(TagSymbol)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.ErrorIs(t, m.SetString(TagSymbol, "X"), ErrInvalidArgument)
	_, err = m.Bytes(SOH)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, "<freed>", m.LogValue().String())

	pages, groups := p.Usage()
	assert.Zero(t, pages)
	assert.Zero(t, groups)
}

func TestLogValue(t *testing.T) {
	p := newTestParser(t, CheckAll)
	m := newExecutionReport(t, p)
	defer m.Free()

	v := m.LogValue()
	require.Equal(t, slog.KindGroup, v.Kind())
	attrs := map[string]slog.Value{}
	for _, a := range v.Group() {
		attrs[a.Key] = a.Value
	}
	assert.Equal(t, "8", attrs["type"].String())
	assert.Equal(t, "QWERTY_12345678", attrs["sender"].String())
	assert.Equal(t, int64(1), attrs["seq"].Int64())
}

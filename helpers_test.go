package fix

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestParser(t testing.TB, flags Flags, opts ...ParserOption) *Parser {
	t.Helper()
	p, err := NewParser(MustFIX44(), flags, opts...)
	require.NoError(t, err)
	t.Cleanup(p.Free)
	return p
}

// frame wraps body ("35=...|...|") into a complete message with BodyLength
// and CheckSum, using delim in place of '|'.
func frame(begin, body string, delim byte) []byte {
	d := string(delim)
	body = strings.ReplaceAll(body, "|", d)
	msg := "8=" + begin + d + "9=" + strconv.Itoa(len(body)) + d + body
	sum := 0
	for i := 0; i < len(msg); i++ {
		sum += int(msg[i])
	}
	return []byte(fmt.Sprintf("%s10=%03d%s", msg, sum%256, d))
}

const (
	headerBody = "49=SENDER|56=TARGET|34=7|52=20240102-10:20:30.123|"
	execBody   = "35=8|" + headerBody +
		"37=ORD-1|11=CL-1|453=2|448=TRADER1|447=D|452=11|448=DESK|452=3|802=1|523=SUB|803=4|" +
		"17=EX-1|150=0|39=0|55=RTS-12.12|54=1|38=25|44=135155|151=25|14=0|6=0|"
)

// newExecutionReport builds an ExecutionReport with every required field.
func newExecutionReport(t testing.TB, p *Parser) *Message {
	t.Helper()
	m, err := p.NewMessage(MsgTypeExecutionReport)
	require.NoError(t, err)
	require.NoError(t, m.SetString(TagSenderCompID, "QWERTY_12345678"))
	require.NoError(t, m.SetString(TagTargetCompID, "BROKER"))
	require.NoError(t, m.SetInt64(TagMsgSeqNum, 1))
	require.NoError(t, m.SetString(TagSendingTime, "20240102-10:20:30.123"))
	require.NoError(t, m.SetString(TagOrderID, "ORD-1"))
	require.NoError(t, m.SetString(TagExecID, "EX-1"))
	require.NoError(t, m.SetChar(TagExecType, '0'))
	require.NoError(t, m.SetChar(TagOrdStatus, '0'))
	require.NoError(t, m.SetString(TagSymbol, "RTS-12.12"))
	require.NoError(t, m.SetChar(TagSide, '1'))
	require.NoError(t, m.SetFloat(TagOrderQty, 25.0))
	require.NoError(t, m.SetFloat(TagPrice, 135155.0))
	require.NoError(t, m.SetFloat(TagLeavesQty, 25))
	require.NoError(t, m.SetFloat(TagCumQty, 0))
	require.NoError(t, m.SetFloat(TagAvgPx, 0))
	return m
}

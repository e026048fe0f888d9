package fix

import (
	"os"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// minimalXML is a self-contained dictionary; %s is replaced with extra
// elements by the error tests.
const minimalXML = `<fix version="FIX.4.2">
  <header>
    <field name="BeginString" required="Y"/>
    <field name="BodyLength" required="Y"/>
    <field name="MsgType" required="Y"/>
  </header>
  <trailer>
    <field name="CheckSum" required="Y"/>
  </trailer>
  <messages>
    <message name="Heartbeat" type="0">
      <field name="TestReqID" required="N"/>
    </message>
  </messages>
  <fields>
    <field number="8" name="BeginString" type="String"/>
    <field number="9" name="BodyLength" type="Length"/>
    <field number="10" name="CheckSum" type="String"/>
    <field number="35" name="MsgType" type="String"/>
    <field number="112" name="TestReqID" type="String"/>
  </fields>
</fix>`

func TestFIX44(t *testing.T) {
	dict, err := FIX44()
	require.NoError(t, err)
	assert.Same(t, dict, MustFIX44())

	assert.Equal(t, "FIX.4.4", dict.ProtocolVersion())
	assert.Equal(t, "FIX.4.4", dict.TransportVersion())
	assert.Contains(t, dict.Messages(), MsgTypeExecutionReport)

	md, err := dict.MessageDefinition(MsgTypeExecutionReport)
	require.NoError(t, err)
	assert.Equal(t, "ExecutionReport", md.Name)

	tags := make([]int, 0, 4)
	for _, d := range md.Fields()[:4] {
		tags = append(tags, d.Tag())
	}
	assert.Equal(t, []int{TagBeginString, TagBodyLength, TagMsgType, TagSenderCompID}, tags)
	assert.Equal(t, TagCheckSum, md.Fields()[len(md.Fields())-1].Tag())
	assert.Contains(t, md.Required(), TagSymbol)

	// Parties is an optional component, so its members are optional too.
	parties, err := md.Field(TagNoPartyIDs)
	require.NoError(t, err)
	assert.True(t, parties.IsGroup())
	assert.False(t, parties.Required)
	assert.Equal(t, TagPartyID, parties.First().Tag())
	assert.True(t, parties.First().Required)

	_, err = md.Field(TagHeartBtInt)
	assert.ErrorIs(t, err, ErrUnknownField)

	ft, err := dict.FieldDefinition(TagSide)
	require.NoError(t, err)
	assert.Equal(t, TypeChar, ft.Type)
	assert.True(t, ft.IsValid("1"))
	assert.False(t, ft.IsValid("9"))

	byName, err := dict.FieldByName("Side")
	require.NoError(t, err)
	assert.Same(t, ft, byName)

	_, err = dict.MessageDefinition("ZZ")
	assert.ErrorIs(t, err, ErrUnknownMsg)
	_, err = dict.FieldDefinition(9999)
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestLoadDictionaryTransport(t *testing.T) {
	dict, err := LoadDictionaryFile("testdata/FIX50SP2.xml")
	require.NoError(t, err)

	assert.Equal(t, "FIX.5.0SP2", dict.ProtocolVersion())
	assert.Equal(t, "FIXT.1.1", dict.TransportVersion())
	assert.Equal(t, []string{"0", "A", "D"}, dict.Messages())

	nos, err := dict.MessageDefinition(MsgTypeNewOrderSingle)
	require.NoError(t, err)
	sender, err := nos.Field(TagSenderCompID)
	require.NoError(t, err)
	assert.True(t, sender.Required)

	ft, err := dict.FieldDefinition(TagSendingTime)
	require.NoError(t, err)
	assert.Equal(t, TypeUTCTimestamp, ft.Type)
}

func TestLoadDictionaryFS(t *testing.T) {
	transport, err := os.ReadFile("testdata/FIXT11.xml")
	require.NoError(t, err)
	app, err := os.ReadFile("testdata/FIX50SP2.xml")
	require.NoError(t, err)

	fsys := fstest.MapFS{
		"dicts/FIXT11.xml":   {Data: transport},
		"dicts/FIX50SP2.xml": {Data: app},
	}
	dict, err := LoadDictionaryFS(fsys, "dicts/FIX50SP2.xml")
	require.NoError(t, err)
	assert.Equal(t, "FIXT.1.1", dict.TransportVersion())

	_, err = LoadDictionaryFS(fsys, "dicts/missing.xml")
	assert.ErrorIs(t, err, ErrXMLLoad)
}

func TestLoadDictionaryYAML(t *testing.T) {
	f, err := os.Open("testdata/news.yaml")
	require.NoError(t, err)
	defer f.Close()

	dict, err := LoadDictionaryYAML(f)
	require.NoError(t, err)
	assert.Equal(t, "FIX.4.2", dict.ProtocolVersion())

	md, err := dict.MessageDefinition("B")
	require.NoError(t, err)
	lines, err := md.Field(33)
	require.NoError(t, err)
	require.True(t, lines.IsGroup())
	require.Len(t, lines.Members(), 3)
	assert.Equal(t, 58, lines.First().Tag())

	fromFile, err := LoadDictionaryFile("testdata/news.yaml")
	require.NoError(t, err)
	assert.Equal(t, dict.Messages(), fromFile.Messages())
}

func TestLoadDictionaryErrors(t *testing.T) {
	replace := func(old, new string) string {
		require.Contains(t, minimalXML, old)
		return strings.Replace(minimalXML, old, new, 1)
	}

	tests := []struct {
		name string
		doc  string
		want *Error
	}{
		{"empty", "", ErrXMLLoad},
		{"syntax", "<fix version=", ErrXMLSyntax},
		{"root", "<fox/>", ErrUnknownProtocolDescr},
		{"no version", replace(`version="FIX.4.2"`, ""), ErrUnknownProtocolDescr},
		{"bad version", replace(`version="FIX.4.2"`, `version="HTTP/1.1"`), ErrUnknownProtocolDescr},
		{"transport from reader", replace(`<fix version="FIX.4.2">`, `<fix version="FIX.4.2" transport="FIXT11.xml">`), ErrXMLLoad},
		{"missing number", replace(`number="112" `, ""), ErrXMLAttrMissing},
		{"bad number", replace(`number="112"`, `number="x"`), ErrXMLAttrInvalid},
		{"unknown type", replace(`name="TestReqID" type="String"`, `name="TestReqID" type="Blob"`), ErrXMLAttrInvalid},
		{"duplicate tag", replace(`number="112"`, `number="35"`), ErrDuplicateFieldDescr},
		{"missing required", replace(`<field name="TestReqID" required="N"/>`, `<field name="TestReqID"/>`), ErrXMLAttrMissing},
		{"bad required", replace(`required="N"`, `required="maybe"`), ErrXMLAttrInvalid},
		{"unknown member", replace(`<field name="TestReqID" required="N"/>`, `<field name="Nope" required="N"/>`), ErrUnknownField},
		{"unknown component", replace(`<field name="TestReqID" required="N"/>`, `<component name="Nope" required="N"/>`), ErrXMLAttrInvalid},
		{"group of string", replace(`<field name="TestReqID" required="N"/>`, `<group name="TestReqID" required="N"><field name="MsgType" required="Y"/></group>`), ErrWrongField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadDictionary(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoadDictionaryDataField(t *testing.T) {
	doc := strings.Replace(minimalXML, `<field name="TestReqID" required="N"/>`,
		`<field name="RawData" required="N"/><field name="RawDataLength" required="N"/>`, 1)
	doc = strings.Replace(doc, `</fields>`,
		`<field number="95" name="RawDataLength" type="Length"/><field number="96" name="RawData" type="Data"/></fields>`, 1)

	_, err := LoadDictionary(strings.NewReader(doc))
	assert.ErrorIs(t, err, ErrWrongField)

	doc = strings.Replace(doc, `<field name="RawData" required="N"/><field name="RawDataLength" required="N"/>`,
		`<field name="RawDataLength" required="N"/><field name="RawData" required="N"/>`, 1)
	dict, err := LoadDictionary(strings.NewReader(doc))
	require.NoError(t, err)
	md, err := dict.MessageDefinition("0")
	require.NoError(t, err)
	def, err := md.Field(96)
	require.NoError(t, err)
	assert.Equal(t, 95, def.length.Tag())
}

func TestLoadDictionaryComponentCycle(t *testing.T) {
	doc := strings.Replace(minimalXML, `<field name="TestReqID" required="N"/>`, `<component name="Loop" required="Y"/>`, 1)
	doc = strings.Replace(doc, `<fields>`, `<components><component name="Loop"><component name="Loop" required="Y"/></component></components><fields>`, 1)

	_, err := LoadDictionary(strings.NewReader(doc))
	assert.ErrorIs(t, err, ErrXMLAttrInvalid)
}

func TestLoadDictionaryYAMLErrors(t *testing.T) {
	_, err := LoadDictionaryYAML(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrXMLLoad)

	_, err = LoadDictionaryYAML(strings.NewReader("version: FIX.4.2\nbogus: 1\n"))
	assert.ErrorIs(t, err, ErrXMLSyntax)

	_, err = LoadDictionaryYAML(strings.NewReader("version: FIX.4.2\nheader:\n  - widget: {name: X}\n"))
	assert.ErrorIs(t, err, ErrXMLAttrInvalid)
}

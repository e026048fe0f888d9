package fix

import (
	"strings"
)

// ValueType is the declared wire type of a field.
type ValueType int

const (
	TypeUnknown ValueType = iota
	TypeInt
	TypeLength
	TypeNumInGroup
	TypeSeqNum
	TypeTagNum
	TypeDayOfMonth
	TypeFloat
	TypeQty
	TypePrice
	TypePriceOffset
	TypeAmt
	TypePercentage
	TypeChar
	TypeBoolean
	TypeString
	TypeMultipleValueString
	TypeCountry
	TypeCurrency
	TypeExchange
	TypeMonthYear
	TypeUTCTimestamp
	TypeUTCTimeOnly
	TypeUTCDateOnly
	TypeLocalMktDate
	TypeData
	TypeTZTimeOnly
	TypeTZTimestamp
	TypeXMLData
	TypeLanguage
)

var valueTypeNames = [...]string{
	TypeUnknown:             "Unknown",
	TypeInt:                 "Int",
	TypeLength:              "Length",
	TypeNumInGroup:          "NumInGroup",
	TypeSeqNum:              "SeqNum",
	TypeTagNum:              "TagNum",
	TypeDayOfMonth:          "DayOfMonth",
	TypeFloat:               "Float",
	TypeQty:                 "Qty",
	TypePrice:               "Price",
	TypePriceOffset:         "PriceOffset",
	TypeAmt:                 "Amt",
	TypePercentage:          "Percentage",
	TypeChar:                "Char",
	TypeBoolean:             "Boolean",
	TypeString:              "String",
	TypeMultipleValueString: "MultipleValueString",
	TypeCountry:             "Country",
	TypeCurrency:            "Currency",
	TypeExchange:            "Exchange",
	TypeMonthYear:           "MonthYear",
	TypeUTCTimestamp:        "UTCTimestamp",
	TypeUTCTimeOnly:         "UTCTimeOnly",
	TypeUTCDateOnly:         "UTCDateOnly",
	TypeLocalMktDate:        "LocalMktDate",
	TypeData:                "Data",
	TypeTZTimeOnly:          "TZTimeOnly",
	TypeTZTimestamp:         "TZTimestamp",
	TypeXMLData:             "XMLData",
	TypeLanguage:            "Language",
}

func (t ValueType) String() string {
	if t >= 0 && int(t) < len(valueTypeNames) {
		return valueTypeNames[t]
	}
	return valueTypeNames[TypeUnknown]
}

// parseValueType maps a dictionary type name to a ValueType. Matching ignores
// case so both "Price" and "PRICE" are accepted.
func parseValueType(s string) ValueType {
	for i, name := range valueTypeNames {
		if i != int(TypeUnknown) && strings.EqualFold(name, s) {
			return ValueType(i)
		}
	}
	switch strings.ToUpper(s) {
	case "MULTIPLESTRINGVALUE", "MULTIPLECHARVALUE":
		return TypeMultipleValueString
	case "UTCDATE":
		return TypeUTCDateOnly
	}
	return TypeUnknown
}

// Kind is the storage class of a value type.
type Kind int

const (
	KindNone Kind = iota
	KindInt
	KindFloat
	KindChar
	KindString
	KindData
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindChar:
		return "char"
	case KindString:
		return "string"
	case KindData:
		return "data"
	}
	return "none"
}

// Kind returns the storage class used for values of type t.
func (t ValueType) Kind() Kind {
	switch t {
	case TypeInt, TypeLength, TypeNumInGroup, TypeSeqNum, TypeTagNum, TypeDayOfMonth:
		return KindInt
	case TypeFloat, TypeQty, TypePrice, TypePriceOffset, TypeAmt, TypePercentage:
		return KindFloat
	case TypeChar, TypeBoolean:
		return KindChar
	case TypeData, TypeXMLData:
		return KindData
	case TypeUnknown:
		return KindNone
	}
	return KindString
}

// Flags selects the checks a Parser applies.
type Flags uint32

const (
	CheckCRC           Flags = 0x01
	CheckRequired      Flags = 0x02
	CheckValue         Flags = 0x04
	CheckUnknownFields Flags = 0x08
	CheckAll                 = CheckCRC | CheckRequired | CheckValue | CheckUnknownFields
)

// Has reports whether all bits of f2 are set in f.
func (f Flags) Has(f2 Flags) bool { return f&f2 == f2 }

func (f Flags) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	if f.Has(CheckCRC) {
		parts = append(parts, "crc")
	}
	if f.Has(CheckRequired) {
		parts = append(parts, "required")
	}
	if f.Has(CheckValue) {
		parts = append(parts, "value")
	}
	if f.Has(CheckUnknownFields) {
		parts = append(parts, "unknown")
	}
	return strings.Join(parts, "|")
}

// ParseFlags converts check names ("crc", "required", "value", "unknown", "all")
// into a Flags bitmask.
func ParseFlags(names []string) (Flags, error) {
	var f Flags
	for _, n := range names {
		switch strings.ToLower(strings.TrimSpace(n)) {
		case "crc", "checksum":
			f |= CheckCRC
		case "required":
			f |= CheckRequired
		case "value":
			f |= CheckValue
		case "unknown", "unknown_fields":
			f |= CheckUnknownFields
		case "all":
			f |= CheckAll
		case "", "none":
		default:
			return 0, newError(CodeInvalidArgument, "unknown check %q", n)
		}
	}
	return f, nil
}

// Limits bounds the memory a Parser hands out to its messages. A zero maximum
// means unlimited.
type Limits struct {
	PageSize    int `mapstructure:"page_size" yaml:"page_size"`
	MaxPageSize int `mapstructure:"max_page_size" yaml:"max_page_size"`
	NumPages    int `mapstructure:"num_pages" yaml:"num_pages"`
	MaxPages    int `mapstructure:"max_pages" yaml:"max_pages"`
	NumGroups   int `mapstructure:"num_groups" yaml:"num_groups"`
	MaxGroups   int `mapstructure:"max_groups" yaml:"max_groups"`
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{
		PageSize:  DefaultPageSize,
		NumPages:  DefaultNumPages,
		NumGroups: DefaultNumGroups,
	}
}

// normalize fills zero initial values with defaults and checks the maximums.
func (l Limits) normalize() (Limits, error) {
	if l.PageSize <= 0 {
		l.PageSize = DefaultPageSize
	}
	if l.NumPages <= 0 {
		l.NumPages = DefaultNumPages
	}
	if l.NumGroups <= 0 {
		l.NumGroups = DefaultNumGroups
	}
	if l.MaxPageSize < 0 || l.MaxPages < 0 || l.MaxGroups < 0 {
		return l, newError(CodeInvalidArgument, "negative limit")
	}
	if l.MaxPageSize > 0 && l.MaxPageSize < l.PageSize {
		return l, newError(CodeInvalidArgument, "MaxPageSize(%d) < PageSize(%d)", l.MaxPageSize, l.PageSize)
	}
	if l.MaxPages > 0 && l.MaxPages < l.NumPages {
		return l, newError(CodeInvalidArgument, "MaxPages(%d) < NumPages(%d)", l.MaxPages, l.NumPages)
	}
	if l.MaxGroups > 0 && l.MaxGroups < l.NumGroups {
		return l, newError(CodeInvalidArgument, "MaxGroups(%d) < NumGroups(%d)", l.MaxGroups, l.NumGroups)
	}
	return l, nil
}

package fix

import (
	"errors"
	"fmt"
)

// ErrorCode is the stable numeric code carried by every engine error.
type ErrorCode int

const (
	CodeSuccess              ErrorCode = 0
	CodeFailed               ErrorCode = -1
	CodeFieldHasWrongType    ErrorCode = -2
	CodeFieldNotFound        ErrorCode = -3
	CodeFieldTypeExists      ErrorCode = -4
	CodeGroupWrongIndex      ErrorCode = -5
	CodeXMLAttrMissing       ErrorCode = -6
	CodeXMLAttrInvalid       ErrorCode = -7
	CodeXMLLoad              ErrorCode = -8
	CodeUnknownField         ErrorCode = -9
	CodeWrongProtocolVer     ErrorCode = -10
	CodeDuplicateFieldDescr  ErrorCode = -11
	CodeUnknownMsg           ErrorCode = -12
	CodeXMLSyntax            ErrorCode = -13
	CodeInvalidArgument      ErrorCode = -14
	CodeUnknownProtocolDescr ErrorCode = -16 // -15 is reserved
	CodeNoMorePages          ErrorCode = -17
	CodeNoMoreGroups         ErrorCode = -18
	CodeTooBigPage           ErrorCode = -19
	CodeNoMoreSpace          ErrorCode = -20
	CodeParseMsg             ErrorCode = -21
	CodeWrongField           ErrorCode = -22
	CodeIntegrityCheck       ErrorCode = -23
	CodeNoMoreData           ErrorCode = -24
	CodeWrongFieldValue      ErrorCode = -25
)

var codeNames = map[ErrorCode]string{
	CodeSuccess:              "SUCCESS",
	CodeFailed:               "FAILED",
	CodeFieldHasWrongType:    "FIELD_HAS_WRONG_TYPE",
	CodeFieldNotFound:        "FIELD_NOT_FOUND",
	CodeFieldTypeExists:      "FIELD_TYPE_EXISTS",
	CodeGroupWrongIndex:      "GROUP_WRONG_INDEX",
	CodeXMLAttrMissing:       "XML_ATTR_NOT_FOUND",
	CodeXMLAttrInvalid:       "XML_ATTR_WRONG_VALUE",
	CodeXMLLoad:              "PROTOCOL_XML_LOAD_FAILED",
	CodeUnknownField:         "UNKNOWN_FIELD",
	CodeWrongProtocolVer:     "WRONG_PROTOCOL_VER",
	CodeDuplicateFieldDescr:  "DUPLICATE_FIELD_DESCR",
	CodeUnknownMsg:           "UNKNOWN_MSG",
	CodeXMLSyntax:            "XML_SYNTAX",
	CodeInvalidArgument:      "INVALID_ARGUMENT",
	CodeUnknownProtocolDescr: "UNKNOWN_PROTOCOL_DESCR",
	CodeNoMorePages:          "NO_MORE_PAGES",
	CodeNoMoreGroups:         "NO_MORE_GROUPS",
	CodeTooBigPage:           "TOO_BIG_PAGE",
	CodeNoMoreSpace:          "NO_MORE_SPACE",
	CodeParseMsg:             "PARSE_MSG",
	CodeWrongField:           "WRONG_FIELD",
	CodeIntegrityCheck:       "INTEGRITY_CHECK",
	CodeNoMoreData:           "NO_MORE_DATA",
	CodeWrongFieldValue:      "WRONG_FIELD_VALUE",
}

// String returns the symbolic name of the code.
func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ErrorCode(%d)", int(c))
}

// Error is the error object returned by every fallible engine operation.
// Two errors are considered equal by errors.Is when their codes match, so
// detailed errors still match the package sentinels.
type Error struct {
	Code ErrorCode
	Text string
}

func (e *Error) Error() string {
	return "fix: " + e.Text
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func newError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Text: fmt.Sprintf(format, args...)}
}

var (
	ErrFailed               = &Error{Code: CodeFailed, Text: "operation failed"}
	ErrFieldHasWrongType    = &Error{Code: CodeFieldHasWrongType, Text: "field has wrong type"}
	ErrFieldNotFound        = &Error{Code: CodeFieldNotFound, Text: "field not found"}
	ErrFieldTypeExists      = &Error{Code: CodeFieldTypeExists, Text: "field already holds an incompatible type"}
	ErrGroupWrongIndex      = &Error{Code: CodeGroupWrongIndex, Text: "wrong group index"}
	ErrXMLAttrMissing       = &Error{Code: CodeXMLAttrMissing, Text: "attribute not found"}
	ErrXMLAttrInvalid       = &Error{Code: CodeXMLAttrInvalid, Text: "attribute has wrong value"}
	ErrXMLLoad              = &Error{Code: CodeXMLLoad, Text: "unable to load protocol definition"}
	ErrUnknownField         = &Error{Code: CodeUnknownField, Text: "unknown field"}
	ErrWrongProtocolVer     = &Error{Code: CodeWrongProtocolVer, Text: "wrong protocol version"}
	ErrDuplicateFieldDescr  = &Error{Code: CodeDuplicateFieldDescr, Text: "duplicate field definition"}
	ErrUnknownMsg           = &Error{Code: CodeUnknownMsg, Text: "unknown message type"}
	ErrXMLSyntax            = &Error{Code: CodeXMLSyntax, Text: "malformed protocol definition"}
	ErrInvalidArgument      = &Error{Code: CodeInvalidArgument, Text: "invalid argument"}
	ErrUnknownProtocolDescr = &Error{Code: CodeUnknownProtocolDescr, Text: "unknown protocol description"}
	ErrNoMorePages          = &Error{Code: CodeNoMorePages, Text: "no more pages"}
	ErrNoMoreGroups         = &Error{Code: CodeNoMoreGroups, Text: "no more groups"}
	ErrTooBigPage           = &Error{Code: CodeTooBigPage, Text: "page too big"}
	ErrNoMoreSpace          = &Error{Code: CodeNoMoreSpace, Text: "no more space in buffer"}
	ErrParseMsg             = &Error{Code: CodeParseMsg, Text: "unable to parse message"}
	ErrWrongField           = &Error{Code: CodeWrongField, Text: "wrong field"}
	ErrIntegrityCheck       = &Error{Code: CodeIntegrityCheck, Text: "integrity check failed"}
	ErrNoMoreData           = &Error{Code: CodeNoMoreData, Text: "no more data"}
	ErrWrongFieldValue      = &Error{Code: CodeWrongFieldValue, Text: "wrong field value"}
)

// CodeOf returns the code of the first *Error in err's chain.
// A nil error yields CodeSuccess and a foreign error yields CodeFailed.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return CodeSuccess
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return CodeWrongFieldValue
	}
	return CodeFailed
}

// FieldError attaches the offending tag to an engine error.
type FieldError struct {
	Tag int
	Err error
}

func (fe *FieldError) Error() string {
	return fmt.Sprintf("tag %d: %v", fe.Tag, fe.Err)
}

func (fe *FieldError) Unwrap() error { return fe.Err }

// ValidationError reports a failed value check. It matches ErrWrongFieldValue.
type ValidationError struct {
	Tag     int
	Rule    string
	Message string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for tag %d (%s): %s", ve.Tag, ve.Rule, ve.Message)
}

func (ve *ValidationError) Unwrap() error { return ErrWrongFieldValue }

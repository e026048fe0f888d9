package fix

import (
	"fmt"
	"regexp"
)

// ValidationRule checks the wire text of one field value.
type ValidationRule interface {
	Validate(ft *FieldType, value []byte) error
	Name() string
}

// CompiledValidator holds the value rules derived from a Dictionary plus any
// rules added by the caller. It is built once per Parser and only read
// afterwards.
type CompiledValidator struct {
	fieldRules  map[int][]ValidationRule
	typeRules   map[ValueType][]ValidationRule
	globalRules []ValidationRule
}

// NewCompiledValidator creates a validator with the built-in rules for every
// value type.
func NewCompiledValidator() *CompiledValidator {
	return &CompiledValidator{
		fieldRules: make(map[int][]ValidationRule),
		typeRules: map[ValueType][]ValidationRule{
			TypeBoolean:      {&EnumRule{Values: "YN"}},
			TypeDayOfMonth:   {&RangeRule{Min: 1, Max: 31}},
			TypeCurrency:     {&AlphaRule{Length: 3}},
			TypeCountry:      {&AlphaRule{Length: 2}},
			TypeUTCTimestamp: {&FormatRule{}},
			TypeUTCTimeOnly:  {&FormatRule{}},
			TypeUTCDateOnly:  {&FormatRule{}},
			TypeLocalMktDate: {&FormatRule{}},
			TypeMonthYear:    {&FormatRule{}},
		},
	}
}

// AddFieldRule adds a rule for a single tag.
func (cv *CompiledValidator) AddFieldRule(tag int, rule ValidationRule) {
	cv.fieldRules[tag] = append(cv.fieldRules[tag], rule)
}

// AddGlobalRule adds a rule applied to every field.
func (cv *CompiledValidator) AddGlobalRule(rule ValidationRule) {
	cv.globalRules = append(cv.globalRules, rule)
}

// ValidateField runs the valid-value set of the field, then the type, field
// and global rules.
func (cv *CompiledValidator) ValidateField(ft *FieldType, value []byte) error {
	if ft.HasEnum() && !ft.IsValid(string(value)) {
		return &ValidationError{Tag: ft.Tag, Rule: "enum", Message: fmt.Sprintf("'%s' is not a valid value of %s", value, ft.Name)}
	}
	for _, rules := range [][]ValidationRule{cv.typeRules[ft.Type], cv.fieldRules[ft.Tag], cv.globalRules} {
		for _, rule := range rules {
			if err := rule.Validate(ft, value); err != nil {
				return &ValidationError{Tag: ft.Tag, Rule: rule.Name(), Message: err.Error()}
			}
		}
	}
	return nil
}

// EnumRule accepts single byte values listed in Values.
type EnumRule struct {
	Values string
}

func (r *EnumRule) Name() string { return "enum" }

func (r *EnumRule) Validate(_ *FieldType, value []byte) error {
	if len(value) == 1 {
		for i := 0; i < len(r.Values); i++ {
			if r.Values[i] == value[0] {
				return nil
			}
		}
	}
	return fmt.Errorf("'%s' is not one of %q", value, r.Values)
}

// RangeRule checks an integer value against inclusive bounds.
type RangeRule struct {
	Min int64
	Max int64
}

func (r *RangeRule) Name() string { return "range" }

func (r *RangeRule) Validate(_ *FieldType, value []byte) error {
	v, err := DecodeInt(value)
	if err != nil {
		return err
	}
	if v < r.Min || v > r.Max {
		return fmt.Errorf("%d is outside [%d, %d]", v, r.Min, r.Max)
	}
	return nil
}

// AlphaRule requires exactly Length letters, as ISO currency and country
// codes are.
type AlphaRule struct {
	Length int
}

func (r *AlphaRule) Name() string { return "alpha" }

func (r *AlphaRule) Validate(_ *FieldType, value []byte) error {
	return validateAlpha(string(value), r.Length)
}

// FormatRule checks date and time typed values against their FIX layout.
type FormatRule struct{}

func (r *FormatRule) Name() string { return "format" }

func (r *FormatRule) Validate(ft *FieldType, value []byte) error {
	return validateFormat(ft.Type, string(value))
}

// LengthRule bounds the byte length of a value.
type LengthRule struct {
	MinLength int
	MaxLength int
}

func (r *LengthRule) Name() string { return "length" }

func (r *LengthRule) Validate(_ *FieldType, value []byte) error {
	if r.MinLength > 0 && len(value) < r.MinLength {
		return fmt.Errorf("length %d below minimum %d", len(value), r.MinLength)
	}
	if r.MaxLength > 0 && len(value) > r.MaxLength {
		return fmt.Errorf("length %d exceeds maximum %d", len(value), r.MaxLength)
	}
	return nil
}

// RegexRule matches the value against a pattern.
type RegexRule struct {
	Description string
	regex       *regexp.Regexp
}

// NewRegexRule compiles pattern into a rule.
func NewRegexRule(pattern, description string) (*RegexRule, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, newError(CodeInvalidArgument, "invalid pattern %q: %v", pattern, err)
	}
	return &RegexRule{Description: description, regex: re}, nil
}

func (r *RegexRule) Name() string { return "regex" }

func (r *RegexRule) Validate(_ *FieldType, value []byte) error {
	if r.regex.Match(value) {
		return nil
	}
	if r.Description != "" {
		return fmt.Errorf("%s", r.Description)
	}
	return fmt.Errorf("does not match pattern %s", r.regex)
}

// CustomRule adapts a function into a ValidationRule.
type CustomRule struct {
	RuleName string
	Fn       func(ft *FieldType, value []byte) error
}

func (r *CustomRule) Name() string { return r.RuleName }

func (r *CustomRule) Validate(ft *FieldType, value []byte) error { return r.Fn(ft, value) }

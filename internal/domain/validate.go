package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation"
)

const (
	MaxPersonalIDLength = 20
	MinNumbersCount     = 6
	MaxNumbersCount     = 10
	MinNumberValue      = 1
	MaxNumberValue      = 45
)

type ValidationErrorKind string

const (
	KindMissingField      ValidationErrorKind = "missing_field"
	KindPersonalIDTooLong ValidationErrorKind = "personal_id_too_long"
	KindPersonalIDInvalid ValidationErrorKind = "personal_id_invalid"
	KindCountOutOfRange   ValidationErrorKind = "count_out_of_range"
	KindValueOutOfRange   ValidationErrorKind = "value_out_of_range"
	KindDuplicateValues   ValidationErrorKind = "duplicate_values"
)

// ValidationError is returned for ticket input the caller has to correct.
type ValidationError struct {
	Kind    ValidationErrorKind
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var (
	ErrMissingField      = &ValidationError{Kind: KindMissingField, Message: "missing required fields"}
	ErrPersonalIDTooLong = &ValidationError{Kind: KindPersonalIDTooLong, Message: fmt.Sprintf("personal id must be max %d characters", MaxPersonalIDLength)}
	ErrPersonalIDInvalid = &ValidationError{Kind: KindPersonalIDInvalid, Message: "personal id contains invalid characters"}
	ErrCountOutOfRange   = &ValidationError{Kind: KindCountOutOfRange, Message: fmt.Sprintf("numbers must be between %d and %d", MinNumbersCount, MaxNumbersCount)}
	ErrValueOutOfRange   = &ValidationError{Kind: KindValueOutOfRange, Message: fmt.Sprintf("each number must be between %d and %d", MinNumberValue, MaxNumberValue)}
	ErrDuplicateValues   = &ValidationError{Kind: KindDuplicateValues, Message: "numbers must be unique"}
)

// IsValidationError reports whether err carries a ValidationError.
func IsValidationError(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

type numbersForm int

const (
	numbersAbsent numbersForm = iota
	numbersList
	numbersText
)

// RawNumbers holds ticket numbers as submitted: a structured list or a
// delimited string such as "1,2,3,4,5,6".
type RawNumbers struct {
	form   numbersForm
	values []float64
	text   string
}

func NumbersList(values ...int) RawNumbers {
	floats := make([]float64, len(values))
	for i, v := range values {
		floats[i] = float64(v)
	}

	return RawNumbers{form: numbersList, values: floats}
}

func NumbersText(text string) RawNumbers {
	return RawNumbers{form: numbersText, text: text}
}

func (n RawNumbers) IsAbsent() bool {
	return n.form == numbersAbsent || (n.form == numbersText && n.text == "")
}

func (n *RawNumbers) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*n = RawNumbers{}
	case len(data) > 0 && data[0] == '"':
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*n = NumbersText(text)
	default:
		var elements []json.RawMessage
		if err := json.Unmarshal(data, &elements); err != nil {
			return fmt.Errorf("numbers must be a list of integers or a delimited string: %w", err)
		}
		values := make([]float64, len(elements))
		for i, element := range elements {
			values[i] = decodeElement(element)
		}
		*n = RawNumbers{form: numbersList, values: values}
	}

	return nil
}

// decodeElement maps anything that is not a JSON number to NaN, which fails
// the range check like any other bad value.
func decodeElement(element json.RawMessage) float64 {
	element = bytes.TrimSpace(element)
	if len(element) == 0 || (element[0] != '-' && (element[0] < '0' || element[0] > '9')) {
		return math.NaN()
	}

	var v float64
	if err := json.Unmarshal(element, &v); err != nil {
		return math.NaN()
	}

	return v
}

// candidates returns one entry per submitted value. Unparsable tokens of the
// text form are dropped; structured values are kept so they fail strictly.
func (n RawNumbers) candidates() []float64 {
	if n.form == numbersList {
		return n.values
	}

	fields := strings.FieldsFunc(n.text, func(r rune) bool {
		return r == ',' || r == ';' || unicode.IsSpace(r)
	})
	values := make([]float64, 0, len(fields))
	for _, field := range fields {
		v, err := strconv.Atoi(field)
		if err != nil {
			continue
		}
		values = append(values, float64(v))
	}

	return values
}

type ValidTicket struct {
	PersonalID string
	Numbers    []int
}

// ValidateTicket turns raw submission fields into a canonical ticket payload.
func ValidateTicket(personalID string, numbers RawNumbers) (ValidTicket, error) {
	if personalID == "" || numbers.IsAbsent() {
		return ValidTicket{}, ErrMissingField
	}

	if utf8.RuneCountInString(personalID) > MaxPersonalIDLength {
		return ValidTicket{}, ErrPersonalIDTooLong
	}

	// PostgreSQL text cannot hold NUL or malformed UTF-8.
	if !utf8.ValidString(personalID) || strings.ContainsRune(personalID, 0) {
		return ValidTicket{}, ErrPersonalIDInvalid
	}

	values, err := validateNumbers(numbers.candidates())
	if err != nil {
		return ValidTicket{}, err
	}

	return ValidTicket{
		PersonalID: personalID,
		Numbers:    values,
	}, nil
}

// ValidateDrawnNumbers applies the ticket number rules to published results.
func ValidateDrawnNumbers(numbers []int) ([]int, error) {
	if numbers == nil {
		return nil, ErrMissingField
	}

	return validateNumbers(NumbersList(numbers...).candidates())
}

func validateNumbers(values []float64) ([]int, error) {
	err := validation.Validate(values,
		validation.By(countInRange),
		validation.By(valuesInRange),
		validation.By(valuesDistinct),
	)
	if err != nil {
		return nil, err
	}

	ints := make([]int, len(values))
	for i, v := range values {
		ints[i] = int(v)
	}

	return ints, nil
}

func countInRange(value interface{}) error {
	values, _ := value.([]float64)
	if len(values) < MinNumbersCount || len(values) > MaxNumbersCount {
		return ErrCountOutOfRange
	}

	return nil
}

func valuesInRange(value interface{}) error {
	values, _ := value.([]float64)
	for _, v := range values {
		if v != math.Trunc(v) || v < MinNumberValue || v > MaxNumberValue {
			return ErrValueOutOfRange
		}
	}

	return nil
}

func valuesDistinct(value interface{}) error {
	values, _ := value.([]float64)
	seen := make(map[float64]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	if len(seen) < len(values) {
		return ErrDuplicateValues
	}

	return nil
}

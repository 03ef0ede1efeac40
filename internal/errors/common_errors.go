package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeInvalidSchemaKind      ErrorType = "INVALID_SCHEMA_KIND"
	ErrTypeMissingRequiredColumns ErrorType = "MISSING_REQUIRED_COLUMNS"
	ErrTypeMissingRegion          ErrorType = "MISSING_REGION"
	ErrTypeNotTimeIndexed         ErrorType = "NOT_TIME_INDEXED"
	ErrTypeNoFixedFrequency       ErrorType = "NO_FIXED_FREQUENCY"
	ErrTypeInconsistentTimeIndex  ErrorType = "INCONSISTENT_TIME_INDEX"
	ErrTypeMissingTimeField       ErrorType = "MISSING_TIME_FIELD"
	ErrTypeUnrecognizedSchema     ErrorType = "UNRECOGNIZED_SCHEMA"
	ErrTypeInvalidFilterKey       ErrorType = "INVALID_FILTER_KEY"
	ErrTypeInvalidAggregationKey  ErrorType = "INVALID_AGGREGATION_KEY"
	ErrTypeMissingColumn          ErrorType = "MISSING_COLUMN"
	ErrTypeUnknownVariable        ErrorType = "UNKNOWN_VARIABLE"
	ErrTypeSeriesLengthMismatch   ErrorType = "SERIES_LENGTH_MISMATCH"

	ErrTypeParsing    ErrorType = "PARSING"
	ErrTypeStorage    ErrorType = "STORAGE"
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeNotFound   ErrorType = "NOT_FOUND"
	ErrTypeConfig     ErrorType = "CONFIG"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an AppError of the same type, so that the
// sentinels below match any error of their kind.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// Sentinels for errors.Is checks. Only the Type is compared.
var (
	ErrInvalidSchemaKind      = &AppError{Type: ErrTypeInvalidSchemaKind}
	ErrMissingRequiredColumns = &AppError{Type: ErrTypeMissingRequiredColumns}
	ErrMissingRegion          = &AppError{Type: ErrTypeMissingRegion}
	ErrNotTimeIndexed         = &AppError{Type: ErrTypeNotTimeIndexed}
	ErrNoFixedFrequency       = &AppError{Type: ErrTypeNoFixedFrequency}
	ErrInconsistentTimeIndex  = &AppError{Type: ErrTypeInconsistentTimeIndex}
	ErrMissingTimeField       = &AppError{Type: ErrTypeMissingTimeField}
	ErrUnrecognizedSchema     = &AppError{Type: ErrTypeUnrecognizedSchema}
	ErrInvalidFilterKey       = &AppError{Type: ErrTypeInvalidFilterKey}
	ErrInvalidAggregationKey  = &AppError{Type: ErrTypeInvalidAggregationKey}
	ErrMissingColumn          = &AppError{Type: ErrTypeMissingColumn}
	ErrUnknownVariable        = &AppError{Type: ErrTypeUnknownVariable}
	ErrSeriesLengthMismatch   = &AppError{Type: ErrTypeSeriesLengthMismatch}
	ErrParsing                = &AppError{Type: ErrTypeParsing}
	ErrStorage                = &AppError{Type: ErrTypeStorage}
	ErrValidation             = &AppError{Type: ErrTypeValidation}
	ErrConfig                 = &AppError{Type: ErrTypeConfig}
)

// Helper functions for common error types

// NewInvalidSchemaKindError reports an unknown record type.
func NewInvalidSchemaKindError(kind string) *AppError {
	return NewAppError(ErrTypeInvalidSchemaKind,
		fmt.Sprintf("%s is not a valid data type, choose between 'scalars' and 'timeseries'", kind), nil).
		WithContext("kind", kind)
}

// NewMissingRequiredColumnsError lists every required column absent from source.
func NewMissingRequiredColumnsError(source string, missing []string) *AppError {
	return NewAppError(ErrTypeMissingRequiredColumns,
		fmt.Sprintf("the data in %s is missing the required column(s): %s", source, strings.Join(missing, ", ")), nil).
		WithContext("source", source).
		WithContext("missing", missing)
}

// NewMissingRegionError reports a var_name that carries no region code.
func NewMissingRegionError(varName string, codes []string) *AppError {
	return NewAppError(ErrTypeMissingRegion,
		fmt.Sprintf("the data is missing the region: add one of %s to var_name %q", strings.Join(codes, ", "), varName), nil).
		WithContext("var_name", varName)
}

// NewNotTimeIndexedError reports a wide table without a usable timestamp index.
func NewNotTimeIndexedError(reason string) *AppError {
	return NewAppError(ErrTypeNotTimeIndexed,
		"data should have an ascending timestamp index of the format '2006-01-02 15:04:05': "+reason, nil)
}

// NewNoFixedFrequencyError reports an index whose frequency cannot be determined.
func NewNoFixedFrequencyError(reason string) *AppError {
	return NewAppError(ErrTypeNoFixedFrequency,
		"no frequency of the provided data could be detected: "+reason, nil)
}

// NewInconsistentTimeIndexError names the time field ("start date", "end date",
// "frequency") whose values differ between rows.
func NewInconsistentTimeIndexError(name, column string) *AppError {
	return NewAppError(ErrTypeInconsistentTimeIndex,
		fmt.Sprintf("the %s of the provided data doesn't match for all entries, pass one %s with %s", name, name, column), nil).
		WithContext("field", name).
		WithContext("column", column)
}

// NewMissingTimeFieldError reports an absent start date, end date or frequency.
func NewMissingTimeFieldError(name, column string) *AppError {
	return NewAppError(ErrTypeMissingTimeField,
		fmt.Sprintf("the provided data is missing a %s, pass the %s with %s", name, name, column), nil).
		WithContext("field", name).
		WithContext("column", column)
}

// NewUnrecognizedSchemaError reports a table that is neither scalars nor stacked time series.
func NewUnrecognizedSchemaError(scalarHeader, seriesHeader []string) *AppError {
	return NewAppError(ErrTypeUnrecognizedSchema,
		fmt.Sprintf("the data is neither a stacked time series nor scalars; expected time series: [%s] or scalars: [%s]",
			strings.Join(seriesHeader, ", "), strings.Join(scalarHeader, ", ")), nil)
}

// NewInvalidFilterKeyError reports a filter key outside the allowed set.
func NewInvalidFilterKeyError(key string, options []string) *AppError {
	return NewAppError(ErrTypeInvalidFilterKey,
		fmt.Sprintf("%s is not an option for a filter, choose one of: %s", key, strings.Join(options, ", ")), nil).
		WithContext("key", key)
}

// NewInvalidAggregationKeyError reports an aggregation key outside the allowed set.
func NewInvalidAggregationKeyError(key string, options []string) *AppError {
	return NewAppError(ErrTypeInvalidAggregationKey,
		fmt.Sprintf("%s is not an option for an aggregation, choose one of: %s", key, strings.Join(options, ", ")), nil).
		WithContext("key", key)
}

// NewMissingColumnError reports an allowed key whose column is absent.
func NewMissingColumnError(column string) *AppError {
	return NewAppError(ErrTypeMissingColumn,
		fmt.Sprintf("the data is missing the column %s", column), nil).
		WithContext("column", column)
}

// NewUnknownVariableError reports a var_name the scalar aggregation cannot classify.
func NewUnknownVariableError(varName string) *AppError {
	return NewAppError(ErrTypeUnknownVariable,
		fmt.Sprintf("unknown var_name: %s, this variable is not implemented in the aggregation", varName), nil).
		WithContext("var_name", varName)
}

// NewSeriesLengthMismatchError reports a series whose length differs from the expected one.
func NewSeriesLengthMismatchError(varName string, got, want int) *AppError {
	return NewAppError(ErrTypeSeriesLengthMismatch,
		fmt.Sprintf("series %q has %d values, expected %d", varName, got, want), nil).
		WithContext("var_name", varName).
		WithContext("got", got).
		WithContext("want", want)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// TypeOf returns the ErrorType of the first AppError in err's chain, or "".
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

var exitCodes = map[ErrorType]int{
	ErrTypeConfig:                 2,
	ErrTypeValidation:             3,
	ErrTypeNotFound:               4,
	ErrTypeStorage:                5,
	ErrTypeParsing:                6,
	ErrTypeInvalidSchemaKind:      10,
	ErrTypeMissingRequiredColumns: 11,
	ErrTypeMissingRegion:          12,
	ErrTypeNotTimeIndexed:         13,
	ErrTypeNoFixedFrequency:       14,
	ErrTypeInconsistentTimeIndex:  15,
	ErrTypeMissingTimeField:       16,
	ErrTypeUnrecognizedSchema:     17,
	ErrTypeInvalidFilterKey:       18,
	ErrTypeInvalidAggregationKey:  19,
	ErrTypeMissingColumn:          20,
	ErrTypeUnknownVariable:        21,
	ErrTypeSeriesLengthMismatch:   22,
}

// ExitCode maps an error to a process exit status: 0 for nil, 1 for errors
// that carry no AppError.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if code, ok := exitCodes[TypeOf(err)]; ok {
		return code
	}
	return 1
}

// ExitCodes returns the exit status table sorted by code, for usage output.
func ExitCodes() []string {
	types := make([]ErrorType, 0, len(exitCodes))
	for t := range exitCodes {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return exitCodes[types[i]] < exitCodes[types[j]] })

	lines := make([]string, 0, len(types))
	for _, t := range types {
		lines = append(lines, fmt.Sprintf("%3d  %s", exitCodes[t], t))
	}
	return lines
}

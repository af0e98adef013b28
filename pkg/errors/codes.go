package errors

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal       ErrorCode = "COMMON_001"
	ErrCodeBadRequest     ErrorCode = "COMMON_002"
	ErrCodeNotFound       ErrorCode = "COMMON_003"
	ErrCodeConflict       ErrorCode = "COMMON_004"
	ErrCodeValidation     ErrorCode = "COMMON_005"
	ErrCodeSerialization  ErrorCode = "COMMON_006"
	ErrCodeNotImplemented ErrorCode = "COMMON_007"
)

// Aliases kept so call sites read naturally.
const (
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
	CodeUnknown      = ErrorCode("UNKNOWN")
	CodeOK           = ErrorCode("OK")
)

// Functional Group Module Error Codes
const (
	ErrCodeUnknownFunctionalGroup ErrorCode = "FG_001"
	ErrCodeInvalidPattern         ErrorCode = "FG_002"
	ErrCodeInvalidGroupRule       ErrorCode = "FG_003"
	ErrCodeDuplicateGroupType     ErrorCode = "FG_004"
)

// Reaction Module Error Codes
const (
	ErrCodeDegenerateReaction ErrorCode = "RXN_001"
	ErrCodeReactorFinalized   ErrorCode = "RXN_002"
	ErrCodeReactionArity      ErrorCode = "RXN_003"
	ErrCodeMissingBonder      ErrorCode = "RXN_004"
)

// Construction Module Error Codes
const (
	ErrCodeConstructionFailed   ErrorCode = "CONSTR_001"
	ErrCodeInvalidBuildingBlock ErrorCode = "CONSTR_002"
	ErrCodeInvalidTopology      ErrorCode = "CONSTR_003"
	ErrCodeConformerMismatch    ErrorCode = "CONSTR_004"
	ErrCodeMoleculeNotFound     ErrorCode = "CONSTR_005"
	ErrCodeInvalidElement       ErrorCode = "CONSTR_006"
)

// Domain specific aliases
const (
	CodeUnknownFunctionalGroup = ErrCodeUnknownFunctionalGroup
	CodeInvalidPattern         = ErrCodeInvalidPattern
	CodeDegenerateReaction     = ErrCodeDegenerateReaction
	CodeReactorFinalized       = ErrCodeReactorFinalized
	CodeConstructionFailed     = ErrCodeConstructionFailed
)

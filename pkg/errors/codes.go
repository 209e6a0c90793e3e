package errors

import "net/http"

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes.
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeConflict           ErrorCode = "COMMON_004"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_005"
	ErrCodeTimeout            ErrorCode = "COMMON_006"
	ErrCodeValidation         ErrorCode = "COMMON_007"
	ErrCodeSerialization      ErrorCode = "COMMON_008"
	ErrCodeDatabaseError      ErrorCode = "COMMON_009"
	ErrCodeCacheError         ErrorCode = "COMMON_010"
	ErrCodeUnknown            ErrorCode = "COMMON_099"

	CodeOK ErrorCode = "OK"
)

// Catalog module error codes.
const (
	ErrCodeCatalogRecordNotFound ErrorCode = "CAT_001"
	ErrCodeCatalogQueryFailed    ErrorCode = "CAT_002"
	ErrCodeCatalogDumpInvalid    ErrorCode = "CAT_003"
)

// Extraction module error codes.
const (
	ErrCodeExtractionEmptyInput ErrorCode = "EXT_001"
	ErrCodeExtractionFailed     ErrorCode = "EXT_002"
	ErrCodeExtractorNotSet      ErrorCode = "EXT_003"
)

// Retrieval / vector index error codes.
const (
	ErrCodeVectorIndexUnavailable ErrorCode = "IDX_001"
	ErrCodeVectorQueryFailed      ErrorCode = "IDX_002"
	ErrCodeEncoderUnavailable     ErrorCode = "IDX_003"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,

	ErrCodeCatalogRecordNotFound: http.StatusNotFound,
	ErrCodeCatalogQueryFailed:    http.StatusInternalServerError,
	ErrCodeCatalogDumpInvalid:    http.StatusBadRequest,

	ErrCodeExtractionEmptyInput: http.StatusUnprocessableEntity,
	ErrCodeExtractionFailed:     http.StatusBadGateway,
	ErrCodeExtractorNotSet:      http.StatusServiceUnavailable,

	ErrCodeVectorIndexUnavailable: http.StatusServiceUnavailable,
	ErrCodeVectorQueryFailed:      http.StatusInternalServerError,
	ErrCodeEncoderUnavailable:     http.StatusServiceUnavailable,
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode, defaulting
// to 500 for unmapped codes.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// IsClientError returns true if the ErrorCode maps to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

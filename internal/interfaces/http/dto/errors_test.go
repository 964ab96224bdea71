package dto

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	cases := map[string]int{
		ErrCodeInternal:            http.StatusInternalServerError,
		ErrCodeValidation:          http.StatusBadRequest,
		ErrCodeUnauthorized:        http.StatusUnauthorized,
		ErrCodeTokenExpired:        http.StatusUnauthorized,
		ErrCodeForbidden:           http.StatusForbidden,
		ErrCodeNotFound:            http.StatusNotFound,
		ErrCodeAlreadyExists:       http.StatusConflict,
		ErrCodeConcurrencyConflict: http.StatusConflict,
		ErrCodeInvalidState:        http.StatusUnprocessableEntity,
		ErrCodeBusinessRule:        http.StatusUnprocessableEntity,
		ErrCodeInsufficientStock:   http.StatusUnprocessableEntity,
		ErrCodeBadRequest:          http.StatusBadRequest,
		ErrCodeRateLimited:         http.StatusTooManyRequests,
	}

	for code, want := range cases {
		assert.Equal(t, want, GetHTTPStatus(code), "code %s", code)
	}

	// Unknown codes are treated as server faults.
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus("SOMETHING_NEW"))
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(""))
}

func TestEveryErrorCodeHasAStatus(t *testing.T) {
	codes := []string{
		ErrCodeUnknown, ErrCodeInternal,
		ErrCodeValidation, ErrCodeValidationRequired, ErrCodeValidationFormat, ErrCodeValidationRange,
		ErrCodeUnauthorized, ErrCodeForbidden, ErrCodeTokenExpired, ErrCodeTokenInvalid,
		ErrCodeNotFound, ErrCodeAlreadyExists, ErrCodeConflict, ErrCodeConcurrencyConflict,
		ErrCodeInvalidState, ErrCodeBusinessRule, ErrCodeInsufficientStock,
		ErrCodeBadRequest, ErrCodeInvalidInput, ErrCodeInvalidJSON,
		ErrCodeRateLimited,
	}

	for _, code := range codes {
		_, ok := ErrorCodeHTTPStatus[code]
		assert.True(t, ok, "code %s has no status mapping", code)
		assert.True(t, strings.HasPrefix(code, "ERR_"), "code %s misses the ERR_ prefix", code)
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	cases := map[string]string{
		"NOT_FOUND":            ErrCodeNotFound,
		"INVALID_TRANSITION":   ErrCodeInvalidState,
		"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
		"INSUFFICIENT_STOCK":   ErrCodeInsufficientStock,
		"PAYMENT_PENDING":      ErrCodeBusinessRule,
		"FORBIDDEN":            ErrCodeForbidden,
		"TOKEN_MAX_REFRESH":    ErrCodeTokenInvalid,

		// Field-level codes collapse onto invalid input.
		"INVALID_PATIENT":  ErrCodeInvalidInput,
		"INVALID_QUANTITY": ErrCodeInvalidInput,

		// Unknown codes pass through untouched.
		"CUSTOM_CODE": "CUSTOM_CODE",
	}

	for in, want := range cases {
		assert.Equal(t, want, NormalizeErrorCode(in), "input %s", in)
	}
}

func TestNormalizedDomainCodesResolveToAStatus(t *testing.T) {
	// Every domain code an application service can raise must land on a
	// real HTTP status after normalization.
	for domainCode := range DomainErrorCodeMapping {
		normalized := NormalizeErrorCode(domainCode)
		status := GetHTTPStatus(normalized)
		assert.NotEqual(t, 0, status, "domain code %s", domainCode)
	}
}

package services

import (
	"errors"
	"net/http"

	"edu-gen/cmd/api/quota"
)

// ServiceError 는 핸들러가 그대로 응답으로 옮기는 서비스 계층 오류다.
type ServiceError struct {
	StatusCode int
	ErrorCode  string
	Cause      error
}

func (e *ServiceError) Error() string {
	if e == nil {
		return "internal_error"
	}
	if e.Cause != nil {
		return e.ErrorCode + ": " + e.Cause.Error()
	}
	return e.ErrorCode
}

func (e *ServiceError) Unwrap() error { return e.Cause }

// QuotaUsage 는 오류가 한도 초과일 때 그 시점의 사용량을 돌려준다.
func (e *ServiceError) QuotaUsage() (quota.Usage, bool) {
	var qe *quota.QuotaExceededError
	if e != nil && errors.As(e.Cause, &qe) {
		return qe.Usage, true
	}
	return quota.Usage{}, false
}

const (
	CodeInvalidPrompt    = "invalid_prompt"
	CodeInvalidRequest   = "invalid_request"
	CodeQuotaExceeded    = "quota_exceeded"
	CodeQuotaUnavailable = "quota_unavailable"
	CodePublishFailed    = "publish_failed"
	CodeNotFound         = "not_found"
	CodeDraftNotFound    = "draft_not_found"
	CodeAlreadyRequested = "already_requested"
	CodeNotRetryable     = "not_retryable"
	CodeInternal         = "internal_error"
)

func newError(status int, code string, cause error) *ServiceError {
	return &ServiceError{StatusCode: status, ErrorCode: code, Cause: cause}
}

func internalError(cause error) *ServiceError {
	return newError(http.StatusInternalServerError, CodeInternal, cause)
}

func notFoundError(cause error) *ServiceError {
	return newError(http.StatusNotFound, CodeNotFound, cause)
}

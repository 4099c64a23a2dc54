package _responses

import "github.com/t2bot/nzbkit/common"

type ErrorResponse struct {
	Code         string `json:"errcode"`
	Message      string `json:"error"`
	InternalCode string `json:"nzb_errcode"`
}

func InternalServerError(message string) *ErrorResponse {
	return &ErrorResponse{common.ErrCodeUnknown, message, common.ErrCodeUnknown}
}

func MethodNotAllowed() *ErrorResponse {
	return &ErrorResponse{common.ErrCodeUnknown, "Method Not Allowed", common.ErrCodeMethodNotAllowed}
}

func RateLimitReached() *ErrorResponse {
	return &ErrorResponse{common.ErrCodeRateLimitExceeded, "Rate Limited", common.ErrCodeRateLimitExceeded}
}

func NotFoundError() *ErrorResponse {
	return &ErrorResponse{common.ErrCodeNotFound, "Not found", common.ErrCodeNotFound}
}

func FileNotFound(name string) *ErrorResponse {
	return &ErrorResponse{common.ErrCodeNotFound, "File \"" + name + "\" not found in NZB", common.ErrCodeNotFound}
}

func BadRequest(message string) *ErrorResponse {
	return &ErrorResponse{common.ErrCodeUnknown, message, common.ErrCodeBadRequest}
}

func RangeNotSatisfiable() *ErrorResponse {
	return &ErrorResponse{common.ErrCodeRangeNotSatisfiable, "Requested Range Not Satisfiable", common.ErrCodeRangeNotSatisfiable}
}

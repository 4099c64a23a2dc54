package common

const ErrCodeUnknown = "NZB_UNKNOWN"
const ErrCodeNotFound = "NZB_NOT_FOUND"
const ErrCodeBadRequest = "NZB_BAD_REQUEST"
const ErrCodeMethodNotAllowed = "NZB_METHOD_NOT_ALLOWED"
const ErrCodeRangeNotSatisfiable = "NZB_RANGE_NOT_SATISFIABLE"
const ErrCodeRateLimitExceeded = "NZB_LIMIT_EXCEEDED"

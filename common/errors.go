package common

import (
	"errors"
)

var ErrMissingInput = errors.New("missing input")
var ErrFileNotFound = errors.New("file not found in NZB")
var ErrArticleNotFound = errors.New("article not found")
var ErrRangeNotSatisfiable = errors.New("range not satisfiable")
var ErrPostRejected = errors.New("post rejected")
var ErrInvalidGroup = errors.New("invalid group")
var ErrNoArticles = errors.New("no articles found")
var ErrMalformedManifest = errors.New("malformed manifest")
var ErrUnsupportedMethod = errors.New("unsupported check method")

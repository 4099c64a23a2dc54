package nntp

import (
	"errors"
	"io"
	"net"
	"net/textproto"
)

// StatusCode returns the server status carried by err, or 0.
func StatusCode(err error) int {
	var te *textproto.Error
	if errors.As(err, &te) {
		return te.Code
	}
	return 0
}

func IsNotFound(err error) bool {
	code := StatusCode(err)
	return code == StatusNoSuchArticle || code == StatusNoSuchNumber
}

// IsClosed reports whether err means the connection went away.
func IsClosed(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed)
}

// IsAuthFailure reports errors that retrying will not fix.
func IsAuthFailure(err error) bool {
	code := StatusCode(err)
	return code == StatusAuthRejected || code == StatusAuthRequired || code == 482
}

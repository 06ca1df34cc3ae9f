package domain

import "errors"

// Ошибки разбора сообщений.
var (
	// ErrMalformedRequest — тело запроса не является XML-документом.
	ErrMalformedRequest = errors.New("malformed request document")

	// ErrInvalidPayload — FileContent не декодируется из base64.
	ErrInvalidPayload = errors.New("invalid file content encoding")
)

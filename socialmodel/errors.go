package socialmodel

import "errors"

var (
	ErrUnknownProviderKey = errors.New("unknown provider key")
	ErrEmptyAccessToken   = errors.New("empty access token")
)

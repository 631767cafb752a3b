package port

import "errors"

// Sentinel errors used across ports.
var (
	ErrAIUnavailable = errors.New("ai provider not configured")
	ErrNoEmbeddings  = errors.New("embedding service returned no vectors")
	ErrEmptyDocument = errors.New("document contains no extractable text")
)

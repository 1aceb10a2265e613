package utils

import gonanoid "github.com/matoous/go-nanoid/v2"

// Submission IDs appear in URLs, so the alphabet stays alphanumeric.
const (
	idSize     = 21
	idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

func NanoID() string {
	return gonanoid.MustGenerate(idAlphabet, idSize)
}

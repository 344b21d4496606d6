package util

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/pkg/errors"
)

// idAlphabet stays inside the safe key character class, so generated ids
// pass sanitization unchanged.
const (
	idAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz_-"
	idLength   = 10
)

func GenID() (string, error) {
	id, err := gonanoid.Generate(idAlphabet, idLength)
	if err != nil {
		return "", errors.Wrap(err, "generate paste id")
	}
	return id, nil
}

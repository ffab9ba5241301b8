package service

import (
	"crypto/rand"
	"math/big"
	"regexp"
)

var nonDigits = regexp.MustCompile(`\D`)

// randomCode returns a random 6-digit code, zero-padded, digits only.
func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	code := n.String()
	for len(code) < 6 {
		code = "0" + code
	}
	return code, nil
}

// normalizeCode strips formatting characters (spaces, dashes) from a
// user-entered code, leaving digits only.
func normalizeCode(raw string) string {
	return nonDigits.ReplaceAllString(raw, "")
}

// formatCode renders a stored 6-digit code as "XXX XXX" for display.
func formatCode(code string) string {
	if len(code) != 6 {
		return code
	}
	return code[:3] + " " + code[3:]
}

package identity

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/goliatone/go-errors"
)

const verificationTokenBytes = 32

// NewVerificationToken mints an unguessable, URL safe, one-time token for
// email verification links. It carries no claims; it is a lookup key.
func NewVerificationToken() (string, error) {
	buf := make([]byte, verificationTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to generate verification token")
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// GravatarURL derives the default avatar reference for an email. The hash is
// stable per address so re-registration maps to the same image.
func GravatarURL(email string) string {
	normalized := strings.ToLower(strings.TrimSpace(email))
	sum := md5.Sum([]byte(normalized))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%s?d=retro", hex.EncodeToString(sum[:]))
}

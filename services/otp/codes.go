package otp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"math/big"
	"strconv"
	"strings"
	"time"
)

var salt = []byte("ltms.services.otp.codes")

// pendingCode is what is kept of an emailed code: its signature, never the code itself.
type pendingCode struct {
	sig       string
	expiresAt time.Time
	failures  int
}

func randomDigits(n int) (string, error) {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		b.WriteString(d.String())
	}
	return b.String(), nil
}

func (p *Provider) sign(email, code string, expiresAt time.Time) string {
	key := sha256.Sum256(append(append([]byte(nil), salt...), p.secret...))
	h := hmac.New(sha256.New, key[:])
	_, _ = h.Write([]byte(email))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(code))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(strconv.FormatInt(expiresAt.UnixNano(), 10)))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

// check compares code to the pending one in constant time.
func (p *Provider) check(email, code string, pc pendingCode) bool {
	return subtle.ConstantTimeCompare([]byte(p.sign(email, code, pc.expiresAt)), []byte(pc.sig)) == 1
}

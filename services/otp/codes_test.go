package otp

import (
	"testing"
	"time"
)

func TestCheckCode(t *testing.T) {
	p := &Provider{secret: []byte("secret")}
	other := &Provider{secret: []byte("other")}
	exp := time.Date(2024, 3, 1, 9, 10, 0, 0, time.UTC)
	pc := pendingCode{sig: p.sign("t@test.test", "123456", exp), expiresAt: exp}

	tests := []struct {
		name     string
		provider *Provider
		email    string
		code     string
		pc       pendingCode
		want     bool
	}{
		{name: "valid code", provider: p, email: "t@test.test", code: "123456", pc: pc, want: true},
		{name: "wrong code", provider: p, email: "t@test.test", code: "123457", pc: pc},
		{name: "no code", provider: p, email: "t@test.test", pc: pc},
		{name: "other email", provider: p, email: "u@test.test", code: "123456", pc: pc},
		{name: "other secret", provider: other, email: "t@test.test", code: "123456", pc: pc},
		{name: "tampered expiry", provider: p, email: "t@test.test", code: "123456", pc: pendingCode{sig: pc.sig, expiresAt: exp.Add(time.Hour)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.provider.check(tt.email, tt.code, tt.pc); got != tt.want {
				t.Errorf("check() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRandomDigits(t *testing.T) {
	for _, n := range []int{4, 6, 8} {
		code, err := randomDigits(n)
		if err != nil {
			t.Fatal(err)
		}
		if len(code) != n {
			t.Errorf("randomDigits(%d) = %q", n, code)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Errorf("randomDigits(%d) = %q, want digits only", n, code)
			}
		}
	}
}

package core

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	NowFunc = time.Now // mockable
	NewID   = func() string { return uuid.NewString() } // mockable

	titleCaser = cases.Title(language.English)
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// Now returns the current UTC time truncated to milliseconds, the precision of the wire format.
func Now() time.Time {
	return NowFunc().UTC().Truncate(time.Millisecond)
}

// DisplayName turns an enum value such as "intermediate" into "Intermediate".
func DisplayName(value string) string {
	return titleCaser.String(value)
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

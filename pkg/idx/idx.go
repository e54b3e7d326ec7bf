// Package idx generates the ULIDs used for user ids, token jti values, audit
// events and request ids. They sort by creation time, so an audit listing
// ordered by id is also ordered by time.
package idx

import (
	"crypto/rand"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ErrInvalid reports a malformed ULID string.
var ErrInvalid = errors.New("idx: invalid ulid")

var (
	mu      sync.Mutex
	entropy io.Reader = ulid.Monotonic(rand.Reader, 0)
)

// NewString returns a new id for the current UTC time.
func NewString() string {
	return NewAt(time.Now())
}

// NewAt returns a new id stamped with t. Ids minted for the same millisecond
// still increase monotonically.
func NewAt(t time.Time) string {
	mu.Lock()
	defer mu.Unlock()

	return ulid.MustNew(ulid.Timestamp(t.UTC()), entropy).String()
}

// Valid reports whether s is a well formed id. Callers use it to reject
// garbage path parameters before touching the store.
func Valid(s string) bool {
	_, err := Time(s)
	return err == nil
}

// Time returns the creation time embedded in s.
func Time(s string) (time.Time, error) {
	u, err := ulid.ParseStrict(strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, ErrInvalid
	}
	return ulid.Time(u.Time()).UTC(), nil
}

package application

import "time"

// Clock interface supaya gampang ditest
type Clock interface {
	Now() time.Time
}

// SystemClock returns wall-clock time in UTC so stored timestamps agree
// across MySQL, Postgres and the memory store.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

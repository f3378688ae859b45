package helper

import "time"

// Clock: sumber waktu yang di-inject ke service, bukan time.Now() langsung,
// supaya logika expiry/extend bisa dites deterministik.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

// RealClock: implementasi default (UTC).
func RealClock() Clock { return realClock{} }

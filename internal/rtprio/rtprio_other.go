//go:build !linux

package rtprio

import "fmt"

// Promote is the portable fallback: real-time scheduling promotion is not
// implemented outside Linux here, so it always reports failure and callers
// continue at normal priority, per spec §5.
func Promote(priority int) error {
	return fmt.Errorf("rtprio: real-time priority promotion not implemented on this platform")
}

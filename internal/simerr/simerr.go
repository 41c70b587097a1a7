// Package simerr defines the error kinds shared by the simulation engine.
//
// Every error returned by the engine wraps exactly one of the sentinels below,
// so callers can branch with errors.Is without parsing messages.
package simerr

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration reports a bad team count, duplicate ids, an
	// unresolvable promotion/relegation slot mismatch or similar caller defects.
	ErrConfiguration = errors.New("configuration error")

	// ErrState reports an attempt to mutate engine state in an invalid way,
	// such as resolving a fixture twice or applying a result for an unknown team.
	ErrState = errors.New("state error")

	// ErrLookup reports a request for a team, round or row that does not exist.
	ErrLookup = errors.New("lookup error")
)

// Configf returns an error wrapping ErrConfiguration.
func Configf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// Statef returns an error wrapping ErrState.
func Statef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrState, fmt.Sprintf(format, args...))
}

// Lookupf returns an error wrapping ErrLookup.
func Lookupf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrLookup, fmt.Sprintf(format, args...))
}

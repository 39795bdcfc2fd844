package testutil

import "fmt"

// SeqIDs returns a generator of stable sequential tokens ("slug-0001",
// "slug-0002", ...). It stands in for the UUIDv7 generators on playback
// sessions and build jobs so ids in assertions and golden traces stay
// byte-identical across runs.
//
// The generator is not safe for concurrent use; session and job ids are
// minted from the control loop only.
func SeqIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%04d", prefix, n)
	}
}

// FixedID returns a generator that always yields the same token, for
// scenarios where every line should correlate to one id. An empty token
// falls back to "test-id-fixed".
func FixedID(token string) func() string {
	if token == "" {
		token = "test-id-fixed"
	}
	return func() string { return token }
}

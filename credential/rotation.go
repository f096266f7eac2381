package credential

// Rotator hands out credentials round-robin.
type Rotator interface {
	// Len returns the number of credentials in rotation.
	Len() int

	// Next advances the cursor with wraparound and returns the credential
	// under it. It returns false when there are no credentials.
	Next() (string, bool)

	// Reset returns the cursor to its unset position so the next call to
	// Next yields the first credential.
	Reset()
}

// Rotation is a private rotation over a fixed credential snapshot.
// It is meant for a single operation and is not safe for concurrent use.
type Rotation struct {
	creds  []string
	cursor int
}

// NewRotation creates a rotation starting before the first credential.
func NewRotation(creds []string) *Rotation {
	return &Rotation{creds: append([]string(nil), creds...), cursor: -1}
}

// Len returns the number of credentials.
func (r *Rotation) Len() int { return len(r.creds) }

// Next advances the cursor and returns the credential under it.
func (r *Rotation) Next() (string, bool) {
	if len(r.creds) == 0 {
		return "", false
	}
	r.cursor = advance(r.cursor, len(r.creds))
	return r.creds[r.cursor], true
}

// Reset sets the cursor back to unset.
func (r *Rotation) Reset() { r.cursor = -1 }

func advance(cursor, n int) int {
	if cursor < -1 {
		cursor = -1
	}
	return (cursor + 1) % n
}

var (
	_ Rotator = (*Rotation)(nil)
	_ Rotator = (*Store)(nil)
)

package credential

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

// Across n*cycles selections each credential is picked exactly cycles
// times, in cyclic order from the credential after the last one used.
func TestRoundRobinProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(t, "n")
		cycles := rapid.IntRange(1, 4).Draw(t, "cycles")
		warmup := rapid.IntRange(0, 10).Draw(t, "warmup")

		keys := make([]string, n)
		for i := range keys {
			keys[i] = fmt.Sprintf("key-%d", i)
		}
		s := Load(context.Background(), strings.Join(keys, ","), nil, nil)

		for i := 0; i < warmup; i++ {
			s.Next()
		}
		start := (s.Cursor() + 1) % n

		counts := make(map[string]int)
		for i := 0; i < n*cycles; i++ {
			k, ok := s.Next()
			if !ok {
				t.Fatalf("no credential at selection %d", i)
			}
			if want := keys[(start+i)%n]; k != want {
				t.Fatalf("selection %d: got %s, want %s", i, k, want)
			}
			counts[k]++
		}
		for _, k := range keys {
			if counts[k] != cycles {
				t.Fatalf("%s selected %d times, want %d", k, counts[k], cycles)
			}
		}
	})
}

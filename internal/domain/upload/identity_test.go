package upload

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveIDLayout(t *testing.T) {
	sum := sha256.Sum256([]byte("abc-x.png-100"))
	want := "upld-u1-" + hex.EncodeToString(sum[:])

	assert.Equal(t, want, ResolveID("u1", "abc", "x.png", 100))
}

func TestResolveIDDeterministic(t *testing.T) {
	a := ResolveID("user-7", "d41d8cd98f00b204", "report.pdf", 2048)
	b := ResolveID("user-7", "d41d8cd98f00b204", "report.pdf", 2048)
	assert.Equal(t, a, b)
}

func TestResolveIDChangesWithEachInput(t *testing.T) {
	base := ResolveID("u1", "abc", "x.png", 100)

	variants := map[string]string{
		"user":      ResolveID("u2", "abc", "x.png", 100),
		"file id":   ResolveID("u1", "abd", "x.png", 100),
		"file name": ResolveID("u1", "abc", "y.png", 100),
		"file size": ResolveID("u1", "abc", "x.png", 200),
	}
	for name, id := range variants {
		assert.NotEqual(t, base, id, name)
	}
}

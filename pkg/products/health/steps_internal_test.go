package health

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLower(t *testing.T) {
	for in, want := range map[string]string{
		"":       "",
		"Spouse": "spouse",
		"Émilie": "émilie",
		"ÅSA":    "åSA",
		"kid":    "kid",
	} {
		assert.Equal(t, want, lower(in), in)
	}
}

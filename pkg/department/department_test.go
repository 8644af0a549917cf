package department

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"  Computer   Science ": "computer science",
		"CS":                    "computer science",
		"theatre":               "theater",
		"Poli  Sci":             "political science",
		"Marine Biology":        "marine biology",
		"   ":                   "",
	}
	for raw, want := range cases {
		assert.Equal(t, want, Normalize(raw), raw)
	}
}

func TestKnownAndOptions(t *testing.T) {
	assert.True(t, IsKnown("EE"))
	assert.False(t, IsKnown("alchemy"))
	assert.Equal(t, "Computer Science", Label("computer science"))

	options := Options()
	assert.Len(t, options, len(canonical))
	assert.Equal(t, Option{Value: "accounting", Label: "Accounting"}, options[0])
}

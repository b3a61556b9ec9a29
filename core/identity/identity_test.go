package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDerive_CaseInsensitive(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
	}{
		{name: "simple ascii", a: "Hello World", b: "hello world"},
		{name: "all caps", a: "YOU DO NOT RISE TO THE LEVEL OF YOUR GOALS", b: "you do not rise to the level of your goals"},
		{name: "mixed case", a: "ThE PrAgMaTiC PrOgRaMmEr", b: "the pragmatic programmer"},
		{name: "unicode", a: "Über Die Freiheit", b: "über die freiheit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, Derive(tt.a), Derive(tt.b))
		})
	}
}

func TestDerive_Deterministic(t *testing.T) {
	text := "We are what we repeatedly do. Excellence, then, is not an act, but a habit."

	first := Derive(text)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, Derive(text))
	}
}

func TestDerive_FixedWidth(t *testing.T) {
	inputs := []string{"", "a", "short", "a considerably longer highlight text that spans more bytes than the others"}

	for _, in := range inputs {
		assert.Len(t, Derive(in), TokenLength)
	}
}

func TestDerive_DistinctInputs(t *testing.T) {
	assert.NotEqual(t, Derive("first highlight"), Derive("second highlight"))
	assert.NotEqual(t, Derive("abc"), Derive("acb"), "order of bytes must matter")
}

package language

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfiles(t *testing.T) {
	ps := Profiles()
	require.Len(t, ps, 3)
	assert.Equal(t, []string{English, Tamil, Sinhala}, []string{ps[0].Code, ps[1].Code, ps[2].Code})
	assert.Equal(t, "தமிழ்", ps[1].Label)
	assert.Equal(t, "Sinhala (Sri Lanka)", ps[2].Name)

	// Mutating the returned slice must not affect the table.
	ps[0].Code = "xx"
	assert.Equal(t, English, Profiles()[0].Code)
}

func TestLookup(t *testing.T) {
	p, ok := Lookup("ta-in")
	require.True(t, ok)
	assert.Equal(t, Tamil, p.Code)
	assert.Equal(t, "ta", p.Base())

	_, ok = Lookup("fr-FR")
	assert.False(t, ok)
}

func TestResolve(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"en-US", English},
		{"ta-IN", Tamil},
		{"si-LK", Sinhala},
		{"ta", Tamil},
		{"ta-LK", Tamil},
		{"si", Sinhala},
		{"en-GB", English},
		{"fr-FR", English},
		{"", English},
		{"!!not a tag", English},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.code).Code)
		})
	}
}

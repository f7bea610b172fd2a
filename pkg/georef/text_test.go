package georef

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFoldName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Córdoba", "cordoba"},
		{"  NEUQUÉN ", "neuquen"},
		{"Tafí  Viejo", "tafi viejo"},
		{"Añatuya", "anatuya"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FoldName(tt.in), tt.in)
	}
}

func TestMatchesName(t *testing.T) {
	assert.True(t, matchesName("Río Cuarto", "rio"))
	assert.True(t, matchesName("Río Cuarto", "CUARTO"))
	assert.True(t, matchesName("Río Cuarto", ""))
	assert.False(t, matchesName("Río Cuarto", "tercero"))
}

func TestSortByName_Spanish(t *testing.T) {
	names := []string{"Zárate", "Ñandú", "Nogoyá", "Ángel", "Azul"}
	sortByName(names, func(s string) string { return s })
	assert.Equal(t, []string{"Ángel", "Azul", "Nogoyá", "Ñandú", "Zárate"}, names)
}

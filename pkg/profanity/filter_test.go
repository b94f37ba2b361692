package profanity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchBlocksInsult(t *testing.T) {
	term, ok := New().Match("sos un boludo")
	assert.True(t, ok)
	assert.Equal(t, "boludo", term)
}

func TestMatchIgnoresAccentsAndCase(t *testing.T) {
	_, ok := New().Match("Qué IMBÉCIL el que armó el parcial")
	assert.True(t, ok)

	_, ok = New().Match("Hijo   de\tputa")
	assert.True(t, ok)
}

func TestMatchAllowsAcademicText(t *testing.T) {
	cases := []string{
		"Computación y control automático, muy buena cátedra",
		"El final de Análisis Matemático tiene integrales dobles",
		"",
	}
	f := New()
	for _, text := range cases {
		_, ok := f.Match(text)
		assert.False(t, ok, text)
	}
}

func TestExtraTerms(t *testing.T) {
	f := New("Spoiler")
	term, ok := f.Match("esto es un spoiler del final")
	assert.True(t, ok)
	assert.Equal(t, "spoiler", term)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "analisis matematico i", Normalize("  Análisis   Matemático I "))
}

package quizbank

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	bank, err := Default()
	require.NoError(t, err)
	require.Equal(t, 5, bank.Len())

	first := bank.At(0)
	assert.Equal(t, "What is the most important nutrient for bone health?", first.Prompt)
	assert.Equal(t, []string{"Calcium", "Protein", "Carbohydrates", "Fat"}, first.Options)

	correct := []string{"Calcium", "Vitamin C", "Body Mass Index", "0.8g per kg body weight", "Salmon"}
	for i, answer := range correct {
		assert.True(t, bank.IsCorrect(i, answer), "question %d", i+1)
	}
	assert.False(t, bank.IsCorrect(0, "calcium"))
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
questions:
  - prompt: Is water wet?
    options: ["Yes", "No"]
    correct: "Yes"
`), 0o600))

	bank, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, bank.Len())
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not yaml", "questions: [unclosed"},
		{"empty", "questions: []"},
		{"single option", "questions:\n  - prompt: Q\n    options: [A]\n    correct: A\n"},
		{"correct missing from options", "questions:\n  - prompt: Q\n    options: [A, B]\n    correct: C\n"},
		{"duplicate options", "questions:\n  - prompt: Q\n    options: [A, A]\n    correct: A\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

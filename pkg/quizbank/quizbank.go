package quizbank

import (
	_ "embed"
	"fmt"
	"os"

	"food-expose-backend/internal/domain"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultBank []byte

type file struct {
	Questions []domain.Question `yaml:"questions" validate:"required,min=1,dive"`
}

// Default returns the built-in five question bank.
func Default() (*domain.QuestionBank, error) {
	return Parse(defaultBank)
}

// Load reads a bank from path, or the built-in bank when path is empty.
func Load(path string) (*domain.QuestionBank, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML question bank.
func Parse(data []byte) (*domain.QuestionBank, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse question bank: %w", err)
	}

	if err := validator.New().Struct(&f); err != nil {
		return nil, fmt.Errorf("invalid question bank: %w", err)
	}

	return domain.NewQuestionBank(f.Questions)
}

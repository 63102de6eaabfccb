package file

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/kurator/internal/core/domain"
)

// datasetFile accepts either a bare list or a "questions" key.
type datasetFile struct {
	Questions []domain.EvalQuestion `yaml:"questions"`
}

// DefaultDataset is the built-in evaluation set.
func DefaultDataset() []domain.EvalQuestion {
	return []domain.EvalQuestion{
		{ID: "Q1", Question: "What is the horsepower of the Porsche 911 Turbo S?", ExpectedKeywords: []string{"turbo s", "640", "653", "701"}},
		{ID: "Q2", Question: "When was the Porsche 911 (992 generation) introduced?", ExpectedKeywords: []string{"992", "2018", "2019"}},
		{ID: "Q3", Question: "What engine is used in the Porsche 911 Carrera?", ExpectedKeywords: []string{"twin-turbo flat-six", "boxer", "flat-6"}},
		{ID: "Q4", Question: "What is the top speed of the Porsche 911 GT3?", ExpectedKeywords: []string{"193", "311"}},
	}
}

// LoadDataset reads evaluation questions from a YAML file. Items without an
// id are numbered from Q1. Items without a question or any expected keyword
// are rejected.
func LoadDataset(path string) ([]domain.EvalQuestion, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: dataset %s", domain.ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}

	var questions []domain.EvalQuestion
	if err := yaml.Unmarshal(data, &questions); err != nil {
		var wrapped datasetFile
		if err2 := yaml.Unmarshal(data, &wrapped); err2 != nil {
			return nil, fmt.Errorf("%w: dataset %s: %v", domain.ErrInvalidInput, path, err)
		}
		questions = wrapped.Questions
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: dataset %s has no questions", domain.ErrInvalidInput, path)
	}

	for i := range questions {
		q := &questions[i]
		q.Question = strings.TrimSpace(q.Question)
		if q.ID == "" {
			q.ID = "Q" + strconv.Itoa(i+1)
		}
		if q.Question == "" || len(q.ExpectedKeywords) == 0 {
			return nil, fmt.Errorf("%w: dataset item %s needs a question and expected_keywords", domain.ErrInvalidInput, q.ID)
		}
	}
	return questions, nil
}

// Datasets loads evaluation datasets by path.
type Datasets struct{}

// Load reads the dataset at path. An empty path returns DefaultDataset.
func (Datasets) Load(path string) ([]domain.EvalQuestion, error) {
	if path == "" {
		return DefaultDataset(), nil
	}
	return LoadDataset(path)
}

package operations

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"

	apperrors "b3data/internal/errors"
)

// Step actions understood by the default registry.
const (
	ActionLoad      = "load"
	ActionStack     = "stack"
	ActionUnstack   = "unstack"
	ActionFilter    = "filter"
	ActionAggregate = "aggregate"
	ActionSave      = "save"
)

// Recipe is an ordered list of steps read from YAML:
//
//	name: capacities
//	steps:
//	  - {id: scalars, action: load, in: scalars.csv}
//	  - {id: base, action: filter, key: scenario, values: [base]}
//	  - {id: by_region, action: aggregate, key: region}
//	  - {id: write, action: save, out: capacities.csv}
type Recipe struct {
	Name  string       `yaml:"name"`
	Steps []StepConfig `yaml:"steps" validate:"required,min=1,dive"`
}

// StepConfig configures one step. From names the step whose table is the
// input; empty means the previous step.
type StepConfig struct {
	ID     string   `yaml:"id" validate:"required"`
	Action string   `yaml:"action" validate:"required"`
	In     string   `yaml:"in"`
	From   string   `yaml:"from"`
	Kind   string   `yaml:"kind"`
	Key    string   `yaml:"key"`
	Values []string `yaml:"values"`
	Out    string   `yaml:"out"`
}

// ParseRecipe decodes and checks a recipe. Unknown keys are errors, as are
// duplicate step ids and references to steps that come later.
func ParseRecipe(data []byte) (*Recipe, error) {
	var r Recipe
	if err := yaml.UnmarshalStrict(data, &r); err != nil {
		return nil, apperrors.NewParsingError("invalid recipe", err)
	}
	if err := validator.New().Struct(&r); err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrTypeValidation, "invalid recipe", err)
	}

	seen := make(map[string]bool, len(r.Steps))
	for _, step := range r.Steps {
		if seen[step.ID] {
			return nil, apperrors.NewAppValidationError(fmt.Sprintf("duplicate step id %q", step.ID))
		}
		if step.From != "" && !seen[step.From] {
			return nil, apperrors.NewAppValidationError(
				fmt.Sprintf("step %q reads from %q, which is not an earlier step", step.ID, step.From))
		}
		seen[step.ID] = true
	}
	return &r, nil
}

// LoadRecipe reads and parses the recipe file at path.
func LoadRecipe(path string) (*Recipe, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("recipe %s", path))
	}
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read recipe", err).WithContext("path", path)
	}
	r, err := ParseRecipe(data)
	if err != nil {
		return nil, err
	}
	if r.Name == "" {
		r.Name = path
	}
	return r, nil
}

package planner

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/operator-framework/fsplan/internal/novelty"
)

// Config is the configuration surface of a planner.
type Config struct {
	Algorithm       string `yaml:"algorithm" validate:"oneof=bfs gbfs iw bfws"`
	MaxNoveltyWidth int    `yaml:"maxNoveltyWidth" validate:"min=1"`
	// IgnoreNegativeLiterals keeps the false value of predicative
	// variables out of novelty tables.
	IgnoreNegativeLiterals bool `yaml:"ignoreNegativeLiterals"`
	// UseExtraFeatures adds auxiliary features to novelty valuations,
	// which rules out the specialised atom tables.
	UseExtraFeatures bool          `yaml:"useExtraFeatures"`
	EvaluationPolicy string        `yaml:"evaluationPolicy" validate:"oneof=eager delayed"`
	Heuristic        string        `yaml:"heuristic" validate:"oneof=hff hmax"`
	Timeout          time.Duration `yaml:"timeout" validate:"min=0"`
	MemoryBudgetKB   uint64        `yaml:"memoryBudgetKB"`
	// NoveltyTableBudget is the largest size, in bytes, of the
	// specialised width-1/2 novelty tables.
	NoveltyTableBudget      int64 `yaml:"noveltyTableBudget" validate:"min=0"`
	ValidatePlans           bool  `yaml:"validatePlans"`
	PartitionNoveltyByGoals bool  `yaml:"partitionNoveltyByGoals"`
}

func DefaultConfig() Config {
	return Config{
		Algorithm:               "bfws",
		MaxNoveltyWidth:         2,
		EvaluationPolicy:        "eager",
		Heuristic:               "hff",
		NoveltyTableBudget:      novelty.DefaultTableBudget,
		ValidatePlans:           true,
		PartitionNoveltyByGoals: true,
	}
}

// ConfigurationError is returned for configurations that cannot be
// run.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("yaml"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return v
}

// Validate reports the first invalid field of c as a
// ConfigurationError.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	reason := fmt.Sprintf("%v does not satisfy %s", fe.Value(), fe.Tag())
	if fe.Param() != "" {
		reason = fmt.Sprintf("%v does not satisfy %s=%s", fe.Value(), fe.Tag(), fe.Param())
	}
	return ConfigurationError{Field: fe.Field(), Reason: reason}
}

// LoadConfig reads a YAML configuration on top of DefaultConfig.
// Unknown fields are rejected.
func LoadConfig(r io.Reader) (Config, error) {
	c := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

package schemas

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

const assessmentSchemaName = "match_assessment.schema.json"

//go:embed match_assessment.schema.json
var assessmentSchemaJSON []byte

var (
	assessmentSchemaOnce sync.Once
	assessmentSchema     *gojsonschema.Schema
	assessmentSchemaErr  error
)

func loadAssessmentSchema() (*gojsonschema.Schema, error) {
	assessmentSchemaOnce.Do(func() {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(assessmentSchemaJSON))
		if err != nil {
			assessmentSchemaErr = &SchemaLoadError{
				Path:    assessmentSchemaName,
				Message: "invalid embedded schema",
				Cause:   err,
			}
			return
		}
		assessmentSchema = schema
	})
	return assessmentSchema, assessmentSchemaErr
}

// ValidateAssessment checks any MatchAssessment-shaped value against the
// closed enumerations and non-emptiness rules. v may be a types.MatchAssessment
// (live time.Time timestamp), a types.HistoryRecord (string timestamp), or a
// decoded map.
func ValidateAssessment(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal assessment for validation: %w", err)
	}
	return validateAssessmentJSON(data)
}

// validateAssessmentJSON validates serialized assessment JSON
func validateAssessmentJSON(data []byte) error {
	schema, err := loadAssessmentSchema()
	if err != nil {
		return err
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("failed to load assessment document: %w", err)
	}
	return toValidationError(result)
}

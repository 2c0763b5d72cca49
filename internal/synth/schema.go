package synth

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	_ "embed"

	"github.com/mohammad-safakhou/newsrag/internal/helpers"
	"github.com/mohammad-safakhou/newsrag/models"
	"github.com/mohammad-safakhou/newsrag/provider"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed answer_schema.json
var answerSchemaJSON string

const (
	answerSchemaName = "structured_answer"
	// answerSchemaURL is fixed so validation errors never carry a filesystem path.
	answerSchemaURL = "mem://newsrag/answer_schema.json"
)

var (
	compileOnce  sync.Once
	answerSchema *jsonschema.Schema
	compileErr   error
)

// AnswerSchema returns the compiled JSON Schema for StructuredAnswer documents.
func AnswerSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(answerSchemaURL, strings.NewReader(answerSchemaJSON)); err != nil {
			compileErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		schema, err := compiler.Compile(answerSchemaURL)
		if err != nil {
			compileErr = fmt.Errorf("compile answer schema: %w", err)
			return
		}
		answerSchema = schema
	})
	return answerSchema, compileErr
}

// ResponseFormat is the structured-output constraint sent with every generation request.
func ResponseFormat() *provider.ResponseSchema {
	return &provider.ResponseSchema{
		Name:   answerSchemaName,
		Schema: json.RawMessage(answerSchemaJSON),
		Strict: true,
	}
}

// ParseAnswer extracts the JSON object from raw model output and validates it
// against the answer schema. Every failure is a *models.GenerationParseError.
func ParseAnswer(raw string) (*models.StructuredAnswer, error) {
	fail := func(err error) (*models.StructuredAnswer, error) {
		return nil, &models.GenerationParseError{Raw: raw, Err: err}
	}

	body, err := helpers.ExtractJSON(raw)
	if err != nil {
		return fail(err)
	}
	schema, err := AnswerSchema()
	if err != nil {
		return fail(err)
	}
	var doc interface{}
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return fail(fmt.Errorf("answer is not valid JSON: %w", err))
	}
	if err := schema.Validate(doc); err != nil {
		return fail(err)
	}
	var answer models.StructuredAnswer
	if err := json.Unmarshal([]byte(body), &answer); err != nil {
		return fail(err)
	}
	return &answer, nil
}

package mapping

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.yaml.in/yaml/v3"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/danielolaszy/triage/pkg/models"
)

//go:embed schema/label-mapping.schema.json
var schemaBytes []byte

var (
	compiledSchema *jsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
	printer        = message.NewPrinter(language.English)
)

// ImportResult reports an import. Success is false only when the document
// itself could not be read; entries that fail validation are listed in Errors
// while the valid ones are still applied.
type ImportResult struct {
	Success  bool     `json:"success"`
	Imported int      `json:"imported"`
	Rejected int      `json:"rejected"`
	Errors   []string `json:"errors,omitempty"`
	Error    string   `json:"error,omitempty"`
}

func getSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
		if err != nil {
			compileErr = fmt.Errorf("unmarshaling schema JSON: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		if err := c.AddResource("label-mapping.schema.json", doc); err != nil {
			compileErr = fmt.Errorf("adding schema resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile("label-mapping.schema.json")
		if compileErr != nil {
			compileErr = fmt.Errorf("compiling schema: %w", compileErr)
		}
	})
	return compiledSchema, compileErr
}

// Export serializes the custom mappings as a JSON array sorted by label.
func (r *Registry) Export() ([]byte, error) {
	data, err := json.MarshalIndent(r.CustomMappings(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling mappings: %w", err)
	}
	return data, nil
}

// Import reads a JSON array of mappings and adds each valid entry as a custom
// mapping. Import is not atomic: valid entries are applied even when others
// are rejected.
func (r *Registry) Import(data []byte) ImportResult {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return ImportResult{Error: fmt.Sprintf("invalid JSON: %v", err)}
	}
	return r.importDocument(doc)
}

// ImportYAML is Import for a YAML sequence of mappings.
func (r *Registry) ImportYAML(data []byte) ImportResult {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return ImportResult{Error: fmt.Sprintf("invalid YAML: %v", err)}
	}
	jsonData, err := json.Marshal(raw)
	if err != nil {
		return ImportResult{Error: fmt.Sprintf("converting YAML to JSON: %v", err)}
	}
	return r.Import(jsonData)
}

func (r *Registry) importDocument(doc any) ImportResult {
	entries, ok := doc.([]any)
	if !ok {
		return ImportResult{Error: "expected a JSON array of mappings"}
	}

	schema, err := getSchema()
	if err != nil {
		return ImportResult{Error: fmt.Sprintf("loading schema: %v", err)}
	}

	result := ImportResult{Success: true}
	for i, entry := range entries {
		if err := schema.Validate(entry); err != nil {
			result.Rejected++
			result.Errors = append(result.Errors, fmt.Sprintf("entry %d: %s", i, describeSchemaError(err)))
			continue
		}

		m, err := decodeEntry(entry)
		if err == nil {
			err = r.AddCustomMapping(m)
		}
		if err != nil {
			result.Rejected++
			result.Errors = append(result.Errors, fmt.Sprintf("entry %d: %v", i, err))
			continue
		}
		result.Imported++
	}

	r.logger.Info("imported custom mappings",
		"imported", result.Imported,
		"rejected", result.Rejected)
	return result
}

func decodeEntry(entry any) (models.LabelMapping, error) {
	raw, err := json.Marshal(entry)
	if err != nil {
		return models.LabelMapping{}, err
	}
	var m models.LabelMapping
	if err := json.Unmarshal(raw, &m); err != nil {
		return models.LabelMapping{}, err
	}
	return m, nil
}

// describeSchemaError flattens a validation error tree into its leaf messages.
func describeSchemaError(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}

	var msgs []string
	collectMessages(ve, &msgs)
	if len(msgs) == 0 {
		return ve.Error()
	}
	return strings.Join(msgs, "; ")
}

func collectMessages(ve *jsonschema.ValidationError, msgs *[]string) {
	if len(ve.Causes) == 0 {
		if ve.ErrorKind == nil {
			return
		}
		msg := ve.ErrorKind.LocalizedString(printer)
		if len(ve.InstanceLocation) > 0 {
			msg = "/" + strings.Join(ve.InstanceLocation, "/") + ": " + msg
		}
		*msgs = append(*msgs, msg)
		return
	}
	for _, cause := range ve.Causes {
		collectMessages(cause, msgs)
	}
}

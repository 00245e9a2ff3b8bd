package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	invschema "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"portsim/internal/sim/world"
)

const schemaURL = "portsim://save.schema.json"

var amountType = reflect.TypeOf(world.Amount{})

// Schema reflects the JSON schema of Payload from the Go types. Amounts are
// non-negative decimal strings.
func Schema() *invschema.Schema {
	r := invschema.Reflector{
		DoNotReference: true,
		Mapper: func(t reflect.Type) *invschema.Schema {
			if t == amountType {
				return &invschema.Schema{Type: "string", Pattern: "^[0-9]+$"}
			}
			return nil
		},
	}
	s := r.Reflect(&Payload{})
	s.Title = "portsim save"
	return s
}

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		b, err := json.Marshal(Schema())
		if err != nil {
			compileErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, bytes.NewReader(b)); err != nil {
			compileErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiled, compileErr = c.Compile(schemaURL)
	})
	return compiled, compileErr
}

// Validate checks raw against the payload schema.
func Validate(raw []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	return nil
}

package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"portsim/internal/protocol"
	"portsim/internal/sim/world"
)

func compile(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	p := filepath.Join("..", "..", "schemas", name)
	s, err := jsonschema.Compile(p)
	if err != nil {
		t.Fatalf("compile %s: %v", name, err)
	}
	return s
}

// roundTrip marshals v and decodes it back into a generic value for validation.
func roundTrip(t *testing.T, v any) any {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return out
}

func TestSchemas_ValidateSamples(t *testing.T) {
	validate := func(s *jsonschema.Schema, v any) {
		t.Helper()
		if err := s.Validate(v); err != nil {
			t.Fatalf("validate: %v", err)
		}
	}

	var hello any
	_ = json.Unmarshal([]byte(`{
	  "type":"HELLO",
	  "protocol_version":"1.0",
	  "client_name":"bot1",
	  "status_every_ms":1000
	}`), &hello)
	validate(compile(t, "hello.schema.json"), hello)

	var cmd any
	_ = json.Unmarshal([]byte(`{
	  "type":"COMMAND",
	  "protocol_version":"1.0",
	  "req_id":"r1",
	  "kind":"place_contract",
	  "payload":{"port_id":"port_royal","commodity_id":"rum","qty":8,"bid_price":1}
	}`), &cmd)
	validate(compile(t, "command.schema.json"), cmd)

	title := world.NewState()
	validate(compile(t, "status.schema.json"), roundTrip(t, protocol.NewStatus(title)))

	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		StepMs:          100,
		CommandKinds:    world.CommandKinds(),
		Status:          protocol.NewStatus(title),
	}
	validate(compile(t, "welcome.schema.json"), roundTrip(t, welcome))

	ack := protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		AckFor:          "r1",
		Code:            protocol.ErrRejected,
		SimNowMs:        500,
	}
	validate(compile(t, "ack.schema.json"), roundTrip(t, ack))

	validate(compile(t, "error.schema.json"), roundTrip(t, protocol.NewError(protocol.ErrRateLimit, "slow down", "r2")))
}

func TestSchemas_RejectBadCommands(t *testing.T) {
	s := compile(t, "command.schema.json")
	for name, raw := range map[string]string{
		"missing req_id": `{"type":"COMMAND","protocol_version":"1.0","kind":"dock_work"}`,
		"wrong type":     `{"type":"ACT","protocol_version":"1.0","req_id":"a","kind":"dock_work"}`,
		"upper kind":     `{"type":"COMMAND","protocol_version":"1.0","req_id":"a","kind":"DOCK_WORK"}`,
		"extra field":    `{"type":"COMMAND","protocol_version":"1.0","req_id":"a","kind":"dock_work","tick":3}`,
	} {
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if err := s.Validate(v); err == nil {
			t.Fatalf("%s: expected rejection", name)
		}
	}
}

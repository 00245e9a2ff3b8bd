package protocol

import (
	"encoding/json"

	"portsim/internal/sim/world"
)

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name"`
	// StatusEveryMs asks for periodic STATUS pushes; zero keeps the server default.
	StatusEveryMs int64 `json:"status_every_ms,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string    `json:"type"`
	ProtocolVersion string    `json:"protocol_version"`
	StepMs          int64     `json:"step_ms"`
	CommandKinds    []string  `json:"command_kinds"`
	Status          StatusMsg `json:"status"`
}

// COMMAND (client -> server). ReqID is echoed in the ACK.
type CommandMsg struct {
	Type            string          `json:"type"`
	ProtocolVersion string          `json:"protocol_version"`
	ReqID           string          `json:"req_id"`
	Kind            string          `json:"kind"`
	Payload         json.RawMessage `json:"payload,omitempty"`
}

func (m CommandMsg) Envelope() world.CommandEnvelope {
	return world.CommandEnvelope{Kind: m.Kind, Payload: m.Payload}
}

// ACK (server -> client). Accepted is false when the command was a no-op;
// Code then says why.
type AckMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	AckFor          string `json:"ack_for"`
	Accepted        bool   `json:"accepted"`
	Code            string `json:"code,omitempty"`
	Seq             uint64 `json:"seq,omitempty"`
	SimNowMs        int64  `json:"sim_now_ms"`
	Digest          string `json:"digest,omitempty"`
}

// STATUS (server -> client)
type StatusMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	Mode            string     `json:"mode"`
	SimNowMs        int64      `json:"sim_now_ms"`
	Gold            string     `json:"gold"`
	Unlocks         []string   `json:"unlocks"`
	TutorialStage   int        `json:"tutorial_stage"`
	Ship            ShipStatus `json:"ship"`
	OpenContracts   int        `json:"open_contracts"`
	Digest          string     `json:"digest"`
}

type ShipStatus struct {
	ID          string `json:"id"`
	ClassID     string `json:"class_id"`
	Location    string `json:"location"`
	Crew        int64  `json:"crew"`
	Condition   int64  `json:"condition"`
	Voyage      string `json:"voyage"`
	RouteID     string `json:"route_id,omitempty"`
	RemainingMs int64  `json:"remaining_ms,omitempty"`
}

// ERROR (server -> client)
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message"`
	ReqID           string `json:"req_id,omitempty"`
}

func NewStatus(s *world.State) StatusMsg {
	m := StatusMsg{
		Type:            TypeStatus,
		ProtocolVersion: Version,
		Mode:            string(s.Mode),
		SimNowMs:        s.SimNowMs,
		Gold:            s.Gold.String(),
		Unlocks:         append([]string{}, s.Unlocks...),
		TutorialStage:   s.TutorialStage,
		Ship: ShipStatus{
			ID:        s.Ship.ID,
			ClassID:   s.Ship.ClassID,
			Location:  s.Ship.Location,
			Crew:      s.Ship.Crew,
			Condition: s.Ship.Condition,
			Voyage:    string(s.Ship.Voyage.Status),
			RouteID:   s.Ship.Voyage.RouteID,
		},
		Digest: world.Digest(s),
	}
	if s.Ship.Voyage.Status == world.VoyageRunning {
		m.Ship.RemainingMs = s.Ship.Voyage.RemainingMs
	}
	for _, c := range s.Contracts {
		if c.Status == world.ContractOpen {
			m.OpenContracts++
		}
	}
	return m
}

func NewError(code, msg, reqID string) ErrorMsg {
	return ErrorMsg{Type: TypeError, ProtocolVersion: Version, Code: code, Message: msg, ReqID: reqID}
}

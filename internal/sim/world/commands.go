package world

import (
	"encoding/json"
	"reflect"
	"sort"

	"portsim/internal/sim/catalogs"
)

// Command is the closed set of player inputs. Only types in this file
// implement it.
type Command interface {
	Kind() string
	isCommand()
}

type StartGame struct {
	Seed uint32 `json:"seed"`
}

type ResetGame struct{}

type DockWork struct{}

type BuyDockAutomation struct{}

type UpgradeWarehouse struct {
	IslandID string `json:"island_id"`
}

type UpgradeShipyard struct{}

type UpgradeShip struct {
	ShipID string `json:"ship_id,omitempty"`
}

type BuyChart struct {
	ChartID string `json:"chart_id"`
}

type PlaceContract struct {
	PortID      string               `json:"port_id"`
	CommodityID catalogs.CommodityID `json:"commodity_id"`
	Qty         int64                `json:"qty"`
	BidPrice    int64                `json:"bid_price"`
}

type CollectContract struct {
	ContractID string `json:"contract_id"`
}

type CancelContract struct {
	ContractID string `json:"contract_id"`
}

type LoadCargo struct {
	ShipID      string               `json:"ship_id,omitempty"`
	CommodityID catalogs.CommodityID `json:"commodity_id"`
	Qty         int64                `json:"qty"`
}

type UnloadCargo struct {
	ShipID      string               `json:"ship_id,omitempty"`
	CommodityID catalogs.CommodityID `json:"commodity_id"`
	Qty         int64                `json:"qty"`
}

type HireCrew struct {
	ShipID string `json:"ship_id,omitempty"`
	Qty    int64  `json:"qty"`
}

type FireCrew struct {
	ShipID string `json:"ship_id,omitempty"`
	Qty    int64  `json:"qty"`
}

type SetProduction struct {
	RecipeID string `json:"recipe_id"`
	Enabled  bool   `json:"enabled"`
}

type VoyagePrepare struct {
	ShipID  string `json:"ship_id,omitempty"`
	RouteID string `json:"route_id"`
}

type VoyageStart struct {
	ShipID  string `json:"ship_id,omitempty"`
	RouteID string `json:"route_id"`
}

type VoyageCollect struct {
	ShipID string `json:"ship_id,omitempty"`
}

// BuyShip trades the active ship's hull in for another class.
type BuyShip struct {
	ClassID string `json:"class_id"`
}

type RepairShip struct {
	ShipID string `json:"ship_id,omitempty"`
}

type BuyFleetShip struct {
	ClassID string `json:"class_id"`
}

type SetActiveShip struct {
	ShipID string `json:"ship_id"`
}

type SetAutomation struct {
	ShipID      string `json:"ship_id,omitempty"`
	Enabled     bool   `json:"enabled"`
	AutoCollect bool   `json:"auto_collect"`
	RouteID     string `json:"route_id,omitempty"`
}

type ConquestStart struct {
	IslandID string `json:"island_id"`
}

type ConquestAbort struct{}

type SetAffiliation struct {
	FlagID string `json:"flag_id"`
}

type Donate struct {
	Gold Amount `json:"gold"`
}

type CampaignStart struct {
	Campaign string `json:"kind"`
	PortID   string `json:"port_id"`
}

type CampaignAbort struct{}

type MinigameStart struct {
	Game string `json:"game"`
}

type CannonFire struct{}

type RiggingTug struct{}

type BuyVanity struct {
	ItemID string `json:"item_id"`
}

// Minigame names for MinigameStart.
const (
	GameCannon  = "cannon"
	GameRigging = "rigging"
)

func (StartGame) Kind() string         { return "start_game" }
func (ResetGame) Kind() string         { return "reset_game" }
func (DockWork) Kind() string          { return "dock_work" }
func (BuyDockAutomation) Kind() string { return "buy_dock_automation" }
func (UpgradeWarehouse) Kind() string  { return "upgrade_warehouse" }
func (UpgradeShipyard) Kind() string   { return "upgrade_shipyard" }
func (UpgradeShip) Kind() string       { return "upgrade_ship" }
func (BuyChart) Kind() string          { return "buy_chart" }
func (PlaceContract) Kind() string     { return "place_contract" }
func (CollectContract) Kind() string   { return "collect_contract" }
func (CancelContract) Kind() string    { return "cancel_contract" }
func (LoadCargo) Kind() string         { return "load_cargo" }
func (UnloadCargo) Kind() string       { return "unload_cargo" }
func (HireCrew) Kind() string          { return "hire_crew" }
func (FireCrew) Kind() string          { return "fire_crew" }
func (SetProduction) Kind() string     { return "set_production" }
func (VoyagePrepare) Kind() string     { return "voyage_prepare" }
func (VoyageStart) Kind() string       { return "voyage_start" }
func (VoyageCollect) Kind() string     { return "voyage_collect" }
func (BuyShip) Kind() string           { return "buy_ship" }
func (RepairShip) Kind() string        { return "repair_ship" }
func (BuyFleetShip) Kind() string      { return "buy_fleet_ship" }
func (SetActiveShip) Kind() string     { return "set_active_ship" }
func (SetAutomation) Kind() string     { return "set_automation" }
func (ConquestStart) Kind() string     { return "conquest_start" }
func (ConquestAbort) Kind() string     { return "conquest_abort" }
func (SetAffiliation) Kind() string    { return "set_affiliation" }
func (Donate) Kind() string            { return "donate" }
func (CampaignStart) Kind() string     { return "campaign_start" }
func (CampaignAbort) Kind() string     { return "campaign_abort" }
func (MinigameStart) Kind() string     { return "minigame_start" }
func (CannonFire) Kind() string        { return "cannon_fire" }
func (RiggingTug) Kind() string        { return "rigging_tug" }
func (BuyVanity) Kind() string         { return "buy_vanity" }

func (StartGame) isCommand()         {}
func (ResetGame) isCommand()         {}
func (DockWork) isCommand()          {}
func (BuyDockAutomation) isCommand() {}
func (UpgradeWarehouse) isCommand()  {}
func (UpgradeShipyard) isCommand()   {}
func (UpgradeShip) isCommand()       {}
func (BuyChart) isCommand()          {}
func (PlaceContract) isCommand()     {}
func (CollectContract) isCommand()   {}
func (CancelContract) isCommand()    {}
func (LoadCargo) isCommand()         {}
func (UnloadCargo) isCommand()       {}
func (HireCrew) isCommand()          {}
func (FireCrew) isCommand()          {}
func (SetProduction) isCommand()     {}
func (VoyagePrepare) isCommand()     {}
func (VoyageStart) isCommand()       {}
func (VoyageCollect) isCommand()     {}
func (BuyShip) isCommand()           {}
func (RepairShip) isCommand()        {}
func (BuyFleetShip) isCommand()      {}
func (SetActiveShip) isCommand()     {}
func (SetAutomation) isCommand()     {}
func (ConquestStart) isCommand()     {}
func (ConquestAbort) isCommand()     {}
func (SetAffiliation) isCommand()    {}
func (Donate) isCommand()            {}
func (CampaignStart) isCommand()     {}
func (CampaignAbort) isCommand()     {}
func (MinigameStart) isCommand()     {}
func (CannonFire) isCommand()        {}
func (RiggingTug) isCommand()        {}
func (BuyVanity) isCommand()         {}

var commandFactories = map[string]func() Command{
	"start_game":          func() Command { return &StartGame{} },
	"reset_game":          func() Command { return &ResetGame{} },
	"dock_work":           func() Command { return &DockWork{} },
	"buy_dock_automation": func() Command { return &BuyDockAutomation{} },
	"upgrade_warehouse":   func() Command { return &UpgradeWarehouse{} },
	"upgrade_shipyard":    func() Command { return &UpgradeShipyard{} },
	"upgrade_ship":        func() Command { return &UpgradeShip{} },
	"buy_chart":           func() Command { return &BuyChart{} },
	"place_contract":      func() Command { return &PlaceContract{} },
	"collect_contract":    func() Command { return &CollectContract{} },
	"cancel_contract":     func() Command { return &CancelContract{} },
	"load_cargo":          func() Command { return &LoadCargo{} },
	"unload_cargo":        func() Command { return &UnloadCargo{} },
	"hire_crew":           func() Command { return &HireCrew{} },
	"fire_crew":           func() Command { return &FireCrew{} },
	"set_production":      func() Command { return &SetProduction{} },
	"voyage_prepare":      func() Command { return &VoyagePrepare{} },
	"voyage_start":        func() Command { return &VoyageStart{} },
	"voyage_collect":      func() Command { return &VoyageCollect{} },
	"buy_ship":            func() Command { return &BuyShip{} },
	"repair_ship":         func() Command { return &RepairShip{} },
	"buy_fleet_ship":      func() Command { return &BuyFleetShip{} },
	"set_active_ship":     func() Command { return &SetActiveShip{} },
	"set_automation":      func() Command { return &SetAutomation{} },
	"conquest_start":      func() Command { return &ConquestStart{} },
	"conquest_abort":      func() Command { return &ConquestAbort{} },
	"set_affiliation":     func() Command { return &SetAffiliation{} },
	"donate":              func() Command { return &Donate{} },
	"campaign_start":      func() Command { return &CampaignStart{} },
	"campaign_abort":      func() Command { return &CampaignAbort{} },
	"minigame_start":      func() Command { return &MinigameStart{} },
	"cannon_fire":         func() Command { return &CannonFire{} },
	"rigging_tug":         func() Command { return &RiggingTug{} },
	"buy_vanity":          func() Command { return &BuyVanity{} },
}

// CommandKinds lists every kind DecodeCommand accepts.
func CommandKinds() []string {
	out := make([]string, 0, len(commandFactories))
	for k := range commandFactories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// CommandEnvelope is the wire form of a command.
type CommandEnvelope struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// DecodeCommand turns an envelope into a Command. Unknown kinds and malformed
// payloads yield nil, which Apply treats as a no-op.
func DecodeCommand(raw []byte) Command {
	var env CommandEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil
	}
	return DecodeEnvelope(env)
}

func DecodeEnvelope(env CommandEnvelope) Command {
	f, ok := commandFactories[env.Kind]
	if !ok {
		return nil
	}
	ptr := f()
	if len(env.Payload) > 0 && string(env.Payload) != "null" {
		if err := json.Unmarshal(env.Payload, ptr); err != nil {
			return nil
		}
	}
	return deref(ptr)
}

func EncodeCommand(cmd Command) ([]byte, error) {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return nil, err
	}
	return json.Marshal(CommandEnvelope{Kind: cmd.Kind(), Payload: payload})
}

// deref turns the decoding pointer back into the value type Apply switches on.
func deref(c Command) Command {
	if rv := reflect.ValueOf(c); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil
	}
	switch v := c.(type) {
	case *StartGame:
		return *v
	case *ResetGame:
		return *v
	case *DockWork:
		return *v
	case *BuyDockAutomation:
		return *v
	case *UpgradeWarehouse:
		return *v
	case *UpgradeShipyard:
		return *v
	case *UpgradeShip:
		return *v
	case *BuyChart:
		return *v
	case *PlaceContract:
		return *v
	case *CollectContract:
		return *v
	case *CancelContract:
		return *v
	case *LoadCargo:
		return *v
	case *UnloadCargo:
		return *v
	case *HireCrew:
		return *v
	case *FireCrew:
		return *v
	case *SetProduction:
		return *v
	case *VoyagePrepare:
		return *v
	case *VoyageStart:
		return *v
	case *VoyageCollect:
		return *v
	case *BuyShip:
		return *v
	case *RepairShip:
		return *v
	case *BuyFleetShip:
		return *v
	case *SetActiveShip:
		return *v
	case *SetAutomation:
		return *v
	case *ConquestStart:
		return *v
	case *ConquestAbort:
		return *v
	case *SetAffiliation:
		return *v
	case *Donate:
		return *v
	case *CampaignStart:
		return *v
	case *CampaignAbort:
		return *v
	case *MinigameStart:
		return *v
	case *CannonFire:
		return *v
	case *RiggingTug:
		return *v
	case *BuyVanity:
		return *v
	}
	return c
}

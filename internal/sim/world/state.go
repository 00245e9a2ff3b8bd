package world

import (
	"portsim/internal/sim/catalogs"
	"portsim/internal/sim/rng"
)

type Mode string

const (
	ModeTitle   Mode = "title"
	ModeSession Mode = "session"
)

type VoyageStatus string

const (
	VoyageIdle      VoyageStatus = "idle"
	VoyageRunning   VoyageStatus = "running"
	VoyageCompleted VoyageStatus = "completed"
)

type EncounterStatus string

const (
	EncounterPending EncounterStatus = "pending"
	EncounterSuccess EncounterStatus = "success"
	EncounterFail    EncounterStatus = "fail"
)

type ContractStatus string

const (
	ContractOpen      ContractStatus = "open"
	ContractFilled    ContractStatus = "filled"
	ContractCollected ContractStatus = "collected"
	ContractCanceled  ContractStatus = "canceled"
)

type CampaignStatus string

const (
	CampaignIdle    CampaignStatus = "idle"
	CampaignRunning CampaignStatus = "running"
)

type ConquestStatus string

const (
	ConquestIdle    ConquestStatus = "idle"
	ConquestRunning ConquestStatus = "running"
	ConquestSuccess ConquestStatus = "success"
	ConquestFail    ConquestStatus = "fail"
)

type MinigameStatus string

const (
	MinigameIdle     MinigameStatus = "idle"
	MinigameRunning  MinigameStatus = "running"
	MinigameFinished MinigameStatus = "finished"
)

// Buff ids.
const (
	BuffCombat     = "combat"
	BuffSpeed      = "speed"
	BuffEfficiency = "efficiency"
)

// State is one complete snapshot of a game. Nothing outside it carries game
// state; every field is plain data so the whole tree marshals to JSON.
type State struct {
	Mode     Mode  `json:"mode"`
	SimNowMs int64 `json:"sim_now_ms"`
	// AccMs is time received but not yet consumed by a whole step.
	AccMs int64  `json:"acc_ms"`
	Seed  uint32 `json:"seed"`
	// Rng travels in the save payload next to the state, not inside it.
	Rng rng.State `json:"-"`

	NextContractSeq uint64 `json:"next_contract_seq"`
	NextShipSeq     uint64 `json:"next_ship_seq"`
	NextVoyageIndex uint64 `json:"next_voyage_index"`
	NextGrantSeq    uint64 `json:"next_grant_seq"`

	Gold          Amount   `json:"gold"`
	Unlocks       []string `json:"unlocks,omitempty"`
	TutorialStage int      `json:"tutorial_stage"`

	Warehouses map[string]*Warehouse `json:"warehouses,omitempty"`
	Ship       Ship                  `json:"ship"`
	Fleet      []Ship                `json:"fleet,omitempty"`
	Contracts  []Contract            `json:"contracts,omitempty"`
	// SupplyRemainders is keyed by supplyKey(island, commodity), in ms×units/min.
	SupplyRemainders map[string]int64          `json:"supply_remainders,omitempty"`
	Production       map[string]*ProductionJob `json:"production,omitempty"`
	Buffs            []Buff                    `json:"buffs,omitempty"`

	Dock          Dock        `json:"dock"`
	ShipyardLevel int         `json:"shipyard_level"`
	Politics      Politics    `json:"politics"`
	Conquest      Conquest    `json:"conquest"`
	Cannon        CannonGame  `json:"cannon"`
	Rigging       RiggingGame `json:"rigging"`

	Vanity []string `json:"vanity,omitempty"`
	Charts []string `json:"charts,omitempty"`
	Stats  Stats    `json:"stats"`
}

// Storage is a capacity-bounded inventory: a warehouse or a ship hold.
type Storage struct {
	Capacity  int64                          `json:"capacity"`
	Inventory map[catalogs.CommodityID]int64 `json:"inventory,omitempty"`
}

type Warehouse struct {
	Level int `json:"level"`
	Storage
}

type Ship struct {
	ID         string     `json:"id"`
	ClassID    string     `json:"class_id"`
	Level      int        `json:"level"`
	Location   string     `json:"location"`
	Condition  int64      `json:"condition"`
	Crew       int64      `json:"crew"`
	WageAccrue int64      `json:"wage_accrue"`
	Hold       Storage    `json:"hold"`
	Voyage     Voyage     `json:"voyage"`
	Automation Automation `json:"automation"`
}

type Automation struct {
	Enabled     bool   `json:"enabled"`
	AutoCollect bool   `json:"auto_collect"`
	RouteID     string `json:"route_id,omitempty"`
}

type Voyage struct {
	Status           VoyageStatus `json:"status"`
	RouteID          string       `json:"route_id,omitempty"`
	Index            uint64       `json:"index"`
	RemainingMs      int64        `json:"remaining_ms"`
	DurationMs       int64        `json:"duration_ms"`
	RumBurn          int64        `json:"rum_burn"`
	PendingGold      Amount       `json:"pending_gold"`
	PendingInfluence int64        `json:"pending_influence"`
	Encounters       []Encounter  `json:"encounters,omitempty"`
}

type Encounter struct {
	AtMs            int64           `json:"at_ms"`
	CannonballsCost int64           `json:"cannonballs_cost"`
	Status          EncounterStatus `json:"status"`
}

type Contract struct {
	ID           string               `json:"id"`
	PortID       string               `json:"port_id"`
	CommodityID  catalogs.CommodityID `json:"commodity_id"`
	Qty          int64                `json:"qty"`
	BidPrice     int64                `json:"bid_price"`
	FeePaid      Amount               `json:"fee_paid"`
	FilledQty    int64                `json:"filled_qty"`
	CollectedQty int64                `json:"collected_qty"`
	Status       ContractStatus       `json:"status"`
}

type ProductionJob struct {
	Enabled     bool  `json:"enabled"`
	RemainderMs int64 `json:"remainder_ms"`
}

// Buff is a timed modifier. Re-granting merges: remaining and power take the
// max, DurationMs records the longest grant. GrantSeq stamps the latest grant
// from State.NextGrantSeq.
type Buff struct {
	ID          string `json:"id"`
	RemainingMs int64  `json:"remaining_ms"`
	DurationMs  int64  `json:"duration_ms"`
	PowerBps    int64  `json:"power_bps,omitempty"`
	GrantSeq    uint64 `json:"grant_seq"`
}

type Dock struct {
	AutomationLevel int   `json:"automation_level"`
	Working         bool  `json:"working"`
	WorkRemainingMs int64 `json:"work_remaining_ms"`
	WorkDurationMs  int64 `json:"work_duration_ms"`
	IncomeAccrue    int64 `json:"income_accrue"`
}

type Politics struct {
	Affiliation string           `json:"affiliation,omitempty"`
	Influence   map[string]int64 `json:"influence,omitempty"`
	// Perks is keyed by port id.
	Perks       map[string]Buff   `json:"perks,omitempty"`
	Campaign    Campaign          `json:"campaign"`
	Controllers map[string]string `json:"controllers,omitempty"`
}

type Campaign struct {
	Status           CampaignStatus `json:"status"`
	Kind             string         `json:"kind,omitempty"`
	PortID           string         `json:"port_id,omitempty"`
	ControllerFlagID string         `json:"controller_flag_id,omitempty"`
	RemainingMs      int64          `json:"remaining_ms"`
	DurationMs       int64          `json:"duration_ms"`
	GoldPaid         Amount         `json:"gold_paid"`
	InfluenceSpent   int64          `json:"influence_spent"`
}

type Conquest struct {
	Status         ConquestStatus `json:"status"`
	TargetIslandID string         `json:"target_island_id,omitempty"`
	AttackerFlagID string         `json:"attacker_flag_id,omitempty"`
	RemainingMs    int64          `json:"remaining_ms"`
	DurationMs     int64          `json:"duration_ms"`
	Stage          int            `json:"stage"`
	ChanceBps      int64          `json:"chance_bps"`
}

type CannonGame struct {
	Status     MinigameStatus `json:"status"`
	ElapsedMs  int64          `json:"elapsed_ms"`
	DurationMs int64          `json:"duration_ms"`
	Shots      int64          `json:"shots"`
	Hits       int64          `json:"hits"`
}

type RiggingGame struct {
	Status     MinigameStatus `json:"status"`
	ElapsedMs  int64          `json:"elapsed_ms"`
	DurationMs int64          `json:"duration_ms"`
	Tension    int64          `json:"tension"`
	InBandMs   int64          `json:"in_band_ms"`
}

type Stats struct {
	VoyagesCompleted int64  `json:"voyages_completed"`
	EncountersWon    int64  `json:"encounters_won"`
	EncountersLost   int64  `json:"encounters_lost"`
	ContractsFilled  int64  `json:"contracts_filled"`
	ConquestsWon     int64  `json:"conquests_won"`
	DockShifts       int64  `json:"dock_shifts"`
	GoldEarned       Amount `json:"gold_earned"`
}

// NewState is the title-screen snapshot.
func NewState() *State {
	s := &State{Mode: ModeTitle, Rng: rng.Seed(1)}
	s.Normalize()
	return s
}

// Normalize fills zero-valued enums so decoded and freshly built states agree.
func (s *State) Normalize() {
	if s.Mode == "" {
		s.Mode = ModeTitle
	}
	normalizeShip(&s.Ship)
	for i := range s.Fleet {
		normalizeShip(&s.Fleet[i])
	}
	if s.Politics.Campaign.Status == "" {
		s.Politics.Campaign.Status = CampaignIdle
	}
	if s.Conquest.Status == "" {
		s.Conquest.Status = ConquestIdle
	}
	if s.Cannon.Status == "" {
		s.Cannon.Status = MinigameIdle
	}
	if s.Rigging.Status == "" {
		s.Rigging.Status = MinigameIdle
	}
}

func normalizeShip(sh *Ship) {
	if sh.Voyage.Status == "" {
		sh.Voyage.Status = VoyageIdle
	}
}

func (st *Storage) Used() int64 {
	var n int64
	for _, q := range st.Inventory {
		n += q
	}
	return n
}

func (st *Storage) Free() int64 {
	f := st.Capacity - st.Used()
	if f < 0 {
		return 0
	}
	return f
}

func (st *Storage) Count(c catalogs.CommodityID) int64 {
	return st.Inventory[c]
}

func (st *Storage) add(c catalogs.CommodityID, n int64) {
	if n == 0 {
		return
	}
	if st.Inventory == nil {
		st.Inventory = map[catalogs.CommodityID]int64{}
	}
	st.Inventory[c] += n
	if st.Inventory[c] == 0 {
		delete(st.Inventory, c)
	}
}

func (st *Storage) remove(c catalogs.CommodityID, n int64) {
	st.add(c, -n)
}

// moveGoods relocates up to n units and returns how many moved.
func moveGoods(from, to *Storage, c catalogs.CommodityID, n int64) int64 {
	if n > from.Count(c) {
		n = from.Count(c)
	}
	if n > to.Free() {
		n = to.Free()
	}
	if n <= 0 {
		return 0
	}
	from.remove(c, n)
	to.add(c, n)
	return n
}

// ships returns every ship, active first, as pointers into s.
func (s *State) ships() []*Ship {
	out := make([]*Ship, 0, 1+len(s.Fleet))
	out = append(out, &s.Ship)
	for i := range s.Fleet {
		out = append(out, &s.Fleet[i])
	}
	return out
}

// shipByID resolves "" to the active ship.
func (s *State) shipByID(id string) *Ship {
	if id == "" || id == s.Ship.ID {
		return &s.Ship
	}
	for i := range s.Fleet {
		if s.Fleet[i].ID == id {
			return &s.Fleet[i]
		}
	}
	return nil
}

func (s *State) contractByID(id string) *Contract {
	for i := range s.Contracts {
		if s.Contracts[i].ID == id {
			return &s.Contracts[i]
		}
	}
	return nil
}

func (s *State) HasUnlock(id string) bool {
	for _, u := range s.Unlocks {
		if u == id {
			return true
		}
	}
	return false
}

func (s *State) buff(id string) (Buff, bool) {
	for _, b := range s.Buffs {
		if b.ID == id {
			return b, true
		}
	}
	return Buff{}, false
}

func (s *State) buffPower(id string) int64 {
	b, ok := s.buff(id)
	if !ok {
		return 0
	}
	return b.PowerBps
}

func (s *State) ownsChart(id string) bool {
	return containsString(s.Charts, id)
}

func (s *State) controller(islandID string) string {
	return s.Politics.Controllers[islandID]
}

func (s *State) influence(flagID string) int64 {
	return s.Politics.Influence[flagID]
}

func containsString(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

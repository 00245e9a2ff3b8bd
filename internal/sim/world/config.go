package world

import (
	"fmt"

	"portsim/internal/sim/catalogs"
	"portsim/internal/sim/tuning"
)

type CheckMode int

const (
	ChecksOff CheckMode = iota
	// ChecksReport hands violations to Config.OnViolation and keeps going.
	ChecksReport
	// ChecksStrict panics with the *ViolationError.
	ChecksStrict
)

type Config struct {
	Tuning      tuning.Tuning
	Checks      CheckMode
	OnViolation func(error)
}

// Engine binds tuning and catalogs to the pure state transitions. It holds no
// game state and is safe for concurrent use.
type Engine struct {
	cfg    Config
	tun    tuning.Tuning
	cats   *catalogs.Catalogs
	supply []supplyPair
}

func New(cfg Config, cats *catalogs.Catalogs) (*Engine, error) {
	if cats == nil {
		return nil, fmt.Errorf("nil catalogs")
	}
	if err := cfg.Tuning.Validate(); err != nil {
		return nil, fmt.Errorf("tuning: %w", err)
	}
	if _, ok := cats.Islands.Get(cfg.Tuning.StartIslandID); !ok {
		return nil, fmt.Errorf("tuning: unknown start island %q", cfg.Tuning.StartIslandID)
	}
	cls, ok := cats.Ships.Get(cfg.Tuning.StartShipID)
	if !ok {
		return nil, fmt.Errorf("tuning: unknown start ship class %q", cfg.Tuning.StartShipID)
	}
	if cfg.Tuning.StartCrew > cls.Berths {
		return nil, fmt.Errorf("tuning: start_crew %d exceeds %s berths", cfg.Tuning.StartCrew, cls.ID)
	}
	for kind := range cfg.Tuning.Politics.Campaigns {
		if kind != CampaignTaxRelief && kind != CampaignInfluenceDrive {
			return nil, fmt.Errorf("tuning: unknown campaign kind %q", kind)
		}
	}
	return &Engine{cfg: cfg, tun: cfg.Tuning, cats: cats, supply: buildSupply(cats)}, nil
}

func (e *Engine) Tuning() tuning.Tuning { return e.tun }

func (e *Engine) Catalogs() *catalogs.Catalogs { return e.cats }

// Campaign kinds.
const (
	CampaignTaxRelief      = "tax_relief"
	CampaignInfluenceDrive = "influence_drive"
)

func (e *Engine) verify(prev, next *State, ctx CheckContext) {
	if e.cfg.Checks == ChecksOff || prev == next {
		return
	}
	err := e.Check(prev, next, ctx)
	if err == nil {
		return
	}
	if e.cfg.Checks == ChecksStrict {
		panic(err)
	}
	if e.cfg.OnViolation != nil {
		e.cfg.OnViolation(err)
	}
}

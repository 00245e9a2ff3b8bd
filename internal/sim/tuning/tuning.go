package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning holds every balance constant the simulation reads. Values are part of
// the rules, not of the snapshot: two engines with different tuning produce
// different results from the same save.
type Tuning struct {
	StepMs        int64  `yaml:"step_ms" json:"step_ms"`
	MaxAdvanceMs  int64  `yaml:"max_advance_ms" json:"max_advance_ms"`
	StartGold     int64  `yaml:"start_gold" json:"start_gold"`
	StartIslandID string `yaml:"start_island_id" json:"start_island_id"`
	StartShipID   string `yaml:"start_ship_class" json:"start_ship_class"`
	StartCrew     int64  `yaml:"start_crew" json:"start_crew"`

	Dock       Dock       `yaml:"dock" json:"dock"`
	Warehouse  Warehouse  `yaml:"warehouse" json:"warehouse"`
	Shipyard   Shipyard   `yaml:"shipyard" json:"shipyard"`
	Ship       Ship       `yaml:"ship" json:"ship"`
	Crew       Crew       `yaml:"crew" json:"crew"`
	Contracts  Contracts  `yaml:"contracts" json:"contracts"`
	Voyage     Voyage     `yaml:"voyage" json:"voyage"`
	Politics   Politics   `yaml:"politics" json:"politics"`
	Conquest   Conquest   `yaml:"conquest" json:"conquest"`
	Minigames  Minigames  `yaml:"minigames" json:"minigames"`
	Unlocks    Unlocks    `yaml:"unlocks" json:"unlocks"`
	Automation Automation `yaml:"automation" json:"automation"`
}

type Dock struct {
	WorkDurationMs     int64 `yaml:"work_duration_ms" json:"work_duration_ms"`
	WorkGold           int64 `yaml:"work_gold" json:"work_gold"`
	AutomationBaseCost int64 `yaml:"automation_base_cost" json:"automation_base_cost"`
	AutomationCostStep int64 `yaml:"automation_cost_step" json:"automation_cost_step"`
	AutomationMaxLevel int   `yaml:"automation_max_level" json:"automation_max_level"`
	IncomePerMinPerLvl int64 `yaml:"income_per_min_per_level" json:"income_per_min_per_level"`
	AutoCollectAtLevel int   `yaml:"auto_collect_level" json:"auto_collect_level"`
}

type Warehouse struct {
	BaseCapacity     int64 `yaml:"base_capacity" json:"base_capacity"`
	CapacityPerLevel int64 `yaml:"capacity_per_level" json:"capacity_per_level"`
	UpgradeBaseCost  int64 `yaml:"upgrade_base_cost" json:"upgrade_base_cost"`
	UpgradeCostStep  int64 `yaml:"upgrade_cost_step" json:"upgrade_cost_step"`
	MaxLevel         int   `yaml:"max_level" json:"max_level"`
}

type Shipyard struct {
	// UpgradeCosts[i] is the price of going from level i to i+1.
	UpgradeCosts []int64 `yaml:"upgrade_costs" json:"upgrade_costs"`
	MaxFleet     int     `yaml:"max_fleet" json:"max_fleet"`
}

type Ship struct {
	UpgradeBaseCost    int64 `yaml:"upgrade_base_cost" json:"upgrade_base_cost"`
	UpgradeCostStep    int64 `yaml:"upgrade_cost_step" json:"upgrade_cost_step"`
	MaxLevel           int   `yaml:"max_level" json:"max_level"`
	HoldPerLevel       int64 `yaml:"hold_per_level" json:"hold_per_level"`
	SpeedPctPerLevel   int64 `yaml:"speed_pct_per_level" json:"speed_pct_per_level"`
	RepairGoldPerPoint int64 `yaml:"repair_gold_per_point" json:"repair_gold_per_point"`
}

type Crew struct {
	HireCost   int64 `yaml:"hire_cost" json:"hire_cost"`
	WagePerMin int64 `yaml:"wage_per_min" json:"wage_per_min"`
}

type Contracts struct {
	MaxOpen int   `yaml:"max_open" json:"max_open"`
	MaxQty  int64 `yaml:"max_qty" json:"max_qty"`
	MaxBid  int64 `yaml:"max_bid" json:"max_bid"`
}

type Voyage struct {
	EncounterFailPenaltyBps  int64            `yaml:"encounter_fail_penalty_bps" json:"encounter_fail_penalty_bps"`
	MaxFailPenaltyBps        int64            `yaml:"max_fail_penalty_bps" json:"max_fail_penalty_bps"`
	EncounterConditionDamage int64            `yaml:"encounter_condition_damage" json:"encounter_condition_damage"`
	SoftcapThresholdBps      int64            `yaml:"softcap_threshold_bps" json:"softcap_threshold_bps"`
	SoftcapDivisor           int64            `yaml:"softcap_divisor" json:"softcap_divisor"`
	UnlockBonusBps           map[string]int64 `yaml:"unlock_bonus_bps" json:"unlock_bonus_bps"`
}

type Politics struct {
	GoldPerInfluence         int64                   `yaml:"gold_per_influence" json:"gold_per_influence"`
	InfluencePerDiscountStep int64                   `yaml:"influence_per_discount_step" json:"influence_per_discount_step"`
	DiscountStepBps          int64                   `yaml:"discount_step_bps" json:"discount_step_bps"`
	AffiliationPenalty       int64                   `yaml:"affiliation_penalty" json:"affiliation_penalty"`
	FriendlyThreshold        int64                   `yaml:"friendly_threshold" json:"friendly_threshold"`
	HostileThreshold         int64                   `yaml:"hostile_threshold" json:"hostile_threshold"`
	Campaigns                map[string]CampaignKind `yaml:"campaigns" json:"campaigns"`
}

type CampaignKind struct {
	GoldCost        int64 `yaml:"gold_cost" json:"gold_cost"`
	InfluenceCost   int64 `yaml:"influence_cost" json:"influence_cost"`
	DurationMs      int64 `yaml:"duration_ms" json:"duration_ms"`
	RequiresControl bool  `yaml:"requires_control" json:"requires_control"`
	PerkDurationMs  int64 `yaml:"perk_duration_ms" json:"perk_duration_ms"`
	PerkPowerBps    int64 `yaml:"perk_power_bps" json:"perk_power_bps"`
	InfluenceReward int64 `yaml:"influence_reward" json:"influence_reward"`
}

type Conquest struct {
	GoldCost        int64 `yaml:"gold_cost" json:"gold_cost"`
	InfluenceCost   int64 `yaml:"influence_cost" json:"influence_cost"`
	DurationMs      int64 `yaml:"duration_ms" json:"duration_ms"`
	BaseChanceBps   int64 `yaml:"base_chance_bps" json:"base_chance_bps"`
	PerInfluenceBps int64 `yaml:"per_influence_bps" json:"per_influence_bps"`
	PerShipBps      int64 `yaml:"per_ship_bps" json:"per_ship_bps"`
	MaxChanceBps    int64 `yaml:"max_chance_bps" json:"max_chance_bps"`
	UnlockInfluence int64 `yaml:"unlock_influence" json:"unlock_influence"`
}

type Minigames struct {
	Cannon  Cannon  `yaml:"cannon" json:"cannon"`
	Rigging Rigging `yaml:"rigging" json:"rigging"`
}

type Cannon struct {
	DurationMs     int64 `yaml:"duration_ms" json:"duration_ms"`
	PeriodMs       int64 `yaml:"period_ms" json:"period_ms"`
	WindowMs       int64 `yaml:"window_ms" json:"window_ms"`
	MaxShots       int64 `yaml:"max_shots" json:"max_shots"`
	PowerPerHitBps int64 `yaml:"power_per_hit_bps" json:"power_per_hit_bps"`
	BuffDurationMs int64 `yaml:"buff_duration_ms" json:"buff_duration_ms"`
}

type Rigging struct {
	DurationMs         int64 `yaml:"duration_ms" json:"duration_ms"`
	TugTension         int64 `yaml:"tug_tension" json:"tug_tension"`
	MaxTension         int64 `yaml:"max_tension" json:"max_tension"`
	DecayPerStep       int64 `yaml:"decay_per_step" json:"decay_per_step"`
	BandMin            int64 `yaml:"band_min" json:"band_min"`
	BandMax            int64 `yaml:"band_max" json:"band_max"`
	SpeedPowerBps      int64 `yaml:"speed_power_bps" json:"speed_power_bps"`
	EfficiencyPowerBps int64 `yaml:"efficiency_power_bps" json:"efficiency_power_bps"`
	BuffDurationMs     int64 `yaml:"buff_duration_ms" json:"buff_duration_ms"`
}

type Unlocks struct {
	MinigameVoyages int64 `yaml:"minigame_voyages" json:"minigame_voyages"`
	PoliticsVoyages int64 `yaml:"politics_voyages" json:"politics_voyages"`
}

type Automation struct {
	// Dock automation level that unlocks per-ship voyage automation.
	UnlockDockLevel int `yaml:"unlock_dock_level" json:"unlock_dock_level"`
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func Defaults() Tuning {
	return Tuning{
		StepMs:        100,
		MaxAdvanceMs:  86_400_000,
		StartGold:     20,
		StartIslandID: "port_royal",
		StartShipID:   "sloop",
		StartCrew:     2,
		Dock: Dock{
			WorkDurationMs:     5_000,
			WorkGold:           5,
			AutomationBaseCost: 50,
			AutomationCostStep: 50,
			AutomationMaxLevel: 10,
			IncomePerMinPerLvl: 6,
			AutoCollectAtLevel: 2,
		},
		Warehouse: Warehouse{
			BaseCapacity:     100,
			CapacityPerLevel: 50,
			UpgradeBaseCost:  40,
			UpgradeCostStep:  40,
			MaxLevel:         10,
		},
		Shipyard: Shipyard{
			UpgradeCosts: []int64{150, 400, 1000},
			MaxFleet:     4,
		},
		Ship: Ship{
			UpgradeBaseCost:    60,
			UpgradeCostStep:    60,
			MaxLevel:           5,
			HoldPerLevel:       20,
			SpeedPctPerLevel:   5,
			RepairGoldPerPoint: 1,
		},
		Crew: Crew{
			HireCost:   10,
			WagePerMin: 1,
		},
		Contracts: Contracts{
			MaxOpen: 8,
			MaxQty:  1000,
			MaxBid:  100,
		},
		Voyage: Voyage{
			EncounterFailPenaltyBps:  2500,
			MaxFailPenaltyBps:        7500,
			EncounterConditionDamage: 10,
			SoftcapThresholdBps:      4000,
			SoftcapDivisor:           2,
			UnlockBonusBps: map[string]int64{
				"fleet":     500,
				"politics":  500,
				"admiralty": 2500,
			},
		},
		Politics: Politics{
			GoldPerInfluence:         10,
			InfluencePerDiscountStep: 10,
			DiscountStepBps:          100,
			AffiliationPenalty:       25,
			FriendlyThreshold:        50,
			HostileThreshold:         0,
			Campaigns: map[string]CampaignKind{
				"tax_relief": {
					GoldCost:        100,
					InfluenceCost:   20,
					DurationMs:      120_000,
					RequiresControl: true,
					PerkDurationMs:  600_000,
					PerkPowerBps:    500,
				},
				"influence_drive": {
					GoldCost:        80,
					DurationMs:      60_000,
					InfluenceReward: 30,
				},
			},
		},
		Conquest: Conquest{
			GoldCost:        500,
			InfluenceCost:   50,
			DurationMs:      300_000,
			BaseChanceBps:   4000,
			PerInfluenceBps: 20,
			PerShipBps:      500,
			MaxChanceBps:    9000,
			UnlockInfluence: 100,
		},
		Minigames: Minigames{
			Cannon: Cannon{
				DurationMs:     20_000,
				PeriodMs:       2_000,
				WindowMs:       300,
				MaxShots:       10,
				PowerPerHitBps: 300,
				BuffDurationMs: 600_000,
			},
			Rigging: Rigging{
				DurationMs:         15_000,
				TugTension:         20,
				MaxTension:         100,
				DecayPerStep:       1,
				BandMin:            60,
				BandMax:            90,
				SpeedPowerBps:      1500,
				EfficiencyPowerBps: 2000,
				BuffDurationMs:     600_000,
			},
		},
		Unlocks: Unlocks{
			MinigameVoyages: 1,
			PoliticsVoyages: 3,
		},
		Automation: Automation{
			UnlockDockLevel: 2,
		},
	}
}

func (t Tuning) Validate() error {
	if t.StepMs <= 0 {
		return fmt.Errorf("step_ms must be > 0")
	}
	if t.MaxAdvanceMs < t.StepMs {
		return fmt.Errorf("max_advance_ms must be >= step_ms")
	}
	if t.StartGold < 0 || t.StartCrew < 0 {
		return fmt.Errorf("start values must be >= 0")
	}
	if t.StartIslandID == "" || t.StartShipID == "" {
		return fmt.Errorf("start_island_id and start_ship_class are required")
	}
	if t.Dock.WorkDurationMs <= 0 {
		return fmt.Errorf("dock.work_duration_ms must be > 0")
	}
	if t.Crew.HireCost <= 0 {
		return fmt.Errorf("crew.hire_cost must be > 0")
	}
	if t.Politics.GoldPerInfluence <= 0 || t.Politics.InfluencePerDiscountStep <= 0 {
		return fmt.Errorf("politics ratios must be > 0")
	}
	if t.Voyage.SoftcapDivisor <= 0 {
		return fmt.Errorf("voyage.softcap_divisor must be > 0")
	}
	if t.Minigames.Cannon.PeriodMs <= 0 || t.Minigames.Cannon.DurationMs <= 0 || t.Minigames.Rigging.DurationMs <= 0 {
		return fmt.Errorf("minigame durations must be > 0")
	}
	if t.Conquest.DurationMs <= 0 {
		return fmt.Errorf("conquest.duration_ms must be > 0")
	}
	for kind, c := range t.Politics.Campaigns {
		if c.DurationMs <= 0 {
			return fmt.Errorf("politics.campaigns.%s.duration_ms must be > 0", kind)
		}
	}
	return nil
}

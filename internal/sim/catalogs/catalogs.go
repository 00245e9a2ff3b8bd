package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// CommodityID is a closed enumeration; commodities.json must describe exactly
// these ids.
type CommodityID string

const (
	Rum         CommodityID = "rum"
	Sugar       CommodityID = "sugar"
	Cannonballs CommodityID = "cannonballs"
	Iron        CommodityID = "iron"
	Timber      CommodityID = "timber"
	Cloth       CommodityID = "cloth"
)

// Commodities lists every commodity in canonical iteration order.
var Commodities = []CommodityID{Rum, Sugar, Cannonballs, Iron, Timber, Cloth}

func (c CommodityID) Valid() bool {
	for _, id := range Commodities {
		if id == c {
			return true
		}
	}
	return false
}

type Catalogs struct {
	Commodities Table[CommodityDef]
	Islands     Table[IslandDef]
	Routes      Table[RouteDef]
	Recipes     Table[RecipeDef]
	Ships       Table[ShipClassDef]
	Flags       Table[FlagDef]
	Vanity      Table[VanityDef]
	Charts      Table[ChartDef]

	returnRoutes map[string]string
}

// Table is one id-keyed reference table. IDs is sorted and is the only
// iteration order the simulation uses.
type Table[T any] struct {
	ByID   map[string]T
	IDs    []string
	Digest string
}

func (t Table[T]) Get(id string) (T, bool) {
	v, ok := t.ByID[id]
	return v, ok
}

type CommodityDef struct {
	ID   CommodityID `json:"id"`
	Name string      `json:"name"`
}

type IslandDef struct {
	ID               string                `json:"id"`
	Name             string                `json:"name"`
	BaseTaxBps       int64                 `json:"base_tax_bps"`
	ControllerFlagID string                `json:"controller_flag_id"`
	MarketTier       int64                 `json:"market_tier"`
	SupplyPerMin     map[CommodityID]int64 `json:"supply_per_min"`
}

type RouteDef struct {
	ID                      string `json:"id"`
	FromIslandID            string `json:"from_island_id"`
	ToIslandID              string `json:"to_island_id"`
	BaseDurationMs          int64  `json:"base_duration_ms"`
	BaseGoldReward          int64  `json:"base_gold_reward"`
	InfluenceReward         int64  `json:"influence_reward"`
	RumFare                 int64  `json:"rum_fare"`
	RumBurn                 int64  `json:"rum_burn"`
	Encounters              int    `json:"encounters"`
	CannonballsPerEncounter int64  `json:"cannonballs_per_encounter"`
	ChartID                 string `json:"chart_id,omitempty"`
}

type RecipeDef struct {
	ID         string                `json:"id"`
	IslandID   string                `json:"island_id"`
	Inputs     map[CommodityID]int64 `json:"inputs"`
	Outputs    map[CommodityID]int64 `json:"outputs"`
	IntervalMs int64                 `json:"interval_ms"`
}

type ShipClassDef struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	HoldCapacity  int64  `json:"hold_capacity"`
	SpeedPct      int64  `json:"speed_pct"`
	Berths        int64  `json:"berths"`
	MinCrew       int64  `json:"min_crew"`
	MaxCondition  int64  `json:"max_condition"`
	PriceGold     int64  `json:"price_gold"`
	ShipyardLevel int    `json:"shipyard_level"`
}

type FlagDef struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	HomeIslandID string `json:"home_island_id"`
}

type VanityDef struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	PriceGold int64  `json:"price_gold"`
}

type ChartDef struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	PriceGold int64  `json:"price_gold"`
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs
	var err error

	if c.Commodities, err = loadTable(filepath.Join(configDir, "commodities.json"), func(d CommodityDef) string { return string(d.ID) }); err != nil {
		return nil, err
	}
	if c.Islands, err = loadTable(filepath.Join(configDir, "islands.json"), func(d IslandDef) string { return d.ID }); err != nil {
		return nil, err
	}
	if c.Routes, err = loadTable(filepath.Join(configDir, "routes.json"), func(d RouteDef) string { return d.ID }); err != nil {
		return nil, err
	}
	if c.Recipes, err = loadTable(filepath.Join(configDir, "recipes.json"), func(d RecipeDef) string { return d.ID }); err != nil {
		return nil, err
	}
	if c.Ships, err = loadTable(filepath.Join(configDir, "ships.json"), func(d ShipClassDef) string { return d.ID }); err != nil {
		return nil, err
	}
	if c.Flags, err = loadTable(filepath.Join(configDir, "flags.json"), func(d FlagDef) string { return d.ID }); err != nil {
		return nil, err
	}
	if c.Vanity, err = loadTable(filepath.Join(configDir, "vanity.json"), func(d VanityDef) string { return d.ID }); err != nil {
		return nil, err
	}
	if c.Charts, err = loadTable(filepath.Join(configDir, "charts.json"), func(d ChartDef) string { return d.ID }); err != nil {
		return nil, err
	}

	if err := c.validate(); err != nil {
		return nil, err
	}
	c.indexReturnRoutes()
	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadTable[T any](path string, idOf func(T) string) (Table[T], error) {
	var t Table[T]
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	name := filepath.Base(path)
	t.Digest = sha256Hex(raw)

	var defs []T
	if err := json.Unmarshal(raw, &defs); err != nil {
		return t, fmt.Errorf("%s: %w", name, err)
	}
	t.ByID = make(map[string]T, len(defs))
	for _, d := range defs {
		id := idOf(d)
		if id == "" {
			return t, fmt.Errorf("%s: empty id", name)
		}
		if _, dup := t.ByID[id]; dup {
			return t, fmt.Errorf("%s: duplicate id %q", name, id)
		}
		t.ByID[id] = d
	}
	t.IDs = make([]string, 0, len(t.ByID))
	for id := range t.ByID {
		t.IDs = append(t.IDs, id)
	}
	sort.Strings(t.IDs)
	return t, nil
}

func (c *Catalogs) validate() error {
	for _, id := range Commodities {
		if _, ok := c.Commodities.ByID[string(id)]; !ok {
			return fmt.Errorf("commodities.json: missing %q", id)
		}
	}
	for _, id := range c.Commodities.IDs {
		if !CommodityID(id).Valid() {
			return fmt.Errorf("commodities.json: unknown commodity %q", id)
		}
	}
	for _, id := range c.Flags.IDs {
		f := c.Flags.ByID[id]
		if _, ok := c.Islands.ByID[f.HomeIslandID]; !ok {
			return fmt.Errorf("flags.json: %s: unknown home island %q", id, f.HomeIslandID)
		}
	}
	for _, id := range c.Islands.IDs {
		is := c.Islands.ByID[id]
		if _, ok := c.Flags.ByID[is.ControllerFlagID]; !ok {
			return fmt.Errorf("islands.json: %s: unknown controller flag %q", id, is.ControllerFlagID)
		}
		if is.BaseTaxBps < 0 || is.MarketTier < 1 {
			return fmt.Errorf("islands.json: %s: bad tax/tier", id)
		}
		for cid, rate := range is.SupplyPerMin {
			if !cid.Valid() || rate < 0 {
				return fmt.Errorf("islands.json: %s: bad supply %q=%d", id, cid, rate)
			}
		}
	}
	for _, id := range c.Routes.IDs {
		r := c.Routes.ByID[id]
		if _, ok := c.Islands.ByID[r.FromIslandID]; !ok {
			return fmt.Errorf("routes.json: %s: unknown from_island_id %q", id, r.FromIslandID)
		}
		if _, ok := c.Islands.ByID[r.ToIslandID]; !ok {
			return fmt.Errorf("routes.json: %s: unknown to_island_id %q", id, r.ToIslandID)
		}
		if r.FromIslandID == r.ToIslandID {
			return fmt.Errorf("routes.json: %s: route must connect two islands", id)
		}
		if r.ChartID != "" {
			if _, ok := c.Charts.ByID[r.ChartID]; !ok {
				return fmt.Errorf("routes.json: %s: unknown chart %q", id, r.ChartID)
			}
		}
		if r.BaseDurationMs <= 0 || r.RumFare < 0 || r.RumBurn < 0 || r.Encounters < 0 || r.CannonballsPerEncounter < 0 || r.BaseGoldReward < 0 {
			return fmt.Errorf("routes.json: %s: bad numbers", id)
		}
	}
	for _, id := range c.Recipes.IDs {
		r := c.Recipes.ByID[id]
		if _, ok := c.Islands.ByID[r.IslandID]; !ok {
			return fmt.Errorf("recipes.json: %s: unknown island %q", id, r.IslandID)
		}
		if r.IntervalMs <= 0 || len(r.Inputs) == 0 || len(r.Outputs) == 0 {
			return fmt.Errorf("recipes.json: %s: needs inputs, outputs and interval", id)
		}
		for cid, n := range r.Inputs {
			if !cid.Valid() || n <= 0 {
				return fmt.Errorf("recipes.json: %s: bad input %q", id, cid)
			}
		}
		for cid, n := range r.Outputs {
			if !cid.Valid() || n <= 0 {
				return fmt.Errorf("recipes.json: %s: bad output %q", id, cid)
			}
		}
	}
	for _, id := range c.Ships.IDs {
		s := c.Ships.ByID[id]
		if s.HoldCapacity <= 0 || s.SpeedPct <= 0 || s.Berths <= 0 || s.MaxCondition <= 0 || s.MinCrew > s.Berths {
			return fmt.Errorf("ships.json: %s: bad numbers", id)
		}
	}
	return nil
}

func (c *Catalogs) indexReturnRoutes() {
	c.returnRoutes = map[string]string{}
	for _, id := range c.Routes.IDs {
		r := c.Routes.ByID[id]
		for _, other := range c.Routes.IDs {
			o := c.Routes.ByID[other]
			if o.FromIslandID == r.ToIslandID && o.ToIslandID == r.FromIslandID {
				c.returnRoutes[id] = other
				break
			}
		}
	}
}

// ReturnRoute is the first route (by id) sailing the reverse leg of routeID.
func (c *Catalogs) ReturnRoute(routeID string) (RouteDef, bool) {
	id, ok := c.returnRoutes[routeID]
	if !ok {
		return RouteDef{}, false
	}
	return c.Routes.Get(id)
}

// Digests summarises every table digest for logs and the index db.
func (c *Catalogs) Digests() map[string]string {
	return map[string]string{
		"commodities": c.Commodities.Digest,
		"islands":     c.Islands.Digest,
		"routes":      c.Routes.Digest,
		"recipes":     c.Recipes.Digest,
		"ships":       c.Ships.Digest,
		"flags":       c.Flags.Digest,
		"vanity":      c.Vanity.Digest,
		"charts":      c.Charts.Digest,
	}
}

package world

import "portsim/internal/sim/catalogs"

const (
	UnlockDock       = "dock"
	UnlockEconomy    = "economy"
	UnlockContracts  = "contracts"
	UnlockVoyage     = "voyage"
	UnlockProduction = "production"
	UnlockMinigames  = "minigames"
	UnlockAutomation = "automation"
	UnlockFleet      = "fleet"
	UnlockPolitics   = "politics"
	UnlockConquest   = "conquest"
	UnlockAdmiralty  = "admiralty"
)

type unlockRule struct {
	id   string
	when func(e *Engine, s *State) bool
}

// Rules run in this order each evaluation, so a rule may depend on an unlock
// granted earlier in the same pass.
var unlockRules = []unlockRule{
	{UnlockDock, func(e *Engine, s *State) bool { return true }},
	{UnlockEconomy, func(e *Engine, s *State) bool { return s.Dock.AutomationLevel >= 1 }},
	{UnlockContracts, func(e *Engine, s *State) bool { return s.HasUnlock(UnlockEconomy) }},
	{UnlockVoyage, func(e *Engine, s *State) bool { return anyRum(s) }},
	{UnlockProduction, func(e *Engine, s *State) bool {
		for _, w := range s.Warehouses {
			if w.Level >= 1 {
				return true
			}
		}
		return false
	}},
	{UnlockMinigames, func(e *Engine, s *State) bool {
		return s.Stats.VoyagesCompleted >= e.tun.Unlocks.MinigameVoyages
	}},
	{UnlockAutomation, func(e *Engine, s *State) bool {
		return s.Dock.AutomationLevel >= e.tun.Automation.UnlockDockLevel
	}},
	{UnlockFleet, func(e *Engine, s *State) bool { return s.ShipyardLevel >= 1 }},
	{UnlockPolitics, func(e *Engine, s *State) bool {
		return s.Stats.VoyagesCompleted >= e.tun.Unlocks.PoliticsVoyages
	}},
	{UnlockConquest, func(e *Engine, s *State) bool {
		aff := s.Politics.Affiliation
		return s.HasUnlock(UnlockPolitics) && aff != "" && s.influence(aff) >= e.tun.Conquest.UnlockInfluence
	}},
	{UnlockAdmiralty, func(e *Engine, s *State) bool { return s.Stats.ConquestsWon >= 1 }},
}

// tutorialOrder is the guided path; the stage is how many of these the
// player holds.
var tutorialOrder = []string{
	UnlockDock, UnlockEconomy, UnlockContracts, UnlockVoyage,
	UnlockMinigames, UnlockPolitics, UnlockConquest, UnlockAdmiralty,
}

func anyRum(s *State) bool {
	for _, sh := range s.ships() {
		if sh.Hold.Count(catalogs.Rum) > 0 {
			return true
		}
	}
	for _, w := range s.Warehouses {
		if w.Count(catalogs.Rum) > 0 {
			return true
		}
	}
	return false
}

// evaluateUnlocks appends newly satisfied unlocks. It never removes one.
func (e *Engine) evaluateUnlocks(s *State) {
	if s.Mode != ModeSession {
		return
	}
	for _, r := range unlockRules {
		if !s.HasUnlock(r.id) && r.when(e, s) {
			s.Unlocks = append(s.Unlocks, r.id)
		}
	}
	stage := 0
	for _, id := range tutorialOrder {
		if s.HasUnlock(id) {
			stage++
		}
	}
	if stage > s.TutorialStage {
		s.TutorialStage = stage
	}
}

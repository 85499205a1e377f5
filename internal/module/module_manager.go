package module

import (
	"github.com/pkg/errors"
)

type ModuleManager struct {
	modules  []DetectionModule
	disabled map[string]bool
}

func NewModuleManager() *ModuleManager {
	return &ModuleManager{
		modules:  make([]DetectionModule, 0),
		disabled: make(map[string]bool),
	}
}

// DefaultModuleManager registers every category, all enabled.
func DefaultModuleManager() *ModuleManager {
	mm := NewModuleManager()
	mm.AddModule(NewMissingOwnerCheck())
	mm.AddModule(NewMissingSignerCheck())
	mm.AddModule(NewArbitraryCPI())
	mm.AddModule(NewInsecureAccountClose())
	mm.AddModule(NewTypeCosplay())
	mm.AddModule(NewBumpSeedCanonicalization())
	mm.AddModule(NewSysvarGet())
	mm.AddModule(NewSysvarAddressCheck())
	mm.AddModule(NewImproperInstructionIntrospection())
	mm.AddModule(NewDuplicateMutableAccounts())
	return mm
}

func (mm *ModuleManager) AddModule(dm DetectionModule) {
	mm.modules = append(mm.modules, dm)
}

func (mm *ModuleManager) lookup(id string) error {
	for _, dm := range mm.modules {
		if dm.GetCategoryData().ID == id {
			return nil
		}
	}
	return errors.Errorf("unknown category %q", id)
}

func (mm *ModuleManager) Enable(ids ...string) error {
	for _, id := range ids {
		if err := mm.lookup(id); err != nil {
			return err
		}
		delete(mm.disabled, id)
	}
	return nil
}

func (mm *ModuleManager) Disable(ids ...string) error {
	for _, id := range ids {
		if err := mm.lookup(id); err != nil {
			return err
		}
		mm.disabled[id] = true
	}
	return nil
}

// Only disables every category but ids.
func (mm *ModuleManager) Only(ids ...string) error {
	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		if err := mm.lookup(id); err != nil {
			return err
		}
		keep[id] = true
	}
	for _, dm := range mm.modules {
		id := dm.GetCategoryData().ID
		mm.disabled[id] = !keep[id]
	}
	return nil
}

// Modules returns the enabled modules in registration order.
func (mm *ModuleManager) Modules() []DetectionModule {
	var out []DetectionModule
	for _, dm := range mm.modules {
		if !mm.disabled[dm.GetCategoryData().ID] {
			out = append(out, dm)
		}
	}
	return out
}

// All returns every registered module, enabled or not.
func (mm *ModuleManager) All() []DetectionModule {
	return mm.modules
}

func (mm *ModuleManager) Enabled(id string) bool {
	return mm.lookup(id) == nil && !mm.disabled[id]
}

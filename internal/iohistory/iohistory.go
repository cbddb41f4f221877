// Package iohistory persists run history for churn analyses.
package iohistory

import (
	"sync"

	"github.com/huangsam/churnmill/internal/contract"
)

// RunStoreManager manages the process-wide RunStore instance.
type RunStoreManager struct {
	sync.RWMutex // Protects the store pointer during initialization
	store        contract.RunStore
}

var _ contract.StoreManager = &RunStoreManager{} // Compile-time check

// GetRunStore returns the run-history store, or nil when tracking is disabled.
func (mgr *RunStoreManager) GetRunStore() contract.RunStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.store
}

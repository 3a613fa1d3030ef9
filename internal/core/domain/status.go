package domain

import "fmt"

// SyncStatus is an event on the status stream. It is never persisted.
// Variants are Syncing, NothingToSync, SuccessSyncing, FailedSyncing and
// SyncingCompleted; switch on the concrete type to handle them.
type SyncStatus interface {
	// Resource returns the resource the event concerns, or "" for
	// SyncingCompleted.
	Resource() Resource
	isSyncStatus()
}

// Syncing is emitted when a sync for a resource starts.
type Syncing struct {
	Res Resource
}

// NothingToSync is emitted when a read produced nothing to push.
type NothingToSync struct {
	Res Resource
}

// SuccessSyncing is emitted after the transformed data was pushed, or
// accepted locally in manual push mode.
type SuccessSyncing struct {
	Res  Resource
	Data ProcessedData
}

// FailedSyncing is emitted when a sync failed. Reason is a human-readable
// description only.
type FailedSyncing struct {
	Res    Resource
	Reason string
}

// SyncingCompleted is emitted once a multi-resource sync request finished.
type SyncingCompleted struct{}

func (s Syncing) Resource() Resource        { return s.Res }
func (s NothingToSync) Resource() Resource  { return s.Res }
func (s SuccessSyncing) Resource() Resource { return s.Res }
func (s FailedSyncing) Resource() Resource  { return s.Res }
func (SyncingCompleted) Resource() Resource { return "" }

func (Syncing) isSyncStatus()          {}
func (NothingToSync) isSyncStatus()    {}
func (SuccessSyncing) isSyncStatus()   {}
func (FailedSyncing) isSyncStatus()    {}
func (SyncingCompleted) isSyncStatus() {}

// DescribeStatus returns a one-line description of a status event.
func DescribeStatus(s SyncStatus) string {
	switch v := s.(type) {
	case Syncing:
		return fmt.Sprintf("syncing %s", v.Res)
	case NothingToSync:
		return fmt.Sprintf("nothing to sync for %s", v.Res)
	case SuccessSyncing:
		return fmt.Sprintf("synced %s (%d records)", v.Res, v.Data.Count())
	case FailedSyncing:
		return fmt.Sprintf("failed syncing %s: %s", v.Res, v.Reason)
	case SyncingCompleted:
		return "syncing completed"
	default:
		panic(fmt.Sprintf("unhandled sync status %T", s))
	}
}

// Package control defines the message protocol between the gateway
// worker and its connected clients: a closed set of commands flowing in
// and notifications flowing out, plus the hub that fans notifications
// out to every attached client.
package control

import "time"

// Ack is the confirmation tag posted on a command's reply port.
type Ack string

const (
	// AckCacheCleared confirms a ClearCache command.
	AckCacheCleared Ack = "CACHE_CLEARED"

	// AckCacheRefreshed confirms a ForceRefresh command.
	AckCacheRefreshed Ack = "CACHE_REFRESHED"
)

// Command is a client-to-worker control message. The set is closed:
// handlers switch over the concrete types exhaustively, so adding a
// command is a compile-time-visible change.
type Command interface {
	isCommand()
}

// SkipWaiting forces immediate activation of a pending worker.
type SkipWaiting struct{}

// ClearCache deletes every bucket carrying the application namespace
// prefix and acknowledges on Reply.
type ClearCache struct {
	Reply chan<- Ack
}

// ForceRefresh deletes only the runtime bucket, preserving pre-cached
// static shell assets, and acknowledges on Reply.
type ForceRefresh struct {
	Reply chan<- Ack
}

func (SkipWaiting) isCommand()  {}
func (ClearCache) isCommand()   {}
func (ForceRefresh) isCommand() {}

// Notification is a worker-to-client message.
type Notification interface {
	isNotification()
}

// WorkerUpdated announces that a new worker version took control.
type WorkerUpdated struct {
	Version string
}

// SyncData asks clients to refetch their data after a background sync.
// The worker performs no fetching itself.
type SyncData struct {
	Timestamp time.Time
}

// PeriodicSync asks clients to refetch on the periodic schedule.
type PeriodicSync struct {
	Timestamp time.Time
}

func (WorkerUpdated) isNotification() {}
func (SyncData) isNotification()     {}
func (PeriodicSync) isNotification() {}

// Background sync tags recognized by the worker.
const (
	// SyncTag triggers a SyncData broadcast.
	SyncTag = "sync-user-data"

	// PeriodicTag triggers a PeriodicSync broadcast.
	PeriodicTag = "update-user-data"
)

// Package websocket streams report progress to browser clients.
//
// A Hub owns the connected clients and fans out every message passed to
// BroadcastUpdate, which makes it usable as the hub behind
// operations.HubSink. Handler upgrades HTTP requests on /ws and registers
// the resulting clients.
package websocket

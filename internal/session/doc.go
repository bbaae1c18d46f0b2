// Package session owns the client's connection lifecycle: cluster
// identity, address list validation, the duplex channel to the ledger
// engine and the hello handshake. Once connected it hands the channel
// to the request multiplexer for send and receive.
//
// State machine: Disconnected -> Connecting -> Connected, with a
// terminal Failed state reachable from Connecting only. Failed sessions
// are not reusable; construct a new one to retry. Retry policy itself
// belongs to the caller (see NextBackoffDelay).
package session

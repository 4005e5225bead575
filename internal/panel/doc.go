// Package panel defines the security-panel state model shared between the
// panel-bus decoder and the bridge core.
//
// The model is edge-triggered: every observable value carries a paired
// changed flag that is true exactly when the value differs from the last
// value delivered downstream. The decoder sets values and flags; the
// bridge's change tracker clears each flag exactly once as it consumes
// the change. This split keeps the decoder free-running while the bridge
// translates transitions into at-most-one outbound message each.
//
// Zones are bit-packed as 8 groups of 8 bits (the panel's native status
// format); the Bitfield type preserves that addressing while exposing
// named per-zone accessors.
//
// The decoder itself lives on the Keybus interface module; Feed is the
// Source implementation that consumes its status stream over TCP.
package panel

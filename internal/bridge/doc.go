// Package bridge is the core of the DSC Keybus bridge: it detects which
// panel facts changed since the last observation, translates each change
// into exactly one outbound message with a stable encoding, and keeps
// delivery reliable across unreliable links.
//
// The pieces, leaf-first:
//
//   - Tracker consumes the panel source's one-shot changed flags in a
//     fixed scan order, clearing each flag exactly once per transition.
//   - Encoder is a pure mapping from a consumed change to its retained
//     bus topic and payload.
//   - Supervisor tracks bus-link health, retries on a fixed interval,
//     and forces a full state resync on every successful (re)connection.
//   - Commands parses and applies inbound arm/disarm requests through
//     panel key writes, checked against the state snapshot at apply time.
//   - Notifications sends one-shot push/SMS messages for life-safety
//     events through the notify client.
//   - Journal and the optional telemetry sink record dispatched changes.
//
// Bridge ties these into a single-threaded cooperative run loop. The
// invariant the whole package bends around: a changed flag is cleared
// only when its message is at least attempted, and the resync on
// reconnect is the sole recovery path for attempts lost while the link
// was down.
package bridge

package panel

// Source is the observable contract of the panel-bus decoder. The decoder
// itself (bus timing, framing, checksum handling) is an external
// collaborator; the core consumes it only through this interface.
type Source interface {
	// Service pumps the decoder: it processes any buffered panel-bus
	// data and updates State. It returns true when a fresh status
	// snapshot is available. Must be called at the panel's normal
	// cadence, including while the core is blocked waiting on a slow
	// transport, or the decoder's internal buffer overflows.
	Service() bool

	// State returns the decoder-owned panel state. The same pointer is
	// returned for the process lifetime.
	State() *State

	// WriteKey writes a key press to the panel on behalf of the given
	// 1-based partition. Used for arm ("s"/"w") and disarm (access code)
	// commands.
	WriteKey(partition int, keys string)
}

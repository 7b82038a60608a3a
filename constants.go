package symsync

// Construction defaults
const (
	// DefaultNumFilters is the polyphase branch count used by the convenience constructors.
	DefaultNumFilters = 32

	// DefaultDelay is the prototype delay in symbols used by the convenience constructors.
	DefaultDelay = 3

	// DefaultExcessBandwidth is the pulse excess bandwidth used by the convenience constructors.
	DefaultExcessBandwidth = 0.5
)

// Validation limits
const (
	minSamplesPerSymbol = 2
	minNumFilters       = 1
	minDelay            = 1
	maxChannels         = 256 // Maximum supported channel count
)

// I/Q layout
const (
	iqComponents = 2 // interleaved [I0, Q0, I1, Q1, ...]
)

package main

// Default command-line flag values
const (
	defaultSamplesPerSymbol = 2
	defaultNumFilters       = 32
	defaultOutputRate       = 1
	defaultDelay            = 3
	defaultExcessBandwidth  = 0.5
	defaultBandwidth        = 0.02
	defaultSymbols          = 4000
	defaultTimingOffset     = -0.45 // fraction of a sample
	defaultSNR              = 30.0  // dB
	defaultSeed             = 1
)

// Reporting
const (
	reportSymbols = 500 // trailing symbols used for the convergence report
	dbScale       = 10.0
	qpskPoints    = 4
)

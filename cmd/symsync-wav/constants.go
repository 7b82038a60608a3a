package main

const (
	// Buffer size for processing (number of frames per chunk)
	bufferSize = 65536

	// Channel layout
	monoChannels   = 1
	stereoChannels = 2 // I/Q pair

	// Sample format constants
	bitsPerSample16 = 16
	bitsPerSample24 = 24
	bitsPerSample32 = 32

	// Conversion constants
	maxInt16         = 32767.0
	maxInt24         = 8388607.0
	maxInt32         = 2147483647.0
	progressInterval = 10 // Print progress every N%
	percentScale     = 100

	// CLI defaults
	defaultSamplesPerSymbol = 2
	defaultNumFilters       = 32
	defaultOutputRate       = 1
	defaultDelay            = 3
	defaultExcessBandwidth  = 0.5
	defaultBandwidth        = 0.02
	minRequiredArgs         = 2

	// WAV format constants
	wavHeaderSize      = 44
	wavRiffHeaderSize  = 36 // file size - 8 = riffHeaderSize + dataSize
	wavPCMSubchunkSize = 16
	wavFormatPCM       = 1
	wavFileSizeOffset  = 4
	wavDataSizeOffset  = 40

	// Byte sizes for PCM sample formats
	bytesPerSample16 = 2
	bytesPerSample24 = 3
	bytesPerSample32 = 4
	bitsPerByte      = 8

	// Bit shift amounts for 24-bit sample encoding
	bitShift8  = 8
	bitShift16 = 16

	// I/O buffer sizes
	wavWriterBufferSize = 256 * 1024
	uint32Size          = 4
)

package constant

// PCM layout produced by the decoder and expected by the voice sink.
const (
	SampleRate = 48000
	Channels   = 2

	// FrameSamples is the number of samples per channel in one 20ms frame.
	FrameSamples = SampleRate / 50

	// FrameBytes is one 20ms frame of interleaved s16le stereo audio.
	FrameBytes = FrameSamples * Channels * 2
)

package emu

import "math"

const (
	sampleRate    = 48000
	psgBufferSize = 1024
	psgGain       = 0.25
)

// drainPSG moves the PSG's mono output into samples as interleaved stereo.
func (e *Emulator) drainPSG(samples []float32) []float32 {
	buf, n := e.psg.GetBuffer()
	for i := 0; i < n; i++ {
		s := clampUnit(float32(buf[i]))
		samples = append(samples, s, s)
	}
	e.psg.ResetBuffer()
	return samples
}

// appendPCM16 converts float samples to 16-bit PCM.
func appendPCM16(dst []int16, samples []float32) []int16 {
	for _, s := range samples {
		dst = append(dst, int16(math.Round(float64(s)*32767)))
	}
	return dst
}

// GetAudioSamples returns audio accumulated by the last RunFrame as 16-bit
// stereo PCM.
func (e *Emulator) GetAudioSamples() []int16 {
	return e.audioBuffer
}

// clampUnit clamps v to [-1, 1].
func clampUnit(v float32) float32 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}

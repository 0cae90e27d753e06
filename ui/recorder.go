package ui

import (
	"fmt"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/spf13/afero"
)

const (
	wavBitDepth   = 16
	wavPCMFormat  = 1
	wavChannels   = 2
	wavFullScale  = 32767
	wavBufferSize = 4096
)

// WavRecorder writes the audio the sink schedules to a 16-bit stereo WAV
// file. Samples are streamed to disk; the header is finalised on Close.
type WavRecorder struct {
	file afero.File
	enc  *wav.Encoder
	buf  *audio.IntBuffer
}

// NewWavRecorder creates path on fs and starts a WAV stream at sampleRate.
func NewWavRecorder(fs afero.Fs, path string, sampleRate int) (*WavRecorder, error) {
	f, err := fs.Create(path)
	if err != nil {
		return nil, fmt.Errorf("wav recorder: %w", err)
	}
	return &WavRecorder{
		file: f,
		enc:  wav.NewEncoder(f, sampleRate, wavBitDepth, wavChannels, wavPCMFormat),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: wavChannels, SampleRate: sampleRate},
			Data:           make([]int, 0, wavBufferSize),
			SourceBitDepth: wavBitDepth,
		},
	}, nil
}

// Write appends one block of stereo audio.
func (r *WavRecorder) Write(left, right []float32) error {
	n := min(len(left), len(right))
	r.buf.Data = r.buf.Data[:0]
	for i := 0; i < n; i++ {
		r.buf.Data = append(r.buf.Data, toPCM16(left[i]), toPCM16(right[i]))
	}
	if err := r.enc.Write(r.buf); err != nil {
		return fmt.Errorf("wav recorder: %w", err)
	}
	return nil
}

// Close finalises the header and closes the file.
func (r *WavRecorder) Close() error {
	encErr := r.enc.Close()
	fileErr := r.file.Close()
	if encErr != nil {
		return fmt.Errorf("wav recorder: %w", encErr)
	}
	if fileErr != nil {
		return fmt.Errorf("wav recorder: %w", fileErr)
	}
	return nil
}

func toPCM16(s float32) int {
	switch {
	case s > 1:
		s = 1
	case s < -1:
		s = -1
	}
	return int(s * wavFullScale)
}

package audio

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// DecodeWAV reads a mono PCM16 WAV stream (the synthesis API's LINEAR16
// output) into a clip. Other sample formats are rejected, not converted.
func DecodeWAV(r io.ReadSeeker) (Clip, error) {
	dec := wav.NewDecoder(r)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Clip{}, fmt.Errorf("decoding wav: %w", err)
	}
	if dec.BitDepth != 16 {
		return Clip{}, fmt.Errorf("unsupported bit depth %d (want 16)", dec.BitDepth)
	}
	if dec.NumChans != 1 {
		return Clip{}, fmt.Errorf("unsupported channel count %d (want mono)", dec.NumChans)
	}

	samples := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = int16(v)
	}
	return Clip{Samples: samples, SampleRate: int(dec.SampleRate)}, nil
}

// WriteWAV encodes the track as mono PCM16 WAV.
func WriteWAV(w io.WriteSeeker, t Track) error {
	enc := wav.NewEncoder(w, t.SampleRate, 16, 1, 1)

	data := make([]int, len(t.Samples))
	for i, s := range t.Samples {
		data[i] = int(s)
	}
	buf := &goaudio.IntBuffer{
		Data:           data,
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: t.SampleRate},
		SourceBitDepth: 16,
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encoding wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalizing wav: %w", err)
	}
	return nil
}

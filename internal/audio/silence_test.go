package audio

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsNearSilentDetectsSilence(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "silent.wav")
	require.NoError(t, os.WriteFile(path, makePCM16WAV(make([]int16, 16000), 16000), 0o644))

	silent, metrics, err := IsNearSilent(path, -65)
	require.NoError(t, err)
	require.True(t, silent)
	require.True(t, math.IsInf(metrics.RMSdBFS, -1))
	require.EqualValues(t, 16000, metrics.Samples)
}

func TestIsNearSilentDetectsSpeechLikeSignal(t *testing.T) {
	t.Parallel()

	samples := make([]int16, 16000)
	for i := range samples {
		samples[i] = int16(0.25 * 32767 * math.Sin(2*math.Pi*440*float64(i)/16000.0))
	}

	path := filepath.Join(t.TempDir(), "voice.wav")
	require.NoError(t, os.WriteFile(path, makePCM16WAV(samples, 16000), 0o644))

	silent, metrics, err := IsNearSilent(path, -65)
	require.NoError(t, err)
	require.False(t, silent)
	require.Greater(t, metrics.RMSdBFS, -20.0)
	require.Greater(t, metrics.PeakdBFS, -20.0)
}

func TestIsNearSilentInvalidFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "not-wav.wav")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	_, _, err := IsNearSilent(path, -65)
	require.ErrorIs(t, err, ErrInvalidWAV)
}

func TestIsNearSilentRejectsNonPCM16(t *testing.T) {
	t.Parallel()

	wav := makePCM16WAV(make([]int16, 100), 16000)
	// Flip the format tag to IEEE float.
	binary.LittleEndian.PutUint16(wav[20:22], 3)

	path := filepath.Join(t.TempDir(), "float.wav")
	require.NoError(t, os.WriteFile(path, wav, 0o644))

	_, _, err := IsNearSilent(path, -65)
	require.ErrorIs(t, err, ErrUnsupportedWAV)
}

func makePCM16WAV(samples []int16, sampleRate int) []byte {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}

	var b bytes.Buffer
	b.WriteString("RIFF")
	_ = binary.Write(&b, binary.LittleEndian, uint32(36+len(data)))
	b.WriteString("WAVE")
	b.WriteString("fmt ")
	_ = binary.Write(&b, binary.LittleEndian, uint32(16))
	_ = binary.Write(&b, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(&b, binary.LittleEndian, uint16(1)) // mono
	_ = binary.Write(&b, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(&b, binary.LittleEndian, uint32(sampleRate*2))
	_ = binary.Write(&b, binary.LittleEndian, uint16(2))
	_ = binary.Write(&b, binary.LittleEndian, uint16(16))
	b.WriteString("data")
	_ = binary.Write(&b, binary.LittleEndian, uint32(len(data)))
	b.Write(data)
	return b.Bytes()
}

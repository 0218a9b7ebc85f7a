package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

var (
	ErrInvalidWAV     = errors.New("invalid wav file")
	ErrUnsupportedWAV = errors.New("unsupported wav format")
)

type Metrics struct {
	RMSdBFS  float64
	PeakdBFS float64
	Samples  int64
}

// IsNearSilent reports whether a normalized 16-bit PCM wav carries no usable
// signal. Peak gets 6 dB of headroom over the RMS threshold so short clicks
// do not count as speech.
func IsNearSilent(path string, thresholdDBFS float64) (bool, Metrics, error) {
	metrics, err := analyzeWAV(path)
	if err != nil {
		return false, Metrics{}, err
	}

	if metrics.Samples == 0 {
		return true, metrics, nil
	}

	return metrics.RMSdBFS <= thresholdDBFS && metrics.PeakdBFS <= thresholdDBFS+6, metrics, nil
}

func analyzeWAV(path string) (Metrics, error) {
	f, err := os.Open(path)
	if err != nil {
		return Metrics{}, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	header := make([]byte, 12)
	if _, err := io.ReadFull(f, header); err != nil {
		return Metrics{}, fmt.Errorf("%w: %v", ErrInvalidWAV, err)
	}
	if string(header[:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return Metrics{}, ErrInvalidWAV
	}

	var data []byte
	sawFmt := false

	for {
		chunkHeader := make([]byte, 8)
		if _, err := io.ReadFull(f, chunkHeader); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return Metrics{}, fmt.Errorf("read wav chunk header: %w", err)
		}

		chunkID := string(chunkHeader[:4])
		chunkSize := int64(binary.LittleEndian.Uint32(chunkHeader[4:8]))
		skip := chunkSize + chunkSize%2

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return Metrics{}, ErrInvalidWAV
			}
			buf := make([]byte, chunkSize)
			if _, err := io.ReadFull(f, buf); err != nil {
				return Metrics{}, fmt.Errorf("read wav fmt chunk: %w", err)
			}
			// The normalizer always emits PCM16; anything else is foreign.
			if binary.LittleEndian.Uint16(buf[0:2]) != 1 || binary.LittleEndian.Uint16(buf[14:16]) != 16 {
				return Metrics{}, ErrUnsupportedWAV
			}
			sawFmt = true
			if chunkSize%2 != 0 {
				if _, err := f.Seek(1, io.SeekCurrent); err != nil {
					return Metrics{}, fmt.Errorf("seek wav fmt padding: %w", err)
				}
			}
		case "data":
			data = make([]byte, chunkSize)
			if _, err := io.ReadFull(f, data); err != nil {
				return Metrics{}, fmt.Errorf("read wav data: %w", err)
			}
			if chunkSize%2 != 0 {
				if _, err := f.Seek(1, io.SeekCurrent); err != nil {
					return Metrics{}, fmt.Errorf("seek wav data padding: %w", err)
				}
			}
		default:
			if _, err := f.Seek(skip, io.SeekCurrent); err != nil {
				return Metrics{}, fmt.Errorf("seek wav chunk %s: %w", chunkID, err)
			}
		}
	}

	if !sawFmt || data == nil {
		return Metrics{}, ErrInvalidWAV
	}

	var peak, sumSquares float64
	var samples int64
	for i := 0; i+2 <= len(data); i += 2 {
		v := float64(int16(binary.LittleEndian.Uint16(data[i:i+2]))) / 32768.0
		if abs := math.Abs(v); abs > peak {
			peak = abs
		}
		sumSquares += v * v
		samples++
	}

	if samples == 0 {
		return Metrics{RMSdBFS: math.Inf(-1), PeakdBFS: math.Inf(-1)}, nil
	}

	return Metrics{
		RMSdBFS:  dbfs(math.Sqrt(sumSquares / float64(samples))),
		PeakdBFS: dbfs(peak),
		Samples:  samples,
	}, nil
}

func dbfs(amplitude float64) float64 {
	if amplitude <= 0 {
		return math.Inf(-1)
	}
	return 20.0 * math.Log10(amplitude)
}

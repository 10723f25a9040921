package recording

import (
	"encoding/binary"
	"math"
)

// Level returns the RMS of little-endian signed 16-bit samples scaled to
// [0,1]. A trailing odd byte is ignored.
func Level(pcm []byte) float64 {
	samples := len(pcm) / 2
	if samples == 0 {
		return 0
	}

	var sum float64
	for i := 0; i < samples; i++ {
		s := float64(int16(binary.LittleEndian.Uint16(pcm[2*i:])))
		sum += s * s
	}
	return math.Sqrt(sum/float64(samples)) / 32768
}

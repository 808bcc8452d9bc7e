package training

import "github.com/x448/float16"

// roundHalf rounds every value of m in place to the nearest IEEE 754 half
// precision value. Values beyond the half range become infinite.
func roundHalf(m [][]float64) {
	for _, row := range m {
		for j, v := range row {
			row[j] = float64(float16.Fromfloat32(float32(v)).Float32())
		}
	}
}

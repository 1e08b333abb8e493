package browse

import (
	"math"
	"strconv"
)

// FormatSize renders a byte count as B, KB or MB with at most one decimal.
func FormatSize(size int64) string {
	value := float64(size)
	unit := "B"
	if value >= 1024 {
		value /= 1024
		unit = "KB"
	}
	if value >= 1024 {
		value /= 1024
		unit = "MB"
	}
	value = math.Round(value*10) / 10
	return strconv.FormatFloat(value, 'f', -1, 64) + " " + unit
}

// Package utils provides shared utility functions
package utils

import (
	"fmt"
	"math"
)

// decimal units, largest last; sizes beyond GB stay in GB
var sizeUnits = [...]string{"B", "kB", "MB", "GB"}

// FormatBytes converts bytes to a decimal human-readable size with three
// decimals (e.g., "1.024 kB").
func FormatBytes(bytes uint64) string {
	order := 0
	for n := bytes; n >= 1000 && order < len(sizeUnits)-1; n /= 1000 {
		order++
	}
	scaled := float64(bytes) / math.Pow(1000, float64(order))
	return fmt.Sprintf("%.3f %s", scaled, sizeUnits[order])
}

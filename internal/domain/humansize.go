package domain

import "fmt"

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// HumanSize formats a byte count with two decimals in 1024 steps
func HumanSize(bytes int64) string {
	value := float64(bytes)
	for _, unit := range sizeUnits {
		if value < 1024.0 {
			return fmt.Sprintf("%.2f %s", value, unit)
		}
		value /= 1024.0
	}
	return fmt.Sprintf("%.2f PB", value)
}

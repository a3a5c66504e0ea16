// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package formats

import (
	"regexp"
	"strconv"
	"strings"
)

var sizeValueRe = regexp.MustCompile(`(?i)(\d+\.?\d*)\s*([KMGT])?i?B?`)

var unitMultipliers = map[string]float64{
	"B": 1,
	"K": 1 << 10,
	"M": 1 << 20,
	"G": 1 << 30,
	"T": 1 << 40,
}

// ParseSize converts a human size ("45.00MiB", "195.39 MB", "512 B") to bytes.
// Unparsable or unknown sizes yield 0.
func ParseSize(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" || s == SizeUnknown || s == "~" {
		return 0
	}
	m := sizeValueRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	num, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	unit := strings.ToUpper(m[2])
	if unit == "" {
		unit = "B"
	}
	mult, ok := unitMultipliers[unit]
	if !ok {
		mult = 1
	}
	return int64(num * mult)
}

var sizeUnits = []string{"B", "KB", "MB", "GB"}

// FormatSize renders bytes with 1024-based units and two decimals.
// Whole bytes are printed without decimals; zero is "N/A".
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return SizeUnknown
	}
	size := float64(bytes)
	unit := 0
	for size >= 1024 && unit < len(sizeUnits)-1 {
		size /= 1024
		unit++
	}
	if unit == 0 {
		return strconv.FormatInt(bytes, 10) + " " + sizeUnits[0]
	}
	return strconv.FormatFloat(size, 'f', 2, 64) + " " + sizeUnits[unit]
}

package config

import (
	"strconv"
	"strings"
)

// badFileNameRunes are characters refused by at least one supported
// filesystem. Output files travel between systems, sanitizing is the same
// everywhere.
const badFileNameRunes = `<>:"/\|?*;`

// reservedDeviceNames are refused by Windows regardless of extension.
var reservedDeviceNames = map[string]struct{}{
	"con": {}, "prn": {}, "aux": {}, "nul": {},
}

func init() {
	for i := 1; i <= 9; i++ {
		reservedDeviceNames["com"+strconv.Itoa(i)] = struct{}{}
		reservedDeviceNames["lpt"+strconv.Itoa(i)] = struct{}{}
	}
}

// CleanFileName makes a string safe to use as a file name on any supported
// platform. Separators and otherwise problematic characters are dropped,
// names Windows reserves for devices get prefixed.
func CleanFileName(in string) string {
	out := strings.Map(func(sym rune) rune {
		if sym < 0x20 || strings.ContainsRune(badFileNameRunes, sym) {
			return -1
		}
		return sym
	}, in)

	// hidden files on one side, refused names on the other
	out = strings.TrimLeft(out, ".")
	out = strings.TrimRight(out, ". ")

	if len(out) == 0 {
		return "untitled"
	}
	if isReservedDeviceName(out) {
		return "_" + out
	}
	return out
}

func isReservedDeviceName(name string) bool {
	stem := name
	if i := strings.IndexByte(stem, '.'); i >= 0 {
		stem = stem[:i]
	}
	_, ok := reservedDeviceNames[strings.ToLower(stem)]
	return ok
}

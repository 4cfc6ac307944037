package utils

import (
	"regexp"
	"strings"
)

// В VIN не используются буквы I, O и Q.
var vinPattern = regexp.MustCompile(`^[A-HJ-NPR-Z0-9]{17}$`)

// NormalizeVIN убирает пробелы и переводит VIN в верхний регистр.
func NormalizeVIN(vin string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(vin), " ", ""))
}

// ValidateVIN проверяет длину и алфавит VIN.
func ValidateVIN(vin string) bool {
	return vinPattern.MatchString(vin)
}

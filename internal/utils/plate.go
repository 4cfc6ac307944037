package utils

import (
	"regexp"
	"strings"
)

var (
	legacyPlate   = regexp.MustCompile(`^[A-Z]{3}[0-9]{4}$`)
	mercosulPlate = regexp.MustCompile(`^[A-Z]{3}[0-9][A-Z][0-9]{2}$`)
)

// NormalizePlate переводит номер в верхний регистр и убирает разделители.
func NormalizePlate(plate string) string {
	plate = strings.ToUpper(plate)
	return strings.NewReplacer("-", "", " ", "", ".", "").Replace(plate)
}

// ValidatePlate принимает бразильский номер старого образца (ABC1234)
// или Mercosul (ABC1D23). Ожидает нормализованную строку.
func ValidatePlate(plate string) bool {
	return legacyPlate.MatchString(plate) || mercosulPlate.MatchString(plate)
}

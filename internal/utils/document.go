package utils

import "strings"

// NormalizeDocument оставляет в CPF/CNPJ только цифры.
func NormalizeDocument(document string) string {
	var b strings.Builder
	for _, r := range document {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidateDocument проверяет контрольные цифры CPF (11 цифр) или CNPJ (14 цифр).
// Ожидает нормализованную строку.
func ValidateDocument(document string) bool {
	switch len(document) {
	case 11:
		return validateCPF(document)
	case 14:
		return validateCNPJ(document)
	}
	return false
}

func digits(s string) ([]int, bool) {
	out := make([]int, len(s))
	for i, r := range s {
		if r < '0' || r > '9' {
			return nil, false
		}
		out[i] = int(r - '0')
	}
	return out, true
}

func allSame(d []int) bool {
	for _, v := range d[1:] {
		if v != d[0] {
			return false
		}
	}
	return true
}

func validateCPF(s string) bool {
	d, ok := digits(s)
	if !ok || allSame(d) {
		return false
	}

	for n := 9; n <= 10; n++ {
		sum := 0
		for i := 0; i < n; i++ {
			sum += d[i] * (n + 1 - i)
		}
		check := sum * 10 % 11
		if check == 10 {
			check = 0
		}
		if check != d[n] {
			return false
		}
	}
	return true
}

var cnpjWeights = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}

func validateCNPJ(s string) bool {
	d, ok := digits(s)
	if !ok || allSame(d) {
		return false
	}

	for n := 12; n <= 13; n++ {
		weights := cnpjWeights[13-n:]
		sum := 0
		for i := 0; i < n; i++ {
			sum += d[i] * weights[i]
		}
		check := 0
		if r := sum % 11; r >= 2 {
			check = 11 - r
		}
		if check != d[n] {
			return false
		}
	}
	return true
}

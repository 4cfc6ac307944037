package auth

import "golang.org/x/crypto/bcrypt"

// bcryptCost - стоимость хеширования паролей сотрудников.
const bcryptCost = 8

// HashPassword хеширует пароль через bcrypt.
// Пароли длиннее 72 байт bcrypt отклоняет.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword сравнивает пароль с bcrypt-хешем.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Package apitoken реализует хеширование и проверку токена доступа к локальному API.
//
// В конфиге хранится только bcrypt-хеш токена; клиент UI передаёт сам токен
// в заголовке Authorization, и middleware сверяет его с хешем.
package apitoken

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hash возвращает bcrypt-хеш токена для записи в конфиг.
func Hash(token string) (string, error) {
	const op = "apitoken.Hash"
	hashed, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashed), nil
}

// Compare сравнивает bcrypt-хеш с предъявленным токеном.
//
// Возвращает nil, если токен соответствует хешу, иначе: ошибку.
func Compare(hash, token string) error {
	const op = "apitoken.Compare"
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Package jws реализует проверку подписанных транзакций магазина.
//
// Транзакция приходит в виде компактного JWS (ES256) с цепочкой сертификатов в заголовке x5c.
// Parser проверяет цепочку относительно доверенных корневых сертификатов и подпись ключом
// листового сертификата, после чего возвращает полезную нагрузку транзакции.
package jws

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/magabrotheeeer/phone-cleaner/internal/models"
)

// TransactionClaims описывает полезную нагрузку подписанной транзакции.
type TransactionClaims struct {
	TransactionID         string `json:"transactionId"`
	OriginalTransactionID string `json:"originalTransactionId,omitempty"`
	ProductID             string `json:"productId"`
	PurchaseDate          int64  `json:"purchaseDate"`
	ExpiresDate           *int64 `json:"expiresDate,omitempty"`
	RevocationDate        *int64 `json:"revocationDate,omitempty"`
	Type                  string `json:"type,omitempty"`
	Environment           string `json:"environment,omitempty"`
	jwt.RegisteredClaims
}

// ClaimsFromTransaction строит claims из доменной транзакции.
func ClaimsFromTransaction(tx models.Transaction) TransactionClaims {
	return TransactionClaims{
		TransactionID:         tx.TransactionID,
		OriginalTransactionID: tx.OriginalTransactionID,
		ProductID:             tx.ProductID,
		PurchaseDate:          tx.PurchaseDate,
		ExpiresDate:           tx.ExpiresDate,
		RevocationDate:        tx.RevocationDate,
		Type:                  tx.Type,
		Environment:           tx.Environment,
	}
}

// Transaction возвращает доменную транзакцию из claims.
func (c TransactionClaims) Transaction() models.Transaction {
	return models.Transaction{
		TransactionID:         c.TransactionID,
		OriginalTransactionID: c.OriginalTransactionID,
		ProductID:             c.ProductID,
		PurchaseDate:          c.PurchaseDate,
		ExpiresDate:           c.ExpiresDate,
		RevocationDate:        c.RevocationDate,
		Type:                  c.Type,
		Environment:           c.Environment,
	}
}

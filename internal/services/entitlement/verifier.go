// Package entitlement выводит набор подтверждённых прав из истории транзакций
// магазина и обрабатывает асинхронные обновления транзакций.
package entitlement

import (
	"errors"

	"github.com/magabrotheeeer/phone-cleaner/internal/models"
)

// Parser описывает контракт проверки подписи транзакции.
type Parser interface {
	Parse(signed string) (*models.Transaction, error)
}

// Verifier проверяет подписанные транзакции и отбрасывает неизвестные продукты.
type Verifier struct {
	parser   Parser
	products map[string]struct{}
}

// NewVerifier создает Verifier для каталога productIDs.
func NewVerifier(parser Parser, productIDs []string) *Verifier {
	products := make(map[string]struct{}, len(productIDs))
	for _, id := range productIDs {
		products[id] = struct{}{}
	}
	return &Verifier{
		parser:   parser,
		products: products,
	}
}

// Verify возвращает Verified с полезной нагрузкой или Unverified с причиной.
// Неподтверждённая транзакция никогда не даёт прав, что бы ни было в её полях.
func (v *Verifier) Verify(signed string) models.VerificationResult {
	tx, err := v.parser.Parse(signed)
	if err != nil {
		return unverified(err)
	}
	if tx.TransactionID == "" || tx.ProductID == "" {
		return unverified(errors.New("payload is missing transactionId or productId"))
	}
	if _, ok := v.products[tx.ProductID]; !ok {
		return unverified(models.ErrUnknownProduct)
	}
	return models.VerificationResult{
		Status:      models.Verified,
		Transaction: *tx,
	}
}

func unverified(err error) models.VerificationResult {
	return models.VerificationResult{
		Status: models.Unverified,
		Reason: err.Error(),
	}
}

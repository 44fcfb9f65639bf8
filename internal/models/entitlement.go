package models

import "time"

// Идентификаторы продуктов по умолчанию.
const (
	ProductWeekly   = "com.cleaner.subscription.weekly"
	ProductYearly   = "com.cleaner.subscription.yearly"
	ProductLifetime = "com.cleaner.lifetime"
)

// DefaultProductIDs возвращает каталог продуктов по умолчанию.
func DefaultProductIDs() []string {
	return []string{ProductWeekly, ProductYearly, ProductLifetime}
}

// Transaction: полезная нагрузка подписанной транзакции магазина.
// Даты передаются в миллисекундах с начала эпохи, как их отдаёт магазин.
type Transaction struct {
	TransactionID         string `json:"transactionId"`
	OriginalTransactionID string `json:"originalTransactionId,omitempty"`
	ProductID             string `json:"productId"`
	PurchaseDate          int64  `json:"purchaseDate"`
	ExpiresDate           *int64 `json:"expiresDate,omitempty"`
	RevocationDate        *int64 `json:"revocationDate,omitempty"`
	Type                  string `json:"type,omitempty"`
	Environment           string `json:"environment,omitempty"`
}

// PurchasedAt возвращает дату покупки.
func (t Transaction) PurchasedAt() time.Time {
	return time.UnixMilli(t.PurchaseDate)
}

// ExpiresAt возвращает дату окончания или nil, если транзакция бессрочная.
func (t Transaction) ExpiresAt() *time.Time {
	return millisPtr(t.ExpiresDate)
}

// Revoked сообщает, отозвана ли транзакция (возврат средств, семейный доступ).
func (t Transaction) Revoked() bool {
	return t.RevocationDate != nil
}

// ActiveAt сообщает, действует ли транзакция в момент now.
func (t Transaction) ActiveAt(now time.Time) bool {
	if t.Revoked() {
		return false
	}
	exp := t.ExpiresAt()
	return exp == nil || exp.After(now)
}

func millisPtr(ms *int64) *time.Time {
	if ms == nil {
		return nil
	}
	t := time.UnixMilli(*ms)
	return &t
}

// VerificationStatus: итог проверки транзакции.
type VerificationStatus string

const (
	// Verified: подпись и цепочка сертификатов подтверждены.
	Verified VerificationStatus = "verified"
	// Unverified: транзакцию нельзя считать подлинной.
	Unverified VerificationStatus = "unverified"
)

// VerificationResult: результат проверки транзакции: Verified(Transaction) или Unverified(Reason).
type VerificationResult struct {
	Status      VerificationStatus
	Transaction Transaction
	Reason      string
}

// IsVerified сообщает, подтверждена ли транзакция.
func (r VerificationResult) IsVerified() bool {
	return r.Status == Verified
}

// Entitlement: подтверждённое право на премиум-функции, выведенное из транзакции.
// Не сохраняется напрямую: в профиль попадает только его проекция в статус подписки.
type Entitlement struct {
	ProductID     string     `json:"productId"`
	TransactionID string     `json:"transactionId"`
	PurchaseDate  time.Time  `json:"purchaseDate"`
	ExpiresDate   *time.Time `json:"expiresDate,omitempty"`
}

// ProductInfo описывает продукт из каталога магазина.
type ProductInfo struct {
	ID           string `json:"id"`
	DisplayName  string `json:"display_name"`
	DisplayPrice string `json:"display_price"`
	Type         string `json:"type"`
}

package storekit

// Статусы ответа магазина на покупку.
const (
	StatusSuccess   = "success"
	StatusCancelled = "cancelled"
	StatusPending   = "pending"
	StatusFailed    = "failed"
)

// PurchaseRequest запрос на покупку продукта.
type PurchaseRequest struct {
	ProductID string `json:"product_id"`
}

// PurchaseResponse ответ магазина на покупку. При успехе содержит подписанную транзакцию.
type PurchaseResponse struct {
	Status            string `json:"status"`
	SignedTransaction string `json:"signed_transaction,omitempty"`
	Error             string `json:"error,omitempty"`
}

type productsResponse struct {
	Products []productDTO `json:"products"`
}

type productDTO struct {
	ID           string `json:"id"`
	DisplayName  string `json:"display_name"`
	DisplayPrice string `json:"display_price"`
	Type         string `json:"type"`
}

type transactionsResponse struct {
	SignedTransactions []string `json:"signed_transactions"`
}

// UpdateMessage сообщение очереди обновлений транзакций.
type UpdateMessage struct {
	SignedTransaction string `json:"signed_transaction"`
}

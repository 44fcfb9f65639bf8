package models

// PurchaseOutcome: исход покупки. Каждый вызывающий обязан обработать все варианты.
type PurchaseOutcome string

const (
	PurchaseSuccess   PurchaseOutcome = "success"
	PurchaseCancelled PurchaseOutcome = "cancelled"
	PurchasePending   PurchaseOutcome = "pending"
	PurchaseFailed    PurchaseOutcome = "failed"
)

// FailureKind уточняет причину неуспешной покупки.
type FailureKind string

const (
	FailureNone         FailureKind = ""
	FailureNetwork      FailureKind = "network"
	FailureVerification FailureKind = "verification"
	FailureStore        FailureKind = "store"
)

// PurchaseResult: размеченный результат покупки: Success | Cancelled | Pending | Failed(kind).
type PurchaseResult struct {
	Outcome   PurchaseOutcome    `json:"outcome"`
	ProductID string             `json:"product_id"`
	Failure   FailureKind        `json:"failure,omitempty"`
	Message   string             `json:"message,omitempty"`
	Status    SubscriptionStatus `json:"subscription_status"`
}

// Err возвращает сентинел-ошибку для неуспешных исходов или nil для успеха.
func (r PurchaseResult) Err() error {
	switch r.Outcome {
	case PurchaseSuccess:
		return nil
	case PurchaseCancelled:
		return ErrPurchaseCancelled
	case PurchasePending:
		return ErrPurchasePending
	case PurchaseFailed:
		switch r.Failure {
		case FailureNetwork:
			return ErrNetworkUnavailable
		case FailureVerification:
			return ErrVerificationFailed
		default:
			return ErrStoreFailed
		}
	default:
		return ErrStoreFailed
	}
}

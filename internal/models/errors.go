package models

import "errors"

var (
	// ErrVerificationFailed: транзакция не прошла проверку подписи или цепочки доверия.
	ErrVerificationFailed = errors.New("transaction verification failed")
	// ErrPurchasePending: покупка ожидает внешнего подтверждения.
	ErrPurchasePending = errors.New("purchase is pending approval")
	// ErrPurchaseCancelled: покупка отменена пользователем.
	ErrPurchaseCancelled = errors.New("purchase cancelled by user")
	// ErrNetworkUnavailable: магазин недоступен или не ответил вовремя.
	ErrNetworkUnavailable = errors.New("store is unavailable")
	// ErrQuotaExhausted: дневная бесплатная квота исчерпана.
	ErrQuotaExhausted = errors.New("daily free quota exhausted")
	// ErrInvalidIndex: индекс хранимого элемента вне границ группы.
	ErrInvalidIndex = errors.New("keep index out of range")
	// ErrPersistence: не удалось сохранить состояние в хранилище.
	ErrPersistence = errors.New("failed to persist state")
	// ErrTrialUnavailable: пробный период уже использован или недоступен в текущем статусе.
	ErrTrialUnavailable = errors.New("trial is not available")
	// ErrUnknownGroup: группа дубликатов не найдена.
	ErrUnknownGroup = errors.New("duplicate group not found")
	// ErrUnknownBatch: пакет удаления не найден или истёк.
	ErrUnknownBatch = errors.New("deletion batch not found")
	// ErrNegativeCount: отрицательное количество файлов.
	ErrNegativeCount = errors.New("count must not be negative")
	// ErrStoreFailed: магазин вернул ошибку.
	ErrStoreFailed = errors.New("store request failed")
	// ErrDeletionInProgress: элемент или набор групп занят незавершённым пакетом удаления.
	ErrDeletionInProgress = errors.New("deletion batch in progress")
	// ErrUnknownProduct: идентификатор продукта не входит в каталог.
	ErrUnknownProduct = errors.New("unknown product")
)

package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/magabrotheeeer/phone-cleaner/internal/lib/sl"
	"github.com/magabrotheeeer/phone-cleaner/internal/models"
	"github.com/magabrotheeeer/phone-cleaner/internal/services/subscription"
	"github.com/magabrotheeeer/phone-cleaner/internal/storekit"
)

// Products возвращает описания продуктов каталога.
func (e *Engine) Products(ctx context.Context) ([]models.ProductInfo, error) {
	const op = "engine.Products"
	ctx, cancel := e.storeContext(ctx)
	defer cancel()

	products, err := e.deps.Store.FetchProducts(ctx, e.cfg.ProductIDs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storeErr(err))
	}
	return products, nil
}

// Purchase покупает продукт и при успехе пересчитывает статус подписки.
// Каждый исход магазина отображается в один вариант PurchaseResult.
func (e *Engine) Purchase(ctx context.Context, productID string) models.PurchaseResult {
	const op = "engine.Purchase"
	log := e.log.With(slog.String("op", op), slog.String("product_id", productID))

	res := e.purchase(ctx, productID, log)
	e.deps.Metrics.Purchase(res)
	log.Info("purchase finished",
		slog.String("outcome", string(res.Outcome)),
		slog.String("failure", string(res.Failure)))
	return res
}

func (e *Engine) purchase(ctx context.Context, productID string, log *slog.Logger) models.PurchaseResult {
	res := models.PurchaseResult{ProductID: productID}

	if !slices.Contains(e.cfg.ProductIDs, productID) {
		res.Outcome = models.PurchaseFailed
		res.Failure = models.FailureStore
		res.Message = models.ErrUnknownProduct.Error()
		res.Status = e.currentStatus(ctx)
		return res
	}

	storeCtx, cancel := e.storeContext(ctx)
	resp, err := e.deps.Store.Purchase(storeCtx, productID)
	cancel()
	if err != nil {
		log.Error("store purchase request failed", sl.Err(err))
		res.Outcome = models.PurchaseFailed
		res.Failure = failureKind(err)
		res.Message = err.Error()
		res.Status = e.currentStatus(ctx)
		return res
	}

	switch resp.Status {
	case storekit.StatusCancelled:
		res.Outcome = models.PurchaseCancelled
		res.Status = e.currentStatus(ctx)
		return res
	case storekit.StatusPending:
		res.Outcome = models.PurchasePending
		res.Status = e.currentStatus(ctx)
		return res
	case storekit.StatusFailed:
		res.Outcome = models.PurchaseFailed
		res.Failure = models.FailureStore
		res.Message = resp.Error
		res.Status = e.currentStatus(ctx)
		return res
	case storekit.StatusSuccess:
	default:
		res.Outcome = models.PurchaseFailed
		res.Failure = models.FailureStore
		res.Message = fmt.Sprintf("unknown purchase status %q", resp.Status)
		res.Status = e.currentStatus(ctx)
		return res
	}

	verified := e.deps.Verifier.Verify(resp.SignedTransaction)
	if !verified.IsVerified() {
		log.Warn("purchased transaction failed verification", slog.String("reason", verified.Reason))
		res.Outcome = models.PurchaseFailed
		res.Failure = models.FailureVerification
		res.Message = verified.Reason
		res.Status = e.currentStatus(ctx)
		return res
	}
	tx := verified.Transaction

	ents, scanErr := e.deps.Entitlements.CurrentEntitlements(ctx)
	if scanErr != nil {
		log.Warn("entitlement scan after purchase failed, using purchased transaction", sl.Err(scanErr))
		ents = nil
	}
	if !containsProduct(ents, tx.ProductID) && tx.ActiveAt(e.deps.Tracker.Now()) {
		ents = append(ents, models.Entitlement{
			ProductID:     tx.ProductID,
			TransactionID: tx.TransactionID,
			PurchaseDate:  tx.PurchasedAt(),
			ExpiresDate:   tx.ExpiresAt(),
		})
	}

	p, err := e.ApplyEntitlements(ctx, ents, subscription.TriggerPurchase)
	if err != nil {
		log.Error("failed to apply purchase", sl.Err(err))
	}

	finishCtx, cancel := e.storeContext(ctx)
	if err := e.deps.Store.Finish(finishCtx, tx.TransactionID); err != nil {
		log.Warn("failed to finish purchased transaction", slog.String("transaction_id", tx.TransactionID), sl.Err(err))
	}
	cancel()

	res.Outcome = models.PurchaseSuccess
	res.Status = p.SubscriptionStatus
	return res
}

// Restore синхронизирует покупки с магазином и пересчитывает статус.
func (e *Engine) Restore(ctx context.Context) (models.UserProfile, error) {
	const op = "engine.Restore"

	storeCtx, cancel := e.storeContext(ctx)
	err := e.deps.Store.Sync(storeCtx)
	cancel()
	if err != nil {
		p, snapErr := e.Snapshot(ctx)
		return p, fmt.Errorf("%s: %w", op, errors.Join(storeErr(err), snapErr))
	}

	p, err := e.Refresh(ctx, subscription.TriggerRestore)
	if err != nil {
		return p, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func (e *Engine) currentStatus(ctx context.Context) models.SubscriptionStatus {
	p, _ := e.Snapshot(ctx)
	return p.SubscriptionStatus
}

func containsProduct(ents []models.Entitlement, productID string) bool {
	for _, ent := range ents {
		if ent.ProductID == productID {
			return true
		}
	}
	return false
}

func failureKind(err error) models.FailureKind {
	switch {
	case errors.Is(err, models.ErrNetworkUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return models.FailureNetwork
	case errors.Is(err, models.ErrVerificationFailed):
		return models.FailureVerification
	default:
		return models.FailureStore
	}
}

// storeErr приводит ошибки таймаута к models.ErrNetworkUnavailable.
func storeErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, models.ErrNetworkUnavailable) {
		return fmt.Errorf("%w: %w", models.ErrNetworkUnavailable, err)
	}
	return err
}

// Package engine владеет единственным профилем пользователя и применяет все
// его изменения последовательно в одной горутине.
//
// Запросы (авторизация удаления, учёт удалений, применение прав, покупка,
// обновления транзакций) передаются владельцу как замыкания и выполняются по
// одному, поэтому конкурентные вызовы не теряют изменений.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/phone-cleaner/internal/lib/sl"
	"github.com/magabrotheeeer/phone-cleaner/internal/models"
	"github.com/magabrotheeeer/phone-cleaner/internal/services/authorizer"
	"github.com/magabrotheeeer/phone-cleaner/internal/services/duplicates"
	"github.com/magabrotheeeer/phone-cleaner/internal/services/quota"
	"github.com/magabrotheeeer/phone-cleaner/internal/services/subscription"
	"github.com/magabrotheeeer/phone-cleaner/internal/storekit"
)

// ErrStopped возвращается, если движок не запущен или уже остановлен.
var ErrStopped = errors.New("engine is not running")

// ProfileStore описывает контракт хранилища профиля и истории очистки.
type ProfileStore interface {
	Load(ctx context.Context) models.UserProfile
	Save(ctx context.Context, p models.UserProfile) error
	AppendHistory(ctx context.Context, rec models.CleanupRecord) error
	History(ctx context.Context) []models.CleanupRecord
}

// Entitlements описывает контракт пересчёта текущих прав.
type Entitlements interface {
	CurrentEntitlements(ctx context.Context) ([]models.Entitlement, error)
}

// Store описывает контракт магазина.
type Store interface {
	FetchProducts(ctx context.Context, ids []string) ([]models.ProductInfo, error)
	Purchase(ctx context.Context, productID string) (storekit.PurchaseResponse, error)
	Sync(ctx context.Context) error
	Finish(ctx context.Context, transactionID string) error
}

// TransactionVerifier описывает контракт проверки подписанной транзакции.
type TransactionVerifier interface {
	Verify(signed string) models.VerificationResult
}

// Selector описывает контракт набора групп дубликатов.
type Selector interface {
	Load(groups []models.DuplicateGroup) []models.DuplicateGroup
	Group(id uuid.UUID) (models.DuplicateGroup, error)
	SetKeeper(id uuid.UUID, index int) (models.DuplicateGroup, error)
	Keepers() map[string]struct{}
	Plan(ids ...uuid.UUID) (duplicates.Plan, error)
	ApplyDeleted(ids []string) int
}

// Metrics описывает контракт метрик движка.
type Metrics interface {
	Authorization(d models.Decision, requested int)
	Deleted(n int)
	Purchase(r models.PurchaseResult)
	Transition(from, to models.SubscriptionStatus, legal bool)
	Status(s models.SubscriptionStatus)
}

// Config: параметры движка.
type Config struct {
	ProductIDs     []string
	TrialDuration  time.Duration
	ReservationTTL time.Duration
	StoreTimeout   time.Duration
	PersistTimeout time.Duration
}

// Deps: зависимости движка. Notifier может быть nil.
type Deps struct {
	Profiles     ProfileStore
	Entitlements Entitlements
	Store        Store
	Verifier     TransactionVerifier
	Selector     Selector
	Tracker      *quota.Tracker
	Authorizer   *authorizer.Authorizer
	Machine      *subscription.Machine
	Metrics      Metrics
	Notifier     Notifier
	Log          *slog.Logger
}

// Engine: единственный владелец UserProfile.
type Engine struct {
	cfg  Config
	deps Deps
	log  *slog.Logger

	requests chan func(ctx context.Context)
	ready    chan struct{}
	stopped  chan struct{}
	events   chan Event

	// Поля ниже принадлежат горутине Run.
	profile      models.UserProfile
	reservations map[uuid.UUID]*reservation
}

type reservation struct {
	batch models.DeletionBatch
	items map[string]models.PhotoItem
	// counted: пакет удерживает дневную квоту.
	counted bool
}

// New создает движок. Профиль загружается при запуске Run.
func New(cfg Config, deps Deps) *Engine {
	if cfg.ReservationTTL <= 0 {
		cfg.ReservationTTL = 10 * time.Minute
	}
	if cfg.PersistTimeout <= 0 {
		cfg.PersistTimeout = 5 * time.Second
	}
	if len(cfg.ProductIDs) == 0 {
		cfg.ProductIDs = models.DefaultProductIDs()
	}
	if deps.Notifier == nil {
		deps.Notifier = nopNotifier{}
	}
	return &Engine{
		cfg:          cfg,
		deps:         deps,
		log:          deps.Log,
		requests:     make(chan func(ctx context.Context)),
		ready:        make(chan struct{}),
		stopped:      make(chan struct{}),
		events:       make(chan Event, eventBuffer),
		reservations: make(map[uuid.UUID]*reservation),
	}
}

// Run загружает профиль и обрабатывает запросы до отмены ctx.
func (e *Engine) Run(ctx context.Context) {
	const op = "engine.Run"
	log := e.log.With(slog.String("op", op))

	defer close(e.stopped)

	e.profile = e.deps.Profiles.Load(ctx)
	e.deps.Metrics.Status(e.profile.SubscriptionStatus)
	log.Info("engine started",
		slog.String("status", string(e.profile.SubscriptionStatus)),
		slog.Int("files_deleted_today", e.profile.FilesDeletedToday))
	close(e.ready)

	dispatchDone := make(chan struct{})
	go func() {
		defer close(dispatchDone)
		e.dispatch(ctx)
	}()

	for {
		select {
		case <-ctx.Done():
			<-dispatchDone
			log.Info("engine stopped")
			return
		case fn := <-e.requests:
			fn(ctx)
		}
	}
}

// Ready закрывается, когда профиль загружен и движок принимает запросы.
func (e *Engine) Ready() <-chan struct{} {
	return e.ready
}

// Done закрывается после остановки Run.
func (e *Engine) Done() <-chan struct{} {
	return e.stopped
}

// do выполняет fn в горутине владельца и ждёт завершения.
// Если запрос принят, он выполняется целиком, даже если ctx отменён во время ожидания.
func (e *Engine) do(ctx context.Context, fn func(runCtx context.Context)) error {
	done := make(chan struct{})
	req := func(runCtx context.Context) {
		defer close(done)
		fn(runCtx)
	}
	select {
	case e.requests <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-e.stopped:
		return ErrStopped
	}
	<-done
	return nil
}

// persist синхронно сохраняет текущий профиль. Состояние в памяти не
// откатывается при ошибке, следующее успешное сохранение запишет его целиком.
func (e *Engine) persist(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.cfg.PersistTimeout)
	defer cancel()
	if err := e.deps.Profiles.Save(ctx, e.profile); err != nil {
		e.log.Error("failed to persist profile", slog.String("op", "engine.persist"), sl.Err(err))
		return err
	}
	return nil
}

// touch выполняет сброс счётчика при смене дня и сохраняет профиль, если он изменился.
func (e *Engine) touch(ctx context.Context) error {
	p, changed := e.deps.Tracker.ResetIfNewDay(e.profile)
	if !changed {
		return nil
	}
	e.profile = p
	e.log.Info("daily quota reset", slog.String("op", "engine.touch"))
	return e.persist(ctx)
}

func (e *Engine) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.cfg.StoreTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.cfg.StoreTimeout)
}

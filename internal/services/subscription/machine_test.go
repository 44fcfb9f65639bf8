package subscription_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/phone-cleaner/internal/lib/sl"
	"github.com/magabrotheeeer/phone-cleaner/internal/models"
	"github.com/magabrotheeeer/phone-cleaner/internal/services/subscription"
)

var now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func ptr(t time.Time) *time.Time { return &t }

func entitlements(ids ...string) []models.Entitlement {
	out := make([]models.Entitlement, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.Entitlement{ProductID: id, TransactionID: "tx-" + id, PurchaseDate: now.Add(-time.Hour)})
	}
	return out
}

func TestDerive(t *testing.T) {
	tests := []struct {
		name     string
		ents     []models.Entitlement
		trialEnd *time.Time
		want     models.SubscriptionStatus
	}{
		{"no entitlements no trial", nil, nil, models.StatusFree},
		{"active trial", nil, ptr(now.Add(time.Hour)), models.StatusTrial},
		{"lapsed trial", nil, ptr(now.Add(-time.Second)), models.StatusExpired},
		{"trial ends exactly now", nil, ptr(now), models.StatusExpired},
		{"one entitlement", entitlements(models.ProductWeekly), nil, models.StatusPremium},
		{"two entitlements", entitlements(models.ProductWeekly, models.ProductYearly), nil, models.StatusPremium},
		{"entitlement beats trial", entitlements(models.ProductLifetime), ptr(now.Add(time.Hour)), models.StatusPremium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, subscription.Derive(tt.ents, tt.trialEnd, now))
		})
	}
}

func TestAllowed(t *testing.T) {
	tests := []struct {
		from, to models.SubscriptionStatus
		want     bool
	}{
		{models.StatusFree, models.StatusTrial, true},
		{models.StatusTrial, models.StatusPremium, true},
		{models.StatusTrial, models.StatusExpired, true},
		{models.StatusPremium, models.StatusExpired, true},
		{models.StatusExpired, models.StatusPremium, true},
		{models.StatusFree, models.StatusPremium, true},
		{models.StatusPremium, models.StatusTrial, true},
		{models.StatusFree, models.StatusFree, true},
		{models.StatusFree, models.StatusExpired, false},
		{models.StatusExpired, models.StatusTrial, false},
		{models.StatusExpired, models.StatusFree, false},
		{models.StatusTrial, models.StatusFree, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, subscription.Allowed(tt.from, tt.to))
		})
	}
}

func TestMachine_Recompute(t *testing.T) {
	m := subscription.NewMachine(sl.Discard())

	t.Run("lazy trial expiry after background", func(t *testing.T) {
		p := models.UserProfile{SubscriptionStatus: models.StatusTrial, TrialEndDate: ptr(now.Add(-72 * time.Hour))}
		got, tr := m.Recompute(p, nil, now, subscription.TriggerForeground)
		assert.Equal(t, models.StatusExpired, got.SubscriptionStatus)
		assert.True(t, tr.Changed())
		assert.True(t, tr.Legal)
	})

	t.Run("purchase from expired", func(t *testing.T) {
		p := models.UserProfile{SubscriptionStatus: models.StatusExpired, TrialEndDate: ptr(now.Add(-time.Hour))}
		got, tr := m.Recompute(p, entitlements(models.ProductYearly), now, subscription.TriggerPurchase)
		assert.Equal(t, models.StatusPremium, got.SubscriptionStatus)
		assert.Equal(t, subscription.TriggerPurchase, tr.Trigger)
	})

	t.Run("lapsed premium without trial becomes expired", func(t *testing.T) {
		p := models.UserProfile{SubscriptionStatus: models.StatusPremium}
		got, tr := m.Recompute(p, nil, now, subscription.TriggerTransactionUpdate)
		assert.Equal(t, models.StatusExpired, got.SubscriptionStatus)
		assert.True(t, tr.Legal)
	})

	t.Run("expired stays expired", func(t *testing.T) {
		p := models.UserProfile{SubscriptionStatus: models.StatusExpired}
		got, tr := m.Recompute(p, nil, now, subscription.TriggerLaunch)
		assert.Equal(t, models.StatusExpired, got.SubscriptionStatus)
		assert.False(t, tr.Changed())
	})

	t.Run("quota fields untouched", func(t *testing.T) {
		p := models.UserProfile{SubscriptionStatus: models.StatusFree, FilesDeletedToday: 9, LastCleanupDate: ptr(now)}
		got, _ := m.Recompute(p, entitlements(models.ProductWeekly), now, subscription.TriggerRestore)
		assert.Equal(t, 9, got.FilesDeletedToday)
		assert.True(t, now.Equal(*got.LastCleanupDate))
	})
}

func TestStartTrial(t *testing.T) {
	p, err := subscription.StartTrial(models.DefaultProfile(), now, 72*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, models.StatusTrial, p.SubscriptionStatus)
	require.NotNil(t, p.TrialEndDate)
	assert.True(t, now.Add(72*time.Hour).Equal(*p.TrialEndDate))

	_, err = subscription.StartTrial(p, now, 72*time.Hour)
	assert.ErrorIs(t, err, models.ErrTrialUnavailable)

	_, err = subscription.StartTrial(models.UserProfile{SubscriptionStatus: models.StatusPremium}, now, time.Hour)
	assert.ErrorIs(t, err, models.ErrTrialUnavailable)

	_, err = subscription.StartTrial(models.DefaultProfile(), now, 0)
	assert.ErrorIs(t, err, models.ErrTrialUnavailable)
}

func TestTrigger_Valid(t *testing.T) {
	assert.True(t, subscription.TriggerLaunch.Valid())
	assert.False(t, subscription.Trigger("timer").Valid())
}

package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meghkala/api/internal/domain"
)

type fakeAlerts struct {
	mu     sync.Mutex
	alerts map[string]*domain.StockAlert
}

func newFakeAlerts() *fakeAlerts {
	return &fakeAlerts{alerts: make(map[string]*domain.StockAlert)}
}

func (f *fakeAlerts) Create(ctx context.Context, a *domain.StockAlert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.alerts {
		if existing.ProductID == a.ProductID && existing.Email == a.Email && existing.Status == domain.AlertPending {
			return domain.ErrDuplicateAlert
		}
	}
	f.alerts[a.ID] = a
	return nil
}

func (f *fakeAlerts) Get(ctx context.Context, id string) (*domain.StockAlert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.alerts[id]; ok {
		return a, nil
	}
	return nil, domain.ErrAlertNotFound
}

func (f *fakeAlerts) ListByEmail(ctx context.Context, email string) ([]domain.StockAlert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.StockAlert
	for _, a := range f.alerts {
		if a.Email == email {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAlerts) ListPendingByProduct(ctx context.Context, productID string) ([]domain.StockAlert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.StockAlert
	for _, a := range f.alerts {
		if a.ProductID == productID && a.Status == domain.AlertPending {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAlerts) List(ctx context.Context) ([]domain.StockAlert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.StockAlert
	for _, a := range f.alerts {
		out = append(out, *a)
	}
	return out, nil
}

func (f *fakeAlerts) MarkSent(ctx context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.alerts[id]
	if !ok {
		return domain.ErrAlertNotFound
	}
	a.Status = domain.AlertSent
	a.NotifiedAt = &at
	return nil
}

func (f *fakeAlerts) Cancel(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.alerts[id]
	if !ok {
		return domain.ErrAlertNotFound
	}
	a.Status = domain.AlertCancelled
	return nil
}

func newTestNotifications() (*NotificationService, *fakeAlerts, *fakeStore) {
	alerts := newFakeAlerts()
	store := newFakeStore()
	svc := NewNotificationService(alerts, store, nil, nil, nil)
	return svc, alerts, store
}

func TestStockAlertSubscribe(t *testing.T) {
	svc, _, store := newTestNotifications()
	seedProduct(store, "p1", 2500, 0, 0)

	t.Run("guest subscription", func(t *testing.T) {
		alert, err := svc.Subscribe(context.Background(), "p1", "Guest@Example.com", "")
		require.NoError(t, err)
		assert.Equal(t, "guest@example.com", alert.Email)
		assert.Empty(t, alert.UserID)
		assert.Equal(t, domain.AlertPending, alert.Status)
	})

	t.Run("duplicate pending alert conflicts", func(t *testing.T) {
		_, err := svc.Subscribe(context.Background(), "p1", "guest@example.com", "")
		assert.True(t, domain.IsCode(err, domain.ECONFLICT))
	})

	t.Run("unknown product", func(t *testing.T) {
		_, err := svc.Subscribe(context.Background(), "missing", "a@b.com", "u1")
		assert.True(t, domain.IsCode(err, domain.ENOTFOUND))
	})
}

func TestStockAlertCancel(t *testing.T) {
	svc, alerts, store := newTestNotifications()
	seedProduct(store, "p1", 2500, 0, 0)

	alert, err := svc.Subscribe(context.Background(), "p1", "a@b.com", "u1")
	require.NoError(t, err)

	t.Run("wrong subscriber is forbidden", func(t *testing.T) {
		err := svc.Cancel(context.Background(), alert.ID, "other@b.com")
		assert.True(t, domain.IsCode(err, domain.EFORBIDDEN))
	})

	t.Run("subscriber cancels, case-insensitive", func(t *testing.T) {
		require.NoError(t, svc.Cancel(context.Background(), alert.ID, "A@B.com"))
		assert.Equal(t, domain.AlertCancelled, alerts.alerts[alert.ID].Status)
	})
}

func TestNotifyRestock(t *testing.T) {
	svc, alerts, store := newTestNotifications()
	seedProduct(store, "p1", 2500, 0, 0)

	a1, err := svc.Subscribe(context.Background(), "p1", "one@b.com", "")
	require.NoError(t, err)
	a2, err := svc.Subscribe(context.Background(), "p1", "two@b.com", "")
	require.NoError(t, err)
	require.NoError(t, svc.Cancel(context.Background(), a2.ID, "two@b.com"))

	t.Run("no stock means no send", func(t *testing.T) {
		_, err := svc.NotifyRestock(context.Background(), "p1")
		assert.True(t, domain.IsCode(err, domain.EINVALID))
	})

	store.products["p1"].Quantity = 10

	t.Run("pending alerts are sent once", func(t *testing.T) {
		sent, err := svc.NotifyRestock(context.Background(), "p1")
		require.NoError(t, err)
		assert.Equal(t, 1, sent)
		assert.Equal(t, domain.AlertSent, alerts.alerts[a1.ID].Status)
		require.NotNil(t, alerts.alerts[a1.ID].NotifiedAt)
		assert.Equal(t, domain.AlertCancelled, alerts.alerts[a2.ID].Status)

		// Nothing pending remains
		sent, err = svc.NotifyRestock(context.Background(), "p1")
		require.NoError(t, err)
		assert.Equal(t, 0, sent)
	})
}

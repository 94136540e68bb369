package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/coffee_shop/internal/metrics"
	"github.com/Skotchmaster/coffee_shop/internal/models"
	"github.com/Skotchmaster/coffee_shop/internal/mykafka"
	"github.com/Skotchmaster/coffee_shop/internal/payment"
	"github.com/Skotchmaster/coffee_shop/internal/repo"
	"github.com/Skotchmaster/coffee_shop/internal/repo/repotest"
)

const (
	testKeySecret     = "key_secret"
	testWebhookSecret = "webhook_secret"
)

type publishedEvent struct {
	Topic string
	Key   string
	Event mykafka.Event
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (f *fakePublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	ev, _ := event.(mykafka.Event)
	f.events = append(f.events, publishedEvent{Topic: topic, Key: key, Event: ev})
	return nil
}

func (f *fakePublisher) types(topic string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, e := range f.events {
		if e.Topic == topic {
			out = append(out, e.Event.Type)
		}
	}
	return out
}

type fakeProvider struct {
	mu    sync.Mutex
	calls int
	err   error
	block bool
}

func (f *fakeProvider) CreateOrder(ctx context.Context, amount int64, currency, receipt string, _ map[string]string) (*payment.Order, error) {
	f.mu.Lock()
	f.calls++
	n, err, block := f.calls, f.err, f.block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	return &payment.Order{ID: fmt.Sprintf("order_%d", n), Amount: amount, Currency: currency, Receipt: receipt, Status: "created"}, nil
}

func (f *fakeProvider) KeyID() string { return "rzp_test" }

func (f *fakeProvider) set(err error, block bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err, f.block = err, block
}

type testEnv struct {
	Repo     *repo.GormRepo
	Events   *fakePublisher
	Provider *fakeProvider
	Now      time.Time

	Auth          *AuthService
	Accounts      *AccountService
	Catalog       *CatalogService
	Payments      *PaymentService
	Orders        *OrderService
	Subscriptions *SubscriptionService
	Cart          *CartService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		Repo:     &repo.GormRepo{DB: repotest.NewTestDB(t)},
		Events:   &fakePublisher{},
		Provider: &fakeProvider{},
		Now:      time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC),
	}
	now := func() time.Time { return env.Now }
	m := metrics.New(prometheus.NewRegistry())

	env.Auth = &AuthService{Repo: env.Repo, JWTSecret: []byte("test-secret-test-secret-test-sec"), TokenTTL: time.Hour, Events: env.Events, Now: now}
	env.Accounts = &AccountService{Repo: env.Repo}
	env.Catalog = &CatalogService{Repo: env.Repo, Events: env.Events, Now: now}
	env.Payments = &PaymentService{
		Repo:          env.Repo,
		Provider:      env.Provider,
		KeySecret:     testKeySecret,
		WebhookSecret: testWebhookSecret,
		Currency:      "INR",
		Timeout:       time.Second,
		Events:        env.Events,
		Metrics:       m,
	}
	env.Orders = &OrderService{Repo: env.Repo, Payments: env.Payments, Events: env.Events, Metrics: m}
	env.Subscriptions = &SubscriptionService{Repo: env.Repo, Payments: env.Payments, Events: env.Events, Metrics: m, Now: now}
	env.Cart = &CartService{Repo: env.Repo, Orders: env.Orders}
	return env
}

func (env *testEnv) account(t *testing.T, username, role string) Actor {
	t.Helper()
	acc := &models.Account{Username: username, Email: username + "@example.com", PasswordHash: "x", Role: role}
	require.NoError(t, env.Repo.CreateAccount(context.Background(), acc))
	return Actor{Username: username, Role: role}
}

func (env *testEnv) product(t *testing.T, name string, price int64, available bool) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Description: name + " description", Price: price, Category: "coffee", Available: available}
	require.NoError(t, env.Repo.CreateProduct(context.Background(), p))
	return p
}

func (env *testEnv) equipment(t *testing.T, name string, weekly, monthly, deposit int64, available bool) *models.Equipment {
	t.Helper()
	e := &models.Equipment{Name: name, WeeklyPrice: weekly, MonthlyPrice: monthly, Deposit: deposit, Available: available}
	require.NoError(t, env.Repo.CreateEquipment(context.Background(), e))
	return e
}

func (env *testEnv) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, env.Repo.DB.Model(model).Count(&n).Error)
	return n
}

var errProviderDown = errors.New("provider down")

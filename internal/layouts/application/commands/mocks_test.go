package commands

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/felixgeelhaar/layoutrack/internal/layouts/domain"
	"github.com/felixgeelhaar/layoutrack/internal/shared/infrastructure/outbox"
)

type txKey struct{}

// mockLayoutRepo is a mock implementation of domain.Repository.
type mockLayoutRepo struct {
	mock.Mock
}

func (m *mockLayoutRepo) Save(ctx context.Context, t *domain.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *mockLayoutRepo) FindByKey(ctx context.Context, key domain.Key) (domain.Task, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(domain.Task), args.Error(1)
}

func (m *mockLayoutRepo) FindByProject(ctx context.Context, projectID string) ([]domain.Task, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Task), args.Error(1)
}

func (m *mockLayoutRepo) FindAll(ctx context.Context) ([]domain.Task, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Task), args.Error(1)
}

func (m *mockLayoutRepo) AppendWeight(ctx context.Context, key domain.Key, w domain.WeeklyWeight) error {
	args := m.Called(ctx, key, w)
	return args.Error(0)
}

func (m *mockLayoutRepo) WeightHistory(ctx context.Context, key domain.Key, week string) ([]domain.WeeklyWeight, error) {
	args := m.Called(ctx, key, week)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.WeeklyWeight), args.Error(1)
}

// mockOutboxRepo is a mock implementation of outbox.Repository.
type mockOutboxRepo struct {
	mock.Mock
}

func (m *mockOutboxRepo) SaveBatch(ctx context.Context, msgs []*outbox.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *mockOutboxRepo) GetUnpublished(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *mockOutboxRepo) MarkPublished(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockOutboxRepo) MarkFailed(ctx context.Context, id int64, err string, nextRetryAt time.Time) error {
	args := m.Called(ctx, id, err, nextRetryAt)
	return args.Error(0)
}

func (m *mockOutboxRepo) MarkDead(ctx context.Context, id int64, reason string) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}

func (m *mockOutboxRepo) DeleteOld(ctx context.Context, olderThan time.Duration) (int64, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).(int64), args.Error(1)
}

// mockUnitOfWork is a mock implementation of UnitOfWork.
type mockUnitOfWork struct {
	mock.Mock
}

func (m *mockUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	args := m.Called(ctx)
	return args.Get(0).(context.Context), args.Error(1)
}

func (m *mockUnitOfWork) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockUnitOfWork) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// mockInvalidator records cache invalidations.
type mockInvalidator struct {
	mock.Mock
}

func (m *mockInvalidator) Invalidate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func date(s string) *time.Time {
	d, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return &d
}

func fixedNow() time.Time {
	return time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
}

type fixture struct {
	repo   *mockLayoutRepo
	outbox *mockOutboxRepo
	uow    *mockUnitOfWork
	cache  *mockInvalidator
	ctx    context.Context
	txCtx  context.Context
}

func newFixture() *fixture {
	ctx := context.Background()
	return &fixture{
		repo:   new(mockLayoutRepo),
		outbox: new(mockOutboxRepo),
		uow:    new(mockUnitOfWork),
		cache:  new(mockInvalidator),
		ctx:    ctx,
		txCtx:  context.WithValue(ctx, txKey{}, "transaction"),
	}
}

func (f *fixture) expectCommit() {
	f.uow.On("Begin", f.ctx).Return(f.txCtx, nil)
	f.uow.On("Commit", f.txCtx).Return(nil)
}

func (f *fixture) expectRollback() {
	f.uow.On("Begin", f.ctx).Return(f.txCtx, nil)
	f.uow.On("Rollback", f.txCtx).Return(nil)
}

func (f *fixture) assertExpectations(t mock.TestingT) {
	f.uow.AssertExpectations(t)
	f.repo.AssertExpectations(t)
	f.outbox.AssertExpectations(t)
	f.cache.AssertExpectations(t)
}

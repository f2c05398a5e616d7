package repository

import (
	"context"

	"github.com/stretchr/testify/mock"

	"movie-watchlist/internal/model"
)

type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) FindByID(ctx context.Context, id int64) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserStore) FindByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserStore) EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error) {
	args := m.Called(ctx, email, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserStore) UsernameTaken(ctx context.Context, username string, excludeID int64) (bool, error) {
	args := m.Called(ctx, username, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserStore) Create(ctx context.Context, u model.User) (model.User, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserStore) Update(ctx context.Context, u model.User) (model.User, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserStore) Delete(ctx context.Context, id int64) (model.DeletedUser, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.DeletedUser), args.Error(1)
}

func (m *MockUserStore) List(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) Create(ctx context.Context, s model.LoginSession) (model.LoginSession, error) {
	args := m.Called(ctx, s)
	return args.Get(0).(model.LoginSession), args.Error(1)
}

func (m *MockSessionStore) FindByToken(ctx context.Context, token string) (model.LoginSession, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(model.LoginSession), args.Error(1)
}

func (m *MockSessionStore) UpdateStatus(ctx context.Context, id int64, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

// MockWatchlistStore runs WithinTx callbacks against itself, so expectations set
// on the mock also cover statements issued inside the transaction.
type MockWatchlistStore struct {
	mock.Mock
}

func (m *MockWatchlistStore) WithinTx(ctx context.Context, fn func(store WatchlistStore) error) error {
	m.Called(ctx)
	return fn(m)
}

func (m *MockWatchlistStore) MovieExists(ctx context.Context, movieID int64) (bool, error) {
	args := m.Called(ctx, movieID)
	return args.Bool(0), args.Error(1)
}

func (m *MockWatchlistStore) Find(ctx context.Context, userID int64, movieID int64) (model.WatchlistEntry, error) {
	args := m.Called(ctx, userID, movieID)
	return args.Get(0).(model.WatchlistEntry), args.Error(1)
}

func (m *MockWatchlistStore) Insert(ctx context.Context, userID int64, movieID int64, status string) (model.WatchlistEntry, error) {
	args := m.Called(ctx, userID, movieID, status)
	return args.Get(0).(model.WatchlistEntry), args.Error(1)
}

func (m *MockWatchlistStore) UpdateStatus(ctx context.Context, userID int64, movieID int64, status string) (model.WatchlistEntry, error) {
	args := m.Called(ctx, userID, movieID, status)
	return args.Get(0).(model.WatchlistEntry), args.Error(1)
}

func (m *MockWatchlistStore) Delete(ctx context.Context, userID int64, movieID int64) (bool, error) {
	args := m.Called(ctx, userID, movieID)
	return args.Bool(0), args.Error(1)
}

func (m *MockWatchlistStore) DeleteMany(ctx context.Context, userID int64, movieIDs []int64) (int64, error) {
	args := m.Called(ctx, userID, movieIDs)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockWatchlistStore) List(ctx context.Context, query model.WatchlistQuery) (model.WatchlistPage, error) {
	args := m.Called(ctx, query)
	return args.Get(0).(model.WatchlistPage), args.Error(1)
}

func (m *MockWatchlistStore) Summary(ctx context.Context, userID int64) (model.WatchlistSummary, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(model.WatchlistSummary), args.Error(1)
}

type MockAuditStore struct {
	mock.Mock
}

func (m *MockAuditStore) Log(ctx context.Context, entry model.AuditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditStore) Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Get(1).(model.Meta), args.Error(2)
	}
	return args.Get(0).([]model.AuditEntry), args.Get(1).(model.Meta), args.Error(2)
}

package watchlist

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohammad-Azeem/catalyst-markets/internal/domain/stock"
	domain "github.com/Mohammad-Azeem/catalyst-markets/internal/domain/watchlist"
	"github.com/Mohammad-Azeem/catalyst-markets/internal/infra/cache"
)

type fakeWatchlistRepo struct {
	lists     map[int64]*domain.Watchlist
	members   map[int64]map[int64]bool
	listCalls int
}

func newFakeWatchlistRepo() *fakeWatchlistRepo {
	return &fakeWatchlistRepo{
		lists:   map[int64]*domain.Watchlist{},
		members: map[int64]map[int64]bool{},
	}
}

func (f *fakeWatchlistRepo) ListByUser(_ context.Context, userID string) ([]domain.Watchlist, error) {
	f.listCalls++
	out := []domain.Watchlist{}
	for _, w := range f.lists {
		if w.UserID == userID {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (f *fakeWatchlistRepo) GetByID(_ context.Context, id int64) (*domain.Watchlist, error) {
	w, ok := f.lists[id]
	if !ok {
		return nil, domain.ErrWatchlistNotFound
	}
	return w, nil
}

func (f *fakeWatchlistRepo) Create(_ context.Context, userID, name string) (*domain.Watchlist, error) {
	id := int64(len(f.lists) + 1)
	w := &domain.Watchlist{ID: id, UserID: userID, Name: name}
	f.lists[id] = w
	f.members[id] = map[int64]bool{}
	return w, nil
}

func (f *fakeWatchlistRepo) Delete(_ context.Context, id int64) error {
	delete(f.lists, id)
	delete(f.members, id)
	return nil
}

func (f *fakeWatchlistRepo) AddStock(_ context.Context, watchlistID, stockID int64) error {
	if f.members[watchlistID][stockID] {
		return domain.ErrAlreadyWatched
	}
	f.members[watchlistID][stockID] = true
	return nil
}

func (f *fakeWatchlistRepo) RemoveStock(_ context.Context, watchlistID, stockID int64) error {
	if !f.members[watchlistID][stockID] {
		return domain.ErrNotWatched
	}
	delete(f.members[watchlistID], stockID)
	return nil
}

type fakeStockRepo struct {
	bySymbol map[string]*stock.Stock
}

func (f *fakeStockRepo) List(_ context.Context, _ stock.ListFilter) (*stock.ListResult, error) {
	return &stock.ListResult{}, nil
}

func (f *fakeStockRepo) Search(_ context.Context, _ string, _ int) ([]stock.Stock, error) {
	return nil, nil
}

func (f *fakeStockRepo) GetBySymbol(_ context.Context, symbol string) (*stock.Stock, error) {
	st, ok := f.bySymbol[symbol]
	if !ok {
		return nil, stock.ErrStockNotFound
	}
	return st, nil
}

func (f *fakeStockRepo) Create(_ context.Context, s *stock.Stock) (*stock.Stock, error) {
	return s, nil
}

func (f *fakeStockRepo) UpdatePrice(_ context.Context, _ stock.PriceUpdate) error {
	return nil
}

func (f *fakeStockRepo) ListTracked(_ context.Context, _ int) ([]stock.Stock, error) {
	return nil, nil
}

func newTestService(t *testing.T) (*Service, *fakeWatchlistRepo, *fakeStockRepo) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := cache.NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	repo := newFakeWatchlistRepo()
	stocks := &fakeStockRepo{bySymbol: map[string]*stock.Stock{}}
	return NewService(repo, stocks, c), repo, stocks
}

func TestListForUserCaches(t *testing.T) {
	svc, repo, _ := newTestService(t)
	repo.lists[1] = &domain.Watchlist{ID: 1, UserID: "alice", Name: "Tech"}

	first, err := svc.ListForUser(context.Background(), "alice")
	require.NoError(t, err)
	assert.Len(t, first, 1)

	// Second read comes from the cache, not the repository.
	second, err := svc.ListForUser(context.Background(), "alice")
	require.NoError(t, err)
	assert.Len(t, second, 1)
	assert.Equal(t, 1, repo.listCalls)
}

func TestCreateInvalidatesListCache(t *testing.T) {
	svc, repo, _ := newTestService(t)

	_, err := svc.ListForUser(context.Background(), "alice")
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), "alice", "Energy")
	require.NoError(t, err)

	lists, err := svc.ListForUser(context.Background(), "alice")
	require.NoError(t, err)
	assert.Len(t, lists, 1)
	assert.Equal(t, 2, repo.listCalls)
}

func TestCreateRejectsInvalidName(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), "alice", "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidName)
}

func TestGetEnforcesOwnership(t *testing.T) {
	svc, repo, _ := newTestService(t)
	repo.lists[1] = &domain.Watchlist{ID: 1, UserID: "alice", Name: "Tech"}

	_, err := svc.Get(context.Background(), "bob", 1)
	assert.ErrorIs(t, err, domain.ErrNotOwner)

	_, err = svc.Get(context.Background(), "bob", 99)
	assert.ErrorIs(t, err, domain.ErrWatchlistNotFound)
}

func TestAddStockNormalizesSymbol(t *testing.T) {
	svc, repo, stocks := newTestService(t)
	repo.lists[1] = &domain.Watchlist{ID: 1, UserID: "alice", Name: "Tech"}
	repo.members[1] = map[int64]bool{}
	stocks.bySymbol["RELIANCE.NS"] = &stock.Stock{ID: 3, Symbol: "RELIANCE.NS"}

	err := svc.AddStock(context.Background(), "alice", 1, " reliance.ns ")
	require.NoError(t, err)
	assert.True(t, repo.members[1][3])

	err = svc.AddStock(context.Background(), "alice", 1, "RELIANCE.NS")
	assert.ErrorIs(t, err, domain.ErrAlreadyWatched)
}

func TestRemoveStockNotWatched(t *testing.T) {
	svc, repo, stocks := newTestService(t)
	repo.lists[1] = &domain.Watchlist{ID: 1, UserID: "alice", Name: "Tech"}
	repo.members[1] = map[int64]bool{}
	stocks.bySymbol["AAPL"] = &stock.Stock{ID: 5, Symbol: "AAPL"}

	err := svc.RemoveStock(context.Background(), "alice", 1, "AAPL")
	assert.ErrorIs(t, err, domain.ErrNotWatched)
}

func TestAddStockUnknownSymbol(t *testing.T) {
	svc, repo, _ := newTestService(t)
	repo.lists[1] = &domain.Watchlist{ID: 1, UserID: "alice", Name: "Tech"}

	err := svc.AddStock(context.Background(), "alice", 1, "NOPE")
	assert.ErrorIs(t, err, stock.ErrStockNotFound)
}

package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcade-profiles/internal/config"
	"github.com/arcade-profiles/internal/domain"
	"github.com/arcade-profiles/internal/memstore"
	"github.com/arcade-profiles/internal/profile"
)

type recordingHub struct {
	mu         sync.Mutex
	highscores map[string][]domain.RankEntry
	updates    []*domain.RankEntry
}

func (h *recordingHub) BroadcastHighscores(gameName string, entries []domain.RankEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.highscores == nil {
		h.highscores = make(map[string][]domain.RankEntry)
	}
	h.highscores[gameName] = entries
}

func (h *recordingHub) BroadcastPlayerUpdate(_ string, entry *domain.RankEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.updates = append(h.updates, entry)
}

// failingLedger reports every level lookup as failed
type failingLedger struct {
	*memstore.Store
}

func (failingLedger) MaxLevel(context.Context, string, string) (int64, error) {
	return 0, errors.New("ledger unavailable")
}

type fixture struct {
	svc   *ArcadeService
	store *memstore.Store
	cfg   *config.Config
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	store := memstore.New()
	return newFixtureWith(t, store, store, store, opts...)
}

func newFixtureWith(t *testing.T, store *memstore.Store, players PlayerStore, ledger Ledger, opts ...Option) *fixture {
	t.Helper()
	cfg := config.DefaultConfig()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := profile.NewEngine(ledger, &cfg.Profiles, logger)
	svc := NewArcadeService(players, ledger, engine, &cfg.Leaderboard, &cfg.Profiles, logger, opts...)
	return &fixture{svc: svc, store: store, cfg: cfg}
}

func (f *fixture) register(t *testing.T, badge, name string) *domain.Player {
	t.Helper()
	p, err := f.svc.Register(context.Background(), domain.RegisterRequest{BadgeID: badge, Name: name})
	require.NoError(t, err)
	return p
}

func (f *fixture) submit(t *testing.T, ref, game string, result domain.SessionResult) *domain.SubmitResult {
	t.Helper()
	res, err := f.svc.SubmitScore(context.Background(), domain.ScoreSubmission{PlayerID: ref, GameName: game, Result: result})
	require.NoError(t, err)
	return res
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	login, err := f.svc.LoginOrPrompt(ctx, "B1")
	require.NoError(t, err)
	assert.True(t, login.RegistrationRequired)
	assert.Nil(t, login.Player)
	assert.Equal(t, "B1", login.BadgeID)

	p := f.register(t, " B1 ", " Ann ")
	assert.Equal(t, "B1", p.BadgeID)
	assert.Equal(t, "Ann", p.Name)
	assert.NotEmpty(t, p.ID)

	_, err = f.svc.Register(ctx, domain.RegisterRequest{BadgeID: "B1", Name: "Other"})
	assert.ErrorIs(t, err, domain.ErrBadgeRegistered)
	assert.True(t, domain.IsConflictError(err))

	login, err = f.svc.LoginOrPrompt(ctx, "B1")
	require.NoError(t, err)
	assert.False(t, login.RegistrationRequired)
	require.NotNil(t, login.Player)
	assert.Equal(t, p.ID, login.Player.ID)
}

func TestGetPlayer_ByBadgeOrID(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.register(t, "B1", "Ann")

	byBadge, err := f.svc.GetPlayer(ctx, "B1")
	require.NoError(t, err)
	byID, err := f.svc.GetPlayer(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, byBadge.ID, byID.ID)

	_, err = f.svc.GetPlayer(ctx, "nobody")
	assert.True(t, domain.IsNotFoundError(err))
}

func TestGetPlatformProfile_NewPlayer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "B1", "Ann")

	profile, err := f.svc.GetPlatformProfile(ctx, "B1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), profile.Coins)
	assert.Equal(t, []int{1}, profile.UnlockedLevels)
	assert.Equal(t, 1, profile.HighestLevelReached)

	// seeding is persisted and never repeated
	stored, err := f.store.GetPlayerByBadge(ctx, "B1")
	require.NoError(t, err)
	require.Contains(t, stored.GameStats, domain.GamePlatform)
	assert.True(t, stored.GameStats[domain.GamePlatform].Seeded)

	again, err := f.svc.GetPlatformProfile(ctx, "B1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), again.Coins)
}

func TestGetPlatformProfile_UnlocksFromLedger(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "B1", "Ann")

	_, err := f.svc.GetPlatformProfile(ctx, "B1")
	require.NoError(t, err)

	f.submit(t, "B1", domain.GamePlatform, domain.SessionResult{Level: 1, Score: 100})
	f.submit(t, "B1", domain.GamePlatform, domain.SessionResult{Level: 3, Score: 900})

	profile, err := f.svc.GetPlatformProfile(ctx, "B1")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4}, profile.UnlockedLevels)
	assert.Equal(t, 3, profile.HighestLevelReached)

	stored, err := f.store.GetPlayerByBadge(ctx, "B1")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4}, stored.GameStats[domain.GamePlatform].Platform.UnlockedLevels)
}

func TestSubmitScore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.register(t, "B1", "Ann")

	first := f.submit(t, "B1", "tetris", domain.SessionResult{Score: 300, CoinsEarned: 10, Level: 2})
	assert.True(t, first.IsNewHighscore)
	assert.Equal(t, int64(300), first.Record.Score)
	assert.Equal(t, int64(2), first.Record.Level)
	assert.Equal(t, p.ID, first.Record.PlayerID)
	assert.NotZero(t, first.Record.ID)

	second := f.submit(t, p.ID, "tetris", domain.SessionResult{Score: 300, CoinsEarned: 10})
	assert.False(t, second.IsNewHighscore)
	assert.Equal(t, int64(1), second.Record.Level)

	stored, err := f.store.GetPlayerByID(ctx, p.ID)
	require.NoError(t, err)
	stats := stored.GameStats["tetris"]
	assert.Equal(t, int64(20), stats.Coins)
	assert.Equal(t, int64(2), stats.GamesPlayed)
	assert.Equal(t, int64(300), stats.Highscore)
	assert.Equal(t, int64(600), stored.TotalScore)
	assert.Equal(t, int64(2), stored.GamesPlayed)

	_, err = f.svc.SubmitScore(ctx, domain.ScoreSubmission{PlayerID: "ghost", GameName: "tetris"})
	assert.ErrorIs(t, err, domain.ErrPlayerNotFound)

	_, err = f.svc.SubmitScore(ctx, domain.ScoreSubmission{PlayerID: "B1", GameName: " "})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestSubmitScore_ShooterOutcome(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "B1", "Ann")

	outcome := domain.SessionOutcome{
		PlayerID:           "B1",
		GameName:           domain.GameShooter,
		Score:              "1200",
		CoinsEarned:        15.0,
		AsteroidsDestroyed: 30.0,
		Accuracy:           0.8,
		SurvivalTime:       95.0,
		ShipUsed:           "falcon",
	}
	_, err := f.svc.SubmitScore(ctx, outcome.ToSubmission())
	require.NoError(t, err)

	profile, err := f.svc.GetShooterProfile(ctx, "B1")
	require.NoError(t, err)
	assert.Equal(t, int64(1015), profile.Coins)
	assert.Equal(t, int64(1200), profile.BestScore)
	assert.Equal(t, int64(30), profile.TotalAsteroidsDestroyed)
	assert.Equal(t, 0.8, profile.BestAccuracy)
	assert.Equal(t, 95.0, profile.AverageSurvivalTime)
	assert.Equal(t, "falcon", profile.FavoriteShip)
	assert.Equal(t, int64(1200), profile.AverageScore)
}

func TestPurchase(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "B1", "Ann")

	result, err := f.svc.PurchaseSkin(ctx, "B1", domain.PurchaseRequest{ItemID: "ninja", Cost: 150})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, domain.ReasonInsufficientCoins, result.Reason)

	profile, err := f.svc.GetPlatformProfile(ctx, "B1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), profile.Coins)

	result, err = f.svc.PurchaseAbility(ctx, "B1", domain.PurchaseRequest{ItemID: "dash", Cost: 30})
	require.NoError(t, err)
	require.True(t, result.Success)

	result, err = f.svc.PurchaseAbility(ctx, "B1", domain.PurchaseRequest{ItemID: "dash", Cost: 30})
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonAlreadyOwned, result.Reason)

	profile, err = f.svc.GetPlatformProfile(ctx, "B1")
	require.NoError(t, err)
	assert.Equal(t, int64(70), profile.Coins)
	assert.Equal(t, []string{"dash"}, profile.OwnedAbilities)

	_, err = f.svc.PurchaseSkin(ctx, "B1", domain.PurchaseRequest{ItemID: "", Cost: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestEquipSkin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "B1", "Ann")

	_, err := f.svc.EquipSkin(ctx, "B1", "ninja")
	assert.ErrorIs(t, err, domain.ErrNotOwned)

	_, err = f.svc.PurchaseSkin(ctx, "B1", domain.PurchaseRequest{ItemID: "ninja", Cost: 40})
	require.NoError(t, err)

	profile, err := f.svc.EquipSkin(ctx, "B1", "ninja")
	require.NoError(t, err)
	assert.Equal(t, "ninja", profile.EquippedSkin)
}

func TestUpdateAndUnlock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "B1", "Ann")

	coins := int64(-10)
	profile, err := f.svc.UpdatePlatformProfile(ctx, "B1", domain.PlatformProfileUpdate{
		Coins:          &coins,
		UnlockedLevels: []any{2, "1", 2.0},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), profile.Coins)
	assert.Equal(t, []int{1, 2}, profile.UnlockedLevels)

	profile, err = f.svc.UnlockLevel(ctx, "B1", 5)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 5}, profile.UnlockedLevels)
	assert.Equal(t, 5, profile.HighestLevelReached)

	_, err = f.svc.UnlockLevel(ctx, "B1", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestCompleteLevel(t *testing.T) {
	ctx := context.Background()
	hub := &recordingHub{}
	f := newFixture(t, WithBroadcaster(hub))
	p := f.register(t, "B1", "Ann")

	result, err := f.svc.CompleteLevel(ctx, "B1", domain.LevelCompletion{Level: 1, Score: 500, GearsCollected: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(60), result.CoinsEarned)
	assert.Equal(t, int64(160), result.Profile.Coins)
	assert.Equal(t, []int{1, 2}, result.Profile.UnlockedLevels)
	assert.Equal(t, domain.GamePlatform, result.Record.GameName)

	maxLevel, err := f.store.MaxLevel(ctx, p.ID, domain.GamePlatform)
	require.NoError(t, err)
	assert.Equal(t, int64(1), maxLevel)

	require.Len(t, hub.highscores[domain.GamePlatform], 1)
	assert.Equal(t, "Ann", hub.highscores[domain.GamePlatform][0].Name)
	require.Len(t, hub.updates, 1)
	assert.Equal(t, int64(1), hub.updates[0].Rank)
}

func TestSyncLevels_LedgerFailureIsNotAnError(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	f := newFixtureWith(t, store, store, failingLedger{store})
	f.register(t, "B1", "Ann")

	_, err := f.svc.GetPlatformProfile(ctx, "B1")
	require.NoError(t, err)

	profile, err := f.svc.SyncLevels(ctx, "B1")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, profile.UnlockedLevels)
}

func TestHighscoresAndRank(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ann := f.register(t, "B1", "Ann")
	bob := f.register(t, "B2", "Bob")

	f.submit(t, "B1", domain.GamePlatform, domain.SessionResult{Level: 2, Score: 100})
	f.submit(t, "B2", domain.GamePlatform, domain.SessionResult{Level: 1, Score: 9000})
	f.submit(t, "B2", domain.GamePlatform, domain.SessionResult{Level: 1, Score: 50})

	entries, err := f.svc.GetHighscores(ctx, domain.GamePlatform, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ann.ID, entries[0].PlayerID)
	assert.Equal(t, bob.ID, entries[1].PlayerID)
	assert.Equal(t, int64(9000), entries[1].Score)

	rank, err := f.svc.GetPlayerRank(ctx, domain.GamePlatform, "B2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), rank.Rank)
	assert.Equal(t, int64(9000), rank.Score)
	assert.Equal(t, int64(1), rank.Level)
	assert.Equal(t, "Bob", rank.Name)

	_, err = f.svc.GetPlayerRank(ctx, domain.GameShooter, "B2")
	assert.ErrorIs(t, err, domain.ErrPlayerNotFound)

	scores, err := f.svc.GetPlayerScores(ctx, "B2", domain.GamePlatform, 10)
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, int64(9000), scores[0].Score)
}

func TestPlayerRank_OutOfRangeScoresKeepLevelOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ann := f.register(t, "B1", "Ann")
	f.register(t, "B2", "Bob")

	f.submit(t, "B1", domain.GamePlatform, domain.SessionResult{Level: 2, Score: 10})
	f.submit(t, "B2", domain.GamePlatform, domain.SessionResult{Level: 1, Score: 2_000_000_000})

	entries, err := f.svc.GetHighscores(ctx, domain.GamePlatform, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ann.ID, entries[0].PlayerID)

	annRank, err := f.svc.GetPlayerRank(ctx, domain.GamePlatform, "B1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), annRank.Rank)

	bobRank, err := f.svc.GetPlayerRank(ctx, domain.GamePlatform, "B2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), bobRank.Rank)
	assert.Equal(t, int64(1), bobRank.Level)
	assert.Equal(t, int64(2_000_000_000), bobRank.Score)
}

func TestSubmitScore_HugeValuesSaturate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.register(t, "B1", "Ann")

	f.submit(t, "B1", "tetris", domain.SessionResult{Score: 5e18})
	f.submit(t, "B1", "tetris", domain.SessionResult{Score: 5e18})

	stored, err := f.store.GetPlayerByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), stored.TotalScore)

	outcome := domain.SessionOutcome{
		PlayerID:    "B1",
		GameName:    domain.GamePlatform,
		Score:       100,
		CoinsEarned: "9223372036854775808",
	}
	f.submit(t, "B1", domain.GamePlatform, outcome.ToSubmission().Result)

	profile, err := f.svc.GetPlatformProfile(ctx, "B1")
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), profile.Coins)
}

func TestShooterLeaderboardAndAnalytics(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "B1", "Ann")

	for _, score := range []int64{100, 400, 250} {
		f.submit(t, "B1", domain.GameShooter, domain.SessionResult{Score: score})
	}

	_, err := f.svc.GetShooterLeaderboard(ctx, "speed", 10)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	board, err := f.svc.GetShooterLeaderboard(ctx, domain.ShooterCategoryScore, 10)
	require.NoError(t, err)
	require.Len(t, board, 1)
	assert.Equal(t, int64(400), board[0].Score)

	analytics, err := f.svc.GetShooterAnalytics(ctx, "B1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), analytics.TotalGames)
	assert.Equal(t, int64(400), analytics.BestScore)
	assert.Equal(t, int64(250), analytics.AverageScore)
	assert.Len(t, analytics.RecentGames, 3)
	assert.Equal(t, int64(1000), analytics.Coins)
}

// racingStore lets another writer win the first save of every player
type racingStore struct {
	*memstore.Store
	raced bool
}

func (r *racingStore) UpdatePlayer(ctx context.Context, player *domain.Player) error {
	if !r.raced {
		r.raced = true
		rival, err := r.Store.GetPlayerByID(ctx, player.ID)
		if err != nil {
			return err
		}
		rival.TotalScore += 1000
		if err := r.Store.UpdatePlayer(ctx, rival); err != nil {
			return err
		}
	}
	return r.Store.UpdatePlayer(ctx, player)
}

// conflictingStore loses every save
type conflictingStore struct {
	*memstore.Store
	attempts int
}

func (c *conflictingStore) UpdatePlayer(context.Context, *domain.Player) error {
	c.attempts++
	return domain.ErrVersionConflict
}

func TestMutatePlayer_RetriesOnConflict(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	racing := &racingStore{Store: store}
	f := newFixtureWith(t, store, racing, store)
	f.register(t, "B1", "Ann")

	f.submit(t, "B1", "tetris", domain.SessionResult{Score: 5})

	stored, err := store.GetPlayerByBadge(ctx, "B1")
	require.NoError(t, err)
	assert.Equal(t, int64(1005), stored.TotalScore)
	assert.Equal(t, int64(1), stored.GameStats["tetris"].GamesPlayed)
}

func TestMutatePlayer_GivesUpAfterRetries(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	conflicting := &conflictingStore{Store: store}
	f := newFixtureWith(t, store, conflicting, store)
	f.register(t, "B1", "Ann")

	_, err := f.svc.UnlockLevel(ctx, "B1", 3)
	assert.ErrorIs(t, err, domain.ErrVersionConflict)
	assert.Equal(t, f.cfg.Profiles.WriteRetries+1, conflicting.attempts)
}

func TestListPlayers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "B1", "Ann")
	f.register(t, "B2", "Bob")
	f.submit(t, "B2", "tetris", domain.SessionResult{Score: 50})

	players, err := f.svc.ListPlayers(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, players, 2)
	assert.Equal(t, "Bob", players[0].Name)
}

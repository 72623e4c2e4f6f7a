package dao

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var testDB *gorm.DB

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Printf("skipping store tests, docker unavailable: %v", err)
		os.Exit(0)
	}
	if err = pool.Client.Ping(); err != nil {
		log.Printf("skipping store tests, docker unavailable: %v", err)
		os.Exit(0)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=loto",
			"POSTGRES_PASSWORD=secret",
			"POSTGRES_DB=loto_test",
			"listen_addresses='*'",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("could not start postgres: %v", err)
	}
	_ = resource.Expire(120)

	dsn := fmt.Sprintf("postgres://loto:secret@%s/loto_test?sslmode=disable", resource.GetHostPort("5432/tcp"))

	pool.MaxWait = 60 * time.Second
	if err = pool.Retry(func() error {
		testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
			SkipDefaultTransaction: true,
		})
		if err != nil {
			return err
		}
		sqlDB, err := testDB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Ping()
	}); err != nil {
		log.Fatalf("could not connect to postgres: %v", err)
	}

	code := m.Run()

	if err = pool.Purge(resource); err != nil {
		log.Printf("could not purge postgres: %v", err)
	}

	os.Exit(code)
}

func resetTables(t *testing.T) {
	t.Helper()

	require.NoError(t, dropAllTables(testDB))
	require.NoError(t, InitTables(testDB))
}

func findRound(t *testing.T, id uuid.UUID) Round {
	t.Helper()

	var round Round
	require.NoError(t, testDB.Take(&round, "id = ?", id).Error)

	return round
}

func countTickets(t *testing.T, roundID uuid.UUID) int64 {
	t.Helper()

	var count int64
	require.NoError(t, testDB.Model(&Ticket{}).Where("round_id = ?", roundID).Count(&count).Error)

	return count
}

func newTicket(owner string) Ticket {
	return Ticket{
		OwnerID:    owner,
		PersonalID: "ID-" + owner,
		Numbers:    pq.Int64Array{1, 2, 3, 4, 5, 6},
	}
}

func TestRoundDAO_Lifecycle(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	rounds := NewRoundDAO(testDB)
	tickets := NewTicketDAO(testDB)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	_, _, found, err := rounds.Summary(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	_, err = tickets.InsertIntoActiveRound(ctx, newTicket("u1"), now)
	assert.ErrorIs(t, err, ErrNoActiveRound)

	first, err := rounds.Open(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, first.Status)
	assert.False(t, first.CreatedAt.IsZero())

	created, err := tickets.InsertIntoActiveRound(ctx, newTicket("u1"), now.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, first.ID, created.RoundID)

	round, count, found, err := rounds.Summary(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, first.ID, round.ID)
	assert.Equal(t, int64(1), count)

	closed, ok, err := rounds.Close(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first.ID, closed.ID)
	assert.Equal(t, StatusClosed, closed.Status)
	require.NotNil(t, closed.ClosedAt)
	assert.False(t, closed.ClosedAt.Before(first.CreatedAt))

	_, ok, err = rounds.Close(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	round, count, found, err = rounds.Summary(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, first.ID, round.ID)
	assert.Equal(t, StatusClosed, round.Status)
	assert.Equal(t, int64(1), count)
	assert.Nil(t, round.DrawnNumbers)

	_, err = tickets.InsertIntoActiveRound(ctx, newTicket("u2"), now.Add(3*time.Minute))
	assert.ErrorIs(t, err, ErrNoActiveRound)

	view, err := tickets.FindView(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, view.RoundStatus)
	assert.Equal(t, StatusClosed, *view.RoundStatus)
	assert.Nil(t, view.DrawnNumbers)

	published, err := rounds.Publish(ctx, []int64{7, 8, 9, 10, 11, 12})
	require.NoError(t, err)
	assert.Equal(t, first.ID, published.ID)

	_, err = rounds.Publish(ctx, []int64{1, 2, 3, 4, 5, 6})
	assert.ErrorIs(t, err, ErrNoPendingRound)

	view, err = tickets.FindView(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, pq.Int64Array{7, 8, 9, 10, 11, 12}, view.DrawnNumbers)

	round, count, found, err = rounds.Summary(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, first.ID, round.ID)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, pq.Int64Array{7, 8, 9, 10, 11, 12}, round.DrawnNumbers)

	latest, err := rounds.LatestDrawnNumbers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 8, 9, 10, 11, 12}, latest)
}

func TestRoundDAO_OpenClosesPrevious(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	rounds := NewRoundDAO(testDB)

	first, err := rounds.Open(ctx)
	require.NoError(t, err)
	second, err := rounds.Open(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	prev := findRound(t, first.ID)
	assert.Equal(t, StatusClosed, prev.Status)
	require.NotNil(t, prev.ClosedAt)
	assert.False(t, second.CreatedAt.Before(*prev.ClosedAt))

	round, count, found, err := rounds.Summary(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, second.ID, round.ID)
	assert.Zero(t, count)

	_, err = rounds.Publish(ctx, []int64{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)

	assert.Equal(t, pq.Int64Array{1, 2, 3, 4, 5, 6}, findRound(t, first.ID).DrawnNumbers)
}

func TestRoundDAO_PublishTargetsLastClosedRound(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	rounds := NewRoundDAO(testDB)
	tickets := NewTicketDAO(testDB)

	first, err := rounds.Open(ctx)
	require.NoError(t, err)
	_, ok, err := rounds.Close(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	second, err := rounds.Open(ctx)
	require.NoError(t, err)

	// Ticket timestamps come from the caller; a caller clock running behind
	// must not change which round is closed last.
	skewed := time.Now().UTC().Add(-time.Hour)
	_, err = tickets.InsertIntoActiveRound(ctx, newTicket("u1"), skewed)
	require.NoError(t, err)

	closed, ok, err := rounds.Close(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, second.ID, closed.ID)

	prev := findRound(t, first.ID)
	require.NotNil(t, prev.ClosedAt)
	require.NotNil(t, closed.ClosedAt)
	assert.True(t, closed.ClosedAt.After(*prev.ClosedAt))

	published, err := rounds.Publish(ctx, []int64{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)
	assert.Equal(t, second.ID, published.ID)
	assert.Nil(t, findRound(t, first.ID).DrawnNumbers)

	round, count, found, err := rounds.Summary(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, second.ID, round.ID)
	assert.Equal(t, int64(1), count)
}

func TestRoundDAO_PublishWithoutClosedRound(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	rounds := NewRoundDAO(testDB)

	_, err := rounds.Publish(ctx, []int64{1, 2, 3, 4, 5, 6})
	assert.ErrorIs(t, err, ErrNoPendingRound)

	_, err = rounds.Open(ctx)
	require.NoError(t, err)

	_, err = rounds.Publish(ctx, []int64{1, 2, 3, 4, 5, 6})
	assert.ErrorIs(t, err, ErrNoPendingRound)

	latest, err := rounds.LatestDrawnNumbers(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestRoundDAO_ConcurrentOpenKeepsSingleActive(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	rounds := NewRoundDAO(testDB)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := rounds.Open(ctx)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	var active int64
	require.NoError(t, testDB.Model(&Round{}).Where("status = ?", StatusActive).Count(&active).Error)
	assert.Equal(t, int64(1), active)
}

func TestRoundDAO_ConcurrentPublishOnce(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	rounds := NewRoundDAO(testDB)

	_, err := rounds.Open(ctx)
	require.NoError(t, err)
	_, ok, err := rounds.Close(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		pending   int
	)
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func(n int64) {
			defer wg.Done()
			_, err := rounds.Publish(ctx, []int64{n + 1, n + 2, n + 3, n + 4, n + 5, n + 6})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrNoPendingRound):
				pending++
			}
		}(int64(i))
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 5, pending)
}

func TestTicketDAO_CloseRace(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	rounds := NewRoundDAO(testDB)
	tickets := NewTicketDAO(testDB)

	round, err := rounds.Open(ctx)
	require.NoError(t, err)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int64
		rejected int64
	)
	start := make(chan struct{})
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, err := tickets.InsertIntoActiveRound(ctx, newTicket(fmt.Sprintf("u%d", i)), time.Now().UTC())
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				accepted++
			} else if errors.Is(err, ErrNoActiveRound) {
				rejected++
			}
		}(i)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-start
		_, _, err := rounds.Close(ctx)
		assert.NoError(t, err)
	}()
	close(start)
	wg.Wait()

	assert.Equal(t, int64(20), accepted+rejected)

	assert.Equal(t, accepted, countTickets(t, round.ID))

	_, err = tickets.InsertIntoActiveRound(ctx, newTicket("late"), time.Now().UTC())
	assert.ErrorIs(t, err, ErrNoActiveRound)
}

func TestTicketDAO_LongOwnerID(t *testing.T) {
	resetTables(t)
	ctx := context.Background()

	_, err := NewRoundDAO(testDB).Open(ctx)
	require.NoError(t, err)

	ticket := newTicket("u1")
	ticket.OwnerID = "oidc|" + strings.Repeat("x", 500)
	created, err := NewTicketDAO(testDB).InsertIntoActiveRound(ctx, ticket, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, ticket.OwnerID, created.OwnerID)
}

func TestRoundDeleteIsRestricted(t *testing.T) {
	resetTables(t)
	ctx := context.Background()

	round, err := NewRoundDAO(testDB).Open(ctx)
	require.NoError(t, err)
	_, err = NewTicketDAO(testDB).InsertIntoActiveRound(ctx, newTicket("u1"), time.Now().UTC())
	require.NoError(t, err)

	assert.Error(t, testDB.Delete(&Round{}, "id = ?", round.ID).Error)
	assert.Equal(t, int64(1), countTickets(t, round.ID))
}

func TestTicketDAO_FindViewNotFound(t *testing.T) {
	resetTables(t)

	_, err := NewTicketDAO(testDB).FindView(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestTranslate(t *testing.T) {
	assert.Nil(t, translate(nil))
	assert.ErrorIs(t, translate(ErrNoActiveRound), ErrNoActiveRound)
	assert.ErrorIs(t, translate(errors.New("boom")), ErrPersistence)
	assert.False(t, isTransient(context.Canceled))
}

//go:build integration

package postgres_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Xausdorf/vietqr-gateway/internal/domain/entity"
	"github.com/Xausdorf/vietqr-gateway/internal/domain/repository"
	"github.com/Xausdorf/vietqr-gateway/internal/domain/vietqr"
	"github.com/Xausdorf/vietqr-gateway/internal/infrastructure/metrics"
	"github.com/Xausdorf/vietqr-gateway/internal/infrastructure/postgres"
	"github.com/Xausdorf/vietqr-gateway/internal/usecase/issue"
)

func startPostgres(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("vietqr"),
		tcpostgres.WithUsername("vietqr"),
		tcpostgres.WithPassword("vietqr_secret"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		termCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if termErr := container.Terminate(termCtx); termErr != nil {
			t.Logf("terminate postgres container: %v", termErr)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

func TestRepositories_Postgres(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dsn := startPostgres(ctx, t)
	require.NoError(t, postgres.Migrate(dsn))
	require.NoError(t, postgres.Migrate(dsn), "second run must be a no-op")

	pool, err := postgres.NewPool(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	uow := postgres.NewUnitOfWork(pool)

	t.Run("issuance_round_trip", func(t *testing.T) {
		cfg := vietqr.Config{
			AcquirerBIN:   "970415",
			BeneficiaryID: "100609903929",
			Mode:          vietqr.Dynamic,
			AccountTarget: true,
			Amount:        "200000",
		}
		iss := entity.NewIssuance(cfg, "NAPAS1234", "payload-1")

		tx, err := uow.Begin(ctx)
		require.NoError(t, err)
		require.NoError(t, tx.Issuances().Create(ctx, iss))
		require.NoError(t, tx.Idempotency().Save(ctx, entity.NewIdempotencyRecord("round-trip", iss.ID())))
		require.NoError(t, tx.Commit(ctx))

		found, err := uow.Issuances().FindByID(ctx, iss.ID())
		require.NoError(t, err)
		assert.Equal(t, cfg, found.Config())
		assert.Equal(t, "NAPAS1234", found.BillNumber())
		assert.Equal(t, "payload-1", found.Payload())

		rec, err := uow.Idempotency().Find(ctx, "round-trip")
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, iss.ID(), rec.IssuanceID())
	})

	t.Run("not_found", func(t *testing.T) {
		_, err := uow.Issuances().FindByID(ctx, uuid.New())
		require.ErrorIs(t, err, repository.ErrNotFound)

		rec, err := uow.Idempotency().Find(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, rec)
	})

	t.Run("concurrent_retries_issue_once", func(t *testing.T) {
		uc := issue.NewUseCase(uow, metrics.New(prometheus.NewRegistry()))
		key := uuid.NewString()

		const goroutines = 10
		var wg sync.WaitGroup
		ids := make([]uuid.UUID, goroutines)

		wg.Add(goroutines)
		for i := range goroutines {
			go func(idx int) {
				defer wg.Done()
				resp, execErr := uc.Execute(ctx, issue.Request{
					IdempotencyKey: key,
					AcquirerBIN:    "970415",
					BeneficiaryID:  "100609903929",
					InitiationMode: "DYNAMIC",
					AccountTarget:  true,
					Amount:         "1000",
				})
				if assert.NoError(t, execErr) {
					ids[idx] = resp.IssuanceID
				}
			}(i)
		}
		wg.Wait()

		for i := range goroutines {
			assert.Equal(t, ids[0], ids[i], "response %d has a different issuance", i)
		}

		var count int
		err := pool.QueryRow(ctx, `SELECT count(*) FROM idempotency_keys WHERE key = $1`, key).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

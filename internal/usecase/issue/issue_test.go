package issue_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Xausdorf/vietqr-gateway/internal/domain/entity"
	"github.com/Xausdorf/vietqr-gateway/internal/domain/repository"
	"github.com/Xausdorf/vietqr-gateway/internal/domain/vietqr"
	"github.com/Xausdorf/vietqr-gateway/internal/infrastructure/metrics"
	"github.com/Xausdorf/vietqr-gateway/internal/usecase/issue"
	"github.com/Xausdorf/vietqr-gateway/internal/usecase/issue/mocks"
)

func newRecorder(t *testing.T) (*metrics.Metrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return metrics.New(reg), reg
}

func dynamicRequest(key string) issue.Request {
	return issue.Request{
		IdempotencyKey: key,
		AcquirerBIN:    "970415",
		BeneficiaryID:  "100609903929",
		InitiationMode: "dynamic",
		AccountTarget:  true,
		Amount:         "200000",
	}
}

func TestIssueUseCase_Execute_Idempotency(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uow := mocks.NewMockUnitOfWork(ctrl)
	idempotencyRepo := mocks.NewMockIdempotencyRepository(ctrl)
	issuanceRepo := mocks.NewMockIssuanceRepository(ctrl)
	recorder, _ := newRecorder(t)

	uc := issue.NewUseCase(uow, recorder)

	cfg := vietqr.Config{
		AcquirerBIN:   "970415",
		BeneficiaryID: "100609903929",
		Mode:          vietqr.Dynamic,
		AccountTarget: true,
		Amount:        "200000",
	}
	stored := entity.ReconstructIssuance(uuid.New(), cfg, "NAPAS0042", "cached-payload", time.Time{})
	record := entity.ReconstructIdempotencyRecord("test-key", stored.ID(), time.Time{})

	uow.EXPECT().Idempotency().Return(idempotencyRepo)
	idempotencyRepo.EXPECT().Find(gomock.Any(), "test-key").Return(record, nil)
	uow.EXPECT().Issuances().Return(issuanceRepo)
	issuanceRepo.EXPECT().FindByID(gomock.Any(), stored.ID()).Return(stored, nil)

	resp, err := uc.Execute(context.Background(), dynamicRequest("test-key"))

	require.NoError(t, err)
	assert.True(t, resp.Replayed)
	assert.Equal(t, stored.ID(), resp.IssuanceID)
	assert.Equal(t, "cached-payload", resp.Payload)
	assert.Equal(t, "NAPAS0042", resp.Components.BillNumber)
}

func TestIssueUseCase_Execute_SuccessfulIssue(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uow := mocks.NewMockUnitOfWork(ctrl)
	txUow := mocks.NewMockUnitOfWork(ctrl)
	issuanceRepo := mocks.NewMockIssuanceRepository(ctrl)
	idempotencyRepo := mocks.NewMockIdempotencyRepository(ctrl)
	recorder, reg := newRecorder(t)

	uc := issue.NewUseCase(uow, recorder)

	uow.EXPECT().Idempotency().Return(idempotencyRepo)
	idempotencyRepo.EXPECT().Find(gomock.Any(), "new-key").Return(nil, nil)

	uow.EXPECT().Begin(gomock.Any()).Return(txUow, nil)
	txUow.EXPECT().Rollback(gomock.Any()).Return(nil)

	txUow.EXPECT().Idempotency().Return(idempotencyRepo).Times(3)
	idempotencyRepo.EXPECT().Lock(gomock.Any(), "new-key").Return(nil)
	idempotencyRepo.EXPECT().Find(gomock.Any(), "new-key").Return(nil, nil)

	var created *entity.Issuance
	txUow.EXPECT().Issuances().Return(issuanceRepo)
	issuanceRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, iss *entity.Issuance) error {
			created = iss
			return nil
		},
	)
	idempotencyRepo.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, rec *entity.IdempotencyRecord) error {
			assert.Equal(t, "new-key", rec.Key())
			assert.Equal(t, created.ID(), rec.IssuanceID())
			return nil
		},
	)
	txUow.EXPECT().Commit(gomock.Any()).Return(nil)

	resp, err := uc.Execute(context.Background(), dynamicRequest("new-key"))

	require.NoError(t, err)
	assert.False(t, resp.Replayed)
	assert.Equal(t, vietqr.Dynamic, resp.Mode)
	assert.Equal(t, created.ID(), resp.IssuanceID)
	assert.Equal(t, created.Payload(), resp.Payload)
	assert.True(t, strings.HasPrefix(resp.Payload, "000201010212"))
	assert.Contains(t, resp.Payload, "5406200000")
	assert.Regexp(t, `^NAPAS\d{4}$`, resp.BillNumber)
	assert.Equal(t, "5406200000", resp.Components.Amount)

	body := resp.Payload[:len(resp.Payload)-4]
	assert.Equal(t, vietqr.Checksum(body), resp.Payload[len(resp.Payload)-4:])

	issued, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, issued, 1)
	assert.Equal(t, "vietqr_payloads_issued_total", issued[0].GetName())
}

func TestIssueUseCase_Execute_StaticIgnoresAmount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uow := mocks.NewMockUnitOfWork(ctrl)
	txUow := mocks.NewMockUnitOfWork(ctrl)
	issuanceRepo := mocks.NewMockIssuanceRepository(ctrl)
	idempotencyRepo := mocks.NewMockIdempotencyRepository(ctrl)
	recorder, _ := newRecorder(t)

	uc := issue.NewUseCase(uow, recorder)

	uow.EXPECT().Idempotency().Return(idempotencyRepo)
	idempotencyRepo.EXPECT().Find(gomock.Any(), "static-key").Return(nil, nil)
	uow.EXPECT().Begin(gomock.Any()).Return(txUow, nil)
	txUow.EXPECT().Rollback(gomock.Any()).Return(nil)
	txUow.EXPECT().Idempotency().Return(idempotencyRepo).Times(3)
	idempotencyRepo.EXPECT().Lock(gomock.Any(), "static-key").Return(nil)
	idempotencyRepo.EXPECT().Find(gomock.Any(), "static-key").Return(nil, nil)
	txUow.EXPECT().Issuances().Return(issuanceRepo)
	issuanceRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	idempotencyRepo.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
	txUow.EXPECT().Commit(gomock.Any()).Return(nil)

	req := dynamicRequest("static-key")
	req.InitiationMode = "whatever"
	req.Amount = "not-a-number"

	resp, err := uc.Execute(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, vietqr.Static, resp.Mode)
	assert.Empty(t, resp.Components.Amount)
	assert.Empty(t, resp.Components.AdditionalData)
	assert.True(t, strings.HasPrefix(resp.Payload, "000201010211"))
}

func TestIssueUseCase_Execute_InvalidAmount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uow := mocks.NewMockUnitOfWork(ctrl)
	recorder, reg := newRecorder(t)

	uc := issue.NewUseCase(uow, recorder)

	req := dynamicRequest("bad-amount-key")
	req.Amount = "-5"

	_, err := uc.Execute(context.Background(), req)

	require.ErrorIs(t, err, issue.ErrInvalidAmount)
	count, gatherErr := testutil.GatherAndCount(reg, "vietqr_issue_failures_total")
	require.NoError(t, gatherErr)
	assert.Equal(t, 1, count)
}

func TestIssueUseCase_Execute_MissingIdempotencyKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uow := mocks.NewMockUnitOfWork(ctrl)
	recorder, _ := newRecorder(t)

	uc := issue.NewUseCase(uow, recorder)

	_, err := uc.Execute(context.Background(), dynamicRequest(""))

	require.ErrorIs(t, err, issue.ErrIdempotencyKeyRequired)
}

func TestIssueUseCase_Execute_LengthOutOfRange(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uow := mocks.NewMockUnitOfWork(ctrl)
	txUow := mocks.NewMockUnitOfWork(ctrl)
	idempotencyRepo := mocks.NewMockIdempotencyRepository(ctrl)
	recorder, _ := newRecorder(t)

	uc := issue.NewUseCase(uow, recorder)

	uow.EXPECT().Idempotency().Return(idempotencyRepo)
	idempotencyRepo.EXPECT().Find(gomock.Any(), "empty-beneficiary").Return(nil, nil)
	uow.EXPECT().Begin(gomock.Any()).Return(txUow, nil)
	txUow.EXPECT().Rollback(gomock.Any()).Return(nil)
	txUow.EXPECT().Idempotency().Return(idempotencyRepo).Times(2)
	idempotencyRepo.EXPECT().Lock(gomock.Any(), "empty-beneficiary").Return(nil)
	idempotencyRepo.EXPECT().Find(gomock.Any(), "empty-beneficiary").Return(nil, nil)

	req := dynamicRequest("empty-beneficiary")
	req.BeneficiaryID = ""

	_, err := uc.Execute(context.Background(), req)

	require.ErrorIs(t, err, vietqr.ErrLengthOutOfRange)
}

func TestIssueUseCase_Execute_CreateFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uow := mocks.NewMockUnitOfWork(ctrl)
	txUow := mocks.NewMockUnitOfWork(ctrl)
	issuanceRepo := mocks.NewMockIssuanceRepository(ctrl)
	idempotencyRepo := mocks.NewMockIdempotencyRepository(ctrl)
	recorder, _ := newRecorder(t)

	uc := issue.NewUseCase(uow, recorder)

	uow.EXPECT().Idempotency().Return(idempotencyRepo)
	idempotencyRepo.EXPECT().Find(gomock.Any(), "db-down").Return(nil, nil)
	uow.EXPECT().Begin(gomock.Any()).Return(txUow, nil)
	txUow.EXPECT().Rollback(gomock.Any()).Return(nil)
	txUow.EXPECT().Idempotency().Return(idempotencyRepo).Times(2)
	idempotencyRepo.EXPECT().Lock(gomock.Any(), "db-down").Return(nil)
	idempotencyRepo.EXPECT().Find(gomock.Any(), "db-down").Return(nil, nil)
	txUow.EXPECT().Issuances().Return(issuanceRepo)
	issuanceRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("connection reset"))

	_, err := uc.Execute(context.Background(), dynamicRequest("db-down"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestIssueUseCase_Get_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uow := mocks.NewMockUnitOfWork(ctrl)
	issuanceRepo := mocks.NewMockIssuanceRepository(ctrl)
	recorder, _ := newRecorder(t)

	uc := issue.NewUseCase(uow, recorder)

	id := uuid.New()
	uow.EXPECT().Issuances().Return(issuanceRepo)
	issuanceRepo.EXPECT().FindByID(gomock.Any(), id).Return(nil, repository.ErrNotFound)

	_, err := uc.Get(context.Background(), id)

	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestValidateAmount(t *testing.T) {
	valid := []string{"", "1", "200000", "9999999999999"}
	for _, amount := range valid {
		t.Run("valid_"+amount, func(t *testing.T) {
			assert.NoError(t, issue.ValidateAmount(amount))
		})
	}

	invalid := []string{"0", "-5", "1.5", "200000.00", "0200", "1e5", "abc", "+10", "10000000000000"}
	for _, amount := range invalid {
		t.Run("invalid_"+amount, func(t *testing.T) {
			assert.ErrorIs(t, issue.ValidateAmount(amount), issue.ErrInvalidAmount)
		})
	}
}

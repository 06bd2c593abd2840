package grpc

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Xausdorf/vietqr-gateway/internal/domain/repository"
	"github.com/Xausdorf/vietqr-gateway/internal/domain/vietqr"
	"github.com/Xausdorf/vietqr-gateway/internal/usecase/issue"
)

type Handler struct {
	issueUC *issue.UseCase
}

func NewHandler(issueUC *issue.UseCase) *Handler {
	return &Handler{issueUC: issueUC}
}

func (h *Handler) Issue(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	key := fields["idempotency_key"].GetStringValue()
	if key == "" {
		return nil, status.Error(codes.InvalidArgument, "idempotency_key is required")
	}

	resp, err := h.issueUC.Execute(ctx, issue.Request{
		IdempotencyKey: key,
		AcquirerBIN:    fields["bank_bin"].GetStringValue(),
		BeneficiaryID:  fields["account_no"].GetStringValue(),
		InitiationMode: fields["initiation_mode"].GetStringValue(),
		AccountTarget:  fields["account_target"].GetBoolValue(),
		Amount:         fields["amount"].GetStringValue(),
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(resp)
}

func (h *Handler) Get(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := uuid.Parse(req.GetFields()["issuance_id"].GetStringValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid issuance_id")
	}

	resp, err := h.issueUC.Get(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(resp)
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, issue.ErrIdempotencyKeyRequired),
		errors.Is(err, issue.ErrInvalidAmount),
		errors.Is(err, vietqr.ErrLengthOutOfRange):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		return status.Error(codes.NotFound, "issuance not found")
	default:
		return status.Errorf(codes.Internal, "issue failed: %v", err)
	}
}

func toStruct(resp *issue.Response) (*structpb.Struct, error) {
	c := resp.Components
	return structpb.NewStruct(map[string]any{
		"issuance_id":     resp.IssuanceID.String(),
		"payload":         resp.Payload,
		"bill_number":     resp.BillNumber,
		"initiation_mode": resp.Mode.String(),
		"replayed":        resp.Replayed,
		"components": map[string]any{
			"payload_format":      c.PayloadFormat,
			"point_of_initiation": c.PointOfInitiation,
			"merchant_account":    c.MerchantAccount,
			"currency":            c.Currency,
			"amount":              c.Amount,
			"country":             c.Country,
			"additional_data":     c.AdditionalData,
			"bill_number":         c.BillNumber,
		},
	})
}

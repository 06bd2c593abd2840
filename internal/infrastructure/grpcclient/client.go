package grpcclient

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	grpcdelivery "github.com/Xausdorf/vietqr-gateway/internal/delivery/grpc"
	"github.com/Xausdorf/vietqr-gateway/internal/domain/vietqr"
)

type IssueRequest struct {
	IdempotencyKey string
	BankBIN        string
	AccountNo      string
	InitiationMode string
	AccountTarget  bool
	Amount         string
}

type Issuance struct {
	IssuanceID     string
	Payload        string
	BillNumber     string
	InitiationMode string
	Replayed       bool
	Components     vietqr.Components
}

type Client struct {
	conn *grpc.ClientConn
}

// NewClient dials without TLS unless opts supply other credentials.
func NewClient(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) Issue(ctx context.Context, req IssueRequest) (*Issuance, error) {
	in, err := structpb.NewStruct(map[string]any{
		"idempotency_key": req.IdempotencyKey,
		"bank_bin":        req.BankBIN,
		"account_no":      req.AccountNo,
		"initiation_mode": req.InitiationMode,
		"account_target":  req.AccountTarget,
		"amount":          req.Amount,
	})
	if err != nil {
		return nil, err
	}

	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, grpcdelivery.IssueFullMethod, in, out); err != nil {
		return nil, err
	}
	return fromStruct(out), nil
}

func (c *Client) Get(ctx context.Context, issuanceID string) (*Issuance, error) {
	in, err := structpb.NewStruct(map[string]any{"issuance_id": issuanceID})
	if err != nil {
		return nil, err
	}

	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, grpcdelivery.GetFullMethod, in, out); err != nil {
		return nil, err
	}
	return fromStruct(out), nil
}

func fromStruct(s *structpb.Struct) *Issuance {
	f := s.GetFields()
	c := f["components"].GetStructValue().GetFields()
	return &Issuance{
		IssuanceID:     f["issuance_id"].GetStringValue(),
		Payload:        f["payload"].GetStringValue(),
		BillNumber:     f["bill_number"].GetStringValue(),
		InitiationMode: f["initiation_mode"].GetStringValue(),
		Replayed:       f["replayed"].GetBoolValue(),
		Components: vietqr.Components{
			PayloadFormat:     c["payload_format"].GetStringValue(),
			PointOfInitiation: c["point_of_initiation"].GetStringValue(),
			MerchantAccount:   c["merchant_account"].GetStringValue(),
			Currency:          c["currency"].GetStringValue(),
			Amount:            c["amount"].GetStringValue(),
			Country:           c["country"].GetStringValue(),
			AdditionalData:    c["additional_data"].GetStringValue(),
			BillNumber:        c["bill_number"].GetStringValue(),
		},
	}
}

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/Xausdorf/vietqr-gateway/internal/domain/vietqr"
	"github.com/Xausdorf/vietqr-gateway/internal/infrastructure/grpcclient"
	"github.com/Xausdorf/vietqr-gateway/internal/infrastructure/qrgenerator"
	"github.com/Xausdorf/vietqr-gateway/internal/usecase/issue"
)

const remoteTimeout = 10 * time.Second

type options struct {
	bin        string
	account    string
	mode       string
	card       bool
	amount     string
	components bool
	pngPath    string
	size       int
	addr       string
	key        string
}

type result struct {
	Payload    string             `json:"payload"`
	Components *vietqr.Components `json:"components,omitempty"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("qrctl", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var o options
	fs.StringVar(&o.bin, "bin", "", "acquirer BIN, e.g. 970415")
	fs.StringVar(&o.account, "account", "", "beneficiary account or card number")
	fs.StringVar(&o.mode, "mode", "STATIC", "initiation mode: STATIC or DYNAMIC")
	fs.BoolVar(&o.card, "card", false, "target a card number instead of an account")
	fs.StringVar(&o.amount, "amount", "", "amount in VND, dynamic mode only")
	fs.BoolVar(&o.components, "components", false, "print every encoded segment as JSON")
	fs.StringVar(&o.pngPath, "png", "", "also write the QR image to this file")
	fs.IntVar(&o.size, "size", 256, "QR image size in pixels")
	fs.StringVar(&o.addr, "addr", "", "issue through a running gateway at this gRPC address")
	fs.StringVar(&o.key, "key", "", "idempotency key for -addr (random when empty)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if o.bin == "" || o.account == "" {
		fmt.Fprintln(stderr, "qrctl: -bin and -account are required")
		fs.Usage()
		return 2
	}

	var (
		res result
		err error
	)
	if o.addr != "" {
		res, err = issueRemote(o)
	} else {
		res, err = encodeLocal(o)
	}
	if err != nil {
		fmt.Fprintf(stderr, "qrctl: %v\n", err)
		return 1
	}

	if o.pngPath != "" {
		png, renderErr := qrgenerator.NewGenerator(o.size).Render(res.Payload)
		if renderErr != nil {
			fmt.Fprintf(stderr, "qrctl: render: %v\n", renderErr)
			return 1
		}
		if writeErr := os.WriteFile(o.pngPath, png, 0o644); writeErr != nil {
			fmt.Fprintf(stderr, "qrctl: %v\n", writeErr)
			return 1
		}
	}

	if !o.components {
		fmt.Fprintln(stdout, res.Payload)
		return 0
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		fmt.Fprintf(stderr, "qrctl: %v\n", err)
		return 1
	}
	return 0
}

func encodeLocal(o options) (result, error) {
	cfg := vietqr.Config{
		AcquirerBIN:   o.bin,
		BeneficiaryID: o.account,
		Mode:          vietqr.ParseInitiationMode(o.mode),
		AccountTarget: !o.card,
		Amount:        o.amount,
	}
	if cfg.Mode == vietqr.Dynamic {
		if err := issue.ValidateAmount(cfg.Amount); err != nil {
			return result{}, err
		}
	}

	enc, err := vietqr.NewEncoder(cfg)
	if err != nil {
		return result{}, err
	}
	payload, err := enc.Produce()
	if err != nil {
		return result{}, err
	}
	components, err := enc.Components()
	if err != nil {
		return result{}, err
	}
	return result{Payload: payload, Components: &components}, nil
}

func issueRemote(o options) (result, error) {
	client, err := grpcclient.NewClient(o.addr)
	if err != nil {
		return result{}, err
	}
	defer client.Close()

	key := o.key
	if key == "" {
		key = uuid.NewString()
	}

	ctx, cancel := context.WithTimeout(context.Background(), remoteTimeout)
	defer cancel()

	issued, err := client.Issue(ctx, grpcclient.IssueRequest{
		IdempotencyKey: key,
		BankBIN:        o.bin,
		AccountNo:      o.account,
		InitiationMode: o.mode,
		AccountTarget:  !o.card,
		Amount:         o.amount,
	})
	if err != nil {
		return result{}, err
	}
	return result{Payload: issued.Payload, Components: &issued.Components}, nil
}

package render

import (
	"context"

	"github.com/google/uuid"

	"github.com/Xausdorf/vietqr-gateway/internal/domain/qrcode"
	"github.com/Xausdorf/vietqr-gateway/internal/domain/repository"
)

type UseCase struct {
	issuances repository.IssuanceRepository
	renderer  qrcode.Renderer
}

func NewUseCase(issuances repository.IssuanceRepository, renderer qrcode.Renderer) *UseCase {
	return &UseCase{issuances: issuances, renderer: renderer}
}

// Execute renders the stored payload of an issuance as a PNG image.
func (uc *UseCase) Execute(ctx context.Context, issuanceID uuid.UUID) ([]byte, error) {
	issuance, err := uc.issuances.FindByID(ctx, issuanceID)
	if err != nil {
		return nil, err
	}
	return uc.renderer.Render(issuance.Payload())
}

package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/storefront/internal/domain"
)

const maxSupportMessage = 2000

var faqs = []domain.FAQ{
	{Question: "How long does shipping take?", Answer: "Standard shipping takes 3-5 business days. Express shipping takes 1-2 business days."},
	{Question: "What is your return policy?", Answer: "We offer 30-day returns for all unused products in original packaging."},
	{Question: "Do you offer warranty?", Answer: "Yes, all products come with a 1-year manufacturer warranty."},
	{Question: "How can I track my order?", Answer: "You'll receive a tracking number via email once your order ships."},
}

type SupportUC struct {
	Gateway domain.SupportGateway
	Archive domain.SupportArchive
	Now     func() time.Time
}

func (uc *SupportUC) FAQ() []domain.FAQ { return append([]domain.FAQ{}, faqs...) }

func (uc *SupportUC) Submit(ctx context.Context, req domain.SupportRequest) (*domain.SupportRequest, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Issue = strings.TrimSpace(req.Issue)
	req.Message = strings.TrimSpace(req.Message)
	req.OrderNumber = strings.TrimSpace(req.OrderNumber)

	var missing []string
	if req.Name == "" {
		missing = append(missing, "name")
	}
	if !emailRe.MatchString(req.Email) {
		missing = append(missing, "email")
	}
	if req.Issue == "" {
		missing = append(missing, "issue")
	}
	if req.Message == "" || len(req.Message) > maxSupportMessage {
		missing = append(missing, "message")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(missing, ", "))
	}

	req.Reference = uuid.NewString()
	if uc.Now != nil {
		req.CreatedAt = uc.Now()
	} else {
		req.CreatedAt = time.Now()
	}
	if uc.Gateway != nil {
		if err := uc.Gateway.SubmitSupport(ctx, req); err != nil {
			return nil, err
		}
	}
	if uc.Archive != nil {
		if err := uc.Archive.SaveSupport(ctx, req); err != nil {
			log.Warn().Err(err).Str("ref", req.Reference).Msg("no se pudo archivar la consulta")
		}
	}
	log.Info().Str("ref", req.Reference).Str("issue", req.Issue).Msg("consulta de soporte")
	return &req, nil
}

package email

import (
	"context"

	"go.uber.org/zap"

	"github.com/juanroddotdev/LeadForge/internal/lead"
)

// Service drafts outreach emails for individual businesses.
type Service struct {
	generator lead.Generator
	logger    *zap.Logger
}

// NewService builds an email drafting service.
func NewService(generator lead.Generator, logger *zap.Logger) *Service {
	return &Service{generator: generator, logger: logger}
}

// Draft renders the consultant prompt for the business and asks the
// generator for the email text.
func (s *Service) Draft(ctx context.Context, b lead.Business, userInstructions string) (string, error) {
	prompt := BuildPrompt(b, userInstructions)
	text, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		s.logger.Warn("email generation failed",
			zap.String("business_id", b.ID),
			zap.Error(err),
		)
		return "", err
	}
	s.logger.Info("email drafted",
		zap.String("business_id", b.ID),
		zap.String("business_name", b.BusinessName),
	)
	return text, nil
}

package notification

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/varoOP/anistream/internal/domain"
)

// Service is a composite notification service that can send notifications
// through multiple channels
type Service struct {
	discord *DiscordService
}

// NewService creates a new notification service
func NewService(log zerolog.Logger, webhookURL string) domain.NotificationService {
	var discord *DiscordService
	if webhookURL != "" {
		discord = NewDiscordService(log, webhookURL)
	}

	return &Service{
		discord: discord,
	}
}

// SendEpisodes announces new episodes through all configured channels
func (s *Service) SendEpisodes(ctx context.Context, episodes []domain.LatestEpisode) error {
	if s.discord != nil {
		if err := s.discord.SendEpisodes(ctx, episodes); err != nil {
			return err
		}
	}
	return nil
}

// SendError sends error notifications through all configured channels
func (s *Service) SendError(ctx context.Context, err error) error {
	if s.discord != nil {
		if err := s.discord.SendError(ctx, err); err != nil {
			return err
		}
	}
	return nil
}

package domain

import "context"

// NotificationService defines the interface for notification services
type NotificationService interface {
	// SendEpisodes announces newly released episodes
	SendEpisodes(ctx context.Context, episodes []LatestEpisode) error

	// SendError sends an error notification with error details
	SendError(ctx context.Context, err error) error
}

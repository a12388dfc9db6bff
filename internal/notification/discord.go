package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/varoOP/anistream/internal/domain"
)

// maxEmbedsPerMessage is Discord's limit for a single webhook call.
const maxEmbedsPerMessage = 10

const (
	colorEpisode = 0x5865f2
	colorError   = 0xff0000
)

// DiscordService implements NotificationService for Discord webhooks
type DiscordService struct {
	log        zerolog.Logger
	webhookURL string
	httpClient *http.Client
}

// NewDiscordService creates a new Discord notification service
func NewDiscordService(log zerolog.Logger, webhookURL string) *DiscordService {
	return &DiscordService{
		log:        log.With().Str("module", "notification").Str("type", "discord").Logger(),
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SendEpisodes posts one embed per episode, batched to the webhook limit.
func (s *DiscordService) SendEpisodes(ctx context.Context, episodes []domain.LatestEpisode) error {
	if s.webhookURL == "" || len(episodes) == 0 {
		return nil
	}

	embeds := lo.Map(episodes, func(ep domain.LatestEpisode, _ int) discordEmbed {
		return episodeEmbed(ep)
	})

	for _, batch := range lo.Chunk(embeds, maxEmbedsPerMessage) {
		if err := s.sendWebhook(ctx, discordWebhook{Embeds: batch}); err != nil {
			return err
		}
	}

	s.log.Info().Int("episodes", len(episodes)).Msg("Announced new episodes")
	return nil
}

// SendError sends an error notification with error details
func (s *DiscordService) SendError(ctx context.Context, err error) error {
	if s.webhookURL == "" {
		return nil // No webhook configured, skip silently
	}

	embed := discordEmbed{
		Title:       "anistream notify failed",
		Description: fmt.Sprintf("Checking for new episodes failed with error:\n```%s```", err.Error()),
		Color:       colorError,
		Timestamp:   time.Now().Format(time.RFC3339),
	}

	return s.sendWebhook(ctx, discordWebhook{Embeds: []discordEmbed{embed}})
}

func episodeEmbed(ep domain.LatestEpisode) discordEmbed {
	embed := discordEmbed{
		Title:       ep.Title,
		Description: fmt.Sprintf("Season %d, Episode %d is out", ep.Season, ep.Number),
		Color:       colorEpisode,
		Fields: []discordField{
			{Name: "Slug", Value: ep.Slug, Inline: true},
			{Name: "Episode", Value: ep.Key().String(), Inline: true},
		},
	}

	if img := ep.Pictures.Image(); img != "" {
		embed.Thumbnail = &discordImage{URL: img}
	}

	if ep.CreatedAt > 0 {
		embed.Timestamp = createdAt(ep.CreatedAt).Format(time.RFC3339)
	}

	return embed
}

// createdAt accepts both second and millisecond epochs.
func createdAt(v int64) time.Time {
	if v > 1e12 {
		return time.UnixMilli(v).UTC()
	}
	return time.Unix(v, 0).UTC()
}

// sendWebhook sends a webhook payload to Discord
func (s *DiscordService) sendWebhook(ctx context.Context, payload discordWebhook) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "failed to marshal webhook payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return errors.Wrap(err, "failed to create webhook request")
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to send webhook request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook request failed with status %d", resp.StatusCode)
	}

	s.log.Debug().Int("embeds", len(payload.Embeds)).Msg("Discord notification sent successfully")
	return nil
}

// discordWebhook represents a Discord webhook payload
type discordWebhook struct {
	Embeds []discordEmbed `json:"embeds"`
}

// discordEmbed represents a Discord embed
type discordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Color       int            `json:"color"`
	Timestamp   string         `json:"timestamp,omitempty"`
	Thumbnail   *discordImage  `json:"thumbnail,omitempty"`
	Fields      []discordField `json:"fields,omitempty"`
}

type discordImage struct {
	URL string `json:"url"`
}

// discordField represents a Discord embed field
type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

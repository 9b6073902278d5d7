package client

import (
	"fmt"
	"questboard/config"
	"questboard/repository"

	"github.com/bwmarrin/discordgo"
)

// DiscordClient posts review notifications to a moderation channel. It is
// optional, the service runs without it when no bot token is configured.
type DiscordClient struct {
	session   *discordgo.Session
	channelId string
}

func NewDiscordClient() (*DiscordClient, error) {
	cfg := config.Env()
	if cfg.DiscordBotToken == "" || cfg.DiscordReviewChannelID == "" {
		return nil, fmt.Errorf("discord bot token or review channel not configured")
	}
	session, err := discordgo.New("Bot " + cfg.DiscordBotToken)
	if err != nil {
		return nil, err
	}
	return &DiscordClient{
		session:   session,
		channelId: cfg.DiscordReviewChannelID,
	}, nil
}

func (c *DiscordClient) NotifySubmissionReviewed(submission *repository.Submission, task *repository.Task) error {
	var message string
	switch submission.ApprovalStatus {
	case repository.APPROVED:
		message = fmt.Sprintf("Submission %d for task %q was approved, %d points awarded to user %d",
			submission.Id, task.Title, task.PointValue, submission.UserId)
	case repository.REJECTED:
		message = fmt.Sprintf("Submission %d for task %q was rejected", submission.Id, task.Title)
	default:
		return nil
	}
	_, err := c.session.ChannelMessageSend(c.channelId, message)
	return err
}

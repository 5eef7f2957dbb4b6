package infrastructure

import (
	"context"
	"fmt"

	"lottoledger/domain/entities"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

const (
	colorSuccess = 0x57F287
	colorWarning = 0xFEE75C
)

// embedSender is the slice of the discord session the announcer needs
type embedSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordAnnouncer posts settled rounds to a discord channel
type DiscordAnnouncer struct {
	session   embedSender
	channelID string
}

// NewDiscordAnnouncer opens a bot session. The caller owns Close.
func NewDiscordAnnouncer(token, channelID string) (*DiscordAnnouncer, *discordgo.Session, error) {
	if token == "" || channelID == "" {
		return nil, nil, fmt.Errorf("discord token and channel ID are required")
	}

	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuildMessages

	if err := dg.Open(); err != nil {
		return nil, nil, fmt.Errorf("error opening discord connection: %w", err)
	}

	return newDiscordAnnouncer(dg, channelID), dg, nil
}

func newDiscordAnnouncer(session embedSender, channelID string) *DiscordAnnouncer {
	return &DiscordAnnouncer{session: session, channelID: channelID}
}

// AnnounceSettlement posts the winner of a settled round, or a notice for a cancelled one
func (a *DiscordAnnouncer) AnnounceSettlement(_ context.Context, round *entities.Round, ticket *entities.WinningTicket) error {
	embed := buildSettlementEmbed(round, ticket)

	if _, err := a.session.ChannelMessageSendEmbed(a.channelID, embed); err != nil {
		return fmt.Errorf("failed to send settlement announcement: %w", err)
	}

	log.WithFields(log.Fields{
		"roundID":   round.ID,
		"channelID": a.channelID,
	}).Info("Announced round settlement")
	return nil
}

func buildSettlementEmbed(round *entities.Round, ticket *entities.WinningTicket) *discordgo.MessageEmbed {
	if round.Phase == entities.RoundPhaseCancelled || ticket == nil {
		return &discordgo.MessageEmbed{
			Title:       fmt.Sprintf("🚫 Round #%d Cancelled", round.ID),
			Description: "No tickets were minted before the round closed.",
			Color:       colorWarning,
		}
	}

	fields := []*discordgo.MessageEmbedField{
		{
			Name:   "🏆 Winner",
			Value:  fmt.Sprintf("`%s`", ticket.WinnerAddress),
			Inline: false,
		},
		{
			Name:   "🎟️ Winning Ticket",
			Value:  fmt.Sprintf("#%d of %d", ticket.WinningIndex, ticket.TotalTickets),
			Inline: true,
		},
		{
			Name:   "👥 Players",
			Value:  fmt.Sprintf("%d", round.NumActivePlayers),
			Inline: true,
		},
		{
			Name:   "💰 Prize",
			Value:  round.PrizeAmount().String(),
			Inline: false,
		},
	}

	return &discordgo.MessageEmbed{
		Title:  fmt.Sprintf("🎉 Round #%d Settled", round.ID),
		Color:  colorSuccess,
		Fields: fields,
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Withdraw the prize to collect it",
		},
	}
}

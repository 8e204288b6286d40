package discord

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/tradepost/listing-service/internal/listing/domain"
)

// Threads auto-archive after a week of inactivity, matching the channel
// setting of the marketplace guild.
const threadAutoArchiveMinutes = 10080

type Config struct {
	GuildID         string
	ChannelID       string
	EventsChannelID string
}

// Messenger mirrors listings into a Discord channel. It implements both
// the messaging and the membership ports on top of one shared session,
// which is safe for concurrent use.
type Messenger struct {
	session *discordgo.Session
	cfg     Config
}

func NewMessenger(session *discordgo.Session, cfg Config) *Messenger {
	return &Messenger{session: session, cfg: cfg}
}

var embedColours = map[[2]string]int{
	{string(domain.TypeBuy), string(domain.StatusOpen)}:     0x3498DB,
	{string(domain.TypeBuy), string(domain.StatusPending)}:  0xF1C40F,
	{string(domain.TypeBuy), string(domain.StatusClosed)}:   0xE74C3C,
	{string(domain.TypeSell), string(domain.StatusOpen)}:    0x2ECC71,
	{string(domain.TypeSell), string(domain.StatusPending)}: 0xF1C40F,
	{string(domain.TypeSell), string(domain.StatusClosed)}:  0xE74C3C,
}

// renderEmbed is the listing's display form in the marketplace channel.
func renderEmbed(l *domain.Listing) *discordgo.MessageEmbed {
	description := l.Description
	if description == "" {
		description = "No description."
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "Type", Value: l.Type.Display(), Inline: true},
		{Name: "Status", Value: l.Status.Display(), Inline: true},
		{Name: "Owner", Value: fmt.Sprintf("<@%s>", l.OwnerID), Inline: true},
	}
	if l.Price != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Price", Value: l.Price, Inline: true})
	}

	return &discordgo.MessageEmbed{
		Title:       l.Title,
		Description: description,
		Color:       embedColours[[2]string{string(l.Type), string(l.Status)}],
		Fields:      fields,
	}
}

func (m *Messenger) listingURL(l *domain.Listing) string {
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", m.cfg.GuildID, m.cfg.ChannelID, l.MessageID)
}

func (m *Messenger) PostListing(ctx context.Context, l *domain.Listing) (string, error) {
	msg, err := m.session.ChannelMessageSendEmbed(m.cfg.ChannelID, renderEmbed(l), discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

func (m *Messenger) CreateThread(ctx context.Context, messageID, name string) (string, error) {
	thread, err := m.session.MessageThreadStartComplex(m.cfg.ChannelID, messageID, &discordgo.ThreadStart{
		Name:                name,
		AutoArchiveDuration: threadAutoArchiveMinutes,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return thread.ID, nil
}

func (m *Messenger) AddParticipant(ctx context.Context, threadID, userID string) error {
	return m.session.ThreadMemberAdd(threadID, userID, discordgo.WithContext(ctx))
}

func (m *Messenger) UpdateListing(ctx context.Context, l *domain.Listing) error {
	_, err := m.session.ChannelMessageEditEmbed(m.cfg.ChannelID, l.MessageID, renderEmbed(l), discordgo.WithContext(ctx))
	return err
}

func (m *Messenger) RenameThread(ctx context.Context, threadID, name string) error {
	_, err := m.session.ChannelEditComplex(threadID, &discordgo.ChannelEdit{Name: name}, discordgo.WithContext(ctx))
	return err
}

// CloseThread locks and archives the discussion thread. There is no
// unlock path; closing is terminal on the Discord side.
func (m *Messenger) CloseThread(ctx context.Context, threadID string) error {
	archived, locked := true, true
	_, err := m.session.ChannelEditComplex(threadID, &discordgo.ChannelEdit{
		Archived: &archived,
		Locked:   &locked,
	}, discordgo.WithContext(ctx))
	return err
}

func (m *Messenger) SendDirect(ctx context.Context, userID, text string) error {
	channel, err := m.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("open DM channel for %s: %w", userID, err)
	}
	_, err = m.session.ChannelMessageSend(channel.ID, text, discordgo.WithContext(ctx))
	return err
}

func (m *Messenger) AnnounceCreated(ctx context.Context, l *domain.Listing) error {
	content := fmt.Sprintf("## Listing **[%s](%s)** created", l.Title, m.listingURL(l))
	return m.sendEvent(ctx, content)
}

func (m *Messenger) AnnounceEdited(ctx context.Context, l *domain.Listing, sections []string) error {
	content := fmt.Sprintf("## Listing **[%s](%s)** edited\n%s", l.Title, m.listingURL(l), strings.Join(sections, "\n"))
	return m.sendEvent(ctx, content)
}

// sendEvent posts to the events channel when one is configured and is a
// silent no-op otherwise.
func (m *Messenger) sendEvent(ctx context.Context, content string) error {
	if m.cfg.EventsChannelID == "" {
		return nil
	}
	_, err := m.session.ChannelMessageSendComplex(m.cfg.EventsChannelID, &discordgo.MessageSend{
		Content: content,
		Flags:   discordgo.MessageFlagsSuppressEmbeds,
	}, discordgo.WithContext(ctx))
	return err
}

// CurrentMembers implements the membership port by paging through the
// guild member list.
func (m *Messenger) CurrentMembers(ctx context.Context) ([]string, error) {
	var ids []string
	after := ""
	for {
		members, err := m.session.GuildMembers(m.cfg.GuildID, after, 1000, discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("list guild members: %w", err)
		}
		if len(members) == 0 {
			return ids, nil
		}
		for _, member := range members {
			ids = append(ids, member.User.ID)
		}
		after = members[len(members)-1].User.ID
	}
}

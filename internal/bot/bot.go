package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/Geneteca/discord-bot/internal/clock"
	"github.com/Geneteca/discord-bot/internal/config"
	"github.com/Geneteca/discord-bot/internal/model"
	"github.com/Geneteca/discord-bot/internal/service"
)

// Bot aggregates the Discord session with the domain services. It is
// both the command front end (prefix commands in guild channels) and
// the Dispatcher the reminder scheduler delivers through.
type Bot struct {
	session  *discordgo.Session
	eventSvc *service.EventService
	taskSvc  *service.TaskService
	config   *config.Config
}

func New(token string, eventSvc *service.EventService, taskSvc *service.TaskService, cfg *config.Config) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	return &Bot{
		session:  session,
		eventSvc: eventSvc,
		taskSvc:  taskSvc,
		config:   cfg,
	}, nil
}

// Start opens the gateway session and blocks until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	b.session.AddHandler(b.onMessage)
	b.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Info().Str("user", r.User.Username).Msg("bot session ready")
	})

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}

	<-ctx.Done()
	return b.session.Close()
}

// Broadcast implements service.Dispatcher.
func (b *Bot) Broadcast(ctx context.Context, channelID, message string) error {
	if channelID == "" {
		channelID = b.config.ReminderChannelID
	}
	_, err := b.session.ChannelMessageSend(channelID, message)
	return err
}

// Direct implements service.Dispatcher.
func (b *Bot) Direct(ctx context.Context, userID, message string) error {
	ch, err := b.session.UserChannelCreate(userID)
	if err != nil {
		return fmt.Errorf("open DM channel: %w", err)
	}
	_, err = b.session.ChannelMessageSend(ch.ID, message)
	return err
}

func (b *Bot) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if !strings.HasPrefix(m.Content, b.config.CommandPrefix) {
		return
	}

	args := strings.Fields(strings.TrimPrefix(m.Content, b.config.CommandPrefix))
	if len(args) == 0 {
		return
	}
	command, args := strings.ToLower(args[0]), args[1:]

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	log.Info().Str("command", command).Str("user_id", m.Author.ID).Msg("command received")

	var err error
	switch command {
	case "ping":
		err = b.reply(m.ChannelID, "🏓 Pong!")
	case "help":
		err = b.handleHelp(m.ChannelID)
	case "remind":
		err = b.handleRemind(ctx, m, args)
	case "todo":
		err = b.handleTodo(ctx, m, args)
	default:
		return
	}
	if err != nil {
		log.Error().Err(err).Str("command", command).Msg("command failed")
	}
}

func (b *Bot) handleHelp(channelID string) error {
	text := "ℹ️ **Commands**\n" +
		"• `!remind add DD-MM-YYYY HH:MM <title> [30m,1h,1d] [daily|weekly|monthly] [@user…]`\n" +
		"• `!remind list` — upcoming reminders\n" +
		"• `!remind retime <id> DD-MM-YYYY HH:MM` — move a reminder\n" +
		"• `!remind cancel <id>`\n" +
		"• `!todo add [public|private|user @u|role @&r] <title>`\n" +
		"• `!todo list` / `!todo done <id>` / `!todo undone <id>`\n" +
		"• `!todo edit <id> <new title>` / `!todo delete <id>`"
	return b.reply(channelID, text)
}

func (b *Bot) handleRemind(ctx context.Context, m *discordgo.MessageCreate, args []string) error {
	if len(args) == 0 {
		return b.reply(m.ChannelID, "Usage: `!remind add|list|retime|cancel` — see `!help`.")
	}
	sub, args := strings.ToLower(args[0]), args[1:]

	switch sub {
	case "add":
		return b.handleRemindAdd(ctx, m, args)
	case "list":
		return b.handleRemindList(m.ChannelID)
	case "retime":
		return b.handleRemindRetime(ctx, m, args)
	case "cancel":
		id, err := parseID(args)
		if err != nil {
			return b.reply(m.ChannelID, "Usage: `!remind cancel <id>`")
		}
		if err := b.eventSvc.Cancel(ctx, b.actorFrom(m), id); err != nil {
			return b.replyErr(m.ChannelID, err)
		}
		return b.reply(m.ChannelID, fmt.Sprintf("❌ Reminder #%d cancelled.", id))
	default:
		return b.reply(m.ChannelID, "Unknown subcommand — see `!help`.")
	}
}

// handleRemindAdd parses
//
//	!remind add 08-02-2026 12:00 team meeting 30m,1h weekly @alice
//
// Trailing recurrence keyword and offset shorthand are optional; user
// mentions switch the target from the reminder channel to DMs.
func (b *Bot) handleRemindAdd(ctx context.Context, m *discordgo.MessageCreate, args []string) error {
	if len(args) < 3 {
		return b.reply(m.ChannelID, "Usage: `!remind add DD-MM-YYYY HH:MM <title> [30m,1h] [daily|weekly|monthly]`")
	}

	when, err := clock.ToInstant(args[0], args[1], b.config.Location)
	if err != nil {
		return b.reply(m.ChannelID, "❌ Bad date — example: `08-02-2026 12:00`")
	}
	rest := args[2:]

	recurrence := model.RecurrenceNone
	if len(rest) > 0 {
		if r, ok := parseRecurrence(rest[len(rest)-1]); ok {
			recurrence = r
			rest = rest[:len(rest)-1]
		}
	}

	offsets := []int{0}
	if len(rest) > 0 && looksLikeOffsets(rest[len(rest)-1]) {
		offsets, _ = parseOffsets(rest[len(rest)-1])
		rest = rest[:len(rest)-1]
	}

	title := make([]string, 0, len(rest))
	for _, tok := range rest {
		if isMentionToken(tok) {
			continue
		}
		title = append(title, tok)
	}

	target := model.ChannelTarget("")
	if len(m.Mentions) > 0 {
		ids := make([]string, 0, len(m.Mentions))
		for _, u := range m.Mentions {
			ids = append(ids, u.ID)
		}
		target = model.DMTarget(ids...)
	}

	ev, err := b.eventSvc.Create(ctx, b.actorFrom(m), service.EventInput{
		Title:           strings.Join(title, " "),
		When:            when,
		ReminderOffsets: offsets,
		Recurrence:      recurrence,
		Target:          target,
	})
	if err != nil {
		return b.replyErr(m.ChannelID, err)
	}

	return b.reply(m.ChannelID, fmt.Sprintf(
		"📅 **Reminder #%d saved!**\n📌 %s\n⏰ %s\n🔔 %s before",
		ev.ID, ev.Title, ev.When.In(b.config.Location).Format("02-01-2006 15:04"),
		describeOffsets(ev.ReminderOffsets)))
}

func (b *Bot) handleRemindList(channelID string) error {
	events := b.eventSvc.List(false)
	if len(events) == 0 {
		return b.reply(channelID, "🎉 No upcoming reminders!")
	}

	var sb strings.Builder
	sb.WriteString("📅 **Upcoming reminders**\n")
	for _, ev := range events {
		sb.WriteString(fmt.Sprintf("`#%d` %s — %s", ev.ID, ev.Title,
			ev.When.In(b.config.Location).Format("02-01-2006 15:04")))
		if ev.Recurrence != model.RecurrenceNone {
			sb.WriteString(fmt.Sprintf(" (%s)", ev.Recurrence))
		}
		sb.WriteByte('\n')
	}
	return b.reply(channelID, sb.String())
}

func (b *Bot) handleRemindRetime(ctx context.Context, m *discordgo.MessageCreate, args []string) error {
	if len(args) != 3 {
		return b.reply(m.ChannelID, "Usage: `!remind retime <id> DD-MM-YYYY HH:MM`")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return b.reply(m.ChannelID, "Usage: `!remind retime <id> DD-MM-YYYY HH:MM`")
	}
	when, err := clock.ToInstant(args[1], args[2], b.config.Location)
	if err != nil {
		return b.reply(m.ChannelID, "❌ Bad date — example: `08-02-2026 12:00`")
	}

	ev, err := b.eventSvc.Edit(ctx, b.actorFrom(m), id, service.EventEdit{When: &when})
	if err != nil {
		return b.replyErr(m.ChannelID, err)
	}
	return b.reply(m.ChannelID, fmt.Sprintf("📅 Reminder #%d moved to %s.",
		ev.ID, ev.When.In(b.config.Location).Format("02-01-2006 15:04")))
}

func (b *Bot) handleTodo(ctx context.Context, m *discordgo.MessageCreate, args []string) error {
	if len(args) == 0 {
		return b.reply(m.ChannelID, "Usage: `!todo add|list|done|undone|edit|delete` — see `!help`.")
	}
	sub, args := strings.ToLower(args[0]), args[1:]
	actor := b.actorFrom(m)

	switch sub {
	case "add":
		return b.handleTodoAdd(ctx, m, args)
	case "list":
		return b.handleTodoList(m.ChannelID, actor)
	case "done", "undone":
		id, err := parseID(args)
		if err != nil {
			return b.reply(m.ChannelID, fmt.Sprintf("Usage: `!todo %s <id>`", sub))
		}
		task, err := b.taskSvc.SetDone(ctx, actor, id, sub == "done", time.Now())
		if err != nil {
			return b.replyErr(m.ChannelID, err)
		}
		if task.Done {
			return b.reply(m.ChannelID, fmt.Sprintf("🎉 To-do #%d done!", task.ID))
		}
		return b.reply(m.ChannelID, fmt.Sprintf("↩️ To-do #%d reopened.", task.ID))
	case "edit":
		if len(args) < 2 {
			return b.reply(m.ChannelID, "Usage: `!todo edit <id> <new title>`")
		}
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return b.reply(m.ChannelID, "Usage: `!todo edit <id> <new title>`")
		}
		title := strings.Join(args[1:], " ")
		task, err := b.taskSvc.Edit(ctx, actor, id, service.TaskEdit{Title: &title})
		if err != nil {
			return b.replyErr(m.ChannelID, err)
		}
		return b.reply(m.ChannelID, fmt.Sprintf("✏️ To-do #%d updated: **%s**", task.ID, task.Title))
	case "delete":
		id, err := parseID(args)
		if err != nil {
			return b.reply(m.ChannelID, "Usage: `!todo delete <id>`")
		}
		if err := b.taskSvc.Delete(ctx, actor, id); err != nil {
			return b.replyErr(m.ChannelID, err)
		}
		return b.reply(m.ChannelID, fmt.Sprintf("🗑️ To-do #%d deleted.", id))
	default:
		return b.reply(m.ChannelID, "Unknown subcommand — see `!help`.")
	}
}

// handleTodoAdd parses an optional leading scope keyword:
//
//	!todo add buy milk                 (public)
//	!todo add private buy milk
//	!todo add user @alice review PR
//	!todo add role @&devops rotate keys
func (b *Bot) handleTodoAdd(ctx context.Context, m *discordgo.MessageCreate, args []string) error {
	if len(args) == 0 {
		return b.reply(m.ChannelID, "Usage: `!todo add [public|private|user @u|role @&r] <title>`")
	}

	visibility := model.Public()
	switch strings.ToLower(args[0]) {
	case "public":
		args = args[1:]
	case "private":
		visibility = model.Private()
		args = args[1:]
	case "user":
		if len(m.Mentions) != 1 {
			return b.reply(m.ChannelID, "A user-scoped to-do needs exactly one @mention.")
		}
		visibility = model.ForUser(m.Mentions[0].ID)
		args = args[1:]
	case "role":
		if len(m.MentionRoles) != 1 {
			return b.reply(m.ChannelID, "A role-scoped to-do needs exactly one role mention.")
		}
		visibility = model.ForRole(m.MentionRoles[0])
		args = args[1:]
	}

	title := make([]string, 0, len(args))
	for _, tok := range args {
		if isMentionToken(tok) {
			continue
		}
		title = append(title, tok)
	}

	task, err := b.taskSvc.Create(ctx, b.actorFrom(m), service.TaskInput{
		Title:      strings.Join(title, " "),
		Visibility: visibility,
	})
	if err != nil {
		return b.replyErr(m.ChannelID, err)
	}
	return b.reply(m.ChannelID, fmt.Sprintf("✅ To-do #%d added: **%s**", task.ID, task.Title))
}

func (b *Bot) handleTodoList(channelID string, actor model.Actor) error {
	tasks := b.taskSvc.List(actor)
	if len(tasks) == 0 {
		return b.reply(channelID, "🎉 No to-dos!")
	}

	var sb strings.Builder
	sb.WriteString("📝 **To-do list**\n")
	for _, t := range tasks {
		status := "❌"
		if t.Done {
			status = "✅"
		}
		sb.WriteString(fmt.Sprintf("`#%d` %s %s", t.ID, status, t.Title))
		if t.Visibility.Kind != model.ScopePublic {
			sb.WriteString(fmt.Sprintf(" _(%s)_", t.Visibility.Kind))
		}
		sb.WriteByte('\n')
	}
	return b.reply(channelID, sb.String())
}

// actorFrom snapshots the capabilities of the message author: role
// memberships and the elevated bit (Manage Server). DMs carry neither.
func (b *Bot) actorFrom(m *discordgo.MessageCreate) model.Actor {
	actor := model.Actor{ID: m.Author.ID}
	if m.Member != nil {
		actor.Roles = m.Member.Roles
	}
	if m.GuildID != "" {
		perms, err := b.session.UserChannelPermissions(m.Author.ID, m.ChannelID)
		if err == nil {
			actor.Elevated = perms&discordgo.PermissionManageServer != 0
		}
	}
	return actor
}

func (b *Bot) reply(channelID, text string) error {
	_, err := b.session.ChannelMessageSend(channelID, text)
	return err
}

// replyErr surfaces domain errors to the user; anything else is an
// internal fault logged by the caller.
func (b *Bot) replyErr(channelID string, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return b.reply(channelID, "❌ Not found — check the id with `!remind list` or `!todo list`.")
	case errors.Is(err, service.ErrNotAllowed):
		return b.reply(channelID, "🚫 You may not modify this to-do.")
	case errors.Is(err, service.ErrCancelled):
		return b.reply(channelID, "❌ This reminder is already cancelled.")
	default:
		if replyErr := b.reply(channelID, fmt.Sprintf("❌ %s", err)); replyErr != nil {
			return replyErr
		}
		return err
	}
}

func parseID(args []string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected exactly one id")
	}
	return strconv.Atoi(args[0])
}

func describeOffsets(offsets []int) string {
	parts := make([]string, 0, len(offsets))
	for _, m := range offsets {
		switch {
		case m == 0:
			parts = append(parts, "at event time")
		case m%1440 == 0:
			parts = append(parts, fmt.Sprintf("%dd", m/1440))
		case m%60 == 0:
			parts = append(parts, fmt.Sprintf("%dh", m/60))
		default:
			parts = append(parts, fmt.Sprintf("%dm", m))
		}
	}
	return strings.Join(parts, ", ")
}

package bot

import (
	"context"
	"fmt"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"

	"tg-filedrop/internal/config"
	"tg-filedrop/internal/logger"
	"tg-filedrop/internal/models"
)

// BotService represents the Telegram bot service
type BotService struct {
	Bot      *telego.Bot
	Handler  *th.BotHandler
	Username string
}

// Start starts the bot handler; it blocks until Stop is called
func (b *BotService) Start() {
	b.Handler.Start()
}

// Stop stops the bot handler
func (b *BotService) Stop() {
	b.Handler.Stop()
}

// Initialize creates the bot, publishes the command menus and opens the
// update stream: a webhook when an endpoint is configured, long polling
// otherwise. The returned server always carries the ops endpoints.
func Initialize(ctx context.Context, cfg *config.Config) (*BotService, *WebhookServer, error) {
	if cfg.Bot.Token == "" {
		return nil, nil, fmt.Errorf("bot token is required")
	}

	var opts []telego.BotOption
	if logger.Enabled(logger.LevelDebug) {
		opts = append(opts, telego.WithDefaultDebugLogger())
	}
	bot, err := telego.NewBot(cfg.Bot.Token, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize bot: %w", err)
	}

	botUser, err := bot.GetMe(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get bot info: %w", err)
	}
	logger.Infof("Authorized on account %s", botUser.Username)

	setCommands(ctx, bot, cfg.Bot.OwnerID)

	if err := bot.DeleteWebhook(ctx, &telego.DeleteWebhookParams{}); err != nil {
		return nil, nil, fmt.Errorf("failed to delete existing webhook: %w", err)
	}

	var (
		updates <-chan telego.Update
		server  *WebhookServer
	)
	if cfg.UseWebhook() {
		secretToken := "filedrop_" + cfg.Bot.Token[len(cfg.Bot.Token)-6:]
		updates, server, err = SetupWebhook(ctx, bot, cfg.Bot.Webhook, secretToken)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to setup webhook: %w", err)
		}
	} else {
		logger.Infof("No webhook endpoint configured, using long polling")
		updates, err = bot.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
			AllowedUpdates: allowedUpdates,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to start long polling: %w", err)
		}
		server = NewServer(cfg.Bot.Webhook)
	}

	bh, err := th.NewBotHandler(bot, updates)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create bot handler: %w", err)
	}

	return &BotService{
		Bot:      bot,
		Handler:  bh,
		Username: botUser.Username,
	}, server, nil
}

var allowedUpdates = []string{"message", "callback_query"}

// setCommands publishes the public menu for everyone and the full menu in
// the owner's private chat
func setCommands(ctx context.Context, bot *telego.Bot, ownerID int64) {
	publicCommands := []string{"start", "help"}
	ownerCommands := []string{"start", "help", "upload", "done", "cancel", "broadcast", "stats", "setmessage", "setimage"}

	if err := bot.SetMyCommands(ctx, &telego.SetMyCommandsParams{
		Commands: buildCommands(publicCommands),
	}); err != nil {
		logger.Warningf("Failed to set default bot commands: %v", err)
	}

	if err := bot.SetMyCommands(ctx, &telego.SetMyCommandsParams{
		Commands: buildCommands(ownerCommands),
		Scope: &telego.BotCommandScopeChat{
			Type:   "chat",
			ChatID: tu.ID(ownerID),
		},
	}); err != nil {
		logger.Warningf("Failed to set owner bot commands: %v", err)
	}
}

func buildCommands(names []string) []telego.BotCommand {
	commands := make([]telego.BotCommand, 0, len(names))
	for _, name := range names {
		commands = append(commands, telego.BotCommand{
			Command:     name,
			Description: models.T("cmd_desc_" + name),
		})
	}
	return commands
}

// Package notification delivers optimization results to external channels.
package notification

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"slices"

	tb "gopkg.in/tucnak/telebot.v2"

	"github.com/raykavin/optifolio/core"
)

const (
	pollingTimeout = 10 * time.Second
)

// Settings configures the Telegram bot.
type Settings struct {
	Token   string
	Users   []int    // authorized chat IDs
	Symbols []string // labels for the allocation vector
}

// Telegram implements core.NotifierWithStart. It pushes results to all
// authorized users and answers /result and /weights with the last run.
type Telegram struct {
	settings    Settings
	defaultMenu *tb.ReplyMarkup
	client      *tb.Bot
	log         core.Logger

	mu         sync.Mutex
	lastResult *core.Result
}

// Option is a function that configures a telegram instance
type Option func(telegram *Telegram)

// NewTelegram creates and initializes a new Telegram service
func NewTelegram(settings Settings, log core.Logger, options ...Option) (core.NotifierWithStart, error) {
	menu := &tb.ReplyMarkup{ResizeReplyKeyboard: true}
	poller := &tb.LongPoller{Timeout: pollingTimeout}
	userMiddleware := newAuthMiddleware(poller, settings, log)

	client, err := tb.NewBot(tb.Settings{
		ParseMode: tb.ModeMarkdown,
		Token:     settings.Token,
		Poller:    userMiddleware,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	setupKeyboard(menu)
	if err := setupCommands(client); err != nil {
		return nil, fmt.Errorf("failed to set commands: %w", err)
	}

	bot := &Telegram{
		settings:    settings,
		client:      client,
		defaultMenu: menu,
		log:         log,
	}

	for _, option := range options {
		option(bot)
	}

	registerHandlers(client, bot)

	return bot, nil
}

// newAuthMiddleware creates a middleware to validate authorized users
func newAuthMiddleware(poller *tb.LongPoller, settings Settings, log core.Logger) *tb.MiddlewarePoller {
	return tb.NewMiddlewarePoller(poller, func(u *tb.Update) bool {
		if u.Message == nil || u.Message.Sender == nil {
			log.Error("message or sender is nil ", u)
			return false
		}

		if slices.Contains(settings.Users, int(u.Message.Sender.ID)) {
			return true
		}

		log.Error("unauthorized user ", u.Message.Sender.ID)
		return false
	})
}

// setupKeyboard configures the reply keyboard layout
func setupKeyboard(menu *tb.ReplyMarkup) {
	var (
		resultBtn  = menu.Text("/result")
		weightsBtn = menu.Text("/weights")
		helpBtn    = menu.Text("/help")
	)

	menu.Reply(
		menu.Row(resultBtn, weightsBtn, helpBtn),
	)
}

// setupCommands configures available bot commands
func setupCommands(client *tb.Bot) error {
	return client.SetCommands([]tb.Command{
		{Text: "/help", Description: "Display help instructions"},
		{Text: "/result", Description: "Metrics of the last optimization run"},
		{Text: "/weights", Description: "Allocation weights of the last run"},
	})
}

// registerHandlers registers all command handlers
func registerHandlers(client *tb.Bot, bot *Telegram) {
	client.Handle("/help", bot.HelpHandle)
	client.Handle("/result", bot.ResultHandle)
	client.Handle("/weights", bot.WeightsHandle)
}

// Start begins the Telegram bot and notifies all authorized users
func (t *Telegram) Start() {
	go t.client.Start()
	t.sendMessageWithOptions("Optimizer bot initialized.", t.defaultMenu)
}

// Notify sends a message to all authorized users
func (t *Telegram) Notify(text string) {
	for _, user := range t.settings.Users {
		_, err := t.client.Send(&tb.User{ID: int64(user)}, text)
		if err != nil {
			t.log.WithError(err).Error("failed to send notification")
		}
	}
}

// sendMessageWithOptions sends a message to all authorized users with additional options
func (t *Telegram) sendMessageWithOptions(text string, options ...any) {
	for _, user := range t.settings.Users {
		_, err := t.client.Send(&tb.User{ID: int64(user)}, text, options...)
		if err != nil {
			t.log.WithError(err).Error("failed to send notification with options")
		}
	}
}

// sendMessage sends a message to a specific user
func (t *Telegram) sendMessage(to *tb.User, text string, options ...any) {
	_, err := t.client.Send(to, text, options...)
	if err != nil {
		t.log.WithError(err).Error("failed to send message")
	}
}

// HelpHandle displays available commands
func (t *Telegram) HelpHandle(m *tb.Message) {
	commands, err := t.client.GetCommands()
	if err != nil {
		t.log.WithError(err).Error("failed to get commands")
		t.OnError(err)
		return
	}

	lines := make([]string, 0, len(commands))
	for _, command := range commands {
		lines = append(lines, fmt.Sprintf("/%s - %s", command.Text, command.Description))
	}

	t.sendMessage(m.Sender, strings.Join(lines, "\n"))
}

// ResultHandle replies with the metrics of the last optimization run
func (t *Telegram) ResultHandle(m *tb.Message) {
	result := t.last()
	if result == nil {
		t.sendMessage(m.Sender, "No optimization run registered.")
		return
	}

	t.sendMessage(m.Sender, t.formatMetrics(result))
}

// WeightsHandle replies with the allocation of the last optimization run
func (t *Telegram) WeightsHandle(m *tb.Message) {
	result := t.last()
	if result == nil {
		t.sendMessage(m.Sender, "No optimization run registered.")
		return
	}

	t.sendMessage(m.Sender, t.formatWeights(result))
}

// OnResult notifies users about a finished optimization run
func (t *Telegram) OnResult(result *core.Result) {
	t.mu.Lock()
	t.lastResult = result
	t.mu.Unlock()

	title := "✅ OPTIMIZATION FINISHED"
	if !result.Converged {
		title = "⚠️ OPTIMIZATION DID NOT CONVERGE"
	}

	message := fmt.Sprintf("%s\n-----\n%s\n%s", title, t.formatMetrics(result), t.formatWeights(result))
	t.Notify(message)
}

// OnError notifies users about errors
func (t *Telegram) OnError(err error) {
	var sb strings.Builder
	sb.WriteString("🛑 ERROR\n")
	sb.WriteString("-----\n")
	sb.WriteString(err.Error())

	t.Notify(sb.String())
}

func (t *Telegram) last() *core.Result {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastResult
}

// formatMetrics creates a formatted metrics message
func (t *Telegram) formatMetrics(result *core.Result) string {
	var sb strings.Builder
	sb.WriteString("*METRICS*\n")
	fmt.Fprintf(&sb, "Sharpe ratio: `%.4f`\n", result.Stats.SharpeRatio)
	fmt.Fprintf(&sb, "Cumulative return: `%.2f%%`\n", result.Stats.CumulativeReturn*100)
	fmt.Fprintf(&sb, "Avg daily return: `%.4f%%`\n", result.Stats.AvgDailyReturn*100)
	fmt.Fprintf(&sb, "Volatility: `%.4f`\n", result.Stats.Volatility)
	fmt.Fprintf(&sb, "Evaluations: `%d` in `%s`\n", result.Evaluations, result.Duration.Round(time.Millisecond))
	return sb.String()
}

// formatWeights creates a formatted allocation message
func (t *Telegram) formatWeights(result *core.Result) string {
	var sb strings.Builder
	sb.WriteString("*WEIGHTS*\n")
	for i, weight := range result.Weights {
		label := fmt.Sprintf("asset %d", i)
		if i < len(t.settings.Symbols) {
			label = t.settings.Symbols[i]
		}
		fmt.Fprintf(&sb, "%s: `%.2f%%`\n", label, weight*100)
	}
	return sb.String()
}

package optifolio

import (
	"github.com/raykavin/optifolio/core"
	"github.com/raykavin/optifolio/notification"
	"github.com/raykavin/optifolio/portfolio"
)

// Option is a functional option for configuring a study instance
type Option func(*Optifolio)

// WithStorage enables a read-through price cache. It only takes effect when
// the provider can fetch individual symbols, like the Binance feed.
func WithStorage(storage core.PriceStorage) Option {
	return func(o *Optifolio) {
		o.storage = storage
	}
}

// WithLogger replaces the default logger.
func WithLogger(logger core.Logger) Option {
	return func(o *Optifolio) {
		o.logger = logger
	}
}

// WithLogLevel sets the log level on the configured logger.
func WithLogLevel(level core.Level) Option {
	return func(o *Optifolio) {
		o.logger.SetLevel(level)
	}
}

// WithNotifier registers a notifier for results and errors.
func WithNotifier(notifier core.Notifier) Option {
	return func(o *Optifolio) {
		o.notifier = notifier
	}
}

// WithTelegram creates a Telegram bot, registers it as the notifier and
// starts its polling loop when the study is created.
func WithTelegram(settings notification.Settings) Option {
	return func(o *Optifolio) {
		telegram, err := notification.NewTelegram(settings, o.logger)
		if err != nil {
			o.logger.WithError(err).Fatal("failed to create telegram bot")
			return
		}
		o.telegram = telegram
		o.notifier = telegram
	}
}

// WithEvaluator replaces the default evaluator, for custom risk-free rates
// or annualization periods.
func WithEvaluator(evaluator *portfolio.Evaluator) Option {
	return func(o *Optifolio) {
		o.evaluator = evaluator
	}
}

// WithChartFile renders a PNG of the optimized portfolio against the equal
// weight benchmark after every run.
func WithChartFile(path string) Option {
	return func(o *Optifolio) {
		o.chartFile = path
	}
}

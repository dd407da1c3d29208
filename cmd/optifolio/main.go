package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/raykavin/optifolio"
	"github.com/raykavin/optifolio/core"
	"github.com/raykavin/optifolio/feed"
	"github.com/raykavin/optifolio/notification"
	"github.com/raykavin/optifolio/optimizer"
	"github.com/raykavin/optifolio/storage"
)

const (
	dateLayout = "2006-01-02"

	defaultStoragePath = "./optifolio.db"
)

// Command line flags
var (
	symbols    []string
	days       int
	startDate  string
	endDate    string
	outputDir  string
	chartFile  string
	returnsCSV string

	riskFree   float64
	gridSearch bool
	gridStep   float64
	legacy     bool
	useCache   bool
)

// AppConfig holds environment-driven configuration
type AppConfig struct {
	Binance  feed.BinanceConfig
	Telegram notification.Settings
	Enabled  bool
	Storage  string
}

func main() {
	rootCmd := &cobra.Command{
		Use:     "optifolio",
		Short:   "Portfolio allocation optimizer",
		Version: "1.0.0",
	}

	rootCmd.AddCommand(buildOptimizeCmd())
	rootCmd.AddCommand(buildDownloadCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadAppConfig reads credentials and toggles from the environment
func loadAppConfig() *AppConfig {
	viper.AutomaticEnv()
	viper.SetDefault("STORAGE_PATH", defaultStoragePath)
	viper.SetDefault("TELEGRAM_ENABLED", false)

	return &AppConfig{
		Binance: feed.BinanceConfig{
			APIKey:    viper.GetString("BINANCE_API_KEY"),
			APISecret: viper.GetString("BINANCE_SECRET_KEY"),
		},
		Telegram: notification.Settings{
			Token: viper.GetString("TELEGRAM_TOKEN"),
			Users: []int{viper.GetInt("TELEGRAM_USER")},
		},
		Enabled: viper.GetBool("TELEGRAM_ENABLED"),
		Storage: viper.GetString("STORAGE_PATH"),
	}
}

func buildOptimizeCmd() *cobra.Command {
	optimizeCmd := &cobra.Command{
		Use:   "optimize",
		Short: "Find the maximum Sharpe ratio allocation",
		RunE:  runOptimize,
	}

	optimizeCmd.Flags().StringSliceVarP(&symbols, "symbols", "p", nil, "Symbols (e.g. BTCUSDT,ETHUSDT)")
	optimizeCmd.Flags().IntVarP(&days, "days", "d", 0, "Observation window in days (default 365)")
	optimizeCmd.Flags().StringVarP(&startDate, "start", "s", "", "Start date (e.g. 2025-01-01)")
	optimizeCmd.Flags().StringVarP(&endDate, "end", "e", "", "End date (e.g. 2025-08-01)")
	optimizeCmd.Flags().Float64VarP(&riskFree, "risk-free", "r", 0, "Annual risk-free rate")
	optimizeCmd.Flags().BoolVarP(&gridSearch, "grid", "g", false, "Use exhaustive grid search instead of the numeric optimizer")
	optimizeCmd.Flags().Float64Var(&gridStep, "grid-step", 0.01, "Grid search weight step")
	optimizeCmd.Flags().BoolVar(&legacy, "legacy-bounds", false, "Allow per-asset weights above 1 before normalization")
	optimizeCmd.Flags().BoolVar(&useCache, "cache", false, "Cache downloaded prices in local storage")
	optimizeCmd.Flags().StringVarP(&chartFile, "chart", "c", "", "Write a PNG chart to this path")
	optimizeCmd.Flags().StringVarP(&returnsCSV, "returns", "o", "", "Write the portfolio returns CSV to this path")

	optimizeCmd.MarkFlagRequired("symbols")

	return optimizeCmd
}

func buildDownloadCmd() *cobra.Command {
	downloadCmd := &cobra.Command{
		Use:   "download",
		Short: "Download historical daily closes to CSV files",
		RunE:  runDownload,
	}

	downloadCmd.Flags().StringSliceVarP(&symbols, "symbols", "p", nil, "Symbols (e.g. BTCUSDT,ETHUSDT)")
	downloadCmd.Flags().IntVarP(&days, "days", "d", 0, "Number of days to download (default 30 days)")
	downloadCmd.Flags().StringVarP(&startDate, "start", "s", "", "Start date (e.g. 2025-01-01)")
	downloadCmd.Flags().StringVarP(&endDate, "end", "e", "", "End date (e.g. 2025-08-01)")
	downloadCmd.Flags().StringVarP(&outputDir, "output", "o", ".", "Output directory")

	downloadCmd.MarkFlagRequired("symbols")

	return downloadCmd
}

func runOptimize(cmd *cobra.Command, args []string) error {
	appConfig := loadAppConfig()

	start, end, err := resolveWindow(365)
	if err != nil {
		return err
	}

	settings := optifolio.Settings{
		Symbols: symbols,
		Start:   start,
		End:     end,
	}

	config := optimizer.NewConfig().
		WithRiskFreeRate(riskFree).
		WithGridStep(gridStep).
		WithLogger(optifolio.DefaultLog)
	if legacy {
		config = config.WithLegacyBounds()
	}

	opt, err := buildOptimizer(config)
	if err != nil {
		return err
	}

	options := []optifolio.Option{}
	if useCache {
		store, err := storage.NewFromSQLite(appConfig.Storage, storage.DefaultConfig())
		if err != nil {
			return err
		}
		options = append(options, optifolio.WithStorage(store))
	}
	if appConfig.Enabled {
		appConfig.Telegram.Symbols = symbols
		options = append(options, optifolio.WithTelegram(appConfig.Telegram))
	}
	if chartFile != "" {
		options = append(options, optifolio.WithChartFile(chartFile))
	}

	provider := feed.NewBinance(appConfig.Binance, optifolio.DefaultLog)
	study, err := optifolio.New(settings, provider, opt, options...)
	if err != nil {
		return err
	}

	result, err := study.Run(cmd.Context())
	if err != nil {
		optifolio.DefaultLog.WithError(err).Warn("run finished with error")
	}
	if result == nil {
		return err
	}

	study.Summary()

	if returnsCSV != "" {
		return study.SaveReturns(returnsCSV)
	}
	return nil
}

func runDownload(cmd *cobra.Command, args []string) error {
	appConfig := loadAppConfig()

	options, err := buildDownloadOptions()
	if err != nil {
		return err
	}

	source := feed.NewBinance(appConfig.Binance, optifolio.DefaultLog)
	_, err = feed.NewDownloader(source, optifolio.DefaultLog).Download(
		cmd.Context(),
		symbols,
		outputDir,
		options...,
	)
	return err
}

// buildOptimizer picks the search engine from the flags
func buildOptimizer(config *optimizer.Config) (core.Optimizer, error) {
	if gridSearch {
		return optimizer.NewGridSearch(config)
	}
	return optimizer.NewSharpeSearch(config), nil
}

// resolveWindow turns the date flags into a concrete [start, end] window
func resolveWindow(defaultDays int) (time.Time, time.Time, error) {
	if startDate != "" || endDate != "" {
		if startDate == "" || endDate == "" {
			return time.Time{}, time.Time{}, fmt.Errorf("start and end dates must be provided together")
		}

		start, err := time.Parse(dateLayout, startDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start date format: %w", err)
		}

		end, err := time.Parse(dateLayout, endDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end date format: %w", err)
		}

		return start, end, nil
	}

	window := defaultDays
	if days > 0 {
		window = days
	}
	now := time.Now().UTC()
	return now.AddDate(0, 0, -window), now, nil
}

func buildDownloadOptions() ([]feed.DownloadOption, error) {
	var options []feed.DownloadOption

	if days > 0 {
		options = append(options, feed.WithDays(days))
	}

	if startDate != "" || endDate != "" {
		if startDate == "" || endDate == "" {
			return nil, fmt.Errorf("start and end dates must be provided together")
		}

		start, err := time.Parse(dateLayout, startDate)
		if err != nil {
			return nil, fmt.Errorf("invalid start date format: %w", err)
		}

		end, err := time.Parse(dateLayout, endDate)
		if err != nil {
			return nil, fmt.Errorf("invalid end date format: %w", err)
		}

		options = append(options, feed.WithInterval(start, end))
	}

	return options, nil
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"zonewatch/config"
	telegram "zonewatch/internal/api"
	app "zonewatch/internal/application"
	"zonewatch/internal/container"
	"zonewatch/internal/domain/entity"
	"zonewatch/internal/infrastructure/messaging"
	"zonewatch/internal/infrastructure/vision"
	"zonewatch/internal/logging"
	"zonewatch/internal/worker"
)

const cleanupInterval = time.Hour

// CLI flags
var (
	configFlag string
	zonesFlag  string
	scanIDFlag string
)

var rootCmd = &cobra.Command{
	Use:   "zonewatch",
	Short: "Find people in recorded video, optionally inside polygon zones",
	Long: `zonewatch samples frames from a video file, runs a person detector on them
and reports every detection with its timestamp, confidence and zone.

Examples:
  zonewatch scan ./lobby.mp4
  zonewatch scan ./lobby.mp4 --zones zones.json
  zonewatch info ./lobby.mp4
  zonewatch bot --config zonewatch.yaml
  zonewatch worker`,
	SilenceUsage: true,
}

var scanCmd = &cobra.Command{
	Use:   "scan <video>",
	Short: "Scan a video and print the result as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runScan,
}

var infoCmd = &cobra.Command{
	Use:   "info <video>",
	Short: "Print video parameters as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run the Telegram bot",
	RunE:  runBot,
}

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume scan jobs from Kafka",
	RunE:  runWorker,
}

var submitCmd = &cobra.Command{
	Use:   "submit <video>",
	Short: "Queue a scan job in Kafka",
	Args:  cobra.ExactArgs(1),
	RunE:  runSubmit,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "YAML config file")
	for _, cmd := range []*cobra.Command{scanCmd, submitCmd} {
		cmd.Flags().StringVarP(&zonesFlag, "zones", "z", "", "JSON file with zones (empty = whole frame)")
		cmd.Flags().StringVar(&scanIDFlag, "scan-id", "", "Scan id (generated when empty)")
	}
	rootCmd.AddCommand(scanCmd, infoCmd, botCmd, workerCmd, submitCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return nil, err
	}
	logging.Init(cfg.LogLevel)
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func loadZones(path string) ([]entity.Zone, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var zones []entity.Zone
	if err := json.Unmarshal(data, &zones); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", entity.ErrMalformedZone, path, err)
	}
	return zones, entity.ValidateZones(zones)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	zones, err := loadZones(zonesFlag)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	c, err := container.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	out, scanErr := c.AnalysisService.Analyze(ctx, app.AnalyzeRequest{
		ScanID:    scanIDFlag,
		VideoPath: args[0],
		Zones:     zones,
	})
	if out == nil {
		return scanErr
	}

	log.Info().Str("scan_id", out.ScanID).Str("mode", string(out.Mode)).Msg("Scan finished")
	if err := printJSON(out.Result); err != nil {
		return err
	}
	return scanErr
}

func runInfo(cmd *cobra.Command, args []string) error {
	if _, err := loadConfig(); err != nil {
		return err
	}

	svc := app.NewAnalysisService(nil, vision.NewVideoSource(), nil, nil, nil)
	return printJSON(svc.Info(cmd.Context(), args[0]))
}

func runBot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.TelegramToken == "" {
		return errors.New("TELEGRAM_TOKEN is required")
	}

	ctx, cancel := signalContext()
	defer cancel()

	c, err := container.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	startBackground(ctx, c)

	bot, err := telegram.NewBot(cfg.TelegramToken, c)
	if err != nil {
		return fmt.Errorf("create bot: %w", err)
	}

	log.Info().Msg("Bot is running...")
	return bot.Run(ctx)
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(cfg.Kafka.Brokers) == 0 {
		return errors.New("KAFKA_BROKERS is required")
	}

	ctx, cancel := signalContext()
	defer cancel()

	c, err := container.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	consumer, err := messaging.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.JobTopic)
	if err != nil {
		return fmt.Errorf("create kafka consumer: %w", err)
	}
	defer consumer.Close()
	consumer.StartListening(ctx)

	startBackground(ctx, c)

	worker.New(c.AnalysisService, consumer.Messages(), cfg.Scan.Timeout).ListenAndRun(ctx)
	return nil
}

func runSubmit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	zones, err := loadZones(zonesFlag)
	if err != nil {
		return err
	}

	producer, err := messaging.NewJobProducer(cfg.Kafka.Brokers, cfg.Kafka.JobTopic)
	if err != nil {
		return fmt.Errorf("create kafka producer: %w", err)
	}
	defer producer.Close()

	job := messaging.ScanJob{ScanID: scanIDFlag, VideoPath: args[0], Zones: zones}
	if err := producer.Submit(job); err != nil {
		return err
	}
	log.Info().Str("video", job.VideoPath).Str("topic", cfg.Kafka.JobTopic).Msg("Scan job queued")
	return nil
}

// startBackground запускает сервер метрик и очистку старых кадров
func startBackground(ctx context.Context, c *container.Container) {
	if addr := c.Config.MetricsAddr; addr != "" {
		go func() {
			if err := c.Metrics.StartServer(addr); err != nil {
				log.Error().Err(err).Str("addr", addr).Msg("Metrics server stopped")
			}
		}()
	}
	c.StartCleanup(ctx, cleanupInterval)
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/voyagehq/farebot/internal/airline"
	"github.com/voyagehq/farebot/internal/api"
	"github.com/voyagehq/farebot/internal/flow"
	"github.com/voyagehq/farebot/internal/genai"
	"github.com/voyagehq/farebot/internal/messaging"
	"github.com/voyagehq/farebot/internal/session"
	"github.com/voyagehq/farebot/internal/util"
	"github.com/voyagehq/farebot/internal/whatsapp"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for FareBot state data
	DefaultStateDir = "/var/lib/farebot"
	// DefaultSessionDBFileName is the default SQLite session database filename
	DefaultSessionDBFileName = "farebot.db"
	// DefaultChannel is the messaging channel used when none is configured
	DefaultChannel = "cloudapi"
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	if err := run(flags); err != nil {
		slog.Error("FareBot failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("FareBot exited successfully")
}

// Config holds environment configuration
type Config struct {
	StateDir        string
	SessionDSN      string
	WhatsmeowDSN    string
	Channel         string
	WhatsAppToken   string
	WhatsAppPhoneID string
	VerifyToken     string
	GeminiKey       string
	GeminiBaseURL   string
	GeminiModel     string
	KafkaBrokers    string
	APIAddr         string
}

// Flags holds command line flag values
type Flags struct {
	stateDir     *string
	sessionDSN   *string
	whatsmeowDSN *string
	channel      *string
	geminiKey    *string
	kafkaBrokers *string
	apiAddr      *string
	qrOutput     *string
	numeric      *bool

	config Config
}

// initializeLogger sets up structured logging with debug level
func initializeLogger() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		StateDir:        os.Getenv("FAREBOT_STATE_DIR"),
		SessionDSN:      os.Getenv("SESSION_DB_DSN"),
		WhatsmeowDSN:    os.Getenv("WHATSAPP_DB_DSN"),
		Channel:         os.Getenv("MESSAGING_CHANNEL"),
		WhatsAppToken:   os.Getenv("WHATSAPP_TOKEN"),
		WhatsAppPhoneID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
		VerifyToken:     os.Getenv("WHATSAPP_VERIFY_TOKEN"),
		GeminiKey:       os.Getenv("GEMINI_API_KEY"),
		GeminiBaseURL:   os.Getenv("GEMINI_BASE_URL"),
		GeminiModel:     os.Getenv("GEMINI_MODEL"),
		KafkaBrokers:    os.Getenv("KAFKA_BROKERS"),
		APIAddr:         os.Getenv("API_ADDR"),
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No FAREBOT_STATE_DIR set, using default", "state_dir", config.StateDir)
	}
	if config.Channel == "" {
		config.Channel = DefaultChannel
	}

	slog.Debug("environment variables loaded",
		"FAREBOT_STATE_DIR", config.StateDir,
		"SESSION_DB_DSN_SET", config.SessionDSN != "",
		"MESSAGING_CHANNEL", config.Channel,
		"WHATSAPP_TOKEN_SET", config.WhatsAppToken != "",
		"GEMINI_API_KEY_SET", config.GeminiKey != "",
		"KAFKA_BROKERS_SET", config.KafkaBrokers != "",
		"API_ADDR", config.APIAddr)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:     flag.String("state-dir", config.StateDir, "state directory for FareBot data (overrides $FAREBOT_STATE_DIR)"),
		sessionDSN:   flag.String("session-dsn", config.SessionDSN, "session store DSN: SQLite path, postgres://, or redis:// (overrides $SESSION_DB_DSN)"),
		whatsmeowDSN: flag.String("whatsapp-db-dsn", config.WhatsmeowDSN, "whatsmeow database DSN (overrides $WHATSAPP_DB_DSN)"),
		channel:      flag.String("channel", config.Channel, "messaging channel: cloudapi, whatsmeow, or twilio (overrides $MESSAGING_CHANNEL)"),
		geminiKey:    flag.String("gemini-api-key", config.GeminiKey, "Gemini API key (overrides $GEMINI_API_KEY)"),
		kafkaBrokers: flag.String("kafka-brokers", config.KafkaBrokers, "comma-separated Kafka brokers for booking events (overrides $KAFKA_BROKERS)"),
		apiAddr:      flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		qrOutput:     flag.String("qr-output", "", "path to write the WhatsApp login QR code"),
		numeric:      flag.Bool("numeric-code", util.ParseBoolEnv("WHATSAPP_NUMERIC_CODE", false), "use numeric login code instead of QR code (overrides $WHATSAPP_NUMERIC_CODE)"),
		config:       config,
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"stateDir", *flags.stateDir,
		"sessionDSN_set", *flags.sessionDSN != "",
		"channel", *flags.channel,
		"geminiKeySet", *flags.geminiKey != "",
		"kafkaBrokers_set", *flags.kafkaBrokers != "",
		"apiAddr", *flags.apiAddr)

	return flags
}

func run(flags Flags) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessions, err := buildSessionStore(flags)
	if err != nil {
		return fmt.Errorf("failed to build session store: %w", err)
	}
	defer sessions.Close()

	airlineSvc, publisher, err := buildAirlineService(flags)
	if err != nil {
		return fmt.Errorf("failed to build airline service: %w", err)
	}
	if publisher != nil {
		defer publisher.Close()
	}

	manager, err := buildManager(flags, sessions, airlineSvc)
	if err != nil {
		return fmt.Errorf("failed to build conversation manager: %w", err)
	}

	msgService, serverOpts, err := buildMessaging(flags)
	if err != nil {
		return fmt.Errorf("failed to build messaging service: %w", err)
	}
	if err := msgService.Start(ctx); err != nil {
		return fmt.Errorf("failed to start messaging service: %w", err)
	}
	defer msgService.Stop()

	messaging.NewResponseHandler(msgService, manager).Start(ctx)

	if *flags.apiAddr != "" {
		serverOpts = append(serverOpts, api.WithAddr(*flags.apiAddr))
	}
	sweepMinutes := util.ParseIntEnv("SESSION_SWEEP_MINUTES", 5)
	serverOpts = append(serverOpts, api.WithSweepInterval(time.Duration(sweepMinutes)*time.Minute))
	server := api.NewServer(msgService, manager, sessions, serverOpts...)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Run(ctx) }()

	slog.Info("FareBot running", "channel", *flags.channel)

	select {
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown failed", "error", err)
	}
	return nil
}

// buildSessionStore selects a backend from the DSN. No DSN means sessions
// live in memory for the process lifetime.
func buildSessionStore(flags Flags) (session.Store, error) {
	dsn := *flags.sessionDSN
	if dsn == "" {
		slog.Info("No session DSN configured, using in-memory store")
		return session.NewInMemoryStore(), nil
	}

	switch session.DetectDSNType(dsn) {
	case "postgres":
		return session.NewPostgresStore(session.WithPostgresDSN(dsn))
	case "redis":
		return session.NewRedisStore(session.WithRedisDSN(dsn))
	default:
		if !filepath.IsAbs(dsn) {
			dsn = filepath.Join(*flags.stateDir, dsn)
		}
		return session.NewSQLiteStore(session.WithSQLiteDSN(dsn))
	}
}

func buildAirlineService(flags Flags) (*airline.Service, *airline.KafkaPublisher, error) {
	var opts []airline.Option
	var publisher *airline.KafkaPublisher
	if *flags.kafkaBrokers != "" {
		publisher = airline.NewKafkaPublisher(strings.Split(*flags.kafkaBrokers, ","))
		opts = append(opts, airline.WithEventPublisher(publisher))
	}

	svc, err := airline.New(opts...)
	if err != nil {
		return nil, nil, err
	}
	return svc, publisher, nil
}

// buildManager wires the extractor chain: the LLM extractor first when a key
// is configured, the rule extractor always last.
func buildManager(flags Flags, sessions session.Store, airlineSvc *airline.Service) (*flow.Manager, error) {
	var opts []flow.Option

	if *flags.geminiKey != "" {
		genaiOpts := []genai.Option{genai.WithAPIKey(*flags.geminiKey)}
		if flags.config.GeminiBaseURL != "" {
			genaiOpts = append(genaiOpts, genai.WithBaseURL(flags.config.GeminiBaseURL))
		}
		if flags.config.GeminiModel != "" {
			genaiOpts = append(genaiOpts, genai.WithModel(flags.config.GeminiModel))
		}
		client, err := genai.NewClient(genaiOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create genai client: %w", err)
		}
		opts = append(opts, flow.WithExtractor(flow.NewGenAIExtractor(client)))
	} else {
		slog.Warn("No Gemini API key configured, running with rule-based extraction only")
	}

	opts = append(opts, flow.WithExtractor(flow.NewRuleExtractor(airlineSvc.Cities(), nil)))
	return flow.NewManager(sessions, airlineSvc, opts...)
}

func buildMessaging(flags Flags) (messaging.Service, []api.Option, error) {
	switch *flags.channel {
	case "whatsmeow":
		waOpts := []whatsapp.Option{}
		if *flags.whatsmeowDSN != "" {
			waOpts = append(waOpts, whatsapp.WithDBDSN(*flags.whatsmeowDSN))
		} else {
			waOpts = append(waOpts, whatsapp.WithDBDSN(filepath.Join(*flags.stateDir, "whatsmeow.db")))
		}
		if *flags.qrOutput != "" {
			waOpts = append(waOpts, whatsapp.WithQRCodeOutput(*flags.qrOutput))
		}
		if *flags.numeric {
			waOpts = append(waOpts, whatsapp.WithNumericCode())
		}
		client, err := whatsapp.NewClient(waOpts...)
		if err != nil {
			return nil, nil, err
		}
		return messaging.NewWhatsmeowService(client), nil, nil

	case "twilio":
		client, err := messaging.NewTwilioClient()
		if err != nil {
			return nil, nil, err
		}
		service := messaging.NewTwilioService(client)
		return service, []api.Option{api.WithTwilioService(service)}, nil

	case "cloudapi":
		service, err := messaging.NewCloudAPIService()
		if err != nil {
			return nil, nil, err
		}
		return service, []api.Option{api.WithCloudService(service)}, nil

	default:
		return nil, nil, fmt.Errorf("unknown messaging channel %q", *flags.channel)
	}
}

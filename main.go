package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
)

// exitProcess is swapped in tests; the browser watcher also goes through it.
var exitProcess = os.Exit

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	url := flag.String("url", "", "Event page URL (overrides config)")
	headless := flag.Bool("headless", false, "Run the browser without a window")
	debug := flag.Bool("debug", false, "Enable detailed debug logging")
	sessionFile := flag.String("session", "", "Path to a saved session state file (overrides config)")
	saleTime := flag.String("sale-time", "", "Sale start time (YYYY-MM-DD HH:MM local, or RFC3339) - enables timed mode")
	flag.Parse()

	if err := ensureUserDataDir(); err != nil {
		log.Printf("Warning: could not create user data directory: %v", err)
	}

	config, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *url != "" {
		config.EventURL = *url
	}
	if *headless {
		config.Headless = true
	}
	if *debug {
		config.DebugMode = true
	}
	if *sessionFile != "" {
		config.SessionFile = *sessionFile
	}
	if *saleTime != "" {
		config.SaleStartTime = *saleTime
	}

	if err := config.Validate(); err != nil {
		log.Fatalf("Config invalid: %v", err)
	}

	logger := NewLogger(config.DebugMode)
	runID := uuid.NewString()[:8]

	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║                Ticket Acquisition Engine                  ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("Event URL:       %s\n", config.EventURL)
	fmt.Printf("Categories:      %v\n", config.Categories)
	fmt.Printf("Quantity:        %d\n", config.Quantity)
	fmt.Printf("Browser Profile: %s\n", config.BrowserProfilePath)
	fmt.Printf("Run ID:          %s\n", runID)
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	browser := NewBrowser(config, logger)
	if err := browser.Setup(); err != nil {
		log.Fatalf("Failed to set up browser: %v", err)
	}
	defer browser.Close()

	var session *SessionState
	if config.SessionFile != "" {
		state, err := LoadSessionState(config.SessionFile)
		if err != nil {
			logger.Warnf("Session state %s not usable: %v", config.SessionFile, err)
		} else if err := state.ApplyCookies(browser.Rod()); err != nil {
			logger.Warnf("Could not apply session cookies: %v", err)
		} else {
			logger.Infof("Restored %d cookies from %s", len(state.Cookies), config.SessionFile)
			session = state
		}
	}

	if config.SaleStartTime != "" {
		if err := waitForSaleWindow(ctx, config, logger); err != nil {
			logger.Errorf("%v", err)
			exitProcess(1)
		}
	}

	if err := browser.Open(config.EventURL); err != nil {
		log.Fatalf("Failed to open event page: %v", err)
	}

	if session != nil && len(session.Origins) > 0 {
		if err := session.ApplyStorage(browser.Page(), config.EventURL); err != nil {
			logger.Warnf("Could not replay session storage: %v", err)
		} else if err := browser.Open(config.EventURL); err != nil {
			logger.Warnf("Reload after storage replay failed: %v", err)
		}
	}

	flow := NewFlow(config, logger, browser, runID)
	result := flow.Run(ctx)

	fmt.Println()
	switch result.Outcome {
	case OutcomeCompleted:
		logger.Successf("Run %s finished: %s", runID, result.Outcome)
		if result.Reference != "" {
			fmt.Printf("\n  Payment reference: %s\n\n", result.Reference)
		}
	case OutcomeCategoryUnavailable:
		logger.Errorf("Run %s finished: %s", runID, result.Outcome)
	case OutcomeAborted:
		logger.Errorf("Run %s finished: %s (%s)", runID, result.Outcome, result.Reason)
	}

	holdOpen(ctx, config, logger, result.Outcome)
}

// waitForSaleWindow sleeps until shortly before the configured sale start,
// syncing against external clocks so the countdown does not trust the
// machine clock.
func waitForSaleWindow(ctx context.Context, config *Config, logger *Logger) error {
	saleAt, err := parseSaleTime(config.SaleStartTime)
	if err != nil {
		return err
	}

	clock := NewClock(logger)
	if err := clock.Sync(); err != nil {
		logger.Warnf("Time sync failed, falling back to the local clock: %v", err)
	} else {
		logger.Infof("Clock synchronized (offset %v)", clock.Offset())
	}

	wakeAt := saleAt.Add(-time.Duration(config.StartBeforeSaleMinutes) * time.Minute)
	logger.Infof("Timed mode: sale at %s, engaging at %s",
		saleAt.Format("2006-01-02 15:04:05 MST"), wakeAt.Format("15:04:05 MST"))

	for {
		remaining := wakeAt.Sub(clock.Now())
		if remaining <= 0 {
			logger.Urgentf("Sale window opening, engaging now")
			return nil
		}

		if clock.ShouldResync() {
			if err := clock.Sync(); err != nil {
				logger.Debugf("resync failed: %v", err)
			}
		}

		logger.Infof("Waiting for sale window: %s remaining", remaining.Round(time.Second))

		sleep := 30 * time.Second
		if remaining < sleep {
			sleep = remaining
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("interrupted while waiting for the sale window: %w", ctx.Err())
		case <-time.After(sleep):
		}
	}
}

// holdOpen keeps the browser alive after the run so the operator can finish
// or inspect the purchase. Headless runs get a short hold; interactive runs
// a long one. Ctrl-C ends either early.
func holdOpen(ctx context.Context, config *Config, logger *Logger, outcome Outcome) {
	var hold time.Duration
	if config.Headless {
		hold = time.Duration(config.HeadlessHoldSeconds) * time.Second
	} else {
		hold = time.Duration(config.KeepOpenMinutes) * time.Minute
	}
	if hold <= 0 || ctx.Err() != nil {
		return
	}

	if outcome == OutcomeCompleted {
		logger.Infof("Keeping the browser open for %v to finish payment (Ctrl-C to exit)", hold)
	} else {
		logger.Infof("Keeping the browser open for %v for inspection (Ctrl-C to exit)", hold)
	}

	select {
	case <-ctx.Done():
	case <-time.After(hold):
	}
}

// ensureUserDataDir creates the app data directory the profile and session
// defaults live under.
func ensureUserDataDir() error {
	return os.MkdirAll(getUserDataDir(), 0755)
}

func getUserDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./tixwar-data"
	}
	return filepath.Join(home, ".tixwar")
}

package main

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// Browser owns the single browsing session for a run. The current page is
// the initial surface; the flow controller may supersede it with a popup or
// frame surface, but close/liveness always go through here.
type Browser struct {
	config   *Config
	log      *Logger
	browser  *rod.Browser
	page     *rod.Page
	launcher *launcher.Launcher
	stopChan chan bool
}

func NewBrowser(config *Config, log *Logger) *Browser {
	return &Browser{
		config:   config,
		log:      log,
		stopChan: make(chan bool, 1),
	}
}

func (b *Browser) Setup() error {
	b.log.Infof("Launching browser...")

	// Disable leakless mode on Windows to prevent deadlock
	// See: https://github.com/go-rod/rod/issues/853
	useLeakless := runtime.GOOS != "windows"

	chromePath, chromeExists := launcher.LookPath()

	b.launcher = launcher.New().
		Leakless(useLeakless).
		Headless(b.config.Headless)

	if b.config.BrowserProfilePath != "" {
		b.launcher = b.launcher.UserDataDir(b.config.BrowserProfilePath)
		b.log.Debugf("Browser profile: %s", b.config.BrowserProfilePath)
	}

	if chromeExists {
		b.launcher = b.launcher.Bin(chromePath)
		b.log.Debugf("Using system Chrome at %s", chromePath)
	} else {
		b.log.Infof("System Chrome not found, a Chromium build will be downloaded")
	}

	url, err := b.launcher.Launch()
	if err != nil {
		errMsg := err.Error()
		if strings.Contains(errMsg, "Opening in existing browser session") ||
			strings.Contains(errMsg, "ProcessSingleton") ||
			strings.Contains(errMsg, "SingletonLock") {
			b.log.Errorf("Chrome is already running with this profile. Close all Chrome windows and try again.")
			return fmt.Errorf("chrome already running")
		}
		if strings.Contains(errMsg, "Access is denied") || strings.Contains(errMsg, "permission denied") {
			b.log.Errorf("No permission to launch the browser; check the profile directory %s", b.config.BrowserProfilePath)
			return fmt.Errorf("browser setup failed: %w", err)
		}
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	b.browser = rod.New().ControlURL(url)
	if err := b.browser.Connect(); err != nil {
		return fmt.Errorf("failed to connect to browser: %w", err)
	}

	b.page, err = stealth.Page(b.browser)
	if err != nil {
		return fmt.Errorf("failed to create stealth page: %w", err)
	}

	err = b.page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: defaultUserAgent})
	if err != nil {
		b.log.Warnf("Failed to set user agent: %v", err)
	}

	go b.watch()

	b.log.Successf("Browser ready")
	return nil
}

// Open navigates the initial surface to the event page with the configured
// navigation timeout.
func (b *Browser) Open(url string) error {
	b.log.Infof("Opening %s", url)

	page := b.page.Timeout(b.config.NavTimeout())
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("page failed to load: %w", err)
	}
	return nil
}

func (b *Browser) Page() *rod.Page {
	return b.page
}

func (b *Browser) Rod() *rod.Browser {
	return b.browser
}

func (b *Browser) isAlive() bool {
	if b.browser == nil {
		return false
	}

	if _, err := b.browser.Version(); err != nil {
		b.log.Debugf("Browser version check failed: %v", err)
		return false
	}

	if b.page != nil {
		if _, err := b.page.Info(); err != nil {
			b.log.Debugf("Page info check failed: %v", err)
			return false
		}
	}

	return true
}

// watch exits the process cleanly when the operator closes the browser
// window by hand.
func (b *Browser) watch() {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			if !b.isAlive() {
				b.log.Warnf("Browser was closed, shutting down")
				exitProcess(0)
				return
			}
		}
	}
}

func (b *Browser) Close() {
	select {
	case b.stopChan <- true:
	default:
	}

	b.log.Infof("Cleaning up browser session...")

	if b.page != nil {
		b.page.Close()
	}

	if b.browser != nil {
		b.browser.Close()
	}

	if b.launcher != nil {
		b.launcher.Cleanup()
	}
}

package oura

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog"
)

// Default pages of the Oura web account.
const (
	DefaultSignInURL = "https://cloud.ouraring.com/user/sign-in"
	DefaultExportURL = "https://cloud.ouraring.com/user/settings/personal-info"
)

// ErrNoAccount is returned when account credentials for the export download are missing.
var ErrNoAccount = errors.New("oura account credentials not configured")

// ErrSignInRejected is returned when the web account refuses the configured credentials.
var ErrSignInRejected = errors.New("oura account sign-in rejected")

// Downloader saves a fresh export into dir and returns its path.
type Downloader interface {
	Download(ctx context.Context, dir string) (string, error)
}

// RodDownloaderConfig configures browser automation.
type RodDownloaderConfig struct {
	Email     string
	Password  string
	SignInURL string
	ExportURL string
	Headless  bool
	Timeout   time.Duration
}

// RodDownloader signs into the Oura web account in a headless browser and
// triggers the data export download.
type RodDownloader struct {
	cfg RodDownloaderConfig
	log zerolog.Logger
	now func() time.Time
}

// NewRodDownloader creates a browser export downloader.
func NewRodDownloader(cfg RodDownloaderConfig, log zerolog.Logger) *RodDownloader {
	if cfg.SignInURL == "" {
		cfg.SignInURL = DefaultSignInURL
	}
	if cfg.ExportURL == "" {
		cfg.ExportURL = DefaultExportURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	return &RodDownloader{
		cfg: cfg,
		log: log.With().Str("client", "oura-export").Logger(),
		now: time.Now,
	}
}

// Configured reports whether account credentials are set.
func (d *RodDownloader) Configured() bool {
	return d.cfg.Email != "" && d.cfg.Password != ""
}

// Download drives the sign-in and export pages and waits for the file.
// The page selectors follow the current Oura web UI.
func (d *RodDownloader) Download(ctx context.Context, dir string) (string, error) {
	if !d.Configured() {
		return "", ErrNoAccount
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	l := launcher.New().Headless(d.cfg.Headless)
	controlURL, err := l.Launch()
	if err != nil {
		return "", fmt.Errorf("launch browser: %w", err)
	}
	defer l.Cleanup()

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return "", fmt.Errorf("connect to browser: %w", err)
	}
	defer func() { _ = browser.Close() }()

	d.log.Info().Msg("Signing in to download Oura export")

	page, err := browser.Page(proto.TargetCreateTarget{URL: d.cfg.SignInURL})
	if err != nil {
		return "", fmt.Errorf("open sign-in page: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("load sign-in page: %w", err)
	}

	if err := inputInto(page, `input[type="email"]`, d.cfg.Email); err != nil {
		return "", err
	}
	if err := inputInto(page, `input[type="password"]`, d.cfg.Password); err != nil {
		return "", err
	}
	submit, err := page.Element(`button[type="submit"]`)
	if err != nil {
		return "", fmt.Errorf("sign-in button not found: %w", err)
	}
	if err := submit.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return "", fmt.Errorf("submit sign-in: %w", err)
	}
	// a rejected sign-in does not navigate, so wait for the page to settle instead
	if err := page.WaitStable(time.Second); err != nil {
		return "", fmt.Errorf("wait for sign-in: %w", err)
	}

	var alert string
	if has, el, err := page.Has(`[role="alert"]`); err == nil && has {
		alert, _ = el.Text()
	}
	info, err := page.Info()
	if err != nil {
		return "", fmt.Errorf("read page after sign-in: %w", err)
	}
	if err := checkSignIn(info.URL, d.cfg.SignInURL, alert); err != nil {
		return "", err
	}

	if err := page.Navigate(d.cfg.ExportURL); err != nil {
		return "", fmt.Errorf("open export page: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("load export page: %w", err)
	}

	exportButton, err := page.ElementR("button, a", "Export Data")
	if err != nil {
		return "", fmt.Errorf("export button not found: %w", err)
	}

	wait := browser.WaitDownload(dir)
	if err := exportButton.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return "", fmt.Errorf("start export download: %w", err)
	}
	download := wait()
	if download == nil {
		return "", fmt.Errorf("export download did not start")
	}

	// downloads land under their GUID
	target := filepath.Join(dir, fmt.Sprintf("oura_export_%s.json", d.now().Format("20060102")))
	if err := os.Rename(filepath.Join(dir, download.GUID), target); err != nil {
		return "", fmt.Errorf("failed to store export: %w", err)
	}

	d.log.Info().Str("path", target).Msg("Oura export downloaded")

	return target, nil
}

// checkSignIn fails when the sign-in form shows an alert or the browser is still on it.
func checkSignIn(currentURL, signInURL, alert string) error {
	if alert = strings.TrimSpace(alert); alert != "" {
		return fmt.Errorf("%w: %s", ErrSignInRejected, alert)
	}
	current, err := url.Parse(currentURL)
	if err != nil {
		return nil
	}
	signIn, err := url.Parse(signInURL)
	if err != nil {
		return nil
	}
	if current.Host == signIn.Host && strings.TrimRight(current.Path, "/") == strings.TrimRight(signIn.Path, "/") {
		return fmt.Errorf("%w: still on the sign-in page", ErrSignInRejected)
	}
	return nil
}

func inputInto(page *rod.Page, selector, text string) error {
	el, err := page.Element(selector)
	if err != nil {
		return fmt.Errorf("element %s not found: %w", selector, err)
	}
	if err := el.Input(text); err != nil {
		return fmt.Errorf("input into %s: %w", selector, err)
	}
	return nil
}

package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lessonkit/refpipe/internal/core/domain"
)

var settingsJSON bool

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage pipeline settings",
	Long: `View and configure refpipe settings.

Settings are resolved from built-in defaults, then ~/.refpipe/config.toml,
then REFPIPE_* environment variables (a .env file is honoured).`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Store a setting in the config file",
	Long: `Store a setting in the config file.

List values such as validation.slide_types take a comma separated value.
Run 'refpipe settings keys' for the recognised keys.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List recognised setting keys",
	RunE:  runSettingsKeys,
}

func init() {
	settingsShowCmd.Flags().BoolVar(&settingsJSON, "json", false, "output settings as JSON")
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	if settingsJSON {
		masked := *settings
		masked.Cache.RedisPassword = maskSecret(masked.Cache.RedisPassword)
		masked.Upload.Token = maskSecret(masked.Upload.Token)
		return writeJSON(cmd, masked)
	}

	s := reportStyles
	section := func(name string) {
		cmd.Println()
		cmd.Println(s.Subtitle.Render("[" + name + "]"))
	}
	field := func(label string, value any) {
		cmd.Printf("  %s%v\n", s.Label.Render(label), value)
	}

	cmd.Println(s.Title.Render("Current Settings"))

	section("General")
	field("Data dir", orDefault(settings.DataDir, "~/.refpipe/data"))
	field("Log format", settings.LogFormat)
	field("Server addr", settings.ServerAddr)

	section("Cache")
	field("Backend", settings.Cache.Backend)
	if settings.Cache.Backend == domain.CacheBackendRedis {
		field("Redis addr", settings.Cache.RedisAddr)
		field("Redis DB", settings.Cache.RedisDB)
		field("Redis prefix", settings.Cache.RedisPrefix)
		if settings.Cache.RedisPassword != "" {
			field("Password", maskSecret(settings.Cache.RedisPassword))
		}
		if settings.Cache.RedisTTL > 0 {
			field("TTL", settings.Cache.RedisTTL)
		}
	}

	section("OCR")
	field("Language", settings.OCR.Language)
	field("Max dimension", settings.OCR.MaxDimension)
	field("Max scale", settings.OCR.MaxScale)
	field("Tesseract", orDefault(settings.OCR.TesseractPath, "tesseract (PATH)"))

	section("Upload")
	if !settings.Upload.Enabled() {
		field("Enabled", "no")
	} else {
		field("Endpoint", settings.Upload.Endpoint)
		if settings.Upload.Token != "" {
			field("Token", maskSecret(settings.Upload.Token))
		}
		field("Max retries", settings.Upload.MaxRetries)
		field("Base delay", settings.Upload.BaseDelay)
		field("Rate", fmt.Sprintf("%g/s", settings.Upload.RatePerSecond))
		field("Timeout", settings.Upload.Timeout)
	}

	section("Validation")
	field("Allow-list", orDefault(settings.Validation.AllowListPath, "(none)"))
	field("Slide types", strings.Join(settings.Validation.DefaultSlideTypes, ", "))

	section("Cleaning")
	field("Cleaners", strings.Join(settings.Cleaning.Cleaners, ", "))

	cmd.Println()
	if err := settings.Validate(); err != nil {
		cmd.Println(s.Warning.Render(fmt.Sprintf("Warning: %v", err)))
	} else {
		cmd.Println(s.Success.Render("Configuration is valid."))
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}
	cmd.Printf("Set %s\n", args[0])
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	for _, key := range settingsService.Keys() {
		cmd.Println(key)
	}
	return nil
}

// maskSecret masks a secret for display, showing only the first and last 4 characters.
func maskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

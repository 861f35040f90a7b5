package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/makeitchaccha/voicewealth/voicewealth"
	"github.com/makeitchaccha/voicewealth/voicewealth/catalog"
	"github.com/makeitchaccha/voicewealth/voicewealth/console"
	"github.com/makeitchaccha/voicewealth/voicewealth/speech"
)

const voiceWarmUpTimeout = 5 * time.Second

var (
	sayLanguage    string
	sayGender      string
	voicesLanguage string
	listLanguage   string

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Start the interactive console (default)",
		Args:  cobra.NoArgs,
		RunE:  runConsole,
	}

	sayCmd = &cobra.Command{
		Use:   "say",
		Short: "Speak one random affirmation and exit",
		Args:  cobra.NoArgs,
		RunE:  runSay,
	}

	voicesCmd = &cobra.Command{
		Use:   "voices",
		Short: "List the voices of the configured engine",
		Args:  cobra.NoArgs,
		RunE:  runVoices,
	}

	catalogCmd = &cobra.Command{
		Use:   "catalog",
		Short: "List the affirmations in the catalog",
		Args:  cobra.NoArgs,
		RunE:  runCatalog,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "voicewealth %s (commit %s)\n", Version, Commit)
		},
	}
)

func init() {
	sayCmd.Flags().StringVar(&sayLanguage, "language", "", "language code, defaults to playback.language")
	sayCmd.Flags().StringVar(&sayGender, "gender", "", "male or female, defaults to playback.gender")
	voicesCmd.Flags().StringVar(&voicesLanguage, "language", "", "only list voices for this language")
	catalogCmd.Flags().StringVar(&listLanguage, "language", "", "only list messages in this language")
}

func runConsole(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	app, err := startApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	controller, err := app.NewController()
	if err != nil {
		return err
	}
	defer controller.Close()

	con := console.New(controller, app.Engine, cmd.OutOrStdout())
	controller.AddObserver(con)

	done := make(chan error, 1)
	go func() {
		done <- con.Run(ctx, cmd.InOrStdin())
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		fmt.Fprintln(cmd.OutOrStdout())
		return nil
	}
}

func runSay(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	app, err := startApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	settings := app.Config.Playback.Settings()
	if sayLanguage != "" {
		settings.Language = catalog.LanguageCode(sayLanguage)
	}
	if sayGender != "" {
		if settings.Gender, err = speech.ParseGender(sayGender); err != nil {
			return err
		}
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	m, err := app.Catalog.SelectRandom(settings.Language)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), m.Text)

	waitForVoices(ctx, app.Engine)

	done := make(chan error, 1)
	app.Engine.Speak(speech.Request{
		ID:       1,
		Text:     m.Text,
		Language: m.Language.String(),
		Volume:   settings.Volume,
		Rate:     settings.Rate,
		Gender:   settings.Gender,
	}, speech.Callbacks{
		OnEnd:   func() { done <- nil },
		OnError: func(err error) { done <- err },
	})

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		app.Engine.CancelActive()
		return nil
	}
}

func runVoices(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	app, err := startApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	voices := waitForVoices(ctx, app.Engine)
	if voicesLanguage != "" {
		voices = speech.VoicesForLanguage(voices, voicesLanguage)
	}
	if len(voices) == 0 {
		return errors.New("engine reported no voices")
	}
	for _, v := range voices {
		fmt.Fprintln(cmd.OutOrStdout(), v)
	}
	return nil
}

func runCatalog(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cat, err := voicewealth.LoadCatalog(cfg.Catalog)
	if err != nil {
		return err
	}

	language := catalog.LanguageCode(listLanguage)
	if language != "" && !language.Supported() {
		return fmt.Errorf("%w: %s", catalog.ErrUnsupportedLanguage, language)
	}
	for _, m := range cat.Messages(language) {
		fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s  %s\n", m.ID, m.Language, m.Text)
	}
	return nil
}

// waitForVoices gives the engine a moment to warm up before its voice list is used.
func waitForVoices(ctx context.Context, engine speech.Engine) []speech.Voice {
	changed := make(chan struct{}, 1)
	engine.OnVoicesChanged(func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	if voices := engine.Voices(); len(voices) > 0 {
		return voices
	}

	select {
	case <-changed:
	case <-time.After(voiceWarmUpTimeout):
	case <-ctx.Done():
	}
	return engine.Voices()
}

package console

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/makeitchaccha/voicewealth/voicewealth/catalog"
	"github.com/makeitchaccha/voicewealth/voicewealth/speech"
)

func (c *Console) commands() []*cobra.Command {
	return []*cobra.Command{
		c.playCmd(),
		c.pauseCmd(),
		c.nextCmd(),
		c.langCmd(),
		c.volumeCmd(),
		c.rateCmd(),
		c.genderCmd(),
		c.repeatCmd(),
		c.historyCmd(),
		c.replayCmd(),
		c.voicesCmd(),
		c.statusCmd(),
		c.quitCmd(),
	}
}

func (c *Console) playCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Speak the current message",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return c.controller.Play()
		},
	}
}

func (c *Console) pauseCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "pause",
		Aliases: []string{"stop"},
		Short:   "Stop speaking",
		Args:    cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return c.controller.Pause()
		},
	}
}

func (c *Console) nextCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "next",
		Aliases: []string{"new"},
		Short:   "Show a new random message",
		Args:    cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return c.controller.GenerateNewMessage()
		},
	}
}

func (c *Console) langCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "lang <code>",
		Short:     "Switch language (" + languageList() + ")",
		Args:      cobra.ExactArgs(1),
		ValidArgs: languageStrings(),
		RunE: func(_ *cobra.Command, args []string) error {
			return c.controller.SetLanguage(catalog.LanguageCode(args[0]))
		},
	}
}

func (c *Console) volumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "volume <0..1>",
		Short: "Set the volume for the next play",
		Args:  cobra.ExactArgs(1),
		// negative numbers are values, not flags
		DisableFlagParsing: true,
		RunE:               func(cmd *cobra.Command, args []string) error {
			v, err := parseNumber(args[0])
			if err != nil {
				return err
			}
			if err := c.controller.SetVolume(v); err != nil {
				return err
			}
			cmd.Printf("volume: %.2f\n", c.controller.State().Settings.Volume)
			return nil
		},
	}
}

func (c *Console) rateCmd() *cobra.Command {
	return &cobra.Command{
		Use:                "rate <0.5..2>",
		Short:              "Set the speaking rate for the next play",
		Args:               cobra.ExactArgs(1),
		DisableFlagParsing: true,
		RunE:               func(cmd *cobra.Command, args []string) error {
			r, err := parseNumber(args[0])
			if err != nil {
				return err
			}
			if err := c.controller.SetRate(r); err != nil {
				return err
			}
			cmd.Printf("rate: %.2f\n", c.controller.State().Settings.Rate)
			return nil
		},
	}
}

func (c *Console) genderCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "gender <male|female>",
		Short:     "Prefer a male or female voice",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(speech.GenderMale), string(speech.GenderFemale)},
		RunE: func(_ *cobra.Command, args []string) error {
			g, err := speech.ParseGender(args[0])
			if err != nil {
				return newFriendlyError(err, "gender must be male or female")
			}
			return c.controller.SetGender(g)
		},
	}
}

func (c *Console) repeatCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "repeat <on|off>",
		Short:     "Repeat the message after it ends",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var enabled bool
			switch strings.ToLower(args[0]) {
			case "on", "true", "yes":
				enabled = true
			case "off", "false", "no":
				enabled = false
			default:
				return newFriendlyError(fmt.Errorf("invalid repeat value %q", args[0]), "repeat must be on or off")
			}
			if err := c.controller.SetAutoRepeat(enabled); err != nil {
				return err
			}
			cmd.Printf("auto-repeat: %s\n", onOff(enabled))
			return nil
		},
	}
}

func (c *Console) historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List recently shown messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.Print(formatHistory(c.controller.State().History))
			return nil
		},
	}
}

func (c *Console) replayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay <id>",
		Short: "Play a message from history again",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return c.controller.Replay(args[0])
		},
	}
}

func (c *Console) voicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "voices [language]",
		Short: "List voices for the current or given language",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			language := c.controller.State().Settings.Language.String()
			if len(args) == 1 {
				language = args[0]
			}
			cmd.Print(formatVoices(speech.VoicesForLanguage(c.engine.Voices(), language)))
			return nil
		},
	}
}

func (c *Console) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current message and settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.Println(formatState(c.controller.State()))
			return nil
		},
	}
}

func (c *Console) quitCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "quit",
		Aliases: []string{"exit"},
		Short:   "Leave the console",
		Args:    cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			c.quit = true
		},
	}
}

func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, newFriendlyError(err, fmt.Sprintf("%q is not a number", s))
	}
	return v, nil
}

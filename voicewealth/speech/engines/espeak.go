package engines

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/makeitchaccha/voicewealth/voicewealth/speech"
)

const (
	espeakBaseWordsPerMinute = 175
	espeakMaxAmplitude       = 200
)

var ErrEspeakNotFound = errors.New("espeak-ng or espeak not found in PATH")

// FindEspeak returns the path of the first espeak binary found in PATH.
func FindEspeak() (string, error) {
	for _, name := range []string{"espeak-ng", "espeak"} {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", ErrEspeakNotFound
}

var _ speech.Engine = (*EspeakEngine)(nil)

// EspeakEngine speaks through a local espeak process, one process per request.
type EspeakEngine struct {
	binary string
	opts   options

	runner *requestRunner
	voices *voiceList
}

func NewEspeakEngine(binary string, opts ...Option) *EspeakEngine {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	e := &EspeakEngine{
		binary: binary,
		opts:   o,
		runner: newRequestRunner(),
		voices: &voiceList{},
	}

	go e.voices.load(e.runner.base, e.Name(), o.voiceRetryBase, o.voiceRetries, e.fetchVoices)

	return e
}

func (e *EspeakEngine) Name() string {
	return "espeak"
}

func (e *EspeakEngine) Speak(request speech.Request, callbacks speech.Callbacks) {
	args := espeakArgs(e.voices.get(), request)
	slog.Info("Speaking", "request", request.ID, "engine", e.Name(), "language", request.Language, "args", args[:len(args)-2])

	e.runner.run(request, callbacks, func(ctx context.Context, started func()) error {
		var stderr bytes.Buffer
		cmd := exec.CommandContext(ctx, e.binary, args...)
		cmd.Stderr = &stderr

		if err := cmd.Start(); err != nil {
			return fmt.Errorf("start %s: %w", e.binary, err)
		}
		started()

		if err := cmd.Wait(); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%s: %w: %s", e.binary, err, strings.TrimSpace(stderr.String()))
		}
		return nil
	})
}

func (e *EspeakEngine) CancelActive() {
	e.runner.cancel()
}

func (e *EspeakEngine) Voices() []speech.Voice {
	return e.voices.get()
}

func (e *EspeakEngine) OnVoicesChanged(fn func()) {
	e.voices.subscribe(fn)
}

func (e *EspeakEngine) Close() error {
	e.runner.close()
	return nil
}

func (e *EspeakEngine) fetchVoices(ctx context.Context) ([]speech.Voice, error) {
	out, err := exec.CommandContext(ctx, e.binary, "--voices").Output()
	if err != nil {
		return nil, fmt.Errorf("list espeak voices: %w", err)
	}
	return parseEspeakVoices(out), nil
}

// espeakArgs builds the command line for request. The text always follows "--" so a leading dash is not read as an option.
func espeakArgs(voices []speech.Voice, request speech.Request) []string {
	voice := strings.ToLower(request.Language)
	variant := ""
	if v, ok := speech.SelectVoice(voices, request.Language, request.Gender); ok {
		voice = v.LanguageTag
		if !speech.MatchesGender(v, request.Gender) {
			variant = espeakVariant(request.Gender)
		}
	} else {
		variant = espeakVariant(request.Gender)
	}

	amplitude := lo.Clamp(int(request.Volume*espeakMaxAmplitude), 0, espeakMaxAmplitude)
	wpm := lo.Clamp(int(request.Rate*espeakBaseWordsPerMinute), 80, 450)

	return []string{
		"-a", strconv.Itoa(amplitude),
		"-s", strconv.Itoa(wpm),
		"-v", voice + variant,
		"--", request.Text,
	}
}

func espeakVariant(gender speech.Gender) string {
	switch gender {
	case speech.GenderFemale:
		return "+f3"
	case speech.GenderMale:
		return "+m3"
	default:
		return ""
	}
}

// parseEspeakVoices reads the table printed by "espeak --voices":
//
//	Pty Language       Age/Gender VoiceName          File                 Other Languages
//	 5  ar              --/M      Arabic             sem/ar
func parseEspeakVoices(out []byte) []speech.Voice {
	var voices []speech.Voice
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 || fields[0] == "Pty" {
			continue
		}
		voices = append(voices, speech.Voice{
			Name:        fields[3],
			LanguageTag: fields[1],
			Gender:      espeakGender(fields[2]),
		})
	}
	return voices
}

func espeakGender(field string) speech.Gender {
	if idx := strings.LastIndex(field, "/"); idx >= 0 {
		field = field[idx+1:]
	}
	switch strings.ToUpper(field) {
	case "M":
		return speech.GenderMale
	case "F":
		return speech.GenderFemale
	default:
		return ""
	}
}

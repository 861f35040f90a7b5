package tts

import (
	"context"
	"fmt"
	"log/slog"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
)

var _ Synthesizer = (*GoogleSynthesizer)(nil)

// googleClient is the subset of *texttospeech.Client used by GoogleSynthesizer.
type googleClient interface {
	SynthesizeSpeech(ctx context.Context, req *texttospeechpb.SynthesizeSpeechRequest, opts ...gax.CallOption) (*texttospeechpb.SynthesizeSpeechResponse, error)
	ListVoices(ctx context.Context, req *texttospeechpb.ListVoicesRequest, opts ...gax.CallOption) (*texttospeechpb.ListVoicesResponse, error)
}

// GoogleSynthesizer is an implementation of the Synthesizer interface for Google Cloud Text-to-Speech.
type GoogleSynthesizer struct {
	client     googleClient
	sampleRate int32
}

// NewGoogleClient dials Google Cloud Text-to-Speech. An empty credentialsFile
// falls back to application default credentials.
func NewGoogleClient(ctx context.Context, credentialsFile string) (*texttospeech.Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := texttospeech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create text-to-speech client: %w", err)
	}
	return client, nil
}

func NewGoogleSynthesizer(client googleClient, sampleRate int) *GoogleSynthesizer {
	return &GoogleSynthesizer{
		client:     client,
		sampleRate: int32(sampleRate),
	}
}

func (g *GoogleSynthesizer) Name() string {
	return "google-cloud-text-to-speech"
}

func (g *GoogleSynthesizer) GenerateSpeech(ctx context.Context, request SpeechRequest) (*SpeechResponse, error) {
	slog.Debug("Synthesize speech", slog.String("text", request.Text), slog.String("voice", request.VoiceName))
	resp, err := g.client.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{
				Text: request.Text,
			},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: request.LanguageCode,
			Name:         request.VoiceName,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding:   texttospeechpb.AudioEncoding_MP3,
			SampleRateHertz: g.sampleRate,
			SpeakingRate:    request.SpeakingRate,
		},
	})

	if err != nil {
		slog.Error("failed to synthesize speech", "error", err)
		return nil, err
	}

	return &SpeechResponse{
		Format:       AudioFormatMp3,
		AudioContent: resp.AudioContent,
	}, nil
}

func (g *GoogleSynthesizer) ListVoices(ctx context.Context, languageCode string) ([]Voice, error) {
	resp, err := g.client.ListVoices(ctx, &texttospeechpb.ListVoicesRequest{
		LanguageCode: languageCode,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list voices: %w", err)
	}

	voices := make([]Voice, 0, len(resp.Voices))
	for _, v := range resp.Voices {
		voices = append(voices, Voice{
			Name:          v.Name,
			LanguageCodes: v.LanguageCodes,
			Gender:        googleGender(v.SsmlGender),
		})
	}
	return voices, nil
}

func googleGender(g texttospeechpb.SsmlVoiceGender) string {
	switch g {
	case texttospeechpb.SsmlVoiceGender_MALE:
		return "male"
	case texttospeechpb.SsmlVoiceGender_FEMALE:
		return "female"
	default:
		return ""
	}
}

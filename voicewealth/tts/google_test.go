package tts

import (
	"context"
	"testing"

	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/googleapis/gax-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGoogleClient struct {
	lastSynth *texttospeechpb.SynthesizeSpeechRequest
	lastList  *texttospeechpb.ListVoicesRequest
}

func (f *fakeGoogleClient) SynthesizeSpeech(_ context.Context, req *texttospeechpb.SynthesizeSpeechRequest, _ ...gax.CallOption) (*texttospeechpb.SynthesizeSpeechResponse, error) {
	f.lastSynth = req
	return &texttospeechpb.SynthesizeSpeechResponse{AudioContent: []byte("mp3")}, nil
}

func (f *fakeGoogleClient) ListVoices(_ context.Context, req *texttospeechpb.ListVoicesRequest, _ ...gax.CallOption) (*texttospeechpb.ListVoicesResponse, error) {
	f.lastList = req
	return &texttospeechpb.ListVoicesResponse{
		Voices: []*texttospeechpb.Voice{
			{Name: "fr-FR-Wavenet-A", LanguageCodes: []string{"fr-FR"}, SsmlGender: texttospeechpb.SsmlVoiceGender_FEMALE},
			{Name: "fr-FR-Wavenet-B", LanguageCodes: []string{"fr-FR"}, SsmlGender: texttospeechpb.SsmlVoiceGender_MALE},
			{Name: "fr-FR-Standard-X", LanguageCodes: []string{"fr-FR"}, SsmlGender: texttospeechpb.SsmlVoiceGender_NEUTRAL},
		},
	}, nil
}

func TestGoogleSynthesizerGenerateSpeech(t *testing.T) {
	client := &fakeGoogleClient{}
	synth := NewGoogleSynthesizer(client, 24000)

	resp, err := synth.GenerateSpeech(context.Background(), SpeechRequest{
		Text:         "Je suis calme.",
		LanguageCode: "fr-FR",
		VoiceName:    "fr-FR-Wavenet-A",
		SpeakingRate: 1.25,
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("mp3"), resp.AudioContent)

	req := client.lastSynth
	require.NotNil(t, req)
	assert.Equal(t, "Je suis calme.", req.GetInput().GetText())
	assert.Equal(t, "fr-FR", req.GetVoice().GetLanguageCode())
	assert.Equal(t, "fr-FR-Wavenet-A", req.GetVoice().GetName())
	assert.Equal(t, texttospeechpb.AudioEncoding_MP3, req.GetAudioConfig().GetAudioEncoding())
	assert.Equal(t, int32(24000), req.GetAudioConfig().GetSampleRateHertz())
	assert.Equal(t, 1.25, req.GetAudioConfig().GetSpeakingRate())
}

func TestGoogleSynthesizerListVoices(t *testing.T) {
	client := &fakeGoogleClient{}
	synth := NewGoogleSynthesizer(client, 24000)

	voices, err := synth.ListVoices(context.Background(), "fr-FR")
	require.NoError(t, err)
	assert.Equal(t, "fr-FR", client.lastList.GetLanguageCode())
	assert.Equal(t, []Voice{
		{Name: "fr-FR-Wavenet-A", LanguageCodes: []string{"fr-FR"}, Gender: "female"},
		{Name: "fr-FR-Wavenet-B", LanguageCodes: []string{"fr-FR"}, Gender: "male"},
		{Name: "fr-FR-Standard-X", LanguageCodes: []string{"fr-FR"}, Gender: ""},
	}, voices)
}

package tts

import (
	"context"
	"fmt"
	"io"

	openai "github.com/openai/openai-go/v3"

	"pilot/internal/audio"
)

// OpenAI synthesizes speech through the OpenAI audio API and plays the mp3.
type OpenAI struct {
	client openai.Client
	voice  openai.AudioSpeechNewParamsVoice
	model  openai.SpeechModel
	play   func(ctx context.Context, r io.ReadCloser) error
}

func NewOpenAI(client openai.Client, voice string) *OpenAI {
	if voice == "" {
		voice = string(openai.AudioSpeechNewParamsVoiceAlloy)
	}
	return &OpenAI{
		client: client,
		voice:  openai.AudioSpeechNewParamsVoice(voice),
		model:  openai.SpeechModelTTS1,
		play:   audio.PlayMP3,
	}
}

func (o *OpenAI) Say(ctx context.Context, text string) error {
	resp, err := o.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Input:          text,
		Model:          o.model,
		Voice:          o.voice,
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		return fmt.Errorf("synthesize speech: %w", err)
	}
	return o.play(ctx, resp.Body)
}

//go:build !espeak

package tts

import (
	"context"
	"errors"
)

var ErrEspeakUnavailable = errors.New("built without espeak support (use -tags espeak)")

type Espeak struct{}

func NewEspeak(string) (*Espeak, error) { return nil, ErrEspeakUnavailable }

func (*Espeak) Say(context.Context, string) error { return ErrEspeakUnavailable }

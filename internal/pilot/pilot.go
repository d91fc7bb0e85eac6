// Package pilot assembles the assistant from configuration: the action
// collaborators, the executor, the classifier, speech output and the
// optional microphone pipeline.
package pilot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/redis/go-redis/v9"

	"pilot/internal/action"
	"pilot/internal/apps"
	"pilot/internal/assistant"
	"pilot/internal/audio"
	"pilot/internal/capture"
	"pilot/internal/config"
	"pilot/internal/dispatch"
	"pilot/internal/events"
	"pilot/internal/input"
	"pilot/internal/listen"
	"pilot/internal/macro"
	"pilot/internal/nlu"
	"pilot/internal/notify"
	"pilot/internal/obs"
	"pilot/internal/proxy"
	"pilot/internal/robot"
	"pilot/internal/steam"
	"pilot/internal/tts"
	"pilot/internal/web"
	"pilot/pkg/stt"
)

var ErrNoAPIKey = errors.New("OPENAI_API_KEY not set")

// Runtime is a fully wired assistant. Listener and Transcribe are nil when
// no microphone pipeline was requested or it failed to start.
type Runtime struct {
	Assistant  *assistant.Assistant
	Macros     *macro.Manager
	Voice      *tts.Voice
	Notifier   *notify.Notifier
	Listener   *listen.Listener
	Transcribe listen.Transcribe
	Settings   action.Settings

	closers []func()
}

// Options select the optional parts of the runtime.
type Options struct {
	// Microphone opens the recorder and loads whisper.
	Microphone bool
	// Whisper loads whisper without a recorder, for transcribing audio
	// that arrives over the network.
	Whisper bool
}

// Build wires every component described by cfg. Voice.Run must be started
// by the caller.
func Build(cfg config.Config, secrets config.Secrets, opt Options, lg *slog.Logger) (*Runtime, error) {
	if lg == nil {
		lg = slog.Default()
	}
	if secrets.OpenAIKey == "" {
		return nil, ErrNoAPIKey
	}

	rt := &Runtime{Settings: cfg.Settings()}
	ok := false
	defer func() {
		if !ok {
			rt.Close()
		}
	}()

	httpClient, err := proxy.NewHTTPClient(cfg.Proxy)
	if err != nil {
		return nil, err
	}
	client := openai.NewClient(
		option.WithAPIKey(secrets.OpenAIKey),
		option.WithHTTPClient(httpClient),
	)

	var synth input.Synthesizer = robot.NewSynth(lg)
	if cfg.DryRun {
		synth = input.NewFake()
		lg.Warn("Dry run: input events are recorded, not injected")
	}

	pool := macro.NewPool()
	if cfg.Macro.MessagesDB != "" {
		store, err := macro.OpenStore(cfg.Macro.MessagesDB)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, func() { store.Close() })
		if err := pool.WithStore(store); err != nil {
			return nil, fmt.Errorf("load custom messages: %w", err)
		}
	}
	rt.Macros = macro.NewManager(synth, pool, macro.WithLogger(lg))
	rt.closers = append(rt.closers, func() { rt.Macros.StopAFK() })

	browser := web.NewOpener(nil)
	roots := cfg.Steam.Roots
	if len(roots) == 0 {
		roots = steam.DefaultRoots()
	}

	registry := action.NewRegistry(action.Deps{
		Apps:     apps.NewLauncher(apps.ExecRunner{}, browser.OpenURL, robot.Processes{}, lg),
		Games:    steam.NewLibrary(roots, browser.OpenURL),
		Browser:  browser,
		Capturer: capture.New(cfg.Capture.Dir, robot.Screen{}, capture.FFmpegCamera{Device: cfg.Capture.CameraDevice}, lg),
		Clipper:  obs.NewClient(cfg.OBS.URL, secrets.OBSPassword, lg),
		Keys:     synth,
		Macros:   rt.Macros,
	}, rt.Settings)

	sink := rt.eventSinks(cfg.Events, lg)

	rt.Voice = tts.NewVoice(speaker(cfg.Voice, client, lg), ducker(cfg.Voice), lg)

	exec := dispatch.New(registry,
		dispatch.WithLogger(lg),
		dispatch.WithObserver(assistant.NewReporter(sink, lg)),
	)
	rt.Assistant = assistant.New(nlu.NewClassifier(client, cfg.OpenAI.Model, lg), exec, rt.Voice, sink, lg)
	rt.Notifier = notify.New(cfg.Listen.Beep, lg)

	if opt.Microphone || opt.Whisper {
		rt.speech(cfg.Listen, opt.Microphone, lg)
	}

	ok = true
	return rt, nil
}

// Close releases everything Build opened, in reverse order.
func (rt *Runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
}

func (rt *Runtime) eventSinks(cfg config.Events, lg *slog.Logger) events.Sink {
	sinks := events.Multi{events.Log{Logger: lg.With("component", "events")}}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		sinks = append(sinks, events.NewRedis(rdb, cfg.RedisChannel))
		rt.closers = append(rt.closers, func() { rdb.Close() })
		lg.Info("Publishing events to redis", "addr", cfg.RedisAddr, "channel", cfg.RedisChannel)
	}
	if cfg.BusURL != "" {
		bus := events.NewBus(cfg.BusURL)
		sinks = append(sinks, bus)
		rt.closers = append(rt.closers, func() { bus.Close() })
		lg.Info("Publishing events to bus", "url", cfg.BusURL)
	}
	return sinks
}

func speaker(cfg config.Voice, client openai.Client, lg *slog.Logger) tts.Speaker {
	switch cfg.Engine {
	case "openai":
		return tts.NewOpenAI(client, cfg.Name)
	case "espeak":
		sp, err := tts.NewEspeak(cfg.Language)
		if err != nil {
			lg.Warn("Espeak unavailable, staying silent", "err", err)
			return tts.Nop{}
		}
		return sp
	default:
		return tts.Nop{}
	}
}

func ducker(cfg config.Voice) tts.Ducker {
	if !cfg.Duck {
		return nil
	}
	return audio.NewDucker(audio.Pactl{}, []string{"pilot", "pilot-daemon"}, cfg.MinVolume)
}

// speech loads whisper and, with mic set, the recorder. Failures leave
// voice input disabled; typed commands keep working.
func (rt *Runtime) speech(cfg config.Listen, mic bool, lg *slog.Logger) {
	whisper, err := stt.NewTranscriber(cfg.WhisperModel, stt.Options{
		Language:      cfg.Language,
		Threads:       cfg.Threads,
		InitialPrompt: cfg.WakeWord,
	})
	if err != nil {
		lg.Warn("Failed to init whisper, voice input disabled", "model", cfg.WhisperModel, "err", err)
		return
	}
	rt.closers = append(rt.closers, func() { whisper.Close() })
	rt.Transcribe = func(ctx context.Context, pcm []float32) (string, error) {
		res, err := whisper.Transcribe(ctx, pcm)
		return res.Text, err
	}
	lg.Debug("Loaded whisper", "model", cfg.WhisperModel)

	if !mic {
		return
	}

	vad := audio.DefaultVAD()
	vad.Silence = cfg.Silence.Std()
	vad.MaxLength = cfg.MaxLength.Std()
	rec := audio.NewRecorder(vad)
	if err := rec.Init(); err != nil {
		lg.Warn("Failed to init audio, voice input disabled", "err", err)
		return
	}
	rt.closers = append(rt.closers, rec.Close)
	rt.Listener = listen.New(micRecorder{rec}, rt.Transcribe, cfg.WakeWord, lg)
	lg.Debug("Loaded recorder")
}

// micRecorder reports silence as "nothing said" to the listener.
type micRecorder struct {
	*audio.Recorder
}

func (m micRecorder) RecordAuto(ctx context.Context) ([]float32, error) {
	return noSpeech(m.Recorder.RecordAuto(ctx))
}

func noSpeech(pcm []float32, err error) ([]float32, error) {
	if errors.Is(err, audio.ErrNoSpeech) {
		return nil, listen.ErrNoCommand
	}
	return pcm, err
}

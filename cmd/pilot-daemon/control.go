package main

import (
	"context"
	"time"

	log "log/slog"

	"pilot/internal/assistant"
	"pilot/internal/ipc"
	"pilot/internal/pilot"
)

const triggerTimeout = 60 * time.Second

type control struct {
	rt *pilot.Runtime
}

func (c *control) handle(ctx context.Context, msg ipc.ControlMessage) ipc.Reply {
	switch msg.Cmd {
	case ipc.CmdTrigger:
		if c.rt.Listener == nil {
			return ipc.Reply{Message: "voice input is not available"}
		}
		go c.trigger(ctx)
		return ipc.Reply{OK: true, Message: "Listening..."}

	case ipc.CmdSay:
		if msg.Text == "" {
			return ipc.Reply{Message: "nothing to say"}
		}
		return fromAssistant(c.rt.Assistant.Handle(ctx, msg.Text))

	case ipc.CmdAFK:
		d := argDuration(msg.Args, "duration", c.rt.Settings.AFKDuration)
		i := argDuration(msg.Args, "interval", c.rt.Settings.AFKInterval)
		if !c.rt.Macros.AFK(d, i) {
			return ipc.Reply{OK: true, Message: "AFK mode is already running."}
		}
		return ipc.Reply{OK: true, Message: "AFK mode on."}

	case ipc.CmdStopAFK:
		if !c.rt.Macros.StopAFK() {
			return ipc.Reply{OK: true, Message: "AFK mode wasn't running."}
		}
		return ipc.Reply{OK: true, Message: "AFK mode stopped."}

	case ipc.CmdStatus:
		s := c.rt.Macros.Status()
		data := map[string]any{
			"afk":     s.Running,
			"voice":   c.rt.Listener != nil,
			"phrases": len(c.rt.Macros.Pool().General()),
		}
		if s.Running {
			data["afk_duration"] = s.Duration.String()
			data["afk_interval"] = s.Interval.String()
			data["afk_started"] = s.StartedAt.Format(time.RFC3339)
			data["afk_moves"] = s.Moves
		}
		return ipc.Reply{OK: true, Data: data}

	default:
		log.Warn("Unknown command", "cmd", msg.Cmd)
		return ipc.Reply{Message: "unknown command " + msg.Cmd}
	}
}

// trigger runs one push-to-talk round: beep, record, transcribe, handle.
func (c *control) trigger(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, triggerTimeout)
	defer cancel()

	c.rt.Notifier.Listening(ctx)
	log.Info("Starting listening")

	text, err := c.rt.Listener.Once(ctx)
	if err != nil {
		log.Warn("Nothing to handle", "err", err)
		return
	}
	c.rt.Assistant.Handle(ctx, text)
}

func fromAssistant(r assistant.Reply) ipc.Reply {
	ok := len(r.Results) > 0
	results := make([]any, len(r.Results))
	for i, res := range r.Results {
		ok = ok && res.OK
		results[i] = map[string]any{"ok": res.OK, "message": res.Message}
	}
	return ipc.Reply{
		OK:      ok,
		Message: r.Message,
		Data:    map[string]any{"description": r.Description, "results": results},
	}
}

func argDuration(args map[string]string, key string, def time.Duration) time.Duration {
	v, ok := args[key]
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Warn("Bad duration argument", "arg", key, "value", v)
		return def
	}
	return d
}

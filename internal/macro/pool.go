package macro

import (
	"errors"
	"strings"
	"sync"
)

var defaultGeneral = []string{
	"gg", "nice shot!", "good game", "wp", "well played",
	"thanks", "ty", "glhf", "good luck have fun", "ez",
	"too easy", "unlucky", "close one", "almost", "nice try",
	"team work", "let's go", "push", "rotate", "rush",
}

var defaultGame = []string{
	"rush b", "rush a", "rotate", "push mid", "smoke",
	"flash", "nade", "eco", "save", "plant",
	"defuse", "bomb down", "enemy spotted", "need backup", "cover me",
	"going long", "going short", "check corners", "watch flank", "nice clutch",
	"good call", "strat worked", "next time", "unlucky round", "we got this",
	"focus up", "stay positive", "good communication", "nice trade", "good crossfire",
}

var defaultTemplates = []string{
	"That was a {adjective} play!",
	"Great {action} by the team!",
	"We need to {strategy} next round.",
	"Nice {skill} there!",
	"Let's {tactic} this time.",
	"Good {communication} everyone!",
	"That {situation} was {adjective}!",
	"We should {plan} for the win.",
	"Amazing {performance} by {player_type}!",
	"Time to {strategy} and {objective}!",
}

var defaultBanks = map[string][]string{
	"adjective":     {"amazing", "incredible", "clutch", "sick", "clean", "smooth", "perfect", "beautiful", "insane", "crazy"},
	"action":        {"rotation", "push", "trade", "clutch", "defuse", "plant", "save", "eco", "rush"},
	"strategy":      {"rush", "slow play", "split", "fake", "rotate", "save", "eco", "force buy"},
	"skill":         {"aim", "crosshair placement", "game sense", "positioning", "timing", "communication"},
	"tactic":        {"split", "rush", "fake", "slow play", "rotate", "save"},
	"communication": {"calls", "info", "communication", "teamwork", "coordination"},
	"situation":     {"clutch", "1v1", "retake", "execute", "defense", "attack"},
	"plan":          {"focus", "communicate", "coordinate", "execute", "adapt"},
	"performance":   {"clutch", "frag", "trade", "support", "entry"},
	"player_type":   {"entry fragger", "support", "lurker", "IGL", "AWPer"},
	"objective":     {"win", "clutch", "defuse", "plant", "survive"},
}

var ErrEmptyMessage = errors.New("empty chat message")

// Store persists custom chat messages.
type Store interface {
	Messages() ([]string, error)
	Add(msg string) error
}

// Pool holds canned chat phrases, message templates and the word banks used
// to fill them.
type Pool struct {
	mu        sync.RWMutex
	general   []string
	game      []string
	templates []string
	banks     map[string][]string
	store     Store
}

// NewPool returns a pool with the built-in phrases.
func NewPool() *Pool {
	banks := make(map[string][]string, len(defaultBanks))
	for k, v := range defaultBanks {
		banks[k] = append([]string(nil), v...)
	}
	return &Pool{
		general:   append([]string(nil), defaultGeneral...),
		game:      append([]string(nil), defaultGame...),
		templates: append([]string(nil), defaultTemplates...),
		banks:     banks,
	}
}

// WithStore loads previously saved messages from s and persists future
// additions to it.
func (p *Pool) WithStore(s Store) error {
	msgs, err := s.Messages()
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.general = append(p.general, msgs...)
	p.store = s
	return nil
}

// Add appends a custom message to the general pool.
func (p *Pool) Add(msg string) error {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return ErrEmptyMessage
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.store != nil {
		if err := p.store.Add(msg); err != nil {
			return err
		}
	}
	p.general = append(p.general, msg)
	return nil
}

func (p *Pool) General() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.general...)
}

func (p *Pool) Game() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.game...)
}

func (p *Pool) Random(r *Rand) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return pick(r, p.general)
}

func (p *Pool) RandomGame(r *Rand) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return pick(r, p.game)
}

func (p *Pool) template(r *Rand) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return pick(r, p.templates)
}

func (p *Pool) word(r *Rand, bank string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	words, ok := p.banks[bank]
	if !ok || len(words) == 0 {
		return "", false
	}
	return pick(r, words), true
}

package macro

import (
	"regexp"
	"strings"
)

var placeholderRe = regexp.MustCompile(`\{(\w+)\}`)

var situationPrefix = map[string]string{
	"clutch": "Clutch time! ",
	"win":    "GG! ",
	"loss":   "Unlucky round. ",
	"team":   "Team: ",
}

// Generate fills a random template from the pool's word banks and prefixes
// it according to situation ("clutch", "win", "loss", "team"; anything else
// gets no prefix). A template naming an unknown bank falls back to a canned
// game message.
func Generate(p *Pool, r *Rand, situation string) string {
	tmpl := p.template(r)

	ok := true
	msg := placeholderRe.ReplaceAllStringFunc(tmpl, func(m string) string {
		w, found := p.word(r, m[1:len(m)-1])
		if !found {
			ok = false
			return m
		}
		return w
	})
	if !ok {
		return p.RandomGame(r)
	}

	return situationPrefix[strings.ToLower(strings.TrimSpace(situation))] + msg
}

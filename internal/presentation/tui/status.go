package tui

import (
	"github.com/aretw0/povrewrite/pkg/domain"
	"github.com/muesli/termenv"
)

var statusColors = map[domain.Status]string{
	domain.StatusSucceeded: "#4ade80",
	domain.StatusPending:   "#38bdf8",
	domain.StatusAborted:   "#facc15",
	domain.StatusDeclined:  "#facc15",
	domain.StatusFailed:    "#f87171",
}

// Status colors the outcome message by status.
func Status(o domain.Outcome) string {
	p := termenv.ColorProfile()
	s := termenv.String(o.Message)
	if c, ok := statusColors[o.Status]; ok {
		s = s.Foreground(p.Color(c))
	}
	if o.Status == domain.StatusFailed {
		s = s.Bold()
	}
	return s.String()
}

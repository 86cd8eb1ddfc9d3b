package watch

import "time"

// Ticker is an activity indicator that alternates between two glyphs while
// traffic is flowing and settles after a quiet period.
type Ticker struct {
	lastActivity time.Time
	frame        int
}

func NewTicker() *Ticker {
	return &Ticker{}
}

func (t *Ticker) Activity() {
	t.lastActivity = time.Now()
	t.frame++
}

func (t *Ticker) Render(theme Theme) string {
	if time.Since(t.lastActivity) > 2*time.Second {
		return theme.TickerInactive.Render("⟲")
	}
	if t.frame%2 == 0 {
		return theme.TickerActive.Render("⟲")
	}
	return theme.TickerActive.Render("⟳")
}

// Spinner shows a decaying dot trail after the most recent event.
type Spinner struct {
	lastEvent time.Time
}

func NewSpinner() *Spinner {
	return &Spinner{}
}

func (s *Spinner) Activity() {
	s.lastEvent = time.Now()
}

func (s *Spinner) Render(theme Theme) string {
	elapsed := time.Since(s.lastEvent)
	switch {
	case elapsed < time.Second:
		return theme.TickerActive.Render("●●●●●")
	case elapsed < 2*time.Second:
		return theme.TickerActive.Render("●●●●") + theme.TickerInactive.Render("●")
	case elapsed < 3*time.Second:
		return theme.TickerActive.Render("●●●") + theme.TickerInactive.Render("●●")
	case elapsed < 4*time.Second:
		return theme.TickerActive.Render("●●") + theme.TickerInactive.Render("●●●")
	case elapsed < 5*time.Second:
		return theme.TickerActive.Render("●") + theme.TickerInactive.Render("●●●●")
	default:
		return theme.TickerInactive.Render("●●●●●")
	}
}

package main

import (
	"sync"

	"github.com/rs/zerolog"
)

// logNotifier is the daemon's toast sink: alerts land in the structured log.
type logNotifier struct {
	log zerolog.Logger
}

func (n *logNotifier) Notify(title, body string) {
	n.log.Info().Str("title", title).Str("body", body).Msg("alert")
}

// chimePlayer is the audio sink. It arms itself once on first use, matching
// the one-time unlock a real playback backend needs, and stays silent in the
// log-only daemon after that.
type chimePlayer struct {
	log  zerolog.Logger
	once sync.Once
}

func newChimePlayer(log zerolog.Logger) *chimePlayer {
	return &chimePlayer{log: log}
}

func (p *chimePlayer) Play(kind int) error {
	p.once.Do(func() {
		p.log.Debug().Msg("audio playback armed")
	})
	p.log.Info().Int("kind", kind).Msg("chime")
	return nil
}

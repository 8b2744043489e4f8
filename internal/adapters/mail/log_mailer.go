package mail

import (
	"context"
	"sync"
	"time"

	"agora/internal/domain/auth"

	"github.com/rs/zerolog/log"
)

// Message is a short code delivery
type Message struct {
	To     string
	Lang   auth.Lang
	Usage  auth.ShortCodeUsage
	Link   string
	SentAt time.Time
}

// LogMailer writes short code links to the log instead of sending emails. The last
// message per recipient is kept for local tooling and tests.
type LogMailer struct {
	mu   sync.RWMutex
	last map[string]Message
}

// NewLogMailer creates a new log mailer
func NewLogMailer() *LogMailer {
	return &LogMailer{last: make(map[string]Message)}
}

// SendShortCode implements auth.Mailer
func (m *LogMailer) SendShortCode(ctx context.Context, to string, lang auth.Lang, usage auth.ShortCodeUsage, link string) error {
	msg := Message{To: to, Lang: lang, Usage: usage, Link: link, SentAt: time.Now()}

	m.mu.Lock()
	m.last[to] = msg
	m.mu.Unlock()

	log.Info().
		Str("to", to).
		Str("lang", string(lang)).
		Str("usage", string(usage)).
		Str("link", link).
		Msg("short code sent")
	return nil
}

// Last returns the last message sent to the given address
func (m *LogMailer) Last(to string) (Message, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msg, ok := m.last[to]
	return msg, ok
}

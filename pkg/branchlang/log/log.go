// Package log configures apex/log for the command line.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
)

// LevelEnv names the environment variable holding the log level.
const LevelEnv = "BRANCHLANG_LOG"

// InitLogger installs a Handler on stderr with the level from BRANCHLANG_LOG
// (default INFO). An unknown level falls back to INFO.
func InitLogger() {
	name := strings.ToLower(os.Getenv(LevelEnv))
	if name == "" {
		name = "info"
	}
	log.SetHandler(NewHandler(os.Stderr))

	level, err := log.ParseLevel(name)
	if err != nil {
		log.SetLevel(log.InfoLevel)
		log.Warnf("unknown %s level %q, using INFO", LevelEnv, name)
		return
	}
	log.SetLevel(level)
}

// Handler writes one line per entry: timestamp, level initial, message,
// then fields as sorted key=value pairs.
type Handler struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

// NewHandler returns a Handler writing to w.
func NewHandler(w io.Writer) *Handler {
	return &Handler{w: w, now: time.Now}
}

// HandleLog implements the log.Handler interface
func (h *Handler) HandleLog(e *log.Entry) error {
	var b strings.Builder

	timestamp := h.now().Format("2006-01-02 15:04:05")
	level := strings.ToUpper(e.Level.String())
	fmt.Fprintf(&b, "%s %.1s %s", timestamp, level, e.Message)

	for _, name := range e.Fields.Names() {
		fmt.Fprintf(&b, " %s=%v", name, e.Fields.Get(name))
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

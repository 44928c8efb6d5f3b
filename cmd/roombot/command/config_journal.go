package command

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pixil98/go-roombot/internal/journal"
)

// JournalConfig records transport traffic under Dir when set.
type JournalConfig struct {
	Dir    string `json:"dir"`
	Prefix string `json:"prefix"`
}

func (c *JournalConfig) validate() error {
	if c.Dir == "" {
		return nil
	}
	parent := filepath.Dir(filepath.Clean(c.Dir))
	info, err := os.Stat(parent)
	if err != nil {
		return fmt.Errorf("journal: invalid dir %q: %w", c.Dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("journal: %q is not a directory", parent)
	}
	return nil
}

func (c *JournalConfig) enabled() bool {
	return c.Dir != ""
}

func (c *JournalConfig) buildJournal() *journal.Journal {
	return journal.NewJournal(c.Dir, journal.WithPrefix(c.Prefix))
}

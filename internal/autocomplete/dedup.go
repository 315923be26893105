package autocomplete

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// Deduplicator accepts a stream of candidate entries, keeps the first
// occurrence of each (category, lowercased name) key and checkpoints the
// accumulated sequence to disk whenever enough new entries piled up.
// Flushes rewrite the whole file, so a torn earlier write is always
// superseded.
type Deduplicator struct {
	path      string
	threshold int
	log       *logrus.Logger

	entries       []*Entry
	index         map[string]*Entry
	newSinceFlush int
}

func NewDeduplicator(path string, threshold int, log *logrus.Logger) *Deduplicator {
	return &Deduplicator{
		path:      path,
		threshold: threshold,
		log:       log,
		index:     make(map[string]*Entry),
	}
}

// LoadExisting seeds the deduplicator from a previous run's output file.
// Flushes overwrite the whole file, so skipping this on a resumed crawl
// would discard everything collected before the restart. A missing file
// is not an error.
func (d *Deduplicator) LoadExisting() error {
	data, err := os.ReadFile(d.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	for _, e := range entries {
		key := dedupKey(e.Kind, e.Name)
		if _, ok := d.index[key]; ok {
			continue
		}
		stored := e
		d.entries = append(d.entries, &stored)
		d.index[key] = &stored
	}
	d.log.WithFields(logrus.Fields{
		"path":    d.path,
		"entries": len(d.entries),
	}).Info("loaded existing autocomplete entries")
	return nil
}

func dedupKey(kind int, name string) string {
	return strconv.Itoa(kind) + "|" + strings.ToLower(strings.TrimSpace(name))
}

// Add records a candidate. Duplicates are dropped, except that a duplicate
// carrying a reference id upgrades a stored entry that lacks one. The
// original display case of the first occurrence is kept.
func (d *Deduplicator) Add(e Entry) error {
	if strings.TrimSpace(e.Name) == "" {
		return nil
	}
	key := dedupKey(e.Kind, e.Name)
	if existing, ok := d.index[key]; ok {
		if existing.Ref == "" && e.Ref != "" {
			existing.Ref = e.Ref
		}
		return nil
	}

	stored := e
	d.entries = append(d.entries, &stored)
	d.index[key] = &stored
	d.newSinceFlush++

	if d.newSinceFlush >= d.threshold {
		return d.Flush()
	}
	return nil
}

// Flush overwrites the durable output with every accumulated entry.
// Called automatically at the batch threshold and unconditionally on
// driver termination.
func (d *Deduplicator) Flush() error {
	if err := os.MkdirAll(filepath.Dir(d.path), 0o755); err != nil {
		return err
	}
	out := make([]Entry, len(d.entries))
	for i, e := range d.entries {
		out[i] = *e
	}
	data, err := json.Marshal(out)
	if err != nil {
		return err
	}
	if err := os.WriteFile(d.path, data, 0o644); err != nil {
		return err
	}
	d.log.WithFields(logrus.Fields{
		"path":    d.path,
		"entries": len(out),
	}).Debug("autocomplete checkpoint written")
	d.newSinceFlush = 0
	return nil
}

// Len reports how many unique entries have been accumulated.
func (d *Deduplicator) Len() int { return len(d.entries) }

// Entries returns a copy of the accumulated sequence in insertion order.
func (d *Deduplicator) Entries() []Entry {
	out := make([]Entry, len(d.entries))
	for i, e := range d.entries {
		out[i] = *e
	}
	return out
}

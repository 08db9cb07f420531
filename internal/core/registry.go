package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrUnknownFeed is returned when a feed key has no registered definition.
var ErrUnknownFeed = errors.New("unknown feed")

// BuildUnitFunc turns one data row into a Unit. Required fields have already
// been checked by MapRow.
type BuildUnitFunc func(row []string, cm ColumnMap, line int) Unit

// FeedDefinition describes one physical feed: how its headers are spelled,
// which fields identify a row and how a row becomes a Unit.
type FeedDefinition struct {
	Key      string   // "unit", "vessel"
	Label    string   // Display name
	Kind     UnitKind // Kind stamped on every unit
	Aliases  AliasTable
	Required []Field // Row is skipped when any of these is empty
	Build    BuildUnitFunc
}

// SkipError explains why a data row did not become a Unit.
type SkipError struct {
	Line   int
	Reason string
}

func (e *SkipError) Error() string {
	return fmt.Sprintf("line %d skipped: %s", e.Line, e.Reason)
}

// MapRow maps a data row through the column map. A row missing any required
// field returns a *SkipError; callers record it and continue with the next row.
func (d FeedDefinition) MapRow(row []string, cm ColumnMap, line int) (Unit, error) {
	var missing []string
	for _, f := range d.Required {
		if cm.Cell(row, f) == "" {
			missing = append(missing, string(f))
		}
	}
	if len(missing) > 0 {
		return Unit{}, &SkipError{
			Line:   line,
			Reason: "missing " + strings.Join(missing, ", "),
		}
	}

	u := d.Build(row, cm, line)
	u.Kind = d.Kind
	u.Line = line
	return u, nil
}

var (
	feeds   = make(map[string]FeedDefinition)
	feedsMu sync.RWMutex
)

// RegisterFeed adds a feed definition to the registry.
// Panics if a feed with the same key is already registered.
func RegisterFeed(def FeedDefinition) {
	feedsMu.Lock()
	defer feedsMu.Unlock()

	if _, exists := feeds[def.Key]; exists {
		panic(fmt.Sprintf("feed already registered: %s", def.Key))
	}
	if def.Build == nil {
		panic(fmt.Sprintf("feed %s has no Build func", def.Key))
	}
	feeds[def.Key] = def
}

// Feed returns a feed definition by key.
func Feed(key string) (FeedDefinition, bool) {
	feedsMu.RLock()
	defer feedsMu.RUnlock()

	def, ok := feeds[key]
	return def, ok
}

// Feeds returns all registered feeds sorted by key.
func Feeds() []FeedDefinition {
	feedsMu.RLock()
	defer feedsMu.RUnlock()

	result := make([]FeedDefinition, 0, len(feeds))
	for _, def := range feeds {
		result = append(result, def)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})
	return result
}

// ClearFeeds removes all registered feeds.
// Primarily useful for testing.
func ClearFeeds() {
	feedsMu.Lock()
	defer feedsMu.Unlock()
	feeds = make(map[string]FeedDefinition)
}

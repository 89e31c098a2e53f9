package tournament

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Key identifies one edition: a tournament in one season year.
type Key struct {
	Name string
	Year int
}

func (k Key) IsZero() bool {
	return strings.TrimSpace(k.Name) == "" && k.Year == 0
}

func (k Key) String() string {
	return fmt.Sprintf("%s %d", k.Name, k.Year)
}

// Edition is created implicitly by the first match that references it.
// Finished only ever moves from false to true.
type Edition struct {
	Key
	Finished   bool
	FinishedAt *time.Time
	CreatedAt  time.Time
}

// Champion is a trophy: a user leading the edition's points table when the
// edition was marked finished.
type Champion struct {
	Edition   Key
	UserID    string
	Points    int
	AwardedAt time.Time
}

// SortKeys orders keys by year then name.
func SortKeys(keys []Key) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Year != keys[j].Year {
			return keys[i].Year < keys[j].Year
		}
		return keys[i].Name < keys[j].Name
	})
}

package matchfeed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
)

type feedEnvelope struct {
	Results     json.RawMessage `json:"results"`
	Fixtures    json.RawMessage `json:"fixtures"`
	AllFixtures json.RawMessage `json:"allFixtures"`
}

type matchEntry struct {
	ID         flexibleID      `json:"id"`
	Home       teamEntry       `json:"home"`
	Away       teamEntry       `json:"away"`
	Tournament tournamentEntry `json:"tournament"`
	LeagueName string          `json:"leagueName"`
	Status     statusEntry     `json:"status"`
}

type teamEntry struct {
	ID   flexibleID `json:"id"`
	Name string     `json:"name"`
}

type tournamentEntry struct {
	Name string `json:"name"`
}

type statusEntry struct {
	UTCTime   string      `json:"utcTime"`
	Finished  bool        `json:"finished"`
	Cancelled bool        `json:"cancelled"`
	ScoreStr  string      `json:"scoreStr"`
	TimeTBD   bool        `json:"timeTBD"`
	Reason    reasonEntry `json:"reason"`
}

type reasonEntry struct {
	Short   string `json:"short"`
	Long    string `json:"long"`
	LongKey string `json:"longKey"`
}

// flexibleID accepts ids sent either as JSON numbers or strings.
type flexibleID string

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*f = ""
		return nil
	}
	if trimmed[0] == '"' {
		var text string
		if err := sonic.Unmarshal(trimmed, &text); err != nil {
			return err
		}
		*f = flexibleID(strings.TrimSpace(text))
		return nil
	}

	value, err := strconv.ParseInt(string(trimmed), 10, 64)
	if err != nil {
		return fmt.Errorf("id %s is not an integer", abbreviateBody(trimmed))
	}
	*f = flexibleID(strconv.FormatInt(value, 10))
	return nil
}

// collectEntries flattens one bucket. Lists hold entries; mappings hold
// further lists or mappings and are walked in sorted key order. A scalar
// where a list was expected counts as one malformed entry.
func collectEntries(raw json.RawMessage) ([]json.RawMessage, int) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, 0
	}

	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := sonic.Unmarshal(trimmed, &items); err != nil {
			return nil, 1
		}
		return items, 0
	case '{':
		var nested map[string]json.RawMessage
		if err := sonic.Unmarshal(trimmed, &nested); err != nil {
			return nil, 1
		}
		keys := make([]string, 0, len(nested))
		for key := range nested {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		var (
			out     []json.RawMessage
			skipped int
		)
		for _, key := range keys {
			items, bad := collectEntries(nested[key])
			out = append(out, items...)
			skipped += bad
		}
		return out, skipped
	default:
		return nil, 1
	}
}

func (e matchEntry) statusTexts() []string {
	out := make([]string, 0, 3)
	for _, text := range []string{e.Status.Reason.Short, e.Status.Reason.Long, e.Status.Reason.LongKey} {
		if text = strings.TrimSpace(text); text != "" {
			out = append(out, text)
		}
	}
	return out
}

func (e matchEntry) tournamentName() string {
	if name := strings.TrimSpace(e.Tournament.Name); name != "" {
		return name
	}
	return strings.TrimSpace(e.LeagueName)
}

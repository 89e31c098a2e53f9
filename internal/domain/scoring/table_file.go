package scoring

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadTable reads a YAML scoring table. An empty path yields DefaultTable.
//
//	outcome: 5
//	club_goals: 2
//	opponent_goals: 2
func LoadTable(path string) (Table, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultTable(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("read scoring table %s: %w", path, err)
	}
	return ParseTable(raw)
}

func ParseTable(raw []byte) (Table, error) {
	var table Table
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)
	if err := decoder.Decode(&table); err != nil {
		return Table{}, fmt.Errorf("%w: decode yaml: %v", ErrInvalidTable, err)
	}
	if err := table.Validate(); err != nil {
		return Table{}, err
	}
	return table, nil
}

package source

import (
	"encoding/json"
	"fmt"
	"os"

	"salesdw/internal/logging"
)

// ReadCustomers reads the semi-structured customer records file.
// The file is a single JSON array of customer objects. Objects missing a
// customer_id are malformed and skipped here; deduplication and other
// semantic cleanup happen later in the clean package.
func ReadCustomers(path string) (Result[CustomerRow], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result[CustomerRow]{}, fmt.Errorf("failed to open customers file: %w", err)
	}

	var raw []CustomerRow
	if err := json.Unmarshal(data, &raw); err != nil {
		return Result[CustomerRow]{}, fmt.Errorf("failed to parse customers file: %w", err)
	}

	var res Result[CustomerRow]
	for i, c := range raw {
		if c.CustomerID == "" {
			logging.Warn().Str("file", path).Int("index", i).Msg("Skipping customer without customer_id")
			res.Skipped++
			continue
		}
		res.Rows = append(res.Rows, c)
	}

	logging.Debug().Str("file", path).Int("rows", len(res.Rows)).
		Int("skipped", res.Skipped).Msg("Read customers file")
	return res, nil
}

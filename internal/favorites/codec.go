package favorites

import (
	"encoding/json"
	"fmt"

	"github.com/desertthunder/coursefinder/internal/models"
	"github.com/desertthunder/coursefinder/internal/shared"
)

// Encode serializes items as a JSON array.
func Encode(items []models.Course) (string, error) {
	if items == nil {
		items = []models.Course{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Decode parses a persisted collection.
//
// Entries without a key are skipped and repeated keys keep their first occurrence.
// A payload that is not a JSON array yields an empty collection and an error.
func Decode(raw string) ([]models.Course, error) {
	if raw == "" {
		return []models.Course{}, nil
	}

	var decoded []models.Course
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return []models.Course{}, fmt.Errorf("%w: favorites payload: %v", shared.ErrInvalidInput, err)
	}

	items := make([]models.Course, 0, len(decoded))
	seen := make(map[string]struct{}, len(decoded))
	for _, c := range decoded {
		if c.Key == "" {
			continue
		}
		if _, dup := seen[c.Key]; dup {
			continue
		}
		seen[c.Key] = struct{}{}
		items = append(items, c)
	}
	return items, nil
}

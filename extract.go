package jobplace

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedAnswer is returned when the first line of an answer is not a JSON object.
	ErrMalformedAnswer = errors.New("answer first line is not a JSON object")

	// ErrMissingPlaceID is returned when the JSON object has no string place_id.
	ErrMissingPlaceID = errors.New("answer has no place_id")
)

// ExtractPlaceID reads the place identifier from a model answer. Only the
// first line is considered; it must be a JSON object with a string
// "place_id" member. Later lines are never scanned.
func ExtractPlaceID(answer string) (string, error) {
	first, _, _ := strings.Cut(answer, "\n")

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(first), &obj); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedAnswer, err)
	}
	if obj == nil {
		return "", ErrMalformedAnswer
	}

	raw, ok := obj["place_id"]
	if !ok || string(raw) == "null" {
		return "", ErrMissingPlaceID
	}
	var id string
	if err := json.Unmarshal(raw, &id); err != nil {
		return "", fmt.Errorf("%w: place_id is %s", ErrMissingPlaceID, string(raw))
	}
	return id, nil
}

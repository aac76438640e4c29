package repositories

import (
	"encoding/json"
	"fmt"
)

const (
	// Key prefixes for view state entries
	ViewKeyPrefix   = "view:"
	FlashKeyPrefix  = "flash:"
	SubmitKeyPrefix = "submit:"
)

func viewKey(sessionID string) []byte {
	return []byte(ViewKeyPrefix + sessionID)
}

func flashKey(sessionID string) []byte {
	return []byte(FlashKeyPrefix + sessionID)
}

func submitKey(sessionID string) []byte {
	return []byte(SubmitKeyPrefix + sessionID)
}

// marshalEntity marshals an entity to JSON
func marshalEntity(entity interface{}) ([]byte, error) {
	data, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entity: %v", err)
	}
	return data, nil
}

// unmarshalEntity unmarshals JSON data into an entity
func unmarshalEntity(data []byte, entity interface{}) error {
	if err := json.Unmarshal(data, entity); err != nil {
		return fmt.Errorf("failed to unmarshal entity: %v", err)
	}
	return nil
}

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const filePrefix = "dados_participante_"

// loadTrials reads a session file. Files written by the server hold a JSON
// array; older exports hold one trial object per line.
func loadTrials(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var trials []map[string]any
		if err := json.Unmarshal(trimmed, &trials); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", path, err)
		}
		return trials, nil
	}

	trials := make([]map[string]any, 0)
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	for {
		var trial map[string]any
		err := dec.Decode(&trial)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", path, err)
		}
		trials = append(trials, trial)
	}
	return trials, nil
}

// participantID prefers the id recorded in the trials and falls back to the
// file name.
func participantID(path string, trials []map[string]any) string {
	for _, trial := range trials {
		if id, ok := trial["participant_id"].(string); ok && id != "" {
			return id
		}
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return strings.TrimPrefix(name, filePrefix)
}

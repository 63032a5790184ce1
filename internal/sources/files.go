package sources

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// FileSource is one JSON feed file shaped {"jobs": [ ... ]}. The filename
// minus its extension becomes the source namespace.
type FileSource struct {
	name string
	path string
}

func (s *FileSource) Name() string {
	return s.name
}

// Records parses the file and returns one raw object per job entry. An
// element that is not a JSON object comes back as nil so the caller can
// count it as a per-record failure instead of dropping the whole file.
func (s *FileSource) Records() ([]map[string]any, error) {

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", s.path)
	}

	var payload struct {
		Jobs []json.RawMessage `json:"jobs"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, errors.Wrapf(err, "invalid JSON in %s", s.path)
	}

	records := make([]map[string]any, 0, len(payload.Jobs))
	for _, raw := range payload.Jobs {
		var record map[string]any
		if err := json.Unmarshal(raw, &record); err != nil {
			record = nil
		}
		records = append(records, record)
	}

	return records, nil
}

// Discover lists the JSON files of dir as sources. A missing directory is
// an error (fatal for the run); an empty one yields no sources.
func Discover(dir string) ([]*FileSource, error) {

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "data directory doesn't exist: %s", dir)
	}

	var found []*FileSource
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		found = append(found, &FileSource{
			name: strings.SplitN(entry.Name(), ".", 2)[0],
			path: filepath.Join(dir, entry.Name()),
		})
	}

	log.Infof("found %d JSON files in %s", len(found), dir)
	return found, nil
}

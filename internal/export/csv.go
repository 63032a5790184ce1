package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNothingToExport is returned when the document set is empty; no file
// is created in that case.
var ErrNothingToExport = errors.New("nothing to export")

// preferredColumns come first in the header, in this order, whether or
// not every document carries them.
var preferredColumns = []string{
	"job_id", "title", "company", "location", "job_type",
	"salary", "url", "source", "scraped_at",
}

// Columns returns the CSV header for the document set: the preferred
// columns followed by any extra fields in first-seen order.
func Columns(documents []bson.D) []string {

	columns := make([]string, len(preferredColumns))
	copy(columns, preferredColumns)

	for _, document := range documents {
		for _, element := range document {
			columns = append(columns, element.Key)
		}
	}

	return lo.Uniq(columns)
}

func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case primitive.A:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, formatValue(item))
		}
		return strings.Join(parts, ", ")
	case []string:
		return strings.Join(v, ", ")
	case primitive.DateTime:
		return v.Time().UTC().Format(time.RFC3339)
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ToCSV writes the documents to path and returns how many records were
// written. An empty document set returns ErrNothingToExport without
// touching the filesystem.
func ToCSV(documents []bson.D, path string) (int, error) {

	if len(documents) == 0 {
		return 0, ErrNothingToExport
	}

	columns := Columns(documents)

	file, err := os.Create(path)
	if err != nil {
		return 0, errors.Wrap(err, "create export file")
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(columns); err != nil {
		return 0, errors.Wrap(err, "write header")
	}

	for _, document := range documents {
		fields := make(map[string]any, len(document))
		for _, element := range document {
			fields[element.Key] = element.Value
		}

		row := make([]string, len(columns))
		for i, column := range columns {
			row[i] = formatValue(fields[column])
		}
		if err := writer.Write(row); err != nil {
			return 0, errors.Wrap(err, "write record")
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return 0, errors.Wrap(err, "flush export file")
	}

	log.Infof("exported %d records to %s", len(documents), path)
	return len(documents), nil
}

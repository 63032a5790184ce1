package normalizer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jobsift/jobsift/internal/entities"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Descriptions longer than this many characters are cut and marked
// with "...".
const maxDescriptionLength = 10000

const truncationMarker = "..."

// jobTypeTable is checked in order; the first matching row wins.
var jobTypeTable = []struct {
	canonical string
	terms     []string
}{
	{entities.JobTypeFullTime, []string{"full time", "full-time", "fulltime"}},
	{entities.JobTypePartTime, []string{"part time", "part-time", "parttime"}},
	{entities.JobTypeContract, []string{"contract", "contractor"}},
	{entities.JobTypeTemporary, []string{"temp", "temporary"}},
	{entities.JobTypeInternship, []string{"intern", "internship"}},
	{entities.JobTypeFreelance, []string{"freelance", "freelancer"}},
}

// Normalize turns one raw job object into a canonical JobRecord. It is pure:
// no I/O, no shared state. seq is the per-run record counter used to
// synthesize an id when the source supplies none.
func Normalize(raw map[string]any, source string, seq int) (entities.JobRecord, error) {

	if raw == nil {
		return entities.JobRecord{}, errors.New("raw record is not an object")
	}

	record := entities.JobRecord{
		JobID:       asString(raw["id"]),
		Title:       CleanText(asString(raw["title"])),
		Company:     CleanText(nameOf(raw["company"])),
		Location:    CleanText(nameOf(raw["location"])),
		URL:         asString(raw["url"]),
		Description: truncate(CleanText(asString(raw["description"]))),
		Source:      source,
		ScrapedAt:   time.Now().UTC(),
	}

	if record.JobID == "" {
		record.JobID = fmt.Sprintf("%s_%d", source, seq)
	}

	if v, ok := raw["type"]; ok {
		record.JobType = NormalizeJobType(asString(v))
	}

	if v, ok := raw["salary"]; ok {
		record.Salary = formatSalary(v)
	}

	if v, ok := raw["skills"]; ok {
		record.Skills = flattenSkills(v)
	}

	return record, nil
}

// CleanText collapses whitespace runs to single spaces and trims the ends.
func CleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// NormalizeJobType maps free-text job types onto the canonical labels,
// falling back to capitalizing the cleaned original when nothing matches.
func NormalizeJobType(jobType string) string {

	cleaned := strings.ToLower(CleanText(jobType))
	if cleaned == "" {
		return ""
	}

	for _, row := range jobTypeTable {
		for _, term := range row.terms {
			if strings.Contains(cleaned, term) {
				return row.canonical
			}
		}
	}

	runes := []rune(cleaned)
	return strings.ToUpper(string(runes[0])) + string(runes[1:])
}

// truncate caps the description at maxDescriptionLength characters, not
// bytes, so a multibyte rune is never cut in half.
func truncate(description string) string {
	runes := []rune(description)
	if len(runes) > maxDescriptionLength {
		return string(runes[:maxDescriptionLength]) + truncationMarker
	}
	return description
}

// flattenSkills accepts either a comma-delimited string or a list whose
// elements are strings or {"name": ...} objects. Order is preserved;
// empty pieces and elements of any other shape are dropped.
func flattenSkills(v any) []string {
	switch skills := v.(type) {
	case string:
		return lo.FilterMap(strings.Split(skills, ","), func(s string, _ int) (string, bool) {
			trimmed := strings.TrimSpace(s)
			return trimmed, trimmed != ""
		})
	case []any:
		return lo.FilterMap(skills, func(item any, _ int) (string, bool) {
			switch skill := item.(type) {
			case string:
				name := CleanText(skill)
				return name, name != ""
			case map[string]any:
				name := CleanText(asString(skill["name"]))
				return name, name != ""
			default:
				return "", false
			}
		})
	default:
		return nil
	}
}

// formatSalary builds the human-readable composite from a structure with
// optional min, max and currency fields. An empty result means the field
// is omitted from the record.
func formatSalary(v any) string {

	salary, ok := v.(map[string]any)
	if !ok {
		return ""
	}

	currency := asString(salary["currency"])
	if currency == "" {
		currency = "USD"
	}

	minValue, maxValue := salaryBound(salary["min"]), salaryBound(salary["max"])
	switch {
	case minValue != "" && maxValue != "":
		return fmt.Sprintf("%s %s-%s", currency, minValue, maxValue)
	case minValue != "":
		return fmt.Sprintf("%s %s+", currency, minValue)
	case maxValue != "":
		return fmt.Sprintf("Up to %s %s", currency, maxValue)
	default:
		return ""
	}
}

// salaryBound treats a numeric zero the same as a missing bound.
func salaryBound(v any) string {
	if f, ok := v.(float64); ok && f == 0 {
		return ""
	}
	return asString(v)
}

// nameOf extracts a display name from either a {"name": ...} object or a
// plain string.
func nameOf(v any) string {
	if obj, ok := v.(map[string]any); ok {
		return asString(obj["name"])
	}
	return asString(v)
}

func asString(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	default:
		return fmt.Sprintf("%v", value)
	}
}

package sources

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	assert.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func Test_Discover_MissingDirectoryIsAnError(t *testing.T) {
	_, err := Discover("/definitely/not/here")
	assert.Error(t, err)
}

func Test_Discover_EmptyDirectoryYieldsNoSources(t *testing.T) {
	found, err := Discover(t.TempDir())
	assert.NoError(t, err)
	assert.Empty(t, found)
}

func Test_Discover_OnlyJSONFilesBecomeSources(t *testing.T) {

	dir := t.TempDir()
	writeFile(t, dir, "s01.json", `{"jobs":[]}`)
	writeFile(t, dir, "s02.json", `{"jobs":[]}`)
	writeFile(t, dir, "notes.txt", "ignore me")
	assert.NoError(t, os.Mkdir(filepath.Join(dir, "sub.json"), 0755))

	found, err := Discover(dir)
	assert.NoError(t, err)
	assert.Len(t, found, 2)
	assert.Equal(t, "s01", found[0].Name())
	assert.Equal(t, "s02", found[1].Name())
}

func Test_Records_ParsesJobsArray(t *testing.T) {

	dir := t.TempDir()
	writeFile(t, dir, "acme.json",
		`{"jobs":[{"id":"1","title":"Engineer"},{"id":"2"}]}`)

	found, err := Discover(dir)
	assert.NoError(t, err)
	assert.Len(t, found, 1)

	records, err := found[0].Records()
	assert.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, "Engineer", records[0]["title"])
}

func Test_Records_MalformedFileIsAnError(t *testing.T) {

	dir := t.TempDir()
	writeFile(t, dir, "bad.json", `{"jobs": [`)

	found, err := Discover(dir)
	assert.NoError(t, err)

	_, err = found[0].Records()
	assert.Error(t, err)
}

func Test_Records_NonObjectElementComesBackNil(t *testing.T) {

	dir := t.TempDir()
	writeFile(t, dir, "mixed.json", `{"jobs":[{"id":"1"},"oops",{"id":"2"}]}`)

	found, err := Discover(dir)
	assert.NoError(t, err)

	records, err := found[0].Records()
	assert.NoError(t, err)
	assert.Len(t, records, 3)
	assert.NotNil(t, records[0])
	assert.Nil(t, records[1])
	assert.NotNil(t, records[2])
}

func Test_Records_MissingJobsKeyYieldsNoRecords(t *testing.T) {

	dir := t.TempDir()
	writeFile(t, dir, "empty.json", `{"other": 1}`)

	found, err := Discover(dir)
	assert.NoError(t, err)

	records, err := found[0].Records()
	assert.NoError(t, err)
	assert.Empty(t, records)
}

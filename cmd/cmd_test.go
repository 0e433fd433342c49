package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeDoc(t *testing.T, dir, id string) {
	t.Helper()
	doc := fmt.Sprintf(`{"documents": [{"id": %q, "passages": [
		{"offset": 0, "infons": {"type": "title_1", "section_type": "TITLE"}, "text": "Title of %s"},
		{"offset": 20, "infons": {"type": "paragraph", "section_type": "INTRO"}, "text": "First sentence. Second sentence."}
	]}]}`, id, id)
	require.NoError(t, os.WriteFile(filepath.Join(dir, id+".json"), []byte(doc), 0o644))
}

func TestSplitShardsShow(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "shards")
	writeDoc(t, in, "PMC1")
	writeDoc(t, in, "PMC2")
	writeDoc(t, in, "PMC3")

	stdout, err := run(t, "split", in, out, "--batch-size", "2", "--log-format", "json", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, stdout, "3 documents: 3 records")

	stdout, err = run(t, "shards", out, "--log-format", "json", "--log-level", "error")
	require.NoError(t, err)
	assert.Equal(t,
		filepath.Join(out, "output-000.json")+"\n"+filepath.Join(out, "output-001.json")+"\n",
		stdout)

	stdout, err = run(t, "show", filepath.Join(out, "output-001.json"), "--log-format", "json", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, stdout, "## PMC3")
	assert.Contains(t, stdout, "**Title of PMC3**")
	assert.Contains(t, stdout, "1. First sentence.")
}

func TestSplit_MissingInput(t *testing.T) {
	_, err := run(t, "split", filepath.Join(t.TempDir(), "absent"), t.TempDir(), "--log-format", "json", "--log-level", "error")
	assert.Error(t, err)
}

func TestFetch_BadWriteMode(t *testing.T) {
	ids := filepath.Join(t.TempDir(), "ids.txt")
	require.NoError(t, os.WriteFile(ids, []byte("PMC1\n"), 0o644))

	_, err := run(t, "fetch", ids, filepath.Join(t.TempDir(), "out.json"), "--write-mode", "sniff", "--log-format", "json", "--log-level", "error")
	assert.Error(t, err)
}

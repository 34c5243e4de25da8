package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgallion1/litchunk/internal/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := newApp(&out, io.Discard).Run(append([]string{"litchunk"}, args...))
	return out.String(), err
}

func writeHTML(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("<html><body>"+body+"</body></html>"), 0o644))
	return path
}

func TestExtractCommand(t *testing.T) {
	path := writeHTML(t, t.TempDir(), "survey.html", "<h1>Graph neural networks</h1><p>A review of message passing.</p>")

	out, err := run(t, "extract", path)
	require.NoError(t, err)

	var meta document.ExtractedText
	require.NoError(t, json.Unmarshal([]byte(out), &meta))
	assert.True(t, meta.ExtractionSucceeded)
	assert.Equal(t, document.SourceHTML, meta.SourceType)
	assert.Equal(t, "Graph neural networks A review of message passing.", meta.Body)
}

func TestExtractCommand_NeedsOneFile(t *testing.T) {
	_, err := run(t, "extract")
	require.Error(t, err)
}

func TestChunkCommand_Text(t *testing.T) {
	text := strings.Repeat("Diffusion models denoise samples step by step. ", 10)
	out, err := run(t, "chunk",
		"--text", text,
		"--literature-id", "lit-1",
		"--group-id", "grp-1",
		"--chunk-size", "100",
		"--chunk-overlap", "10",
		"--method", "chars",
	)
	require.NoError(t, err)

	var resp struct {
		Chunks  []document.Chunk `json:"chunks"`
		Summary document.Summary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Greater(t, len(resp.Chunks), 1)
	assert.Equal(t, len(resp.Chunks), resp.Summary.TotalChunks)
	assert.Equal(t, "grp-1", resp.Chunks[0].GroupID)
}

func TestChunkCommand_Files(t *testing.T) {
	dir := t.TempDir()
	a := writeHTML(t, dir, "a.html", "<p>First paper on attention.</p>")
	b := writeHTML(t, dir, "b.html", "<p>Second paper on retrieval.</p>")

	out, err := run(t, "chunk", "--literature-id", "lit", "--group-id", "grp", "--method", "chars", a, b)
	require.NoError(t, err)

	var results []fileResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)
	assert.Equal(t, "a.html", results[0].Filename)
	assert.Equal(t, "lit/a", results[0].Chunks[0].LiteratureID)
	assert.Equal(t, "b.html", results[1].Filename)
	assert.Equal(t, "lit/b", results[1].Chunks[0].LiteratureID)
}

func TestChunkCommand_Errors(t *testing.T) {
	_, err := run(t, "chunk", "--group-id", "grp", "--text", "x")
	assert.Error(t, err, "literature-id is required")

	_, err = run(t, "chunk", "--literature-id", "lit", "--group-id", "grp")
	assert.Error(t, err, "no input")

	_, err = run(t, "chunk", "--literature-id", "lit", "--group-id", "grp", "--chunk-size", "10", "--chunk-overlap", "10", "--text", "x")
	assert.Error(t, err, "overlap not below size")

	_, err = run(t, "chunk", "--literature-id", "lit", "--group-id", "grp", "--method", "chars", "--text", "   ")
	assert.Error(t, err, "blank text")
}

func TestTokensCommand(t *testing.T) {
	out, err := run(t, "tokens", "--method", "chars", "abcdefgh")
	require.NoError(t, err)

	var resp map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.EqualValues(t, 2, resp["estimated_tokens"])
	assert.Equal(t, "chars", resp["method"])

	_, err = run(t, "tokens", "--method", "bpe", "abc")
	assert.Error(t, err)
}

// ABOUTME: Tests for the local file, fetch, and command executors
// ABOUTME: Covers line-range selection, HTTP status handling, and command failure text

package blocks

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type callbackCapture struct {
	result string
	err    error
	called int
}

func (c *callbackCapture) onSuccess(result string) { c.result = result; c.called++ }
func (c *callbackCapture) onError(err error)       { c.err = err; c.called++ }

func TestFileExecutor_ReadsFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("one\ntwo\nthree\n"), 0o644))

	var c callbackCapture
	exec := &FileExecutor{Root: dir}
	exec.Execute("notes.txt", nil, c.onSuccess, c.onError)

	require.NoError(t, c.err)
	assert.Equal(t, 1, c.called)
	assert.Equal(t, "one\ntwo\nthree\n", c.result)
}

func TestFileExecutor_LinesOption(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("one\ntwo\nthree\nfour\n"), 0o644))

	var c callbackCapture
	exec := &FileExecutor{Root: dir}
	exec.Execute("notes.txt", map[string]string{"lines": "2-3"}, c.onSuccess, c.onError)

	require.NoError(t, c.err)
	assert.Equal(t, "two\nthree", c.result)
}

func TestFileExecutor_MissingFile(t *testing.T) {
	var c callbackCapture
	exec := &FileExecutor{Root: t.TempDir()}
	exec.Execute("absent.txt", nil, c.onSuccess, c.onError)

	require.Error(t, c.err)
	assert.Equal(t, 1, c.called, "exactly one callback fires")
}

func TestFileExecutor_BadLinesRange(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("one\n"), 0o644))

	var c callbackCapture
	exec := &FileExecutor{Root: dir}
	exec.Execute("notes.txt", map[string]string{"lines": "9-12"}, c.onSuccess, c.onError)
	require.Error(t, c.err)
}

func TestFetchExecutor_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("page body"))
	}))
	defer srv.Close()

	var c callbackCapture
	exec := &FetchExecutor{Client: srv.Client()}
	exec.Execute(srv.URL, nil, c.onSuccess, c.onError)

	require.NoError(t, c.err)
	assert.Equal(t, "page body", c.result)
}

func TestFetchExecutor_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	var c callbackCapture
	exec := &FetchExecutor{Client: srv.Client()}
	exec.Execute(srv.URL, nil, c.onSuccess, c.onError)

	require.Error(t, c.err)
	assert.Contains(t, c.err.Error(), "404")
}

func TestCommandExecutor_Success(t *testing.T) {
	var c callbackCapture
	exec := &CommandExecutor{}
	exec.Execute("printf 'hello'", nil, c.onSuccess, c.onError)

	require.NoError(t, c.err)
	assert.Equal(t, "hello", c.result)
}

func TestCommandExecutor_FailureIncludesOutput(t *testing.T) {
	var c callbackCapture
	exec := &CommandExecutor{}
	exec.Execute("echo oops >&2; exit 3", nil, c.onSuccess, c.onError)

	require.Error(t, c.err)
	assert.Contains(t, c.err.Error(), "oops")
}

func TestCommandExecutor_EmptyTarget(t *testing.T) {
	var c callbackCapture
	exec := &CommandExecutor{}
	exec.Execute("", nil, c.onSuccess, c.onError)
	require.Error(t, c.err)
}

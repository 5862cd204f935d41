package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Roman77St/trimsound"
	"github.com/Roman77St/trimsound/config"
	"github.com/Roman77St/trimsound/export"
)

// testEnv задаёт окружение без S3 и с логом в stderr.
func testEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LOG_FILE", "-")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("TICK_INTERVAL", "250ms")
	t.Setenv("S3_BUCKET", "")
	t.Setenv("S3_REGION", "")
	os.Unsetenv("S3_BUCKET")
	os.Unsetenv("S3_REGION")
}

// fakeTool пишет shell-скрипт вместо ffmpeg или ffprobe.
func fakeTool(t *testing.T, dir, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not supported on windows")
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestDevices(t *testing.T) {
	out, err := execute(t, "devices")
	require.NoError(t, err)
	assert.Equal(t, "default\n", out)
}

func TestTrim_InvalidRange(t *testing.T) {
	testEnv(t)
	_, err := execute(t, "trim", "song.mp3", "--from", "60", "--to", "40")
	assert.ErrorIs(t, err, export.ErrInvalidSelection)

	_, err = execute(t, "trim", "song.mp3", "--to", "120")
	assert.ErrorIs(t, err, export.ErrInvalidSelection)
}

func TestTrim_RunsFFmpeg(t *testing.T) {
	testEnv(t)
	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args")
	t.Setenv("FFPROBE_PATH", fakeTool(t, dir, "ffprobe", "echo 200.000000"))
	t.Setenv("FFMPEG_PATH", fakeTool(t, dir, "ffmpeg", `echo "$@" > `+argsFile))

	out, err := execute(t, "trim", "song.mp3", filepath.Join(dir, "out.mp3"), "--from", "25", "--to", "75")
	require.NoError(t, err)
	assert.Contains(t, out, "100.000s from 50.000s")

	got, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(got), "-ss 50.000 -t 100.000 -i song.mp3 -acodec copy"), string(got))
}

func TestTrim_ProbeFailure(t *testing.T) {
	testEnv(t)
	dir := t.TempDir()
	t.Setenv("FFPROBE_PATH", fakeTool(t, dir, "ffprobe", "echo 'no such file' >&2; exit 1"))

	_, err := execute(t, "trim", "song.mp3")
	assert.ErrorIs(t, err, export.ErrProbe)
}

func TestTrim_UploadWithoutS3(t *testing.T) {
	testEnv(t)
	_, err := execute(t, "trim", "song.mp3", "--upload")
	assert.ErrorIs(t, err, trimsound.ErrNoPublisher)
}

func TestEditor_BadTickFlag(t *testing.T) {
	testEnv(t)
	_, err := execute(t, "--tick=-1s")
	assert.ErrorIs(t, err, config.ErrTickInterval)
}

package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/OpenRadar/awacs/internal/awacs"
	"github.com/OpenRadar/awacs/internal/httpapi"
	"github.com/OpenRadar/awacs/pkg/core"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(viper.Reset)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "awacs dev")
}

func TestAsk(t *testing.T) {
	var got httpapi.CommandRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(httpapi.CommandResponse{OK: true, Reply: "Viper 1-1, PICTURE: CLEAN."})
	}))
	defer srv.Close()

	out, err := execute(t, "ask", "--server", srv.URL, "Viper", "1-1", "picture")
	require.NoError(t, err)
	assert.Equal(t, "Viper 1-1 picture", got.Text)
	assert.Equal(t, "Viper 1-1, PICTURE: CLEAN.\n", out)
}

func TestState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(httpapi.StateResponse{
			Status: awacs.Status{Air: 2, Hostile: 1, Connected: true},
			Log: []core.Alert{
				{Kind: core.AlertMerged, Text: "Viper 1-1, MERGED.", SimTime: 12},
				{Kind: core.AlertReply, Text: "hidden"},
			},
		})
	}))
	defer srv.Close()

	out, err := execute(t, "state", "--server", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "air=2 friendly=0 hostile=1")
	assert.Contains(t, out, "Viper 1-1, MERGED.")
	assert.NotContains(t, out, "hidden")
}

func TestReplay(t *testing.T) {
	dir := t.TempDir()
	recording := strings.Join([]string{
		"FileType=text/acmi/tacview",
		"FileVersion=2.2",
		"0,Title=Red Flag",
		"#0",
		"a1,T=0|0|7000|0|0|90|0|0|90,Type=Air+FixedWing,Coalition=Allies,Name=F-16C,CallSign=Viper 1-1",
		"b2,T=0|0|7000|0|0|270|37040|0|270,Type=Air+FixedWing,Coalition=Enemies,Color=Red,Name=MiG-29",
		"#1",
	}, "\n")
	file := filepath.Join(dir, "flight.txt.acmi")
	require.NoError(t, os.WriteFile(file, []byte(recording), 0644))

	out, err := execute(t, "replay", "--config-dir", dir, "--logs-dir", filepath.Join(dir, "logs"),
		"--quiet", "-c", "Viper 1-1 snap", file)
	require.NoError(t, err)
	assert.Contains(t, out, "> Viper 1-1 snap\nViper 1-1, VECTOR 090, 20 miles.\n")
}

func TestReplay_MissingFile(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "replay", "--config-dir", dir, "--logs-dir", dir, filepath.Join(dir, "nope.acmi"))
	assert.Error(t, err)
}

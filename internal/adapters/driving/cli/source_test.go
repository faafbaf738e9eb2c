package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceCmd_Use(t *testing.T) {
	assert.Equal(t, "source", sourceCmd.Use)
}

func TestSourceCmd_Short(t *testing.T) {
	assert.Equal(t, "Manage document sources", sourceCmd.Short)
}

func TestSourceCmd_HasSubcommands(t *testing.T) {
	commands := sourceCmd.Commands()
	commandNames := make([]string, 0, len(commands))
	for _, cmd := range commands {
		commandNames = append(commandNames, cmd.Name())
	}

	assert.Contains(t, commandNames, "add")
	assert.Contains(t, commandNames, "list")
	assert.Contains(t, commandNames, "remove")
}

// Source Add Tests

func TestSourceAddCmd_Use(t *testing.T) {
	assert.Equal(t, "add [connector-type]", sourceAddCmd.Use)
}

func TestSourceAddCmd_RejectsUnknownType(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"source", "add", "fax-machine"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown connector type")
}

func TestSourceAddCmd_AddsSource(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	store := &mockSourceStore{}
	sourceEditor = store

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{
		"source", "add", "web",
		"--id", "docs", "--name", "Docs site",
		"-c", "urls=https://example.com/docs",
	})
	defer func() {
		rootCmd.SetArgs(nil)
		sourceAddID = ""
		sourceAddName = ""
		sourceAddConfig = nil
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Source added: docs (web)")
	require.Len(t, store.sources, 1)
	assert.Equal(t, "docs", store.sources[0].ID)
	assert.Equal(t, "web", store.sources[0].Type)
	assert.Equal(t, "https://example.com/docs", store.sources[0].Config["urls"])
}

func TestSourceAddCmd_GeneratesIDWhenEmpty(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	store := &mockSourceStore{}
	sourceEditor = store

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"source", "add", "uploads"})
	defer func() {
		rootCmd.SetArgs(nil)
		sourceAddID = ""
		sourceAddName = ""
		sourceAddConfig = nil
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	require.Len(t, store.sources, 1)
	assert.Contains(t, store.sources[0].ID, "uploads-")
}

func TestSourceAddCmd_RejectsMalformedConfig(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"source", "add", "web", "-c", "no-equals-sign"})
	defer func() {
		rootCmd.SetArgs(nil)
		sourceAddConfig = nil
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "expected key=value")
}

// Source List Tests

func TestSourceListCmd_Use(t *testing.T) {
	assert.Equal(t, "list", sourceListCmd.Use)
}

func TestSourceListCmd_Executes(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"source", "list"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "Configured sources:")
	assert.Contains(t, buf.String(), "web-1")
}

func TestSourceListCmd_Empty(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	sourceProvider = &mockSourceStore{}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"source", "list"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "No sources configured.")
}

// Source Remove Tests

func TestSourceRemoveCmd_Use(t *testing.T) {
	assert.Equal(t, "remove [source-id]", sourceRemoveCmd.Use)
}

func TestSourceRemoveCmd_RequiresExactlyOneArg(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"source", "remove"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestSourceRemoveCmd_RemovesSource(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"source", "remove", "web-1"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Source removed: web-1")
}

func TestSourceRemoveCmd_UnknownSource(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"source", "remove", "nope"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to remove source")
}

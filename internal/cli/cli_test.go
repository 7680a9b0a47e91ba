package cli

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionFlag(t *testing.T) {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := RunWithArgs("0.1.0-test", []string{"--version"})

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	buf.ReadFrom(r)
	output := buf.String()

	assert.NoError(t, err)
	assert.Contains(t, output, "recollect 0.1.0-test")
}

func TestVersionOutputFormat(t *testing.T) {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	_ = RunWithArgs("1.2.3", []string{"--version"})

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	buf.ReadFrom(r)
	output := strings.TrimSpace(buf.String())

	assert.Equal(t, "recollect 1.2.3", output)
}

func TestHistorySubcommandRecognized(t *testing.T) {
	parser, _, _ := buildParser("test")
	_, err := parser.ParseArgs([]string{"history"})
	assert.NoError(t, err)
}

func TestChatsSubcommandRecognized(t *testing.T) {
	parser, _, _ := buildParser("test")
	_, err := parser.ParseArgs([]string{"chats"})
	assert.NoError(t, err)
}

func TestMessagesSubcommandRecognized(t *testing.T) {
	parser, _, _ := buildParser("test")
	_, err := parser.ParseArgs([]string{"messages", "--chat", "iMessage;-;+15551234567"})
	assert.NoError(t, err)
}

func TestFetchSubcommandRecognized(t *testing.T) {
	parser, _, _ := buildParser("test")
	_, err := parser.ParseArgs([]string{"fetch", "--url", "https://example.com"})
	assert.NoError(t, err)
}

func TestSearchSubcommandRecognized(t *testing.T) {
	parser, _, _ := buildParser("test")
	_, err := parser.ParseArgs([]string{"search", "test query"})
	assert.NoError(t, err)
}

func TestIngestSubcommandRecognized(t *testing.T) {
	parser, _, _ := buildParser("test")
	_, err := parser.ParseArgs([]string{"ingest"})
	assert.NoError(t, err)
}

func TestRecallSubcommandRecognized(t *testing.T) {
	parser, _, _ := buildParser("test")
	_, err := parser.ParseArgs([]string{"recall", "meeting notes"})
	assert.NoError(t, err)
}

func TestStatusSubcommandRecognized(t *testing.T) {
	parser, _, _ := buildParser("test")
	_, err := parser.ParseArgs([]string{"status"})
	assert.NoError(t, err)
}

func TestPruneSubcommandRecognized(t *testing.T) {
	parser, _, _ := buildParser("test")
	_, err := parser.ParseArgs([]string{"prune"})
	assert.NoError(t, err)
}

func TestPurgeSubcommandRecognized(t *testing.T) {
	parser, _, _ := buildParser("test")
	_, err := parser.ParseArgs([]string{"purge", "--all"})
	assert.NoError(t, err)
}

func TestPurgeRequiresAll(t *testing.T) {
	err := RunWithArgs("test", []string{"purge"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--all flag for safety")
}

func TestHistoryFlagsDefaults(t *testing.T) {
	p, _, c := buildParser("test")
	_, err := p.ParseArgs([]string{"history"})
	require.NoError(t, err)

	assert.Equal(t, 7, c.History.Days)
	assert.Equal(t, 50, c.History.Limit)
	assert.Equal(t, "", c.History.Source)
}

func TestHistorySourceChoice(t *testing.T) {
	p, _, c := buildParser("test")
	_, err := p.ParseArgs([]string{"history", "--source", "safari"})
	require.NoError(t, err)
	assert.Equal(t, "safari", c.History.Source)
}

func TestHistoryInvalidSourceFails(t *testing.T) {
	parser, _, _ := buildParser("test")
	_, err := parser.ParseArgs([]string{"history", "--source", "firefox"})
	require.Error(t, err)
}

func TestChatsSourceDefault(t *testing.T) {
	p, _, c := buildParser("test")
	_, err := p.ParseArgs([]string{"chats"})
	require.NoError(t, err)
	assert.Equal(t, "imessage", c.Chats.Source)
}

func TestMessagesAccountDefault(t *testing.T) {
	p, _, c := buildParser("test")
	_, err := p.ParseArgs([]string{"messages", "--source", "whatsapp", "--chat", "123@s.whatsapp.net"})
	require.NoError(t, err)
	assert.Equal(t, "primary", c.Messages.Account)
	assert.Equal(t, 100, c.Messages.Limit)
}

func TestFetchModeDefault(t *testing.T) {
	p, _, c := buildParser("test")
	_, err := p.ParseArgs([]string{"fetch", "--url", "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, "text", c.Fetch.Mode)
	assert.Equal(t, 5000, c.Fetch.MaxLength)
}

func TestFetchInvalidModeFails(t *testing.T) {
	parser, _, _ := buildParser("test")
	_, err := parser.ParseArgs([]string{"fetch", "--url", "https://example.com", "--mode", "markdown"})
	require.Error(t, err)
}

func TestRecallFlagsDefaults(t *testing.T) {
	p, _, c := buildParser("test")
	_, err := p.ParseArgs([]string{"recall", "my query"})
	require.NoError(t, err)

	assert.Equal(t, "30d", c.Recall.Since)
	assert.Equal(t, 10, c.Recall.Limit)
	assert.Equal(t, 0, c.Recall.Offset)
}

func TestRecallDomainFlag(t *testing.T) {
	p, _, c := buildParser("test")
	_, err := p.ParseArgs([]string{"recall", "--domain", "github.com", "query"})
	require.NoError(t, err)
	assert.Equal(t, "github.com", c.Recall.Domain)
}

func TestGlobalFlagsJSON(t *testing.T) {
	parser, globals, _ := buildParser("test")
	_, err := parser.ParseArgs([]string{"--json", "status"})
	require.NoError(t, err)
	assert.True(t, globals.JSON)
}

func TestGlobalFlagsVerbose(t *testing.T) {
	parser, globals, _ := buildParser("test")
	_, err := parser.ParseArgs([]string{"--verbose", "status"})
	require.NoError(t, err)
	assert.True(t, globals.Verbose)
}

func TestGlobalFlagsConfig(t *testing.T) {
	parser, globals, _ := buildParser("test")
	_, err := parser.ParseArgs([]string{"--config", "/tmp/test.yaml", "status"})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/test.yaml", globals.Config)
}

func TestUnknownSubcommandFails(t *testing.T) {
	parser, _, _ := buildParser("test")
	_, err := parser.ParseArgs([]string{"nonexistent"})
	require.Error(t, err)
}

func TestPruneDryRunFlag(t *testing.T) {
	p, _, c := buildParser("test")
	_, err := p.ParseArgs([]string{"prune", "--dry-run"})
	require.NoError(t, err)
	assert.True(t, c.Prune.DryRun)
}

func TestPruneOlderThanFlag(t *testing.T) {
	p, _, c := buildParser("test")
	_, err := p.ParseArgs([]string{"prune", "--older-than", "7d"})
	require.NoError(t, err)
	assert.Equal(t, "7d", c.Prune.OlderThan)
}

func TestPurgeForceFlag(t *testing.T) {
	p, _, c := buildParser("test")
	_, err := p.ParseArgs([]string{"purge", "--all", "--force"})
	require.NoError(t, err)
	assert.True(t, c.Purge.All)
	assert.True(t, c.Purge.Force)
}

func TestAllSubcommandsExist(t *testing.T) {
	expected := []string{"history", "chats", "messages", "fetch", "search", "ingest", "recall", "status", "prune", "purge"}
	parser, _, _ := buildParser("test")

	for _, name := range expected {
		cmd := parser.Find(name)
		assert.NotNil(t, cmd, "subcommand %q should exist", name)
	}
}

func TestHelpFlagDoesNotError(t *testing.T) {
	err := RunWithArgs("test", []string{"--help"})
	assert.NoError(t, err)
}

func TestFetchRequiresURL(t *testing.T) {
	err := RunWithArgs("test", []string{"fetch"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--url")
}

func TestSearchRequiresQuery(t *testing.T) {
	err := RunWithArgs("test", []string{"search"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query")
}

package cli

import (
	"bytes"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsageLine(t *testing.T) {
	assert.Equal(t, "restore process <in> [flags]", usageLine("restore", "process <in> [flags]"))
	assert.Equal(t, "restore process <in>", usageLine("restore", "restore process <in>"))
	assert.Equal(t, "restore", usageLine("restore", ""))
}

type helpCLI struct {
	Process struct {
		In  string `arg:"" help:"Input file."`
		Out string `short:"o" help:"Output file."`
	} `cmd:"" help:"Restore one file."`
}

func TestStyledHelpPrinterUsesProgramName(t *testing.T) {
	var (
		buf    bytes.Buffer
		c      helpCLI
		exited bool
	)

	parser, err := kong.New(&c,
		kong.Name("restore"),
		kong.Help(StyledHelpPrinter()),
		kong.Writers(&buf, &buf),
		kong.Exit(func(int) { exited = true }),
	)
	require.NoError(t, err)

	_, _ = parser.Parse([]string{"process", "--help"})
	require.True(t, exited)

	out := buf.String()
	assert.Contains(t, out, "restore")
	assert.Contains(t, out, "restore process")
	assert.Contains(t, out, "Restore one file.")
	assert.Contains(t, out, "--out")
	assert.NotContains(t, out, "algo-restore")
}

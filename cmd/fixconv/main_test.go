package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mkadit/fix/internal/config"
	"github.com/mkadit/fix/internal/logger"
)

// frameMessage frames a '|' separated body as a FIX.4.4 message using delim.
func frameMessage(body string, delim byte) string {
	d := string(delim)
	body = strings.ReplaceAll(body, "|", d)
	msg := "8=FIX.4.4" + d + "9=" + strconv.Itoa(len(body)) + d + body
	sum := 0
	for i := 0; i < len(msg); i++ {
		sum += int(msg[i])
	}
	return fmt.Sprintf("%s10=%03d%s", msg, sum%256, d)
}

func pipeMessage(body string) string { return frameMessage(body, '|') }

const heartbeat = "35=0|49=A|56=B|34=1|52=20240102-10:20:30|"

func TestConvert(t *testing.T) {
	cfg, inputs, err := config.Load(config.NewFlagSet("fixconv"),
		[]string{"--in-delim", "pipe", "--out-delim", "soh", "--concurrency", "1"})
	require.NoError(t, err)
	require.Empty(t, inputs)

	good := pipeMessage(heartbeat)
	bad := strings.Replace(pipeMessage(heartbeat+"112=X|"), "112=X", "112=Y", 1)
	in := strings.NewReader("noise\n" + good + "\n" + bad + "\n" + good + "\n")

	var out bytes.Buffer
	log := logger.FromZap(zaptest.NewLogger(t))
	require.NoError(t, convert(context.Background(), cfg, log, nil, in, &out))

	want := frameMessage(heartbeat, 0x01) + "\n"
	assert.Equal(t, want+want, out.String())
}

func TestRunWithFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.fix")
	require.NoError(t, os.WriteFile(path, []byte(pipeMessage(heartbeat)+"\n"), 0o600))

	var out bytes.Buffer
	err := run([]string{"--in-delim", "|", "--checks", "crc,required", path}, strings.NewReader("ignored"), &out)
	require.NoError(t, err)
	assert.Equal(t, pipeMessage(heartbeat)+"\n", out.String())

	err = run([]string{filepath.Join(dir, "missing.fix")}, nil, &out)
	assert.Error(t, err)

	err = run([]string{"--dictionary", filepath.Join(dir, "missing.xml")}, strings.NewReader(""), &out)
	assert.ErrorContains(t, err, "load dictionary")
}

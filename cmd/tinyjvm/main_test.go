package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daimatz/tinyjvm/pkg/classfile"
	"github.com/daimatz/tinyjvm/pkg/classfile/classfiletest"
	"github.com/daimatz/tinyjvm/pkg/inspect"
	"github.com/daimatz/tinyjvm/pkg/logging"
	"github.com/daimatz/tinyjvm/pkg/vm"
)

const helloPath = "../../testdata/Hello.class"

func runApp(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := newApp(&stdout, &stderr).Run(append([]string{"tinyjvm"}, args...))
	return stdout.String(), stderr.String(), err
}

func TestRunHello(t *testing.T) {
	out, _, err := runApp(t, helloPath)
	require.NoError(t, err)
	assert.Equal(t, "Hello, World!\n", out)
}

func TestRunMissingArgument(t *testing.T) {
	out, _, err := runApp(t)
	assert.Equal(t, errUsage, err)
	assert.Contains(t, out, "tinyjvm")
}

func TestRunFailures(t *testing.T) {
	dir := t.TempDir()

	badMagic := filepath.Join(dir, "Bad.class")
	require.NoError(t, os.WriteFile(badMagic, []byte{0xDE, 0xAD, 0xBE, 0xEF}, 0644))

	b, refs := classfiletest.HelloWorld("unused")
	cf := b.ClassFile()
	code := classfiletest.HelloCode(refs)
	code[0] = vm.OpIload
	cf.Methods[0].Code().Code = code
	data, err := classfile.Marshal(cf)
	require.NoError(t, err)
	iload := filepath.Join(dir, "Iload.class")
	require.NoError(t, os.WriteFile(iload, data, 0644))

	_, _, err = runApp(t, badMagic)
	assert.ErrorIs(t, err, classfile.ErrBadMagic)

	_, _, err = runApp(t, iload)
	assert.ErrorIs(t, err, vm.ErrUnimplementedOpcode)

	_, _, err = runApp(t, filepath.Join(dir, "Missing.class"))
	assert.Error(t, err)
}

func TestConfigFlag(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tinyjvm.toml")
	require.NoError(t, os.WriteFile(path, []byte("[parser]\nmax_attribute_depth = 1\n"), 0644))

	out, _, err := runApp(t, "--config", path, helloPath)
	require.NoError(t, err)
	assert.Equal(t, "Hello, World!\n", out)

	_, _, err = runApp(t, "--config", filepath.Join(dir, "absent.toml"), helloPath)
	assert.Error(t, err)
}

func TestInspect(t *testing.T) {
	snapshot := filepath.Join(t.TempDir(), "hello.cbor")

	out, _, err := runApp(t, "inspect", "--cbor", snapshot, helloPath)
	require.NoError(t, err)
	assert.Contains(t, out, "class Hello")
	assert.Contains(t, out, "invokevirtual #4")

	data, err := os.ReadFile(snapshot)
	require.NoError(t, err)
	s, err := inspect.UnmarshalSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, "Hello", s.Class)
}

func TestPrintError(t *testing.T) {
	// Color is forced on globally; a non-terminal writer still gets plain text.
	saved := color.NoColor
	color.NoColor = false
	defer func() { color.NoColor = saved }()

	tests := []struct {
		err  error
		want string
	}{
		{
			fmt.Errorf("reading magic: %w", classfile.ErrBadMagic),
			"Error: BadMagic: reading magic: bad magic\n",
		},
		{errUsage, "Error: " + errUsage.Error() + "\n"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		printError(&buf, tt.err)
		assert.Equal(t, tt.want, buf.String())
		assert.NotContains(t, buf.String(), "\x1b[")
	}
}

func TestLogFileReceivesTrace(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "trace.log")
	defer logging.Configure(0, "")

	out, _, err := runApp(t, "--verbosity", "2", "--log-file", logPath, helloPath)
	require.NoError(t, err)
	assert.Equal(t, "Hello, World!\n", out)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	log := string(data)
	assert.Contains(t, log, "pc=0 getstatic")
	assert.Contains(t, log, "pc=5 invokevirtual")
	assert.Contains(t, log, "Hello.main returned")
}

func TestQuietByDefault(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "quiet.log")
	defer logging.Configure(0, "")

	_, _, err := runApp(t, "--log-file", logPath, helloPath)
	require.NoError(t, err)

	data, err := os.ReadFile(logPath)
	if err == nil {
		assert.Empty(t, data)
	}
}

package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backseater/vm"
)

func TestRunEmitWritesLoadableROM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.rom")
	require.NoError(t, runEmit(path))

	buf, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 0, len(buf)%vm.InstructionSize)

	machine := vm.NewMachine(nil, nil)
	require.NoError(t, machine.LoadROM(buf))
	machine.Run()

	require.NoError(t, machine.Err())
	assert.True(t, machine.Halted())
	assert.NotEqual(t, byte(0), machine.Memory().TerminalCell(0, 0))
}

func TestRunJSONWritesParsableCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, runJSON(path))

	buf, err := os.ReadFile(path)
	require.NoError(t, err)

	var catalog vm.Catalog
	require.NoError(t, json.Unmarshal(buf, &catalog))
	assert.NotEmpty(t, catalog.Opcodes)
	assert.Equal(t, 256, catalog.Constants.NumRegisters)
	assert.EqualValues(t, 255, catalog.Constants.InstructionPointer)
}

func TestKeyboardStatePollLatchesAndExpires(t *testing.T) {
	k := &keyboardState{pressed: map[uint32]time.Time{}}
	k.pressed[uint32('a')] = time.Now().Add(keyLatchWindow)
	assert.True(t, k.poll(uint32('a')))
	assert.False(t, k.poll(uint32('z')))

	k.pressed[uint32('b')] = time.Now().Add(-time.Second)
	assert.False(t, k.poll(uint32('b')))
}

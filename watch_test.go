package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAwaitChangeIgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.txt")
	require.NoError(t, os.WriteFile(in, []byte("x\n"), 0o644))

	done := make(chan error, 1)
	go func() { done <- awaitChange([]string{in}) }()

	// let the directory watch establish before touching anything
	time.Sleep(200 * time.Millisecond)

	// a sibling file changing, the way the output file does after a
	// run, must not wake the loop
	require.NoError(t, os.WriteFile(filepath.Join(dir, "out.txt"), []byte("y\n"), 0o644))
	select {
	case err := <-done:
		t.Fatalf("returned for a file outside the watched set (err=%v)", err)
	case <-time.After(500 * time.Millisecond):
	}

	require.NoError(t, os.WriteFile(in, []byte("z\n"), 0o644))
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("did not return after the watched file changed")
	}
}

package main

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptovest.backend/pkg/crypto"
)

func withHooks(t *testing.T) (*string, *string) {
	t.Helper()
	origArgs, origPrintf, origGenerate, origFatalf := os.Args, printfFn, generateHashFn, fatalfFn
	t.Cleanup(func() {
		os.Args, printfFn, generateHashFn, fatalfFn = origArgs, origPrintf, origGenerate, origFatalf
	})

	var out, fatal string
	printfFn = func(format string, a ...interface{}) (int, error) {
		out += fmt.Sprintf(format, a...)
		return len(out), nil
	}
	fatalfFn = func(format string, a ...interface{}) { fatal = fmt.Sprintf(format, a...) }
	return &out, &fatal
}

func TestResolvePassword(t *testing.T) {
	_, err := resolvePassword(nil)
	assert.Error(t, err)
	_, err = resolvePassword([]string{"short"})
	assert.Error(t, err)

	got, err := resolvePassword([]string{"Password123!"})
	require.NoError(t, err)
	assert.Equal(t, "Password123!", got)
}

func TestMain_PrintsVerifiableHash(t *testing.T) {
	out, fatal := withHooks(t)
	os.Args = []string{"hash-gen", "Password123!"}

	main()

	require.Empty(t, *fatal)
	hash := (*out)[:len(*out)-1]
	assert.True(t, crypto.CheckPassword("Password123!", hash))
}

func TestMain_Failures(t *testing.T) {
	out, fatal := withHooks(t)
	os.Args = []string{"hash-gen"}
	main()
	assert.Contains(t, *fatal, "usage")
	assert.Empty(t, *out)

	os.Args = []string{"hash-gen", "Password123!"}
	generateHashFn = func(string) (string, error) { return "", errors.New("rng failure") }
	main()
	assert.Contains(t, *fatal, "rng failure")
	assert.Empty(t, *out)
}

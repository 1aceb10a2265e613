package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteIDs(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeIDs(&buf, 3, false))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	for _, id := range lines {
		assert.Regexp(t, `^[0-9A-Za-z]{21}$`, id)
	}
}

func TestWriteIDs_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeIDs(&buf, 2, true))

	assert.Equal(t, 2, strings.Count(buf.String(), "- id: "))
	assert.Contains(t, buf.String(), "artifactType: photo")
}

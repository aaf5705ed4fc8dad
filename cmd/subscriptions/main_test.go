package main

import (
	"bytes"
	"testing"
	"time"

	"ms-events-web/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	err := writeTable(&buf, []models.Subscription{
		{ID: "s1", Email: "a@b.co", EventID: "e1", OptIn: true, CreatedAt: time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)},
		{ID: "s2", Email: "c@d.co", EventID: "e2"},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "EMAIL")
	assert.Contains(t, out, "a@b.co")
	assert.Contains(t, out, "2025-03-14T09:30:00Z")
	assert.Contains(t, out, "2 subscriptions, 1 opted in")
}

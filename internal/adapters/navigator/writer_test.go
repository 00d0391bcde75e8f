package navigator

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_Navigate(t *testing.T) {
	var buf bytes.Buffer
	nav := NewWriter(&buf, nil)

	assert.Empty(t, nav.Last())
	require.NoError(t, nav.Navigate(context.Background(), "/login.html"))
	require.NoError(t, nav.Navigate(context.Background(), "/pages/empresa/dashboard.html"))

	assert.Equal(t, "-> /login.html\n-> /pages/empresa/dashboard.html\n", buf.String())
	assert.Equal(t, "/pages/empresa/dashboard.html", nav.Last())
}

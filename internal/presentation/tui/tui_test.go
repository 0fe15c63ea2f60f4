package tui_test

import (
	"bytes"
	"testing"

	"github.com/aretw0/funnel/internal/presentation/tui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer(t *testing.T) {
	render := tui.NewRenderer(60)
	out, err := render("Pick **one** plan")
	require.NoError(t, err)
	assert.Contains(t, out, "one")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintBanner(&buf, "health")
	assert.Contains(t, buf.String(), "funnel")
	assert.Contains(t, buf.String(), "health insurance")
}

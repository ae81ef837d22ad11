package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTextGen struct {
	output string
	err    error
}

func (s *stubTextGen) GenerateText(_ context.Context, _ string) (string, error) {
	return s.output, s.err
}

func TestTargetDiscovery_ParsesBareArray(t *testing.T) {
	d := NewTargetDiscovery(testLogger(), &stubTextGen{output: `["Acme Corp", "Beta Inc"]`}, 5)

	targets, err := d.Discover(context.Background(), "retail")
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme Corp", "Beta Inc"}, targets)
}

func TestTargetDiscovery_StripsCodeFences(t *testing.T) {
	raw := "```json\n[\"Acme\", \"  Beta  \", \"\"]\n```"
	d := NewTargetDiscovery(testLogger(), &stubTextGen{output: raw}, 5)

	// Fences stripped, whitespace trimmed, empty entries dropped
	targets, err := d.Discover(context.Background(), "retail")
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme", "Beta"}, targets)
}

func TestTargetDiscovery_CapsAtMax(t *testing.T) {
	d := NewTargetDiscovery(testLogger(), &stubTextGen{output: `["A", "B", "C", "D"]`}, 2)

	targets, err := d.Discover(context.Background(), "retail")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, targets)
}

func TestTargetDiscovery_Errors(t *testing.T) {
	ctx := context.Background()

	// 1. Provider failure propagates
	d := NewTargetDiscovery(testLogger(), &stubTextGen{err: errors.New("timeout")}, 5)
	_, err := d.Discover(ctx, "retail")
	assert.ErrorContains(t, err, "discovery call failed")

	// 2. Prose instead of JSON is an error, never a guess
	d = NewTargetDiscovery(testLogger(), &stubTextGen{output: "Here are some companies: Acme, Beta"}, 5)
	_, err = d.Discover(ctx, "retail")
	assert.ErrorContains(t, err, "unparseable")

	// 3. An empty array is an error too
	d = NewTargetDiscovery(testLogger(), &stubTextGen{output: `[]`}, 5)
	_, err = d.Discover(ctx, "retail")
	assert.ErrorContains(t, err, "no targets")
}

package terminal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func clearCIEnv(t *testing.T) {
	t.Helper()
	for _, v := range ciEnvVars {
		t.Setenv(v, "")
	}
}

func TestDetector_ForceOverrides(t *testing.T) {
	clearCIEnv(t)

	d := NewDetector(DetectorOptions{ForceInteractive: true})
	assert.True(t, d.IsInteractive())

	d = NewDetector(DetectorOptions{ForceNonInteractive: true})
	assert.False(t, d.IsInteractive())
}

func TestDetector_CIEnvironment(t *testing.T) {
	clearCIEnv(t)

	d := NewDetector(DetectorOptions{})
	assert.False(t, d.IsCIEnvironment())

	t.Setenv("GITHUB_ACTIONS", "true")
	assert.True(t, d.IsCIEnvironment())
	assert.False(t, d.IsInteractive())
}

func TestDetector_CITruthiness(t *testing.T) {
	clearCIEnv(t)
	d := NewDetector(DetectorOptions{})

	t.Setenv("CI", "false")
	assert.False(t, d.IsCIEnvironment())

	t.Setenv("CI", "0")
	assert.False(t, d.IsCIEnvironment())

	t.Setenv("CI", "true")
	assert.True(t, d.IsCIEnvironment())
}

package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInteractive_FeatureReferenceAndSave(t *testing.T) {
	dir := testEnv(t)
	feature := writeFeature(t, dir)
	page := &fakePage{html: loginPage}

	stdin := feature + "::Valid login\ny\nquick\n"
	out, err := execute(t, dir, stdin, &fakeLLM{response: loginPlan}, page)
	require.NoError(t, err, out)

	assert.Contains(t, out, "Enter shortcut or feature path")
	assert.Contains(t, out, "Would you like to save this as a shortcut? (y/n): ")
	assert.Contains(t, out, `Saved shortcut "quick"`)
	assert.Contains(t, out, "Success:   true")

	out, err = execute(t, dir, "", &fakeLLM{}, &fakePage{}, "shortcuts", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "quick\t"+feature+"::Valid login")
}

func TestInteractive_DeclineSave(t *testing.T) {
	dir := testEnv(t)
	feature := writeFeature(t, dir)

	out, err := execute(t, dir, feature+"::Valid login\nn\n", &fakeLLM{response: loginPlan}, &fakePage{html: loginPage})
	require.NoError(t, err, out)
	assert.NotContains(t, out, "Enter shortcut name")
	assert.NotContains(t, out, "Saved shortcut")
}

func TestInteractive_Shortcut(t *testing.T) {
	dir := testEnv(t)
	feature := writeFeature(t, dir)
	_, err := execute(t, dir, "", &fakeLLM{}, &fakePage{}, "shortcuts", "save", "login", feature+"::Valid login")
	require.NoError(t, err)

	page := &fakePage{html: loginPage}
	out, err := execute(t, dir, "login\n", &fakeLLM{response: loginPlan}, page)
	require.NoError(t, err, out)
	assert.NotContains(t, out, "Would you like to save")
	assert.Equal(t, []string{"#login"}, page.clicks)
}

func TestInteractive_EmptyInput(t *testing.T) {
	dir := testEnv(t)
	_, err := execute(t, dir, "", &fakeLLM{}, &fakePage{})
	assert.ErrorIs(t, err, errInvalidReference)
}

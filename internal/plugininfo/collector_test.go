package plugininfo_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/karthikbj/pluginops/internal/plugininfo"
)

const (
	testPluginManifestPayloadConstant = `{
  "name": "@elizaos/plugin-solana",
  "version": "1.2.3",
  "description": "Solana plugin",
  "repository": {"type": "git", "url": "git+https://github.com/elizaos-plugins/plugin-solana.git"},
  "scripts": {"test": "vitest"}
}`
	testPluginIndexSourceConstant = `
import { transferAction as sendToken } from "./actions";
import { TradeService } from "./services";

export const solanaPlugin = {
  actions: [sendToken],
  services: [TradeService],
};
`
	testPluginActionSourceConstant = `
const rpcURL = process.env.SOLANA_RPC_URL;
export const transferAction = {};
`
)

func writePluginCheckout(testInstance *testing.T) string {
	testInstance.Helper()
	pluginRoot := testInstance.TempDir()
	require.NoError(testInstance, os.MkdirAll(filepath.Join(pluginRoot, "src", "actions"), 0o755))
	require.NoError(testInstance, os.WriteFile(filepath.Join(pluginRoot, "package.json"), []byte(testPluginManifestPayloadConstant), 0o644))
	require.NoError(testInstance, os.WriteFile(filepath.Join(pluginRoot, "src", "index.ts"), []byte(testPluginIndexSourceConstant), 0o644))
	require.NoError(testInstance, os.WriteFile(filepath.Join(pluginRoot, "src", "actions", "transfer.ts"), []byte(testPluginActionSourceConstant), 0o644))
	return pluginRoot
}

func TestCollect(testInstance *testing.T) {
	pluginRoot := writePluginCheckout(testInstance)

	collector := plugininfo.NewCollector(nil)
	pluginInformation, collectionError := collector.Collect(pluginRoot)
	require.NoError(testInstance, collectionError)

	require.Equal(testInstance, "@elizaos/plugin-solana", pluginInformation.PackageName)
	require.Equal(testInstance, "1.2.3", pluginInformation.Version)
	require.Equal(testInstance, "Solana plugin", pluginInformation.Description)
	require.True(testInstance, pluginInformation.HasTests)

	require.Len(testInstance, pluginInformation.Actions, 1)
	require.Equal(testInstance, "transferAction", pluginInformation.Actions[0].Name)
	require.NotEmpty(testInstance, pluginInformation.Actions[0].DefiningFile)

	require.Len(testInstance, pluginInformation.Services, 1)
	require.Equal(testInstance, "TradeService", pluginInformation.Services[0].Name)

	require.Equal(testInstance, []string{"SOLANA_RPC_URL"}, pluginInformation.EnvironmentVariables)
}

func TestCollectValidation(testInstance *testing.T) {
	collector := plugininfo.NewCollector(nil)

	testInstance.Run("missing_root", func(testInstance *testing.T) {
		_, collectionError := collector.Collect("  ")
		require.ErrorIs(testInstance, collectionError, plugininfo.ErrPluginRootRequired)
	})

	testInstance.Run("missing_manifest", func(testInstance *testing.T) {
		_, collectionError := collector.Collect(testInstance.TempDir())
		require.Error(testInstance, collectionError)
	})
}

func TestCollectWithoutIndexFile(testInstance *testing.T) {
	pluginRoot := testInstance.TempDir()
	require.NoError(testInstance, os.WriteFile(filepath.Join(pluginRoot, "package.json"), []byte(`{"name":"@elizaos/plugin-bare","version":"0.1.0"}`), 0o644))

	collector := plugininfo.NewCollector(nil)
	pluginInformation, collectionError := collector.Collect(pluginRoot)
	require.NoError(testInstance, collectionError)
	require.Empty(testInstance, pluginInformation.Actions)
	require.False(testInstance, pluginInformation.HasTests)
}

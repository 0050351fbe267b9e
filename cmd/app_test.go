package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tara-vision/codeforge/internal/config"
)

// useConfigFile points the global viper at a fresh config.yaml holding body
func useConfigFile(t *testing.T, body string) string {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	config.Configure(viper.GetViper(), filepath.Join(dir, "data"))
	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())
	return path
}

func TestReloadRereadsConfigFile(t *testing.T) {
	path := useConfigFile(t, "reasoning_model: first\n")

	a, err := newApp()
	require.NoError(t, err)
	defer a.close()
	assert.Equal(t, "first", a.current().ReasoningModel)

	require.NoError(t, os.WriteFile(path, []byte("reasoning_model: second\n"), 0644))
	require.NoError(t, a.reload())
	assert.Equal(t, "second", a.current().ReasoningModel)
}

func TestConcurrentReloadsAndSaves(t *testing.T) {
	path := useConfigFile(t, "reasoning_model: start\n")

	a, err := newApp()
	require.NoError(t, err)
	defer a.close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, a.reload())
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, a.saveSetting(config.KeyReasoningModel, fmt.Sprintf("model-%d", i)))
		}()
	}
	wg.Wait()

	// the last writer wins; memory must agree with the file
	require.NoError(t, a.reload())
	onDisk, err := config.Load(func() *viper.Viper {
		v := viper.New()
		v.SetConfigFile(path)
		require.NoError(t, v.ReadInConfig())
		return v
	}())
	require.NoError(t, err)
	assert.Equal(t, onDisk.ReasoningModel, a.current().ReasoningModel)
	assert.Contains(t, a.current().ReasoningModel, "model-")
}

func TestWatchConfigFiresAfterWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("vendor: auto\n"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 4)
	require.NoError(t, watchConfig(ctx, path, zap.NewNop(), func() { changed <- struct{}{} }))

	// unrelated files in the same directory are ignored
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "other.yaml"), []byte("x: 1\n"), 0644))
	require.NoError(t, os.WriteFile(path, []byte("vendor: ollama\n"), 0644))

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}

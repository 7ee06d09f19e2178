package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildInput(t *testing.T) {
	t.Parallel()

	existing := filepath.Join(t.TempDir(), "tender.docx")
	require.NoError(t, os.WriteFile(existing, []byte("x"), 0o644))

	t.Run("text arguments are joined", func(t *testing.T) {
		input, err := buildInput([]string{"招标", "文件", "内容"}, "")
		require.NoError(t, err)
		assert.Equal(t, "招标 文件 内容", input.Text)
		assert.False(t, input.IsFile())
	})

	t.Run("file flag", func(t *testing.T) {
		input, err := buildInput(nil, existing)
		require.NoError(t, err)
		assert.Equal(t, existing, input.FilePath)
		assert.True(t, input.IsFile())
	})

	t.Run("both is an error", func(t *testing.T) {
		_, err := buildInput([]string{"text"}, existing)
		assert.Error(t, err)
	})

	t.Run("neither is an error", func(t *testing.T) {
		_, err := buildInput(nil, "")
		assert.Error(t, err)

		_, err = buildInput([]string{"   "}, "")
		assert.Error(t, err, "whitespace-only text counts as empty")
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := buildInput(nil, "/no/such/file.docx")
		assert.Error(t, err)
	})
}

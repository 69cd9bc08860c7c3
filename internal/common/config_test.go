package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Venkatesh01777/Personal-Finance-Assistant/constants"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()
	assert.Equal(t, constants.ExtractionHybrid, cfg.Extraction.Method)
	assert.Equal(t, constants.MaxFileSizeBytes, cfg.Extraction.MaxFileSize)
	assert.Equal(t, "tesseract", cfg.OCR.Tesseract)
	assert.Equal(t, "eng", cfg.OCR.Lang)
	assert.Equal(t, 60*time.Second, cfg.Vision.Timeout)
	assert.Equal(t, "file:receipts.db", cfg.Store.DSN)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("EXTRACTION_METHOD", "heuristic")
	t.Setenv("MAX_FILE_SIZE", "1048576")
	t.Setenv("OPENAI_TIMEOUT", "30s")
	t.Setenv("OCR_PSM", "4")

	cfg := LoadConfig()
	assert.Equal(t, constants.ExtractionHeuristic, cfg.Extraction.Method)
	assert.Equal(t, int64(1<<20), cfg.Extraction.MaxFileSize)
	assert.Equal(t, 30*time.Second, cfg.Vision.Timeout)
	assert.Equal(t, 4, cfg.OCR.PSM)
}

func TestLoadConfigIgnoresMalformedValues(t *testing.T) {
	t.Setenv("MAX_FILE_SIZE", "lots")
	t.Setenv("OPENAI_TIMEOUT", "soon")

	cfg := LoadConfig()
	assert.Equal(t, constants.MaxFileSizeBytes, cfg.Extraction.MaxFileSize)
	assert.Equal(t, 60*time.Second, cfg.Vision.Timeout)
}

func TestValidate(t *testing.T) {
	t.Run("bad extraction method", func(t *testing.T) {
		cfg := LoadConfig()
		cfg.Extraction.Method = "psychic"
		err := cfg.Validate()
		require.Error(t, err)
		var appErr *AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "CONFIG_ERROR", appErr.Code)
	})

	t.Run("missing dsn", func(t *testing.T) {
		cfg := LoadConfig()
		cfg.Store.DSN = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("non-positive size cap", func(t *testing.T) {
		cfg := LoadConfig()
		cfg.Extraction.MaxFileSize = 0
		assert.Error(t, cfg.Validate())
	})
}

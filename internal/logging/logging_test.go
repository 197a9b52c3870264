package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sitevis/internal/logging"
)

func TestNew_Levels(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, logging.New("production", "").GetLevel())
	assert.Equal(t, zerolog.DebugLevel, logging.New("development", "").GetLevel())
	assert.Equal(t, zerolog.WarnLevel, logging.New("development", "warn").GetLevel())
	assert.Equal(t, zerolog.InfoLevel, logging.New("production", "loud").GetLevel())
}

func TestNewWithWriter_ProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := logging.NewWithWriter(&buf, "production", "")
	log.Info().Str("project_id", "p1").Msg("edit applied")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "p1", line["project_id"])
	assert.Equal(t, "edit applied", line["message"])
	assert.Contains(t, line, "time")
}

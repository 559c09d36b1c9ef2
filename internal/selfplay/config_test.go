package selfplay

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Games = 0
	cfg.Workers = -1
	cfg.TopK = 37
	cfg.Temperature = -0.5

	err := cfg.Validate()
	require.Error(t, err)
	require.ErrorContains(t, err, "games")
	require.ErrorContains(t, err, "workers")
	require.ErrorContains(t, err, "top-k")
	require.ErrorContains(t, err, "temperature")
}

package health

import (
	"encoding/json"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestStateString(t *testing.T) {
	assert.Equal(t, "STARTING", Starting.String())
	assert.Equal(t, "READY", Ready.String())
	assert.Equal(t, "DEGRADED", Degraded.String())
	assert.Equal(t, "State(7)", State(7).String())
}

func TestStateInitialized(t *testing.T) {
	assert.False(t, Starting.Initialized())
	assert.True(t, Ready.Initialized())
	assert.True(t, Degraded.Initialized())
}

func TestStateJSON(t *testing.T) {
	body, err := json.Marshal(map[string]State{"state": Degraded})
	assert.NoError(t, err)
	assert.Equal(t, `{"state":"degraded"}`, string(body))

	_, err = json.Marshal(State(42))
	assert.Error(t, err)
}

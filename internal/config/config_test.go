package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/tickai/internal/core/npc"
	"github.com/zeusync/tickai/internal/core/npc/pest"
	"github.com/zeusync/tickai/internal/core/observability/log"
)

const sample = `
log:       { level: debug, encoding: json }
scheduler: { interval: 50ms, stop_on_failure: true }
server:    { enabled: false }
world:     { width: 60, height: 40, items: 3, seed: 11 }
agents:
  - id: moomoo
    name: MooMoo
    position: { x: 20, y: 15 }
    speed: 5
    ai: { min_idle_time: 2s, max_idle_time: 4s, vision_arc: 90 }
  - position: { x: 1, y: 1 }
`

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Len(t, cfg.Agents, 1)
	assert.Equal(t, "moomoo", cfg.Agents[0].ID)
	assert.Equal(t, pest.DefaultAIConfig(), cfg.Agents[0].AI.Pest())
}

func TestDecodeOverlaysDefaults(t *testing.T) {
	cfg, err := Decode(strings.NewReader(sample))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	lvl, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, log.LevelDebug, lvl)

	assert.Equal(t, Duration(50*time.Millisecond), cfg.Scheduler.Interval)
	assert.True(t, cfg.Scheduler.StopOnFailure)
	assert.False(t, cfg.Server.Enabled)
	assert.Equal(t, ":8080", cfg.Server.Addr, "untouched keys keep defaults")
	assert.Equal(t, uint64(11), cfg.World.Seed)
	assert.Equal(t, Default().World.Kinds, cfg.World.Kinds)

	require.Len(t, cfg.Agents, 2)
	moo := cfg.Agents[0]
	assert.Equal(t, 5.0, moo.Speed)
	assert.Equal(t, npc.DefaultHistory, moo.History)
	ai := moo.AI.Pest()
	assert.Equal(t, 2*time.Second, ai.MinIdleTime)
	assert.Equal(t, 4*time.Second, ai.MaxIdleTime)
	assert.Equal(t, 90.0, ai.VisionArc)
	assert.Equal(t, pest.DefaultAIConfig().MaxWanderRange, ai.MaxWanderRange)

	anon := cfg.Agents[1]
	_, err = uuid.Parse(anon.ID)
	assert.NoError(t, err, "anonymous agents get a uuid")
	assert.Equal(t, anon.ID, anon.Name)
	assert.Equal(t, DefaultAgent().Speed, anon.Speed)
}

func TestDecodeEmpty(t *testing.T) {
	cfg, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestDecodeRejects(t *testing.T) {
	for name, doc := range map[string]string{
		"unknown key":    "bogus: 1\n",
		"bad duration":   "scheduler: { interval: fast }\n",
		"zero interval":  "scheduler: { interval: 0s }\n",
		"bad level":      "log: { level: loud }\n",
		"bad encoding":   "log: { encoding: xml }\n",
		"empty world":    "world: { width: 0 }\n",
		"negative items": "world: { items: -1 }\n",
		"no buffer":      "server: { buffer: 0 }\n",
		"duplicate ids":  "agents: [ { id: a }, { id: a } ]\n",
		"outside":        "agents: [ { id: a, position: { x: 500, y: 1 } } ]\n",
		"idle order":     "agents: [ { id: a, ai: { min_idle_time: 5s, max_idle_time: 1s } } ]\n",
		"wander order":   "agents: [ { id: a, ai: { min_wander_range: 5, max_wander_range: 1 } } ]\n",
		"arc":            "agents: [ { id: a, ai: { vision_arc: 400 } } ]\n",
		"reach":          "agents: [ { id: a, ai: { interaction_range: 0 } } ]\n",
		"speed":          "agents: [ { id: a, speed: -1 } ]\n",
		"history":        "agents: [ { id: a, history: 0 } ]\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}

	_, err := Decode(strings.NewReader("agents: [ { id: a, speed: -1 } ]\n"))
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "agents[0]")
}

func TestLoad(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	path := filepath.Join(t.TempDir(), "tickai.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Agents, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestEncodeRoundTrip(t *testing.T) {
	cfg := Default()
	var buf bytes.Buffer
	require.NoError(t, cfg.Encode(&buf))
	assert.Contains(t, buf.String(), "interval: 100ms")
	assert.Contains(t, buf.String(), "min_idle_time: 1s")

	back, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
}

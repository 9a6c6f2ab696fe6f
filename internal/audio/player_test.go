package audio

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/tokentray/internal/config"
)

func TestVolumeToDecibels(t *testing.T) {
	assert.Equal(t, -100.0, volumeToDecibels(0))
	assert.InDelta(t, 0.0, volumeToDecibels(1), 1e-9)
	assert.InDelta(t, -6.02, volumeToDecibels(0.5), 0.01)
}

func TestPlayer_SetVolumeClamps(t *testing.T) {
	p := NewPlayer(nil)
	p.SetVolume(1.5)
	assert.Equal(t, 1.0, p.Volume())
	p.SetVolume(-1)
	assert.Equal(t, 0.0, p.Volume())
	p.SetVolume(0.3)
	assert.Equal(t, 0.3, p.Volume())
}

func TestPlayer_LoadErrors(t *testing.T) {
	p := NewPlayer(nil)

	assert.NoError(t, p.Play(""))

	err := p.Preload(filepath.Join(t.TempDir(), "missing.wav"))
	assert.ErrorContains(t, err, "failed to open sound file")

	txt := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("hi"), 0644))
	assert.ErrorContains(t, p.Preload(txt), "unsupported audio format")

	bad := filepath.Join(t.TempDir(), "bad.wav")
	require.NoError(t, os.WriteFile(bad, []byte("not a riff file"), 0644))
	assert.ErrorContains(t, p.Preload(bad), "failed to decode sound")
}

func TestManager_Disabled(t *testing.T) {
	cfg := config.DefaultConfig()
	m := NewManager(cfg, nil)
	defer m.Close()

	assert.False(t, m.Enabled(), "no sound configured")
	assert.NoError(t, m.PlayAlert())
}

func TestManager_MissingSoundDisables(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Alerts.Sound = filepath.Join(t.TempDir(), "gone.ogg")
	m := NewManager(cfg, nil)
	defer m.Close()

	assert.False(t, m.Enabled())
	assert.NoError(t, m.PlayAlert())
}

// writeWAV writes a short silent 16-bit mono PCM file.
func writeWAV(t *testing.T, path string) {
	t.Helper()
	samples := make([]byte, 16)

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+len(samples)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	for _, v := range []any{uint32(16), uint16(1), uint16(1), uint32(8000), uint32(16000), uint16(2), uint16(16)} {
		_ = binary.Write(&buf, binary.LittleEndian, v)
	}
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(samples)))
	buf.Write(samples)

	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func TestPlayer_PreloadCaches(t *testing.T) {
	sound := filepath.Join(t.TempDir(), "ding.wav")
	writeWAV(t, sound)

	p := NewPlayer(nil)
	require.NoError(t, p.Preload(sound))
	assert.Contains(t, p.cache, sound)
	assert.False(t, p.initialized, "decoding must not open the audio device")

	p.ClearCache()
	assert.Empty(t, p.cache)
}

func TestManager_UndecodableSoundDisables(t *testing.T) {
	sound := filepath.Join(t.TempDir(), "ding.wav")
	require.NoError(t, os.WriteFile(sound, []byte("x"), 0644))

	cfg := config.DefaultConfig()
	cfg.Alerts.Sound = sound
	m := NewManager(cfg, nil)
	defer m.Close()

	assert.False(t, m.Enabled())
}

func TestManager_UpdateConfig(t *testing.T) {
	sound := filepath.Join(t.TempDir(), "ding.wav")
	writeWAV(t, sound)

	cfg := config.DefaultConfig()
	cfg.Alerts.Sound = sound
	cfg.Alerts.Volume = 50
	m := NewManager(cfg, nil)
	defer m.Close()

	assert.True(t, m.Enabled())
	assert.Equal(t, 0.5, m.player.Volume())

	cfg.Alerts.Enabled = false
	m.UpdateConfig(cfg)
	assert.False(t, m.Enabled())
}

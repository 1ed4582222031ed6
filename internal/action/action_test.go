package action

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/notistack/internal/config"
	"github.com/jmylchreest/notistack/internal/model"
)

func TestRender(t *testing.T) {
	cfg := config.DefaultConfig()
	slackOnly, err := config.ParseFilter(`{"app_name":"^slack$"}`)
	require.NoError(t, err)

	cfg.UrgencyNormal.CustomCommands = []config.CustomCommand{
		{Command: `echo "{{.AppName}}: {{.Summary}} ({{.UrgencyText}}, {{.UnreadCount}})"`},
		{Filter: slackOnly, Command: `notify-slack {{.ID}}`},
	}

	n := model.Notification{ID: 7, AppName: "mail", Summary: "hi", Urgency: model.UrgencyNormal}
	got, err := Render(cfg, n, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{`echo "mail: hi (normal, 3)"`}, got)

	n.AppName = "slack"
	got, err = Render(cfg, n, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{`echo "slack: hi (normal, 1)"`, `notify-slack 7`}, got)
}

func TestRender_OtherUrgencyHasNoCommands(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.UrgencyNormal.CustomCommands = []config.CustomCommand{{Command: "true"}}

	got, err := Render(cfg, model.Notification{Urgency: model.UrgencyCritical}, 1)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRender_TemplateError(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.UrgencyLow.CustomCommands = []config.CustomCommand{
		{Command: "{{.Broken"},
		{Command: "ok"},
	}

	got, err := Render(cfg, model.Notification{Urgency: model.UrgencyLow}, 1)
	assert.Error(t, err)
	assert.Equal(t, []string{"ok"}, got, "valid commands still render")
}

func TestRunner_Run(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	r := NewRunner(nil)

	require.NoError(t, r.Run("printf hello > "+out))
	r.Wait()

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestRunner_Busy(t *testing.T) {
	r := NewRunner(nil)
	r.maxInFlight = 1

	require.NoError(t, r.Run("sleep 0.2"))
	assert.ErrorIs(t, r.Run("true"), ErrBusy)
	r.Wait()

	assert.NoError(t, r.Run("true"))
	r.Wait()
}

func TestRunner_Timeout(t *testing.T) {
	r := NewRunner(nil)
	r.SetTimeout(50 * time.Millisecond)

	start := time.Now()
	require.NoError(t, r.Run("sleep 5"))
	r.Wait()
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestRunner_StopKillsRunningCommands(t *testing.T) {
	r := NewRunner(nil)

	require.NoError(t, r.Run("sleep 10"))
	require.NoError(t, r.Run("sleep 10"))

	start := time.Now()
	r.Stop()
	assert.Less(t, time.Since(start), 5*time.Second)

	assert.ErrorIs(t, r.Run("true"), ErrStopped)
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"carepulse/internal/notify"
	"carepulse/pkg/model"
)

func newTestSourceService() (*HealthSourceService, *notify.Center) {
	toasts := notify.NewCenter()
	return NewHealthSourceService(0, toasts, nopAuditor{}, zap.NewNop()), toasts
}

func TestSourceRegistry_Seed(t *testing.T) {
	svc, _ := newTestSourceService()

	connections := svc.Connections()
	require.Len(t, connections, 5)
	assert.Equal(t, "local", connections[0].ID)
	assert.True(t, connections[0].Connected)

	for _, conn := range connections[1:] {
		assert.False(t, conn.Connected, conn.ID)
		assert.Nil(t, conn.LastSync, conn.ID)
	}

	assert.Equal(t, model.SourceLocal, svc.ActiveSource())
}

func TestConnect_UnknownSource(t *testing.T) {
	svc, toasts := newTestSourceService()

	_, err := svc.Connect(context.Background(), "user-abc", "garmin")
	assert.ErrorIs(t, err, ErrConnectionFailed)
	assert.Empty(t, toasts.Drain())
	assert.Equal(t, model.SourceLocal, svc.ActiveSource())
}

func TestConnect_DisconnectedSource(t *testing.T) {
	svc, toasts := newTestSourceService()

	conn, err := svc.Connect(context.Background(), "user-abc", "google-fit")
	require.NoError(t, err)

	assert.True(t, conn.Connected)
	require.NotNil(t, conn.LastSync)
	assert.Equal(t, model.SourceGoogleFit, svc.ActiveSource())

	drained := toasts.Drain()
	require.Len(t, drained, 1)
	assert.Equal(t, "Data source updated", drained[0].Title)
	assert.Equal(t, "Now using Google Fit as your primary health data source.", drained[0].Description)
}

func TestConnect_AlreadyConnectedSelectsImmediately(t *testing.T) {
	svc, toasts := newTestSourceService()

	_, err := svc.Connect(context.Background(), "user-abc", "fitbit")
	require.NoError(t, err)
	toasts.Drain()

	conn, err := svc.Connect(context.Background(), "user-abc", "local")
	require.NoError(t, err)

	assert.True(t, conn.Connected)
	// Manual entry never synced; the pure selection leaves it alone.
	assert.Nil(t, conn.LastSync)
	assert.Equal(t, model.SourceLocal, svc.ActiveSource())
	require.Len(t, toasts.Drain(), 1)
}

func TestConnect_CanceledContext(t *testing.T) {
	toasts := notify.NewCenter()
	svc := NewHealthSourceService(time.Hour, toasts, nopAuditor{}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Connect(ctx, "user-abc", "samsung")
	assert.ErrorIs(t, err, ErrConnectionFailed)

	// The handshake never finished, so nothing changed.
	for _, conn := range svc.Connections() {
		if conn.ID == "samsung" {
			assert.False(t, conn.Connected)
		}
	}
	assert.Equal(t, model.SourceLocal, svc.ActiveSource())
}

func TestSelect_RequiresConnected(t *testing.T) {
	svc, _ := newTestSourceService()

	_, err := svc.Select("apple-health")
	assert.ErrorIs(t, err, ErrConnectionFailed)

	_, err = svc.Connect(context.Background(), "user-abc", "apple-health")
	require.NoError(t, err)

	conn, err := svc.Select("local")
	require.NoError(t, err)
	assert.Equal(t, "local", conn.ID)

	conn, err = svc.Select("apple-health")
	require.NoError(t, err)
	assert.Equal(t, model.SourceAppleHealth, conn.Type)
	assert.Equal(t, model.SourceAppleHealth, svc.ActiveSource())
}

package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/resume-screener/internal/session"
)

type zipEntry struct {
	Name string
	Body string
}

func buildZip(t *testing.T, entries ...zipEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, e := range entries {
		f, err := w.Create(e.Name)
		require.NoError(t, err)
		if e.Body != "" {
			_, err = f.Write([]byte(e.Body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func newTestSession(t *testing.T) (*session.Controller, string) {
	t.Helper()

	c := session.NewController(session.NewMemoryStore(time.Hour), time.Minute)
	id, _, err := c.Start(context.Background(), "hr@example.com")
	require.NoError(t, err)
	return c, id
}

// recordingDispatcher records every state a session passes through.
type recordingDispatcher struct {
	*session.Controller
	states []session.State
}

func (r *recordingDispatcher) Dispatch(ctx context.Context, id string, actions ...session.Action) (session.State, error) {
	state, err := r.Controller.Dispatch(ctx, id, actions...)
	if err == nil {
		r.states = append(r.states, state)
	}
	return state, err
}

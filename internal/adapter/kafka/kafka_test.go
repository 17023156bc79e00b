package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/couchcryptid/quakehub/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

var refreshed = time.Date(2024, 2, 6, 1, 20, 0, 0, time.UTC)

func testSnapshot() domain.Snapshot {
	return domain.Snapshot{
		CycleID:     "c0ffee",
		RefreshedAt: refreshed,
		Events: []domain.Event{
			{
				ID: "emsc_20240206_0000008", Source: domain.SourceEMSC, Time: refreshed.Add(-3 * time.Minute),
				Latitude: domain.Float(37.23), Longitude: domain.Float(37.02), Magnitude: domain.Float(5.1),
				Extra: map[string]any{domain.ExtraSources: []string{"usgs", "emsc"}},
			},
			{ID: "geofon_gfz2024abcd", Source: domain.SourceGEOFON, Time: refreshed.Add(-time.Hour)},
		},
	}
}

func testWriter(fw *fakeWriter) *Writer {
	return &Writer{writer: fw, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func TestSerializeToMessage(t *testing.T) {
	snap := testSnapshot()

	msg, err := serializeToMessage(snap.Events[0], snap)
	require.NoError(t, err)

	assert.Equal(t, []byte("emsc_20240206_0000008"), msg.Key)
	assert.Contains(t, string(msg.Value), `"source":"emsc"`)
	assert.Contains(t, string(msg.Value), `"sources":["usgs","emsc"]`)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, HeaderSource, msg.Headers[0].Key)
	assert.Equal(t, []byte("emsc"), msg.Headers[0].Value)
	assert.Equal(t, HeaderCycleID, msg.Headers[1].Key)
	assert.Equal(t, []byte("c0ffee"), msg.Headers[1].Value)
	assert.Equal(t, HeaderRefreshedAt, msg.Headers[2].Key)
	assert.Equal(t, []byte(refreshed.Format(time.RFC3339)), msg.Headers[2].Value)

	var decoded domain.Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, snap.Events[0].ID, decoded.ID)
	assert.True(t, snap.Events[0].Time.Equal(decoded.Time))
}

func TestSerializeToMessage_UnencodableExtra(t *testing.T) {
	event := domain.Event{ID: "bad", Extra: map[string]any{"nan": math.NaN()}}

	_, err := serializeToMessage(event, domain.Snapshot{})
	assert.ErrorContains(t, err, "serialize event bad")
}

func TestWriter_Publish(t *testing.T) {
	fw := &fakeWriter{}
	w := testWriter(fw)

	require.NoError(t, w.Publish(context.Background(), testSnapshot()))

	require.Len(t, fw.msgs, 2)
	assert.Equal(t, []byte("emsc_20240206_0000008"), fw.msgs[0].Key)
	assert.Equal(t, []byte("geofon_gfz2024abcd"), fw.msgs[1].Key)
}

func TestWriter_Publish_EmptySnapshot(t *testing.T) {
	fw := &fakeWriter{err: errors.New("must not be called")}
	w := testWriter(fw)

	assert.NoError(t, w.Publish(context.Background(), domain.Snapshot{CycleID: "empty"}))
}

func TestWriter_Publish_Error(t *testing.T) {
	fw := &fakeWriter{err: errors.New("leader not available")}
	w := testWriter(fw)

	err := w.Publish(context.Background(), testSnapshot())
	assert.ErrorContains(t, err, "write 2 events")
	assert.ErrorContains(t, err, "leader not available")
}

func TestWriter_Close(t *testing.T) {
	fw := &fakeWriter{}
	require.NoError(t, testWriter(fw).Close())
	assert.True(t, fw.closed)
}

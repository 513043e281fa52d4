package status

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shivangsaraswat/certiflow/internal/models"
	"github.com/shivangsaraswat/certiflow/internal/store"
)

type fakeReader struct {
	jobs    map[string]*models.MailJob
	entries []models.MailLogEntry
}

func (f *fakeReader) GetJob(_ context.Context, jobID string) (*models.MailJob, error) {
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return job, nil
}

func (f *fakeReader) ListLogEntries(_ context.Context, groupID string, limit, offset int) ([]models.MailLogEntry, error) {
	var matched []models.MailLogEntry
	for _, e := range f.entries {
		if e.GroupID == groupID {
			matched = append(matched, e)
		}
	}
	if offset >= len(matched) {
		return nil, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (f *fakeReader) CountLogEntries(_ context.Context, groupID string) (int, error) {
	n := 0
	for _, e := range f.entries {
		if e.GroupID == groupID {
			n++
		}
	}
	return n, nil
}

func TestGetStatusProgress(t *testing.T) {
	tests := []struct {
		name                string
		sent, failed, total int
		want                int
	}{
		{"not started", 0, 0, 10, 0},
		{"half attempted", 3, 2, 10, 50},
		{"all attempted", 8, 2, 10, 100},
		{"rounds to nearest", 1, 0, 3, 33},
		{"rounds up", 2, 0, 3, 67},
		{"zero total never divides", 0, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := &fakeReader{jobs: map[string]*models.MailJob{
				"j1": {
					ID:              "j1",
					GroupID:         "g1",
					Status:          models.JobProcessing,
					TotalRecipients: tt.total,
					SentCount:       tt.sent,
					FailedCount:     tt.failed,
				},
			}}

			st, err := NewFacade(reader).GetStatus(context.Background(), "g1", "j1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, st.ProgressPercent)
			assert.Equal(t, tt.sent, st.SentCount)
			assert.Equal(t, tt.failed, st.FailedCount)
		})
	}
}

func TestGetStatusUnknownJob(t *testing.T) {
	f := NewFacade(&fakeReader{jobs: map[string]*models.MailJob{}})

	_, err := f.GetStatus(context.Background(), "g1", "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetStatusWrongGroupLooksAbsent(t *testing.T) {
	reader := &fakeReader{jobs: map[string]*models.MailJob{
		"j1": {ID: "j1", GroupID: "g1", TotalRecipients: 1},
	}}

	_, err := NewFacade(reader).GetStatus(context.Background(), "g2", "j1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetHistoryPaginates(t *testing.T) {
	now := time.Now()
	reader := &fakeReader{}
	for i := 0; i < 5; i++ {
		reader.entries = append(reader.entries, models.MailLogEntry{
			ID:        string(rune('a' + i)),
			GroupID:   "g1",
			Status:    models.LogSent,
			CreatedAt: now,
		})
	}
	reader.entries = append(reader.entries, models.MailLogEntry{ID: "other", GroupID: "g2"})

	h, err := NewFacade(reader).GetHistory(context.Background(), "g1", 2, 2)
	require.NoError(t, err)
	assert.Len(t, h.Entries, 2)
	assert.Equal(t, 5, h.Total)
	assert.Equal(t, 2, h.Limit)
	assert.Equal(t, 2, h.Offset)
}

func TestGetHistoryClampsBadPaging(t *testing.T) {
	h, err := NewFacade(&fakeReader{}).GetHistory(context.Background(), "g1", -1, -7)
	require.NoError(t, err)
	assert.Equal(t, 20, h.Limit)
	assert.Equal(t, 0, h.Offset)
	assert.Equal(t, 0, h.Total)
}

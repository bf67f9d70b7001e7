package observe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

type recordingObserver struct {
	informed []Event
	answer   bool
	asked    int
}

func (r *recordingObserver) Inform(ctx context.Context, e Event) {
	r.informed = append(r.informed, e)
}

func (r *recordingObserver) Confirm(ctx context.Context, e Event) bool {
	r.asked++
	return r.answer
}

func TestBroadcaster_Inform(t *testing.T) {
	first := &recordingObserver{answer: true}
	second := &recordingObserver{answer: true}
	b := NewBroadcaster(first, second)

	b.Inform(context.Background(), Event{Kind: KindExecutionStart})
	b.Inform(context.Background(), Event{Kind: KindExecutionEnd})

	require.Len(t, first.informed, 2, "first observer should see both events")
	require.Len(t, second.informed, 2, "second observer should see both events")
	assert.Equal(t, KindExecutionStart, first.informed[0].Kind, "delivery order should be preserved")
	assert.Equal(t, KindExecutionEnd, first.informed[1].Kind, "delivery order should be preserved")
}

func TestBroadcaster_Confirm(t *testing.T) {
	tests := []struct {
		name      string
		answers   []bool
		want      bool
		wantAsked []int
	}{
		{
			name:      "all_consent",
			answers:   []bool{true, true},
			want:      true,
			wantAsked: []int{1, 1},
		},
		{
			name:      "first_vetoes_stops_round",
			answers:   []bool{false, true},
			want:      false,
			wantAsked: []int{1, 0},
		},
		{
			name:      "second_vetoes",
			answers:   []bool{true, false},
			want:      false,
			wantAsked: []int{1, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBroadcaster()
			observers := make([]*recordingObserver, len(tt.answers))
			for i, a := range tt.answers {
				observers[i] = &recordingObserver{answer: a}
				b.Attach(observers[i])
			}

			got := b.Confirm(context.Background(), Event{Kind: KindClearMetadataDirectory})
			assert.Equal(t, tt.want, got, "confirmation result should match")
			for i, o := range observers {
				assert.Equal(t, tt.wantAsked[i], o.asked, "observer %d ask count should match", i)
			}
		})
	}
}

func TestBroadcaster_Guard(t *testing.T) {
	b := NewBroadcaster(&recordingObserver{answer: true})
	require.NoError(t, b.Guard(context.Background(), Event{Kind: KindClearMetadataDirectory}), "consent should pass the guard")

	b.Attach(&recordingObserver{answer: false})
	err := b.Guard(context.Background(), Event{Kind: KindClearMetadataDirectory})
	require.Error(t, err, "veto should fail the guard")
	assert.True(t, IsInterrupt(err), "guard failure should be an interrupt")
}

func TestIsInterrupt_Wrapped(t *testing.T) {
	inner := &InterruptError{Event: Event{Kind: KindClearMetadataDirectory}}
	wrapped := errors.Errorf("clearing metadata directory: %w", inner)

	assert.True(t, IsInterrupt(wrapped), "wrapped interrupt should be detected")
	assert.False(t, IsInterrupt(errors.New("disk full")), "other errors are not interrupts")
	assert.False(t, IsInterrupt(nil), "nil is not an interrupt")
}

func TestFuncs(t *testing.T) {
	var seen []Kind
	o := Funcs{
		InformFunc: func(ctx context.Context, e Event) {
			seen = append(seen, e.Kind)
		},
	}

	o.Inform(context.Background(), Event{Kind: KindFoundChanges})
	assert.Equal(t, []Kind{KindFoundChanges}, seen, "inform func should run")
	assert.True(t, o.Confirm(context.Background(), Event{}), "nil confirm func consents")

	o.ConfirmFunc = func(ctx context.Context, e Event) bool { return false }
	assert.False(t, o.Confirm(context.Background(), Event{}), "confirm func should be honored")
}

func TestChangeCounts_Total(t *testing.T) {
	c := ChangeCounts{Created: 2, Updated: 3, Deleted: 1, Unchanged: 10}
	assert.Equal(t, 6, c.Total(), "unchanged resources do not enter documents")
}

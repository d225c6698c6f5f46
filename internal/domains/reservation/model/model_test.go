package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"hallbooking/internal/domains/reservation/model"
)

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()

	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("failed to parse time %q: %v", value, err)
	}

	return parsed
}

func TestTimeRange_Overlaps(t *testing.T) {
	base := model.TimeRange{
		StartsAt: mustTime(t, "2025-06-01T10:00:00Z"),
		EndsAt:   mustTime(t, "2025-06-01T12:00:00Z"),
	}

	tests := []struct {
		name  string
		other model.TimeRange
		want  bool
	}{
		{
			name: "identical range",
			other: model.TimeRange{
				StartsAt: mustTime(t, "2025-06-01T10:00:00Z"),
				EndsAt:   mustTime(t, "2025-06-01T12:00:00Z"),
			},
			want: true,
		},
		{
			name: "partial overlap at tail",
			other: model.TimeRange{
				StartsAt: mustTime(t, "2025-06-01T11:00:00Z"),
				EndsAt:   mustTime(t, "2025-06-01T13:00:00Z"),
			},
			want: true,
		},
		{
			name: "partial overlap at head",
			other: model.TimeRange{
				StartsAt: mustTime(t, "2025-06-01T09:00:00Z"),
				EndsAt:   mustTime(t, "2025-06-01T11:00:00Z"),
			},
			want: true,
		},
		{
			name: "fully contained",
			other: model.TimeRange{
				StartsAt: mustTime(t, "2025-06-01T10:30:00Z"),
				EndsAt:   mustTime(t, "2025-06-01T11:30:00Z"),
			},
			want: true,
		},
		{
			name: "fully containing",
			other: model.TimeRange{
				StartsAt: mustTime(t, "2025-06-01T09:00:00Z"),
				EndsAt:   mustTime(t, "2025-06-01T13:00:00Z"),
			},
			want: true,
		},
		{
			name: "back to back after, shared boundary",
			other: model.TimeRange{
				StartsAt: mustTime(t, "2025-06-01T12:00:00Z"),
				EndsAt:   mustTime(t, "2025-06-01T14:00:00Z"),
			},
			want: false,
		},
		{
			name: "back to back before, shared boundary",
			other: model.TimeRange{
				StartsAt: mustTime(t, "2025-06-01T08:00:00Z"),
				EndsAt:   mustTime(t, "2025-06-01T10:00:00Z"),
			},
			want: false,
		},
		{
			name: "disjoint after",
			other: model.TimeRange{
				StartsAt: mustTime(t, "2025-06-01T15:00:00Z"),
				EndsAt:   mustTime(t, "2025-06-01T16:00:00Z"),
			},
			want: false,
		},
		{
			name: "disjoint before",
			other: model.TimeRange{
				StartsAt: mustTime(t, "2025-06-01T07:00:00Z"),
				EndsAt:   mustTime(t, "2025-06-01T08:00:00Z"),
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, base.Overlaps(tt.other))
			assert.Equal(t, tt.want, tt.other.Overlaps(base), "overlap must be symmetric")
		})
	}
}

func TestTimeRange_Contains(t *testing.T) {
	rng := model.TimeRange{
		StartsAt: mustTime(t, "2025-06-01T10:00:00Z"),
		EndsAt:   mustTime(t, "2025-06-01T12:00:00Z"),
	}

	assert.True(t, rng.Contains(mustTime(t, "2025-06-01T10:00:00Z")), "start is inside the half-open interval")
	assert.True(t, rng.Contains(mustTime(t, "2025-06-01T11:59:59Z")))
	assert.False(t, rng.Contains(mustTime(t, "2025-06-01T12:00:00Z")), "end is outside the half-open interval")
	assert.False(t, rng.Contains(mustTime(t, "2025-06-01T09:59:59Z")))
}

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from    model.Status
		to      model.Status
		allowed bool
	}{
		{model.StatusTempHold, model.StatusPending, true},
		{model.StatusTempHold, model.StatusCancelled, true},
		{model.StatusTempHold, model.StatusExpired, true},
		{model.StatusTempHold, model.StatusConfirmed, false},
		{model.StatusTempHold, model.StatusCompleted, false},
		{model.StatusPending, model.StatusConfirmed, true},
		{model.StatusPending, model.StatusCancelled, true},
		{model.StatusPending, model.StatusExpired, false},
		{model.StatusPending, model.StatusCompleted, false},
		{model.StatusConfirmed, model.StatusCompleted, true},
		{model.StatusConfirmed, model.StatusCancelled, true},
		{model.StatusConfirmed, model.StatusPending, false},
		{model.StatusConfirmed, model.StatusExpired, false},
		{model.StatusCompleted, model.StatusCancelled, false},
		{model.StatusCancelled, model.StatusPending, false},
		{model.StatusExpired, model.StatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestStatus_Terminal(t *testing.T) {
	assert.False(t, model.StatusTempHold.Terminal())
	assert.False(t, model.StatusPending.Terminal())
	assert.False(t, model.StatusConfirmed.Terminal())
	assert.True(t, model.StatusCompleted.Terminal())
	assert.True(t, model.StatusCancelled.Terminal())
	assert.True(t, model.StatusExpired.Terminal())
	assert.False(t, model.Status("unknown").Terminal())
}

func TestStatus_Active(t *testing.T) {
	assert.True(t, model.StatusTempHold.Active())
	assert.True(t, model.StatusPending.Active())
	assert.True(t, model.StatusConfirmed.Active())
	assert.False(t, model.StatusCompleted.Active())
	assert.False(t, model.StatusCancelled.Active())
	assert.False(t, model.StatusExpired.Active())

	assert.ElementsMatch(t,
		[]model.Status{model.StatusTempHold, model.StatusPending, model.StatusConfirmed},
		model.ActiveStatuses(),
	)
}

func TestRefundPercent(t *testing.T) {
	now := mustTime(t, "2025-06-01T00:00:00Z")

	tests := []struct {
		name     string
		startsAt time.Time
		want     int
	}{
		{
			name:     "80 hours out refunds everything",
			startsAt: now.Add(80 * time.Hour),
			want:     100,
		},
		{
			name:     "exactly 72 hours out refunds half",
			startsAt: now.Add(72 * time.Hour),
			want:     50,
		},
		{
			name:     "48 hours out refunds half",
			startsAt: now.Add(48 * time.Hour),
			want:     50,
		},
		{
			name:     "exactly 24 hours out refunds half",
			startsAt: now.Add(24 * time.Hour),
			want:     50,
		},
		{
			name:     "12 hours out refunds nothing",
			startsAt: now.Add(12 * time.Hour),
			want:     0,
		},
		{
			name:     "already started refunds nothing",
			startsAt: now.Add(-time.Hour),
			want:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, model.RefundPercent(now, tt.startsAt))
		})
	}
}

func TestRefundAmountCents(t *testing.T) {
	assert.Equal(t, int64(120000), model.RefundAmountCents(120000, 100))
	assert.Equal(t, int64(60000), model.RefundAmountCents(120000, 50))
	assert.Equal(t, int64(0), model.RefundAmountCents(120000, 0))
	assert.Equal(t, int64(37), model.RefundAmountCents(75, 50), "odd totals round down")
}

func TestTotalAmountCents(t *testing.T) {
	hourly := int64(15000)

	assert.Equal(t, int64(30000), model.TotalAmountCents(hourly, 2*time.Hour))
	assert.Equal(t, int64(22500), model.TotalAmountCents(hourly, 90*time.Minute))
	assert.Equal(t, int64(0), model.TotalAmountCents(hourly, 0))
}

func TestReservation_HoldLapsed(t *testing.T) {
	now := mustTime(t, "2025-06-01T10:00:00Z")
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	tests := []struct {
		name        string
		status      model.Status
		holdExpires *time.Time
		want        bool
	}{
		{"expired hold", model.StatusTempHold, &past, true},
		{"expiry boundary counts as lapsed", model.StatusTempHold, &now, true},
		{"live hold", model.StatusTempHold, &future, false},
		{"hold without expiry", model.StatusTempHold, nil, false},
		{"pending never lapses", model.StatusPending, &past, false},
		{"confirmed never lapses", model.StatusConfirmed, &past, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := model.Reservation{Status: tt.status, HoldExpiresAt: tt.holdExpires}
			assert.Equal(t, tt.want, r.HoldLapsed(now))
		})
	}
}

package dataprocessing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(s string) time.Time {
	t, err := time.Parse(time.DateTime, s)
	if err != nil {
		panic(err)
	}
	return t
}

func hourly(start string, n int) []time.Time {
	first := ts(start)
	out := make([]time.Time, n)
	for i := range out {
		out[i] = first.Add(time.Duration(i) * time.Hour)
	}
	return out
}

func TestParseFrequency(t *testing.T) {
	tests := []struct {
		alias   string
		want    string
		step    time.Duration
		wantErr bool
	}{
		{alias: "H", want: "H", step: time.Hour},
		{alias: "h", want: "h", step: time.Hour},
		{alias: "15min", want: "15min", step: 15 * time.Minute},
		{alias: "15T", want: "15T", step: 15 * time.Minute},
		{alias: "D", want: "D", step: 24 * time.Hour},
		{alias: "W-SUN", want: "W-SUN", step: 7 * 24 * time.Hour},
		{alias: " 30S ", want: "30S", step: 30 * time.Second},
		{alias: "MS", want: "MS"},
		{alias: "A", want: "A"},
		{alias: "", wantErr: true},
		{alias: "0H", wantErr: true},
		{alias: "X", wantErr: true},
		{alias: "H3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.alias, func(t *testing.T) {
			f, err := ParseFrequency(tt.alias)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.String())
			if tt.step > 0 {
				step, ok := f.fixedStep()
				require.True(t, ok)
				assert.Equal(t, tt.step, step)
			}
		})
	}
}

func TestFrequencyNext(t *testing.T) {
	tests := []struct {
		alias string
		from  string
		want  string
	}{
		{"H", "2019-01-01 23:00:00", "2019-01-02 00:00:00"},
		{"MS", "2019-01-01 00:00:00", "2019-02-01 00:00:00"},
		{"M", "2019-01-31 00:00:00", "2019-02-28 00:00:00"},
		{"M", "2020-01-31 00:00:00", "2020-02-29 00:00:00"},
		{"AS", "2019-01-01 00:00:00", "2020-01-01 00:00:00"},
		{"A", "2019-12-31 00:00:00", "2020-12-31 00:00:00"},
		{"3MS", "2019-01-01 00:00:00", "2019-04-01 00:00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.alias+" "+tt.from, func(t *testing.T) {
			f, err := ParseFrequency(tt.alias)
			require.NoError(t, err)
			assert.Equal(t, ts(tt.want), f.Next(ts(tt.from)))
		})
	}
}

func TestFrequencyRange(t *testing.T) {
	h, err := ParseFrequency("H")
	require.NoError(t, err)
	assert.Equal(t, hourly("2019-01-01 00:00:00", 4),
		h.Range(ts("2019-01-01 00:00:00"), ts("2019-01-01 03:00:00")))

	ms, err := ParseFrequency("MS")
	require.NoError(t, err)
	assert.Equal(t,
		[]time.Time{ts("2019-02-01 00:00:00"), ts("2019-03-01 00:00:00"), ts("2019-04-01 00:00:00")},
		ms.Range(ts("2019-01-15 00:00:00"), ts("2019-04-01 00:00:00")))

	assert.Empty(t, h.Range(ts("2019-01-02 00:00:00"), ts("2019-01-01 00:00:00")))
	assert.Empty(t, Frequency{}.Range(ts("2019-01-01 00:00:00"), ts("2019-01-02 00:00:00")))
}

func TestFrequencyConforms(t *testing.T) {
	h, err := ParseFrequency("H")
	require.NoError(t, err)

	assert.True(t, h.Conforms(hourly("2019-01-01 00:00:00", 5)))

	gap := hourly("2019-01-01 00:00:00", 5)
	gap = append(gap[:2], gap[3:]...)
	assert.False(t, h.Conforms(gap))
	assert.False(t, h.Conforms(nil))

	ms, err := ParseFrequency("MS")
	require.NoError(t, err)
	assert.False(t, ms.Conforms([]time.Time{ts("2019-01-02 00:00:00"), ts("2019-02-02 00:00:00")}))
}

func TestInferFrequency(t *testing.T) {
	tests := []struct {
		name   string
		index  []time.Time
		want   string
		wantOK bool
	}{
		{name: "hourly", index: hourly("2019-01-01 00:00:00", 4), want: "H", wantOK: true},
		{
			name: "quarter hourly",
			index: []time.Time{
				ts("2019-01-01 00:00:00"), ts("2019-01-01 00:15:00"), ts("2019-01-01 00:30:00"),
			},
			want:   "15T",
			wantOK: true,
		},
		{
			name: "daily",
			index: []time.Time{
				ts("2019-01-01 00:00:00"), ts("2019-01-02 00:00:00"), ts("2019-01-03 00:00:00"),
			},
			want:   "D",
			wantOK: true,
		},
		{
			name: "weekly on sundays",
			index: []time.Time{
				ts("2019-01-06 00:00:00"), ts("2019-01-13 00:00:00"), ts("2019-01-20 00:00:00"),
			},
			want:   "W-SUN",
			wantOK: true,
		},
		{
			name: "fortnightly on tuesdays",
			index: []time.Time{
				ts("2019-01-01 00:00:00"), ts("2019-01-15 00:00:00"), ts("2019-01-29 00:00:00"),
			},
			want:   "2W-TUE",
			wantOK: true,
		},
		{
			name: "month start",
			index: []time.Time{
				ts("2019-01-01 00:00:00"), ts("2019-02-01 00:00:00"), ts("2019-03-01 00:00:00"),
			},
			want:   "MS",
			wantOK: true,
		},
		{
			name: "month end",
			index: []time.Time{
				ts("2019-01-31 00:00:00"), ts("2019-02-28 00:00:00"), ts("2019-03-31 00:00:00"),
			},
			want:   "M",
			wantOK: true,
		},
		{
			name: "year start without leap day",
			index: []time.Time{
				ts("2021-01-01 00:00:00"), ts("2022-01-01 00:00:00"), ts("2023-01-01 00:00:00"),
			},
			want:   "AS",
			wantOK: true,
		},
		{
			name: "year start across leap year",
			index: []time.Time{
				ts("2019-01-01 00:00:00"), ts("2020-01-01 00:00:00"), ts("2021-01-01 00:00:00"),
			},
			want:   "AS",
			wantOK: true,
		},
		{name: "too short", index: hourly("2019-01-01 00:00:00", 2)},
		{
			name: "irregular",
			index: []time.Time{
				ts("2019-01-01 00:00:00"), ts("2019-01-01 01:00:00"), ts("2019-01-01 03:00:00"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ok := InferFrequency(tt.index)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, f.String())
			}
		})
	}
}

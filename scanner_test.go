package inventory

import (
	"slices"
	"testing"
	"time"
)

// state returns t with its counters set.
func state(t Transaction, remaining, writtenOff int64) Transaction {
	t.Remaining, t.WrittenOff = remaining, writtenOff
	return t
}

func TestEarliestInconsistency(t *testing.T) {
	tests := []struct {
		name      string
		history   []Transaction // in any order
		want      time.Time
		wantFound bool
	}{
		{
			name: "empty history",
		},
		{
			name:    "nothing matched yet",
			history: []Transaction{B(1, 10, 1), S(2, 5, 2), S(3, 5, 3)},
		},
		{
			name:    "consistent fifo",
			history: []Transaction{state(B(1, 10, 1), 0, 0), state(B(2, 5, 2), 3, 0), state(S(3, 12, 3), 0, 0)},
		},
		{
			name:      "purchase older than a consumed one",
			history:   []Transaction{state(B(1, 10, 1), 0, 0), state(S(3, 10, 2), 0, 0), B(2, 3, 0.5)},
			want:      at(0.5),
			wantFound: true,
		},
		{
			name:      "sale older than a consumed one",
			history:   []Transaction{state(B(1, 10, 1), 4, 0), state(S(2, 6, 3), 0, 0), S(3, 6, 2)},
			want:      at(2),
			wantFound: true,
		},
		{
			name: "earliest of both sides",
			history: []Transaction{
				state(B(1, 10, 1), 0, 0), B(2, 3, 0.5),
				state(S(3, 10, 2), 0, 0), S(4, 2, 0.2),
			},
			want:      at(0.2),
			wantFound: true,
		},
		{
			name:    "sale waiting for purchases",
			history: []Transaction{state(B(1, 5, 1), 0, 0), state(S(2, 8, 2), 3, 0)},
		},
		{
			name:    "written off sale before every purchase",
			history: []Transaction{state(S(1, 4, 1), 0, 4), B(2, 10, 2)},
		},
		{
			name:      "written off sale after a purchase with stock",
			history:   []Transaction{state(S(1, 4, 1), 0, 4), B(2, 10, 2), B(3, 5, 0.5)},
			want:      at(1),
			wantFound: true,
		},
		{
			name:      "written off sale at the same time as a purchase",
			history:   []Transaction{state(S(1, 4, 1), 0, 4), B(3, 5, 1)},
			want:      at(1),
			wantFound: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			newestFirst := slices.Clone(tt.history)
			slices.SortFunc(newestFirst, func(a, b Transaction) int { return compareChronological(b, a) })

			got, found := EarliestInconsistency(newestFirst)
			if found != tt.wantFound || !got.Equal(tt.want) {
				t.Errorf("EarliestInconsistency() = %v, %v, want %v, %v", got, found, tt.want, tt.wantFound)
			}
		})
	}
}

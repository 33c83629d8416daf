package inventory

import (
	"fmt"
	"reflect"
	"testing"
)

func TestMatcher_Next(t *testing.T) {
	tests := []struct {
		name  string
		buys  []Transaction
		sells []Transaction
		want  []string // one entry per step
	}{
		{
			name:  "no sales",
			buys:  []Transaction{B(1, 10, 1)},
			sells: nil,
		},
		{
			name:  "no purchases",
			buys:  nil,
			sells: []Transaction{S(1, 10, 1)},
		},
		{
			name:  "queues are sorted",
			buys:  []Transaction{B(2, 5, 2), B(1, 10, 1)},
			sells: []Transaction{S(3, 12, 3)},
			want:  []string{"1->3 x10", "2->3 x2"},
		},
		{
			name:  "write off then match",
			buys:  []Transaction{B(2, 10, 2)},
			sells: []Transaction{S(1, 4, 1), S(3, 4, 3)},
			want:  []string{"write off 1 x4", "2->3 x4"},
		},
		{
			name:  "partially matched lots",
			buys:  []Transaction{state(B(1, 10, 1), 3, 0)},
			sells: []Transaction{state(S(2, 10, 2), 5, 0)},
			want:  []string{"1->2 x3"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMatcher(tt.buys, tt.sells)
			var got []string
			for {
				a, ok := m.next()
				if !ok {
					break
				}
				if a.writeOff() {
					got = append(got, fmt.Sprintf("write off %d x%d", a.sell.ID, a.writtenOff))
				} else {
					got = append(got, fmt.Sprintf("%s x%d", a.match.Key(), a.match.Quantity))
				}
				m.commit(a)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("matcher steps = %q, want %q", got, tt.want)
			}
			if m.state != matcherDone {
				t.Errorf("matcher state = %v, want done", m.state)
			}
			if _, ok := m.next(); ok {
				t.Error("next() on a done matcher returned an allocation")
			}
		})
	}
}

func TestMatcher_DoesNotModifyInput(t *testing.T) {
	buys := []Transaction{B(1, 10, 1)}
	sells := []Transaction{S(2, 4, 2)}
	m := newMatcher(buys, sells)
	a, _ := m.next()
	m.commit(a)
	if buys[0].Remaining != 10 || sells[0].Remaining != 4 {
		t.Errorf("input lots changed to %v and %v", buys[0], sells[0])
	}
}

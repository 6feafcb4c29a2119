package tokens

import (
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/walletboard/internal/domain"
)

func rowsOf(tokens ...domain.TokenViewModel) []Row {
	return GroupByServer(tokens, namer{})
}

func TestDiffIdentical(t *testing.T) {
	rows := rowsOf(token(1, 0, "ETH", 5), token(1, 1, "DAI", 3))
	if c := Diff(rows, rows); !c.IsEmpty() {
		t.Errorf("Diff(x, x) = %+v, want empty", c)
	}
}

func TestDiffInsertDelete(t *testing.T) {
	eth := token(1, 0, "ETH", 5)
	dai := token(1, 1, "DAI", 3)
	matic := token(137, 0, "POL", 2)

	old := rowsOf(eth, dai)    // [1] ETH DAI
	next := rowsOf(eth, matic) // [1] ETH [137] POL
	c := Diff(old, next)

	if !reflect.DeepEqual(c.Deletes, []int{2}) {
		t.Errorf("Deletes = %v, want [2]", c.Deletes)
	}
	if !reflect.DeepEqual(c.Inserts, []int{2, 3}) {
		t.Errorf("Inserts = %v, want [2 3]", c.Inserts)
	}
	if len(c.Moves) != 0 || len(c.Updates) != 0 {
		t.Errorf("unexpected moves/updates: %+v", c)
	}
}

func TestDiffMovesAreMinimal(t *testing.T) {
	a := token(1, 1, "A", 4)
	b := token(1, 2, "B", 3)
	c := token(1, 3, "C", 2)
	d := token(1, 4, "D", 1)

	old := rowsOf(a, b, c, d)  // [1] A B C D
	next := rowsOf(d, a, b, c) // [1] D A B C

	changes := Diff(old, next)
	want := []Move{{From: 4, To: 1}}
	if !reflect.DeepEqual(changes.Moves, want) {
		t.Errorf("Moves = %v, want %v", changes.Moves, want)
	}
}

func TestDiffUpdates(t *testing.T) {
	eth := token(1, 0, "ETH", 5)
	richer := eth
	richer.Balance = decimal.NewFromInt(6)

	c := Diff(rowsOf(eth), rowsOf(richer))
	if !reflect.DeepEqual(c.Updates, []int{1}) {
		t.Errorf("Updates = %v, want [1]", c.Updates)
	}
	if len(c.Deletes)+len(c.Inserts)+len(c.Moves) != 0 {
		t.Errorf("balance change reported as structural: %+v", c)
	}
}

func TestDiffFromEmpty(t *testing.T) {
	rows := rowsOf(token(1, 0, "ETH", 5), token(56, 0, "BNB", 1))
	c := Diff(nil, rows)
	if !reflect.DeepEqual(c.Inserts, []int{0, 1, 2, 3}) {
		t.Errorf("Inserts = %v, want all rows", c.Inserts)
	}
}

func TestDeletionIndexPaths(t *testing.T) {
	// [1] ETH DAI [137] POL [56] BNB
	rows := rowsOf(
		token(1, 0, "ETH", 9),
		token(1, 1, "DAI", 8),
		token(137, 0, "POL", 7),
		token(56, 0, "BNB", 6),
	)

	tests := []struct {
		name  string
		index int
		want  []int
	}{
		{"token with sibling", 1, []int{1}},
		{"last token with sibling above", 2, []int{2}},
		{"lone token in middle block", 4, []int{3, 4}},
		{"lone token at end", 6, []int{5, 6}},
		{"header", 0, nil},
		{"out of range", 7, nil},
		{"negative", -1, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeletionIndexPaths(rows, tt.index); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DeletionIndexPaths(%d) = %v, want %v", tt.index, got, tt.want)
			}
		})
	}
}

func TestLongestIncreasing(t *testing.T) {
	s := []Move{{From: 3}, {From: 0}, {From: 1}, {From: 4}, {From: 2}}
	marked := longestIncreasing(s)
	var kept []int
	for k, ok := range marked {
		if ok {
			kept = append(kept, s[k].From)
		}
	}
	if len(kept) != 3 {
		t.Fatalf("kept %v, want length 3", kept)
	}
	for i := 1; i < len(kept); i++ {
		if kept[i] <= kept[i-1] {
			t.Errorf("kept %v not increasing", kept)
		}
	}
}

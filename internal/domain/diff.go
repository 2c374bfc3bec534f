package domain

import "fmt"

// DiffEvent describes one change to an ordered record collection.
// Indices are interpreted against the collection as it stands after
// every earlier event of the same batch has been applied.
//
// Within one batch, Delete and Move events come first, then Insert, then Update.
type DiffEvent interface {
	fmt.Stringer
	diffEvent()
}

// Insert places Record at Index
type Insert struct {
	Record Record
	Index  int
}

// Delete removes the record at Index
type Delete struct {
	Index int
}

// Update replaces the fields of the record at Index; identity is unchanged
type Update struct {
	Record Record
	Index  int
}

// Move relocates the record at From to To
type Move struct {
	From int
	To   int
}

func (Insert) diffEvent() {}
func (Delete) diffEvent() {}
func (Update) diffEvent() {}
func (Move) diffEvent()   {}

func (e Insert) String() string { return fmt.Sprintf("insert(%s@%d)", e.Record.ID, e.Index) }
func (e Delete) String() string { return fmt.Sprintf("delete(%d)", e.Index) }
func (e Update) String() string { return fmt.Sprintf("update(%s@%d)", e.Record.ID, e.Index) }
func (e Move) String() string   { return fmt.Sprintf("move(%d->%d)", e.From, e.To) }

// ApplyDiff replays events against a copy of snapshot and returns the result.
// It returns ErrOutOfRange if an event addresses an index that does not exist.
func ApplyDiff(snapshot []Record, events []DiffEvent) ([]Record, error) {
	out := make([]Record, len(snapshot), len(snapshot)+len(events))
	copy(out, snapshot)

	for _, ev := range events {
		switch e := ev.(type) {
		case Insert:
			if e.Index < 0 || e.Index > len(out) {
				return nil, OutOfRange(e.Index, len(out)+1)
			}
			out = append(out, Record{})
			copy(out[e.Index+1:], out[e.Index:])
			out[e.Index] = e.Record
		case Delete:
			if e.Index < 0 || e.Index >= len(out) {
				return nil, OutOfRange(e.Index, len(out))
			}
			out = append(out[:e.Index], out[e.Index+1:]...)
		case Update:
			if e.Index < 0 || e.Index >= len(out) {
				return nil, OutOfRange(e.Index, len(out))
			}
			out[e.Index] = e.Record
		case Move:
			if e.From < 0 || e.From >= len(out) || e.To < 0 || e.To >= len(out) {
				return nil, OutOfRange(max(e.From, e.To), len(out))
			}
			rec := out[e.From]
			out = append(out[:e.From], out[e.From+1:]...)
			out = append(out, Record{})
			copy(out[e.To+1:], out[e.To:])
			out[e.To] = rec
		default:
			return nil, fmt.Errorf("unknown diff event %T", ev)
		}
	}

	return out, nil
}

// CountEvents tallies a batch by kind
func CountEvents(events []DiffEvent) (inserts, deletes, updates, moves int) {
	for _, ev := range events {
		switch ev.(type) {
		case Insert:
			inserts++
		case Delete:
			deletes++
		case Update:
			updates++
		case Move:
			moves++
		}
	}
	return
}

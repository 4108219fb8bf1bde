package store

// Batch is the working set of one Update call: every row that existed when
// the transaction started plus any created during it.
type Batch struct {
	rows    map[string]*Standing
	touched []string
	marked  map[string]bool
}

func newBatch(existing []Standing) *Batch {
	b := &Batch{
		rows:   make(map[string]*Standing, len(existing)),
		marked: make(map[string]bool),
	}
	for i := range existing {
		st := existing[i]
		b.rows[st.DriverID] = &st
	}
	return b
}

// GetOrCreate returns the row for driverID, creating it with zero counters
// and the given names when it does not exist yet. created reports which
// case applied. The returned row is written back when the batch commits;
// names of an existing row are left as they are.
func (b *Batch) GetOrCreate(driverID, fullName, shortName string) (st *Standing, created bool) {
	st, ok := b.rows[driverID]
	if !ok {
		st = &Standing{DriverID: driverID, FullName: fullName, ShortName: shortName}
		b.rows[driverID] = st
		created = true
	}
	if !b.marked[driverID] {
		b.marked[driverID] = true
		b.touched = append(b.touched, driverID)
	}
	return st, created
}

// Len returns the number of rows in the batch.
func (b *Batch) Len() int {
	return len(b.rows)
}

// Touched returns the rows returned by GetOrCreate, in first-access order.
func (b *Batch) Touched() []*Standing {
	out := make([]*Standing, 0, len(b.touched))
	for _, id := range b.touched {
		out = append(out, b.rows[id])
	}
	return out
}

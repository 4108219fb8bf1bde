package points

const (
	// FastestLapBonus is added to every driver whose race best lap equals the
	// session best lap.
	FastestLapBonus = 1

	// PoleBonus is added to every driver whose qualifying best lap equals the
	// session best lap.
	PoleBonus = 1
)

// raceTable maps a 1-based finishing position to the points it scores.
// Positions without an entry score nothing.
var raceTable = map[int]int{
	1:  30,
	2:  26,
	3:  23,
	4:  20,
	5:  18,
	6:  16,
	7:  14,
	8:  12,
	9:  10,
	10: 8,
	11: 6,
	12: 5,
	13: 4,
	14: 3,
	15: 2,
}

// ForPosition returns the race points for the 1-based finishing position pos.
// Any position outside the table, including zero and negatives, scores 0.
func ForPosition(pos int) int {
	return raceTable[pos]
}

// Scoring returns the number of positions that score points.
func Scoring() int {
	return len(raceTable)
}

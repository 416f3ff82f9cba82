package market

import "strconv"

// Score is a 1..5 rating. The zero value means "not rated".
type Score uint8

const (
	MinScore Score = 1
	MaxScore Score = 5
)

func NewScore(v int) (Score, error) {
	if v < int(MinScore) || v > int(MaxScore) {
		return 0, ErrInvalidScore
	}
	return Score(v), nil
}

// MeanScore rounds half up and returns 0 for an empty history.
func MeanScore(scores []Score) uint64 {
	if len(scores) == 0 {
		return 0
	}
	var sum uint64
	for _, s := range scores {
		sum += uint64(s)
	}
	n := uint64(len(scores))
	return (sum + n/2) / n
}

// MarshalJSON keeps score lists as JSON arrays instead of base64 bytes.
func (s Score) MarshalJSON() ([]byte, error) {
	return strconv.AppendUint(nil, uint64(s), 10), nil
}

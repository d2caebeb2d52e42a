package match

import "fmt"

// PoolPolicy bounds the confirmed pool size for a team size N to
// [2N-Slack, 2N].
type PoolPolicy struct {
	Slack       int
	AllowUneven bool
}

func (p PoolPolicy) Bounds(teamSize int) (int, int) {
	upper := 2 * teamSize
	lower := max(2, upper-max(0, p.Slack))
	return lower, upper
}

func (p PoolPolicy) Check(teamSize, confirmed int) error {
	lower, upper := p.Bounds(teamSize)
	if confirmed < lower || confirmed > upper {
		return fmt.Errorf("%w: %d confirmed players, need %d..%d for %dv%d",
			ErrPoolSizeOutOfRange, confirmed, lower, upper, teamSize, teamSize)
	}
	if !p.AllowUneven && confirmed%2 != 0 {
		return fmt.Errorf("%w: %d confirmed players cannot be split evenly", ErrPoolSizeOutOfRange, confirmed)
	}
	return nil
}

package runtime

import "math/rand/v2"

// FloorInflator reports at least Floor clients online, plus up to Jitter extra.
// The zero value reports the real count.
type FloorInflator struct {
	Floor  int
	Jitter int
}

func (f FloorInflator) Adjust(online int) int {
	if f.Floor <= 0 && f.Jitter <= 0 {
		return online
	}
	shown := max(online, f.Floor)
	if f.Jitter > 0 {
		shown += rand.IntN(f.Jitter + 1)
	}
	return shown
}

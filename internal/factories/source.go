package factories

import (
	"math/rand"

	"github.com/jaswdr/faker"
)

// Source couples the random stream and the faker fed from the same seed, so
// one seed reproduces a whole population.
type Source struct {
	Rng  *rand.Rand
	Fake faker.Faker
}

func NewSource(seed int64) *Source {
	return &Source{
		Rng:  rand.New(rand.NewSource(seed)),
		Fake: faker.NewWithSeed(rand.NewSource(seed)),
	}
}

// IntBetween returns a value in [min, max].
func (s *Source) IntBetween(min, max int) int {
	if max <= min {
		return min
	}
	return min + s.Rng.Intn(max-min+1)
}

func (s *Source) Chance(p float64) bool {
	return s.Rng.Float64() < p
}

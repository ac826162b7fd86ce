package factories

import "fmt"

type CustomerSegment struct {
	Name    string
	Ratio   float64
	Loyalty float64 // relative chance of being picked for an order
}

var DefaultCustomerSegments = []CustomerSegment{
	{Name: "frequent", Ratio: 0.15, Loyalty: 8},
	{Name: "regular", Ratio: 0.35, Loyalty: 3},
	{Name: "occasional", Ratio: 0.5, Loyalty: 1},
}

type Customer struct {
	Name    string
	Segment string
	Loyalty float64
}

type CustomerFactory struct {
	src  *Source
	used map[string]bool
}

func NewCustomerFactory(src *Source) *CustomerFactory {
	return &CustomerFactory{src: src, used: make(map[string]bool)}
}

// CreateCustomer returns a named customer; names are unique per factory
// because the engine identifies customers by name alone.
func (cf *CustomerFactory) CreateCustomer() Customer {
	seg := cf.assignSegment()
	name := cf.src.Fake.Person().Name()
	for try := 1; cf.used[name]; try++ {
		name = cf.src.Fake.Person().Name()
		if try > 20 {
			name = fmt.Sprintf("%s %d", name, len(cf.used))
		}
	}
	cf.used[name] = true
	return Customer{Name: name, Segment: seg.Name, Loyalty: seg.Loyalty}
}

func (cf *CustomerFactory) assignSegment() CustomerSegment {
	r := cf.src.Rng.Float64()
	var acc float64
	for _, seg := range DefaultCustomerSegments {
		acc += seg.Ratio
		if r < acc {
			return seg
		}
	}
	return DefaultCustomerSegments[len(DefaultCustomerSegments)-1]
}

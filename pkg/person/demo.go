package person

import "time"

// DemoFamily returns a small three-generation family used by the memory
// backend and by tests. Emma Johnson (9) is Mary Smith's (2) sister, so
// the Johnsons appear both as in-laws and as a sibling branch.
func DemoFamily() []Person {
	return []Person{
		{ID: 1, Name: "John Smith", BirthDate: NewDate(1975, time.May, 15), Gender: GenderMale, Location: "New York", FatherID: 3, MotherID: 4, SpouseID: 2},
		{ID: 2, Name: "Mary Smith", BirthDate: NewDate(1978, time.September, 21), Gender: GenderFemale, Location: "New York", FatherID: 5, MotherID: 6, SpouseID: 1},
		{ID: 3, Name: "Robert Smith", BirthDate: NewDate(1945, time.March, 10), Gender: GenderMale, Location: "Chicago", SpouseID: 4},
		{ID: 4, Name: "Jennifer Smith", BirthDate: NewDate(1948, time.December, 3), Gender: GenderFemale, Location: "Chicago", SpouseID: 3},
		{ID: 5, Name: "Michael Johnson", BirthDate: NewDate(1950, time.June, 20), Gender: GenderMale, Location: "Boston", SpouseID: 6},
		{ID: 6, Name: "Sarah Johnson", BirthDate: NewDate(1952, time.August, 15), Gender: GenderFemale, Location: "Boston", SpouseID: 5},
		{ID: 7, Name: "David Smith", BirthDate: NewDate(2005, time.April, 12), Gender: GenderMale, Location: "New York", FatherID: 1, MotherID: 2},
		{ID: 8, Name: "Lisa Smith", BirthDate: NewDate(2008, time.July, 18), Gender: GenderFemale, Location: "New York", FatherID: 1, MotherID: 2},
		{ID: 9, Name: "Emma Johnson", BirthDate: NewDate(1980, time.November, 25), Gender: GenderFemale, Location: "Los Angeles", FatherID: 5, MotherID: 6, SpouseID: 10},
		{ID: 10, Name: "Daniel Wilson", BirthDate: NewDate(1979, time.February, 14), Gender: GenderMale, Location: "Los Angeles", SpouseID: 9},
	}
}

// NewDemoStore returns a MemoryStore seeded with DemoFamily.
func NewDemoStore() *MemoryStore {
	return NewMemoryStore(DemoFamily()...)
}

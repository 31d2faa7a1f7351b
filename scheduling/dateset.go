package scheduling

// DateRange is an inclusive range of ISO dates.
type DateRange struct {
	Start string
	End   string
}

// DateSet holds single dates and inclusive ranges. ISO dates order
// lexically, so range checks compare strings.
type DateSet struct {
	days   map[string]struct{}
	ranges []DateRange
}

func NewDateSet(dates ...string) DateSet {
	s := DateSet{days: make(map[string]struct{}, len(dates))}
	for _, d := range dates {
		s.days[d] = struct{}{}
	}
	return s
}

func (s *DateSet) Add(date string) {
	if s.days == nil {
		s.days = make(map[string]struct{})
	}
	s.days[date] = struct{}{}
}

func (s *DateSet) AddRange(start, end string) {
	if end < start {
		start, end = end, start
	}
	s.ranges = append(s.ranges, DateRange{Start: start, End: end})
}

func (s DateSet) Contains(date string) bool {
	if _, ok := s.days[date]; ok {
		return true
	}
	for _, r := range s.ranges {
		if date >= r.Start && date <= r.End {
			return true
		}
	}
	return false
}

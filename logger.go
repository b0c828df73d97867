package anyrollout

import "log"

// A Logger logs statistics which a Buffer produces while
// preparing training data.
type Logger interface {
	LogReturns(meanReturn float64)
	LogAdvantages(mean, std float64)
}

// StandardLogger is a Logger which uses the log package.
//
// A Field of name <N> controls whether or not the Log<N>
// method does anything.
type StandardLogger struct {
	Returns    bool
	Advantages bool
}

// LogReturns logs the mean GAE return of a cycle.
func (s *StandardLogger) LogReturns(meanReturn float64) {
	if s.Returns {
		log.Printf("returns: mean=%f", meanReturn)
	}
}

// LogAdvantages logs the statistics of the raw advantages
// before normalization.
func (s *StandardLogger) LogAdvantages(mean, std float64) {
	if s.Advantages {
		log.Printf("advantages: mean=%f std=%f", mean, std)
	}
}

package collection

import (
	"math"

	"github.com/desertthunder/watchwave/internal/models"
)

// hoursPerTitle is the flat runtime estimate used for [models.Stats.EstimatedHours].
const hoursPerTitle = 2

// Stats summarises both collections.
func (s *Store) Stats() models.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()

	stats := models.Stats{
		Watched:        len(s.watched),
		Watchlist:      len(s.watchlist),
		EstimatedHours: len(s.watched) * hoursPerTitle,
	}

	var total float64
	for _, t := range s.watched {
		switch t.Kind {
		case models.KindSeries:
			stats.WatchedSeries++
		default:
			stats.WatchedMovies++
		}
		if t.PersonalNote != "" {
			stats.Annotated++
		}
		total += t.VoteAverage
	}

	if stats.Watched > 0 {
		stats.AverageRating = math.Round(total/float64(stats.Watched)*10) / 10
	}
	return stats
}

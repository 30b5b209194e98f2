package services

import (
	"context"

	"github.com/soliton-oj/adminserver/types"
	"golang.org/x/sync/errgroup"
)

const recentQuestionsLimit = 5

// QuestionStatsRepository defines the aggregate queries over questions.
type QuestionStatsRepository interface {
	Count(ctx context.Context) (int, error)
	CountTestCases(ctx context.Context) (int, error)
	CountByDifficulty(ctx context.Context) (map[types.Difficulty]int, error)
	Recent(ctx context.Context, limit int) ([]types.RecentQuestion, error)
}

// AdminCounter counts admin accounts.
type AdminCounter interface {
	Count(ctx context.Context) (int, error)
}

// StatsService builds the dashboard aggregates.
type StatsService struct {
	questions QuestionStatsRepository
	admins    AdminCounter
}

func NewStatsService(questions QuestionStatsRepository, admins AdminCounter) *StatsService {
	return &StatsService{questions: questions, admins: admins}
}

// Stats runs the independent aggregate queries concurrently.
func (s *StatsService) Stats(ctx context.Context) (types.Stats, error) {
	var stats types.Stats
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.questions.Count(ctx)
		stats.TotalQuestions = n
		return err
	})
	g.Go(func() error {
		n, err := s.questions.CountTestCases(ctx)
		stats.TotalTestCases = n
		return err
	})
	g.Go(func() error {
		n, err := s.admins.Count(ctx)
		stats.TotalAdmins = n
		return err
	})
	g.Go(func() error {
		counts, err := s.questions.CountByDifficulty(ctx)
		stats.QuestionsByDifficulty = counts
		return err
	})
	g.Go(func() error {
		recent, err := s.questions.Recent(ctx, recentQuestionsLimit)
		stats.RecentQuestions = recent
		return err
	})

	if err := g.Wait(); err != nil {
		return types.Stats{}, err
	}

	if stats.QuestionsByDifficulty == nil {
		stats.QuestionsByDifficulty = make(map[types.Difficulty]int, len(types.Difficulties))
	}
	for _, d := range types.Difficulties {
		if _, ok := stats.QuestionsByDifficulty[d]; !ok {
			stats.QuestionsByDifficulty[d] = 0
		}
	}
	if stats.RecentQuestions == nil {
		stats.RecentQuestions = []types.RecentQuestion{}
	}
	return stats, nil
}

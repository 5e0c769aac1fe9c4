package services

import (
	"context"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/repository"
)

type ProfileService struct {
	*base
}

// Get returns the stored profile, or an empty one carrying the user id.
func (s *ProfileService) Get(ctx context.Context) (core.Profile, error) {
	p, found, err := s.repos.Profiles.Get(ctx)
	if err != nil {
		return core.Profile{}, err
	}
	if !found {
		return core.Profile{ID: s.userID}, nil
	}
	return p, nil
}

func (s *ProfileService) Update(ctx context.Context, p core.Profile) error {
	p.ID = s.userID
	if err := p.Validate(); err != nil {
		return err
	}
	if err := s.repos.Profiles.Save(ctx, p); err != nil {
		return err
	}
	s.changed(ctx, repository.KeyProfile, log.OpUpdate, p.ID)
	return nil
}

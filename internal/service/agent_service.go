package service

import (
	"context"
	"errors"

	"backoffice/internal/access"
	"backoffice/internal/auth"
	"backoffice/internal/cache"
	"backoffice/internal/domain"
	"backoffice/internal/models"
	"backoffice/internal/repository"
)

// Profile is the signed-in agent with the sections the UI should offer.
type Profile struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Email      string           `json:"email"`
	Role       domain.Role      `json:"role"`
	Department string           `json:"department"`
	Teams      []string         `json:"teams"`
	Sections   []domain.Section `json:"sections"`
}

type AgentService struct {
	agents *repository.AgentRepository
	cache  *cache.Client
}

func NewAgentService(agents *repository.AgentRepository, c *cache.Client) *AgentService {
	return &AgentService{agents: agents, cache: c}
}

// Me builds the profile from the session, enriched with the agent record
// when one exists.
func (svc *AgentService) Me(ctx context.Context, s *auth.Session) (Profile, error) {
	p := Profile{
		ID:         s.AgentID,
		Email:      s.Email,
		Role:       s.Role,
		Department: s.Department,
		Teams:      []string{},
		Sections:   access.SectionsFor(s.Role),
	}
	agent, err := cache.Fetch(ctx, svc.cache, cache.NewKey(agentsEntity, "id", s.AgentID), func(ctx context.Context) (*models.Agent, error) {
		return svc.agents.GetByID(ctx, s.AgentID)
	})
	if errors.Is(err, repository.ErrNotFound) {
		return p, nil
	}
	if err != nil {
		return Profile{}, err
	}
	p.Name = agent.Name
	if p.Email == "" {
		p.Email = agent.Email
	}
	if len(agent.Teams) > 0 {
		p.Teams = agent.Teams
	}
	return p, nil
}

func (svc *AgentService) List(ctx context.Context) ([]models.Agent, error) {
	return cache.Fetch(ctx, svc.cache, cache.NewKey(agentsEntity, "all"), svc.agents.List)
}

package service

import (
	"context"
	"fmt"
	"strings"

	"backoffice/config"
	"backoffice/internal/auth"
	"backoffice/internal/cache"
	"backoffice/internal/domain"
	"backoffice/internal/listing"
	"backoffice/internal/models"
	"backoffice/internal/repository"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const playersEntity = "players"

type PlayerRow struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Team      string `json:"team"`
	CreatedAt string `json:"created_at"`
}

type PlatformUsernameRow struct {
	Platform  string `json:"platform"`
	Username  string `json:"username"`
	UpdatedAt string `json:"updated_at"`
}

// PlayerDetail is the user page: profile, platform accounts and how many
// requests of each type the player has filed.
type PlayerDetail struct {
	PlayerRow
	PlatformUsernames []PlatformUsernameRow        `json:"platform_usernames"`
	RequestCounts     map[domain.RequestType]int64 `json:"request_counts"`
}

type PlayerService struct {
	players *repository.PlayerRepository
	stores  *Stores
	cache   *cache.Client
	format  Formatter
	listing config.ListingConfig
	log     zerolog.Logger
}

func NewPlayerService(players *repository.PlayerRepository, stores *Stores, c *cache.Client, format Formatter, listingCfg config.ListingConfig, log zerolog.Logger) *PlayerService {
	return &PlayerService{
		players: players,
		stores:  stores,
		cache:   c,
		format:  format,
		listing: listingCfg,
		log:     log.With().Str("service", "players").Logger(),
	}
}

func (svc *PlayerService) playerRow(p models.Player) PlayerRow {
	return PlayerRow{
		ID:        p.ID,
		Name:      svc.format.Text(p.Name),
		Username:  svc.format.Text(p.Username),
		Email:     svc.format.Text(p.Email),
		Phone:     svc.format.Text(p.Phone),
		Team:      svc.format.Text(p.Team),
		CreatedAt: svc.format.Time(p.CreatedAt),
	}
}

// List pages the user list.
func (svc *PlayerService) List(ctx context.Context, opts ListOptions) (listing.Page[PlayerRow], error) {
	size := svc.listing.PageSize
	if opts.PageSize > 0 {
		size = opts.PageSize
	}
	if svc.listing.MaxPageSize > 0 && size > svc.listing.MaxPageSize {
		size = svc.listing.MaxPageSize
	}
	q := listing.Query{Team: strings.TrimSpace(opts.Team), Search: strings.TrimSpace(opts.Search), PageSize: size}
	q.Page = listing.ResolvePage(q, opts.Cursor, opts.Page)

	key := cache.NewKey(playersEntity, "list", strings.ToLower(q.Team), strings.ToLower(q.Search), q.Page, q.PageSize)
	page, err := cache.Fetch(ctx, svc.cache, key, func(ctx context.Context) (listing.Page[PlayerRow], error) {
		raw, err := svc.players.List(ctx, q)
		if err != nil {
			return listing.Page[PlayerRow]{}, err
		}
		return listing.MapPage(raw, svc.playerRow), nil
	})
	if err != nil {
		svc.log.Error().Err(err).Msg("list players")
		return listing.Page[PlayerRow]{}, err
	}
	page.Cursor = listing.EncodeCursor(q)
	return page, nil
}

// Get returns the detail of one player. Request counts are independent
// queries run concurrently.
func (svc *PlayerService) Get(ctx context.Context, id uint) (PlayerDetail, error) {
	player, err := cache.Fetch(ctx, svc.cache, cache.NewKey(playersEntity, "id", id), func(ctx context.Context) (*models.Player, error) {
		return svc.players.GetByID(ctx, id)
	})
	if err != nil {
		return PlayerDetail{}, err
	}

	detail := PlayerDetail{
		PlayerRow:         svc.playerRow(*player),
		PlatformUsernames: make([]PlatformUsernameRow, 0, len(player.PlatformUsernames)),
		RequestCounts:     make(map[domain.RequestType]int64, len(domain.RequestTypes)),
	}
	for _, pu := range player.PlatformUsernames {
		detail.PlatformUsernames = append(detail.PlatformUsernames, PlatformUsernameRow{
			Platform:  pu.Platform,
			Username:  svc.format.Text(pu.Username),
			UpdatedAt: svc.format.Time(pu.UpdatedAt),
		})
	}

	counts := make([]int64, len(domain.RequestTypes))
	g, gctx := errgroup.WithContext(ctx)
	for i, rt := range domain.RequestTypes {
		st, _ := svc.stores.For(rt)
		g.Go(func() error {
			n, err := cache.Fetch(gctx, svc.cache, cache.NewKey(st.Table(), "player", id), func(ctx context.Context) (int64, error) {
				return st.CountByPlayer(ctx, id)
			})
			counts[i] = n
			return err
		})
	}
	if err := g.Wait(); err != nil {
		svc.log.Error().Err(err).Uint("player_id", id).Msg("count player requests")
		return PlayerDetail{}, err
	}
	for i, rt := range domain.RequestTypes {
		detail.RequestCounts[rt] = counts[i]
	}
	return detail, nil
}

// UpsertPlatformUsername sets the player's account name on a platform.
func (svc *PlayerService) UpsertPlatformUsername(ctx context.Context, s *auth.Session, playerID uint, platform, username string) (PlatformUsernameRow, error) {
	platform = strings.ToLower(strings.TrimSpace(platform))
	username = strings.TrimSpace(username)
	if platform == "" || username == "" {
		return PlatformUsernameRow{}, fmt.Errorf("%w: platform and username are required", ErrInvalidInput)
	}
	pu, err := svc.players.UpsertPlatformUsername(ctx, playerID, platform, username)
	if err != nil {
		svc.log.Error().Err(err).Uint("player_id", playerID).Str("platform", platform).Msg("upsert platform username")
		return PlatformUsernameRow{}, err
	}
	svc.cache.Invalidate(playersEntity)
	svc.log.Info().Uint("player_id", playerID).Str("platform", platform).Str("agent_id", s.AgentID).Msg("platform username saved")
	return PlatformUsernameRow{
		Platform:  pu.Platform,
		Username:  pu.Username,
		UpdatedAt: svc.format.Time(pu.UpdatedAt),
	}, nil
}

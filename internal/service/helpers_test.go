package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"backoffice/config"
	"backoffice/internal/auth"
	"backoffice/internal/cache"
	"backoffice/internal/domain"
	"backoffice/internal/models"
	"backoffice/internal/pkg/lock"
	"backoffice/internal/repository"
	"backoffice/pkg/cloudinary"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dec = decimal.RequireFromString

type env struct {
	db        *gorm.DB
	cache     *cache.Client
	stores    *Stores
	requests  *RequestService
	recharge  *RechargeService
	players   *PlayerService
	chat      *ChatService
	dashboard *DashboardService
	agents    *AgentService
	hub       *fakeHub
	cloud     *fakeCloud
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))

	log := zerolog.Nop()
	c := cache.New(cache.Options{StaleTime: func(string) time.Duration { return time.Minute }, ReadRetries: 1}, log)
	format := NewFormatter(config.DisplayConfig{Timezone: "UTC", CurrencySymbol: "$"})
	listingCfg := config.ListingConfig{PageSize: 10, RechargePageSize: 50, MaxPageSize: 100}
	stores := NewStores(db)
	agents := repository.NewAgentRepository(db)
	requests := NewRequestService(
		stores,
		agents,
		repository.NewCompanyTagRepository(db),
		repository.NewLedgerRepository(db, lock.New()),
		repository.NewAuditLogRepository(db),
		c, format, listingCfg, log,
	)
	e := &env{db: db, cache: c, stores: stores, requests: requests, hub: &fakeHub{}, cloud: &fakeCloud{}}
	e.recharge = NewRechargeService(requests, stores, e.cloud, "backoffice", log)
	e.players = NewPlayerService(repository.NewPlayerRepository(db), stores, c, format, listingCfg, log)
	e.chat = NewChatService(repository.NewChatRepository(db), c, e.hub, format, 0, log)
	e.dashboard = NewDashboardService(stores, c, log)
	e.agents = NewAgentService(agents, c)
	return e
}

func session(role domain.Role) *auth.Session {
	return &auth.Session{AgentID: "agent-" + string(role), Role: role}
}

func (e *env) player(t *testing.T, name, team string) models.Player {
	t.Helper()
	p := models.Player{Name: name, Username: name + "_" + uuid.NewString()[:6], Team: team}
	require.NoError(t, e.db.Create(&p).Error)
	return p
}

func (e *env) rechargeRow(t *testing.T, p models.Player, status, amount string) models.RechargeRequest {
	t.Helper()
	r := models.RechargeRequest{PlayerID: p.ID, Team: p.Team, Amount: dec(amount), Platform: "firekirin", PaymentMethod: "cashapp", ProcessStatus: status}
	require.NoError(t, e.db.Create(&r).Error)
	return r
}

func (e *env) redeemRow(t *testing.T, p models.Player, status, total string) models.RedeemRequest {
	t.Helper()
	r := models.RedeemRequest{
		PlayerID: p.ID, Team: p.Team, Amount: dec(total),
		Total: dec(total), Paid: decimal.Zero, Hold: decimal.Zero, Available: dec(total),
		ProcessStatus: status,
	}
	require.NoError(t, e.db.Create(&r).Error)
	return r
}

func (e *env) tag(t *testing.T, name string, active bool) models.CompanyTag {
	t.Helper()
	tag := models.CompanyTag{Name: name, Active: true}
	require.NoError(t, e.db.Create(&tag).Error)
	if !active {
		require.NoError(t, e.db.Model(&tag).Update("active", false).Error)
	}
	return tag
}

type fakeHub struct {
	mu      sync.Mutex
	room    []ChatEvent
	global  []ChatEvent
	watched []uint
}

func (h *fakeHub) WatchedRooms() []uint {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]uint(nil), h.watched...)
}

func (h *fakeHub) BroadcastToRoom(roomID uint, payload interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.room = append(h.room, payload.(ChatEvent))
}

func (h *fakeHub) BroadcastAll(payload interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.global = append(h.global, payload.(ChatEvent))
}

type fakeCloud struct {
	mu       sync.Mutex
	uploaded []string
	deleted  []string
	failOn   int // 1-based upload that fails; 0 never
}

func (f *fakeCloud) UploadImage(_ context.Context, file io.Reader, folder, publicID string) (cloudinary.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := io.Copy(io.Discard, file); err != nil {
		return cloudinary.UploadResult{}, err
	}
	if f.failOn > 0 && len(f.uploaded)+1 == f.failOn {
		return cloudinary.UploadResult{}, errors.New("upload rejected")
	}
	id := folder + "/" + publicID
	f.uploaded = append(f.uploaded, id)
	return cloudinary.UploadResult{URL: "https://cdn.test/" + id + ".png", PublicID: id}, nil
}

func (f *fakeCloud) Delete(_ context.Context, publicID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, publicID)
	return nil
}

func attachments(n int) []Attachment {
	out := make([]Attachment, n)
	for i := range out {
		name := fmt.Sprintf("shot%d.png", i)
		out[i] = Attachment{Filename: name, Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader([]byte("png"))), nil
		}}
	}
	return out
}

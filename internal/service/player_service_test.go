package service

import (
	"context"
	"fmt"
	"testing"

	"backoffice/internal/domain"
	"backoffice/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayerService_Get(t *testing.T) {
	e := newEnv(t)
	p := e.player(t, "sam", "ENT1")
	e.rechargeRow(t, p, "0", "5")
	e.rechargeRow(t, p, "4", "5")
	e.redeemRow(t, p, "1", "5")
	require.NoError(t, e.db.Create(&models.NewAccountRequest{PlayerID: p.ID, Platform: "orion", ProcessStatus: "0"}).Error)
	ctx := context.Background()

	d, err := e.players.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "sam", d.Name)
	assert.Equal(t, "-", d.Email)
	assert.Empty(t, d.PlatformUsernames)
	assert.EqualValues(t, 2, d.RequestCounts[domain.RequestRecharge])
	assert.EqualValues(t, 1, d.RequestCounts[domain.RequestRedeem])
	assert.EqualValues(t, 0, d.RequestCounts[domain.RequestTransfer])
	assert.EqualValues(t, 1, d.RequestCounts[domain.RequestNewAccount])

	_, err = e.players.Get(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPlayerService_UpsertPlatformUsername(t *testing.T) {
	e := newEnv(t)
	p := e.player(t, "tess", "ENT1")
	ctx := context.Background()
	s := session(domain.RoleSupport)

	_, err := e.players.Get(ctx, p.ID)
	require.NoError(t, err)

	_, err = e.players.UpsertPlatformUsername(ctx, s, p.ID, " FireKirin ", "tess01")
	require.NoError(t, err)
	row, err := e.players.UpsertPlatformUsername(ctx, s, p.ID, "firekirin", "tess02")
	require.NoError(t, err)
	assert.Equal(t, "firekirin", row.Platform)
	assert.Equal(t, "tess02", row.Username)

	d, err := e.players.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, d.PlatformUsernames, 1)
	assert.Equal(t, "tess02", d.PlatformUsernames[0].Username)

	_, err = e.players.UpsertPlatformUsername(ctx, s, p.ID, "", "x")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPlayerService_List(t *testing.T) {
	e := newEnv(t)
	for _, n := range []string{"uma", "ugo", "vic"} {
		e.player(t, n, "ENT1")
	}
	e.player(t, "val", "ENT2")
	ctx := context.Background()

	page, err := e.players.List(ctx, ListOptions{})
	require.NoError(t, err)
	assert.EqualValues(t, 4, page.Total)

	page, err = e.players.List(ctx, ListOptions{Team: "ent1", Search: "u"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	assert.NotEmpty(t, page.Cursor)
}

func TestPlayerService_ListPagesWithCursor(t *testing.T) {
	e := newEnv(t)
	for i := 0; i < 12; i++ {
		e.player(t, fmt.Sprintf("wade%02d", i), "ENT1")
	}
	ctx := context.Background()

	first, err := e.players.List(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, first.Items, 10)

	next, err := e.players.List(ctx, ListOptions{Cursor: first.Cursor, Page: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, next.Page)
	assert.Len(t, next.Items, 2)

	searched, err := e.players.List(ctx, ListOptions{Cursor: next.Cursor, Page: 1, Search: "wade0"})
	require.NoError(t, err)
	assert.Equal(t, 0, searched.Page)
	assert.EqualValues(t, 10, searched.Total)
}

package service

import (
	"context"
	"testing"

	"backoffice/internal/domain"
	"backoffice/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countOf(d Dashboard, rt domain.RequestType, b domain.Bucket) int64 {
	for _, c := range d.Counts {
		if c.Type == rt && c.Bucket == b {
			return c.Count
		}
	}
	return -1
}

func TestDashboardService_Summary(t *testing.T) {
	e := newEnv(t)
	p := e.player(t, "wade", "ENT1")
	e.rechargeRow(t, p, "0", "1")
	e.rechargeRow(t, p, "1", "1")
	e.rechargeRow(t, p, "3", "1")
	e.redeemRow(t, p, "5", "1")
	ctx := context.Background()

	d, err := e.dashboard.Summary(ctx, session(domain.RoleFinance), domain.SectionFinance)
	require.NoError(t, err)
	assert.Equal(t, []domain.Section{domain.SectionFinance}, d.Sections)
	assert.Len(t, d.Counts, 6)
	assert.EqualValues(t, 2, countOf(d, domain.RequestRecharge, domain.BucketPending))
	assert.EqualValues(t, 1, countOf(d, domain.RequestRecharge, domain.BucketLive))
	assert.EqualValues(t, 1, countOf(d, domain.RequestRedeem, domain.BucketLive))
	assert.EqualValues(t, -1, countOf(d, domain.RequestTransfer, domain.BucketPending))

	d, err = e.dashboard.Summary(ctx, session(domain.RoleSupport), domain.SectionSupport)
	require.NoError(t, err)
	assert.Len(t, d.Counts, 12)

	_, err = e.dashboard.Summary(ctx, session(domain.RoleSupport), domain.SectionFinance)
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestAgentService_Me(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	p, err := e.agents.Me(ctx, session(domain.RoleVerification))
	require.NoError(t, err)
	assert.Equal(t, []domain.Section{domain.SectionVerification}, p.Sections)
	assert.Empty(t, p.Teams)

	require.NoError(t, e.db.Create(&models.Agent{ID: "agent-operation", Name: "Olga", Email: "olga@x.io", Role: "operation", Teams: models.StringList{"ENT1", "ENT3"}}).Error)
	p, err = e.agents.Me(ctx, session(domain.RoleOperation))
	require.NoError(t, err)
	assert.Equal(t, "Olga", p.Name)
	assert.Equal(t, "olga@x.io", p.Email)
	assert.Equal(t, []string{"ENT1", "ENT3"}, p.Teams)
	assert.ElementsMatch(t, []domain.Section{domain.SectionSupport, domain.SectionOperation}, p.Sections)
}

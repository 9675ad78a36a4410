package audit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"profile-sync/core/eventbus"
	"profile-sync/core/telemetry"
	"profile-sync/feature/profile/audit"
	"profile-sync/feature/profile/mirror"
	"profile-sync/feature/profile/models"
	"profile-sync/feature/profile/store"
	"profile-sync/feature/profile/store/mocks"
	"profile-sync/feature/profile/store/storetest"
	"profile-sync/feature/profile/sync"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// seedPopulation builds five users where #3 has no profile and #5 has a
// mirrored email mismatch.
func seedPopulation(mem *storetest.Memory) {
	now := time.Now()
	for i := uint(1); i <= 5; i++ {
		mem.SeedUser(models.User{ID: i, Email: email(i), Grade: "10", UpdatedAt: now})
		if i == 3 {
			continue
		}
		p := models.UserProfile{UserID: i, Email: email(i), Grade: "10"}
		if i == 5 {
			p.Email = "drifted@quizhub.io"
		}
		mem.SeedProfile(p)
	}
}

func email(i uint) string {
	return string(rune('a'+i-1)) + "@quizhub.io"
}

func newAuditor(t *testing.T, cfg audit.Config, mem *storetest.Memory) *audit.Auditor {
	t.Helper()
	bus := eventbus.New(eventbus.Config{Workers: 1, QueueSize: 8}, zap.NewNop())
	t.Cleanup(bus.Close)
	engine := sync.NewEngine(mem.Users(), mem.Profiles(), mem.Accounts(), bus, zap.NewNop(), telemetry.Nop())
	return audit.NewAuditor(cfg, mem.Users(), mem.Profiles(), engine, zap.NewNop(), telemetry.Nop())
}

func TestAuditBounded_Disabled(t *testing.T) {
	mem := storetest.NewMemory()
	seedPopulation(mem)
	a := newAuditor(t, audit.Config{Enabled: false}, mem)

	report, err := a.AuditBounded(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Scanned)
	assert.False(t, report.HasIssues())
	// The missing profile stayed missing.
	_, ok := mem.Profile(3)
	assert.False(t, ok)
}

func TestAuditBounded_HealsMissingOnly(t *testing.T) {
	mem := storetest.NewMemory()
	seedPopulation(mem)
	cfg := audit.Config{Enabled: true, WindowMinutes: 60, MaxScan: 100, BatchSize: 2}
	a := newAuditor(t, cfg, mem)

	report, err := a.AuditBounded(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, report.Scanned)
	require.Equal(t, 2, report.Count())

	types := map[audit.IssueType]uint{}
	for _, issue := range report.Issues {
		types[issue.Type] = issue.UserID
	}
	assert.Equal(t, uint(3), types[audit.MissingProfile])
	assert.Equal(t, uint(5), types[audit.EmailMismatch])

	// The missing profile was recreated with mirrored values.
	p, ok := mem.Profile(3)
	require.True(t, ok)
	assert.Equal(t, email(3), p.Email)

	// The mismatch was reported but NOT healed.
	p5, _ := mem.Profile(5)
	assert.Equal(t, "drifted@quizhub.io", p5.Email)
}

func TestAuditBounded_RespectsWindowAndCap(t *testing.T) {
	mem := storetest.NewMemory()
	old := time.Now().Add(-3 * time.Hour)
	mem.SeedUser(models.User{ID: 1, Email: "a@quizhub.io", UpdatedAt: old})
	mem.SeedUser(models.User{ID: 2, Email: "b@quizhub.io", UpdatedAt: time.Now()})
	cfg := audit.Config{Enabled: true, WindowMinutes: 60, MaxScan: 100, BatchSize: 50}
	a := newAuditor(t, cfg, mem)

	report, err := a.AuditBounded(context.Background())
	require.NoError(t, err)
	// Only the recently mutated user is examined.
	assert.Equal(t, 1, report.Scanned)
	require.Equal(t, 1, report.Count())
	assert.Equal(t, uint(2), report.Issues[0].UserID)
}

func TestAuditFull_ReportOnly(t *testing.T) {
	mem := storetest.NewMemory()
	seedPopulation(mem)
	a := newAuditor(t, audit.Config{Enabled: false, BatchSize: 2}, mem)

	// Full audit is not gated by the enabled flag.
	report, err := a.AuditFull(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, report.Scanned)
	assert.Equal(t, 2, report.Count())

	// Report only: nothing was repaired.
	_, ok := mem.Profile(3)
	assert.False(t, ok)
}

func TestAuditOne(t *testing.T) {
	mem := storetest.NewMemory()
	seedPopulation(mem)
	a := newAuditor(t, audit.Config{}, mem)
	ctx := context.Background()

	report, err := a.AuditOne(ctx, 1)
	require.NoError(t, err)
	assert.False(t, report.HasIssues())

	report, err = a.AuditOne(ctx, 5)
	require.NoError(t, err)
	require.Equal(t, 1, report.Count())
	issue := report.Issues[0]
	assert.Equal(t, audit.EmailMismatch, issue.Type)
	assert.Equal(t, mirror.FieldEmail, issue.Field)
	assert.Equal(t, email(5), issue.UserValue)
	assert.Equal(t, "drifted@quizhub.io", issue.ProfileValue)

	_, err = a.AuditOne(ctx, 404)
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestAuditOne_ProfileVanishedBetweenChecks(t *testing.T) {
	users := new(mocks.UserStore)
	profiles := new(mocks.ProfileStore)
	users.On("Find", mock.Anything, uint(1)).Return(&models.User{ID: 1, Email: "a@quizhub.io"}, nil)
	profiles.On("Exists", mock.Anything, uint(1)).Return(true, nil)
	profiles.On("Find", mock.Anything, uint(1)).Return(nil, store.ErrProfileNotFound)

	a := audit.NewAuditor(audit.Config{}, users, profiles, nil, zap.NewNop(), telemetry.Nop())
	report, err := a.AuditOne(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 1, report.Count())
	assert.Equal(t, audit.ProfileNotFound, report.Issues[0].Type)
}

func TestAuditOne_StoreFailureBecomesSystemError(t *testing.T) {
	users := new(mocks.UserStore)
	profiles := new(mocks.ProfileStore)
	users.On("Find", mock.Anything, uint(1)).Return(&models.User{ID: 1}, nil)
	profiles.On("Exists", mock.Anything, uint(1)).Return(false, errors.New("connection reset"))

	a := audit.NewAuditor(audit.Config{}, users, profiles, nil, zap.NewNop(), telemetry.Nop())
	report, err := a.AuditOne(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 1, report.Count())
	assert.Equal(t, audit.SystemError, report.Issues[0].Type)
	assert.Contains(t, report.Issues[0].Error, "connection reset")
}

func TestValidateAndSyncConsistency(t *testing.T) {
	mem := storetest.NewMemory()
	seedPopulation(mem)
	a := newAuditor(t, audit.Config{}, mem)
	ctx := context.Background()

	// Mismatch: user value wins, one write.
	changed, err := a.ValidateAndSyncConsistency(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{mirror.FieldEmail}, changed)
	p, _ := mem.Profile(5)
	assert.Equal(t, email(5), p.Email)

	// Already consistent: no write at all.
	saves := mem.ProfileSaves
	changed, err = a.ValidateAndSyncConsistency(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, changed)
	assert.Equal(t, saves, mem.ProfileSaves)

	// Missing profile falls back to full creation.
	changed, err = a.ValidateAndSyncConsistency(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, mirror.Fields(), changed)
	_, ok := mem.Profile(3)
	assert.True(t, ok)

	_, err = a.ValidateAndSyncConsistency(ctx, 404)
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestValidateAndSyncConsistency_SaveFailurePropagates(t *testing.T) {
	mem := storetest.NewMemory()
	seedPopulation(mem)
	mem.FailProfileSave = errors.New("disk full")
	a := newAuditor(t, audit.Config{}, mem)

	_, err := a.ValidateAndSyncConsistency(context.Background(), 5)
	assert.ErrorContains(t, err, "disk full")
}

func TestCheckIntegrity(t *testing.T) {
	mem := storetest.NewMemory()
	seedPopulation(mem)
	a := newAuditor(t, audit.Config{BatchSize: 2}, mem)

	res, err := a.CheckIntegrity(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, res.TotalScanned)
	// The missing profile and the drifted email both count.
	assert.Equal(t, 2, res.MismatchCount)
}

func TestFindOrphanProfiles(t *testing.T) {
	mem := storetest.NewMemory()
	seedPopulation(mem)
	mem.DeleteUser(2)
	a := newAuditor(t, audit.Config{}, mem)

	ids, err := a.FindOrphanProfiles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uint{2}, ids)

	// Detection only: the orphan row survives.
	_, ok := mem.Profile(2)
	assert.True(t, ok)
}

func TestBulkSync(t *testing.T) {
	mem := storetest.NewMemory()
	seedPopulation(mem)
	a := newAuditor(t, audit.Config{BatchSize: 2}, mem)

	res, err := a.BulkSync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, res.Attempted)
	assert.Equal(t, 5, res.Succeeded)
	assert.Equal(t, 0, res.Failed)

	// Everything converged, including the drifted mirror and the missing row.
	for i := uint(1); i <= 5; i++ {
		p, ok := mem.Profile(i)
		require.True(t, ok)
		assert.Equal(t, email(i), p.Email)
	}
}

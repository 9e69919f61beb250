package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/arnold/jcihub-api/internal/models"
	"github.com/arnold/jcihub-api/internal/policy"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PointsService owns the points ledger and the cached member totals
// derived from it.
type PointsService struct {
	Deps
}

func NewPointsService(d Deps) *PointsService {
	return &PointsService{Deps: d.withDefaults()}
}

// Grant records delta against the member and moves the cached total by the
// same amount in one transaction. A zero delta records nothing and returns
// a nil entry. Manual grants require an executive actor; activity and
// objective grants are system rewards and skip the role check.
func (s *PointsService) Grant(ctx context.Context, actor policy.Actor, memberID uuid.UUID, delta int, description string, source models.SourceType) (*models.PointsHistoryEntry, error) {
	if !source.Valid() {
		return nil, invalid("unknown source type %q", source)
	}
	if source == models.SourceManual {
		if err := s.Policy.Evaluate(actor, policy.GrantManualPoints, memberID).Err(); err != nil {
			return nil, err
		}
	}
	if delta == 0 {
		return nil, nil
	}

	var entry *models.PointsHistoryEntry
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		entry, err = s.grantTx(tx, memberID, delta, description, source)
		return err
	})
	if err != nil {
		pointsGrantFailures.WithLabelValues(string(source)).Inc()
		s.Log.Error("points grant failed",
			zap.Stringer("member_id", memberID),
			zap.Int("delta", delta),
			zap.String("source", string(source)),
			zap.Error(err))
		return nil, err
	}

	s.afterGrant(ctx, entry)
	return entry, nil
}

// grantTx writes one ledger row and applies the delta to the cached total
// inside the caller's transaction. The total is moved with a relative
// update so concurrent grants serialize on the member row.
func (s *PointsService) grantTx(tx *gorm.DB, memberID uuid.UUID, delta int, description string, source models.SourceType) (*models.PointsHistoryEntry, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, invalid("description is required")
	}

	res := tx.Model(&models.Member{}).
		Where("id = ?", memberID).
		Update("points", gorm.Expr("points + ?", delta))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: member %s", ErrNotFound, memberID)
	}

	entry := &models.PointsHistoryEntry{
		MemberID:    memberID,
		Points:      delta,
		SourceType:  source,
		Description: description,
		CreatedAt:   s.Now().UTC(),
	}
	if err := tx.Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// afterGrant runs once the grant has committed.
func (s *PointsService) afterGrant(ctx context.Context, entry *models.PointsHistoryEntry) {
	if entry == nil {
		return
	}
	pointsGranted.WithLabelValues(string(entry.SourceType)).Inc()

	var member models.Member
	s.DB.WithContext(ctx).Select("points").First(&member, "id = ?", entry.MemberID)
	total := member.Points

	s.Log.Info("points granted",
		zap.Stringer("member_id", entry.MemberID),
		zap.Int("delta", entry.Points),
		zap.String("source", string(entry.SourceType)),
		zap.Int("total", total))

	s.Notifier.Notify(ctx, entry.MemberID, models.NotificationPointsGranted,
		"Points updated",
		fmt.Sprintf("%+d points: %s", entry.Points, entry.Description),
		map[string]interface{}{"entryId": entry.ID.String(), "source": string(entry.SourceType)},
	)

	s.publish(Event{
		Type:     EventPointsGranted,
		MemberID: entry.MemberID.String(),
		Data: map[string]interface{}{
			"points": entry.Points,
			"source": entry.SourceType,
			"total":  total,
		},
	})
}

// History returns every ledger entry of the member, newest first.
func (s *PointsService) History(ctx context.Context, memberID uuid.UUID) ([]models.PointsHistoryEntry, error) {
	if err := s.requireMember(ctx, memberID); err != nil {
		return nil, err
	}
	entries := []models.PointsHistoryEntry{}
	err := s.DB.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("created_at DESC").
		Find(&entries).Error
	return entries, err
}

func (s *PointsService) windowScope(w models.Window) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if w == models.WindowAll {
			return db
		}
		now := s.Now()
		return db.Where("created_at >= ? AND created_at <= ?", w.Start(now).UTC(), now.UTC())
	}
}

// Aggregate sums the member's ledger entries inside the window.
func (s *PointsService) Aggregate(ctx context.Context, memberID uuid.UUID, w models.Window) (int, error) {
	if _, ok := models.ParseWindow(string(w)); !ok {
		return 0, invalid("unknown window %q", w)
	}
	var total int64
	err := s.DB.WithContext(ctx).
		Model(&models.PointsHistoryEntry{}).
		Scopes(s.windowScope(w)).
		Where("member_id = ?", memberID).
		Select("COALESCE(SUM(points), 0)").
		Row().Scan(&total)
	return int(total), err
}

// Aggregates computes every window for the member.
func (s *PointsService) Aggregates(ctx context.Context, memberID uuid.UUID) (map[models.Window]int, error) {
	out := make(map[models.Window]int, len(models.Windows))
	for _, w := range models.Windows {
		v, err := s.Aggregate(ctx, memberID, w)
		if err != nil {
			return nil, err
		}
		out[w] = v
	}
	return out, nil
}

// Leaderboard ranks members by points gained inside the window. Members
// whose role is listed in excludeRoles are left out. Equal totals keep the
// order the database returned them in.
func (s *PointsService) Leaderboard(ctx context.Context, w models.Window, excludeRoles []string, limit int) ([]models.LeaderboardEntry, error) {
	if _, ok := models.ParseWindow(string(w)); !ok {
		return nil, invalid("unknown window %q", w)
	}
	if limit < 1 {
		limit = 10
	}

	type row struct {
		MemberID uuid.UUID
		Total    int
	}
	var rows []row
	if err := s.DB.WithContext(ctx).
		Model(&models.PointsHistoryEntry{}).
		Scopes(s.windowScope(w)).
		Select("member_id, SUM(points) AS total").
		Group("member_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []models.LeaderboardEntry{}, nil
	}

	ids := make([]uuid.UUID, len(rows))
	for i, r := range rows {
		ids[i] = r.MemberID
	}
	var members []models.Member
	if err := s.DB.WithContext(ctx).Where("id IN ?", ids).Find(&members).Error; err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*models.Member, len(members))
	for i := range members {
		byID[members[i].ID] = &members[i]
	}

	excluded := make(map[models.Role]bool, len(excludeRoles))
	for _, r := range excludeRoles {
		excluded[models.Role(strings.ToLower(strings.TrimSpace(r)))] = true
	}

	out := make([]models.LeaderboardEntry, 0, len(rows))
	for _, r := range rows {
		m, ok := byID[r.MemberID]
		if !ok || excluded[m.Role] {
			continue
		}
		out = append(out, models.LeaderboardEntry{Member: m.Summary(), TotalGained: r.Total})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalGained > out[j].TotalGained
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Rank is one plus the number of members holding strictly more points.
// Members with equal totals share a rank.
func (s *PointsService) Rank(ctx context.Context, points int) (int, error) {
	var above int64
	if err := s.DB.WithContext(ctx).
		Model(&models.Member{}).
		Where("points > ?", points).
		Count(&above).Error; err != nil {
		return 0, err
	}
	return int(above) + 1, nil
}

func (s *PointsService) RankOf(ctx context.Context, memberID uuid.UUID) (int, error) {
	var member models.Member
	if err := s.DB.WithContext(ctx).First(&member, "id = ?", memberID).Error; err != nil {
		return 0, notFound(err, "member")
	}
	return s.Rank(ctx, member.Points)
}

// Summary bundles the cached total, rank, level and every window aggregate.
func (s *PointsService) Summary(ctx context.Context, memberID uuid.UUID) (*models.PointsSummary, error) {
	var member models.Member
	if err := s.DB.WithContext(ctx).First(&member, "id = ?", memberID).Error; err != nil {
		return nil, notFound(err, "member")
	}
	rank, err := s.Rank(ctx, member.Points)
	if err != nil {
		return nil, err
	}
	aggs, err := s.Aggregates(ctx, memberID)
	if err != nil {
		return nil, err
	}
	return &models.PointsSummary{
		MemberID:   member.ID,
		Points:     member.Points,
		Rank:       rank,
		Level:      member.Level(),
		Aggregates: aggs,
	}, nil
}

// ReconcileMember is the executive-triggered form of Reconcile.
func (s *PointsService) ReconcileMember(ctx context.Context, actor policy.Actor, memberID uuid.UUID) (*models.ReconcileResult, error) {
	if err := s.Policy.Evaluate(actor, policy.ReconcilePoints, memberID).Err(); err != nil {
		return nil, err
	}
	return s.Reconcile(ctx, memberID)
}

// Reconcile rewrites the member's cached total from the ledger sum when
// the two disagree.
func (s *PointsService) Reconcile(ctx context.Context, memberID uuid.UUID) (*models.ReconcileResult, error) {
	var result models.ReconcileResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var member models.Member
		if err := tx.First(&member, "id = ?", memberID).Error; err != nil {
			return notFound(err, "member")
		}
		var sum int64
		if err := tx.Model(&models.PointsHistoryEntry{}).
			Where("member_id = ?", memberID).
			Select("COALESCE(SUM(points), 0)").
			Row().Scan(&sum); err != nil {
			return err
		}

		result = models.ReconcileResult{MemberID: memberID, Cached: member.Points, Ledger: int(sum)}
		if member.Points == int(sum) {
			return nil
		}
		if err := tx.Model(&models.Member{}).Where("id = ?", memberID).Update("points", sum).Error; err != nil {
			return err
		}
		result.Repaired = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Repaired {
		ledgerDriftRepaired.Inc()
		s.Log.Warn("points cache drift repaired",
			zap.Stringer("member_id", memberID),
			zap.Int("cached", result.Cached),
			zap.Int("ledger", result.Ledger))
	}
	return &result, nil
}

// ReconcileAll checks every member and returns the ones that were repaired.
func (s *PointsService) ReconcileAll(ctx context.Context) ([]models.ReconcileResult, error) {
	var ids []uuid.UUID
	if err := s.DB.WithContext(ctx).Model(&models.Member{}).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	repaired := []models.ReconcileResult{}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return repaired, err
		}
		res, err := s.Reconcile(ctx, id)
		if err != nil {
			return repaired, err
		}
		if res.Repaired {
			repaired = append(repaired, *res)
		}
	}
	return repaired, nil
}

func (s *PointsService) requireMember(ctx context.Context, memberID uuid.UUID) error {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.Member{}).Where("id = ?", memberID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%w: member %s", ErrNotFound, memberID)
	}
	return nil
}

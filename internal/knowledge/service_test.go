package knowledge

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anketa/internal/assemble"
	"anketa/internal/observability"
	"anketa/internal/profile"
)

const serviceIndex = `categories:
  restaurant:
    file: _base/restaurant.yaml
    name: Ресторан
    aliases: [кафе, бар]
  beauty:
    file: _base/beauty.yaml
    name: Салон красоты
    aliases: [салон, маникюр]
`

const serviceRestaurant = `id: restaurant
name: Ресторан
pain_points:
  - description: Потерянные брони
    severity: high
recommended_functions:
  - name: Онлайн-бронирование
    priority: high
metrics:
  avg_score: 1.0
  runs: 1
`

const serviceBeauty = `id: beauty
name: Салон красоты
pain_points:
  - description: Клиенты не приходят
    severity: high
`

const serviceTemplate = `sections:
  discovery:
    header: Контекст отрасли
    blocks:
      - key: pain_points
        label: Боли
        format: severity_bullets
`

type fixture struct {
	dir      string
	template string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "categories")
	files := map[string]string{
		"_index.yaml":           serviceIndex,
		"_base/restaurant.yaml": serviceRestaurant,
		"_base/beauty.yaml":     serviceBeauty,
	}
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	template := filepath.Join(root, "templates", "interview_phases.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(template), 0o755))
	require.NoError(t, os.WriteFile(template, []byte(serviceTemplate), 0o644))
	return fixture{dir: dir, template: template}
}

func newTestService(t *testing.T) (*Service, *observability.Metrics) {
	t.Helper()
	fx := newFixture(t)
	metrics := observability.NewMetrics()
	service, err := New(Config{
		CategoriesDir: fx.dir,
		TemplatePath:  fx.template,
		Metrics:       metrics,
	})
	require.NoError(t, err)
	return service, metrics
}

func TestNewFailsOnMissingIndex(t *testing.T) {
	fx := newFixture(t)
	require.NoError(t, os.Remove(filepath.Join(fx.dir, "_index.yaml")))
	_, err := New(Config{CategoriesDir: fx.dir, TemplatePath: fx.template})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "knowledge index")
}

func TestNewFailsOnBrokenTemplate(t *testing.T) {
	fx := newFixture(t)
	require.NoError(t, os.WriteFile(fx.template, []byte("sections: [broken"), 0o644))
	_, err := New(Config{CategoriesDir: fx.dir, TemplatePath: fx.template})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "phase template")
}

func TestNewDefaultTemplatePath(t *testing.T) {
	// With no explicit path the template is looked up next to the categories
	// dir, under templates/interview_phases.yaml.
	fx := newFixture(t)
	_, err := New(Config{CategoriesDir: fx.dir})
	require.NoError(t, err)
}

func TestGetProfile(t *testing.T) {
	service, _ := newTestService(t)
	p := service.GetProfile(context.Background(), "restaurant")
	require.NotNil(t, p)
	assert.Equal(t, "Ресторан", p.Name)
	assert.Nil(t, service.GetProfile(context.Background(), "bakery"))
}

func TestDetectIndustry(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()
	assert.Equal(t, "restaurant", service.DetectIndustry(ctx, "у меня кафе"))
	assert.Equal(t, "", service.DetectIndustry(ctx, "продаю насосы"))

	id, confidence := service.DetectIndustryWithConfidence(ctx, "кафе и бар, потом маникюр")
	assert.Equal(t, "restaurant", id)
	assert.Greater(t, confidence, 0.0)
}

func TestDetectCountry(t *testing.T) {
	service, _ := newTestService(t)
	region, country := service.DetectCountry("+491761234567", "", "")
	assert.Equal(t, "eu", region)
	assert.Equal(t, "de", country)
}

func TestGetContextForInterview(t *testing.T) {
	service, metrics := newTestService(t)
	history := []assemble.DialogueTurn{{Role: assemble.RoleUser, Content: "у меня кафе"}}
	out := service.GetContextForInterview(context.Background(), "discovery", history, nil)
	assert.Contains(t, out, "Контекст отрасли")
	assert.Contains(t, out, "Потерянные брони")
	assert.Zero(t, metrics.ParseFailureCount("store"), "healthy fixtures must not degrade silently")
}

func TestVoiceContext(t *testing.T) {
	service, _ := newTestService(t)
	history := []assemble.DialogueTurn{{Role: assemble.RoleUser, Content: "у меня кафе"}}
	out := service.VoiceContext(context.Background(), history)
	assert.Contains(t, out, "industry: restaurant")
	assert.Contains(t, out, "pains: Потерянные брони")
}

func TestVoiceContextFullRespectsBudget(t *testing.T) {
	fx := newFixture(t)
	service, err := New(Config{CategoriesDir: fx.dir, TemplatePath: fx.template, Budget: 40})
	require.NoError(t, err)
	history := []assemble.DialogueTurn{{Role: assemble.RoleUser, Content: "у меня кафе"}}
	out := service.VoiceContextFull(context.Background(), "discovery", history, nil)
	require.NotEmpty(t, out)
	assert.LessOrEqual(t, len([]rune(out)), 40)
}

func TestRecordLearning(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()
	service.RecordLearning(ctx, "restaurant", "клиенты любят конкретные цифры", "consultation-42")

	recent := service.GetRecentLearnings(ctx, "restaurant", 1)
	require.Len(t, recent, 1)
	assert.Equal(t, "клиенты любят конкретные цифры", recent[0].Insight)
	assert.Equal(t, "consultation-42", recent[0].Source)
	assert.NotEmpty(t, recent[0].Date)
	assert.False(t, recent[0].IsSuccess())
}

func TestRecordSuccess(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()
	service.RecordLearning(ctx, "restaurant", "обычный вывод", "")
	service.RecordSuccess(ctx, "restaurant", "сделка закрыта после ROI", "")

	recent := service.GetRecentLearnings(ctx, "restaurant", 2)
	require.Len(t, recent, 2)
	assert.True(t, recent[0].IsSuccess(), "newest first")
	assert.Equal(t, "сделка закрыта после ROI", profile.StripMarker(recent[0].Insight))
	assert.False(t, recent[1].IsSuccess())
}

func TestRecordLearningUnknownCategoryNoops(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()
	service.RecordLearning(ctx, "bakery", "не должно сохраниться", "")
	assert.Empty(t, service.GetRecentLearnings(ctx, "bakery", 5))
}

func TestRecordLearningSurvivesReload(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()
	service.RecordLearning(ctx, "restaurant", "персистентный вывод", "")
	service.Reload()
	recent := service.GetRecentLearnings(ctx, "restaurant", 1)
	require.Len(t, recent, 1)
	assert.Equal(t, "персистентный вывод", recent[0].Insight)
}

func TestUpdateMetrics(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	// Fixture starts at avg 1.0 over 1 run; folding in a zero score halves
	// the mean.
	service.UpdateMetrics(ctx, "restaurant", 0.0)
	p := service.GetProfile(ctx, "restaurant")
	require.NotNil(t, p)
	assert.InDelta(t, 0.5, p.Metrics.AvgScore, 1e-9)
	assert.Equal(t, 2, p.Metrics.Runs)

	service.UpdateMetrics(ctx, "beauty", 0.8)
	beauty := service.GetProfile(ctx, "beauty")
	require.NotNil(t, beauty)
	assert.InDelta(t, 0.8, beauty.Metrics.AvgScore, 1e-9)
	assert.Equal(t, 1, beauty.Metrics.Runs)
}

func TestIncrementUsage(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()
	service.IncrementUsage(ctx, "restaurant")
	service.Reload()
	index := service.Store().LoadIndex(ctx)
	assert.Equal(t, 1, index.Usage.Counts["restaurant"])
}

func TestReloadPicksUpNewAliases(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()
	assert.Equal(t, "", service.DetectIndustry(ctx, "держу пиццерию"))

	path := filepath.Join(service.Store().Root(), "_base", "restaurant.yaml")
	updated := serviceRestaurant + "aliases: [пиццерия]\n"
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	service.Reload()
	assert.Equal(t, "restaurant", service.DetectIndustry(ctx, "держу пиццерию"))
}

package service

import (
	"context"
	"fmt"
	"testing"

	"milguard_backend/internal/detection"
	"milguard_backend/internal/model"
	"milguard_backend/internal/repository"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

type fakeDetector struct {
	outcome *detection.Outcome
	err     error
	calls   int
}

func (f *fakeDetector) Detect(_ context.Context, _ detection.Content) (*detection.Outcome, error) {
	f.calls++
	return f.outcome, f.err
}

func outcomeOf(results map[string]model.ProviderResult, failed ...string) *detection.Outcome {
	out := &detection.Outcome{Results: results, Failed: failed}
	for name := range results {
		out.Queried = append(out.Queried, name)
	}
	out.Queried = append(out.Queried, failed...)
	return out
}

// seedModules installs n active modules with two text sections each and
// returns them in order.
func seedModules(t *testing.T, store *repository.Store, n int) []model.LearningModule {
	t.Helper()
	curriculum := make([]model.LearningModule, 0, n)
	for i := 1; i <= n; i++ {
		curriculum = append(curriculum, model.LearningModule{
			Title: fmt.Sprintf("Module %d", i),
			Content: datatypes.NewJSONType(model.ModuleContent{Sections: []model.Section{
				{Title: "Read", Type: model.SectionText, Content: "..."},
				{Title: "Reflect", Type: model.SectionText, Content: "..."},
			}}),
			Order:    i,
			IsActive: true,
		})
	}
	created, err := SeedCurriculum(context.Background(), store.Modules, curriculum)
	require.NoError(t, err)
	require.Equal(t, n, created)

	modules, err := store.Modules.ListActive(context.Background())
	require.NoError(t, err)
	return modules
}

func f64(v float64) *float64 { return &v }
func boolPtr(v bool) *bool   { return &v }

func achievementTypes(list []model.Achievement) []model.AchievementType {
	out := make([]model.AchievementType, 0, len(list))
	for _, a := range list {
		out = append(out, a.Type)
	}
	return out
}

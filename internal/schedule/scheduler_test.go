package schedule

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type noopJob struct {
	name string
}

func (j *noopJob) Name() string {
	return j.name
}

func (j *noopJob) Run(ctx context.Context) error {
	return nil
}

func TestAddJobRejectsDuplicateName(t *testing.T) {
	s := NewCronScheduler()
	require.NoError(t, s.AddJob(&noopJob{name: "cache_probe"}, "*/5 * * * *"))
	require.Error(t, s.AddJob(&noopJob{name: "cache_probe"}, "*/10 * * * *"))
	require.NoError(t, s.AddJob(&noopJob{name: "outro"}, "*/5 * * * *"))
}

func TestAddJobRejectsBadSpec(t *testing.T) {
	s := NewCronScheduler()
	require.Error(t, s.AddJob(&noopJob{name: "cache_probe"}, "not a spec"))
}

package cmd

import (
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"zkmutant.dev/pkg/zkmutant/internal/domain"
	m "zkmutant.dev/pkg/zkmutant/internal/model"
)

func TestViewCmd_OutDirFlag(t *testing.T) {
	mockWorkflow := presetWorkflow(t)
	cmd := newTestRootCmd(newViewCmd())

	mockWorkflow.On("View", mock.Anything, mock.MatchedBy(func(args domain.ViewArgs) bool {
		return args.OutDir == m.Path("old-reports")
	})).Return(nil)

	cmd.SetArgs([]string{"view", "-o", "old-reports"})
	require.NoError(t, cmd.Execute())
}

func TestViewCmd_PropagatesError(t *testing.T) {
	mockWorkflow := presetWorkflow(t)
	cmd := newTestRootCmd(newViewCmd())

	mockWorkflow.On("View", mock.Anything, mock.Anything).Return(domain.ErrBaselineFailed)

	cmd.SetArgs([]string{"view"})
	require.Error(t, cmd.Execute())
}

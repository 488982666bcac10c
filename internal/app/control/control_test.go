package control_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/slok/runview/internal/app/control"
	"github.com/slok/runview/internal/log"
	"github.com/slok/runview/internal/model"
	"github.com/slok/runview/internal/platform/platformmock"
)

func TestService_Run(t *testing.T) {
	run := func(status model.RunStatus) *model.Run { return &model.Run{ID: "r1", Status: status} }

	tests := map[string]struct {
		mock   func(m *platformmock.MockClient)
		req    control.Request
		expRun *model.Run
		expErr error
		anyErr bool
	}{
		"Pausing a running run should pause it.": {
			mock: func(m *platformmock.MockClient) {
				m.On("GetRun", mock.Anything, "r1").Once().Return(run(model.RunStatusRunning), nil)
				m.On("Pause", mock.Anything, "r1").Once().Return(nil)
				m.On("GetRun", mock.Anything, "r1").Once().Return(run(model.RunStatusPaused), nil)
			},
			req:    control.Request{RunID: "r1", Action: control.ActionPause},
			expRun: run(model.RunStatusPaused),
		},
		"Pausing a paused run should fail without calling the platform.": {
			mock: func(m *platformmock.MockClient) {
				m.On("GetRun", mock.Anything, "r1").Once().Return(run(model.RunStatusPaused), nil)
			},
			req:    control.Request{RunID: "r1", Action: control.ActionPause},
			expErr: model.ErrNotValid,
		},
		"Resuming a paused run should resume it.": {
			mock: func(m *platformmock.MockClient) {
				m.On("GetRun", mock.Anything, "r1").Once().Return(run(model.RunStatusPaused), nil)
				m.On("Resume", mock.Anything, "r1").Once().Return(nil)
				m.On("GetRun", mock.Anything, "r1").Once().Return(run(model.RunStatusRunning), nil)
			},
			req:    control.Request{RunID: "r1", Action: control.ActionResume},
			expRun: run(model.RunStatusRunning),
		},
		"Canceling a finished run should fail.": {
			mock: func(m *platformmock.MockClient) {
				m.On("GetRun", mock.Anything, "r1").Once().Return(run(model.RunStatusSucceeded), nil)
			},
			req:    control.Request{RunID: "r1", Action: control.ActionCancel},
			expErr: model.ErrNotValid,
		},
		"Canceling a queued run should cancel it.": {
			mock: func(m *platformmock.MockClient) {
				m.On("GetRun", mock.Anything, "r1").Once().Return(run(model.RunStatusQueued), nil)
				m.On("Cancel", mock.Anything, "r1").Once().Return(nil)
				m.On("GetRun", mock.Anything, "r1").Once().Return(run(model.RunStatusCanceled), nil)
			},
			req:    control.Request{RunID: "r1", Action: control.ActionCancel},
			expRun: run(model.RunStatusCanceled),
		},
		"Re-running should return the new run.": {
			mock: func(m *platformmock.MockClient) {
				m.On("GetRun", mock.Anything, "r1").Once().Return(run(model.RunStatusFailed), nil)
				m.On("Rerun", mock.Anything, "r1", "architect").Once().Return(&model.Run{ID: "r2", Status: model.RunStatusQueued}, nil)
			},
			req:    control.Request{RunID: "r1", Action: control.ActionRerun, Node: "architect"},
			expRun: &model.Run{ID: "r2", Status: model.RunStatusQueued},
		},
		"Unknown actions should fail.": {
			mock: func(m *platformmock.MockClient) {
				m.On("GetRun", mock.Anything, "r1").Once().Return(run(model.RunStatusRunning), nil)
			},
			req:    control.Request{RunID: "r1", Action: "explode"},
			expErr: model.ErrNotValid,
		},
		"Missing runs should fail.": {
			mock: func(m *platformmock.MockClient) {
				m.On("GetRun", mock.Anything, "r1").Once().Return(nil, fmt.Errorf("run r1: %w", model.ErrNotFound))
			},
			req:    control.Request{RunID: "r1", Action: control.ActionPause},
			expErr: model.ErrNotFound,
		},
		"Platform errors should propagate.": {
			mock: func(m *platformmock.MockClient) {
				m.On("GetRun", mock.Anything, "r1").Once().Return(run(model.RunStatusRunning), nil)
				m.On("Pause", mock.Anything, "r1").Once().Return(fmt.Errorf("boom"))
			},
			req:    control.Request{RunID: "r1", Action: control.ActionPause},
			anyErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			m := &platformmock.MockClient{}
			test.mock(m)

			svc, err := control.NewService(control.ServiceConfig{Client: m, Logger: log.Noop})
			require.NoError(err)

			got, err := svc.Run(context.Background(), test.req)
			switch {
			case test.expErr != nil:
				assert.ErrorIs(err, test.expErr)
			case test.anyErr:
				assert.Error(err)
			default:
				require.NoError(err)
				assert.Equal(test.expRun, got)
			}

			m.AssertExpectations(t)
		})
	}
}

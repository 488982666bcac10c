package download_test

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/slok/runview/internal/app/download"
	"github.com/slok/runview/internal/log"
	"github.com/slok/runview/internal/model"
	"github.com/slok/runview/internal/platform/platformmock"
)

func writeBody(body string) func(args mock.Arguments) {
	return func(args mock.Arguments) {
		w := args.Get(len(args) - 1).(io.Writer)
		_, _ = io.WriteString(w, body)
	}
}

func TestService_Run(t *testing.T) {
	arts := []model.Artifact{
		{ID: "a1", Name: "src/app.js", MimeType: "text/javascript"},
		{ID: "a2", Name: "", MimeType: "application/json"},
	}

	tests := map[string]struct {
		mock       func(m *platformmock.MockClient)
		req        func(dir string) download.Request
		expPath    func(dir string) string
		expContent string
		expErr     error
		anyErr     bool
	}{
		"An artifact should be downloaded by name into a directory.": {
			mock: func(m *platformmock.MockClient) {
				m.On("ListArtifacts", mock.Anything, "r1").Once().Return(arts, nil)
				m.On("DownloadArtifact", mock.Anything, "r1", "a1", mock.Anything).Once().Run(writeBody("js")).Return(nil)
			},
			req: func(dir string) download.Request {
				return download.Request{RunID: "r1", Ref: "src/app.js", Destination: dir}
			},
			expPath:    func(dir string) string { return filepath.Join(dir, "app.js") },
			expContent: "js",
		},
		"An unnamed artifact should be named after its mime type.": {
			mock: func(m *platformmock.MockClient) {
				m.On("ListArtifacts", mock.Anything, "r1").Once().Return(arts, nil)
				m.On("DownloadArtifact", mock.Anything, "r1", "a2", mock.Anything).Once().Run(writeBody("{}")).Return(nil)
			},
			req: func(dir string) download.Request {
				return download.Request{RunID: "r1", Ref: "a2", Destination: dir + "/out/"}
			},
			expPath:    func(dir string) string { return filepath.Join(dir, "out", "artifact.json") },
			expContent: "{}",
		},
		"The workspace should be exported as a zip.": {
			mock: func(m *platformmock.MockClient) {
				m.On("ExportWorkspace", mock.Anything, "r1", mock.Anything).Once().Run(writeBody("PK")).Return(nil)
			},
			req: func(dir string) download.Request {
				return download.Request{RunID: "r1", Workspace: true, Destination: dir}
			},
			expPath:    func(dir string) string { return filepath.Join(dir, "run-r1.zip") },
			expContent: "PK",
		},
		"A file destination should be used as it is.": {
			mock: func(m *platformmock.MockClient) {
				m.On("ExportWorkspace", mock.Anything, "r1", mock.Anything).Once().Run(writeBody("PK")).Return(nil)
			},
			req: func(dir string) download.Request {
				return download.Request{RunID: "r1", Workspace: true, Destination: filepath.Join(dir, "backup.zip")}
			},
			expPath:    func(dir string) string { return filepath.Join(dir, "backup.zip") },
			expContent: "PK",
		},
		"A missing artifact should fail.": {
			mock: func(m *platformmock.MockClient) {
				m.On("ListArtifacts", mock.Anything, "r1").Once().Return(arts, nil)
			},
			req:    func(dir string) download.Request { return download.Request{RunID: "r1", Ref: "nope", Destination: dir} },
			expErr: model.ErrNotFound,
		},
		"A failed download should not leave files.": {
			mock: func(m *platformmock.MockClient) {
				m.On("ListArtifacts", mock.Anything, "r1").Once().Return(arts, nil)
				m.On("DownloadArtifact", mock.Anything, "r1", "a1", mock.Anything).Once().Return(fmt.Errorf("reset"))
			},
			req:    func(dir string) download.Request { return download.Request{RunID: "r1", Ref: "a1", Destination: dir} },
			anyErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			dir := t.TempDir()
			m := &platformmock.MockClient{}
			test.mock(m)

			svc, err := download.NewService(download.ServiceConfig{Client: m, Logger: log.Noop})
			require.NoError(err)

			res, err := svc.Run(context.Background(), test.req(dir))
			switch {
			case test.expErr != nil:
				assert.ErrorIs(err, test.expErr)
			case test.anyErr:
				assert.Error(err)
				entries, err := os.ReadDir(dir)
				require.NoError(err)
				assert.Empty(entries)
			default:
				require.NoError(err)
				assert.Equal(test.expPath(dir), res.Path)
				assert.Equal(int64(len(test.expContent)), res.Bytes)
				got, err := os.ReadFile(res.Path)
				require.NoError(err)
				assert.Equal(test.expContent, string(got))
			}

			m.AssertExpectations(t)
		})
	}
}

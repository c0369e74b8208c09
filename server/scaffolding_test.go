package server_test

import (
	"bytes"
	"fed_courier/dal"
	"fed_courier/logic"
	"fed_courier/mocks"
	"fed_courier/server"
	"fed_courier/shared"
	"github.com/gorilla/mux"
	"go.uber.org/mock/gomock"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

const (
	testHost      = "tube.local"
	serverActor   = "peertube"
	testApiKey    = "letmein-0123"
	testScrapeKey = "scrape-4567"
	blockedHost   = "spam.example"
)

type serverHarness struct {
	cfg            *shared.Config
	mockLogger     *mocks.MockILogger
	mockMetrics    *mocks.MockIMetrics
	mockSigChecker *mocks.MockIHttpSigChecker
	mockADir       *mocks.MockIActorDirectory
	mockInbox      *mocks.MockIInbox
	mockFollows    *mocks.MockIFollowManager
	mockQueue      *mocks.MockIDeliveryQueue
	mockHealth     *mocks.MockIFollowerHealth
	mockReconciler *mocks.MockIReconciler
	router         *mux.Router
}

func setupServerTest(t *testing.T, tweak func(cfg *shared.Config)) (*gomock.Controller, *serverHarness) {

	ctrl := gomock.NewController(t)

	blockedFile := filepath.Join(t.TempDir(), "blocked.txt")
	if err := os.WriteFile(blockedFile, []byte(blockedHost+"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := shared.NewDefaultConfig()
	cfg.Host = testHost
	cfg.BlockedHostsFile = blockedFile
	cfg.ServerActor = &shared.ActorInfo{Name: serverActor}
	cfg.Secrets = shared.Secrets{
		ApiKeys:     []string{"other-key", testApiKey},
		MetricsAuth: testScrapeKey,
	}
	if tweak != nil {
		tweak(cfg)
	}

	h := &serverHarness{
		cfg:            cfg,
		mockLogger:     mocks.NewMockILogger(ctrl),
		mockMetrics:    mocks.NewMockIMetrics(ctrl),
		mockSigChecker: mocks.NewMockIHttpSigChecker(ctrl),
		mockADir:       mocks.NewMockIActorDirectory(ctrl),
		mockInbox:      mocks.NewMockIInbox(ctrl),
		mockFollows:    mocks.NewMockIFollowManager(ctrl),
		mockQueue:      mocks.NewMockIDeliveryQueue(ctrl),
		mockHealth:     mocks.NewMockIFollowerHealth(ctrl),
		mockReconciler: mocks.NewMockIReconciler(ctrl),
	}
	setupDummyLogger(h.mockLogger)
	setupDummyMetrics(h.mockMetrics)

	groups := []server.IHandlerGroup{
		server.NewApubHandlerGroup(cfg, h.mockLogger, h.mockMetrics, h.mockSigChecker, h.mockADir, h.mockInbox,
			logic.NewBlockedHosts(cfg)),
		server.NewApiHandlerGroup(cfg, h.mockLogger, h.mockMetrics, h.mockADir, h.mockFollows, h.mockQueue,
			h.mockHealth, h.mockReconciler),
		server.NewMetricsHandlerGroup(cfg, h.mockLogger),
	}
	h.router = server.NewMux(groups, h.mockLogger)

	return ctrl, h
}

func setupDummyLogger(mockLogger *mocks.MockILogger) {
	mockLogger.EXPECT().Error(gomock.Any(), gomock.Any()).AnyTimes()
	mockLogger.EXPECT().Errorf(gomock.Any(), gomock.Any()).AnyTimes()
	mockLogger.EXPECT().Warn(gomock.Any(), gomock.Any()).AnyTimes()
	mockLogger.EXPECT().Warnf(gomock.Any(), gomock.Any()).AnyTimes()
	mockLogger.EXPECT().Info(gomock.Any(), gomock.Any()).AnyTimes()
	mockLogger.EXPECT().Infof(gomock.Any(), gomock.Any()).AnyTimes()
	mockLogger.EXPECT().Debug(gomock.Any(), gomock.Any()).AnyTimes()
	mockLogger.EXPECT().Debugf(gomock.Any(), gomock.Any()).AnyTimes()
	mockLogger.EXPECT().Printf(gomock.Any(), gomock.Any()).AnyTimes()
}

type nopObserver struct{}

func (nopObserver) Finish() {}

func setupDummyMetrics(mockMetrics *mocks.MockIMetrics) {
	mockMetrics.EXPECT().StartWebRequestIn(gomock.Any()).Return(nopObserver{}).AnyTimes()
	mockMetrics.EXPECT().StartApubRequestIn(gomock.Any()).Return(nopObserver{}).AnyTimes()
	mockMetrics.EXPECT().ActivityReceived(gomock.Any()).AnyTimes()
}

// serve runs one request through the router; a non-nil body is sent as JSON.
func (h *serverHarness) serve(method, target string, body []byte, hdrs map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range hdrs {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func (h *serverHarness) api(method, target string, body []byte) *httptest.ResponseRecorder {
	return h.serve(method, target, body, map[string]string{"X-API-KEY": testApiKey})
}

func makeLocalActor(id int, name string) *dal.Actor {
	return &dal.Actor{
		Id:       id,
		ActorUrl: "https://" + testHost + "/u/" + name,
		Name:     name,
		Host:     testHost,
		Inbox:    "https://" + testHost + "/u/" + name + "/inbox",
		IsLocal:  true,
	}
}

func makeRemoteActor(id int, name string) *dal.Actor {
	return &dal.Actor{
		Id:       id,
		ActorUrl: "https://peer.example/accounts/" + name,
		Name:     name,
		Host:     "peer.example",
		Inbox:    "https://peer.example/accounts/" + name + "/inbox",
	}
}

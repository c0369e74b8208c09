package logic_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fed_courier/dal"
	"fed_courier/mocks"
	"fed_courier/shared"
	"fmt"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

const (
	testHost       = "tube.local"
	serverActor    = "peertube"
	remoteHost     = "peer.example"
	testPassphrase = "test-pass"
)

var (
	testKeyOnce sync.Once
	testPubKey  string
	testPrivKey string
)

// getTestKeys returns a PKIX public key and an unencrypted PKCS#1 private key, generated once per run.
func getTestKeys() (pubKey, privKey string) {
	testKeyOnce.Do(func() {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
		privPem := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
		pubRaw, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
		if err != nil {
			panic(err)
		}
		pubPem := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubRaw})
		testPubKey = string(pubPem)
		testPrivKey = string(privPem)
	})
	return testPubKey, testPrivKey
}

func newTestConfig(t *testing.T) *shared.Config {
	pubKey, privKey := getTestKeys()
	cfg := shared.NewDefaultConfig()
	cfg.Host = testHost
	cfg.DbFile = filepath.Join(t.TempDir(), "courier.db")
	cfg.ServerActor = &shared.ActorInfo{
		Name:      serverActor,
		Published: time.Now().UTC(),
		PubKey:    pubKey,
		PrivKey:   privKey,
	}
	cfg.Secrets = shared.Secrets{PrivKeyPass: testPassphrase}
	return cfg
}

func newTestRepo(cfg *shared.Config) dal.IRepo {
	repo := dal.NewRepo(cfg, log.New(io.Discard))
	repo.InitUpdateDb()
	return repo
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
	mockMetrics.EXPECT().StartApubRequestOut(gomock.Any()).Return(nopObserver{}).AnyTimes()
	mockMetrics.EXPECT().ActivityReceived(gomock.Any()).AnyTimes()
	mockMetrics.EXPECT().DeliveryOutcome(gomock.Any()).AnyTimes()
	mockMetrics.EXPECT().QueueLength(gomock.Any()).AnyTimes()
	mockMetrics.EXPECT().FollowerPruned().AnyTimes()
	mockMetrics.EXPECT().ReconcileOutcome(gomock.Any()).AnyTimes()
	mockMetrics.EXPECT().BreakerStateChanged(gomock.Any()).AnyTimes()
	mockMetrics.EXPECT().ServiceStarted().AnyTimes()
	mockMetrics.EXPECT().TotalFollowers(gomock.Any()).AnyTimes()
}

func addRemoteActor(t *testing.T, repo dal.IRepo, name, inbox string) *dal.Actor {
	actorUrl := fmt.Sprintf("https://%s/accounts/%s", remoteHost, name)
	if inbox == "" {
		inbox = actorUrl + "/inbox"
	}
	actor, err := repo.UpsertRemoteActor(&dal.Actor{
		ActorUrl: actorUrl,
		Name:     name,
		Host:     remoteHost,
		Inbox:    inbox,
		PubKey:   "pub-" + name,
	})
	require.Nil(t, err)
	return actor
}

func getServerActor(t *testing.T, repo dal.IRepo) *dal.Actor {
	actor, err := repo.GetLocalActor(serverActor)
	require.Nil(t, err)
	require.NotNil(t, actor)
	return actor
}

func addFollow(t *testing.T, repo dal.IRepo, follower, followed *dal.Actor, state dal.FollowState) {
	_, isNew, err := repo.AddFollowIfNew(&dal.Follow{
		FollowerId: follower.Id,
		FollowedId: followed.Id,
		State:      state,
		RequestId:  fmt.Sprintf("%s/follows/%d", follower.ActorUrl, followed.Id),
	})
	require.Nil(t, err)
	require.True(t, isNew)
}

func countJobs(t *testing.T, repo dal.IRepo, state dal.JobState) int {
	counts, err := repo.CountJobsByState()
	require.Nil(t, err)
	return counts[state]
}

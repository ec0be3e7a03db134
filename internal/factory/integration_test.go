package factory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/towerduel/internal/api/response"
	"github.com/mcoot/towerduel/internal/model"
	"github.com/mcoot/towerduel/internal/protocol"
	"github.com/mcoot/towerduel/internal/services/catalog"
	"github.com/mcoot/towerduel/internal/services/session"
	redisstorage "github.com/mcoot/towerduel/internal/storage/redis"
)

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
}

func (s *IntegrationSuite) get(path string, out any) int {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	s.app.Router().ServeHTTP(rr, req)
	if out != nil && rr.Code == http.StatusOK {
		s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), out))
	}
	return rr.Code
}

// Test: complete battle from connection to tower destruction
func (s *IntegrationSuite) TestCompleteBattleFlow() {
	s.app.MockRandom.QueueUUID("battle-1")

	// Step 1: two users connect and name themselves
	alice := s.app.Connect("alice")
	bob := s.app.Connect("bob")
	s.app.Handle(
		session.SetName{User: "alice", Name: "Alice"},
		session.SetName{User: "bob", Name: "Bob"},
	)

	var status response.Status
	s.Require().Equal(http.StatusOK, s.get("/api/v1/status", &status))
	s.Equal(response.Status{Connected: 2, InLobby: 2}, status)

	// Step 2: alice asks for a battle and is matched with bob
	s.app.Handle(session.BeginGame{User: "alice"})

	msg, ok := alice.Last(protocol.KindStartGame)
	s.Require().True(ok)
	var opponent string
	s.Require().NoError(json.Unmarshal(msg.Payload, &opponent))
	s.Equal("Bob", opponent)

	msg, ok = bob.Last(protocol.KindDrawnHand)
	s.Require().True(ok)
	var hand []model.Unit
	s.Require().NoError(json.Unmarshal(msg.Payload, &hand))
	s.Len(hand, session.DefaultHandSize)

	s.Require().Equal(http.StatusOK, s.get("/api/v1/status", &status))
	s.Equal(response.Status{Connected: 2, InGame: 2, Battles: 1}, status)

	// Step 3: bob plays a unit from his hand
	s.app.Handle(session.PlayUnit{User: "bob", Unit: hand[0].Name})
	msg, ok = alice.Last(protocol.KindUnitSpawned)
	s.Require().True(ok)
	var spawned [2]json.RawMessage
	s.Require().NoError(json.Unmarshal(msg.Payload, &spawned))
	s.JSONEq(`false`, string(spawned[0]))

	// Step 4: alice grinds bob's tower down
	s.app.MockClock.Advance(90 * time.Second)
	s.app.Handle(
		session.DamageTick{User: "alice", Amount: 1000},
		session.DamageTick{User: "alice", Amount: 1000},
	)

	s.Contains(alice.Kinds(), protocol.KindWin)
	s.Contains(bob.Kinds(), protocol.KindLose)

	// Step 5: both are back in the lobby and the battle is archived
	for _, id := range []model.UserID{"alice", "bob"} {
		st, ok := s.app.Registry.Status(id)
		s.Require().True(ok)
		s.Equal(model.Lobby{}, st)
	}

	summary, err := s.app.Storage.GetBattleSummary(s.ctx, "battle-1")
	s.Require().NoError(err)
	s.Equal(model.UserID("alice"), summary.Winner)
	s.Equal("Bob", summary.LoserName)
	s.Equal(model.EndTowerDestroyed, summary.Reason)

	var detail response.BattleSummary
	s.Require().Equal(http.StatusOK, s.get("/api/v1/battles/battle-1", &detail))
	s.Equal("1m30s", detail.Duration)

	var history response.History
	s.Require().Equal(http.StatusOK, s.get("/api/v1/battles/history", &history))
	s.Require().Len(history.Battles, 1)
	s.Equal("battle-1", history.Battles[0].ID)
}

// Test: leaving mid-battle hands the win to the opponent
func (s *IntegrationSuite) TestDisconnectDuringBattle() {
	s.app.MockRandom.QueueUUID("battle-1")
	alice := s.app.Connect("alice")
	carol := s.app.Connect("carol")
	s.app.Connect("bob")
	s.app.Handle(session.SetName{User: "bob", Name: "Bob"})

	// carol is first in sorted order among alice's candidates
	s.app.MockRandom.QueueIntn(1)
	s.app.Handle(session.BeginGame{User: "alice"})
	opponent, ok := s.app.Registry.Opponent("alice")
	s.Require().True(ok)
	s.Equal(model.UserID("carol"), opponent)

	carol.Reset()
	s.app.Handle(session.Disconnect{User: "bob"})
	s.Contains(carol.Kinds(), protocol.KindUserLeave)

	s.app.Handle(session.Disconnect{User: "carol"})
	msg, ok := alice.Last(protocol.KindWinByDisconnect)
	s.Require().True(ok)
	var id string
	s.Require().NoError(json.Unmarshal(msg.Payload, &id))
	s.Equal("battle-1", id)

	summary, err := s.app.Storage.GetBattleSummary(s.ctx, "battle-1")
	s.Require().NoError(err)
	s.Equal(model.EndDisconnect, summary.Reason)
	s.Equal(model.UserID("alice"), summary.Winner)

	st, ok := s.app.Registry.Status("alice")
	s.Require().True(ok)
	s.Equal(model.Lobby{}, st)
}

// Test: a lone user cannot start a battle
func (s *IntegrationSuite) TestBeginGameWithoutOpponent() {
	alice := s.app.Connect("alice")

	s.app.Handle(session.BeginGame{User: "alice"})

	msg, ok := alice.Last(protocol.KindError)
	s.Require().True(ok)
	var body protocol.ErrorBody
	s.Require().NoError(json.Unmarshal(msg.Payload, &body))
	s.Equal(protocol.CodeMatchmakingUnavailable, body.Code)
}

func (s *IntegrationSuite) TestCatalogEndpointServesDefaultCatalog() {
	var cat response.Catalog
	s.Require().Equal(http.StatusOK, s.get("/api/v1/catalog", &cat))
	s.Equal(session.DefaultHandSize, cat.HandSize)
	s.Len(cat.Units, catalog.Default().Len())
}

type FactorySuite struct {
	suite.Suite
	ctx context.Context
}

func TestFactorySuite(t *testing.T) {
	suite.Run(t, new(FactorySuite))
}

func (s *FactorySuite) SetupTest() {
	s.ctx = context.Background()
}

func (s *FactorySuite) TestNewDefaultsToMemoryAndBuiltInCatalog() {
	app, err := New(s.ctx, Config{})
	s.Require().NoError(err)
	defer func() { _ = app.Close() }()

	s.Equal(catalog.Default().Len(), app.Catalog.Len())
	s.Equal(session.DefaultHandSize, app.Registry.HandSize())
	s.NotNil(app.Router())
}

func (s *FactorySuite) TestNewRejectsUnknownStorageType() {
	_, err := New(s.ctx, Config{StorageType: "sqlite"})
	s.Error(err)
}

func (s *FactorySuite) TestNewRequiresRedisConfig() {
	_, err := New(s.ctx, Config{StorageType: StorageTypeRedis})
	s.Error(err)
}

func (s *FactorySuite) TestNewRejectsOversizedHand() {
	_, err := New(s.ctx, Config{HandSize: catalog.Default().Len() + 1})
	s.Error(err)
}

func (s *FactorySuite) TestCatalogFromEmptyStorageFails() {
	_, err := New(s.ctx, Config{CatalogSource: CatalogSourceStorage})
	s.ErrorIs(err, model.ErrCatalogNotStored)
}

func (s *FactorySuite) TestCatalogPublishedToRedisIsLoaded() {
	mr := miniredis.RunT(s.T())
	redisCfg := redisstorage.DefaultConfig()
	redisCfg.URL = "redis://" + mr.Addr()

	publisher, err := NewStorage(Config{StorageType: StorageTypeRedis, RedisConfig: &redisCfg})
	s.Require().NoError(err)
	cat, err := catalog.New(catalog.Default().Units()[:6])
	s.Require().NoError(err)
	s.Require().NoError(catalog.Publish(s.ctx, publisher, cat))
	s.Require().NoError(CloseStorage(publisher))

	app, err := New(s.ctx, Config{
		StorageType:   StorageTypeRedis,
		RedisConfig:   &redisCfg,
		CatalogSource: CatalogSourceStorage,
		HandSize:      3,
	})
	s.Require().NoError(err)
	defer func() { _ = app.Close() }()

	s.Equal(6, app.Catalog.Len())
	s.Equal(3, app.Registry.HandSize())
}

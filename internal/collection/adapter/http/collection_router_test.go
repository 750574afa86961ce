package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	collectionhttp "collection-tracker/internal/collection/adapter/http"
	"collection-tracker/internal/collection/adapter/persistence/memory"
	"collection-tracker/internal/collection/adapter/security"
	"collection-tracker/internal/collection/config"
	"collection-tracker/internal/collection/domain/model"
	"collection-tracker/internal/collection/usecase"
	"collection-tracker/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type CollectionRouterTestSuite struct {
	suite.Suite
	app    *fiber.App
	cards  *memory.CardRecordStore
	sets   *memory.SetAggregateStore
	tokens *security.TokenService
	token  string
}

func (suite *CollectionRouterTestSuite) SetupTest() {
	var err error
	suite.tokens, err = security.NewTokenService("test-secret", "collection-tracker")
	require.NoError(suite.T(), err)
	suite.token, err = suite.tokens.GenerateToken("u1", time.Hour)
	require.NoError(suite.T(), err)

	suite.cards = memory.NewCardRecordStore()
	suite.sets = memory.NewSetAggregateStore()
	uc := usecase.NewCollectionUsecase(usecase.Dependencies{
		Cards:  suite.cards,
		Sets:   suite.sets,
		Outbox: memory.NewReconciliationOutbox(),
		Logger: logger.NewLoggerWithConfig("error", "text"),
		Retry:  config.RetryConfig{ConflictMaxRetries: 1, CompensationMaxRetries: 1, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond},
	})

	middleware := collectionhttp.NewMiddleware(suite.tokens)
	suite.app = fiber.New(fiber.Config{ErrorHandler: collectionhttp.ErrorHandler})
	suite.app.Use(middleware.RequestID(), middleware.WithRequestContext())
	collectionhttp.NewCollectionHTTPHandler(uc).SetupCollectionRoutes(suite.app.Group("/v1"), middleware)
}

func (suite *CollectionRouterTestSuite) do(method, path, body, token string) (*http.Response, map[string]interface{}) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}

	resp, err := suite.app.Test(req)
	require.NoError(suite.T(), err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(suite.T(), err)
	out := map[string]interface{}{}
	if len(raw) > 0 {
		require.NoError(suite.T(), json.Unmarshal(raw, &out), string(raw))
	}
	return resp, out
}

const addFoil = `{"setId":"s1","rarity":"rare","finish":"foil","countDelta":2}`

func (suite *CollectionRouterTestSuite) TestApplyChange_Success() {
	resp, body := suite.do("POST", "/v1/users/u1/cards/c1/changes", addFoil, suite.token)

	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	assert.Equal(suite.T(), "c1", body["cardId"])
	assert.EqualValues(suite.T(), 1, body["version"])
	assert.NotEmpty(suite.T(), resp.Header.Get("X-Request-ID"))

	resp, body = suite.do("GET", "/v1/users/u1/sets/s1", "", suite.token)
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	assert.EqualValues(suite.T(), 2, body["totalCards"])
	assert.EqualValues(suite.T(), 1, body["uniqueCards"])
}

func (suite *CollectionRouterTestSuite) TestApplyChange_ValidationError() {
	resp, body := suite.do("POST", "/v1/users/u1/cards/c1/changes", `{"setId":"s1","rarity":"rare","finish":"gold","countDelta":1}`, suite.token)

	assert.Equal(suite.T(), http.StatusBadRequest, resp.StatusCode)
	errBody := body["error"].(map[string]interface{})
	assert.Equal(suite.T(), "VALIDATION_ERROR", errBody["type"])
	assert.NotEmpty(suite.T(), body["requestId"])
}

func (suite *CollectionRouterTestSuite) TestApplyChange_MalformedBody() {
	resp, _ := suite.do("POST", "/v1/users/u1/cards/c1/changes", `{"countDelta":`, suite.token)
	assert.Equal(suite.T(), http.StatusBadRequest, resp.StatusCode)
}

func (suite *CollectionRouterTestSuite) TestApplyChange_CardWriteFailure() {
	suite.cards.SetFailFunc(func(op string) error {
		if op == "upsert" {
			return errors.New("disk unavailable")
		}
		return nil
	})

	resp, body := suite.do("POST", "/v1/users/u1/cards/c1/changes", addFoil, suite.token)

	assert.Equal(suite.T(), http.StatusServiceUnavailable, resp.StatusCode)
	errBody := body["error"].(map[string]interface{})
	assert.Equal(suite.T(), "STORAGE_ERROR", errBody["type"])
	assert.Equal(suite.T(), "CARD_WRITE_FAILED", errBody["code"])
}

func (suite *CollectionRouterTestSuite) TestApplyChange_PartialFailureIsCompensated() {
	suite.sets.SetFailFunc(func(op string) error {
		if op == "upsert" {
			return errors.New("disk unavailable")
		}
		return nil
	})

	resp, body := suite.do("POST", "/v1/users/u1/cards/c1/changes", addFoil, suite.token)

	assert.Equal(suite.T(), http.StatusInternalServerError, resp.StatusCode)
	errBody := body["error"].(map[string]interface{})
	assert.Equal(suite.T(), "PARTIAL_FAILURE", errBody["type"])
	details := errBody["details"].(map[string]interface{})
	assert.Equal(suite.T(), true, details["compensated"])

	resp, body = suite.do("GET", "/v1/users/u1/cards/c1", "", suite.token)
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	variants := body["ownedVariants"].([]interface{})
	require.Len(suite.T(), variants, 1)
	assert.EqualValues(suite.T(), 0, variants[0].(map[string]interface{})["count"])
}

func (suite *CollectionRouterTestSuite) TestGetCardRecord_NotFound() {
	resp, body := suite.do("GET", "/v1/users/u1/cards/missing", "", suite.token)

	assert.Equal(suite.T(), http.StatusNotFound, resp.StatusCode)
	assert.Equal(suite.T(), "NOT_FOUND_ERROR", body["error"].(map[string]interface{})["type"])
}

func (suite *CollectionRouterTestSuite) TestSetSubgroupCollecting() {
	resp, body := suite.do("PUT", "/v1/users/u1/sets/s1/subgroups/showcase", `{"collecting":true,"count":12}`, suite.token)

	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	flags := body["collectingSubgroups"].([]interface{})
	require.Len(suite.T(), flags, 1)
	flag := flags[0].(map[string]interface{})
	assert.Equal(suite.T(), "showcase", flag["subgroupId"])
	assert.Equal(suite.T(), true, flag["collecting"])
	assert.EqualValues(suite.T(), 12, flag["count"])
}

func (suite *CollectionRouterTestSuite) TestRebuildSetAggregate() {
	require.NoError(suite.T(), suite.cards.Upsert(context.Background(), &model.UserCardRecord{
		ID:            model.CardRecordID("u1", "c1"),
		UserID:        "u1",
		CardID:        "c1",
		SetID:         "s1",
		Rarity:        model.RarityRare,
		OwnedVariants: []model.VariantEntry{{Finish: model.FinishEtched, Special: model.SpecialNone, Count: 3}},
	}))

	resp, body := suite.do("POST", "/v1/users/u1/sets/s1/rebuild", "", suite.token)

	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	assert.EqualValues(suite.T(), 3, body["totalCards"])
	assert.EqualValues(suite.T(), 1, body["uniqueCards"])
}

func (suite *CollectionRouterTestSuite) TestProtect_MissingToken() {
	resp, body := suite.do("GET", "/v1/users/u1/sets/s1", "", "")

	assert.Equal(suite.T(), http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(suite.T(), "AUTHENTICATION_ERROR", body["error"].(map[string]interface{})["type"])
}

func (suite *CollectionRouterTestSuite) TestProtect_InvalidToken() {
	resp, _ := suite.do("GET", "/v1/users/u1/sets/s1", "", "garbage")
	assert.Equal(suite.T(), http.StatusUnauthorized, resp.StatusCode)
}

func (suite *CollectionRouterTestSuite) TestProtect_OtherUsersCollection() {
	resp, body := suite.do("POST", "/v1/users/u2/cards/c1/changes", addFoil, suite.token)

	assert.Equal(suite.T(), http.StatusForbidden, resp.StatusCode)
	assert.Equal(suite.T(), "AUTHORIZATION_ERROR", body["error"].(map[string]interface{})["type"])

	_, err := suite.cards.Get(context.Background(), "u2", "c1")
	assert.Error(suite.T(), err)
}

func (suite *CollectionRouterTestSuite) TestUnknownRoute() {
	resp, body := suite.do("GET", "/v1/nowhere", "", "")

	assert.Equal(suite.T(), http.StatusNotFound, resp.StatusCode)
	assert.Equal(suite.T(), "NOT_FOUND_ERROR", body["error"].(map[string]interface{})["type"])
}

func TestCollectionRouterTestSuite(t *testing.T) {
	suite.Run(t, new(CollectionRouterTestSuite))
}

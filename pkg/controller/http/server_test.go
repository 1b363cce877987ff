package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	httpctrl "github.com/secmon-lab/relmap/pkg/controller/http"
	"github.com/secmon-lab/relmap/pkg/domain/interfaces"
	"github.com/secmon-lab/relmap/pkg/domain/model"
	"github.com/secmon-lab/relmap/pkg/repository/memory"
	"github.com/secmon-lab/relmap/pkg/repository/seed"
	"github.com/secmon-lab/relmap/pkg/service/slack"
	"github.com/secmon-lab/relmap/pkg/usecase"
)

var testNow = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

var testSecret = []byte("http-test-secret-http-test-secret")

const (
	testDMChannel   = "D0TEST000"
	testDMContact   = model.UserID("U1234567891")
	testNewcomer    = model.UserID("U9000000001")
	testTeamChannel = "C0TEST000"
)

type testEnv struct {
	repo   *memory.Memory
	uc     *usecase.UseCases
	server *httpctrl.Server
	token  string
}

// newTestEnv serves the demo data set plus a DM channel and a team channel
// with one user that has no relationship yet
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	data, err := seed.Demo(testNow)
	gt.NoError(t, err).Required()
	data.Channels = append(data.Channels,
		&model.Channel{ID: testDMChannel, Name: "dm", Members: []model.UserID{model.DemoUserID, testDMContact}},
		&model.Channel{ID: testTeamChannel, Name: "newcomers", Members: []model.UserID{model.DemoUserID, testNewcomer, testDMContact}},
	)

	repo := memory.New(memory.WithClock(fixedClock))
	_, err = repo.Reset(ctx, data)
	gt.NoError(t, err).Required()

	_, err = repo.User().CreateUser(ctx, &model.User{
		ID:          testNewcomer,
		TeamID:      "T1234567890",
		Email:       "newcomer@company.com",
		DisplayName: "New Comer",
		RealName:    "New Comer",
		Profile:     model.UserProfile{Interests: []string{"Hiking", "chess"}},
	})
	gt.NoError(t, err).Required()

	uc := usecase.New(repo,
		usecase.WithSeed(data),
		usecase.WithDirectory(slack.NewSeedDirectory(data, repo)),
		usecase.WithTokenSecret(testSecret),
		usecase.WithClock(fixedClock),
	)
	server := httpctrl.New(uc,
		httpctrl.WithSlackSigningSecret(testSigningSecret),
		httpctrl.WithClock(fixedClock),
	)

	env := &testEnv{repo: repo, uc: uc, server: server}

	rec := env.do(t, http.MethodPost, "/api/demo/login", nil)
	gt.Number(t, rec.Code).Equal(http.StatusOK).Required()
	var login struct {
		Token string `json:"token"`
	}
	decodeBody(t, rec, &login)
	gt.String(t, login.Token).NotEqual("")
	env.token = login.Token

	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return e.doWithToken(t, method, path, body, e.token)
}

func (e *testEnv) doWithToken(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		raw, err := json.Marshal(v)
		gt.NoError(t, err).Required()
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), v)).Required()
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	decodeBody(t, rec, &body)
	return body.Error
}

type relationshipBody struct {
	ID               string   `json:"id"`
	ContactID        string   `json:"contactId"`
	RelationshipType string   `json:"relationshipType"`
	AddedVia         string   `json:"addedVia"`
	SourceChannel    string   `json:"sourceChannel"`
	SharedInterests  []string `json:"sharedInterests"`
	SharedChannels   []struct {
		ChannelID string `json:"channelId"`
	} `json:"sharedChannels"`
	Notes    string   `json:"notes"`
	Tags     []string `json:"tags"`
	IsActive bool     `json:"isActive"`
	Contact  *struct {
		SlackUserID string `json:"slackUserId"`
	} `json:"contact"`
}

type bulkBody struct {
	Added         int                `json:"added"`
	Skipped       int                `json:"skipped"`
	Relationships []relationshipBody `json:"relationships"`
	Errors        []struct {
		ID    string `json:"id"`
		Error string `json:"error"`
	} `json:"errors"`
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.doWithToken(t, http.MethodGet, "/health", nil, "")
	gt.Number(t, rec.Code).Equal(http.StatusOK)

	var body struct {
		Status    string    `json:"status"`
		Timestamp time.Time `json:"timestamp"`
	}
	decodeBody(t, rec, &body)
	gt.Value(t, body.Status).Equal("OK")
	gt.B(t, body.Timestamp.Equal(testNow)).True()
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/nothing-here", nil)
	gt.Number(t, rec.Code).Equal(http.StatusNotFound)
	gt.Value(t, errorMessage(t, rec)).Equal("Route not found")
}

func TestAuthGate(t *testing.T) {
	env := newTestEnv(t)

	t.Run("missing token", func(t *testing.T) {
		rec := env.doWithToken(t, http.MethodGet, "/api/relationships/map", nil, "")
		gt.Number(t, rec.Code).Equal(http.StatusUnauthorized)
		gt.Value(t, errorMessage(t, rec)).Equal("Access token required")
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := env.doWithToken(t, http.MethodGet, "/api/relationships/map", nil, "not-a-jwt")
		gt.Number(t, rec.Code).Equal(http.StatusUnauthorized)
		gt.Value(t, errorMessage(t, rec)).Equal("Invalid token")
	})

	t.Run("token signed with another key", func(t *testing.T) {
		other := usecase.NewAuthUseCase(env.repo, []byte("another-secret-another-secret-xx"), time.Hour, nil, fixedClock)
		token, _, err := other.Issue(&model.User{ID: model.DemoUserID, TeamID: "T1234567890"})
		gt.NoError(t, err).Required()

		rec := env.doWithToken(t, http.MethodGet, "/api/relationships/map", nil, token)
		gt.Number(t, rec.Code).Equal(http.StatusUnauthorized)
		gt.Value(t, errorMessage(t, rec)).Equal("Invalid token")
	})

	t.Run("expired token", func(t *testing.T) {
		past := func() time.Time { return testNow.Add(-30 * 24 * time.Hour) }
		old := usecase.NewAuthUseCase(env.repo, testSecret, time.Hour, nil, past)
		token, _, err := old.Issue(&model.User{ID: model.DemoUserID, TeamID: "T1234567890"})
		gt.NoError(t, err).Required()

		rec := env.doWithToken(t, http.MethodGet, "/api/relationships/map", nil, token)
		gt.Number(t, rec.Code).Equal(http.StatusUnauthorized)
		gt.Value(t, errorMessage(t, rec)).Equal("Token expired")
	})

	t.Run("me and refresh", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/auth/me", nil)
		gt.Number(t, rec.Code).Equal(http.StatusOK)
		var me struct {
			SlackUserID string `json:"slackUserId"`
			SlackTeamID string `json:"slackTeamId"`
		}
		decodeBody(t, rec, &me)
		gt.Value(t, me.SlackUserID).Equal(model.DemoUserID.String())
		gt.Value(t, me.SlackTeamID).Equal("T1234567890")

		rec = env.do(t, http.MethodPost, "/api/auth/refresh", nil)
		gt.Number(t, rec.Code).Equal(http.StatusOK)
		var refreshed struct {
			Token string `json:"token"`
		}
		decodeBody(t, rec, &refreshed)
		gt.String(t, refreshed.Token).NotEqual("")
	})

	t.Run("logout is public", func(t *testing.T) {
		rec := env.doWithToken(t, http.MethodPost, "/api/auth/logout", nil, "")
		gt.Number(t, rec.Code).Equal(http.StatusOK)
	})

	t.Run("callback without oauth config", func(t *testing.T) {
		rec := env.doWithToken(t, http.MethodPost, "/api/auth/slack/callback", map[string]string{"code": "abc"}, "")
		gt.Number(t, rec.Code).Equal(http.StatusInternalServerError)
		gt.Value(t, errorMessage(t, rec)).Equal("Authentication failed")
	})

	t.Run("callback without code", func(t *testing.T) {
		rec := env.doWithToken(t, http.MethodGet, "/api/auth/slack/callback", nil, "")
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
	})
}

func TestRelationshipMap(t *testing.T) {
	env := newTestEnv(t)
	data, err := seed.Demo(testNow)
	gt.NoError(t, err).Required()

	rec := env.do(t, http.MethodGet, "/api/relationships/map", nil)
	gt.Number(t, rec.Code).Equal(http.StatusOK)

	var rels []relationshipBody
	decodeBody(t, rec, &rels)
	gt.Array(t, rels).Length(len(data.Relationships))
	for _, rel := range rels {
		gt.Value(t, rel.Contact).NotNil()
		gt.B(t, rel.IsActive).True()
	}
}

func TestAddRelationship(t *testing.T) {
	env := newTestEnv(t)

	t.Run("defaults and shared interests", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/relationships/add", map[string]any{
			"contactId": testNewcomer,
			"notes":     "met at onboarding",
			"tags":      []string{"new"},
		})
		gt.Number(t, rec.Code).Equal(http.StatusCreated).Required()

		var rel relationshipBody
		decodeBody(t, rec, &rel)
		gt.Value(t, rel.ContactID).Equal(testNewcomer.String())
		gt.Value(t, rel.RelationshipType).Equal("colleague")
		gt.Value(t, rel.AddedVia).Equal("manual")
		gt.Value(t, rel.SharedInterests).Equal([]string{"hiking"})
		gt.Array(t, rel.SharedChannels).Length(1)
		gt.Value(t, rel.SharedChannels[0].ChannelID).Equal(testTeamChannel)
		gt.Value(t, rel.Tags).Equal([]string{"new"})
	})

	t.Run("second add conflicts", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/relationships/add", map[string]any{"contactId": testNewcomer})
		gt.Number(t, rec.Code).Equal(http.StatusConflict)
		gt.Value(t, errorMessage(t, rec)).Equal("Relationship already exists")
	})

	t.Run("missing contact id", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/relationships/add", map[string]any{})
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
		gt.Value(t, errorMessage(t, rec)).Equal("Contact ID is required")
	})

	t.Run("unknown contact", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/relationships/add", map[string]any{"contactId": "U0NOBODY"})
		gt.Number(t, rec.Code).Equal(http.StatusNotFound)
		gt.Value(t, errorMessage(t, rec)).Equal("Contact not found")
	})

	t.Run("invalid type", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/relationships/add", map[string]any{
			"contactId":        testNewcomer,
			"relationshipType": "rival",
		})
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
		gt.String(t, errorMessage(t, rec)).Contains("relationshipType")
	})

	t.Run("notes too long", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/relationships/add", map[string]any{
			"contactId": testNewcomer,
			"notes":     strings.Repeat("x", 501),
		})
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
		gt.String(t, errorMessage(t, rec)).Contains("notes")
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/relationships/add", "{not json")
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
		gt.Value(t, errorMessage(t, rec)).Equal("Invalid JSON body")
	})
}

func TestAddTeam(t *testing.T) {
	env := newTestEnv(t)

	// members: owner (skipped), newcomer (added), existing contact (skipped)
	rec := env.do(t, http.MethodPost, "/api/relationships/add-team", map[string]any{"channelId": testTeamChannel})
	gt.Number(t, rec.Code).Equal(http.StatusOK).Required()

	var result bulkBody
	decodeBody(t, rec, &result)
	gt.Number(t, result.Added).Equal(1)
	gt.Number(t, result.Skipped).Equal(2)
	gt.Array(t, result.Errors).Length(0)
	gt.Array(t, result.Relationships).Length(1).Required()
	gt.Value(t, result.Relationships[0].RelationshipType).Equal("team_member")
	gt.Value(t, result.Relationships[0].AddedVia).Equal("channel_members")
	gt.Value(t, result.Relationships[0].SourceChannel).Equal(testTeamChannel)

	t.Run("repeat adds nothing", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/relationships/add-team", map[string]any{"channelId": testTeamChannel})
		gt.Number(t, rec.Code).Equal(http.StatusOK)
		var again bulkBody
		decodeBody(t, rec, &again)
		gt.Number(t, again.Added).Equal(0)
		gt.Number(t, again.Skipped).Equal(3)
	})

	t.Run("unknown channel", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/relationships/add-team", map[string]any{"channelId": "C0NONE"})
		gt.Number(t, rec.Code).Equal(http.StatusNotFound)
		gt.Value(t, errorMessage(t, rec)).Equal("Channel not found")
	})

	t.Run("missing channel id", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/relationships/add-team", map[string]any{})
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
		gt.Value(t, errorMessage(t, rec)).Equal("Channel ID is required")
	})
}

func TestAddRecentDMs(t *testing.T) {
	env := newTestEnv(t)

	t.Run("all recent contacts already exist", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/relationships/add-recent-dms", map[string]any{"days": 30})
		gt.Number(t, rec.Code).Equal(http.StatusOK)
		var result bulkBody
		decodeBody(t, rec, &result)
		gt.Number(t, result.Added).Equal(0)
		gt.Array(t, result.Errors).Length(0)
	})

	t.Run("days out of range", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/relationships/add-recent-dms", map[string]any{"days": 1000})
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
	})
}

func TestUpdateAndDeleteRelationship(t *testing.T) {
	env := newTestEnv(t)
	path := "/api/relationships/" + testDMContact.String()

	t.Run("update type and notes", func(t *testing.T) {
		rec := env.do(t, http.MethodPut, path, map[string]any{
			"relationshipType": "mentor",
			"notes":            "weekly 1:1",
			"tags":             []string{"career"},
		})
		gt.Number(t, rec.Code).Equal(http.StatusOK).Required()
		var rel relationshipBody
		decodeBody(t, rec, &rel)
		gt.Value(t, rel.RelationshipType).Equal("mentor")
		gt.Value(t, rel.Notes).Equal("weekly 1:1")
		gt.Value(t, rel.Tags).Equal([]string{"career"})
	})

	t.Run("update unknown relationship", func(t *testing.T) {
		rec := env.do(t, http.MethodPut, "/api/relationships/"+testNewcomer.String(), map[string]any{"notes": "x"})
		gt.Number(t, rec.Code).Equal(http.StatusNotFound)
		gt.Value(t, errorMessage(t, rec)).Equal("Relationship not found")
	})

	t.Run("delete twice", func(t *testing.T) {
		rec := env.do(t, http.MethodDelete, path, nil)
		gt.Number(t, rec.Code).Equal(http.StatusOK)

		rec = env.do(t, http.MethodDelete, path, nil)
		gt.Number(t, rec.Code).Equal(http.StatusNotFound)

		rels, err := env.repo.Relationship().FindRelationships(context.Background(), interfaces.RelationshipFilter{OwnerID: model.DemoUserID})
		gt.NoError(t, err).Required()
		for _, rel := range rels {
			if rel.ContactID == testDMContact {
				gt.B(t, rel.Active).False()
			}
		}
	})
}

func TestContactProfile(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/relationships/contact/"+testDMContact.String(), nil)
	gt.Number(t, rec.Code).Equal(http.StatusOK).Required()

	var body struct {
		Contact struct {
			SlackUserID string `json:"slackUserId"`
		} `json:"contact"`
		Relationship *struct {
			RelationshipType string `json:"relationshipType"`
		} `json:"relationship"`
		InteractionCount int `json:"interactionCount"`
	}
	decodeBody(t, rec, &body)
	gt.Value(t, body.Contact.SlackUserID).Equal(testDMContact.String())
	gt.Value(t, body.Relationship).NotNil()

	t.Run("contact without relationship", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/relationships/contact/"+testNewcomer.String(), nil)
		gt.Number(t, rec.Code).Equal(http.StatusOK)
		var body struct {
			Relationship *struct{} `json:"relationship"`
		}
		decodeBody(t, rec, &body)
		gt.Value(t, body.Relationship).Nil()
	})

	t.Run("unknown contact", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/relationships/contact/U0NOBODY", nil)
		gt.Number(t, rec.Code).Equal(http.StatusNotFound)
	})
}

func TestSlackDirectoryRoutes(t *testing.T) {
	env := newTestEnv(t)

	t.Run("search requires two characters", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/slack/users/search?query=s", nil)
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
		gt.Value(t, errorMessage(t, rec)).Equal("Search query must be at least 2 characters")
	})

	t.Run("search by name", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/slack/users/search?query=sarah", nil)
		gt.Number(t, rec.Code).Equal(http.StatusOK)
		var users []struct {
			SlackUserID string `json:"slackUserId"`
		}
		decodeBody(t, rec, &users)
		gt.Array(t, users).Length(1).Required()
		gt.Value(t, users[0].SlackUserID).Equal(testDMContact.String())
	})

	t.Run("channels of caller", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/slack/channels", nil)
		gt.Number(t, rec.Code).Equal(http.StatusOK)
		var channels []struct {
			ID string `json:"id"`
		}
		decodeBody(t, rec, &channels)
		gt.Number(t, len(channels)).GreaterOrEqual(2)
	})

	t.Run("recent dms", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/slack/recent-dms?days=30", nil)
		gt.Number(t, rec.Code).Equal(http.StatusOK)

		rec = env.do(t, http.MethodGet, "/api/slack/recent-dms?days=abc", nil)
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
	})

	t.Run("sync user", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/slack/sync-user", nil)
		gt.Number(t, rec.Code).Equal(http.StatusOK)
	})

	t.Run("sync team", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/slack/sync-team", nil)
		gt.Number(t, rec.Code).Equal(http.StatusOK)
		var result struct {
			Synced int `json:"synced"`
		}
		decodeBody(t, rec, &result)
		gt.Number(t, result.Synced).GreaterOrEqual(1)
	})
}

func TestDemoRoutes(t *testing.T) {
	env := newTestEnv(t)
	data, err := seed.Demo(testNow)
	gt.NoError(t, err).Required()

	rec := env.do(t, http.MethodPost, "/api/demo/reset", nil)
	gt.Number(t, rec.Code).Equal(http.StatusOK)
	var reset struct {
		Message       string `json:"message"`
		Users         int    `json:"users"`
		Relationships int    `json:"relationships"`
	}
	decodeBody(t, rec, &reset)
	gt.Value(t, reset.Message).Equal("Demo data reset successfully")
	gt.Number(t, reset.Users).Equal(len(data.Users))
	gt.Number(t, reset.Relationships).Equal(len(data.Relationships))

	rec = env.do(t, http.MethodGet, "/api/demo/user", nil)
	gt.Number(t, rec.Code).Equal(http.StatusOK)

	t.Run("demo routes are absent without a seed", func(t *testing.T) {
		uc := usecase.New(memory.New(), usecase.WithTokenSecret(testSecret))
		server := httpctrl.New(uc)
		req := httptest.NewRequest(http.MethodPost, "/api/demo/login", nil)
		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, req)
		gt.Number(t, rec.Code).Equal(http.StatusNotFound)
	})
}

package usecase_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/relmap/pkg/domain/model"
	"github.com/secmon-lab/relmap/pkg/domain/model/auth"
	"github.com/secmon-lab/relmap/pkg/repository/memory"
	"github.com/secmon-lab/relmap/pkg/service/slack"
)

var testNow = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

// mockDirectory is a hand-written slack.Directory
type mockDirectory struct {
	mu       sync.Mutex
	channels []*model.Channel
	users    map[model.UserID]*model.User
	listErr  error
	userErr  error
	calls    int
}

var _ slack.Directory = &mockDirectory{}

func newMockDirectory() *mockDirectory {
	return &mockDirectory{users: make(map[model.UserID]*model.User)}
}

func (m *mockDirectory) ListChannels(ctx context.Context, userID model.UserID) ([]*model.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	var result []*model.Channel
	for _, ch := range m.channels {
		if ch.HasMember(userID) {
			result = append(result, ch)
		}
	}
	return result, nil
}

func (m *mockDirectory) ChannelMembers(ctx context.Context, channelID string) ([]model.UserID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	for _, ch := range m.channels {
		if ch.ID == channelID {
			return ch.Members, nil
		}
	}
	return nil, slack.ErrChannelNotFound
}

func (m *mockDirectory) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.userErr != nil {
		return nil, m.userErr
	}
	return m.users[id].Clone(), nil
}

func (m *mockDirectory) ListUsers(ctx context.Context) ([]*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.userErr != nil {
		return nil, m.userErr
	}
	var result []*model.User
	for _, u := range m.users {
		result = append(result, u.Clone())
	}
	return result, nil
}

// mockAuthenticator returns a fixed user for "valid-code"
type mockAuthenticator struct {
	user *model.User
}

func (m *mockAuthenticator) Exchange(ctx context.Context, code string) (*model.User, error) {
	if code != "valid-code" {
		return nil, context.DeadlineExceeded
	}
	return m.user.Clone(), nil
}

const testTeam model.TeamID = "T1"

func principal(id model.UserID) *auth.Principal {
	return &auth.Principal{UserID: id, TeamID: testTeam}
}

func putUser(t *testing.T, repo *memory.Memory, id model.UserID, name string, interests ...string) *model.User {
	t.Helper()
	u, err := repo.User().CreateUser(context.Background(), &model.User{
		ID:          id,
		TeamID:      testTeam,
		DisplayName: name,
		RealName:    name,
		Profile:     model.UserProfile{Interests: interests},
	})
	gt.NoError(t, err).Required()
	return u
}

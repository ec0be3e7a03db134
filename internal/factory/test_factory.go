package factory

import (
	"context"
	"time"

	"github.com/mcoot/towerduel/internal/dependencies/mocks"
	"github.com/mcoot/towerduel/internal/model"
	"github.com/mcoot/towerduel/internal/services/catalog"
	"github.com/mcoot/towerduel/internal/services/session"
	"github.com/mcoot/towerduel/internal/storage/memory"
	"github.com/mcoot/towerduel/internal/testutil"
	"github.com/mcoot/towerduel/internal/web/ws"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app := newWithDependencies(store, mockClock, mockRandom, catalog.Default(), session.DefaultHandSize, ws.Config{}, testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}

// Connect registers a user backed by a recording outbox, handling the
// event synchronously
func (t *TestApp) Connect(id string) *mocks.MockOutbox {
	outbox := mocks.NewMockOutbox()
	t.Handle(session.Connect{User: model.UserID(id), Outbox: outbox})
	return outbox
}

// Handle applies events synchronously, in order, then waits for any battle
// archiving they started
func (t *TestApp) Handle(events ...session.Event) {
	for _, e := range events {
		t.Dispatcher.Handle(context.Background(), e)
	}
	t.Dispatcher.WaitArchived()
}
